package server

import (
	"errors"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/startupverse/dashboard/cmd/dashboard/internal/listing"
	"github.com/startupverse/dashboard/pkg/sdk"
)

// Admin tabs.
const (
	TabUsers       = "users"
	TabSubmissions = "submissions"
	TabMemos       = "memos"
	TabSystem      = "system"
)

var adminTabs = []string{TabUsers, TabSubmissions, TabMemos, TabSystem}

// AdminTab is one tab of the admin page. Each tab fails on its own.
type AdminTab struct {
	Name  string
	Title string
	Error string
}

// MemoRow is a memo with its startup's company name resolved.
type MemoRow struct {
	Memo    sdk.Memo
	Company string
}

// ServiceStatus is one row of the system tab.
type ServiceStatus struct {
	Name   string
	OK     bool
	Detail string
}

// AdminData is the admin template payload.
type AdminData struct {
	Active   string
	Tabs     []AdminTab
	Criteria listing.Criteria
	Users    []sdk.User
	Startups []sdk.Startup
	Memos    []MemoRow
	Services []ServiceStatus
	// Account is the caller as the backend sees it.
	Account *sdk.Me
	Empty   string
}

// HandleAdmin renders the admin dashboard. Users, startups, memos and the
// caller's backend account are fetched concurrently; a failed fetch only
// affects the tabs that need it.
func HandleAdmin(deps *PageDependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		backend := deps.backendFor(r)
		q := r.URL.Query()

		active := q.Get("tab")
		if !validTab(active) {
			active = TabUsers
		}
		criteria := listing.Criteria{
			SearchTerm: q.Get("q"),
			Sort:       q.Get("sort"),
			Where:      q.Get("where"),
		}

		var users []sdk.User
		var startups []sdk.Startup
		var memos []sdk.Memo
		var account *sdk.Me
		var usersErr, startupsErr, memoErr, accountErr error
		// Tabs fail independently, so the group has no shared context.
		var g errgroup.Group
		g.Go(func() error {
			users, usersErr = backend.ListUsers(ctx)
			return usersErr
		})
		g.Go(func() error {
			startups, startupsErr = backend.ListStartups(ctx)
			return startupsErr
		})
		g.Go(func() error {
			memos, memoErr = backend.ListMemos(ctx)
			return memoErr
		})
		g.Go(func() error {
			account, accountErr = backend.Me(ctx)
			return accountErr
		})
		if g.Wait() != nil {
			deps.Logger.Warnw("admin fetch failed", "error", errors.Join(usersErr, startupsErr, memoErr, accountErr))
		}

		data := AdminData{Active: active, Criteria: criteria, Empty: listing.EmptyMessage}
		tabErrors := map[string]string{}
		status := http.StatusOK

		fail := func(tab, what string, err error) {
			msg, code := backendError(what, err)
			tabErrors[tab] = msg
			if tab == active {
				status = code
			}
		}

		if usersErr != nil {
			fail(TabUsers, "users", usersErr)
		} else {
			filtered, _ := listing.Apply(users, listing.Criteria{SearchTerm: searchFor(active, TabUsers, criteria)}, listing.UserFields)
			data.Users = filtered
		}

		if startupsErr != nil {
			fail(TabSubmissions, "submissions", startupsErr)
		} else {
			c := criteria
			if active != TabSubmissions {
				c = listing.Criteria{}
			}
			filtered, err := listing.Startups(startups, c)
			if err != nil {
				tabErrors[TabSubmissions] = err.Error()
				data.Startups = startups
				if active == TabSubmissions {
					status = http.StatusUnprocessableEntity
				}
			} else {
				data.Startups = filtered
			}
		}

		switch {
		case memoErr != nil:
			fail(TabMemos, "memos", memoErr)
		default:
			// Company names come from the startups fetch; without it memos
			// still list by type.
			companies := make(map[string]string, len(startups))
			for _, s := range startups {
				companies[s.ID] = s.DisplayName()
			}
			filtered, _ := listing.Apply(memos, listing.Criteria{SearchTerm: searchFor(active, TabMemos, criteria)}, listing.MemoFields(companies))
			for _, m := range filtered {
				data.Memos = append(data.Memos, MemoRow{Memo: m, Company: companies[m.StartupID]})
			}
		}

		data.Services = []ServiceStatus{
			serviceStatus("Users API", usersErr),
			serviceStatus("Startups API", startupsErr),
			serviceStatus("Memos API", memoErr),
			serviceStatus("Auth API", accountErr),
		}
		data.Account = account

		for _, name := range adminTabs {
			data.Tabs = append(data.Tabs, AdminTab{Name: name, Title: tabTitle(name), Error: tabErrors[name]})
		}

		p := deps.page(w, r, "Admin Dashboard")
		p.Data = data
		if msg, ok := tabErrors[active]; ok {
			p.Error = msg
		}
		deps.render(w, status, "admin", p)
	}
}

func validTab(tab string) bool {
	for _, t := range adminTabs {
		if t == tab {
			return true
		}
	}
	return false
}

func tabTitle(tab string) string {
	switch tab {
	case TabUsers:
		return "Access Control"
	case TabSubmissions:
		return "Submissions"
	case TabMemos:
		return "Memos"
	default:
		return "System"
	}
}

// searchFor applies the search box only to the tab it was typed in.
func searchFor(active, tab string, c listing.Criteria) string {
	if active != tab {
		return ""
	}
	return c.SearchTerm
}

func serviceStatus(name string, err error) ServiceStatus {
	if err != nil {
		return ServiceStatus{Name: name, Detail: err.Error()}
	}
	return ServiceStatus{Name: name, OK: true, Detail: "Operational"}
}
