package server

import (
	"net/http"

	"github.com/startupverse/dashboard/cmd/dashboard/internal/listing"
	"github.com/startupverse/dashboard/pkg/sdk"
)

// InvestorData is the investor template payload.
type InvestorData struct {
	Criteria listing.Criteria
	Startups []sdk.Startup
	Sectors  []string
	Stages   []string
	Sorts    []string
	Empty    string
}

// HandleInvestor renders the startup browser with the search, sector, stage
// and sort controls taken from the query string.
func HandleInvestor(deps *PageDependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		criteria := listing.Criteria{
			SearchTerm: q.Get("q"),
			Sector:     defaultAll(q.Get("sector")),
			Stage:      defaultAll(q.Get("stage")),
			Sort:       q.Get("sort"),
		}

		data := InvestorData{
			Criteria: criteria,
			Sectors:  sdk.Sectors,
			Stages:   sdk.Stages,
			Sorts:    []string{listing.SortRecent, listing.SortTraction},
			Empty:    listing.EmptyMessage,
		}

		p := deps.page(w, r, "Investor Dashboard")
		status := http.StatusOK

		startups, err := deps.backendFor(r).ListStartups(r.Context())
		if err != nil {
			deps.Logger.Warnw("list startups failed", "error", err)
			p.Error, status = backendError("startups", err)
		} else {
			// No Where clause here, so Startups cannot fail.
			data.Startups, _ = listing.Startups(startups, criteria)
		}

		p.Data = data
		deps.render(w, status, "investor", p)
	}
}

func defaultAll(v string) string {
	if v == "" {
		return listing.All
	}
	return v
}
