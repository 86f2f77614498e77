package server

import (
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/startupverse/dashboard/cmd/dashboard/internal/auth"
	"github.com/startupverse/dashboard/cmd/dashboard/internal/forms"
	"github.com/startupverse/dashboard/pkg/sdk"
)

const submissionFlash = "Submission Successful!"

// FounderData is the founder template payload.
type FounderData struct {
	Startup          *sdk.Startup
	Memos            []sdk.Memo
	InvestorInterest []sdk.Connection
	Meetings         []sdk.Meeting
	MeetingsError    string
}

// SubmitData is the submission form payload.
type SubmitData struct {
	Sectors []string
	Stages  []string
}

// HandleFounder renders the founder's startup, memos, investor interest and
// meetings. The dashboard and the meetings are fetched concurrently.
func HandleFounder(deps *PageDependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		backend := deps.backendFor(r)

		var dash *sdk.FounderDashboard
		var meetings []sdk.Meeting
		var dashErr, meetErr error

		var g errgroup.Group
		g.Go(func() error {
			dash, dashErr = backend.FounderDashboard(ctx)
			if dashErr != nil && !sdk.IsNotFound(dashErr) {
				return fmt.Errorf("founder dashboard: %w", dashErr)
			}
			return nil
		})
		g.Go(func() error {
			meetings, meetErr = backend.ListMeetings(ctx)
			if meetErr != nil {
				return fmt.Errorf("list meetings: %w", meetErr)
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			deps.Logger.Warnw("founder fetch failed", "error", err)
		}

		p := deps.page(w, r, "Founder Dashboard")
		status := http.StatusOK
		var data FounderData

		switch {
		case dashErr != nil && sdk.IsNotFound(dashErr):
			// Founders without a submission get an empty dashboard.
		case dashErr != nil:
			p.Error, status = backendError("your dashboard", dashErr)
		default:
			data.Startup = dash.Startup
			data.Memos = dash.Memos
			data.InvestorInterest = dash.InvestorInterest
		}

		if meetErr != nil {
			data.MeetingsError, _ = backendError("meetings", meetErr)
		} else {
			data.Meetings = meetings
		}

		p.Data = data
		deps.render(w, status, "founder", p)
	}
}

// HandleFounderSubmitPage renders the startup submission form.
func HandleFounderSubmitPage(deps *PageDependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := deps.page(w, r, "Submit Your Startup")
		p.Data = SubmitData{Sectors: sdk.Sectors, Stages: sdk.Stages}
		deps.render(w, http.StatusOK, "founder_submit", p)
	}
}

// HandleFounderSubmit validates the submission and creates the startup on
// behalf of the signed-in founder.
func HandleFounderSubmit(deps *PageDependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sub forms.StartupSubmission
		values, fields, err := decodeForm(deps, r, forms.Startup, &sub)
		if err != nil {
			http.Error(w, "Invalid form", http.StatusBadRequest)
			return
		}

		p := deps.page(w, r, "Submit Your Startup")
		p.Data = SubmitData{Sectors: sdk.Sectors, Stages: sdk.Stages}
		p.Form = values

		if fields != nil {
			p.Fields = fields
			deps.render(w, http.StatusUnprocessableEntity, "founder_submit", p)
			return
		}

		s := auth.GetSessionFromContext(r.Context())
		created, err := deps.backendFor(r).CreateStartup(r.Context(), sdk.CreateStartupInput{
			Name:        sub.Name,
			Description: sub.Description,
			Website:     sub.Website,
			Sector:      sub.Sector,
			Stage:       sub.Stage,
			FounderUID:  s.UserID,
		})
		if err != nil {
			deps.Logger.Warnw("create startup failed", "user", s.UserID, "error", err)
			var status int
			p.Error, status = submitError("submit your startup", err)
			deps.render(w, status, "founder_submit", p)
			return
		}

		deps.Logger.Infow("startup submitted", "user", s.UserID, "startup", created.ID)
		setFlash(deps.Cookies, w, r, submissionFlash)
		http.Redirect(w, r, "/founder", http.StatusSeeOther)
	}
}
