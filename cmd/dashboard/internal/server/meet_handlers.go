package server

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/startupverse/dashboard/cmd/dashboard/internal/auth"
	"github.com/startupverse/dashboard/cmd/dashboard/internal/forms"
	"github.com/startupverse/dashboard/pkg/sdk"
)

const meetingFlash = "Meeting Scheduled!"

// TimeSlot is one bookable meeting time.
type TimeSlot struct {
	Value string
	Label string
}

var meetingSlots = []TimeSlot{
	{"09:00", "9:00 AM"},
	{"10:00", "10:00 AM"},
	{"11:00", "11:00 AM"},
	{"14:00", "2:00 PM"},
	{"15:00", "3:00 PM"},
}

// MeetData is the meet template payload.
type MeetData struct {
	Slots         []TimeSlot
	Modes         []string
	Types         []string
	Meetings      []sdk.Meeting
	MeetingsError string
}

func newMeetData() MeetData {
	return MeetData{
		Slots: meetingSlots,
		Modes: []string{"Agent", "1-on-1"},
		Types: []string{"Voice", "Video"},
	}
}

// HandleMeetPage renders the scheduling form and the caller's meetings.
// investorId and mode may be pre-filled from the query string.
func HandleMeetPage(deps *PageDependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := deps.page(w, r, "Schedule a Meeting")
		q := r.URL.Query()
		p.Form = url.Values{
			"investorId": {q.Get("investorId")},
			"mode":       {q.Get("mode")},
			"type":       {"Video"},
		}

		data := newMeetData()
		loadMeetings(deps, r, &data)
		p.Data = data
		deps.render(w, http.StatusOK, "meet", p)
	}
}

// HandleMeet schedules a meeting from the submitted form.
func HandleMeet(deps *PageDependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req forms.MeetingRequest
		values, fields, err := decodeForm(deps, r, forms.Meeting, &req)
		if err != nil {
			http.Error(w, "Invalid form", http.StatusBadRequest)
			return
		}

		p := deps.page(w, r, "Schedule a Meeting")
		p.Form = values
		data := newMeetData()

		var at time.Time
		if fields == nil {
			at, err = time.ParseInLocation("2006-01-02 15:04", req.Date+" "+req.Time, time.UTC)
			if err != nil {
				fields = map[string]string{"date": "Enter a valid date."}
			}
		}

		if fields != nil {
			p.Fields = fields
			loadMeetings(deps, r, &data)
			p.Data = data
			deps.render(w, http.StatusUnprocessableEntity, "meet", p)
			return
		}

		s := auth.GetSessionFromContext(r.Context())
		meeting, err := deps.backendFor(r).CreateMeeting(r.Context(), sdk.CreateMeetingInput{
			Title:      strings.TrimSpace(req.Title),
			InvestorID: req.InvestorID,
			Mode:       req.Mode,
			Type:       req.Type,
			Time:       at,
		})
		if err != nil {
			deps.Logger.Warnw("create meeting failed", "user", s.UserID, "error", err)
			var status int
			p.Error, status = submitError("schedule the meeting", err)
			loadMeetings(deps, r, &data)
			p.Data = data
			deps.render(w, status, "meet", p)
			return
		}

		deps.Logger.Infow("meeting scheduled", "user", s.UserID, "meeting", meeting.ID, "at", at)
		setFlash(deps.Cookies, w, r, meetingFlash)
		http.Redirect(w, r, "/meet", http.StatusSeeOther)
	}
}

func loadMeetings(deps *PageDependencies, r *http.Request, data *MeetData) {
	meetings, err := deps.backendFor(r).ListMeetings(r.Context())
	if err != nil {
		deps.Logger.Warnw("list meetings failed", "error", err)
		data.MeetingsError, _ = backendError("meetings", err)
		return
	}
	data.Meetings = meetings
}
