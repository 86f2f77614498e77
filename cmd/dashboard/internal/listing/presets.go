package listing

import (
	"time"

	"github.com/startupverse/dashboard/pkg/sdk"
)

// StartupFields reads startups for the investor browse view and the admin
// submissions tab. Search matches the display name.
var StartupFields = Fields[sdk.Startup]{
	Text:        func(s sdk.Startup) []string { return []string{s.DisplayName()} },
	Sector:      func(s sdk.Startup) string { return s.Sector },
	Stage:       func(s sdk.Startup) string { return s.Stage },
	SubmittedAt: func(s sdk.Startup) time.Time { return s.SubmittedAt.Time },
	Traction:    func(s sdk.Startup) float64 { return s.Traction.MRR },
	Attributes: func(s sdk.Startup) map[string]any {
		return map[string]any{
			"id":     s.ID,
			"name":   s.DisplayName(),
			"sector": s.Sector,
			"stage":  s.Stage,
			"status": s.Status,
			"mrr":    s.Traction.MRR,
			"dau":    s.Traction.DAU,
			"mau":    s.Traction.MAU,
		}
	},
}

// MemoFields reads memos for the admin memos tab. Search matches the memo
// type or the company name of the memo's startup, looked up in companies.
func MemoFields(companies map[string]string) Fields[sdk.Memo] {
	return Fields[sdk.Memo]{
		Text: func(m sdk.Memo) []string { return []string{companies[m.StartupID], m.Type} },
		Attributes: func(m sdk.Memo) map[string]any {
			return map[string]any{
				"id":      m.ID,
				"type":    m.Type,
				"status":  m.Status,
				"startup": companies[m.StartupID],
			}
		},
	}
}

// UserFields reads accounts for the admin access control tab.
var UserFields = Fields[sdk.User]{
	Text: func(u sdk.User) []string { return []string{u.Email} },
	Attributes: func(u sdk.User) map[string]any {
		return map[string]any{"email": u.Email, "role": u.Role, "status": u.Status}
	},
}

// Startups is Apply with StartupFields.
func Startups(items []sdk.Startup, c Criteria) ([]sdk.Startup, error) {
	return Apply(items, c, StartupFields)
}
