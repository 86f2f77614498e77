package sdk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Sectors accepted by the backend.
var Sectors = []string{"AI/ML", "HealthTech", "CleanTech", "FinTech", "SaaS"}

// Stages accepted by the backend.
var Stages = []string{"Pre-Seed", "Seed", "Series A", "Series B", "Growth"}

// Traction holds a startup's headline usage and revenue metrics.
type Traction struct {
	MRR float64 `json:"mrr"`
	DAU float64 `json:"dau"`
	MAU float64 `json:"mau"`
}

// Risk grades market, tech and team risk as low, medium or high.
type Risk struct {
	Market string `json:"market,omitempty"`
	Tech   string `json:"tech,omitempty"`
	Team   string `json:"team,omitempty"`
}

// Startup is a company submitted by a founder.
type Startup struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Company     string             `json:"company,omitempty"`
	Description string             `json:"description,omitempty"`
	OneLiner    string             `json:"oneLiner,omitempty"`
	Website     string             `json:"website,omitempty"`
	Logo        string             `json:"logo,omitempty"`
	Sector      string             `json:"sector,omitempty"`
	Stage       string             `json:"stage,omitempty"`
	Status      string             `json:"status,omitempty"`
	FounderUID  string             `json:"founder_uid,omitempty"`
	DeckURL     string             `json:"deckUrl,omitempty"`
	SubmittedAt Timestamp          `json:"submittedAt"`
	Traction    Traction           `json:"traction"`
	Scores      map[string]float64 `json:"scores,omitempty"`
	Risk        Risk               `json:"risk"`
}

// DisplayName is the name shown in listings and searched by the filters.
func (s Startup) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Company
}

// CreateStartupInput is the payload of a founder's submission.
type CreateStartupInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Website     string `json:"website,omitempty"`
	Sector      string `json:"sector,omitempty"`
	Stage       string `json:"stage,omitempty"`
	FounderUID  string `json:"founder_uid"`
}

// MemoContent is either a structured memo or free text. Both shapes occur
// in stored memos.
type MemoContent struct {
	FounderAndTeam      string `json:"founderAndTeam,omitempty"`
	ProblemAndMarket    string `json:"problemAndMarket,omitempty"`
	Differentiation     string `json:"differentiation,omitempty"`
	BusinessAndTraction string `json:"businessAndTraction,omitempty"`
	Comparables         string `json:"comparables,omitempty"`
	RiskFlags           string `json:"riskFlags,omitempty"`
	CallInsights        string `json:"callInsights,omitempty"`

	// Text is set when the memo was stored as a single string.
	Text string `json:"-"`
}

// UnmarshalJSON accepts a JSON string or object.
func (m *MemoContent) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		return json.Unmarshal(data, &m.Text)
	}
	type plain MemoContent
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*m = MemoContent(p)
	return nil
}

// MemoSection is one titled block of a structured memo.
type MemoSection struct {
	Title string
	Body  string
}

// Sections returns the non-empty structured sections in reading order.
func (m MemoContent) Sections() []MemoSection {
	all := []MemoSection{
		{"Founder & Team", m.FounderAndTeam},
		{"Problem & Market", m.ProblemAndMarket},
		{"Differentiation", m.Differentiation},
		{"Business & Traction", m.BusinessAndTraction},
		{"Comparables", m.Comparables},
		{"Risk Flags", m.RiskFlags},
		{"Call Insights", m.CallInsights},
	}
	var out []MemoSection
	for _, s := range all {
		if strings.TrimSpace(s.Body) != "" {
			out = append(out, s)
		}
	}
	return out
}

// Memo is an investment memo generated for a startup.
type Memo struct {
	ID        string      `json:"id"`
	StartupID string      `json:"startupId"`
	Type      string      `json:"type"`
	Status    string      `json:"status,omitempty"`
	Content   MemoContent `json:"content"`
	Sources   []string    `json:"sources,omitempty"`
}

// Meeting is a scheduled call between an investor and a founder or agent.
type Meeting struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Participants []string  `json:"participants,omitempty"`
	Mode         string    `json:"mode"`
	Type         string    `json:"type"`
	Time         Timestamp `json:"time"`
	Status       string    `json:"status,omitempty"`
	Link         string    `json:"link,omitempty"`
}

// CreateMeetingInput schedules a meeting.
type CreateMeetingInput struct {
	Title      string    `json:"title"`
	InvestorID string    `json:"investorId,omitempty"`
	StartupID  string    `json:"startupId,omitempty"`
	Mode       string    `json:"mode"`
	Type       string    `json:"type"`
	Time       time.Time `json:"time"`
}

// Connection is an investor's interest in a founder's startup.
type Connection struct {
	ID         string `json:"id"`
	InvestorID string `json:"investorId"`
	FounderID  string `json:"founderId"`
	StartupID  string `json:"startupId"`
	Status     string `json:"status"`
}

// User is an account as seen by administrators.
type User struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Status string `json:"status"`
}

// FounderDashboard is the founder landing payload.
type FounderDashboard struct {
	Startup          *Startup     `json:"startup"`
	Memos            []Memo       `json:"memos"`
	InvestorInterest []Connection `json:"investor_interest"`
}

// SignupInput registers a freshly created account for admin approval.
type SignupInput struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Me is the backend's view of the caller.
type Me struct {
	UID   string `json:"uid"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Timestamp decodes the time formats the backend emits: RFC 3339 strings,
// plain dates, and unix seconds.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] != '"' {
		secs, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("invalid timestamp %s", data)
		}
		whole, frac := math.Modf(secs)
		t.Time = time.Unix(int64(whole), int64(frac*float64(time.Second))).UTC()
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", raw)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}
