package forms

// StartupSubmission is a founder's startup form.
type StartupSubmission struct {
	Name        string `mapstructure:"name"`
	Website     string `mapstructure:"website"`
	Sector      string `mapstructure:"sector"`
	Stage       string `mapstructure:"stage"`
	Description string `mapstructure:"description"`
}

// SignupRequest is the request-access form.
type SignupRequest struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
	Role     string `mapstructure:"role"`
}

// Credentials is the sign-in form.
type Credentials struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

// MeetingRequest is the schedule-a-meeting form.
type MeetingRequest struct {
	InvestorID string `mapstructure:"investorId"`
	Title      string `mapstructure:"title"`
	Date       string `mapstructure:"date"`
	Time       string `mapstructure:"time"`
	Mode       string `mapstructure:"mode"`
	Type       string `mapstructure:"type"`
	Notes      string `mapstructure:"notes"`
}
