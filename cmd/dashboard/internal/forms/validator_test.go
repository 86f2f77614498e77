package forms

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator()
	require.NoError(t, err)
	return v
}

func validStartup() url.Values {
	return url.Values{
		"name":        {"Healthify"},
		"website":     {"https://healthify.example.com"},
		"sector":      {"HealthTech"},
		"stage":       {"Seed"},
		"description": {"Personal health coaching powered by wearables."},
	}
}

func TestValidate_Startup(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		name   string
		mutate func(url.Values)
		want   map[string]string
	}{
		{
			name:   "valid",
			mutate: func(url.Values) {},
		},
		{
			name:   "short name",
			mutate: func(vals url.Values) { vals.Set("name", "H") },
			want:   map[string]string{"name": "Company name must be at least 2 characters."},
		},
		{
			name:   "blank name counts as missing",
			mutate: func(vals url.Values) { vals.Set("name", "   ") },
			want:   map[string]string{"name": "Company name must be at least 2 characters."},
		},
		{
			name:   "website not a url",
			mutate: func(vals url.Values) { vals.Set("website", "healthify") },
			want:   map[string]string{"website": "Please enter a valid URL."},
		},
		{
			name:   "unknown sector",
			mutate: func(vals url.Values) { vals.Set("sector", "BioTech") },
			want:   map[string]string{"sector": "Please select a sector."},
		},
		{
			name:   "description too short",
			mutate: func(vals url.Values) { vals.Set("description", "Too short") },
			want:   map[string]string{"description": "Must be at least 10 characters."},
		},
		{
			name:   "description too long",
			mutate: func(vals url.Values) { vals.Set("description", strings.Repeat("x", 161)) },
			want:   map[string]string{"description": "Must not be longer than 160 characters."},
		},
		{
			name: "several fields",
			mutate: func(vals url.Values) {
				vals.Del("stage")
				vals.Set("website", "nope")
			},
			want: map[string]string{
				"stage":   "Please select a stage.",
				"website": "Please enter a valid URL.",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := validStartup()
			tt.mutate(values)

			_, err := v.Validate(Startup, values)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}

			verr, ok := AsValidationError(err)
			require.True(t, ok, "expected validation error, got %v", err)
			assert.Equal(t, tt.want, verr.Fields)
		})
	}
}

func TestDecode_Startup(t *testing.T) {
	v := newValidator(t)

	values := validStartup()
	values.Set("name", "  Healthify  ")
	values.Set("extra", "ignored")

	var sub StartupSubmission
	require.NoError(t, v.Decode(Startup, values, &sub))
	assert.Equal(t, "Healthify", sub.Name)
	assert.Equal(t, "HealthTech", sub.Sector)
	assert.Equal(t, "Seed", sub.Stage)
}

func TestDecode_Signup(t *testing.T) {
	v := newValidator(t)

	var req SignupRequest
	err := v.Decode(Signup, url.Values{"email": {"ada@example.com"}, "password": {" secret1"}, "role": {"investor"}}, &req)
	require.NoError(t, err)
	assert.Equal(t, " secret1", req.Password, "passwords are not trimmed")
	assert.Equal(t, "investor", req.Role)

	err = v.Decode(Signup, url.Values{"email": {"ada"}, "password": {"123"}, "role": {"admin"}}, &req)
	verr, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Len(t, verr.Fields, 3)
	assert.Equal(t, "Please choose founder or investor.", verr.Fields["role"])
}

func TestValidate_Meeting(t *testing.T) {
	v := newValidator(t)

	values := url.Values{
		"investorId": {"inv-1"},
		"title":      {"Introduction & Pitch"},
		"date":       {"2026-11-02"},
		"time":       {"10:00"},
		"mode":       {"1-on-1"},
		"type":       {"Video"},
	}
	var req MeetingRequest
	require.NoError(t, v.Decode(Meeting, values, &req))
	assert.Equal(t, "inv-1", req.InvestorID)

	values.Set("date", "next tuesday")
	_, err := v.Validate(Meeting, values)
	verr, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, map[string]string{"date": "Please pick a date."}, verr.Fields)
}

func TestValidate_UnknownForm(t *testing.T) {
	v := newValidator(t)
	_, err := v.Validate("nope", nil)
	require.Error(t, err)
	_, ok := AsValidationError(err)
	assert.False(t, ok)
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"b": "second", "a": "first"}}
	assert.Equal(t, "validation failed: a: first; b: second", err.Error())
}
