package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func unsignedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test"))
	require.NoError(t, err)
	return tok
}

func newTestFirebase(t *testing.T, handler http.HandlerFunc) *Firebase {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	fb, err := NewFirebase(FirebaseOptions{
		APIKey:         "key-123",
		ToolkitURL:     srv.URL,
		SecureTokenURL: srv.URL + "/",
		HTTPClient:     srv.Client(),
		Now:            func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return fb
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewFirebase_RequiresAPIKey(t *testing.T) {
	_, err := NewFirebase(FirebaseOptions{})
	require.Error(t, err)
}

func TestFirebase_SignInWithPassword(t *testing.T) {
	exp := fixedNow.Add(time.Hour).Truncate(time.Second)
	idToken := unsignedToken(t, jwt.MapClaims{"sub": "uid-1", "exp": exp.Unix()})

	fb := newTestFirebase(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/accounts:signInWithPassword", r.URL.Path)
		assert.Equal(t, "key-123", r.URL.Query().Get("key"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ada@example.com", body["email"])
		assert.Equal(t, "secret1", body["password"])
		assert.Equal(t, true, body["returnSecureToken"])

		writeJSON(w, http.StatusOK, map[string]any{
			"localId":      "uid-1",
			"email":        "ada@example.com",
			"idToken":      idToken,
			"refreshToken": "refresh-1",
			"expiresIn":    "3600",
		})
	})

	tokens, err := fb.SignInWithPassword(context.Background(), "ada@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", tokens.UserID)
	assert.Equal(t, "ada@example.com", tokens.Email)
	assert.Equal(t, idToken, tokens.IDToken)
	assert.Equal(t, "refresh-1", tokens.RefreshToken)
	assert.True(t, exp.Equal(tokens.ExpiresAt))
	assert.False(t, tokens.NewUser)
}

func TestFirebase_SignUp_UsesExpiresInWithoutExpClaim(t *testing.T) {
	fb := newTestFirebase(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/accounts:signUp", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{
			"localId":      "uid-2",
			"email":        "new@example.com",
			"idToken":      "not-a-jwt",
			"refreshToken": "refresh-2",
			"expiresIn":    "1800",
		})
	})

	tokens, err := fb.SignUp(context.Background(), "new@example.com", "secret1")
	require.NoError(t, err)
	assert.True(t, tokens.NewUser)
	assert.Equal(t, fixedNow.Add(30*time.Minute), tokens.ExpiresAt)
}

func TestFirebase_ErrorMapping(t *testing.T) {
	tests := []struct {
		name        string
		message     string
		wantCode    string
		wantMessage string
	}{
		{"wrong password", "INVALID_PASSWORD", "INVALID_PASSWORD", "Invalid email or password."},
		{"unknown email", "EMAIL_NOT_FOUND", "EMAIL_NOT_FOUND", "Invalid email or password."},
		{"detail suffix", "WEAK_PASSWORD : Password should be at least 6 characters", "WEAK_PASSWORD", "Password must be at least 6 characters."},
		{"unmapped", "SOMETHING_ODD", "SOMETHING_ODD", genericAuthMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := newTestFirebase(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusBadRequest, map[string]any{
					"error": map[string]any{"code": 400, "message": tt.message},
				})
			})

			_, err := fb.SignInWithPassword(context.Background(), "ada@example.com", "bad")
			authErr, ok := IsAuthError(err)
			require.True(t, ok, "expected AuthError, got %v", err)
			assert.Equal(t, tt.wantCode, authErr.Code)
			assert.Equal(t, tt.wantMessage, authErr.Message)
		})
	}
}

func TestFirebase_UnexpectedStatus(t *testing.T) {
	fb := newTestFirebase(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := fb.SignInWithPassword(context.Background(), "ada@example.com", "x")
	require.Error(t, err)
	_, ok := IsAuthError(err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "502")
}

func TestFirebase_SignInWithIDP(t *testing.T) {
	fb := newTestFirebase(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/accounts:signInWithIdp", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "id_token=google-token&providerId=google.com", body["postBody"])
		assert.Equal(t, "http://localhost:8080/login/google/callback", body["requestUri"])

		writeJSON(w, http.StatusOK, map[string]any{
			"localId":      "uid-3",
			"email":        "g@example.com",
			"idToken":      "id-3",
			"refreshToken": "refresh-3",
			"expiresIn":    "3600",
			"isNewUser":    true,
		})
	})

	tokens, err := fb.SignInWithIDP(context.Background(), GoogleProviderID, "google-token", "http://localhost:8080/login/google/callback")
	require.NoError(t, err)
	assert.Equal(t, "uid-3", tokens.UserID)
	assert.True(t, tokens.NewUser)
}

func TestFirebase_SignInWithIDP_InBandError(t *testing.T) {
	fb := newTestFirebase(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"errorMessage": "INVALID_IDP_RESPONSE"})
	})

	_, err := fb.SignInWithIDP(context.Background(), GoogleProviderID, "bad", "http://localhost")
	authErr, ok := IsAuthError(err)
	require.True(t, ok)
	assert.Equal(t, "Google sign-in failed. Please try again.", authErr.Message)
}

func TestFirebase_Refresh(t *testing.T) {
	exp := fixedNow.Add(time.Hour).Truncate(time.Second)
	idToken := unsignedToken(t, jwt.MapClaims{"sub": "uid-1", "email": "ada@example.com", "exp": exp.Unix()})

	fb := newTestFirebase(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/token", r.URL.Path)
		assert.Equal(t, "key-123", r.URL.Query().Get("key"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "refresh-1", r.PostForm.Get("refresh_token"))

		writeJSON(w, http.StatusOK, map[string]any{
			"id_token":      idToken,
			"refresh_token": "refresh-2",
			"expires_in":    "3600",
			"user_id":       "uid-1",
		})
	})

	tokens, err := fb.Refresh(context.Background(), "refresh-1")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", tokens.UserID)
	assert.Equal(t, "ada@example.com", tokens.Email)
	assert.Equal(t, "refresh-2", tokens.RefreshToken)
	assert.True(t, exp.Equal(tokens.ExpiresAt))
}

func TestFirebase_Refresh_EmptyToken(t *testing.T) {
	fb := newTestFirebase(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := fb.Refresh(context.Background(), "")
	authErr, ok := IsAuthError(err)
	require.True(t, ok)
	assert.Equal(t, "INVALID_REFRESH_TOKEN", authErr.Code)
}

func TestExpiresAt(t *testing.T) {
	exp := time.Unix(1900000000, 0)
	got, err := ExpiresAt(unsignedToken(t, jwt.MapClaims{"exp": exp.Unix()}))
	require.NoError(t, err)
	assert.True(t, exp.Equal(got))

	_, err = ExpiresAt(unsignedToken(t, jwt.MapClaims{"sub": "x"}))
	require.Error(t, err)

	_, err = ExpiresAt("garbage")
	require.Error(t, err)
}
