package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hashicorp/go-cleanhttp"
)

// FirebaseOptions configures the Firebase Auth REST client.
type FirebaseOptions struct {
	APIKey         string
	ToolkitURL     string
	SecureTokenURL string
	HTTPClient     *http.Client
	// Now is used to turn expiresIn into an absolute time.
	Now func() time.Time
}

// Firebase implements Provider against the Firebase Auth REST API.
type Firebase struct {
	apiKey         string
	toolkitURL     string
	secureTokenURL string
	httpClient     *http.Client
	now            func() time.Time
}

var _ Provider = (*Firebase)(nil)

// NewFirebase creates a Firebase Auth client.
func NewFirebase(opts FirebaseOptions) (*Firebase, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("firebase api key is required")
	}
	if opts.ToolkitURL == "" {
		opts.ToolkitURL = "https://identitytoolkit.googleapis.com"
	}
	if opts.SecureTokenURL == "" {
		opts.SecureTokenURL = "https://securetoken.googleapis.com"
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = cleanhttp.DefaultPooledClient()
		opts.HTTPClient.Timeout = 15 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Firebase{
		apiKey:         opts.APIKey,
		toolkitURL:     strings.TrimRight(opts.ToolkitURL, "/"),
		secureTokenURL: strings.TrimRight(opts.SecureTokenURL, "/"),
		httpClient:     opts.HTTPClient,
		now:            opts.Now,
	}, nil
}

type toolkitResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	IsNewUser    bool   `json:"isNewUser"`

	// signInWithIdp reports failures in-band.
	ErrorMessage string `json:"errorMessage"`
}

type secureTokenResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
	UserID       string `json:"user_id"`
}

// SignInWithPassword signs in an email/password account.
func (f *Firebase) SignInWithPassword(ctx context.Context, email, password string) (*Tokens, error) {
	var resp toolkitResponse
	err := f.postJSON(ctx, "accounts:signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return f.tokensFromToolkit(resp, false), nil
}

// SignUp creates an email/password account and signs it in.
func (f *Firebase) SignUp(ctx context.Context, email, password string) (*Tokens, error) {
	var resp toolkitResponse
	err := f.postJSON(ctx, "accounts:signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return f.tokensFromToolkit(resp, true), nil
}

// SignInWithIDP exchanges a federated ID token for Firebase tokens,
// creating the account on first use.
func (f *Firebase) SignInWithIDP(ctx context.Context, providerID, idToken, requestURI string) (*Tokens, error) {
	postBody := url.Values{"id_token": {idToken}, "providerId": {providerID}}
	var resp toolkitResponse
	err := f.postJSON(ctx, "accounts:signInWithIdp", map[string]any{
		"postBody":            postBody.Encode(),
		"requestUri":          requestURI,
		"returnSecureToken":   true,
		"returnIdpCredential": true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.ErrorMessage != "" {
		return nil, newAuthError(resp.ErrorMessage)
	}
	return f.tokensFromToolkit(resp, resp.IsNewUser), nil
}

// Refresh exchanges a refresh token for a new ID token.
func (f *Firebase) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	if refreshToken == "" {
		return nil, NewAuthError("INVALID_REFRESH_TOKEN")
	}
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	endpoint := f.secureTokenURL + "/v1/token?key=" + url.QueryEscape(f.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp secureTokenResponse
	if err := f.do(req, "refresh token", &resp); err != nil {
		return nil, err
	}

	tokens := &Tokens{
		UserID:       resp.UserID,
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    f.expiry(resp.IDToken, resp.ExpiresIn),
	}
	if email, ok := unverifiedClaim(resp.IDToken, "email"); ok {
		tokens.Email = email
	}
	return tokens, nil
}

func (f *Firebase) postJSON(ctx context.Context, method string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", method, err)
	}
	endpoint := f.toolkitURL + "/v1/" + method + "?key=" + url.QueryEscape(f.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return f.do(req, method, out)
}

func (f *Firebase) do(req *http.Request, op string, out any) error {
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s: read response: %w", op, err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error.Message != "" {
			return newAuthError(apiErr.Error.Message)
		}
		return fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func (f *Firebase) tokensFromToolkit(resp toolkitResponse, newUser bool) *Tokens {
	return &Tokens{
		UserID:       resp.LocalID,
		Email:        resp.Email,
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    f.expiry(resp.IDToken, resp.ExpiresIn),
		NewUser:      newUser,
	}
}

// expiry prefers the token's own exp claim and falls back to expiresIn.
func (f *Firebase) expiry(idToken, expiresIn string) time.Time {
	if exp, err := ExpiresAt(idToken); err == nil {
		return exp
	}
	secs, err := strconv.Atoi(expiresIn)
	if err != nil || secs <= 0 {
		secs = 3600
	}
	return f.now().Add(time.Duration(secs) * time.Second)
}

// ExpiresAt reads the exp claim without verifying the signature. Tokens
// passed here come straight from the provider over TLS.
func ExpiresAt(idToken string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(idToken, claims); err != nil {
		return time.Time{}, fmt.Errorf("parse ID token: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("read exp claim: %w", err)
	}
	if exp == nil {
		return time.Time{}, fmt.Errorf("ID token has no exp claim")
	}
	return exp.Time, nil
}

func unverifiedClaim(idToken, name string) (string, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(idToken, claims); err != nil {
		return "", false
	}
	v, ok := claims[name].(string)
	return v, ok
}
