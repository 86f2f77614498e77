package server

import (
	"net/http"

	"github.com/zitadel/oidc/v3/pkg/client/rp"
	"github.com/zitadel/oidc/v3/pkg/oidc"

	"github.com/startupverse/dashboard/cmd/dashboard/internal/auth"
	"github.com/startupverse/dashboard/cmd/dashboard/internal/forms"
	"github.com/startupverse/dashboard/cmd/dashboard/internal/identity"
	"github.com/startupverse/dashboard/pkg/sdk"
)

const (
	pendingNotice       = "Your account is awaiting approval. An administrator will grant you access shortly."
	signInFailedNotice  = "There was an error signing in with Google. Please try again."
	signupSentFlash     = "Sign up request sent. An administrator will review your request."
	sessionFailedNotice = "Could not start your session. Please try again."
)

// LoginData is the login template payload.
type LoginData struct {
	GoogleEnabled bool
	Pending       bool
}

// SignupData is the signup template payload.
type SignupData struct {
	Roles []string
}

// HandleLoginPage renders the sign-in form. Signed-in users with a role go
// to their landing page; users without one see the pending notice.
func HandleLoginPage(deps *PageDependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := auth.GetSessionFromContext(r.Context())
		if s.Authenticated() && s.Role.Valid() {
			http.Redirect(w, r, auth.LandingPath(s.Role), http.StatusSeeOther)
			return
		}

		p := deps.page(w, r, "Sign In")
		p.Data = LoginData{GoogleEnabled: deps.GoogleEnabled, Pending: s.Authenticated()}
		if s.Authenticated() {
			p.Notice = pendingNotice
		}
		deps.render(w, http.StatusOK, "login", p)
	}
}

// HandleLogin signs in with email and password and starts a session.
func HandleLogin(deps *PageDependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds forms.Credentials
		values, fields, err := decodeForm(deps, r, forms.Login, &creds)
		if err != nil {
			http.Error(w, "Invalid form", http.StatusBadRequest)
			return
		}

		p := deps.page(w, r, "Sign In")
		p.Data = LoginData{GoogleEnabled: deps.GoogleEnabled}
		p.Form = values
		p.Form.Del("password")

		if fields != nil {
			p.Fields = fields
			deps.render(w, http.StatusUnprocessableEntity, "login", p)
			return
		}

		tokens, err := deps.Identity.SignInWithPassword(r.Context(), creds.Email, creds.Password)
		if err != nil {
			status := http.StatusUnauthorized
			if authErr, ok := identity.IsAuthError(err); ok {
				p.Notice = authErr.Message
			} else {
				deps.Logger.Errorw("password sign-in failed", "error", err)
				p.Notice = identity.NewAuthError("").Message
				status = http.StatusBadGateway
			}
			deps.render(w, status, "login", p)
			return
		}

		if !startSession(deps, w, r, tokens) {
			p.Notice = sessionFailedNotice
			deps.render(w, http.StatusInternalServerError, "login", p)
		}
	}
}

// startSession creates the session, sets the cookie and redirects. It
// reports false when the session could not be created.
func startSession(deps *PageDependencies, w http.ResponseWriter, r *http.Request, tokens *identity.Tokens) bool {
	token, s, err := deps.Sessions.Create(r.Context(), tokens, clientMeta(r))
	if err != nil {
		deps.Logger.Errorw("create session failed", "user", tokens.UserID, "error", err)
		return false
	}
	deps.Cookies.SetSession(w, r, token, deps.Sessions.TTL())
	redirectHome(w, r, s)
	return true
}

// HandleSignupPage renders the request-access form.
func HandleSignupPage(deps *PageDependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := deps.page(w, r, "Request Access")
		p.Data = SignupData{Roles: []string{string(auth.RoleFounder), string(auth.RoleInvestor)}}
		deps.render(w, http.StatusOK, "signup", p)
	}
}

// HandleSignup creates the account with the identity provider and asks the
// backend to register it for approval. No session is started.
func HandleSignup(deps *PageDependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req forms.SignupRequest
		values, fields, err := decodeForm(deps, r, forms.Signup, &req)
		if err != nil {
			http.Error(w, "Invalid form", http.StatusBadRequest)
			return
		}

		p := deps.page(w, r, "Request Access")
		p.Data = SignupData{Roles: []string{string(auth.RoleFounder), string(auth.RoleInvestor)}}
		p.Form = values
		p.Form.Del("password")

		if fields != nil {
			p.Fields = fields
			deps.render(w, http.StatusUnprocessableEntity, "signup", p)
			return
		}

		tokens, err := deps.Identity.SignUp(r.Context(), req.Email, req.Password)
		if err != nil {
			status := http.StatusBadRequest
			if authErr, ok := identity.IsAuthError(err); ok {
				p.Notice = authErr.Message
			} else {
				deps.Logger.Errorw("sign-up failed", "error", err)
				p.Notice = identity.NewAuthError("").Message
				status = http.StatusBadGateway
			}
			deps.render(w, status, "signup", p)
			return
		}

		err = deps.Backend(tokens.IDToken).Signup(r.Context(), sdk.SignupInput{Email: req.Email, Role: req.Role})
		if err != nil {
			deps.Logger.Warnw("signup registration failed", "user", tokens.UserID, "error", err)
			msg, status := submitError("send your request", err)
			p.Error = msg
			deps.render(w, status, "signup", p)
			return
		}

		deps.Logger.Infow("access requested", "user", tokens.UserID, "role", req.Role)
		setFlash(deps.Cookies, w, r, signupSentFlash)
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// HandleLogout destroys the session and clears the cookie.
func HandleLogout(deps *PageDependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Sessions.Destroy(r.Context(), auth.SessionToken(r)); err != nil {
			deps.Logger.Errorw("destroy session failed", "error", err)
		}
		deps.Cookies.ClearSession(w, r)
		http.Redirect(w, r, auth.LoginPath, http.StatusSeeOther)
	}
}

// HandleGoogleLogin starts the authorization code flow against Google.
func HandleGoogleLogin(rpAuth *auth.RelyingParty, deps *PageDependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := deps.OAuthState()
		if err != nil {
			deps.Logger.Errorw("generate oauth state failed", "error", err)
			setFlash(deps.Cookies, w, r, signInFailedNotice)
			http.Redirect(w, r, auth.LoginPath, http.StatusSeeOther)
			return
		}
		// AuthURLHandler stores state and the PKCE verifier in cookies.
		rp.AuthURLHandler(func() string { return state }, rpAuth.RP()).ServeHTTP(w, r)
	}
}

// HandleGoogleCallback exchanges the code for a Google ID token, signs in
// with the identity provider, lets the backend set the role claim and starts
// a session. The session's forced token refresh picks up the new claim.
func HandleGoogleCallback(rpAuth *auth.RelyingParty, deps *PageDependencies) http.HandlerFunc {
	return rp.CodeExchangeHandler(googleCallback(deps), rpAuth.RP())
}

// googleCallback runs after the code exchange has checked state and PKCE.
func googleCallback(deps *PageDependencies) rp.CodeExchangeCallback[*oidc.IDTokenClaims] {
	return func(w http.ResponseWriter, r *http.Request, tokens *oidc.Tokens[*oidc.IDTokenClaims], state string, provider rp.RelyingParty) {
		ctx := r.Context()

		fail := func(notice string) {
			setFlash(deps.Cookies, w, r, notice)
			http.Redirect(w, r, auth.LoginPath, http.StatusSeeOther)
		}

		idpTokens, err := deps.Identity.SignInWithIDP(ctx, identity.GoogleProviderID, tokens.IDToken, deps.GoogleRedirectURI)
		if err != nil {
			deps.Logger.Warnw("google sign-in with identity provider failed", "error", err)
			if authErr, ok := identity.IsAuthError(err); ok {
				fail(authErr.Message)
				return
			}
			fail(signInFailedNotice)
			return
		}

		if err := deps.Backend(idpTokens.IDToken).GoogleSignIn(ctx); err != nil {
			deps.Logger.Warnw("backend google sign-in failed", "user", idpTokens.UserID, "error", err)
			fail(signInFailedNotice)
			return
		}

		if !startSession(deps, w, r, idpTokens) {
			fail(sessionFailedNotice)
		}
	}
}
