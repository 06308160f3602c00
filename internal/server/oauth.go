package server

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibecast/internal/services"
	"github.com/desertthunder/vibecast/internal/shared"
)

// StateCookie holds the authorization state between login and callback.
const (
	StateCookie       = "vibecast_auth_state"
	stateCookieMaxAge = 600
	authPath          = "/api/auth"
)

// LoginFlow is the part of [services.Authenticator] the auth handlers need.
type LoginFlow interface {
	InitiateLogin() (state, loginURL string, err error)
	CompleteLogin(ctx context.Context, code, state, storedState string) (*services.Credentials, error)
}

// AuthHandler serves the browser login: it sets the state cookie, redirects to the provider,
// and on callback hands tokens to the UI in the URL fragment.
type AuthHandler struct {
	flow     LoginFlow
	uiOrigin string
	logger   *log.Logger
}

func NewAuthHandler(flow LoginFlow, uiOrigin string, logger *log.Logger) *AuthHandler {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &AuthHandler{
		flow:     flow,
		uiOrigin: strings.TrimRight(uiOrigin, "/"),
		logger:   shared.WithLogger(logger, "handler", "auth"),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *AuthHandler) Routes() []string {
	return []string{"GET " + authPath + "/login", "GET " + authPath + "/callback"}
}

func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case authPath + "/login":
		h.login(w, r)
	case authPath + "/callback":
		h.callback(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	state, loginURL, err := h.flow.InitiateLogin()
	if err != nil {
		h.logger.Error("failed to start login", "error", err, "request_id", RequestID(r.Context()))
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     StateCookie,
		Value:    state,
		Path:     authPath,
		MaxAge:   stateCookieMaxAge,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, loginURL, http.StatusFound)
}

// callback never answers with an error page; failures go back to the UI as #error=<kind>.
func (h *AuthHandler) callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	state := q.Get("state")

	var stored string
	if c, err := r.Cookie(StateCookie); err == nil {
		stored = c.Value
	}

	if err := services.ValidateState(state, stored); err != nil {
		h.logger.Warn("callback state mismatch", "request_id", RequestID(r.Context()))
		h.redirectUI(w, r, url.Values{"error": {"state_mismatch"}})
		return
	}

	http.SetCookie(w, &http.Cookie{Name: StateCookie, Value: "", Path: authPath, MaxAge: -1, HttpOnly: true})

	creds, err := h.flow.CompleteLogin(r.Context(), q.Get("code"), state, stored)
	if err != nil {
		h.logger.Warn("token exchange failed", "error", err, "provider_error", q.Get("error"), "request_id", RequestID(r.Context()))
		h.redirectUI(w, r, url.Values{"error": {"invalid_token"}})
		return
	}

	h.redirectUI(w, r, url.Values{
		"access_token":  {creds.AccessToken},
		"refresh_token": {creds.RefreshToken},
		"expires_in":    {strconv.FormatInt(creds.ExpiresIn, 10)},
	})
}

func (h *AuthHandler) redirectUI(w http.ResponseWriter, r *http.Request, fragment url.Values) {
	http.Redirect(w, r, h.uiOrigin+"/#"+fragment.Encode(), http.StatusFound)
}

// OAuthResult contains the result of a terminal OAuth authorization flow.
type OAuthResult struct {
	Credentials *services.Credentials
	err         error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// OAuthHandler handles the callback of a login started from the terminal.
//
// The state is held in memory instead of a cookie. Only the first callback is processed.
type OAuthHandler struct {
	flow        LoginFlow
	state       string
	path        string
	resultChan  chan OAuthResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewOAuthHandler creates a handler expecting state on the callback served at path.
func NewOAuthHandler(flow LoginFlow, state, path string) *OAuthHandler {
	return &OAuthHandler{
		flow:       flow,
		state:      state,
		path:       path,
		resultChan: make(chan OAuthResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{"GET " + h.path}
}

// ServeHTTP validates state, exchanges the code and sends the result through the result channel.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	q := r.URL.Query()
	creds, err := h.flow.CompleteLogin(r.Context(), q.Get("code"), q.Get("state"), h.state)
	if err != nil {
		h.Send(OAuthResult{err: err})
		http.Error(w, fmt.Sprintf("Authorization failed: %s", shared.Kind(err)), shared.HTTPStatus(err))
		return
	}

	h.Send(OAuthResult{Credentials: creds})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head><title>vibecast</title></head>
<body style="font-family: sans-serif; text-align: center; padding-top: 20vh">
    <h1 style="color: #1DB954">Authorization Successful</h1>
    <p>You can close this window and return to the terminal.</p>
</body>
</html>
`)
}

// Send sends the OAuth result through the channel (only once).
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving OAuth flow completion.
//
// Channel will receive exactly one result and then be closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.resultChan
}
