package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibecast/internal/shared"
	"golang.org/x/oauth2"
)

// Scopes requested at login. Playlist reads need the private and collaborative scopes.
var Scopes = []string{
	"user-read-private",
	"user-read-email",
	"playlist-read-private",
	"playlist-read-collaborative",
}

// Credentials is the result of a successful code exchange.
//
// They are handed to the caller once and never stored or refreshed here.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64 // seconds
}

// AuthOpts configures an [Authenticator].
type AuthOpts struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AccountsURL  string // defaults to https://accounts.spotify.com
	HTTPClient   *http.Client
	Logger       *log.Logger
}

// Authenticator drives the authorization-code login against the provider's accounts service.
type Authenticator struct {
	config     *oauth2.Config
	httpClient *http.Client
	logger     *log.Logger
}

// NewAuthenticator validates the client credentials and builds the OAuth2 configuration.
//
// The token endpoint is called with the client id and secret in a basic-auth header.
func NewAuthenticator(opts AuthOpts) (*Authenticator, error) {
	if opts.ClientID == "" {
		return nil, fmt.Errorf("%w: spotify client_id", shared.ErrMissingCredentials)
	}
	if opts.ClientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_secret", shared.ErrMissingCredentials)
	}
	if opts.AccountsURL == "" {
		opts.AccountsURL = spotifyAccountsURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}

	base := strings.TrimRight(opts.AccountsURL, "/")
	config := &oauth2.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		RedirectURL:  opts.RedirectURI,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   base + "/authorize",
			TokenURL:  base + "/api/token",
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}

	return &Authenticator{
		config:     config,
		httpClient: opts.HTTPClient,
		logger:     shared.WithLogger(opts.Logger, "service", "auth"),
	}, nil
}

// NewState returns a fresh 43 character URL-safe token drawn from 32 random bytes.
func (a *Authenticator) NewState() (string, error) {
	return oauth2.GenerateVerifier(), nil
}

// LoginURL returns the provider's consent page URL carrying state.
func (a *Authenticator) LoginURL(state string) string {
	return a.config.AuthCodeURL(state)
}

// InitiateLogin generates a state token and the login URL bound to it.
func (a *Authenticator) InitiateLogin() (state, loginURL string, err error) {
	state, err = a.NewState()
	if err != nil {
		return "", "", err
	}
	return state, a.LoginURL(state), nil
}

// ValidateState reports [shared.ErrStateMismatch] unless both values are present and identical.
func ValidateState(state, storedState string) error {
	if state == "" || storedState == "" {
		return shared.ErrStateMismatch
	}
	if subtle.ConstantTimeCompare([]byte(state), []byte(storedState)) != 1 {
		return shared.ErrStateMismatch
	}
	return nil
}

// CompleteLogin checks the callback state and then exchanges code for credentials.
//
// No exchange is attempted when the state does not match. Every exchange failure,
// including an empty code, is reported as [shared.ErrTokenExchangeFailed].
func (a *Authenticator) CompleteLogin(ctx context.Context, code, state, storedState string) (*Credentials, error) {
	if err := ValidateState(state, storedState); err != nil {
		return nil, err
	}
	if code == "" {
		return nil, fmt.Errorf("%w: missing authorization code", shared.ErrTokenExchangeFailed)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
	token, err := a.config.Exchange(ctx, code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			a.logger.Warn("token endpoint rejected code", "status", re.Response.StatusCode, "error_code", re.ErrorCode)
			return nil, fmt.Errorf("%w: provider returned %d", shared.ErrTokenExchangeFailed, re.Response.StatusCode)
		}
		a.logger.Warn("token exchange failed", "error", err)
		return nil, fmt.Errorf("%w: %v", shared.ErrTokenExchangeFailed, err)
	}

	creds := &Credentials{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresIn:    token.ExpiresIn,
	}
	if creds.ExpiresIn == 0 && !token.Expiry.IsZero() {
		creds.ExpiresIn = int64(time.Until(token.Expiry).Round(time.Second).Seconds())
	}
	return creds, nil
}
