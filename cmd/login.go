package main

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/desertthunder/vibecast/internal/formatter"
	"github.com/desertthunder/vibecast/internal/server"
	"github.com/desertthunder/vibecast/internal/services"
	"github.com/desertthunder/vibecast/internal/shared"
	"github.com/urfave/cli/v3"
)

const loginTimeout = 2 * time.Minute

// Login runs the authorization-code flow with a local callback server and prints the resulting tokens.
//
// Tokens are written to the output only; nothing is persisted.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	if r.auth == nil {
		return fmt.Errorf("%w: set spotify client_id and client_secret", shared.ErrMissingCredentials)
	}

	creds, err := r.doOAuth(ctx, !cmd.Bool("no-browser"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"access_token":  creds.AccessToken,
			"refresh_token": creds.RefreshToken,
			"expires_in":    creds.ExpiresIn,
		}, true)
	}

	r.writePlainln("%s", formatter.Success("✓ Authorization successful"))
	r.writePlain("Access token (expires in %ds):\n%s\n\n", creds.ExpiresIn, creds.AccessToken)
	r.writePlain("Refresh token:\n%s\n", creds.RefreshToken)
	r.writePlainln("%s", formatter.Hint("export VIBECAST_TOKEN=<access token> to use it with analyze and playlists"))
	return nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server bound to the redirect URI
func (r *Runner) doOAuth(ctx context.Context, openBrowser bool) (*services.Credentials, error) {
	redirect, err := url.Parse(r.config.Credentials.Spotify.RedirectURI)
	if err != nil || redirect.Host == "" || redirect.Path == "" {
		return nil, fmt.Errorf("%w: redirect_uri %q", shared.ErrInvalidConfig, r.config.Credentials.Spotify.RedirectURI)
	}

	state, authURL, err := r.auth.InitiateLogin()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	oauthHandler := server.NewOAuthHandler(r.auth, state, redirect.Path)
	router := server.NewBasicRouter()
	router.Use(server.RecoverMiddleware(r.logger))
	router.Handler(oauthHandler)

	ln, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", redirect.Host, err)
	}

	srvCtx, stop := context.WithCancel(ctx)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth callback server at %v", redirect.Host)
		serverErrors <- server.New(redirect.Host, router, r.logger).Serve(srvCtx, ln)
	}()

	if openBrowser {
		r.writePlain("→ Opening browser for Spotify login...\n")
		if err := shared.OpenBrowser(authURL); err != nil {
			r.logger.Warnf("failed to open browser automatically %v", err)
			r.writePlainln("⚠ Could not open browser automatically.")
			r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
		}
	} else {
		r.writePlain("Open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (%s timeout)...\n", loginTimeout)

	timeout := time.NewTimer(loginTimeout)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, loginTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}
	if result.Credentials == nil {
		return nil, fmt.Errorf("no token received")
	}
	return result.Credentials, nil
}
