package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/tasksync/internal/server"
	"github.com/desertthunder/tasksync/internal/services"
	"github.com/desertthunder/tasksync/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// AuthLogin runs the browser OAuth flow for one account and stores the token.
//
// A loopback HTTP server receives the authorization callback; offline access
// is requested so the daemon gets a refresh token it can rotate without user
// interaction.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	email := cmd.StringArg("email")
	if email == "" {
		return fmt.Errorf("%w: account email", shared.ErrMissingArgument)
	}
	if _, ok := r.config.Account(email); !ok {
		return fmt.Errorf("%w: %s is not in the accounts section of the config", shared.ErrUnknownAccount, email)
	}

	google := r.config.Credentials.Google
	if google.ClientID == "" || google.ClientSecret == "" {
		return fmt.Errorf("%w: credentials.google.client_id and client_secret must be set", shared.ErrMissingCredentials)
	}

	redirectURL, err := url.Parse(google.RedirectURI)
	if err != nil {
		return fmt.Errorf("%w: invalid redirect_uri: %v", shared.ErrInvalidConfig, err)
	}

	oauthConfig := r.oauthConfig()
	state := shared.GenerateID()
	handler := server.NewOAuthHandler(oauthConfig, email, state)

	router := server.NewBasicRouter()
	router.Use(server.LoggingMiddleware(r.logger))
	router.Handler(handler)

	srv := &http.Server{Addr: redirectURL.Host, Handler: router}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			handler.Send(server.OAuthResult{})
			r.logger.Error("callback server failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	authURL := oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)

	if cmd.Bool("no-browser") {
		r.writePlain("Open this URL to authorize %s:\n%s\n", email, authURL)
	} else {
		r.writePlain("Opening browser to authorize %s...\n", email)
		if err := shared.OpenBrowser(authURL); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
			r.writePlain("Open this URL manually:\n%s\n", authURL)
		}
	}

	select {
	case result := <-handler.Result():
		if err := result.Error(); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
		}
		if result.Token == nil {
			return fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
		}

		tokenPath := r.config.TokenPath(email)
		if err := services.SaveToken(tokenPath, result.Token); err != nil {
			return err
		}

		r.logger.Info("token saved", "account", email, "path", tokenPath)
		if result.Token.RefreshToken == "" {
			r.logger.Warn("no refresh token granted; the daemon will stop syncing when the access token expires", "account", email)
		}
		return r.writePlain("✓ %s authenticated\n", email)

	case <-ctx.Done():
		return fmt.Errorf("%w: authorization not completed", shared.ErrTimeout)
	}
}

// AuthStatus reports the stored token state for every configured account.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if len(r.config.Accounts) == 0 {
		return r.writePlain("No accounts configured. Add entries to the accounts section of config.toml.\n")
	}

	r.writePlainHeader("Account Status")
	for _, account := range r.config.Accounts {
		token, err := services.LoadToken(r.config.TokenPath(account.Email))
		switch {
		case err != nil:
			r.writePlain("✗ %s: not authenticated (run 'tasksync auth login %s')\n", account.Email, account.Email)
		case token.Valid():
			r.writePlain("✓ %s: token valid until %s\n", account.Email, token.Expiry.Format(time.RFC3339))
		case token.RefreshToken != "":
			r.writePlain("✓ %s: access token expired, refresh token available\n", account.Email)
		default:
			r.writePlain("✗ %s: token expired with no refresh token\n", account.Email)
		}
	}
	return nil
}
