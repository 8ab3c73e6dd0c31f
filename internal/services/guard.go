package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/tasksync/internal/shared"
	"golang.org/x/oauth2"
)

// CredentialGuard ensures a usable, non-expired access token before any
// remote call.
//
// A long-lived process outlives its tokens, so the check runs before every
// call site, not just at construction. Refresh failures are surfaced as
// [shared.ErrRefreshFailed] and never retried here; recovery is a full
// re-authorization through the login flow.
type CredentialGuard struct {
	account   string
	config    *oauth2.Config
	token     *oauth2.Token
	tokenPath string
}

// NewCredentialGuard loads the stored token for an account and wraps it.
//
// Returns [shared.ErrNotAuthenticated] when no token file exists yet.
func NewCredentialGuard(account string, config *oauth2.Config, tokenPath string) (*CredentialGuard, error) {
	token, err := LoadToken(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("%w: account %s: %v", shared.ErrNotAuthenticated, account, err)
	}

	return &CredentialGuard{
		account:   account,
		config:    config,
		token:     token,
		tokenPath: tokenPath,
	}, nil
}

// Account returns the account email this guard protects.
func (g *CredentialGuard) Account() string {
	return g.account
}

// Token returns the currently held token without freshness checks.
func (g *CredentialGuard) Token() *oauth2.Token {
	return g.token
}

// EnsureFresh returns a valid token, refreshing it first when expired.
//
// The second return value reports whether the token rotated, signalling the
// caller to rebuild any client handle built on the old token. The refreshed
// token is persisted so the next process start skips the refresh.
func (g *CredentialGuard) EnsureFresh(ctx context.Context) (*oauth2.Token, bool, error) {
	if g.token.Valid() {
		return g.token, false, nil
	}

	if g.token.RefreshToken == "" {
		return nil, false, fmt.Errorf("%w: account %s", shared.ErrNoRefreshToken, g.account)
	}

	fresh, err := g.config.TokenSource(ctx, g.token).Token()
	if err != nil {
		return nil, false, fmt.Errorf("%w: account %s: %v", shared.ErrRefreshFailed, g.account, err)
	}

	// The token endpoint may omit the refresh token on rotation; keep the old one.
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = g.token.RefreshToken
	}

	g.token = fresh
	if err := SaveToken(g.tokenPath, fresh); err != nil {
		return nil, true, fmt.Errorf("failed to persist refreshed token: %w", err)
	}

	return fresh, true, nil
}

// LoadToken reads an oauth2 token from a JSON file.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}

	return &token, nil
}

// SaveToken writes an oauth2 token to a JSON file, creating the directory
// if needed. The file is user-readable only.
func SaveToken(path string, token *oauth2.Token) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create token directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}
