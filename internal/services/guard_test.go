package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/desertthunder/tasksync/internal/shared"
	"golang.org/x/oauth2"
)

// newTokenServer fakes an OAuth token endpoint.
func newTokenServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
}

func testOAuthConfig(tokenURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "client_id",
		ClientSecret: "client_secret",
		Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
	}
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0600)
}

func writeToken(t *testing.T, path string, token *oauth2.Token) {
	t.Helper()
	if err := SaveToken(path, token); err != nil {
		t.Fatalf("failed to save token: %v", err)
	}
}

func TestTokenStorage(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tokens", "alice@example.com.json")

		token := &oauth2.Token{
			AccessToken:  "access",
			RefreshToken: "refresh",
			Expiry:       time.Now().Add(time.Hour).Truncate(time.Second),
		}

		if err := SaveToken(path, token); err != nil {
			t.Fatalf("failed to save token: %v", err)
		}

		loaded, err := LoadToken(path)
		if err != nil {
			t.Fatalf("failed to load token: %v", err)
		}

		if loaded.AccessToken != "access" || loaded.RefreshToken != "refresh" {
			t.Errorf("loaded token does not match saved token: %+v", loaded)
		}
	})

	t.Run("Load Missing File", func(t *testing.T) {
		if _, err := LoadToken(filepath.Join(t.TempDir(), "missing.json")); err == nil {
			t.Error("expected error for missing token file")
		}
	})

	t.Run("Load Invalid JSON", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		if err := writeFile(path, "{not json"); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadToken(path); err == nil {
			t.Error("expected error for invalid token file")
		}
	})
}

func TestCredentialGuard(t *testing.T) {
	t.Run("Missing Token File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing.json")
		_, err := NewCredentialGuard("alice@example.com", testOAuthConfig(""), path)
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Valid Token Passes Through", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "token.json")
		writeToken(t, path, &oauth2.Token{
			AccessToken:  "still-good",
			RefreshToken: "refresh",
			Expiry:       time.Now().Add(time.Hour),
		})

		guard, err := NewCredentialGuard("alice@example.com", testOAuthConfig(""), path)
		if err != nil {
			t.Fatalf("failed to create guard: %v", err)
		}

		token, rotated, err := guard.EnsureFresh(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rotated {
			t.Error("valid token should not rotate")
		}
		if token.AccessToken != "still-good" {
			t.Errorf("expected original token, got %s", token.AccessToken)
		}
	})

	t.Run("Expired Token Refreshes And Persists", func(t *testing.T) {
		server := newTokenServer(t, http.StatusOK,
			`{"access_token":"rotated","token_type":"Bearer","expires_in":3600}`)
		defer server.Close()

		path := filepath.Join(t.TempDir(), "token.json")
		writeToken(t, path, &oauth2.Token{
			AccessToken:  "expired",
			RefreshToken: "refresh",
			Expiry:       time.Now().Add(-time.Hour),
		})

		guard, err := NewCredentialGuard("alice@example.com", testOAuthConfig(server.URL+"/token"), path)
		if err != nil {
			t.Fatalf("failed to create guard: %v", err)
		}

		token, rotated, err := guard.EnsureFresh(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !rotated {
			t.Error("expired token should rotate")
		}
		if token.AccessToken != "rotated" {
			t.Errorf("expected rotated token, got %s", token.AccessToken)
		}
		if token.RefreshToken != "refresh" {
			t.Error("refresh token should be preserved when the endpoint omits it")
		}

		persisted, err := LoadToken(path)
		if err != nil {
			t.Fatalf("failed to reload persisted token: %v", err)
		}
		if persisted.AccessToken != "rotated" {
			t.Errorf("rotated token should be persisted, got %s", persisted.AccessToken)
		}
	})

	t.Run("Expired Without Refresh Token", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "token.json")
		writeToken(t, path, &oauth2.Token{
			AccessToken: "expired",
			Expiry:      time.Now().Add(-time.Hour),
		})

		guard, err := NewCredentialGuard("alice@example.com", testOAuthConfig(""), path)
		if err != nil {
			t.Fatalf("failed to create guard: %v", err)
		}

		_, _, err = guard.EnsureFresh(context.Background())
		if !errors.Is(err, shared.ErrNoRefreshToken) {
			t.Errorf("expected ErrNoRefreshToken, got %v", err)
		}
	})

	t.Run("Refresh Failure Surfaces ErrRefreshFailed", func(t *testing.T) {
		server := newTokenServer(t, http.StatusBadRequest, `{"error":"invalid_grant"}`)
		defer server.Close()

		path := filepath.Join(t.TempDir(), "token.json")
		writeToken(t, path, &oauth2.Token{
			AccessToken:  "expired",
			RefreshToken: "revoked",
			Expiry:       time.Now().Add(-time.Hour),
		})

		guard, err := NewCredentialGuard("alice@example.com", testOAuthConfig(server.URL+"/token"), path)
		if err != nil {
			t.Fatalf("failed to create guard: %v", err)
		}

		_, _, err = guard.EnsureFresh(context.Background())
		if !errors.Is(err, shared.ErrRefreshFailed) {
			t.Errorf("expected ErrRefreshFailed, got %v", err)
		}
	})
}
