package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/desertthunder/beatify/internal/models"
	"github.com/desertthunder/beatify/internal/services"
	"github.com/desertthunder/beatify/internal/shared"
)

// loginWithSession logs in through the cookie jar so the session carries the
// auth token, the way a browser would drive the OAuth flow.
func loginWithSession(t *testing.T, ts *testServer, username string) {
	t.Helper()
	ts.registerAndLogin(t, username)
}

func startSpotifyLogin(t *testing.T, ts *testServer) string {
	t.Helper()

	resp := ts.do(t, "GET", "/login/spotify", "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}

	location, err := url.Parse(resp.Header.Get("Location"))
	if err != nil {
		t.Fatalf("failed to parse redirect: %v", err)
	}
	if location.Host != "accounts.spotify.com" {
		t.Errorf("expected redirect to spotify, got %s", location.Host)
	}

	state := location.Query().Get("state")
	if state == "" {
		t.Fatal("expected state in redirect URL")
	}
	return state
}

func TestSpotifyLoginFlow(t *testing.T) {
	t.Run("Requires Auth", func(t *testing.T) {
		ts := newTestServer(t)

		resp := ts.do(t, "GET", "/login/spotify", "", nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("Missing Credentials", func(t *testing.T) {
		ts := newTestServer(t)
		ts.spotify.authURLErr = shared.ErrMissingCredentials
		loginWithSession(t, ts, "carol")

		resp := ts.do(t, "GET", "/login/spotify", "", nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", resp.StatusCode)
		}
	})

	t.Run("Full Flow", func(t *testing.T) {
		ts := newTestServer(t)
		loginWithSession(t, ts, "alice")

		ts.spotify.exchangeToken = &oauth2.Token{
			AccessToken:  "at-1",
			RefreshToken: "rt-1",
			Expiry:       time.Now().Add(time.Hour),
		}
		ts.spotify.profile = &services.SpotifyUser{ID: "sp-alice", DisplayName: "Alice"}
		ts.spotify.onSave = func(username string, token *oauth2.Token) error {
			account := models.NewSpotifyAccount(username, "sp-alice", "cid", "secret", token.RefreshToken)
			return ts.accounts.Upsert(account)
		}

		state := startSpotifyLogin(t, ts)

		resp := ts.do(t, "GET", "/callback/spotify?state="+state+"&code=auth-code", "", nil)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		page, _ := io.ReadAll(resp.Body)
		if !strings.Contains(string(page), "Spotify Linked") {
			t.Error("expected success page")
		}

		account, err := ts.accounts.GetByUsername("alice")
		if err != nil {
			t.Fatalf("expected linkage row: %v", err)
		}
		if account.RefreshToken() != "rt-1" {
			t.Errorf("unexpected refresh token: %s", account.RefreshToken())
		}
	})

	t.Run("State Mismatch", func(t *testing.T) {
		ts := newTestServer(t)
		loginWithSession(t, ts, "alice")
		startSpotifyLogin(t, ts)

		resp := ts.do(t, "GET", "/callback/spotify?state=forged&code=auth-code", "", nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("State Single Use", func(t *testing.T) {
		ts := newTestServer(t)
		loginWithSession(t, ts, "alice")

		ts.spotify.exchangeToken = &oauth2.Token{AccessToken: "at-1", RefreshToken: "rt-1"}
		ts.spotify.profile = &services.SpotifyUser{ID: "sp-alice"}

		state := startSpotifyLogin(t, ts)

		resp := ts.do(t, "GET", "/callback/spotify?state="+state+"&code=auth-code", "", nil)
		resp.Body.Close()

		resp = ts.do(t, "GET", "/callback/spotify?state="+state+"&code=auth-code", "", nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected replayed state to get 400, got %d", resp.StatusCode)
		}
	})

	t.Run("User Denied Consent", func(t *testing.T) {
		ts := newTestServer(t)
		loginWithSession(t, ts, "alice")
		state := startSpotifyLogin(t, ts)

		resp := ts.do(t, "GET", "/callback/spotify?state="+state+"&error=access_denied", "", nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})
}

func TestOAuthHandler(t *testing.T) {
	newHandler := func(exchangeToken *oauth2.Token) (*OAuthHandler, *mockSpotify) {
		mock := &mockSpotify{exchangeToken: exchangeToken}
		return NewOAuthHandler(mock, "cli-state"), mock
	}

	t.Run("Success", func(t *testing.T) {
		handler, _ := newHandler(&oauth2.Token{AccessToken: "at-1", RefreshToken: "rt-1"})

		req := httptest.NewRequest("GET", "/callback/spotify?state=cli-state&code=auth-code", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		result := <-handler.Result()
		if result.Error() != nil {
			t.Fatalf("unexpected error: %v", result.Error())
		}
		if result.Token.AccessToken != "at-1" {
			t.Errorf("unexpected token: %s", result.Token.AccessToken)
		}
	})

	t.Run("Invalid State", func(t *testing.T) {
		handler, _ := newHandler(&oauth2.Token{AccessToken: "at-1"})

		req := httptest.NewRequest("GET", "/callback/spotify?state=forged&code=auth-code", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if result := <-handler.Result(); result.Error() == nil {
			t.Error("expected error result")
		}
	})

	t.Run("Second Callback Rejected", func(t *testing.T) {
		handler, _ := newHandler(&oauth2.Token{AccessToken: "at-1"})

		req := httptest.NewRequest("GET", "/callback/spotify?state=cli-state&code=auth-code", nil)
		handler.ServeHTTP(httptest.NewRecorder(), req)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 on replay, got %d", rec.Code)
		}
	})
}
