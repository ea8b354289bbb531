package server

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/desertthunder/beatify/internal/services"
	"github.com/desertthunder/beatify/internal/shared"
)

func issueWidgetToken(t *testing.T, ts *testServer, username string) string {
	t.Helper()

	session := ts.registerAndLogin(t, username)
	ts.linkSpotify(t, username)
	resp := ts.do(t, "POST", "/api/widget/token", session, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("token issuance returned %d", resp.StatusCode)
	}
	return decodeBody(t, resp)["token"].(string)
}

func TestWidgetPage(t *testing.T) {
	t.Run("Valid Token", func(t *testing.T) {
		ts := newTestServer(t)
		token := issueWidgetToken(t, ts, "alice")

		resp := ts.do(t, "GET", "/widget/"+token, "", nil)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/html") {
			t.Errorf("expected HTML, got %s", ct)
		}

		page, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("failed to read page: %v", err)
		}
		if !strings.Contains(string(page), token) {
			t.Error("expected page to reference the widget token")
		}
	})

	t.Run("Applies Config Theme", func(t *testing.T) {
		ts := newTestServer(t)
		token := issueWidgetToken(t, ts, "alice")

		resp := ts.do(t, "PUT", "/api/widget/config?token="+token, "", map[string]any{"theme": "dark"})
		resp.Body.Close()

		resp = ts.do(t, "GET", "/widget/"+token, "", nil)
		defer resp.Body.Close()
		page, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("failed to read page: %v", err)
		}
		if !strings.Contains(string(page), `class="widget dark"`) {
			t.Error("expected dark theme class on widget")
		}
	})

	t.Run("Invalid Token", func(t *testing.T) {
		ts := newTestServer(t)

		resp := ts.do(t, "GET", "/widget/not-a-real-token", "", nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})
}

func TestNowPlayingEndpoint(t *testing.T) {
	t.Run("Playing", func(t *testing.T) {
		ts := newTestServer(t)
		token := issueWidgetToken(t, ts, "alice")
		ts.spotify.nowPlaying = &services.NowPlayingInfo{
			IsPlaying: true,
			Track:     "Weird Fishes",
			Artists:   []string{"Radiohead"},
			Album:     "In Rainbows",
		}

		resp := ts.do(t, "GET", "/widget/"+token+"/now-playing", "", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		body := decodeBody(t, resp)
		if body["track"] != "Weird Fishes" {
			t.Errorf("unexpected track: %v", body["track"])
		}
		if body["is_playing"] != true {
			t.Error("expected is_playing true")
		}
	})

	t.Run("Nothing Playing", func(t *testing.T) {
		ts := newTestServer(t)
		token := issueWidgetToken(t, ts, "alice")
		ts.spotify.nowPlaying = &services.NowPlayingInfo{IsPlaying: false}

		resp := ts.do(t, "GET", "/widget/"+token+"/now-playing", "", nil)
		body := decodeBody(t, resp)
		if body["is_playing"] != false {
			t.Errorf("expected is_playing false, got %v", body)
		}
	})

	t.Run("Invalid Token", func(t *testing.T) {
		ts := newTestServer(t)

		resp := ts.do(t, "GET", "/widget/bogus/now-playing", "", nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("Refresh Failure Needs Relink", func(t *testing.T) {
		ts := newTestServer(t)
		token := issueWidgetToken(t, ts, "alice")
		ts.spotify.nowPlayingErr = shared.ErrRefreshFailed

		resp := ts.do(t, "GET", "/widget/"+token+"/now-playing", "", nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("expected 409, got %d", resp.StatusCode)
		}
		if got := testutil.ToFloat64(ts.metrics.SpotifyRefreshFailures); got != 1 {
			t.Errorf("expected 1 recorded refresh failure, got %v", got)
		}
	})

	t.Run("Spotify Unavailable", func(t *testing.T) {
		ts := newTestServer(t)
		token := issueWidgetToken(t, ts, "alice")
		ts.spotify.nowPlayingErr = shared.ErrAPIRequest

		resp := ts.do(t, "GET", "/widget/"+token+"/now-playing", "", nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadGateway {
			t.Errorf("expected 502, got %d", resp.StatusCode)
		}
	})
}
