package server

import (
	"net/http"
	"testing"
)

func TestRegisterEndpoint(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		ts := newTestServer(t)

		resp := ts.do(t, "POST", "/api/register", "", map[string]string{
			"username": "alice",
			"email":    "alice@example.com",
			"password": "correct-horse",
		})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Errorf("expected 201, got %d", resp.StatusCode)
		}
	})

	t.Run("Duplicate", func(t *testing.T) {
		ts := newTestServer(t)
		ts.registerAndLogin(t, "alice")

		resp := ts.do(t, "POST", "/api/register", "", map[string]string{
			"username": "alice",
			"email":    "other@example.com",
			"password": "correct-horse",
		})
		resp.Body.Close()
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("expected 409, got %d", resp.StatusCode)
		}
	})

	t.Run("Short Password", func(t *testing.T) {
		ts := newTestServer(t)

		resp := ts.do(t, "POST", "/api/register", "", map[string]string{
			"username": "alice",
			"email":    "alice@example.com",
			"password": "short",
		})
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("Malformed Body", func(t *testing.T) {
		ts := newTestServer(t)

		req, _ := http.NewRequest("POST", ts.URL+"/api/register", nil)
		resp, err := ts.client.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})
}

func TestLoginEndpoint(t *testing.T) {
	t.Run("Wrong Password", func(t *testing.T) {
		ts := newTestServer(t)
		ts.registerAndLogin(t, "alice")

		resp := ts.do(t, "POST", "/api/login", "", map[string]string{
			"username": "alice",
			"password": "wrong-password",
		})
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("Relogin Invalidates Previous Token", func(t *testing.T) {
		ts := newTestServer(t)
		first := ts.registerAndLogin(t, "alice")

		resp := ts.do(t, "POST", "/api/login", "", map[string]string{
			"username": "alice",
			"password": "correct-horse",
		})
		second := decodeBody(t, resp)["token"].(string)

		resp = ts.do(t, "POST", "/api/widget/token", first, nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected stale token to get 401, got %d", resp.StatusCode)
		}

		ts.linkSpotify(t, "alice")
		resp = ts.do(t, "POST", "/api/widget/token", second, nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected fresh token to work, got %d", resp.StatusCode)
		}
	})
}

func TestLogoutEndpoint(t *testing.T) {
	ts := newTestServer(t)
	token := ts.registerAndLogin(t, "alice")
	ts.linkSpotify(t, "alice")

	resp := ts.do(t, "POST", "/api/logout", token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp = ts.do(t, "POST", "/api/widget/token", token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", resp.StatusCode)
	}
}

func TestIssueTokenEndpoint(t *testing.T) {
	t.Run("Requires Auth", func(t *testing.T) {
		ts := newTestServer(t)

		resp := ts.do(t, "POST", "/api/widget/token", "", nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("Requires Linked Account", func(t *testing.T) {
		ts := newTestServer(t)
		token := ts.registerAndLogin(t, "alice")

		resp := ts.do(t, "POST", "/api/widget/token", token, nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("expected 409, got %d", resp.StatusCode)
		}
	})

	t.Run("Issues And Reuses Token", func(t *testing.T) {
		ts := newTestServer(t)
		session := ts.registerAndLogin(t, "alice")
		ts.linkSpotify(t, "alice")

		resp := ts.do(t, "POST", "/api/widget/token", session, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		first := decodeBody(t, resp)

		widgetToken, _ := first["token"].(string)
		if widgetToken == "" {
			t.Fatal("expected a widget token")
		}
		embedURL, _ := first["embed_url"].(string)
		if embedURL != "http://beatify.test/widget/"+widgetToken {
			t.Errorf("unexpected embed URL: %s", embedURL)
		}

		resp = ts.do(t, "POST", "/api/widget/token", session, nil)
		second := decodeBody(t, resp)
		if second["token"] != widgetToken {
			t.Errorf("expected same token on re-issue, got %v", second["token"])
		}
	})
}

func TestConfigEndpoints(t *testing.T) {
	issueWidget := func(t *testing.T, ts *testServer) string {
		session := ts.registerAndLogin(t, "alice")
		ts.linkSpotify(t, "alice")
		resp := ts.do(t, "POST", "/api/widget/token", session, nil)
		return decodeBody(t, resp)["token"].(string)
	}

	t.Run("Round Trip", func(t *testing.T) {
		ts := newTestServer(t)
		token := issueWidget(t, ts)

		resp := ts.do(t, "PUT", "/api/widget/config?token="+token, "", map[string]any{
			"theme":           "dark",
			"refresh_seconds": 5,
		})
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}

		resp = ts.do(t, "GET", "/api/widget/config?token="+token, "", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		config := decodeBody(t, resp)
		if config["theme"] != "dark" {
			t.Errorf("expected theme dark, got %v", config["theme"])
		}
	})

	t.Run("Empty Config By Default", func(t *testing.T) {
		ts := newTestServer(t)
		token := issueWidget(t, ts)

		resp := ts.do(t, "GET", "/api/widget/config?token="+token, "", nil)
		config := decodeBody(t, resp)
		if len(config) != 0 {
			t.Errorf("expected empty config, got %v", config)
		}
	})

	t.Run("Unknown Token", func(t *testing.T) {
		ts := newTestServer(t)

		resp := ts.do(t, "GET", "/api/widget/config?token=bogus", "", nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}

		resp = ts.do(t, "PUT", "/api/widget/config?token=bogus", "", map[string]any{"theme": "dark"})
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("Missing Token", func(t *testing.T) {
		ts := newTestServer(t)

		resp := ts.do(t, "GET", "/api/widget/config", "", nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})
}

func TestUnlinkEndpoint(t *testing.T) {
	ts := newTestServer(t)
	session := ts.registerAndLogin(t, "alice")
	ts.linkSpotify(t, "alice")

	resp := ts.do(t, "POST", "/api/spotify/unlink", session, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	if len(ts.spotify.unlinked) != 1 || ts.spotify.unlinked[0] != "alice" {
		t.Errorf("expected unlink call for alice, got %v", ts.spotify.unlinked)
	}
}
