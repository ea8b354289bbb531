package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/justinas/alice"

	"github.com/desertthunder/beatify/internal/shared"
)

const sessionTokenKey = "auth_token"

// routes registers every endpoint with its middleware chain.
func (s *Server) routes() *BasicRouter {
	router := NewBasicRouter()
	router.Use(s.recoverPanic, s.logRequest, s.recordMetrics, s.rateLimit, s.withSession)

	protected := alice.New(s.requireAuth)

	router.HandleFunc("GET", "/health", s.handleHealth)
	router.Handle("GET", "/metrics", s.metrics.Handler())

	router.HandleFunc("POST", "/api/register", s.handleRegister)
	router.HandleFunc("POST", "/api/login", s.handleLogin)
	router.HandleFunc("POST", "/api/logout", s.handleLogout)

	router.Handle("GET", "/login/spotify", protected.ThenFunc(s.handleSpotifyLogin))
	router.Handle("GET", "/callback/spotify", protected.ThenFunc(s.handleSpotifyCallback))
	router.Handle("POST", "/api/spotify/unlink", protected.ThenFunc(s.handleSpotifyUnlink))

	router.Handle("POST", "/api/widget/token", protected.ThenFunc(s.handleIssueToken))
	router.HandleFunc("GET", "/api/widget/config", s.handleGetConfig)
	router.HandleFunc("PUT", "/api/widget/config", s.handlePutConfig)

	router.HandleFunc("GET", "/widget/{token}", s.handleWidgetPage)
	router.HandleFunc("GET", "/widget/{token}/now-playing", s.handleNowPlaying)

	return router
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.auth.Register(req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrAlreadyExists):
			writeError(w, http.StatusConflict, "username is taken")
		case errors.Is(err, shared.ErrInvalidArgument):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.logger.Error("registration failed", "error", err)
			writeError(w, http.StatusInternalServerError, "registration failed")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"username": user.Username()})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := s.auth.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) {
			writeError(w, http.StatusUnauthorized, "invalid username or password")
			return
		}
		s.logger.Error("login failed", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	// Renew the session ID on privilege change, then bind the token to it.
	if err := s.sessions.RenewToken(r.Context()); err != nil {
		s.logger.Error("session renewal failed", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	s.sessions.Put(r.Context(), sessionTokenKey, token.Token())

	writeJSON(w, http.StatusOK, map[string]any{
		"token":      token.Token(),
		"expires_at": token.ExpiresAt(),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		token = s.sessions.GetString(r.Context(), sessionTokenKey)
	}

	if token != "" {
		if err := s.auth.Logout(token); err != nil {
			s.logger.Error("logout failed", "error", err)
			writeError(w, http.StatusInternalServerError, "logout failed")
			return
		}
	}

	if err := s.sessions.Destroy(r.Context()); err != nil {
		s.logger.Error("session destroy failed", "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

type issueTokenRequest struct {
	Platform string `json:"platform"`
}

func (s *Server) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req issueTokenRequest
	if r.Body != nil {
		// Body is optional; platform defaults from config.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if req.Platform == "" {
		req.Platform = s.config.Widget.Platform
	}

	token, err := s.issuer.GetOrCreate(user.Username(), req.Platform)
	if err != nil {
		if errors.Is(err, shared.ErrNotLinked) {
			writeError(w, http.StatusConflict, "no linked spotify account")
			return
		}
		s.logger.Error("token issuance failed", "error", err, "username", user.Username())
		writeError(w, http.StatusInternalServerError, "token issuance failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"token":     token,
		"embed_url": fmt.Sprintf("%s/widget/%s", s.config.Server.BaseURL, token),
	})
}

// widgetToken pulls the widget token from the query string or header for the
// config endpoints, where the token itself is the credential.
func widgetToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	return r.Header.Get("X-Widget-Token")
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	token := widgetToken(r)
	if token == "" {
		writeError(w, http.StatusBadRequest, "missing widget token")
		return
	}

	widget, err := s.widgets.GetByToken(token)
	if err != nil {
		s.metrics.TokenValidations.WithLabelValues("invalid").Inc()
		writeError(w, http.StatusNotFound, "invalid widget token")
		return
	}
	s.metrics.TokenValidations.WithLabelValues("ok").Inc()

	config, err := widget.Config()
	if err != nil {
		s.logger.Error("stored config is corrupt", "error", err, "widget", widget.ID())
		writeError(w, http.StatusInternalServerError, "stored config is corrupt")
		return
	}

	writeJSON(w, http.StatusOK, config)
}

func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	token := widgetToken(r)
	if token == "" {
		writeError(w, http.StatusBadRequest, "missing widget token")
		return
	}

	var config map[string]any
	if err := json.NewDecoder(r.Body).Decode(&config); err != nil {
		writeError(w, http.StatusBadRequest, "config must be a JSON object")
		return
	}

	data, err := shared.MarshalJSON(config, false)
	if err != nil {
		writeError(w, http.StatusBadRequest, "config must be a JSON object")
		return
	}

	if err := s.widgets.UpdateConfig(token, string(data)); err != nil {
		if errors.Is(err, shared.ErrInvalidToken) {
			s.metrics.TokenValidations.WithLabelValues("invalid").Inc()
			writeError(w, http.StatusNotFound, "invalid widget token")
			return
		}
		s.logger.Error("config update failed", "error", err)
		writeError(w, http.StatusInternalServerError, "config update failed")
		return
	}
	s.metrics.TokenValidations.WithLabelValues("ok").Inc()

	writeJSON(w, http.StatusOK, config)
}

func (s *Server) handleSpotifyUnlink(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := s.spotify.Unlink(user.Username()); err != nil {
		if errors.Is(err, shared.ErrNotLinked) {
			writeError(w, http.StatusConflict, "no linked spotify account")
			return
		}
		s.logger.Error("unlink failed", "error", err, "username", user.Username())
		writeError(w, http.StatusInternalServerError, "unlink failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "unlinked"})
}
