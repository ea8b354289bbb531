package server

import (
	_ "embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/desertthunder/beatify/internal/shared"
)

//go:embed widget.html
var widgetPageHTML string

var widgetPage = template.Must(template.New("widget").Parse(widgetPageHTML))

type widgetPageData struct {
	Token   string
	Theme   string
	Refresh int
}

// handleWidgetPage renders the embeddable now-playing page for a valid
// widget token.
func (s *Server) handleWidgetPage(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")

	payload, err := s.issuer.Validate(token)
	if err != nil {
		s.metrics.TokenValidations.WithLabelValues("invalid").Inc()
		http.NotFound(w, r)
		return
	}
	s.metrics.TokenValidations.WithLabelValues("ok").Inc()

	data := widgetPageData{Token: token, Theme: "light", Refresh: 10}
	if theme, ok := payload.Config["theme"].(string); ok && theme != "" {
		data.Theme = theme
	}
	if refresh, ok := payload.Config["refresh_seconds"].(float64); ok && refresh >= 1 {
		data.Refresh = int(refresh)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := widgetPage.Execute(w, data); err != nil {
		s.logger.Error("widget page render failed", "error", err)
	}
}

// handleNowPlaying returns the current playback state for the token's owner.
func (s *Server) handleNowPlaying(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")

	payload, err := s.issuer.Validate(token)
	if err != nil {
		s.metrics.TokenValidations.WithLabelValues("invalid").Inc()
		writeError(w, http.StatusNotFound, "invalid widget token")
		return
	}
	s.metrics.TokenValidations.WithLabelValues("ok").Inc()

	info, err := s.spotify.NowPlaying(r.Context(), payload.Username)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrNotLinked), errors.Is(err, shared.ErrNoRefreshToken), errors.Is(err, shared.ErrRefreshFailed):
			s.metrics.SpotifyRefreshFailures.Inc()
			writeError(w, http.StatusConflict, "spotify account needs to be relinked")
		default:
			s.logger.Error("now playing lookup failed", "error", err, "username", payload.Username)
			writeError(w, http.StatusBadGateway, "spotify unavailable")
		}
		return
	}

	writeJSON(w, http.StatusOK, info)
}
