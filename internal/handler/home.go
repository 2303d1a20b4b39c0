package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/choreadmin/internal/auth"
)

type HomeHandler struct {
	appName  string
	adminURL string
	logger   *slog.Logger
}

func NewHomeHandler(appName, adminURL string, logger *slog.Logger) *HomeHandler {
	return &HomeHandler{appName: appName, adminURL: adminURL, logger: logger}
}

// Home is the public landing page.
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"AppName":  h.appName,
		"AdminURL": h.adminURL,
	}
	if p := auth.FromContext(r.Context()); p.IsAuthenticated() {
		data["User"] = p.User
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, "home.html", data); err != nil {
		h.logger.Error("render home", "error", err)
	}
}

func (h *HomeHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
