package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(h *Handler, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Timer.
	r.Get("/timer", h.GetTimer)
	r.Post("/timer/toggle", h.ToggleTimer)
	r.Post("/timer/reset", h.ResetTimer)
	r.Post("/timer/advance", h.AdvanceTimer)
	r.Get("/timer/settings", h.GetSettings)
	r.Put("/timer/settings", h.UpdateSettings)

	// Tasks.
	r.Get("/tasks", h.ListTasks)
	r.Post("/tasks", h.CreateTask)
	r.Get("/tasks/focus", h.GetFocus)
	r.Put("/tasks/focus", h.SetFocus)
	r.Post("/tasks/{id}/toggle", h.ToggleTask)
	r.Delete("/tasks/{id}", h.DeleteTask)

	// Note.
	r.Get("/note", h.GetNote)
	r.Put("/note", h.SetNote)
	r.Post("/note/save", h.SaveNote)
	r.Put("/note/autosave", h.SetAutoSave)
	r.Post("/note/export", h.ExportNote)

	// Exports and stats.
	r.Get("/exports", h.ListExports)
	r.Get("/exports/search", h.SearchExports)
	r.Get("/stats", h.Stats)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
