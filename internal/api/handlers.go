package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/pomodoro/internal/apperr"
	"github.com/starford/pomodoro/internal/index"
	"github.com/starford/pomodoro/internal/models"
	"github.com/starford/pomodoro/internal/notes"
	"github.com/starford/pomodoro/internal/stats"
	"github.com/starford/pomodoro/internal/storage"
	"github.com/starford/pomodoro/internal/tasks"
	"github.com/starford/pomodoro/internal/timer"
)

// Handler holds API route handlers. It is the host layer that coordinates
// the otherwise independent timer, task and note components.
type Handler struct {
	timer   *timer.Engine
	tasks   *tasks.Registry
	notes   *notes.Store
	exports storage.Provider
	search  ExportSearcher
}

// ExportSearcher searches exported notes.
type ExportSearcher interface {
	Search(query string, limit int) ([]index.SearchResult, error)
}

// NewHandler creates a new Handler. exports and search may be nil when no
// export directory is configured.
func NewHandler(engine *timer.Engine, registry *tasks.Registry, note *notes.Store, exports storage.Provider, search ExportSearcher) *Handler {
	return &Handler{timer: engine, tasks: registry, notes: note, exports: exports, search: search}
}

func (h *Handler) timerResponse(st models.TimerState) TimerResponse {
	resp := TimerResponse{State: st, Settings: h.timer.Settings()}
	if task, err := h.tasks.Focused(); err == nil {
		resp.FocusedTask = &task
	}
	return resp
}

// GetTimer handles GET /api/timer.
//
//	@Summary		Get timer state, settings and focused task
//	@Tags			timer
//	@Produce		json
//	@Success		200	{object}	TimerResponse
//	@Security		BearerAuth
//	@Router			/timer [get]
func (h *Handler) GetTimer(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.timerResponse(h.timer.State()))
}

// ToggleTimer handles POST /api/timer/toggle.
//
//	@Summary		Start or pause the timer
//	@Tags			timer
//	@Produce		json
//	@Success		200	{object}	TimerResponse
//	@Security		BearerAuth
//	@Router			/timer/toggle [post]
func (h *Handler) ToggleTimer(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.timerResponse(h.timer.Toggle()))
}

// ResetTimer handles POST /api/timer/reset.
//
//	@Summary		Stop the timer and restore the current mode's duration
//	@Tags			timer
//	@Produce		json
//	@Success		200	{object}	TimerResponse
//	@Security		BearerAuth
//	@Router			/timer/reset [post]
func (h *Handler) ResetTimer(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.timerResponse(h.timer.Reset()))
}

// AdvanceTimer handles POST /api/timer/advance (skip to the next mode).
//
//	@Summary		Skip to the next mode
//	@Tags			timer
//	@Produce		json
//	@Success		200	{object}	TimerResponse
//	@Security		BearerAuth
//	@Router			/timer/advance [post]
func (h *Handler) AdvanceTimer(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.timerResponse(h.timer.Advance()))
}

// GetSettings handles GET /api/timer/settings.
func (h *Handler) GetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.timer.Settings())
}

// UpdateSettings handles PUT /api/timer/settings.
//
//	@Summary		Update timer settings (partial, clamped)
//	@Tags			timer
//	@Accept			json
//	@Produce		json
//	@Param			body	body		UpdateSettingsRequest	true	"Fields to change"
//	@Success		200		{object}	models.TimerSettings
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/timer/settings [put]
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	s := h.timer.UpdateSettings(r.Context(), req.Merge(h.timer.Settings()))
	writeJSON(w, http.StatusOK, s)
}

// ListTasks handles GET /api/tasks.
//
//	@Summary		List tasks, newest first
//	@Tags			tasks
//	@Produce		json
//	@Success		200	{object}	TaskListResponse
//	@Security		BearerAuth
//	@Router			/tasks [get]
func (h *Handler) ListTasks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, TaskListResponse{
		Tasks:     h.tasks.List(),
		FocusedID: h.tasks.FocusedID(),
	})
}

// CreateTask handles POST /api/tasks.
//
//	@Summary		Add a task
//	@Tags			tasks
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateTaskRequest	true	"Task to add"
//	@Success		201		{object}	models.Task
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks [post]
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	task, ok := h.tasks.Add(r.Context(), req.Text)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("text is required"))
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// ToggleTask handles POST /api/tasks/{id}/toggle.
//
//	@Summary		Flip a task's completion flag
//	@Tags			tasks
//	@Produce		json
//	@Param			id	path		string	true	"Task id"
//	@Success		200	{object}	models.Task
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks/{id}/toggle [post]
func (h *Handler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.tasks.Toggle(r.Context(), chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// DeleteTask handles DELETE /api/tasks/{id}.
//
//	@Summary		Delete a task
//	@Tags			tasks
//	@Param			id	path	string	true	"Task id"
//	@Success		204	"Task deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks/{id} [delete]
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if !h.tasks.Delete(r.Context(), chi.URLParam(r, "id")) {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetFocus handles GET /api/tasks/focus.
func (h *Handler) GetFocus(w http.ResponseWriter, _ *http.Request) {
	task, err := h.tasks.Focused()
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("no focused task"))
			return
		}
		slog.Error("get focus failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// SetFocus handles PUT /api/tasks/focus. An empty id clears the focus.
//
//	@Summary		Set or clear the focused task
//	@Tags			tasks
//	@Accept			json
//	@Produce		json
//	@Param			body	body		FocusRequest	true	"Task id, empty to clear"
//	@Success		200		{object}	TaskListResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks/focus [put]
func (h *Handler) SetFocus(w http.ResponseWriter, r *http.Request) {
	var req FocusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	h.tasks.SetFocus(r.Context(), req.ID)
	writeJSON(w, http.StatusOK, TaskListResponse{
		Tasks:     h.tasks.List(),
		FocusedID: h.tasks.FocusedID(),
	})
}

// GetNote handles GET /api/note.
//
//	@Summary		Get the note text and autosave policy
//	@Tags			note
//	@Produce		json
//	@Success		200	{object}	models.NoteState
//	@Security		BearerAuth
//	@Router			/note [get]
func (h *Handler) GetNote(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.notes.State())
}

// SetNote handles PUT /api/note. Only the in-memory text changes; autosave
// or an explicit save persists it.
//
//	@Summary		Edit the note text
//	@Tags			note
//	@Accept			json
//	@Produce		json
//	@Param			body	body		NoteRequest	true	"New text"
//	@Success		200		{object}	models.NoteState
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/note [put]
func (h *Handler) SetNote(w http.ResponseWriter, r *http.Request) {
	var req NoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	h.notes.SetText(req.Text)
	writeJSON(w, http.StatusOK, h.notes.State())
}

// SaveNote handles POST /api/note/save.
func (h *Handler) SaveNote(w http.ResponseWriter, r *http.Request) {
	h.notes.Save(r.Context())
	writeJSON(w, http.StatusOK, h.notes.State())
}

// SetAutoSave handles PUT /api/note/autosave.
//
//	@Summary		Enable or disable note autosave
//	@Tags			note
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AutoSaveRequest	true	"Policy"
//	@Success		200		{object}	models.NoteState
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/note/autosave [put]
func (h *Handler) SetAutoSave(w http.ResponseWriter, r *http.Request) {
	var req AutoSaveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	h.notes.SetAutoSave(r.Context(), *req.Enabled)
	writeJSON(w, http.StatusOK, h.notes.State())
}

// ExportNote handles POST /api/note/export.
//
//	@Summary		Save the note as a Markdown file in the export directory
//	@Tags			note
//	@Produce		json
//	@Success		201	{object}	ExportResponse
//	@Failure		500	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/note/export [post]
func (h *Handler) ExportNote(w http.ResponseWriter, r *http.Request) {
	name, err := h.notes.Export(r.Context())
	if err != nil {
		slog.Error("export note failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("export failed"))
		return
	}
	writeJSON(w, http.StatusCreated, ExportResponse{Name: name})
}

// ListExports handles GET /api/exports.
func (h *Handler) ListExports(w http.ResponseWriter, _ *http.Request) {
	if h.exports == nil {
		writeJSON(w, http.StatusOK, ExportListResponse{Exports: []models.ExportMetadata{}})
		return
	}
	items, err := h.exports.List()
	if err != nil {
		slog.Error("list exports failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, ExportListResponse{Exports: items})
}

// SearchExports handles GET /api/exports/search?q=...&limit=N.
//
//	@Summary		Full-text search over exported notes
//	@Tags			exports
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results (default 20)"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/exports/search [get]
func (h *Handler) SearchExports(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			writeJSON(w, http.StatusBadRequest, errorBody("limit must be between 1 and 100"))
			return
		}
		limit = n
	}
	if h.search == nil {
		writeJSON(w, http.StatusOK, SearchResponse{Results: []index.SearchResult{}})
		return
	}
	results, err := h.search.Search(q, limit)
	if err != nil {
		slog.Error("search exports failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("search failed"))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Stats handles GET /api/stats.
//
//	@Summary		Completed cycles and task completion
//	@Tags			stats
//	@Produce		json
//	@Success		200	{object}	StatsResponse
//	@Security		BearerAuth
//	@Router			/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, stats.Compute(h.timer.State(), h.tasks.List()))
}
