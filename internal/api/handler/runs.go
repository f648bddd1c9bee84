package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kiranshivaraju/loganalyzer/internal/api/response"
	"github.com/kiranshivaraju/loganalyzer/internal/store"
	"github.com/kiranshivaraju/loganalyzer/pkg/models"
)

type runResponse struct {
	ID         uuid.UUID `json:"id"`
	SourceFile string    `json:"source_file"`
	LineCount  int       `json:"line_count"`
	Backend    string    `json:"backend"`
	Model      string    `json:"model"`
	Answer     string    `json:"answer"`
	Cached     bool      `json:"cached"`
	CreatedAt  string    `json:"created_at"`
}

func toRunResponse(r *models.Run) runResponse {
	return runResponse{
		ID:         r.ID,
		SourceFile: r.SourceFile,
		LineCount:  r.LineCount,
		Backend:    r.Backend,
		Model:      r.Model,
		Answer:     r.Answer,
		Cached:     r.Cached,
		CreatedAt:  r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// NewListRunsHandler returns an http.HandlerFunc for GET /api/v1/runs.
func NewListRunsHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		page, err := intParam(q.Get("page"), 1)
		if err != nil || page < 1 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "page must be a positive integer", nil)
			return
		}
		limit, err := intParam(q.Get("limit"), 20)
		if err != nil || limit < 1 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "limit must be a positive integer", nil)
			return
		}
		if limit > 100 {
			limit = 100
		}

		backend := q.Get("backend")
		if backend != "" {
			if _, err := models.ParseBackend(backend); err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
				return
			}
		}

		runs, total, err := st.ListRuns(r.Context(), store.RunFilter{
			Backend:    backend,
			SourceFile: q.Get("source"),
			Page:       page,
			Limit:      limit,
		})
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
			return
		}

		items := make([]runResponse, 0, len(runs))
		for _, run := range runs {
			items = append(items, toRunResponse(run))
		}
		response.Collection(w, items, response.NewPaginationMeta(page, limit, total))
	}
}

// NewGetRunHandler returns an http.HandlerFunc for GET /api/v1/runs/{runID}.
func NewGetRunHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "runID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "runID must be a valid UUID", nil)
			return
		}

		run, err := st.GetRun(r.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "RESOURCE_NOT_FOUND", "Run not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
			return
		}

		response.JSON(w, toRunResponse(run))
	}
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
