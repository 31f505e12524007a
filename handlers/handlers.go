package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"pub-health/data"
	"pub-health/health"
	"pub-health/manifest"
	"pub-health/source"
	"pub-health/storage"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

type Storage interface {
	GetReport(ctx context.Context) (storage.Snapshot, error)
	ListDependenciesFiltered(ctx context.Context, name string, flaggedOnly bool) ([]storage.DependencyHealth, error)
	GetDependency(ctx context.Context, name string) (storage.DependencyHealth, error)
	ClearReport(ctx context.Context) error
}

type DataManager interface {
	GenerateReport(ctx context.Context) (health.Report, error)
	Declared(ctx context.Context) ([]manifest.Dependency, error)
	SetVisible(visible bool)
}

type Handler struct {
	Store       Storage
	DataManager DataManager
	Log         *logrus.Logger
}

// Routes mounts every report endpoint on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/report", h.GetReport)
	r.Get("/dependencies", h.ListDependencies)
	r.Delete("/dependencies", h.ClearReport)
	r.Get("/dependencies/{name}", h.GetDependency)
	r.Post("/dependencies/refresh", h.RefreshHandler)
	r.Get("/manifest/dependencies", h.ListDeclared)
	r.Put("/view", h.SetView)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Log.WithError(err).Error("encoding response")
	}
}

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Store.GetReport(r.Context())
	if errors.Is(err, storage.ErrNoReport) {
		http.Error(w, "no report generated yet", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Log.WithError(err).Error("fetching stored report")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) ListDependencies(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	flaggedStr := r.URL.Query().Get("flagged")

	var flagged bool
	if flaggedStr != "" {
		v, err := strconv.ParseBool(flaggedStr)
		if err != nil {
			http.Error(w, "invalid flagged value", http.StatusBadRequest)
			return
		}
		flagged = v
	}

	deps, err := h.Store.ListDependenciesFiltered(r.Context(), name, flagged)
	if err != nil {
		h.Log.WithError(err).Error("listing dependencies with filters")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, deps)
}

func (h *Handler) GetDependency(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		http.Error(w, "missing path parameters", http.StatusBadRequest)
		return
	}

	dep, err := h.Store.GetDependency(r.Context(), name)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "dependency not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Log.WithField("name", name).WithError(err).Error("fetching dependency")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, dep)
}

func (h *Handler) ClearReport(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.ClearReport(r.Context()); err != nil {
		h.Log.WithError(err).Error("clearing report")
		http.Error(w, "failed to clear report", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	report, err := h.DataManager.GenerateReport(r.Context())
	if errors.Is(err, data.ErrBusy) {
		http.Error(w, "report generation already in progress", http.StatusConflict)
		return
	}
	if err != nil {
		h.Log.WithError(err).Error("failed to generate report")
		http.Error(w, "failed to generate report", http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	if report.Status == health.StatusNotFound {
		status = http.StatusNotFound
	}
	h.writeJSON(w, status, report)
}

func (h *Handler) ListDeclared(w http.ResponseWriter, r *http.Request) {
	deps, err := h.DataManager.Declared(r.Context())
	if errors.Is(err, source.ErrManifestNotFound) {
		http.Error(w, "manifest not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Log.WithError(err).Error("reading manifest")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, deps)
}

type ViewRequest struct {
	Visible *bool `json:"visible"`
}

func (h *Handler) SetView(w http.ResponseWriter, r *http.Request) {
	var input ViewRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if input.Visible == nil {
		http.Error(w, "visible is required", http.StatusBadRequest)
		return
	}

	h.DataManager.SetVisible(*input.Visible)
	w.WriteHeader(http.StatusNoContent)
}
