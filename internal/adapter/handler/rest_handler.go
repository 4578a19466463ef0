package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/hive-corporation/driftwatch/internal/adapter/exporter"
	"github.com/hive-corporation/driftwatch/internal/app"
	"github.com/hive-corporation/driftwatch/internal/core/domain"
)

// maxAdjustIDs bounds the size of a single adjust request.
const maxAdjustIDs = 5000

type RestHandler struct {
	session *app.Session
	logger  *zap.Logger
}

func NewRestHandler(session *app.Session, logger *zap.Logger) *RestHandler {
	return &RestHandler{
		session: session,
		logger:  logger,
	}
}

// Routes registers every API endpoint on router.
func (h *RestHandler) Routes(router *mux.Router) {
	router.HandleFunc("/api/v1/health", h.Health).Methods(http.MethodGet)

	router.HandleFunc("/api/v1/techniques/adjust", h.AdjustTechniques).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/techniques/{id}", h.TechniqueStatus).Methods(http.MethodGet)

	router.HandleFunc("/api/v1/dataset/adjustments", h.DatasetAdjustments).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/dataset/items/{id}", h.Item).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/dataset/templates/{id}", h.Template).Methods(http.MethodGet)
}

// Health check endpoint
func (h *RestHandler) Health(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":     "healthy",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"service":    "driftwatch-api",
		"partitions": h.session.Partitions(),
		"techniques": h.session.Table().Len(),
	}
	writeJSON(w, h.logger, http.StatusOK, response)
}

// AdjustRequest is a user-submitted technique list, optionally merged with
// the techniques of a template.
type AdjustRequest struct {
	IDs      []string `json:"ids"`
	Template string   `json:"template,omitempty"`
}

// AdjustTechniques normalizes a free-form list of technique IDs
func (h *RestHandler) AdjustTechniques(w http.ResponseWriter, r *http.Request) {
	var req AdjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if len(req.IDs) > maxAdjustIDs {
		writeError(w, h.logger, http.StatusRequestEntityTooLarge, "too many technique IDs")
		return
	}

	if req.Template == "" {
		writeJSON(w, h.logger, http.StatusOK, h.session.AdjustTechniques(req.IDs))
		return
	}

	result, err := h.session.SeedFromTemplate(req.IDs, req.Template)
	if err != nil {
		if errors.Is(err, app.ErrTemplateNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "template not found")
			return
		}
		h.logger.Error("Template techniques disagree with the knowledge base",
			zap.String("template", req.Template), zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "template is inconsistent with the loaded knowledge base")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, result)
}

// TechniqueStatus reports the resolved status of one technique ID
func (h *RestHandler) TechniqueStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	writeJSON(w, h.logger, http.StatusOK, NewStatusView(id, h.session.Status(id)))
}

// DatasetAdjustments exports the load-time audit report
func (h *RestHandler) DatasetAdjustments(w http.ResponseWriter, r *http.Request) {
	includeUnchanged := false
	if v := r.URL.Query().Get("include_unchanged"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, h.logger, http.StatusBadRequest, "invalid 'include_unchanged' parameter")
			return
		}
		includeUnchanged = parsed
	}

	exp, err := exporter.ForFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "unsupported format (use 'json', 'csv' or 'cef')")
		return
	}

	data, err := exp.Export(h.session.Report(includeUnchanged))
	if err != nil {
		h.logger.Error("Failed to export adjustment report", zap.String("format", exp.Format()), zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "failed to export adjustment report")
		return
	}

	w.Header().Set("Content-Type", exp.ContentType())
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Warn("Error writing adjustment report response", zap.Error(err))
	}
}

// Item returns one adjusted dataset item
func (h *RestHandler) Item(w http.ResponseWriter, r *http.Request) {
	item, ok := h.session.Item(mux.Vars(r)["id"])
	if !ok {
		writeError(w, h.logger, http.StatusNotFound, "item not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, item)
}

// Template returns one adjusted template
func (h *RestHandler) Template(w http.ResponseWriter, r *http.Request) {
	tmpl, ok := h.session.Template(mux.Vars(r)["id"])
	if !ok {
		writeError(w, h.logger, http.StatusNotFound, "template not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, tmpl)
}

// StatusView is the JSON form of a technique status.
type StatusView struct {
	ID        string          `json:"id"`
	Name      domain.TechName `json:"name"`
	Display   string          `json:"display"`
	Status    string          `json:"status"`
	RevokedBy string          `json:"revoked_by,omitempty"`
}

func NewStatusView(id string, status domain.TechStatus) StatusView {
	view := StatusView{
		ID:      id,
		Name:    status.Name(),
		Display: status.Name().Display(),
		Status:  string(status.Kind()),
	}
	if revoked, ok := status.(domain.RevokedStatus); ok {
		view.RevokedBy = revoked.By
	}
	return view
}

// Helper functions

func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Warn("Error encoding JSON response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, logger *zap.Logger, status int, message string) {
	writeJSON(w, logger, status, map[string]string{"error": message})
}
