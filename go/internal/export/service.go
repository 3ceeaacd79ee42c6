package export

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mapforge/export-trigger/go/internal/geometry"
)

// ExportApp defines what the service layer needs from the export application
type ExportApp interface {
	TriggerExport(ctx context.Context, req ExportRequest) (uuid.UUID, error)
	GetExportStatus(ctx context.Context) (*ExportStatusResponse, error)
}

// Error classifications exposed to callers. Monitoring keys off these, in
// particular compensation_failed which marks an orphaned record.
const (
	ClassBadRequest         = "bad_request"
	ClassValidationFailed   = "validation_failed"
	ClassPersistFailed      = "persist_failed"
	ClassDispatchFailed     = "dispatch_failed"
	ClassCompensationFailed = "compensation_failed"
	ClassStatusFetchFailed  = "status_fetch_failed"
	ClassInternal           = "internal_error"
)

type errorResponse struct {
	Classification string `json:"classification"`
	Message        string `json:"message"`
}

type exportAccepted struct {
	UUID string `json:"uuid"`
}

// Handler exposes the export trigger over HTTP
type Handler struct {
	app      ExportApp
	validate *validator.Validate
}

func NewHandler(app ExportApp) *Handler {
	return &Handler{
		app:      app,
		validate: validator.New(),
	}
}

// Register mounts the export routes on the given router
func (h *Handler) Register(r chi.Router) {
	r.Post("/export", h.handleExport)
	r.Get("/export/status", h.handleStatus)
}

// handleExport handles POST /export
func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ClassBadRequest, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, ClassBadRequest, err.Error())
		return
	}

	taskID, err := h.app.TriggerExport(r.Context(), req)
	if err != nil {
		status, class := classifyError(err)
		writeError(w, status, class, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, exportAccepted{UUID: taskID.String()})
}

// handleStatus handles GET /export/status
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.app.GetExportStatus(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, ClassStatusFetchFailed, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// classifyError maps the saga's error taxonomy to an HTTP status and a
// caller-visible classification. CompensationError must be checked before
// DispatchError: it is the higher-severity condition and carries the
// dispatch failure inside it.
func classifyError(err error) (int, string) {
	var (
		resErr  *geometry.ResolutionError
		geomErr *geometry.GeometryError
		areaErr *geometry.AreaLimitExceededError
		persist *PersistError
		comp    *CompensationError
		disp    *DispatchError
	)

	switch {
	case errors.As(err, &resErr), errors.As(err, &geomErr), errors.As(err, &areaErr):
		return http.StatusBadRequest, ClassValidationFailed
	case errors.Is(err, ErrNoLayers):
		return http.StatusBadRequest, ClassBadRequest
	case errors.As(err, &persist):
		return http.StatusBadGateway, ClassPersistFailed
	case errors.As(err, &comp):
		return http.StatusInternalServerError, ClassCompensationFailed
	case errors.As(err, &disp):
		return http.StatusBadGateway, ClassDispatchFailed
	default:
		return http.StatusInternalServerError, ClassInternal
	}
}

func writeError(w http.ResponseWriter, status int, classification, message string) {
	writeJSON(w, status, errorResponse{Classification: classification, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}
