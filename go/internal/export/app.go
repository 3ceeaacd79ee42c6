package export

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mapforge/export-trigger/go/internal/geometry"
)

// StorageGateway defines what the app layer needs from the export storage service
type StorageGateway interface {
	GetExportStatus(ctx context.Context) (*ExportStatusResponse, error)
	SaveExportData(ctx context.Context, task *ExportTask) error
	DeleteExportData(ctx context.Context, taskID uuid.UUID) error
}

// QueueGateway defines what the app layer needs from the work queue
type QueueGateway interface {
	Publish(ctx context.Context, msg OutboundMessage) error
}

// App coordinates the export saga: validate, persist, dispatch, and
// compensate the persisted record when dispatch fails. Each remote call is
// attempted exactly once per request; retry policy belongs to the caller.
type App struct {
	storage   StorageGateway
	queue     QueueGateway
	areaLimit float64
	clock     clockwork.Clock
}

// NewApp creates a new export App. areaLimitSqMeters bounds the geodesic
// area of any accepted bbox.
func NewApp(storage StorageGateway, queue QueueGateway, areaLimitSqMeters float64) *App {
	return &App{
		storage:   storage,
		queue:     queue,
		areaLimit: areaLimitSqMeters,
		clock:     clockwork.NewRealClock(),
	}
}

// WithClock swaps the clock, for tests
func (a *App) WithClock(clock clockwork.Clock) *App {
	a.clock = clock
	return a
}

// TriggerExport runs the full saga for one request and returns the task ID
// on success. The invariant it maintains: a message is only published for a
// task whose record was durably saved, and a failed publish leaves no
// record behind unless the compensating delete itself fails, which is
// surfaced as a CompensationError.
func (a *App) TriggerExport(ctx context.Context, req ExportRequest) (uuid.UUID, error) {
	taskID := uuid.New()

	task, err := a.buildTask(taskID, req)
	if err != nil {
		log.Info().Err(err).Str("task_id", taskID.String()).Msg("export request rejected")
		return uuid.Nil, err
	}

	if err := a.storage.SaveExportData(ctx, task); err != nil {
		log.Error().Err(err).Str("task_id", taskID.String()).Msg("failed to persist export task")
		return uuid.Nil, err
	}
	log.Debug().Str("task_id", taskID.String()).Msg("export task persisted")

	msg := outboundMessageFromTask(task)
	if err := a.queue.Publish(ctx, msg); err != nil {
		return uuid.Nil, a.compensate(ctx, taskID, err)
	}

	log.Info().
		Str("task_id", taskID.String()).
		Str("file_name", task.FileName).
		Int("max_zoom", task.MaxZoom).
		Msg("export task dispatched")
	return taskID, nil
}

// buildTask validates the request and derives the immutable task from it.
// Validation is pure computation and happens before any remote call, so a
// rejected request leaves no trace anywhere.
func (a *App) buildTask(taskID uuid.UUID, req ExportRequest) (*ExportTask, error) {
	bbox, err := toBBox(req.BBox)
	if err != nil {
		return nil, err
	}

	if err := geometry.ValidateResolution(req.MaxZoom, bbox); err != nil {
		return nil, err
	}

	polygon, err := geometry.ToPolygon(bbox)
	if err != nil {
		return nil, err
	}

	if err := geometry.ValidateArea(polygon, a.areaLimit); err != nil {
		return nil, err
	}

	if len(req.ExportedLayers) == 0 {
		return nil, ErrNoLayers
	}

	return &ExportTask{
		TaskID:        taskID,
		Polygon:       polygon,
		BBox:          bbox,
		MaxZoom:       req.MaxZoom,
		FileName:      req.FileName,
		DirectoryName: req.DirectoryName,
		URL:           req.ExportedLayers[0].URL,
		CreatedAt:     a.clock.Now().UTC(),
	}, nil
}

// compensate removes the already-persisted record for a task whose
// dispatch failed. The compensation's own failure is never folded into the
// dispatch error: an orphaned record needs operator attention and must
// stay distinguishable downstream.
func (a *App) compensate(ctx context.Context, taskID uuid.UUID, dispatchErr error) error {
	log.Warn().Err(dispatchErr).Str("task_id", taskID.String()).Msg("dispatch failed, deleting export record")

	if err := a.storage.DeleteExportData(ctx, taskID); err != nil {
		log.Error().
			Err(err).
			AnErr("dispatch_error", dispatchErr).
			Str("task_id", taskID.String()).
			Msg("compensating delete failed, export record is orphaned")
		return &CompensationError{TaskID: taskID, DispatchErr: dispatchErr, Err: err}
	}

	log.Info().Str("task_id", taskID.String()).Msg("export record deleted after dispatch failure")
	return &DispatchError{TaskID: taskID, Err: dispatchErr}
}

// GetExportStatus is an independent read path; it never touches the saga.
func (a *App) GetExportStatus(ctx context.Context) (*ExportStatusResponse, error) {
	status, err := a.storage.GetExportStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get export status: %w", err)
	}
	return status, nil
}

func toBBox(coords []float64) (geometry.BBox, error) {
	if len(coords) != 4 {
		return geometry.BBox{}, &geometry.GeometryError{Reason: fmt.Sprintf("expected 4 bbox coordinates, got %d", len(coords))}
	}
	return geometry.BBox{coords[0], coords[1], coords[2], coords[3]}, nil
}
