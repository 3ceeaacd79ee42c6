package export

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStorage struct {
	calls *[]string

	saveErr   error
	deleteErr error
	statusErr error

	savedTask *ExportTask
	deletedID uuid.UUID

	saveCalls   int
	deleteCalls int
	statusCalls int
}

func (s *stubStorage) GetExportStatus(ctx context.Context) (*ExportStatusResponse, error) {
	s.statusCalls++
	if s.statusErr != nil {
		return nil, s.statusErr
	}
	return &ExportStatusResponse{Exports: []ExportStatus{{TaskID: "abc", Status: "pending"}}}, nil
}

func (s *stubStorage) SaveExportData(ctx context.Context, task *ExportTask) error {
	s.saveCalls++
	*s.calls = append(*s.calls, "save")
	if s.saveErr != nil {
		return &PersistError{TaskID: task.TaskID, Err: s.saveErr}
	}
	s.savedTask = task
	return nil
}

func (s *stubStorage) DeleteExportData(ctx context.Context, taskID uuid.UUID) error {
	s.deleteCalls++
	s.deletedID = taskID
	*s.calls = append(*s.calls, "delete")
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return nil
}

type stubQueue struct {
	calls *[]string

	publishErr   error
	publishCalls int
	published    []OutboundMessage
}

func (q *stubQueue) Publish(ctx context.Context, msg OutboundMessage) error {
	q.publishCalls++
	*q.calls = append(*q.calls, "publish")
	if q.publishErr != nil {
		return q.publishErr
	}
	q.published = append(q.published, msg)
	return nil
}

func newTestApp(t *testing.T, areaLimit float64) (*App, *stubStorage, *stubQueue, *clockwork.FakeClock) {
	t.Helper()
	calls := []string{}
	storage := &stubStorage{calls: &calls}
	queue := &stubQueue{calls: &calls}
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	app := NewApp(storage, queue, areaLimit).WithClock(clock)
	return app, storage, queue, clock
}

func validRequest() ExportRequest {
	return ExportRequest{
		BBox:          []float64{10, 10, 11, 11},
		MaxZoom:       5,
		FileName:      "roi",
		DirectoryName: "exports",
		ExportedLayers: []LayerData{
			{URL: "http://raster.local/wmts/base", Exported: true},
			{URL: "http://raster.local/wmts/overlay", Exported: true},
		},
	}
}

func TestTriggerExportSuccess(t *testing.T) {
	app, storage, queue, clock := newTestApp(t, 2e10)

	taskID, err := app.TriggerExport(context.Background(), validRequest())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, taskID)

	require.Equal(t, 1, storage.saveCalls)
	require.Equal(t, 1, queue.publishCalls)
	assert.Zero(t, storage.deleteCalls)
	assert.Equal(t, []string{"save", "publish"}, *storage.calls, "save must happen before publish")

	require.NotNil(t, storage.savedTask)
	assert.Equal(t, taskID, storage.savedTask.TaskID)
	assert.Equal(t, clock.Now().UTC(), storage.savedTask.CreatedAt)

	require.Len(t, queue.published, 1)
	msg := queue.published[0]
	assert.Equal(t, taskID.String(), msg.TaskID)
	assert.Equal(t, "roi", msg.FileName)
	assert.Equal(t, "exports", msg.DirectoryName)
	assert.Equal(t, 5, msg.MaxZoom)
	assert.Equal(t, []float64{10, 10, 11, 11}, msg.BBox)
	// Only the first layer's URL travels downstream.
	assert.Equal(t, "http://raster.local/wmts/base", msg.URL)
}

func TestTriggerExportResolutionRejected(t *testing.T) {
	app, storage, queue, _ := newTestApp(t, 2e10)

	req := validRequest()
	req.BBox = []float64{10, 10, 10.001, 10.001}
	req.MaxZoom = 5

	_, err := app.TriggerExport(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zoom level")

	assert.Zero(t, storage.saveCalls)
	assert.Zero(t, storage.deleteCalls)
	assert.Zero(t, queue.publishCalls)
}

func TestTriggerExportAreaRejected(t *testing.T) {
	app, storage, queue, _ := newTestApp(t, 1e6)

	_, err := app.TriggerExport(context.Background(), validRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds the limit")

	assert.Zero(t, storage.saveCalls)
	assert.Zero(t, queue.publishCalls)
}

func TestTriggerExportDegenerateBBoxRejected(t *testing.T) {
	app, storage, queue, _ := newTestApp(t, 2e10)

	req := validRequest()
	req.BBox = []float64{11, 10, 10, 11}

	_, err := app.TriggerExport(context.Background(), req)
	require.Error(t, err)
	assert.Zero(t, storage.saveCalls)
	assert.Zero(t, queue.publishCalls)
}

func TestTriggerExportWrongBBoxLengthRejected(t *testing.T) {
	app, storage, queue, _ := newTestApp(t, 2e10)

	req := validRequest()
	req.BBox = []float64{10, 10, 11}

	_, err := app.TriggerExport(context.Background(), req)
	require.Error(t, err)
	assert.Zero(t, storage.saveCalls)
	assert.Zero(t, queue.publishCalls)
}

func TestTriggerExportNoLayersRejected(t *testing.T) {
	app, storage, queue, _ := newTestApp(t, 2e10)

	req := validRequest()
	req.ExportedLayers = nil

	_, err := app.TriggerExport(context.Background(), req)
	require.ErrorIs(t, err, ErrNoLayers)
	assert.Zero(t, storage.saveCalls)
	assert.Zero(t, queue.publishCalls)
}

func TestTriggerExportSaveFailure(t *testing.T) {
	app, storage, queue, _ := newTestApp(t, 2e10)
	storage.saveErr = errors.New("storage unavailable")

	_, err := app.TriggerExport(context.Background(), validRequest())

	var persistErr *PersistError
	require.ErrorAs(t, err, &persistErr)
	assert.Equal(t, 1, storage.saveCalls)
	assert.Zero(t, queue.publishCalls, "publish must not run after a failed save")
	assert.Zero(t, storage.deleteCalls, "nothing was persisted, nothing to compensate")
}

func TestTriggerExportDispatchFailureCompensates(t *testing.T) {
	app, storage, queue, _ := newTestApp(t, 2e10)
	queue.publishErr = errors.New("broker down")

	_, err := app.TriggerExport(context.Background(), validRequest())

	var dispatchErr *DispatchError
	require.ErrorAs(t, err, &dispatchErr)
	var compErr *CompensationError
	assert.False(t, errors.As(err, &compErr), "a clean compensation is not a CompensationError")

	require.Equal(t, 1, storage.deleteCalls, "delete must run exactly once")
	assert.Equal(t, storage.savedTask.TaskID, storage.deletedID, "delete must target the saved task")
	assert.Equal(t, []string{"save", "publish", "delete"}, *storage.calls)
	assert.ErrorContains(t, err, "broker down")
}

func TestTriggerExportCompensationFailure(t *testing.T) {
	app, storage, queue, _ := newTestApp(t, 2e10)
	queue.publishErr = errors.New("broker down")
	storage.deleteErr = errors.New("delete rejected")

	_, err := app.TriggerExport(context.Background(), validRequest())

	var compErr *CompensationError
	require.ErrorAs(t, err, &compErr)
	var dispatchErr *DispatchError
	assert.False(t, errors.As(err, &dispatchErr), "an orphaned record must not be reported as a plain dispatch failure")

	assert.Equal(t, storage.deletedID, compErr.TaskID)
	assert.ErrorContains(t, compErr.DispatchErr, "broker down")
	assert.ErrorContains(t, compErr.Err, "delete rejected")
	assert.Equal(t, 1, storage.deleteCalls)
}

func TestGetExportStatus(t *testing.T) {
	app, storage, _, _ := newTestApp(t, 2e10)

	status, err := app.GetExportStatus(context.Background())
	require.NoError(t, err)
	require.Len(t, status.Exports, 1)
	assert.Equal(t, 1, storage.statusCalls)
}

func TestGetExportStatusError(t *testing.T) {
	app, storage, _, _ := newTestApp(t, 2e10)
	storage.statusErr = &StatusFetchError{Err: errors.New("gateway timeout")}

	_, err := app.GetExportStatus(context.Background())
	var statusErr *StatusFetchError
	require.ErrorAs(t, err, &statusErr)
}
