package export

import (
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"github.com/mapforge/export-trigger/go/internal/geometry"
)

// LayerData describes a single source layer of an export request
type LayerData struct {
	URL      string `json:"url" validate:"required"`
	Exported bool   `json:"exported"`
}

// ExportRequest is the inbound, untrusted payload asking for a geopackage export
type ExportRequest struct {
	BBox           []float64   `json:"bbox" validate:"required,len=4"`
	MaxZoom        int         `json:"maxZoom" validate:"gte=0"`
	FileName       string      `json:"fileName" validate:"required"`
	DirectoryName  string      `json:"directoryName" validate:"required"`
	ExportedLayers []LayerData `json:"exportedLayers" validate:"required,min=1,dive"`
}

// ExportTask is the accepted, validated form of a request. It is created
// once per accepted request and never mutated afterwards.
type ExportTask struct {
	TaskID        uuid.UUID
	Polygon       orb.Polygon
	BBox          geometry.BBox
	MaxZoom       int
	FileName      string
	DirectoryName string
	URL           string
	CreatedAt     time.Time
}

// OutboundMessage is the unit handed to the queue gateway. It carries only
// the first layer's URL; multi-layer propagation is a known limitation of
// the export worker's contract, not something to fix here.
type OutboundMessage struct {
	TaskID        string    `json:"taskId"`
	FileName      string    `json:"fileName"`
	URL           string    `json:"url"`
	BBox          []float64 `json:"bbox"`
	DirectoryName string    `json:"directoryName"`
	MaxZoom       int       `json:"maxZoom"`
}

// ExportStatus is a single export's state as reported by the storage service
type ExportStatus struct {
	TaskID    string     `json:"taskId"`
	Status    string     `json:"status"`
	FileName  string     `json:"fileName"`
	Directory string     `json:"directoryName"`
	Progress  int        `json:"progress"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// ExportStatusResponse aggregates the storage service's view of all exports
type ExportStatusResponse struct {
	Exports []ExportStatus `json:"exports"`
}

// outboundMessageFromTask builds the queue payload from an accepted task.
// Callers must only invoke this after the task has been persisted.
func outboundMessageFromTask(task *ExportTask) OutboundMessage {
	return OutboundMessage{
		TaskID:        task.TaskID.String(),
		FileName:      task.FileName,
		URL:           task.URL,
		BBox:          task.BBox[:],
		DirectoryName: task.DirectoryName,
		MaxZoom:       task.MaxZoom,
	}
}
