// pkg/renderer/renderer.go

package renderer

import (
	"context"
	"sync"

	"krushi/entities"
	"krushi/pkg/logger"
)

// Renderer receives the completed survey record. Building and showing the
// recommendations happens on the other side of this interface.
type Renderer interface {
	Render(ctx context.Context, sessionID string, rec entities.FarmRecord) error
}

type logRenderer struct{ log *logger.Logger }

// NewLog records the hand-off in the service log.
func NewLog(l *logger.Logger) Renderer {
	if l == nil {
		l = logger.Nop()
	}
	return &logRenderer{log: l}
}

func (r *logRenderer) Render(ctx context.Context, sessionID string, rec entities.FarmRecord) error {
	r.log.Info("survey handed to recommendation renderer",
		"session", sessionID,
		"district", rec.District,
		"crop", rec.Crop,
		"season", rec.Season,
		"farm_category", rec.FarmCategory,
		"fertilizer_rows", len(rec.Fertilizers),
		"pests", len(rec.Pests),
	)
	return nil
}

// Recorder keeps every rendered record in memory.
type Recorder struct {
	mu      sync.Mutex
	records []entities.FarmRecord
	Err     error
}

func (r *Recorder) Render(ctx context.Context, sessionID string, rec entities.FarmRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return r.Err
}

func (r *Recorder) Records() []entities.FarmRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entities.FarmRecord(nil), r.records...)
}
