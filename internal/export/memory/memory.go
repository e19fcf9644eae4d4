// Package memory is the in-process exporter used in tests and when no
// spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"paisa/internal/export"
)

type Exporter struct {
	mu   sync.Mutex
	rows []export.Row
}

func New() *Exporter {
	return &Exporter{}
}

var _ export.RowExporter = (*Exporter)(nil)

// Export stores the row and returns a synthetic reference.
func (e *Exporter) Export(_ context.Context, row export.Row) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rows = append(e.rows, row)
	return fmt.Sprintf("mem:%d", len(e.rows)), nil
}

// Rows returns a copy of everything exported so far.
func (e *Exporter) Rows() []export.Row {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]export.Row, len(e.rows))
	copy(out, e.rows)
	return out
}
