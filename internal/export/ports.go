// Package export defines the outbound port for pushing ledger rows to an
// external sink and the row shape that crosses it.
package export

import "context"

// Row is one queued ledger mutation ready to leave the process. Payload is
// the JSON encoding of the entity at the time it was enqueued.
type Row struct {
	Kind     string
	EntityID string
	Payload  string
}

// RowExporter pushes a single row to the sink and returns an opaque
// reference to where it landed.
type RowExporter interface {
	Export(ctx context.Context, row Row) (ref string, err error)
}
