// Package worker runs the background halves of the system: pushing queued
// export rows to the spreadsheet and firing the periodic reminder sweep.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"paisa/internal/amqp"
	"paisa/internal/export"
	"paisa/internal/storage"
)

// ExportQueue is the slice of the storage layer the export worker needs.
type ExportQueue interface {
	Get(ctx context.Context, id int64) (storage.ExportRow, error)
	Pending(ctx context.Context, limit int) ([]storage.ExportRow, error)
	MarkExported(ctx context.Context, id int64) error
	MarkExportError(ctx context.Context, id int64, maxAttempts int) error
	PurgeExported(ctx context.Context, olderThan time.Duration) (int64, error)
}

// ExportWorker drains the export queue into the configured sink. Nudge
// messages give low latency; the periodic sweep guarantees delivery when
// messages are lost or the sink was down.
type ExportWorker struct {
	queue       ExportQueue
	exporter    export.RowExporter
	batchSize   int
	maxAttempts int
	retention   time.Duration
}

func NewExportWorker(queue ExportQueue, exporter export.RowExporter, batchSize, maxAttempts int, retention time.Duration) *ExportWorker {
	return &ExportWorker{
		queue:       queue,
		exporter:    exporter,
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
		retention:   retention,
	}
}

// HandleExportMessage processes a single export nudge from AMQP. A failed
// export bumps the attempt counter and is retried by the sweep, so the
// message is still consumed; only a failure to read the queue row requeues.
func (w *ExportWorker) HandleExportMessage(ctx context.Context, msg *amqp.ExportMessage) error {
	row, err := w.queue.Get(ctx, msg.RowID)
	if err != nil {
		return fmt.Errorf("get export row %d: %w", msg.RowID, err)
	}

	if row.Status != storage.ExportPending {
		slog.DebugContext(ctx, "Export row already handled", "id", row.ID, "status", row.Status)
		return nil
	}

	if err := w.exportRow(ctx, row); err != nil {
		slog.ErrorContext(ctx, "Export failed, row stays queued for the sweep",
			"id", row.ID, "kind", row.Kind, "error", err)
	}
	return nil
}

// DrainPending exports up to one batch of pending rows, oldest first.
func (w *ExportWorker) DrainPending(ctx context.Context) error {
	rows, err := w.queue.Pending(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending export rows: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Draining pending export rows", "count", len(rows))

	for _, row := range rows {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := w.exportRow(ctx, row); err != nil {
			slog.ErrorContext(ctx, "Failed to export row", "id", row.ID, "error", err)
		}
	}
	return nil
}

// RunSweep drains the queue on the given interval until the context ends.
// Each sweep also purges rows that were exported longer than the retention
// period ago.
func (w *ExportWorker) RunSweep(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Recover anything left over from a previous run before waiting.
	if err := w.DrainPending(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup drain failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Export sweep stopping", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			if err := w.DrainPending(ctx); err != nil {
				slog.ErrorContext(ctx, "Export sweep failed", "error", err)
			}
			if n, err := w.queue.PurgeExported(ctx, w.retention); err != nil {
				slog.ErrorContext(ctx, "Failed to purge exported rows", "error", err)
			} else if n > 0 {
				slog.InfoContext(ctx, "Purged exported rows", "count", n)
			}
		}
	}
}

func (w *ExportWorker) exportRow(ctx context.Context, row storage.ExportRow) error {
	ref, err := w.exporter.Export(ctx, export.Row{
		Kind:     row.Kind,
		EntityID: row.EntityID,
		Payload:  row.Payload,
	})
	if err != nil {
		if markErr := w.queue.MarkExportError(ctx, row.ID, w.maxAttempts); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error", "id", row.ID, "error", markErr)
		}
		return fmt.Errorf("export row %d: %w", row.ID, err)
	}

	if err := w.queue.MarkExported(ctx, row.ID); err != nil {
		// The export itself succeeded; the row will be retried and the sink
		// may see a duplicate, which it tolerates.
		slog.ErrorContext(ctx, "Failed to mark row exported", "id", row.ID, "error", err)
		return nil
	}

	slog.InfoContext(ctx, "Exported row",
		"id", row.ID, "kind", row.Kind, "entity_id", row.EntityID, "ref", ref)
	return nil
}
