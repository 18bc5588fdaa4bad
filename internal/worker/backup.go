// Package worker exports ledger entries to the configured backup. It
// reacts to ledger events when AMQP is wired and sweeps for missed
// entries on a timer, so the backup converges even if events are lost.
package worker

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"voxpense/internal/core"
	"voxpense/internal/events"
	"voxpense/internal/export"
	"voxpense/internal/log"
)

// Source is the slice of the storage repository the worker reads.
type Source interface {
	PendingBackup(ctx context.Context, limit int) ([]core.Expense, error)
	MarkBackedUp(ctx context.Context, ids []int64) error
}

// Consumer delivers ledger events; nil disables the event path and the
// worker runs on the sweep timer alone.
type Consumer interface {
	Consume(ctx context.Context, handler func(*events.LedgerEvent) error) error
}

type BackupWorker struct {
	source   Source
	exporter export.Exporter
	consumer Consumer
	logger   *log.Logger

	batchSize int
	interval  time.Duration
}

func NewBackupWorker(source Source, exporter export.Exporter, consumer Consumer, logger *log.Logger, batchSize int, interval time.Duration) *BackupWorker {
	return &BackupWorker{
		source:    source,
		exporter:  exporter,
		consumer:  consumer,
		logger:    logger.WithComponent(log.ComponentWorker),
		batchSize: batchSize,
		interval:  interval,
	}
}

// Run blocks until ctx is cancelled. The event consumer and the
// periodic sweep run concurrently; either failing permanently stops
// the worker.
func (w *BackupWorker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if w.consumer != nil {
		g.Go(func() error {
			err := w.consumer.Consume(ctx, func(event *events.LedgerEvent) error {
				return w.HandleEvent(ctx, event)
			})
			if err != nil && ctx.Err() == nil {
				return fmt.Errorf("consume ledger events: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := w.ProcessPending(ctx); err != nil {
					w.logger.WarnContext(ctx, "backup sweep failed", log.FieldError, err.Error())
				}
			}
		}
	})

	return g.Wait()
}

// HandleEvent reacts to one ledger event. Creates trigger an immediate
// sweep; deletes need no backup action, the export is append-only.
func (w *BackupWorker) HandleEvent(ctx context.Context, event *events.LedgerEvent) error {
	w.logger.InfoContext(ctx, "ledger event received",
		log.FieldEventKind, event.Kind,
		log.FieldExpenseID, event.ExpenseID)

	if event.Kind != events.KindExpenseCreated {
		return nil
	}
	return w.ProcessPending(ctx)
}

// ProcessPending exports one batch of not-yet-backed-up entries and
// marks them done. Entries are marked only after the export succeeds;
// a crash in between re-exports the batch, which the append-only sheet
// tolerates.
func (w *BackupWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.source.PendingBackup(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("load pending backup: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	if err := w.exporter.AppendBatch(ctx, pending); err != nil {
		return fmt.Errorf("export batch: %w", err)
	}

	ids := make([]int64, 0, len(pending))
	for _, e := range pending {
		ids = append(ids, e.ID)
	}
	if err := w.source.MarkBackedUp(ctx, ids); err != nil {
		return fmt.Errorf("mark backed up: %w", err)
	}

	w.logger.InfoContext(ctx, "backup batch exported", log.FieldBatchSize, len(ids))
	return nil
}
