// Package export defines the backup exporter port. The worker streams
// ledger entries through it; internal/export/google implements it with
// Google Sheets.
package export

import (
	"context"

	"voxpense/internal/core"
)

// Exporter appends ledger entries to an external backup. AppendBatch
// must be idempotent from the worker's point of view: entries are only
// marked backed up after it returns nil.
type Exporter interface {
	AppendBatch(ctx context.Context, expenses []core.Expense) error
}
