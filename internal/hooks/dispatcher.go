// Package hooks dispatches collection lifecycle events to registered
// functions and reports their results to a monitor.
package hooks

import (
	"context"
	"io"
	"log"

	"storefront/internal/domain"
)

// BeforeWriteFunc may return a modified record; the returned record is
// what gets written.
type BeforeWriteFunc[T any] func(ctx context.Context, rec T, op domain.Operation) (T, domain.SyncResult)

// AfterChangeFunc observes a committed create or update.
type AfterChangeFunc[T any] func(ctx context.Context, rec T, op domain.Operation) domain.SyncResult

// AfterDeleteFunc observes a record that has been removed.
type AfterDeleteFunc[T any] func(ctx context.Context, rec T) domain.SyncResult

// Monitor receives every non-empty hook result.
type Monitor interface {
	Record(ctx context.Context, result domain.SyncResult) error
}

// Dispatcher runs hooks in registration order. Hook failures are reported,
// never returned, so they cannot block the write that triggered them.
type Dispatcher[T any] struct {
	beforeWrite []BeforeWriteFunc[T]
	afterChange []AfterChangeFunc[T]
	afterDelete []AfterDeleteFunc[T]
	monitor     Monitor
	logger      *log.Logger
}

func New[T any](monitor Monitor, logger *log.Logger) *Dispatcher[T] {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Dispatcher[T]{monitor: monitor, logger: logger}
}

func (d *Dispatcher[T]) OnBeforeWrite(fn BeforeWriteFunc[T]) {
	d.beforeWrite = append(d.beforeWrite, fn)
}

func (d *Dispatcher[T]) OnAfterChange(fn AfterChangeFunc[T]) {
	d.afterChange = append(d.afterChange, fn)
}

func (d *Dispatcher[T]) OnAfterDelete(fn AfterDeleteFunc[T]) {
	d.afterDelete = append(d.afterDelete, fn)
}

// BeforeWrite threads rec through every before-write hook.
func (d *Dispatcher[T]) BeforeWrite(ctx context.Context, rec T, op domain.Operation) (T, []domain.SyncResult) {
	var results []domain.SyncResult
	for _, fn := range d.beforeWrite {
		var res domain.SyncResult
		rec, res = fn(ctx, rec, op)
		results = d.report(ctx, results, res)
	}
	return rec, results
}

func (d *Dispatcher[T]) AfterChange(ctx context.Context, rec T, op domain.Operation) []domain.SyncResult {
	var results []domain.SyncResult
	for _, fn := range d.afterChange {
		results = d.report(ctx, results, fn(ctx, rec, op))
	}
	return results
}

func (d *Dispatcher[T]) AfterDelete(ctx context.Context, rec T) []domain.SyncResult {
	var results []domain.SyncResult
	for _, fn := range d.afterDelete {
		results = d.report(ctx, results, fn(ctx, rec))
	}
	return results
}

func (d *Dispatcher[T]) report(ctx context.Context, results []domain.SyncResult, res domain.SyncResult) []domain.SyncResult {
	if res.Empty() {
		return results
	}
	if res.Failed() {
		d.logger.Printf("hooks: %s %s product_id=%s failed: %s", res.Hook, res.Operation, res.ProductID, res.Reason)
	}
	if d.monitor != nil {
		if err := d.monitor.Record(ctx, res); err != nil {
			d.logger.Printf("hooks: record %s result product_id=%s error=%v", res.Hook, res.ProductID, err)
		}
	}
	return append(results, res)
}
