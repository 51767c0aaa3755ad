// Package worker keeps a second backend in step with the primary ledger.
// Every pass copies the whole snapshot, so a missed notification is repaired
// by the next one or by the periodic reconciliation.
package worker

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"finance/internal/amqp"
	"finance/internal/core"
	"finance/internal/log"
	"finance/internal/metrics"
	ports "finance/internal/sheets"
)

// Consumer delivers ledger change notifications until ctx is done.
type Consumer interface {
	ConsumeLedgerChanged(ctx context.Context, handler func(*amqp.LedgerChangedMessage) error) error
}

// Mirror copies snapshots from source to target.
type Mirror struct {
	source ports.SnapshotReader
	target ports.SnapshotWriter
	logger *log.Logger

	mu     sync.Mutex
	last   *core.Snapshot
	synced time.Time
}

func NewMirror(source ports.SnapshotReader, target ports.SnapshotWriter, logger *log.Logger) *Mirror {
	if logger == nil {
		logger = log.Default(log.ComponentWorker)
	}
	return &Mirror{source: source, target: target, logger: logger}
}

// Sync reads the full source snapshot and writes it to the target. A failed
// read leaves the target untouched. A snapshot equal to the last one written
// is skipped; the first pass always writes.
func (m *Mirror) Sync(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap, err := m.source.Read(ctx)
	if err != nil {
		metrics.MirrorSyncs.WithLabelValues(metrics.ResultError).Inc()
		return &core.PersistenceError{Op: "read source", Err: err}
	}
	if m.last != nil && sameSnapshot(*m.last, snap) {
		metrics.MirrorSyncs.WithLabelValues(metrics.ResultUnchanged).Inc()
		m.logger.DebugContext(ctx, "Mirror up to date", "transactions", len(snap.Transactions))
		return nil
	}
	if err := m.target.Write(ctx, snap); err != nil {
		metrics.MirrorSyncs.WithLabelValues(metrics.ResultError).Inc()
		return &core.PersistenceError{Op: "write mirror", Err: err}
	}

	m.last = &snap
	m.synced = time.Now()
	metrics.MirrorSyncs.WithLabelValues(metrics.ResultOK).Inc()
	m.logger.InfoContext(ctx, "Mirror synced",
		"transactions", len(snap.Transactions),
		"categories", len(snap.Categories))
	return nil
}

// LastSynced returns when the target was last written, zero if never.
func (m *Mirror) LastSynced() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.synced
}

// Run syncs once, then on every notification from consumer and every
// interval until ctx is done. A nil consumer or a zero interval disables that
// trigger. Failed passes are logged and retried by the next trigger.
func (m *Mirror) Run(ctx context.Context, consumer Consumer, interval time.Duration) error {
	if err := m.Sync(ctx); err != nil {
		m.logger.ErrorContext(ctx, "Startup mirror sync failed", log.FieldError, err)
	}
	if consumer == nil && interval <= 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if consumer != nil {
		g.Go(func() error {
			err := consumer.ConsumeLedgerChanged(gctx, func(msg *amqp.LedgerChangedMessage) error {
				m.logger.DebugContext(gctx, "Ledger change received", log.FieldOperation, msg.Op, "count", msg.Count)
				return m.Sync(gctx)
			})
			if err == nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("consume ledger changes: %w", err)
		})
	}
	if interval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					if err := m.Sync(gctx); err != nil {
						m.logger.ErrorContext(gctx, "Periodic mirror sync failed", log.FieldError, err)
					}
				}
			}
		})
	}
	return g.Wait()
}

func sameSnapshot(a, b core.Snapshot) bool {
	return slices.EqualFunc(a.Transactions, b.Transactions, sameTransaction) &&
		slices.Equal(a.Categories, b.Categories)
}

func sameTransaction(a, b core.Transaction) bool {
	return a.ID == b.ID && a.UID == b.UID && a.Date.Equal(b.Date.Time) &&
		a.Description == b.Description && a.Amount == b.Amount &&
		a.Category == b.Category && a.Type == b.Type
}
