// Package ledger owns the read-modify-write lifecycle of the ledger. Every
// mutation loads the full snapshot from the backend, changes it in memory and
// rewrites it whole.
//
// Transaction ids are positional. Save renumbers them to 1..N in snapshot
// order, so after a Delete every later row shifts down by one and an id held
// from before the delete now names a different transaction. Callers that need
// a durable reference use the UID.
//
// The store holds no lock and keeps no state between calls. When two callers
// mutate independently loaded snapshots, the last Save wins.
package ledger

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"

	"finance/internal/categories"
	"finance/internal/core"
	"finance/internal/log"
	"finance/internal/metrics"
	ports "finance/internal/sheets"
)

// Notifier is told about every successful save.
type Notifier interface {
	PublishLedgerChanged(ctx context.Context, op string, count int) error
}

type Store struct {
	backend  ports.Backend
	notifier Notifier
	logger   *log.Logger
	sl       *log.StructuredLogger
	newUID   func() string
}

type Option func(*Store)

// WithNotifier publishes a change event after each successful save.
func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l.WithComponent(log.ComponentLedger) }
}

// New returns a store over backend.
func New(backend ports.Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		logger:  log.Default(log.ComponentLedger),
		newUID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sl = log.NewStructuredLogger(s.logger)
	return s
}

// Load reads the full snapshot. On failure it returns an empty snapshot
// together with a *core.PersistenceError; callers may treat that as an empty
// ledger.
func (s *Store) Load(ctx context.Context) (snap core.Snapshot, err error) {
	defer observe(log.OpLoad, time.Now(), &err)

	snap, err = s.backend.Read(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Ledger unreadable, using empty snapshot",
			log.FieldOperation, log.OpLoad, log.FieldError, err)
		return emptySnapshot(), &core.PersistenceError{Op: log.OpLoad, Err: err}
	}
	if snap.Transactions == nil {
		snap.Transactions = []core.Transaction{}
	}
	if snap.Categories == nil {
		snap.Categories = []core.Category{}
	}
	metrics.LedgerTransactions.Set(float64(len(snap.Transactions)))
	return snap, nil
}

// Registry loads the snapshot and returns its category registry. A failed
// load still yields a usable registry backed by the default table.
func (s *Store) Registry(ctx context.Context) (*categories.Registry, error) {
	snap, err := s.Load(ctx)
	return categories.New(snap.Categories), err
}

// Add validates d and appends it with id max+1. The stored transaction is
// returned with its final id.
func (s *Store) Add(ctx context.Context, d core.Draft) (tx core.Transaction, err error) {
	defer observe(log.OpAdd, time.Now(), &err)

	tx, err = d.Parse()
	if err != nil {
		return core.Transaction{}, s.reject(ctx, log.OpAdd, 0, err)
	}
	snap, err := s.loadForWrite(ctx)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := categories.New(snap.Categories).Validate(tx); err != nil {
		return core.Transaction{}, s.reject(ctx, log.OpAdd, 0, err)
	}

	tx.ID = snap.MaxID() + 1
	tx.UID = s.newUID()
	snap.Transactions = append(snap.Transactions, tx)

	saved, err := s.Save(ctx, snap)
	if err != nil {
		return core.Transaction{}, err
	}
	tx = saved.Transactions[len(saved.Transactions)-1]
	s.sl.LogTransaction(ctx, log.OpAdd, tx.ID, tx.Description, tx.Amount.Cents, tx.Category, string(tx.Type))
	s.notify(ctx, log.OpAdd, len(saved.Transactions))
	return tx, nil
}

// Edit replaces every field of transaction id with d. The UID is kept.
func (s *Store) Edit(ctx context.Context, id int, d core.Draft) (tx core.Transaction, err error) {
	defer observe(log.OpEdit, time.Now(), &err)

	snap, err := s.loadForWrite(ctx)
	if err != nil {
		return core.Transaction{}, err
	}
	i, ok := snap.Find(id)
	if !ok {
		return core.Transaction{}, s.reject(ctx, log.OpEdit, id, &core.NotFoundError{ID: id})
	}
	tx, err = d.Parse()
	if err != nil {
		return core.Transaction{}, s.reject(ctx, log.OpEdit, id, err)
	}
	if err := categories.New(snap.Categories).Validate(tx); err != nil {
		return core.Transaction{}, s.reject(ctx, log.OpEdit, id, err)
	}

	tx.ID = id
	tx.UID = snap.Transactions[i].UID
	snap.Transactions[i] = tx

	saved, err := s.Save(ctx, snap)
	if err != nil {
		return core.Transaction{}, err
	}
	tx = saved.Transactions[i]
	s.sl.LogTransaction(ctx, log.OpEdit, tx.ID, tx.Description, tx.Amount.Cents, tx.Category, string(tx.Type))
	s.notify(ctx, log.OpEdit, len(saved.Transactions))
	return tx, nil
}

// Delete removes transaction id. Every later transaction is renumbered down
// by one on save.
func (s *Store) Delete(ctx context.Context, id int) (err error) {
	defer observe(log.OpDelete, time.Now(), &err)

	snap, err := s.loadForWrite(ctx)
	if err != nil {
		return err
	}
	i, ok := snap.Find(id)
	if !ok {
		return s.reject(ctx, log.OpDelete, id, &core.NotFoundError{ID: id})
	}
	removed := snap.Transactions[i]
	snap.Transactions = slices.Delete(snap.Transactions, i, i+1)

	saved, err := s.Save(ctx, snap)
	if err != nil {
		return err
	}
	s.sl.LogTransaction(ctx, log.OpDelete, id, removed.Description, removed.Amount.Cents, removed.Category, string(removed.Type))
	s.notify(ctx, log.OpDelete, len(saved.Transactions))
	return nil
}

// Save renumbers the transactions to 1..N in their current order and rewrites
// the whole snapshot. The caller's snapshot is not modified; the renumbered
// copy that was written is returned.
func (s *Store) Save(ctx context.Context, snap core.Snapshot) (out core.Snapshot, err error) {
	defer observe(log.OpSave, time.Now(), &err)

	out = Renumber(snap)
	if err := s.backend.Write(ctx, out); err != nil {
		s.sl.LogError(ctx, "Ledger write failed", err, log.OpSave, log.NewFields())
		return core.Snapshot{}, &core.PersistenceError{Op: log.OpSave, Err: err}
	}
	metrics.LedgerTransactions.Set(float64(len(out.Transactions)))
	return out, nil
}

// FindByUID resolves a surrogate key to the transaction's current row.
func (s *Store) FindByUID(ctx context.Context, uid string) (core.Transaction, error) {
	snap, err := s.Load(ctx)
	if err != nil {
		return core.Transaction{}, err
	}
	for _, tx := range snap.Transactions {
		if tx.UID == uid {
			return tx, nil
		}
	}
	return core.Transaction{}, &core.NotFoundError{UID: uid}
}

// Renumber returns a copy of snap with ids 1..N in snapshot order.
func Renumber(snap core.Snapshot) core.Snapshot {
	out := snap.Clone()
	for i := range out.Transactions {
		out.Transactions[i].ID = i + 1
	}
	return out
}

// loadForWrite is Load for mutations: an unreadable ledger aborts the
// operation instead of being overwritten by a near-empty snapshot.
func (s *Store) loadForWrite(ctx context.Context) (core.Snapshot, error) {
	snap, err := s.Load(ctx)
	if err != nil {
		return core.Snapshot{}, err
	}
	return snap, nil
}

func (s *Store) reject(ctx context.Context, op string, id int, err error) error {
	s.logger.WarnContext(ctx, "Ledger operation rejected",
		log.FieldOperation, op,
		log.FieldTransactionID, id,
		log.FieldErrorType, errorType(err),
		log.FieldError, err)
	return err
}

func (s *Store) notify(ctx context.Context, op string, count int) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.PublishLedgerChanged(ctx, op, count); err != nil {
		metrics.NotificationsPublished.WithLabelValues(metrics.ResultError).Inc()
		s.logger.ErrorContext(ctx, "Failed to publish ledger change",
			log.FieldOperation, op, log.FieldError, err)
		return
	}
	metrics.NotificationsPublished.WithLabelValues(metrics.ResultOK).Inc()
}

func observe(op string, start time.Time, err *error) {
	metrics.ObserveOperation(op, start, *err)
}

func errorType(err error) string {
	switch {
	case errors.Is(err, core.ErrValidation):
		return log.ErrorTypeValidation
	case errors.Is(err, core.ErrNotFound):
		return log.ErrorTypeNotFound
	case errors.Is(err, core.ErrPersistence):
		return log.ErrorTypePersistence
	default:
		return log.ErrorTypeInternal
	}
}

func emptySnapshot() core.Snapshot {
	return core.Snapshot{Transactions: []core.Transaction{}, Categories: []core.Category{}}
}
