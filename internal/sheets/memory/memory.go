// Package memory is an in-process ledger backend. It backs tests and the
// DATA_BACKEND=memory mode; nothing survives a restart.
package memory

import (
	"context"
	"sync"

	"finance/internal/categories"
	"finance/internal/core"
	ports "finance/internal/sheets"
)

var (
	_ ports.Backend = (*Store)(nil)
	_ ports.Pinger  = (*Store)(nil)
)

type Store struct {
	mu       sync.Mutex
	snap     core.Snapshot
	writes   int
	readErr  error
	writeErr error
}

// New returns a store holding the given category rows and no transactions.
func New(cats []core.Category) *Store {
	return &Store{snap: core.Snapshot{
		Transactions: []core.Transaction{},
		Categories:   append([]core.Category{}, cats...),
	}}
}

// NewFromSeed bootstraps the store the way a file backend bootstraps a new
// ledger: from the YAML seed file when given, otherwise the default table.
func NewFromSeed(seedPath string) (*Store, error) {
	cats, err := categories.LoadSeedFile(seedPath)
	if err != nil {
		return nil, err
	}
	return New(cats), nil
}

// Read returns a copy of the stored snapshot.
func (s *Store) Read(_ context.Context) (core.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return core.Snapshot{}, s.readErr
	}
	return s.snap.Clone(), nil
}

// Write replaces the stored snapshot with a copy of snap.
func (s *Store) Write(_ context.Context, snap core.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.snap = snap.Clone()
	s.writes++
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readErr
}

// Writes returns the number of successful writes.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// FailReads makes every subsequent Read return err; nil clears it.
func (s *Store) FailReads(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readErr = err
}

// FailWrites makes every subsequent Write return err; nil clears it.
func (s *Store) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
}
