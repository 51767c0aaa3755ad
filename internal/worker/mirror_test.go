package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"finance/internal/amqp"
	"finance/internal/categories"
	"finance/internal/core"
	"finance/internal/log"
	"finance/internal/sheets/memory"
)

func seeded(t *testing.T) *memory.Store {
	t.Helper()
	src := memory.New(categories.DefaultRows())
	snap, err := src.Read(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	snap.Transactions = append(snap.Transactions, core.Transaction{
		ID: 1, UID: "a", Date: core.NewDate(2024, 3, 1), Description: "Rent",
		Amount: core.Money{Cents: 95000}, Category: "Housing", Type: core.Expense,
	})
	if err := src.Write(context.Background(), snap); err != nil {
		t.Fatal(err)
	}
	return src
}

func TestMirrorSyncCopiesSnapshot(t *testing.T) {
	ctx := context.Background()
	src := seeded(t)
	dst := memory.New(nil)
	m := NewMirror(src, dst, log.Discard())

	if !m.LastSynced().IsZero() {
		t.Fatal("new mirror should not report a sync")
	}
	if err := m.Sync(ctx); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	got, _ := dst.Read(ctx)
	if len(got.Transactions) != 1 || got.Transactions[0].UID != "a" {
		t.Errorf("unexpected mirrored transactions %+v", got.Transactions)
	}
	if len(got.Categories) != len(categories.DefaultRows()) {
		t.Errorf("expected %d categories, got %d", len(categories.DefaultRows()), len(got.Categories))
	}
	if m.LastSynced().IsZero() {
		t.Error("LastSynced should be set after a write")
	}
}

func TestMirrorSkipsUnchangedSnapshot(t *testing.T) {
	ctx := context.Background()
	src := seeded(t)
	dst := memory.New(nil)
	m := NewMirror(src, dst, log.Discard())

	for range 3 {
		if err := m.Sync(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if dst.Writes() != 1 {
		t.Errorf("expected 1 write for an unchanged source, got %d", dst.Writes())
	}

	snap, _ := src.Read(ctx)
	snap.Transactions[0].Amount = core.Money{Cents: 100000}
	if err := src.Write(ctx, snap); err != nil {
		t.Fatal(err)
	}
	if err := m.Sync(ctx); err != nil {
		t.Fatal(err)
	}
	if dst.Writes() != 2 {
		t.Errorf("a changed source should be written again, got %d writes", dst.Writes())
	}
}

func TestMirrorFailures(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	t.Run("source read failure leaves target intact", func(t *testing.T) {
		src := seeded(t)
		dst := memory.New(categories.DefaultRows())
		m := NewMirror(src, dst, log.Discard())
		src.FailReads(boom)

		err := m.Sync(ctx)
		if !errors.Is(err, core.ErrPersistence) || !errors.Is(err, boom) {
			t.Fatalf("expected persistence error wrapping boom, got %v", err)
		}
		if dst.Writes() != 0 {
			t.Errorf("target must not be written after a failed read, got %d writes", dst.Writes())
		}
	})

	t.Run("target write failure is retried", func(t *testing.T) {
		src := seeded(t)
		dst := memory.New(nil)
		m := NewMirror(src, dst, log.Discard())
		dst.FailWrites(boom)

		if err := m.Sync(ctx); !errors.Is(err, core.ErrPersistence) {
			t.Fatalf("expected persistence error, got %v", err)
		}
		dst.FailWrites(nil)
		if err := m.Sync(ctx); err != nil {
			t.Fatalf("retry: %v", err)
		}
		if got, _ := dst.Read(ctx); len(got.Transactions) != 1 {
			t.Errorf("retry should copy the snapshot, got %d transactions", len(got.Transactions))
		}
	})
}

// fakeConsumer delivers the queued messages, then blocks until ctx is done.
type fakeConsumer struct {
	msgs []*amqp.LedgerChangedMessage
	err  error

	mu      sync.Mutex
	handled int
}

func (f *fakeConsumer) ConsumeLedgerChanged(ctx context.Context, handler func(*amqp.LedgerChangedMessage) error) error {
	if f.err != nil {
		return f.err
	}
	for _, msg := range f.msgs {
		if err := handler(msg); err != nil {
			return err
		}
		f.mu.Lock()
		f.handled++
		f.mu.Unlock()
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeConsumer) Handled() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handled
}

func TestMirrorRunSyncsOnNotification(t *testing.T) {
	src := seeded(t)
	dst := memory.New(nil)
	m := NewMirror(src, dst, log.Discard())

	consumer := &fakeConsumer{msgs: []*amqp.LedgerChangedMessage{
		amqp.NewLedgerChangedMessage("add", 1),
	}}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, consumer, 0) }()

	deadline := time.Now().Add(2 * time.Second)
	for consumer.Handled() < 1 {
		if time.Now().After(deadline) {
			t.Fatal("notification was not handled")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run should return nil on cancel, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
	if got, _ := dst.Read(context.Background()); len(got.Transactions) != 1 {
		t.Errorf("expected mirrored transaction, got %d", len(got.Transactions))
	}
}

func TestMirrorRunReconcilesOnInterval(t *testing.T) {
	src := seeded(t)
	dst := memory.New(nil)
	m := NewMirror(src, dst, log.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, nil, 10*time.Millisecond) }()

	// Change the source after the startup sync; the ticker must pick it up.
	deadline := time.Now().Add(2 * time.Second)
	for dst.Writes() < 1 {
		if time.Now().After(deadline) {
			t.Fatal("startup sync did not run")
		}
		time.Sleep(5 * time.Millisecond)
	}
	snap, _ := src.Read(context.Background())
	snap.Transactions = snap.Transactions[:0]
	if err := src.Write(context.Background(), snap); err != nil {
		t.Fatal(err)
	}
	for dst.Writes() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("periodic sync did not run")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run: %v", err)
	}
}

func TestMirrorRunOnce(t *testing.T) {
	src := seeded(t)
	dst := memory.New(nil)
	m := NewMirror(src, dst, log.Discard())

	if err := m.Run(context.Background(), nil, 0); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if dst.Writes() != 1 {
		t.Errorf("expected a single startup sync, got %d writes", dst.Writes())
	}
}

func TestMirrorRunConsumerError(t *testing.T) {
	m := NewMirror(seeded(t), memory.New(nil), log.Discard())
	boom := errors.New("channel closed")

	err := m.Run(context.Background(), &fakeConsumer{err: boom}, 0)
	if !errors.Is(err, boom) {
		t.Errorf("expected consumer error, got %v", err)
	}
}
