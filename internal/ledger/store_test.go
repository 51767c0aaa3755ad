package ledger

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"finance/internal/categories"
	"finance/internal/core"
	"finance/internal/log"
	"finance/internal/report"
	"finance/internal/sheets/memory"
)

type fakeNotifier struct {
	ops []string
	err error
}

func (f *fakeNotifier) PublishLedgerChanged(_ context.Context, op string, count int) error {
	f.ops = append(f.ops, fmt.Sprintf("%s:%d", op, count))
	return f.err
}

func newStore(t *testing.T, opts ...Option) (*Store, *memory.Store) {
	t.Helper()
	backend := memory.New(categories.DefaultRows())
	opts = append([]Option{WithLogger(log.Discard())}, opts...)
	return New(backend, opts...), backend
}

func draft(date, desc, amount, cat, typ string) core.Draft {
	return core.Draft{Date: date, Description: desc, Amount: amount, Category: cat, Type: typ}
}

func mustAdd(t *testing.T, s *Store, d core.Draft) core.Transaction {
	t.Helper()
	tx, err := s.Add(context.Background(), d)
	if err != nil {
		t.Fatalf("add %+v: %v", d, err)
	}
	return tx
}

func ids(snap core.Snapshot) []int {
	out := make([]int, len(snap.Transactions))
	for i, tx := range snap.Transactions {
		out[i] = tx.ID
	}
	return out
}

func TestPaycheckScenario(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	tx := mustAdd(t, s, draft("2024-01-10", "Paycheck", "3000", "Salary", "entrada"))
	if tx.ID != 1 || tx.UID == "" {
		t.Fatalf("unexpected transaction %+v", tx)
	}

	snap, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(snap.Transactions) != 1 || snap.Transactions[0].ID != 1 {
		t.Fatalf("unexpected ledger %+v", snap.Transactions)
	}
	got := report.MonthlyTotals(snap.Transactions, 2024, 1)
	if got.Income.Cents != 300000 || got.Expense.Cents != 0 || got.Balance.Cents != 300000 {
		t.Fatalf("unexpected totals %+v", got)
	}
}

func TestAddProducesContiguousIDs(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	const n = 6
	for i := 0; i < n; i++ {
		tx := mustAdd(t, s, draft("2024-02-01", fmt.Sprintf("item %d", i), "1.50", "Food", "saida"))
		if tx.ID != i+1 {
			t.Fatalf("add %d got id %d", i, tx.ID)
		}
	}
	snap, _ := s.Load(ctx)
	if !reflect.DeepEqual(ids(snap), []int{1, 2, 3, 4, 5, 6}) {
		t.Fatalf("unexpected ids %v", ids(snap))
	}
	for i, tx := range snap.Transactions {
		if tx.Description != fmt.Sprintf("item %d", i) {
			t.Fatalf("insertion order lost at %d", i)
		}
	}
}

func TestSaveRenumbersNonContiguousIDs(t *testing.T) {
	ctx := context.Background()
	s, backend := newStore(t)
	legacy := core.Snapshot{Transactions: []core.Transaction{
		{ID: 7, UID: "a", Date: core.NewDate(2024, 1, 1), Description: "a", Amount: core.Money{Cents: 1}, Category: "Food", Type: core.Expense},
		{ID: 3, UID: "b", Date: core.NewDate(2024, 1, 2), Description: "b", Amount: core.Money{Cents: 1}, Category: "Food", Type: core.Expense},
	}}
	if err := backend.Write(ctx, legacy); err != nil {
		t.Fatal(err)
	}

	// max id is 7, so the new row is appended as 8 and renumbered to 3.
	tx := mustAdd(t, s, draft("2024-01-03", "c", "1", "Food", "saida"))
	if tx.ID != 3 {
		t.Fatalf("expected renumbered id 3, got %d", tx.ID)
	}
	snap, _ := s.Load(ctx)
	if !reflect.DeepEqual(ids(snap), []int{1, 2, 3}) {
		t.Fatalf("unexpected ids %v", ids(snap))
	}
	if legacy.Transactions[0].ID != 7 {
		t.Fatalf("Save mutated the caller's snapshot")
	}
}

func TestAddValidation(t *testing.T) {
	ctx := context.Background()
	s, backend := newStore(t)
	cases := map[string]core.Draft{
		"description": draft("2024-01-01", "  ", "1", "Food", "saida"),
		"amount":      draft("2024-01-01", "x", "0", "Food", "saida"),
		"date":        draft("not a date", "x", "1", "Food", "saida"),
		"type":        draft("2024-01-01", "x", "1", "Food", "transfer"),
		"category":    draft("2024-01-01", "x", "1", "Salary", "saida"),
	}
	for field, d := range cases {
		_, err := s.Add(ctx, d)
		var ve *core.ValidationError
		if !errors.As(err, &ve) || ve.Field != field {
			t.Fatalf("%s: expected validation error, got %v", field, err)
		}
	}
	if backend.Writes() != 0 {
		t.Fatalf("rejected adds must not write, got %d writes", backend.Writes())
	}
}

func TestAddUsesDefaultCategoriesOnlyWhenTypeIsEmpty(t *testing.T) {
	ctx := context.Background()
	backend := memory.New([]core.Category{{Type: core.Expense, Name: "Rent"}})
	s := New(backend, WithLogger(log.Discard()))

	if _, err := s.Add(ctx, draft("2024-01-01", "x", "1", "Food", "saida")); !errors.Is(err, core.ErrUnknownCategory) {
		t.Fatalf("expected unknown category, got %v", err)
	}
	mustAdd(t, s, draft("2024-01-01", "x", "1", "Rent", "saida"))
	mustAdd(t, s, draft("2024-01-01", "x", "1", "Salary", "entrada"))

	snap, _ := s.Load(ctx)
	if len(snap.Categories) != 1 {
		t.Fatalf("defaults must never be persisted, got %+v", snap.Categories)
	}
}

func TestEditReplacesWholeRecord(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	orig := mustAdd(t, s, draft("2024-01-10", "Groceries", "45", "Food", "saida"))

	got, err := s.Edit(ctx, 1, draft("2024-01-11", "Refund", "10", "Other", "entrada"))
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if got.ID != 1 || got.UID != orig.UID || got.Type != core.Income || got.Category != "Other" || got.Amount.Cents != 1000 {
		t.Fatalf("unexpected edited record %+v", got)
	}
	snap, _ := s.Load(ctx)
	if snap.Transactions[0] != got {
		t.Fatalf("stored record differs: %+v", snap.Transactions[0])
	}
}

func TestEditNotFoundLeavesLedgerUnchanged(t *testing.T) {
	ctx := context.Background()
	s, backend := newStore(t)
	mustAdd(t, s, draft("2024-01-10", "a", "1", "Food", "saida"))
	before, _ := s.Load(ctx)
	writes := backend.Writes()

	// an invalid draft still reports not found: lookup happens first
	_, err := s.Edit(ctx, 42, draft("", "", "", "", ""))
	var nf *core.NotFoundError
	if !errors.As(err, &nf) || nf.ID != 42 {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	after, _ := s.Load(ctx)
	if !reflect.DeepEqual(before, after) || backend.Writes() != writes {
		t.Fatalf("ledger changed after failed edit")
	}
}

func TestEditValidation(t *testing.T) {
	ctx := context.Background()
	s, backend := newStore(t)
	mustAdd(t, s, draft("2024-01-10", "a", "1", "Food", "saida"))
	writes := backend.Writes()

	_, err := s.Edit(ctx, 1, draft("2024-01-10", "a", "-5", "Food", "saida"))
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if backend.Writes() != writes {
		t.Fatalf("rejected edit must not write")
	}
}

func TestDeleteNotFoundKeepsCount(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	mustAdd(t, s, draft("2024-01-10", "a", "1", "Food", "saida"))

	if err := s.Delete(ctx, 5); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	snap, _ := s.Load(ctx)
	if len(snap.Transactions) != 1 {
		t.Fatalf("expected count 1, got %d", len(snap.Transactions))
	}
}

func TestDeleteRenumbersAndShiftsIDs(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	mustAdd(t, s, draft("2024-01-01", "income", "1000", "Salary", "entrada"))
	second := mustAdd(t, s, draft("2024-01-02", "expense", "400", "Food", "saida"))

	if err := s.Delete(ctx, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	snap, _ := s.Load(ctx)
	if len(snap.Transactions) != 1 || snap.Transactions[0].ID != 1 || snap.Transactions[0].UID != second.UID {
		t.Fatalf("expected former id 2 at id 1, got %+v", snap.Transactions)
	}

	// id 1 now names the record that used to be id 2.
	edited, err := s.Edit(ctx, 1, draft("2024-01-02", "expense edited", "400", "Food", "saida"))
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if edited.UID != second.UID {
		t.Fatalf("edit targeted the wrong record")
	}
	byUID, err := s.FindByUID(ctx, second.UID)
	if err != nil || byUID.Description != "expense edited" {
		t.Fatalf("FindByUID: %+v (err=%v)", byUID, err)
	}
}

func TestFindByUIDNotFound(t *testing.T) {
	s, _ := newStore(t)
	_, err := s.FindByUID(context.Background(), "missing")
	var nf *core.NotFoundError
	if !errors.As(err, &nf) || nf.UID != "missing" {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestLoadFailureReturnsEmptySnapshot(t *testing.T) {
	ctx := context.Background()
	s, backend := newStore(t)
	mustAdd(t, s, draft("2024-01-10", "a", "1", "Food", "saida"))
	backend.FailReads(errors.New("corrupt workbook"))

	snap, err := s.Load(ctx)
	if !errors.Is(err, core.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if snap.Transactions == nil || len(snap.Transactions) != 0 || len(snap.Categories) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}

	// mutations refuse to overwrite an unreadable ledger
	writes := backend.Writes()
	if _, err := s.Add(ctx, draft("2024-01-10", "b", "1", "Food", "saida")); !errors.Is(err, core.ErrPersistence) {
		t.Fatalf("expected add to fail with persistence error, got %v", err)
	}
	if err := s.Delete(ctx, 1); !errors.Is(err, core.ErrPersistence) {
		t.Fatalf("expected delete to fail with persistence error, got %v", err)
	}
	if backend.Writes() != writes {
		t.Fatalf("unreadable ledger was overwritten")
	}

	reg, err := s.Registry(ctx)
	if err == nil || !reg.IsValid(core.Expense, "Food") {
		t.Fatalf("registry should fall back to defaults on load failure")
	}
}

func TestWriteFailureLeavesLedgerUnchanged(t *testing.T) {
	ctx := context.Background()
	n := &fakeNotifier{}
	s, backend := newStore(t, WithNotifier(n))
	mustAdd(t, s, draft("2024-01-10", "a", "1", "Food", "saida"))
	before, _ := s.Load(ctx)

	backend.FailWrites(errors.New("disk full"))
	_, err := s.Add(ctx, draft("2024-01-11", "b", "2", "Food", "saida"))
	var pe *core.PersistenceError
	if !errors.As(err, &pe) || pe.Op != log.OpSave {
		t.Fatalf("expected save persistence error, got %v", err)
	}
	if err := s.Delete(ctx, 1); !errors.Is(err, core.ErrPersistence) {
		t.Fatalf("expected delete persistence error, got %v", err)
	}

	backend.FailWrites(nil)
	after, _ := s.Load(ctx)
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("failed writes changed the ledger")
	}
	if len(n.ops) != 1 {
		t.Fatalf("only the successful add should notify, got %v", n.ops)
	}
}

func TestNotifierFailureDoesNotFailMutation(t *testing.T) {
	n := &fakeNotifier{err: errors.New("broker down")}
	s, _ := newStore(t, WithNotifier(n))
	mustAdd(t, s, draft("2024-01-10", "a", "1", "Food", "saida"))
	if err := s.Delete(context.Background(), 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !reflect.DeepEqual(n.ops, []string{"add:1", "delete:0"}) {
		t.Fatalf("unexpected notifications %v", n.ops)
	}
}

func TestLastSaveWins(t *testing.T) {
	ctx := context.Background()
	backend := memory.New(categories.DefaultRows())
	a := New(backend, WithLogger(log.Discard()))
	b := New(backend, WithLogger(log.Discard()))

	// Two callers load the same empty ledger and mutate independently.
	snapA, _ := a.Load(ctx)
	snapB, _ := b.Load(ctx)
	snapA.Transactions = append(snapA.Transactions, core.Transaction{
		UID: "from-a", Date: core.NewDate(2024, 1, 1), Description: "a", Amount: core.Money{Cents: 100}, Category: "Food", Type: core.Expense,
	})
	snapB.Transactions = append(snapB.Transactions, core.Transaction{
		UID: "from-b", Date: core.NewDate(2024, 1, 2), Description: "b", Amount: core.Money{Cents: 200}, Category: "Food", Type: core.Expense,
	})
	if _, err := a.Save(ctx, snapA); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Save(ctx, snapB); err != nil {
		t.Fatal(err)
	}

	final, _ := a.Load(ctx)
	if len(final.Transactions) != 1 || final.Transactions[0].UID != "from-b" {
		t.Fatalf("expected only b's write to survive, got %+v", final.Transactions)
	}
}
