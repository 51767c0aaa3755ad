package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"finance/internal/core"
	ports "finance/internal/sheets"

	_ "modernc.org/sqlite"
)

var (
	_ ports.Backend = (*SQLiteRepository)(nil)
	_ ports.Pinger  = (*SQLiteRepository)(nil)
)

// SQLiteRepository stores the ledger in a SQLite database. Write replaces
// both tables inside one SQL transaction.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; SQLite serialises writes anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Init writes the seed categories the first time the database is used. It
// reports whether seeding happened.
func (r *SQLiteRepository) Init(ctx context.Context, seed []core.Category) (bool, error) {
	var seeded bool
	err := r.inTx(ctx, func(q *Queries) error {
		first, err := q.MarkSeeded(ctx, time.Now().UTC().Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("mark seeded: %w", err)
		}
		if !first {
			return nil
		}
		seeded = true
		return insertCategories(ctx, q, seed)
	})
	if err != nil {
		return false, err
	}
	if seeded {
		slog.InfoContext(ctx, "Seeded ledger categories", "count", len(seed))
	}
	return seeded, nil
}

// Read implements sheets.SnapshotReader
func (r *SQLiteRepository) Read(ctx context.Context) (core.Snapshot, error) {
	rows, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("list transactions: %w", err)
	}
	txs := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		tx, err := toDomain(row)
		if err != nil {
			return core.Snapshot{}, fmt.Errorf("transaction at position %d: %w", row.Position, err)
		}
		txs = append(txs, tx)
	}

	catRows, err := r.queries.ListCategories(ctx)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("list categories: %w", err)
	}
	cats := make([]core.Category, 0, len(catRows))
	for _, row := range catRows {
		typ, err := core.ParseTransactionType(row.Type)
		if err != nil {
			return core.Snapshot{}, fmt.Errorf("category %q: %w", row.Category, err)
		}
		cats = append(cats, core.Category{Type: typ, Name: row.Category})
	}
	return core.Snapshot{Transactions: txs, Categories: cats}, nil
}

// Write implements sheets.SnapshotWriter
func (r *SQLiteRepository) Write(ctx context.Context, s core.Snapshot) error {
	return r.inTx(ctx, func(q *Queries) error {
		if err := q.DeleteTransactions(ctx); err != nil {
			return fmt.Errorf("clear transactions: %w", err)
		}
		if err := q.DeleteCategories(ctx); err != nil {
			return fmt.Errorf("clear categories: %w", err)
		}
		for i, tx := range s.Transactions {
			if err := q.InsertTransaction(ctx, fromDomain(i+1, tx)); err != nil {
				return fmt.Errorf("insert transaction %d: %w", tx.ID, err)
			}
		}
		return insertCategories(ctx, q, s.Categories)
	})
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(*Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func insertCategories(ctx context.Context, q *Queries, cats []core.Category) error {
	for i, c := range cats {
		if err := q.InsertCategory(ctx, Category{Position: int64(i + 1), Type: string(c.Type), Category: c.Name}); err != nil {
			return fmt.Errorf("insert category %s/%s: %w", c.Type, c.Name, err)
		}
	}
	return nil
}

func fromDomain(position int, tx core.Transaction) Transaction {
	return Transaction{
		Position:    int64(position),
		ID:          int64(tx.ID),
		UID:         tx.UID,
		Date:        tx.Date.String(),
		Description: tx.Description,
		AmountCents: tx.Amount.Cents,
		Category:    tx.Category,
		Type:        string(tx.Type),
	}
}

func toDomain(row Transaction) (core.Transaction, error) {
	date, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	typ, err := core.ParseTransactionType(row.Type)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:          int(row.ID),
		UID:         row.UID,
		Date:        date,
		Description: row.Description,
		Amount:      core.Money{Cents: row.AmountCents},
		Category:    row.Category,
		Type:        typ,
	}, nil
}
