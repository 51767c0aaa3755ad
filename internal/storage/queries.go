package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Transaction struct {
	Position    int64
	ID          int64
	UID         string
	Date        string
	Description string
	AmountCents int64
	Category    string
	Type        string
}

type Category struct {
	Position int64
	Type     string
	Category string
}

const listTransactions = `SELECT position, id, uid, date, description, amount_cents, category, type
FROM transactions
ORDER BY position`

func (q *Queries) ListTransactions(ctx context.Context) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		var i Transaction
		if err := rows.Scan(&i.Position, &i.ID, &i.UID, &i.Date, &i.Description, &i.AmountCents, &i.Category, &i.Type); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listCategories = `SELECT position, type, category
FROM categories
ORDER BY position`

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		var i Category
		if err := rows.Scan(&i.Position, &i.Type, &i.Category); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteTransactions = `DELETE FROM transactions`

func (q *Queries) DeleteTransactions(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteTransactions)
	return err
}

const deleteCategories = `DELETE FROM categories`

func (q *Queries) DeleteCategories(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteCategories)
	return err
}

const insertTransaction = `INSERT INTO transactions (position, id, uid, date, description, amount_cents, category, type)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertTransaction(ctx context.Context, arg Transaction) error {
	_, err := q.db.ExecContext(ctx, insertTransaction,
		arg.Position,
		arg.ID,
		arg.UID,
		arg.Date,
		arg.Description,
		arg.AmountCents,
		arg.Category,
		arg.Type,
	)
	return err
}

const insertCategory = `INSERT OR IGNORE INTO categories (position, type, category)
VALUES (?, ?, ?)`

func (q *Queries) InsertCategory(ctx context.Context, arg Category) error {
	_, err := q.db.ExecContext(ctx, insertCategory, arg.Position, arg.Type, arg.Category)
	return err
}

const markSeeded = `INSERT OR IGNORE INTO ledger_meta (key, value) VALUES ('seeded', ?)`

// MarkSeeded records the seeding time and reports whether this call was the
// first to do so.
func (q *Queries) MarkSeeded(ctx context.Context, at string) (bool, error) {
	res, err := q.db.ExecContext(ctx, markSeeded, at)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
