package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Dataset struct {
	ID       int64
	Name     string
	Source   string
	RowCount int64
	LoadedAt string
}

type Transaction struct {
	Position    int64
	TxDate      string
	Description string
	Category    string
	AmountCents int64
	Label       string
}

const createDataset = `
INSERT INTO datasets (name, source, row_count, loaded_at)
VALUES (?, ?, ?, ?)
RETURNING id
`

type CreateDatasetParams struct {
	Name     string
	Source   string
	RowCount int64
	LoadedAt string
}

func (q *Queries) CreateDataset(ctx context.Context, arg CreateDatasetParams) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, createDataset, arg.Name, arg.Source, arg.RowCount, arg.LoadedAt).Scan(&id)
	return id, err
}

const insertTransaction = `
INSERT INTO transactions (dataset_id, position, tx_date, description, category, amount_cents, label)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

type InsertTransactionParams struct {
	DatasetID   int64
	Position    int64
	TxDate      string
	Description string
	Category    string
	AmountCents int64
	Label       string
}

func (q *Queries) InsertTransaction(ctx context.Context, arg InsertTransactionParams) error {
	_, err := q.db.ExecContext(ctx, insertTransaction,
		arg.DatasetID, arg.Position, arg.TxDate, arg.Description, arg.Category, arg.AmountCents, arg.Label)
	return err
}

const getDataset = `
SELECT id, name, source, row_count, loaded_at FROM datasets WHERE id = ?
`

func (q *Queries) GetDataset(ctx context.Context, id int64) (Dataset, error) {
	var d Dataset
	err := q.db.QueryRowContext(ctx, getDataset, id).Scan(&d.ID, &d.Name, &d.Source, &d.RowCount, &d.LoadedAt)
	return d, err
}

const getLatestDataset = `
SELECT id, name, source, row_count, loaded_at FROM datasets ORDER BY id DESC LIMIT 1
`

func (q *Queries) GetLatestDataset(ctx context.Context) (Dataset, error) {
	var d Dataset
	err := q.db.QueryRowContext(ctx, getLatestDataset).Scan(&d.ID, &d.Name, &d.Source, &d.RowCount, &d.LoadedAt)
	return d, err
}

const listDatasets = `
SELECT id, name, source, row_count, loaded_at FROM datasets ORDER BY id DESC LIMIT ?
`

func (q *Queries) ListDatasets(ctx context.Context, limit int64) ([]Dataset, error) {
	rows, err := q.db.QueryContext(ctx, listDatasets, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Dataset
	for rows.Next() {
		var d Dataset
		if err := rows.Scan(&d.ID, &d.Name, &d.Source, &d.RowCount, &d.LoadedAt); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

const listTransactions = `
SELECT position, tx_date, description, category, amount_cents, label
FROM transactions WHERE dataset_id = ? ORDER BY position
`

func (q *Queries) ListTransactions(ctx context.Context, datasetID int64) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions, datasetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.Position, &t.TxDate, &t.Description, &t.Category, &t.AmountCents, &t.Label); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

const pruneTransactions = `
DELETE FROM transactions WHERE dataset_id NOT IN (SELECT id FROM datasets ORDER BY id DESC LIMIT ?)
`

const pruneDatasets = `
DELETE FROM datasets WHERE id NOT IN (SELECT id FROM datasets ORDER BY id DESC LIMIT ?)
`

// PruneDatasets keeps only the newest keep datasets and their rows, and
// returns the number of datasets removed.
func (q *Queries) PruneDatasets(ctx context.Context, keep int64) (int64, error) {
	if _, err := q.db.ExecContext(ctx, pruneTransactions, keep); err != nil {
		return 0, err
	}
	res, err := q.db.ExecContext(ctx, pruneDatasets, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
