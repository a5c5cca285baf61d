package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"findash/internal/core"
	"findash/internal/log"
	"findash/internal/sheets"
)

const dateLayout = "2006-01-02"

// SQLiteRepository persists datasets and their transactions.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	keep    int64
	logger  *log.Logger
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath,
// applies migrations and keeps at most keep datasets (0 keeps all).
func NewSQLiteRepository(dbPath string, keep int, logger *log.Logger) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		keep:    int64(keep),
		logger:  logger.WithComponent(log.ComponentStorage),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// SaveDataset implements sheets.DatasetStore. The dataset and its rows are
// written in one transaction.
func (r *SQLiteRepository) SaveDataset(ctx context.Context, ds *core.Dataset) (int64, error) {
	if ds == nil {
		return 0, core.ErrEmptyDataset
	}
	loadedAt := ds.LoadedAt
	if loadedAt.IsZero() {
		loadedAt = time.Now()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	id, err := q.CreateDataset(ctx, CreateDatasetParams{
		Name:     ds.Name,
		Source:   ds.Source,
		RowCount: int64(ds.Len()),
		LoadedAt: loadedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return 0, fmt.Errorf("create dataset: %w", err)
	}

	for i, t := range ds.Transactions {
		err := q.InsertTransaction(ctx, InsertTransactionParams{
			DatasetID:   id,
			Position:    int64(i),
			TxDate:      t.Date.Format(dateLayout),
			Description: t.Description,
			Category:    t.Category,
			AmountCents: t.Amount.Cents,
			Label:       t.Label.String(),
		})
		if err != nil {
			return 0, fmt.Errorf("insert transaction %d: %w", i, err)
		}
	}

	if r.keep > 0 {
		pruned, err := q.PruneDatasets(ctx, r.keep)
		if err != nil {
			return 0, fmt.Errorf("prune datasets: %w", err)
		}
		if pruned > 0 {
			r.logger.DebugContext(ctx, "Old datasets pruned", "pruned", pruned)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit dataset: %w", err)
	}

	r.logger.InfoContext(ctx, "Dataset saved to SQLite",
		log.NewFields().WithDataset(id, ds.Name, ds.Source, ds.Len()).ToSlice()...)
	return id, nil
}

// LatestDataset implements sheets.DatasetStore
func (r *SQLiteRepository) LatestDataset(ctx context.Context) (*core.Dataset, error) {
	row, err := r.queries.GetLatestDataset(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sheets.ErrDatasetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get latest dataset: %w", err)
	}
	return r.hydrate(ctx, row)
}

// GetDataset implements sheets.DatasetStore
func (r *SQLiteRepository) GetDataset(ctx context.Context, id int64) (*core.Dataset, error) {
	row, err := r.queries.GetDataset(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("dataset %d: %w", id, sheets.ErrDatasetNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get dataset %d: %w", id, err)
	}
	return r.hydrate(ctx, row)
}

// ListDatasets implements sheets.DatasetStore
func (r *SQLiteRepository) ListDatasets(ctx context.Context, limit int) ([]core.DatasetMeta, error) {
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}
	rows, err := r.queries.ListDatasets(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	out := make([]core.DatasetMeta, 0, len(rows))
	for _, d := range rows {
		out = append(out, core.DatasetMeta{
			ID:       d.ID,
			Name:     d.Name,
			Source:   d.Source,
			Rows:     int(d.RowCount),
			LoadedAt: parseTime(d.LoadedAt),
		})
	}
	return out, nil
}

func (r *SQLiteRepository) hydrate(ctx context.Context, d Dataset) (*core.Dataset, error) {
	rows, err := r.queries.ListTransactions(ctx, d.ID)
	if err != nil {
		return nil, fmt.Errorf("list transactions of dataset %d: %w", d.ID, err)
	}
	txs := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		date, err := time.Parse(dateLayout, row.TxDate)
		if err != nil {
			return nil, fmt.Errorf("dataset %d position %d: bad date %q: %w", d.ID, row.Position, row.TxDate, err)
		}
		label, err := core.ParseLabel(row.Label)
		if err != nil {
			return nil, fmt.Errorf("dataset %d position %d: %w", d.ID, row.Position, err)
		}
		txs = append(txs, core.Transaction{
			Date:        core.Date{Time: date},
			Description: row.Description,
			Category:    row.Category,
			Amount:      core.Money{Cents: row.AmountCents},
			Label:       label,
		})
	}
	return &core.Dataset{
		ID:           d.ID,
		Name:         d.Name,
		Source:       d.Source,
		LoadedAt:     parseTime(d.LoadedAt),
		Transactions: txs,
	}, nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
