package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"findash/internal/core"
	"findash/internal/log"
	"findash/internal/sheets"
)

func newTestRepo(t *testing.T, keep int) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "findash.db"), keep, log.Discard())
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sampleDataset(name string) *core.Dataset {
	ds := core.NewDataset(name, "upload", []core.Transaction{
		{Date: core.NewDate(2024, 1, 5), Description: "Salary", Amount: core.Money{Cents: 100000}, Label: core.Income},
		{Date: core.NewDate(2024, 1, 10), Description: "Groceries", Category: "Food", Amount: core.Money{Cents: 20050}, Label: core.Expense},
	})
	ds.LoadedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return ds
}

func TestSaveAndLoadDataset(t *testing.T) {
	repo := newTestRepo(t, 0)
	ctx := context.Background()

	if _, err := repo.LatestDataset(ctx); !errors.Is(err, sheets.ErrDatasetNotFound) {
		t.Fatalf("expected ErrDatasetNotFound on empty db, got %v", err)
	}

	id, err := repo.SaveDataset(ctx, sampleDataset("jan.csv"))
	if err != nil || id == 0 {
		t.Fatalf("save: id=%d err=%v", id, err)
	}

	got, err := repo.LatestDataset(ctx)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got.ID != id || got.Name != "jan.csv" || got.Source != "upload" || got.Len() != 2 {
		t.Fatalf("unexpected dataset: %+v", got)
	}
	if !got.LoadedAt.Equal(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("loaded_at not preserved: %v", got.LoadedAt)
	}
	first, second := got.Transactions[0], got.Transactions[1]
	if first.Category != "Salary" || first.Label != core.Income || first.Month() != 1 {
		t.Fatalf("unexpected first row: %+v", first)
	}
	if second.Amount.Cents != 20050 || second.Date.Day() != 10 {
		t.Fatalf("unexpected second row: %+v", second)
	}

	if _, err := repo.GetDataset(ctx, id+100); !errors.Is(err, sheets.ErrDatasetNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPruneKeepsNewest(t *testing.T) {
	repo := newTestRepo(t, 2)
	ctx := context.Background()

	var ids []int64
	for _, name := range []string{"a.csv", "b.csv", "c.csv"} {
		id, err := repo.SaveDataset(ctx, sampleDataset(name))
		if err != nil {
			t.Fatalf("save %s: %v", name, err)
		}
		ids = append(ids, id)
	}

	metas, err := repo.ListDatasets(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(metas) != 2 || metas[0].Name != "c.csv" || metas[1].Name != "b.csv" {
		t.Fatalf("unexpected list: %+v", metas)
	}
	if metas[0].Rows != 2 {
		t.Fatalf("expected row count 2, got %d", metas[0].Rows)
	}
	if _, err := repo.GetDataset(ctx, ids[0]); !errors.Is(err, sheets.ErrDatasetNotFound) {
		t.Fatalf("oldest dataset should be pruned, got %v", err)
	}

	var orphans int
	if err := repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE dataset_id = ?`, ids[0]).Scan(&orphans); err != nil {
		t.Fatalf("count: %v", err)
	}
	if orphans != 0 {
		t.Fatalf("expected pruned rows to be deleted, found %d", orphans)
	}

	limited, _ := repo.ListDatasets(ctx, 1)
	if len(limited) != 1 {
		t.Fatalf("limit not applied: %+v", limited)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "findash.db")
	if err := RunMigrations(path); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := RunMigrations(path); err != nil {
		t.Fatalf("second run: %v", err)
	}
}
