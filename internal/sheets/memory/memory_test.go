package memory

import (
	"context"
	"errors"
	"testing"

	"findash/internal/core"
	"findash/internal/sheets"
)

func dataset(name string, n int) *core.Dataset {
	txs := make([]core.Transaction, n)
	for i := range txs {
		txs[i] = core.Transaction{Date: core.NewDate(2024, 1, i+1), Description: "t", Label: core.Expense, Amount: core.Money{Cents: 100}}
	}
	return core.NewDataset(name, "upload", txs)
}

func TestMemoryStoreSaveAndLatest(t *testing.T) {
	s := New(2)
	ctx := context.Background()

	if _, err := s.LatestDataset(ctx); !errors.Is(err, sheets.ErrDatasetNotFound) {
		t.Fatalf("expected ErrDatasetNotFound, got %v", err)
	}

	in := dataset("a.csv", 2)
	id1, err := s.SaveDataset(ctx, in)
	if err != nil || id1 != 1 {
		t.Fatalf("unexpected save: id=%d err=%v", id1, err)
	}
	if in.ID != 0 {
		t.Fatalf("input dataset must not be modified")
	}
	id2, _ := s.SaveDataset(ctx, dataset("b.csv", 3))
	_, _ = s.SaveDataset(ctx, dataset("c.csv", 1))

	latest, err := s.LatestDataset(ctx)
	if err != nil || latest.Name != "c.csv" || latest.ID != 3 {
		t.Fatalf("unexpected latest: %+v err=%v", latest, err)
	}
	if _, err := s.GetDataset(ctx, id1); !errors.Is(err, sheets.ErrDatasetNotFound) {
		t.Fatalf("oldest dataset should be evicted, got %v", err)
	}
	got, err := s.GetDataset(ctx, id2)
	if err != nil || got.Len() != 3 {
		t.Fatalf("unexpected get: %+v err=%v", got, err)
	}

	metas, _ := s.ListDatasets(ctx, 0)
	if len(metas) != 2 || metas[0].Name != "c.csv" || metas[1].Rows != 3 {
		t.Fatalf("unexpected list: %+v", metas)
	}
	metas, _ = s.ListDatasets(ctx, 1)
	if len(metas) != 1 {
		t.Fatalf("limit not applied: %+v", metas)
	}
}

func TestMemoryStoreSummaries(t *testing.T) {
	s := New(1)
	ctx := context.Background()
	for _, y := range []int{2024, 2023, 2024} {
		ref, err := s.WriteYearSummary(ctx, core.YearSummary{Totals: core.YearTotals{Year: y}})
		if err != nil || ref == "" {
			t.Fatalf("unexpected write: ref=%q err=%v", ref, err)
		}
	}
	sums := s.Summaries()
	if len(sums) != 2 || sums[0].Totals.Year != 2023 {
		t.Fatalf("unexpected summaries: %+v", sums)
	}
}
