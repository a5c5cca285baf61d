package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"findash/internal/core"
	"findash/internal/sheets"
)

// Store keeps datasets and written summaries in process memory. Only the
// most recent maxKept datasets are retained.
type Store struct {
	mu        sync.Mutex
	maxKept   int
	nextID    int64
	datasets  []*core.Dataset
	summaries map[int]core.YearSummary
}

func New(maxKept int) *Store {
	if maxKept < 1 {
		maxKept = 1
	}
	return &Store{maxKept: maxKept, summaries: make(map[int]core.YearSummary)}
}

// SaveDataset stores a copy of ds and assigns it the next ID.
func (s *Store) SaveDataset(_ context.Context, ds *core.Dataset) (int64, error) {
	if ds == nil {
		return 0, core.ErrEmptyDataset
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	cp := *ds
	cp.ID = s.nextID
	if cp.LoadedAt.IsZero() {
		cp.LoadedAt = time.Now()
	}
	cp.Transactions = append([]core.Transaction(nil), ds.Transactions...)
	s.datasets = append(s.datasets, &cp)
	if len(s.datasets) > s.maxKept {
		s.datasets = s.datasets[len(s.datasets)-s.maxKept:]
	}
	return cp.ID, nil
}

func (s *Store) LatestDataset(_ context.Context) (*core.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.datasets) == 0 {
		return nil, sheets.ErrDatasetNotFound
	}
	return s.datasets[len(s.datasets)-1], nil
}

func (s *Store) GetDataset(_ context.Context, id int64) (*core.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ds := range s.datasets {
		if ds.ID == id {
			return ds, nil
		}
	}
	return nil, fmt.Errorf("dataset %d: %w", id, sheets.ErrDatasetNotFound)
}

func (s *Store) ListDatasets(_ context.Context, limit int) ([]core.DatasetMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.DatasetMeta, 0, len(s.datasets))
	for i := len(s.datasets) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, s.datasets[i].Meta())
	}
	return out, nil
}

// WriteYearSummary records the summary, replacing any earlier one for the year.
func (s *Store) WriteYearSummary(_ context.Context, sum core.YearSummary) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries[sum.Totals.Year] = sum
	return fmt.Sprintf("mem:%d", sum.Totals.Year), nil
}

// Summaries returns the written summaries ordered by year.
func (s *Store) Summaries() []core.YearSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.YearSummary, 0, len(s.summaries))
	for _, sum := range s.summaries {
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Totals.Year < out[j].Totals.Year })
	return out
}
