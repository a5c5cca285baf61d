package sheets

import (
	"context"
	"errors"

	"findash/internal/core"
)

var ErrDatasetNotFound = errors.New("dataset not found")

// Ports for outbound adapters.
type (
	// DatasetStore keeps loaded datasets so the latest one survives restarts.
	DatasetStore interface {
		// SaveDataset persists ds and returns its assigned ID.
		SaveDataset(ctx context.Context, ds *core.Dataset) (int64, error)
		// LatestDataset returns the most recently saved dataset or ErrDatasetNotFound.
		LatestDataset(ctx context.Context) (*core.Dataset, error)
		GetDataset(ctx context.Context, id int64) (*core.Dataset, error)
		// ListDatasets returns up to limit datasets, newest first.
		ListDatasets(ctx context.Context, limit int) ([]core.DatasetMeta, error)
	}

	// TransactionSource yields raw transaction records: a header row and the
	// data rows beneath it.
	TransactionSource interface {
		ReadRecords(ctx context.Context) (header []string, rows [][]string, err error)
	}

	// SummaryWriter publishes a yearly income/expense summary somewhere a
	// human can read it.
	SummaryWriter interface {
		WriteYearSummary(ctx context.Context, s core.YearSummary) (ref string, err error)
	}
)
