package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"findash/internal/amqp"
	"findash/internal/analytics"
	"findash/internal/core"
	"findash/internal/log"
	"findash/internal/sheets"
)

// ExportWorker writes per-year summaries of stored datasets to a summary
// sheet.
type ExportWorker struct {
	store       sheets.DatasetStore
	writer      sheets.SummaryWriter
	concurrency int
	logger      *log.Logger

	lastExported atomic.Int64
}

func NewExportWorker(store sheets.DatasetStore, writer sheets.SummaryWriter, concurrency int, logger *log.Logger) *ExportWorker {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &ExportWorker{
		store:       store,
		writer:      writer,
		concurrency: concurrency,
		logger:      logger.WithComponent(log.ComponentWorker),
	}
}

// HandleDatasetReplaced processes one dataset-replaced message. Returning an
// error requeues the message.
func (w *ExportWorker) HandleDatasetReplaced(ctx context.Context, msg *amqp.DatasetReplacedMessage) error {
	w.logger.InfoContext(ctx, "Processing dataset replaced message",
		log.FieldMessageID, msg.MessageID,
		log.FieldDatasetID, msg.DatasetID,
		log.FieldRows, msg.Rows)

	ds, err := w.store.GetDataset(ctx, msg.DatasetID)
	if errors.Is(err, sheets.ErrDatasetNotFound) {
		// Pruned before we got to it; a newer message will follow.
		w.logger.WarnContext(ctx, "Dataset no longer stored, skipping export", log.FieldDatasetID, msg.DatasetID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get dataset %d: %w", msg.DatasetID, err)
	}

	_, err = w.Export(ctx, ds)
	return err
}

// Export writes one summary per year of ds, up to concurrency at a time,
// and returns the written references in year order.
func (w *ExportWorker) Export(ctx context.Context, ds *core.Dataset) ([]string, error) {
	summaries := analytics.YearSummaries(ds.Transactions)
	refs := make([]string, len(summaries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for i, s := range summaries {
		g.Go(func() error {
			ref, err := w.writer.WriteYearSummary(gctx, s)
			if err != nil {
				return fmt.Errorf("write %d summary: %w", s.Totals.Year, err)
			}
			refs[i] = ref
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		w.logger.ErrorContext(ctx, "Summary export failed",
			log.FieldError, err, log.FieldDatasetID, ds.ID, log.FieldOperation, log.OpExport)
		return nil, err
	}

	w.lastExported.Store(ds.ID)
	w.logger.InfoContext(ctx, "Summary export completed",
		log.FieldDatasetID, ds.ID,
		log.FieldDatasetName, ds.Name,
		"years", len(summaries),
		log.FieldOperation, log.OpExport)
	return refs, nil
}

// StartupExport exports the latest stored dataset so a worker that was down
// while uploads happened catches up.
func (w *ExportWorker) StartupExport(ctx context.Context) error {
	ds, err := w.store.LatestDataset(ctx)
	if errors.Is(err, sheets.ErrDatasetNotFound) {
		w.logger.InfoContext(ctx, "No stored dataset found on startup")
		return nil
	}
	if err != nil {
		return fmt.Errorf("get latest dataset: %w", err)
	}
	if ds.ID == w.lastExported.Load() {
		return nil
	}
	_, err = w.Export(ctx, ds)
	return err
}

// LastExported returns the ID of the last dataset exported successfully.
func (w *ExportWorker) LastExported() int64 {
	return w.lastExported.Load()
}
