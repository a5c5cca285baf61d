package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"findash/internal/amqp"
	"findash/internal/analytics"
	"findash/internal/core"
	"findash/internal/dashboard"
	"findash/internal/ledger"
	"findash/internal/log"
	"findash/internal/sheets"
)

// Publisher announces dataset replacements to other processes.
type Publisher interface {
	PublishDatasetReplaced(ctx context.Context, msg *amqp.DatasetReplacedMessage) error
}

// DatasetService orchestrates dataset loading across the loader, the
// dataset store, the dashboard controller and the event publisher.
type DatasetService struct {
	controller *dashboard.Controller
	loader     *ledger.Loader
	store      sheets.DatasetStore
	source     sheets.TransactionSource
	publisher  Publisher
	dataFile   string
	logger     *log.Logger
	ready      atomic.Bool
}

// Option configures a DatasetService.
type Option func(*DatasetService)

// WithSource reads the initial dataset from a spreadsheet instead of DATA_FILE.
func WithSource(src sheets.TransactionSource) Option {
	return func(s *DatasetService) { s.source = src }
}

// WithDataFile sets the CSV/XLSX file used when no dataset is stored.
func WithDataFile(path string) Option {
	return func(s *DatasetService) { s.dataFile = path }
}

// WithPublisher enables dataset-replaced events.
func WithPublisher(p Publisher) Option {
	return func(s *DatasetService) { s.publisher = p }
}

func NewDatasetService(controller *dashboard.Controller, loader *ledger.Loader, store sheets.DatasetStore, logger *log.Logger, opts ...Option) *DatasetService {
	if logger == nil {
		logger = log.Discard()
	}
	s := &DatasetService{
		controller: controller,
		loader:     loader,
		store:      store,
		logger:     logger.WithComponent(log.ComponentLedger),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// LoadInitial installs the startup dataset: the latest stored one, else the
// spreadsheet source when configured, else the data file. Failing to load
// any of them is an error.
func (s *DatasetService) LoadInitial(ctx context.Context) (dashboard.View, error) {
	view, err := s.controller.Reload(ctx, s.loadInitial)
	if err != nil {
		return view, err
	}
	s.ready.Store(true)
	return view, nil
}

func (s *DatasetService) loadInitial(ctx context.Context) (*core.Dataset, error) {
	if s.store != nil {
		ds, err := s.store.LatestDataset(ctx)
		switch {
		case err == nil:
			s.logger.InfoContext(ctx, "Restored latest stored dataset",
				log.NewFields().WithDataset(ds.ID, ds.Name, ds.Source, ds.Len()).ToSlice()...)
			return ds, nil
		case !errors.Is(err, sheets.ErrDatasetNotFound):
			s.logger.WarnContext(ctx, "Failed to read stored dataset, falling back", log.FieldError, err)
		}
	}

	var (
		ds  *core.Dataset
		err error
	)
	if s.source != nil {
		ds, err = s.loadFromSource(ctx)
	} else {
		ds, err = s.loader.LoadFile(s.dataFile)
	}
	if err != nil {
		return nil, err
	}
	s.save(ctx, ds)
	return ds, nil
}

func (s *DatasetService) loadFromSource(ctx context.Context) (*core.Dataset, error) {
	header, rows, err := s.source.ReadRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("read spreadsheet: %w", err)
	}
	if len(header) == 0 {
		return nil, ledger.ErrEmptyFile
	}
	txs, err := s.loader.FromRecords(header, rows)
	if err != nil {
		return nil, err
	}
	return core.NewDataset("Google Sheets", ledger.SourceSheets, txs), nil
}

// save stores ds and records the assigned ID. The dashboard still works
// from memory when the store rejects the dataset.
func (s *DatasetService) save(ctx context.Context, ds *core.Dataset) {
	if s.store == nil {
		return
	}
	id, err := s.store.SaveDataset(ctx, ds)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to store dataset", log.FieldError, err, log.FieldDatasetName, ds.Name)
		return
	}
	ds.ID = id
}

// Upload parses u and, when it yields a valid dataset, stores it and makes
// it the active dataset. Invalid uploads return a *ledger.UploadError and
// leave the dashboard unchanged.
func (s *DatasetService) Upload(ctx context.Context, u ledger.Upload) (dashboard.View, error) {
	var loaded *core.Dataset
	view, err := s.controller.Reload(ctx, func(ctx context.Context) (*core.Dataset, error) {
		ds, err := s.loader.LoadUpload(u)
		if err != nil {
			return nil, err
		}
		if s.store != nil {
			id, err := s.store.SaveDataset(ctx, ds)
			if err != nil {
				return nil, fmt.Errorf("save dataset: %w", err)
			}
			ds.ID = id
		}
		loaded = ds
		return ds, nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "Upload rejected",
			log.FieldFilename, u.Filename, log.FieldError, err, log.FieldOperation, log.OpUpload)
		return dashboard.View{}, err
	}

	s.logger.InfoContext(ctx, "Upload accepted",
		log.NewFields().WithDataset(loaded.ID, loaded.Name, loaded.Source, loaded.Len()).
			WithOperation(log.OpUpload).ToSlice()...)
	s.publish(ctx, loaded)
	return view, nil
}

func (s *DatasetService) publish(ctx context.Context, ds *core.Dataset) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP publisher not configured, skipping dataset event")
		return
	}
	msg := amqp.NewDatasetReplacedMessage(ds.ID, ds.Name, ds.Source, ds.Len(), analytics.Years(ds.Transactions))
	if err := s.publisher.PublishDatasetReplaced(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish dataset replaced message",
			log.FieldError, err, log.FieldDatasetID, ds.ID, log.FieldOperation, log.OpPublish)
	}
}

// History lists the most recently stored datasets, newest first.
func (s *DatasetService) History(ctx context.Context, limit int) ([]core.DatasetMeta, error) {
	if s.store == nil {
		return nil, nil
	}
	metas, err := s.store.ListDatasets(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	return metas, nil
}

// Ready reports whether an initial dataset has been installed.
func (s *DatasetService) Ready() bool {
	return s.ready.Load()
}
