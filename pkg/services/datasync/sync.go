// Package datasync refreshes the local dataset cache from the remote API.
package datasync

import (
	"context"
	"fmt"
	"time"

	"github.com/aapslab/report-atlas/pkg/adapters"
	"github.com/aapslab/report-atlas/pkg/models/store"
	"github.com/aapslab/report-atlas/pkg/services/schema"
	"github.com/aapslab/report-atlas/pkg/store/aaps"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds simultaneous downloads.
const DefaultConcurrency = 4

// Dataset addresses one remote dataset and the cache sheet it fills.
type Dataset struct {
	Workbook string
	Sheet    string
}

func (d Dataset) Path() string {
	return fmt.Sprintf("%s/%s/", d.Workbook, d.Sheet)
}

// Catalog lists every dataset the reports read.
func Catalog() []Dataset {
	ds := []Dataset{
		{store.WorkbookRegistry, store.SheetEntities},
		{store.WorkbookRegistry, store.SheetLicenses},
		{store.WorkbookRegistry, store.SheetCirculars},
	}
	for _, wb := range []string{store.WorkbookCooperatives, store.WorkbookMunicipal} {
		for _, sh := range []string{
			schema.SheetGeneral, schema.SheetIncome, schema.SheetExpenses,
			schema.SheetInvestments, schema.SheetExpansion,
		} {
			ds = append(ds, Dataset{wb, sh})
		}
	}
	return append(ds,
		Dataset{store.WorkbookIndicators, store.SheetTechnical},
		Dataset{store.WorkbookIndicators, store.SheetEconomic},
		Dataset{store.WorkbookIndicators, store.SheetParameters},
		Dataset{store.WorkbookMeasurements, store.SheetVariables},
		Dataset{store.WorkbookMeasurements, store.SheetComputedIndicators},
		Dataset{store.WorkbookReports, store.SheetHistorical},
	)
}

type Fetcher interface {
	FetchDataset(ctx context.Context, token, path string) (*aaps.Dataset, error)
}

type SheetWriter interface {
	ReplaceSheet(ctx context.Context, sheet *store.Sheet) error
}

// Result summarises one refreshed sheet.
type Result struct {
	Dataset Dataset
	Rows    int
}

// TxRunner runs fn in one storage transaction carried by the context.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	fetcher     Fetcher
	writer      SheetWriter
	tx          TxRunner
	concurrency int
}

// NewService builds a sync service. A nil tx replaces sheets without a shared transaction.
func NewService(fetcher Fetcher, writer SheetWriter, tx TxRunner, concurrency int) *Service {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if tx == nil {
		tx = func(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
	}
	return &Service{fetcher: fetcher, writer: writer, tx: tx, concurrency: concurrency}
}

// Sync downloads every dataset concurrently and only then replaces the cached sheets in
// one transaction, so any failure leaves the cache untouched. Failures are not retried.
func (s *Service) Sync(ctx context.Context, token string, datasets []Dataset) ([]Result, error) {
	logger := zerolog.Ctx(ctx)
	start := time.Now()

	sheets := make([]*store.Sheet, len(datasets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, d := range datasets {
		g.Go(func() error {
			ds, err := s.fetcher.FetchDataset(gctx, token, d.Path())
			if err != nil {
				return err
			}
			sheets[i] = adapters.MapDatasetToSheet(d.Workbook, d.Sheet, ds)
			logger.Debug().Str("workbook", d.Workbook).Str("sheet", d.Sheet).Int("rows", len(ds.Rows)).Msg("dataset downloaded")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("dataset download failed, cache left unchanged")
		return nil, err
	}

	results := make([]Result, len(sheets))
	err := s.tx(ctx, func(ctx context.Context) error {
		for i, sh := range sheets {
			if err := s.writer.ReplaceSheet(ctx, sh); err != nil {
				return fmt.Errorf("cache %s/%s: %w", sh.Workbook, sh.Sheet, err)
			}
			results[i] = Result{Dataset: datasets[i], Rows: len(sh.Rows)}
		}
		return nil
	})
	if err != nil {
		logger.Error().Err(err).Msg("cache replacement failed, cache left unchanged")
		return nil, err
	}

	logger.Info().Int("datasets", len(results)).Dur("elapsed", time.Since(start)).Msg("dataset cache refreshed")
	return results, nil
}
