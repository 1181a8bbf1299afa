package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rg0now/wd-pollution-survey/pkg/catalog"
	"github.com/rg0now/wd-pollution-survey/pkg/models"
)

// chunkSize is the number of identifiers classified per worker task.
const chunkSize = 4096

// Analyzer classifies objects against a fixed, read-only catalog set. It
// holds no mutable state and is safe for concurrent use.
type Analyzer struct {
	lookups []Lookup
	logger  *slog.Logger
}

// NewAnalyzer creates an Analyzer over set. Catalogs are queried in the
// order MWDD, GF21 x SDSS, PEWDD: MWDD is the densest, so most polluted
// objects are settled by the first lookup.
func NewAnalyzer(set *catalog.Set, logger *slog.Logger) *Analyzer {
	if set == nil {
		set = &catalog.Set{}
	}
	return NewAnalyzerWithLookups(logger,
		NewSpecTypeLookup(set.MWDD),
		NewSpecClassLookup(set.GF21SDSS),
		NewMembershipLookup(set.PEWDD),
	)
}

// NewAnalyzerWithLookups creates an Analyzer that queries lookups in the
// given order.
func NewAnalyzerWithLookups(logger *slog.Logger, lookups ...Lookup) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		lookups: lookups,
		logger:  logger,
	}
}

// Catalogs returns the catalog names in query order.
func (a *Analyzer) Catalogs() []models.CatalogName {
	names := make([]models.CatalogName, len(a.lookups))
	for i, l := range a.lookups {
		names[i] = l.Catalog()
	}
	return names
}

// BatchOptions controls ClassifyAll.
type BatchOptions struct {
	// Workers bounds the number of concurrent chunks. Zero means GOMAXPROCS.
	Workers int
	// Detailed records per-catalog verdicts in every result.
	Detailed bool
	// RunID tags every result.
	RunID uuid.UUID
}

// ClassifyAll classifies ids and returns one result per id in input order.
// The work is split into chunks spread over a bounded set of goroutines;
// cancelling ctx stops scheduling new chunks.
func (a *Analyzer) ClassifyAll(ctx context.Context, ids []models.ID, opts BatchOptions) ([]models.Result, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]models.Result, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for start := 0; start < len(ids); start += chunkSize {
		start := start
		end := min(start+chunkSize, len(ids))
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				results[i] = a.classifyOne(ids[i], opts)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to classify sample: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to classify sample: %w", err)
	}

	a.logger.Debug("sample classified", "objects", len(ids), "workers", workers)
	return results, nil
}

func (a *Analyzer) classifyOne(id models.ID, opts BatchOptions) models.Result {
	var r models.Result
	if opts.Detailed {
		r = a.Explain(id)
	} else {
		r = models.Result{ID: id, Verdict: a.Classify(id)}
	}
	r.RunID = opts.RunID
	return r
}
