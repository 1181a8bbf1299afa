package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"
)

// Source locates one catalog file and its column layout. An empty Path
// leaves the catalog empty.
type Source struct {
	Path    string
	Columns Columns
}

// Sources locates the three catalogs.
type Sources struct {
	GF21SDSS Source
	MWDD     Source
	PEWDD    Source
}

// LoadSet reads the three catalogs concurrently. The catalogs are
// independent, so the first failure cancels the remaining reads.
func LoadSet(ctx context.Context, src Sources, logger *slog.Logger) (*Set, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var set Set
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		l, err := loadFile(gctx, src.GF21SDSS, func(r io.Reader) (*Labels, error) {
			return ReadSpectralClasses(r, src.GF21SDSS.Columns)
		})
		if err != nil {
			return fmt.Errorf("gf21sdss: %w", err)
		}
		set.GF21SDSS = l
		logger.Info("catalog loaded", "catalog", "gf21sdss", "path", src.GF21SDSS.Path, "objects", l.Len())
		return nil
	})

	g.Go(func() error {
		l, err := loadFile(gctx, src.MWDD, func(r io.Reader) (*Labels, error) {
			return ReadSpectralTypes(r, src.MWDD.Columns)
		})
		if err != nil {
			return fmt.Errorf("mwdd: %w", err)
		}
		set.MWDD = l
		logger.Info("catalog loaded", "catalog", "mwdd", "path", src.MWDD.Path, "objects", l.Len())
		return nil
	})

	g.Go(func() error {
		m, err := loadFile(gctx, src.PEWDD, func(r io.Reader) (*Membership, error) {
			return ReadMembership(r, src.PEWDD.Columns)
		})
		if err != nil {
			return fmt.Errorf("pewdd: %w", err)
		}
		set.PEWDD = m
		logger.Info("catalog loaded", "catalog", "pewdd", "path", src.PEWDD.Path, "objects", m.Len())
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &set, nil
}

// loadFile opens src.Path and hands it to read. A missing path yields the
// zero value of T, which every catalog type treats as empty.
func loadFile[T any](ctx context.Context, src Source, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	if src.Path == "" {
		return zero, nil
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	f, err := os.Open(src.Path)
	if err != nil {
		return zero, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	v, err := read(f)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", src.Path, err)
	}
	return v, nil
}
