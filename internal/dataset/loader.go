package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"
)

// row is one CSV record keyed by the file's header.
type row map[string]string

// loadSource reads every part*.csv under dir concurrently and concatenates
// them in filename order. A missing directory yields no rows, matching
// hospitals that export only some of the record types.
func (b *Builder) loadSource(ctx context.Context, dir string) ([]row, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "part*.csv"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		b.logger.Warn().Str("dir", dir).Msg("no part files found")
		return nil, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Workers)
	results := make([][]row, len(paths))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rows, err := readCSV(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = rows
			b.logger.Debug().Str("file", filepath.Base(path)).Int("rows", len(rows)).Msg("part file loaded")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []row
	for _, rows := range results {
		all = append(all, rows...)
	}
	b.stats.FilesLoaded += len(paths)
	b.logger.Info().Str("dir", dir).Int("files", len(paths)).Int("rows", len(all)).Msg("source loaded")
	return all, nil
}

func readCSV(path string) ([]row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var rows []row
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		m := make(row, len(header))
		for i, name := range header {
			if i < len(rec) {
				m[name] = rec[i]
			}
		}
		rows = append(rows, m)
	}
	return rows, nil
}
