package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"equity-feature-lab/internal/domain"
)

// CSVWriter writes one {instrument}.csv per table.
type CSVWriter struct {
	opts Options
}

// Write implements Writer and returns the written paths, sorted.
func (w *CSVWriter) Write(dir string, tables map[string]*domain.FeatureTable) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}

	ids := make([]string, 0, len(tables))
	for id := range tables {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	paths := make([]string, 0, len(ids))
	for _, id := range ids {
		path := filepath.Join(dir, fileName(id)+".csv")
		if err := w.writeFile(path, tables[id]); err != nil {
			return paths, fmt.Errorf("export %s: %w", id, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (w *CSVWriter) writeFile(path string, table *domain.FeatureTable) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return WriteCSV(f, table, w.opts)
}

// WriteCSV renders one table as CSV to out. Missing values are empty cells.
func WriteCSV(out io.Writer, table *domain.FeatureTable, opts Options) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(Header(table)); err != nil {
		return err
	}
	for _, row := range rows(table, opts) {
		rec := make([]string, len(row))
		for i, c := range row {
			rec[i] = c.String()
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
