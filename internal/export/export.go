// Package export writes feature tables to CSV files or an XLSX workbook.
package export

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"equity-feature-lab/internal/domain"
)

// Options control which rows and columns are written.
type Options struct {
	// DropMissing skips rows where any written column is missing.
	DropMissing bool
}

// Writer persists a batch of feature tables under a directory.
type Writer interface {
	Write(dir string, tables map[string]*domain.FeatureTable) ([]string, error)
}

// New returns the writer for format ("csv" or "xlsx").
func New(format string, opts Options) (Writer, error) {
	switch strings.ToLower(format) {
	case "", "csv":
		return &CSVWriter{opts: opts}, nil
	case "xlsx":
		return &XLSXWriter{opts: opts}, nil
	}
	return nil, fmt.Errorf("unknown export format %q", format)
}

// Header returns the column names written for table.
func Header(table *domain.FeatureTable) []string {
	h := []string{"date", "close", "dividend", "split_ratio", "adj_close", "split_factor", "return", "tcost"}
	if hasVolume(table) {
		h = append(h, "volume", "adjvolume")
	}
	return append(h, table.Names...)
}

// cell is one output value; nil means missing.
type cell struct {
	text   string
	number *float64
}

func (c cell) missing() bool {
	return c.text == "" && c.number == nil
}

// rows returns table's output rows, honouring DropMissing.
func rows(table *domain.FeatureTable, opts Options) [][]cell {
	withVolume := hasVolume(table)
	out := make([][]cell, 0, len(table.Records))
	for i, r := range table.Records {
		row := []cell{
			{text: r.Date.Format(domain.DateLayout)},
			num(r.Close),
			num(r.Dividend),
			{text: r.SplitRatio},
			num(r.AdjClose),
			num(r.SplitFactor),
			ptr(r.Return),
			ptr(r.TCost),
		}
		if withVolume {
			row = append(row, ptr(r.Volume), ptr(r.AdjVolume))
		}
		for _, name := range table.Names {
			row = append(row, ptr(table.Value(i, name)))
		}
		if opts.DropMissing && anyMissing(row) {
			continue
		}
		out = append(out, row)
	}
	return out
}

// split ratio is usually empty and never counts as missing
func anyMissing(row []cell) bool {
	for i, c := range row {
		if i == 3 {
			continue
		}
		if c.missing() {
			return true
		}
	}
	return false
}

func hasVolume(table *domain.FeatureTable) bool {
	for _, r := range table.Records {
		if r.Volume != nil {
			return true
		}
	}
	return false
}

func num(v float64) cell {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return cell{}
	}
	return cell{number: &v}
}

func ptr(v *float64) cell {
	if v == nil {
		return cell{}
	}
	return num(*v)
}

func (c cell) String() string {
	if c.number != nil {
		return strconv.FormatFloat(*c.number, 'f', -1, 64)
	}
	return c.text
}

// fileName maps an instrument id to a safe file or sheet name.
func fileName(id string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "[", "_", "]", "_")
	return filepath.Base(r.Replace(id))
}
