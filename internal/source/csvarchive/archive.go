// Package csvarchive reads a directory of daily cross-sections, one file per
// trading day named YYYYMMDD.csv with one row per symbol.
package csvarchive

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"equity-feature-lab/internal/domain"
	"equity-feature-lab/internal/observability"
	"equity-feature-lab/internal/source"
)

const fileLayout = "20060102"

// header aliases, lower-cased
var columnAliases = map[string]string{
	"symbol":      "symbol",
	"ticker":      "symbol",
	"close":       source.FieldClose,
	"div":         source.FieldDividend,
	"dividend":    source.FieldDividend,
	"adjustment":  source.FieldSplitRatio,
	"split_ratio": source.FieldSplitRatio,
	"split":       source.FieldSplitRatio,
	"bid":         source.FieldBid,
	"ask":         source.FieldAsk,
	"volume":      source.FieldVolume,
}

// Archive is a Source over a directory of daily files.
type Archive struct {
	dir     string
	metrics *observability.Metrics
}

// Open indexes dir. It fails if dir cannot be listed.
func Open(dir string, metrics *observability.Metrics) (*Archive, error) {
	if _, err := os.ReadDir(dir); err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	return &Archive{dir: dir, metrics: metrics}, nil
}

// Days returns every date that has a file, ascending.
func (a *Archive) Days() ([]time.Time, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return nil, fmt.Errorf("list archive: %w", err)
	}
	var days []time.Time
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.EqualFold(filepath.Ext(name), ".csv") {
			continue
		}
		d, err := time.Parse(fileLayout, strings.TrimSuffix(name, filepath.Ext(name)))
		if err != nil {
			continue
		}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days, nil
}

// Day is one parsed file.
type Day struct {
	Date    time.Time
	Columns map[string]bool
	Rows    map[string]*domain.DailyRecord
}

// Symbols returns the symbols listed on the day, sorted.
func (d *Day) Symbols() []string {
	out := make([]string, 0, len(d.Rows))
	for s := range d.Rows {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// ReadDay parses the file for date.
func (a *Archive) ReadDay(date time.Time) (*Day, error) {
	date = domain.Date(date)
	f, err := os.Open(filepath.Join(a.dir, date.Format(fileLayout)+".csv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	day, err := parseDay(f, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Name(), err)
	}
	return day, nil
}

func parseDay(r io.Reader, date time.Time) (*Day, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int)
	for i, col := range header {
		if name, ok := columnAliases[strings.ToLower(strings.TrimSpace(col))]; ok {
			if _, dup := index[name]; !dup {
				index[name] = i
			}
		}
	}
	if _, ok := index["symbol"]; !ok {
		return nil, errors.New("no symbol column")
	}
	if _, ok := index[source.FieldClose]; !ok {
		return nil, errors.New("no close column")
	}

	day := &Day{Date: date, Columns: make(map[string]bool, len(index)), Rows: make(map[string]*domain.DailyRecord)}
	for name := range index {
		day.Columns[name] = true
	}

	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		cell := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		symbol := cell("symbol")
		if symbol == "" {
			continue
		}
		rec := &domain.DailyRecord{
			InstrumentID: symbol,
			Date:         date,
			Close:        math.NaN(),
			SplitRatio:   cell(source.FieldSplitRatio),
		}
		if v := cell(source.FieldClose); v != "" {
			if rec.Close, err = strconv.ParseFloat(v, 64); err != nil {
				return nil, fmt.Errorf("line %d: close %q: %w", line, v, err)
			}
		}
		if v := cell(source.FieldDividend); v != "" {
			if rec.Dividend, err = strconv.ParseFloat(v, 64); err != nil {
				return nil, fmt.Errorf("line %d: dividend %q: %w", line, v, err)
			}
		}
		if rec.Bid, err = optional(cell(source.FieldBid)); err != nil {
			return nil, fmt.Errorf("line %d: bid: %w", line, err)
		}
		if rec.Ask, err = optional(cell(source.FieldAsk)); err != nil {
			return nil, fmt.Errorf("line %d: ask: %w", line, err)
		}
		if rec.Volume, err = optional(cell(source.FieldVolume)); err != nil {
			return nil, fmt.Errorf("line %d: volume: %w", line, err)
		}
		day.Rows[symbol] = rec
	}
	return day, nil
}

func optional(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Fetch implements source.Source. Start and end must both be archive days; the
// days between them define the expected trading days.
func (a *Archive) Fetch(ctx context.Context, req source.Request) (map[string]*source.Series, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	started := time.Now()
	start, end := domain.Date(req.Start), domain.Date(req.End)

	all, err := a.Days()
	if err != nil {
		return nil, err
	}
	days := make([]time.Time, 0, len(all))
	var hasStart, hasEnd bool
	for _, d := range all {
		hasStart = hasStart || d.Equal(start)
		hasEnd = hasEnd || d.Equal(end)
		if !d.Before(start) && !d.After(end) {
			days = append(days, d)
		}
	}
	if !hasStart {
		return nil, &domain.DateRangeError{Start: start, End: end, Reason: fmt.Sprintf("%s is not in the archive", start.Format(domain.DateLayout))}
	}
	if !hasEnd {
		return nil, &domain.DateRangeError{Start: start, End: end, Reason: fmt.Sprintf("%s is not in the archive", end.Format(domain.DateLayout))}
	}

	ids := req.Instruments()
	out := make(map[string]*source.Series, len(ids))
	for _, id := range ids {
		out[id] = &source.Series{InstrumentID: id}
	}

	var fetched, missing int
	for i, d := range days {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		day, err := a.ReadDay(d)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			for _, f := range req.Fields {
				if !day.Columns[f] {
					return nil, &domain.FeatureNotFoundError{Feature: f, Field: f}
				}
			}
		}
		for _, id := range ids {
			s := out[id]
			rec, ok := day.Rows[id]
			if !ok {
				s.Missing = append(s.Missing, d)
				missing++
				continue
			}
			req.Project(rec)
			s.Records = append(s.Records, rec)
			fetched++
		}
	}

	a.metrics.RecordFetch("csv", fetched, missing, time.Since(started).Seconds())
	return out, nil
}
