package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"equity-feature-lab/internal/domain"
)

func table(id string, withVolume bool) *domain.FeatureTable {
	day := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	t := &domain.FeatureTable{InstrumentID: id, Names: []string{"return_return_2"}}
	closes := []float64{100, 102, 50}
	for i, c := range closes {
		rec := &domain.FeatureRecord{
			AdjustedRecord: domain.AdjustedRecord{
				DailyRecord: domain.DailyRecord{InstrumentID: id, Date: day.AddDate(0, 0, i), Close: c},
				AdjClose:    c,
				SplitFactor: 1,
			},
			Features: map[string]*float64{"return_return_2": nil},
		}
		if i > 0 {
			rec.Return = domain.Float(0.01)
		}
		if i == 2 {
			rec.SplitRatio = "2:1"
			rec.Features["return_return_2"] = domain.Float(0.02)
		}
		if withVolume {
			rec.Volume = domain.Float(1000)
			rec.AdjVolume = domain.Float(1000)
		}
		t.Records = append(t.Records, rec)
	}
	return t
}

func TestHeader(t *testing.T) {
	assert.Equal(t,
		[]string{"date", "close", "dividend", "split_ratio", "adj_close", "split_factor", "return", "tcost", "return_return_2"},
		Header(table("IBM", false)))
	assert.Contains(t, Header(table("IBM", true)), "adjvolume")
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, table("IBM", false), Options{}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "2020-01-02,100,0,,100,1,,,", lines[1])
	assert.Equal(t, "2020-01-04,50,0,2:1,50,1,0.01,,0.02", lines[3])
}

func TestWriteCSV_DropMissing(t *testing.T) {
	tbl := table("IBM", false)
	for _, r := range tbl.Records {
		r.TCost = domain.Float(0.001)
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, tbl, Options{DropMissing: true}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "2020-01-04,"))
}

func TestCSVWriter_Write(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	w, err := New("csv", Options{})
	require.NoError(t, err)

	paths, err := w.Write(dir, map[string]*domain.FeatureTable{"MSFT": table("MSFT", true), "BRK/B": table("BRK/B", false)})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "BRK_B.csv"), filepath.Join(dir, "MSFT.csv")}, paths)

	data, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Contains(t, string(data), "volume,adjvolume")
}

func TestXLSXWriter_Write(t *testing.T) {
	dir := t.TempDir()
	w, err := New("xlsx", Options{})
	require.NoError(t, err)

	paths, err := w.Write(dir, map[string]*domain.FeatureTable{"IBM": table("IBM", false), "AAPL": table("AAPL", true)})
	require.NoError(t, err)
	require.Len(t, paths, 1)

	f, err := excelize.OpenFile(paths[0])
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"AAPL", "IBM"}, f.GetSheetList())
	rows, err := f.GetRows("IBM")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "date", rows[0][0])
	assert.Equal(t, "2:1", rows[3][3])

	v, err := f.GetCellValue("IBM", "I4")
	require.NoError(t, err)
	assert.Equal(t, "0.02", v)
}

func TestNew_UnknownFormat(t *testing.T) {
	_, err := New("parquet", Options{})
	assert.Error(t, err)
}
