package eodhd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equity-feature-lab/internal/calendar"
	"equity-feature-lab/internal/domain"
	"equity-feature-lab/internal/source"
)

func newServer(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("api_token"))
		assert.Equal(t, "2024-06-03", r.URL.Query().Get("from"))

		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/eod/NVDA.US"):
			_, _ = w.Write([]byte(`[
				{"date":"2024-06-03","close":1150.00,"volume":100},
				{"date":"2024-06-04","close":1164.37,"volume":120},
				{"date":"2024-06-06","close":1209.98,"volume":130},
				{"date":"2024-06-07","close":120.88,"volume":1400}
			]`))
		case strings.HasPrefix(r.URL.Path, "/splits/NVDA.US"):
			_, _ = w.Write([]byte(`[{"date":"2024-06-07","split":"10.000000/1.000000"}]`))
		case strings.HasPrefix(r.URL.Path, "/div/NVDA.US"):
			_, _ = w.Write([]byte(`[{"date":"2024-06-04","value":0.04,"currency":"USD"}]`))
		case strings.HasPrefix(r.URL.Path, "/eod/BAD.US"):
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func june(d int) time.Time {
	return time.Date(2024, time.June, d, 0, 0, 0, 0, time.UTC)
}

func TestClient_Fetch(t *testing.T) {
	srv, seen := newServer(t)
	c := New(Config{BaseURL: srv.URL, APIKey: "secret", Exchange: "US", RequestsPerSecond: 100, Burst: 10}, calendar.Weekdays, nil)

	got, err := c.Fetch(context.Background(), source.Request{
		InstrumentIDs: []string{"NVDA", "ZZZZ"},
		Start:         june(3),
		End:           june(7),
	})
	require.NoError(t, err)

	nvda := got["NVDA"]
	require.Len(t, nvda.Records, 4)
	assert.Equal(t, 0.04, nvda.Records[1].Dividend)
	assert.Equal(t, "10.000000/1.000000", nvda.Records[3].SplitRatio)
	assert.Equal(t, 1400.0, *nvda.Records[3].Volume)
	assert.Equal(t, []time.Time{june(5)}, nvda.Missing)

	assert.True(t, got["ZZZZ"].Empty())
	assert.Len(t, *seen, 6)
}

func TestClient_FetchRejectsQuotes(t *testing.T) {
	c := New(Config{BaseURL: "http://unused"}, nil, nil)
	_, err := c.Fetch(context.Background(), source.Request{
		InstrumentIDs: []string{"NVDA"},
		Fields:        []string{source.FieldBid},
		Start:         june(3),
		End:           june(7),
	})
	assert.ErrorIs(t, err, domain.ErrFeatureNotFound)
}

func TestClient_FetchServerErrorStaysWithInstrument(t *testing.T) {
	srv, _ := newServer(t)
	c := New(Config{BaseURL: srv.URL, APIKey: "secret", Exchange: "US"}, calendar.Weekdays, nil)

	got, err := c.Fetch(context.Background(), source.Request{
		InstrumentIDs: []string{"NVDA", "BAD"},
		Start:         june(3),
		End:           june(7),
	})
	require.NoError(t, err)

	require.NotNil(t, got["BAD"])
	require.Error(t, got["BAD"].Err)
	assert.Contains(t, got["BAD"].Err.Error(), "500")
	assert.Empty(t, got["BAD"].Records)

	assert.NoError(t, got["NVDA"].Err)
	assert.Len(t, got["NVDA"].Records, 4)

	_, err = source.GapSkip.Resolve(got["BAD"])
	assert.ErrorContains(t, err, "fetch BAD")
}

func TestClient_FetchRepeatedInstrumentOnce(t *testing.T) {
	srv, seen := newServer(t)
	c := New(Config{BaseURL: srv.URL, APIKey: "secret", Exchange: "US"}, calendar.Weekdays, nil)

	got, err := c.Fetch(context.Background(), source.Request{
		InstrumentIDs: []string{"NVDA", "NVDA"},
		Start:         june(3),
		End:           june(7),
	})
	require.NoError(t, err)
	assert.Len(t, got["NVDA"].Records, 4)
	assert.Len(t, *seen, 3)
}

func TestClient_FetchHonoursCancellation(t *testing.T) {
	srv, _ := newServer(t)
	c := New(Config{BaseURL: srv.URL, APIKey: "secret", RequestsPerSecond: 1, Burst: 1}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Fetch(ctx, source.Request{InstrumentIDs: []string{"NVDA"}, Start: june(3), End: june(7)})
	assert.ErrorIs(t, err, context.Canceled)
}
