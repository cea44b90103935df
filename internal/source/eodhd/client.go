// Package eodhd fetches end-of-day prices, splits and dividends from the
// EODHD HTTP API.
package eodhd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"equity-feature-lab/internal/calendar"
	"equity-feature-lab/internal/domain"
	"equity-feature-lab/internal/observability"
	"equity-feature-lab/internal/source"
)

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "https://eodhd.com/api"

// Config configures a Client.
type Config struct {
	BaseURL  string
	APIKey   string
	Exchange string // ticker suffix, e.g. "US"
	// RequestsPerSecond bounds outgoing calls; zero disables limiting.
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
}

// Client is a source.Source backed by EODHD.
type Client struct {
	cfg      Config
	http     *http.Client
	limiter  *rate.Limiter
	calendar calendar.Oracle
	metrics  *observability.Metrics
}

// New creates a Client. A nil cal means calendar.Weekdays.
func New(cfg Config, cal calendar.Oracle, metrics *observability.Metrics) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cal == nil {
		cal = calendar.Weekdays
	}
	c := &Client{
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.Timeout},
		calendar: cal,
		metrics:  metrics,
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return c
}

type eodRow struct {
	Date   string          `json:"date"`
	Close  decimal.Decimal `json:"close"`
	Volume *float64        `json:"volume"`
}

type splitRow struct {
	Date  string `json:"date"`
	Split string `json:"split"` // "2.000000/1.000000"
}

type dividendRow struct {
	Date  string          `json:"date"`
	Value decimal.Decimal `json:"value"`
}

// Fetch implements source.Source. Bid and ask are not offered by the API.
func (c *Client) Fetch(ctx context.Context, req source.Request) (map[string]*source.Series, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	for _, f := range req.Fields {
		if f == source.FieldBid || f == source.FieldAsk {
			return nil, &domain.FeatureNotFoundError{Feature: f, Field: f}
		}
	}
	started := time.Now()
	days := calendar.TradingDays(c.calendar, req.Start, req.End)

	out := make(map[string]*source.Series, len(req.InstrumentIDs))
	var fetched, missing int
	for _, id := range req.Instruments() {
		records, err := c.series(ctx, id, req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			out[id] = &source.Series{InstrumentID: id, Err: fmt.Errorf("fetch %s: %w", id, err)}
			continue
		}
		s := &source.Series{InstrumentID: id, Records: records}
		if len(records) > 0 {
			s.Missing = source.MissingDays(days, records)
		}
		out[id] = s
		fetched += len(records)
		missing += len(s.Missing)
	}

	c.metrics.RecordFetch("eodhd", fetched, missing, time.Since(started).Seconds())
	return out, nil
}

func (c *Client) series(ctx context.Context, id string, req source.Request) ([]*domain.DailyRecord, error) {
	var prices []eodRow
	if err := c.get(ctx, "eod", id, req, &prices); err != nil {
		return nil, err
	}
	var splits []splitRow
	if err := c.get(ctx, "splits", id, req, &splits); err != nil {
		return nil, err
	}
	var divs []dividendRow
	if err := c.get(ctx, "div", id, req, &divs); err != nil {
		return nil, err
	}

	byDate := make(map[time.Time]*domain.DailyRecord, len(prices))
	records := make([]*domain.DailyRecord, 0, len(prices))
	for _, p := range prices {
		d, err := domain.ParseDate(p.Date)
		if err != nil {
			return nil, fmt.Errorf("eod date %q: %w", p.Date, err)
		}
		rec := &domain.DailyRecord{InstrumentID: id, Date: d, Close: p.Close.InexactFloat64()}
		if p.Close.IsZero() {
			rec.Close = math.NaN()
		}
		if req.Wants(source.FieldVolume) {
			rec.Volume = p.Volume
		}
		byDate[d] = rec
		records = append(records, rec)
	}
	// corporate actions on days without a price row are dropped
	for _, s := range splits {
		d, err := domain.ParseDate(s.Date)
		if err != nil {
			return nil, fmt.Errorf("split date %q: %w", s.Date, err)
		}
		if rec, ok := byDate[d]; ok {
			rec.SplitRatio = s.Split
		}
	}
	for _, dv := range divs {
		d, err := domain.ParseDate(dv.Date)
		if err != nil {
			return nil, fmt.Errorf("dividend date %q: %w", dv.Date, err)
		}
		if rec, ok := byDate[d]; ok {
			rec.Dividend += dv.Value.InexactFloat64()
		}
	}
	return records, nil
}

func (c *Client) ticker(id string) string {
	if c.cfg.Exchange == "" {
		return id
	}
	return id + "." + c.cfg.Exchange
}

func (c *Client) get(ctx context.Context, endpoint, id string, req source.Request, v any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	q := url.Values{}
	q.Set("fmt", "json")
	q.Set("api_token", c.cfg.APIKey)
	q.Set("from", req.Start.Format(domain.DateLayout))
	q.Set("to", req.End.Format(domain.DateLayout))
	addr := fmt.Sprintf("%s/%s/%s?%s", c.cfg.BaseURL, endpoint, url.PathEscape(c.ticker(id)), q.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.metrics.RecordVendorRequest(endpoint, "error")
		return err
	}
	defer resp.Body.Close()
	c.metrics.RecordVendorRequest(endpoint, strconv.Itoa(resp.StatusCode))

	if resp.StatusCode == http.StatusNotFound {
		// unknown ticker: no rows
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: unexpected status %s: %s", endpoint, resp.Status, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%s: decode: %w", endpoint, err)
	}
	return nil
}
