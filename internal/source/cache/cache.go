// Package cache decorates a source.Source with a Redis read-through cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"equity-feature-lab/internal/domain"
	"equity-feature-lab/internal/observability"
	"equity-feature-lab/internal/source"
)

// CachingSource caches each instrument's Series under a key derived from the
// request. A nil Redis client disables caching.
type CachingSource struct {
	inner     source.Source
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
	metrics   *observability.Metrics
}

// New decorates inner. If ttl is 0 it defaults to 24 hours; if namespace is empty it uses "series".
func New(rdb *redis.Client, ttl time.Duration, inner source.Source, namespace string, metrics *observability.Metrics) *CachingSource {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if namespace == "" {
		namespace = "series"
	}
	return &CachingSource{inner: inner, rdb: rdb, ttl: ttl, namespace: namespace, metrics: metrics}
}

type entry struct {
	Date       string   `json:"date"`
	Close      *float64 `json:"close,omitempty"`
	Dividend   float64  `json:"dividend,omitempty"`
	SplitRatio string   `json:"split_ratio,omitempty"`
	Bid        *float64 `json:"bid,omitempty"`
	Ask        *float64 `json:"ask,omitempty"`
	Volume     *float64 `json:"volume,omitempty"`
}

type payload struct {
	Records []entry  `json:"records"`
	Missing []string `json:"missing,omitempty"`
}

// Fetch implements source.Source. Only instruments missing from the cache are
// forwarded to the inner source.
func (c *CachingSource) Fetch(ctx context.Context, req source.Request) (map[string]*source.Series, error) {
	if c.rdb == nil {
		return c.inner.Fetch(ctx, req)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ids := req.Instruments()
	out := make(map[string]*source.Series, len(ids))
	var misses []string
	for _, id := range ids {
		key := c.cacheKey(id, req)
		b, err := c.rdb.Get(ctx, key).Bytes()
		switch {
		case err == nil && len(b) > 0:
			var p payload
			if err := json.Unmarshal(b, &p); err == nil {
				if s, err := decode(id, p); err == nil {
					out[id] = s
					c.metrics.RecordCacheLookup(true)
					continue
				}
			}
			if err := c.rdb.Del(ctx, key).Err(); err != nil {
				c.failed("del", key, err)
			}
		case err != nil && !errors.Is(err, redis.Nil):
			c.failed("get", key, err)
		}
		c.metrics.RecordCacheLookup(false)
		misses = append(misses, id)
	}
	if len(misses) == 0 {
		return out, nil
	}

	sub := req
	sub.InstrumentIDs = misses
	fetched, err := c.inner.Fetch(ctx, sub)
	if err != nil {
		return nil, err
	}
	for _, id := range misses {
		s := fetched[id]
		if s == nil {
			s = &source.Series{InstrumentID: id}
		}
		out[id] = s
		// empty or failed series are not cached so that late vendor data is picked up
		if s.Empty() || s.Err != nil {
			continue
		}
		b, err := json.Marshal(encode(s))
		if err != nil {
			c.failed("encode", id, err)
			continue
		}
		key := c.cacheKey(id, req)
		if err := c.rdb.Set(ctx, key, b, c.ttl).Err(); err != nil {
			c.failed("set", key, err)
		}
	}
	return out, nil
}

// failed reports a cache operation error. The fetch itself carries on uncached.
func (c *CachingSource) failed(op, key string, err error) {
	c.metrics.RecordCacheError(op)
	slog.Warn("cache operation failed", "op", op, "key", key, "error", err)
}

// Invalidate removes every cached series of instrumentID.
func (c *CachingSource) Invalidate(ctx context.Context, instrumentID string) error {
	if c.rdb == nil {
		return nil
	}
	pattern := fmt.Sprintf("%s:%s:*", c.namespace, safe(instrumentID))
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			return nil
		}
	}
}

func (c *CachingSource) cacheKey(id string, req source.Request) string {
	fields := "all"
	if len(req.Fields) > 0 {
		f := append([]string(nil), req.Fields...)
		sort.Strings(f)
		fields = strings.Join(f, ",")
	}
	return fmt.Sprintf("%s:%s:%s:%s:%s",
		c.namespace,
		safe(id),
		req.Start.Format(domain.DateLayout),
		req.End.Format(domain.DateLayout),
		safe(fields),
	)
}

func encode(s *source.Series) payload {
	p := payload{Records: make([]entry, 0, len(s.Records))}
	for _, r := range s.Records {
		e := entry{
			Date:       r.Date.Format(domain.DateLayout),
			Dividend:   r.Dividend,
			SplitRatio: r.SplitRatio,
			Bid:        r.Bid,
			Ask:        r.Ask,
			Volume:     r.Volume,
		}
		if !math.IsNaN(r.Close) {
			e.Close = domain.Float(r.Close)
		}
		p.Records = append(p.Records, e)
	}
	for _, d := range s.Missing {
		p.Missing = append(p.Missing, d.Format(domain.DateLayout))
	}
	return p
}

func decode(id string, p payload) (*source.Series, error) {
	s := &source.Series{InstrumentID: id, Records: make([]*domain.DailyRecord, 0, len(p.Records))}
	for _, e := range p.Records {
		d, err := domain.ParseDate(e.Date)
		if err != nil {
			return nil, err
		}
		r := &domain.DailyRecord{
			InstrumentID: id,
			Date:         d,
			Close:        math.NaN(),
			Dividend:     e.Dividend,
			SplitRatio:   e.SplitRatio,
			Bid:          e.Bid,
			Ask:          e.Ask,
			Volume:       e.Volume,
		}
		if e.Close != nil {
			r.Close = *e.Close
		}
		s.Records = append(s.Records, r)
	}
	for _, m := range p.Missing {
		d, err := domain.ParseDate(m)
		if err != nil {
			return nil, err
		}
		s.Missing = append(s.Missing, d)
	}
	return s, nil
}

func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	return strings.ReplaceAll(s, ":", "_")
}
