package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"econdash/internal/errors"
	"econdash/internal/models"
	"econdash/internal/resilience"
	"econdash/pkg/utils"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	maxFeedBytes     = 16 << 20
)

// HTTPProviderConfig configures an HTTPProvider.
type HTTPProviderConfig struct {
	Name          string
	URL           string
	UserAgent     string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	Retry         utils.RetryConfig

	// Breaker guards the feed; nil lets every request through.
	Breaker *resilience.Breaker
}

// feedEntry is one release in the weekly JSON calendar feed.
type feedEntry struct {
	Title    string `json:"title"`
	Country  string `json:"country"`
	Date     string `json:"date"`
	Impact   string `json:"impact"`
	Forecast string `json:"forecast"`
	Previous string `json:"previous"`
	Actual   string `json:"actual"`
}

// HTTPProvider reads releases from a JSON calendar feed. Requests are rate
// limited and retried; 4xx answers other than 429 are not retried. After
// repeated failed fetches the breaker rejects calls until its cooldown ends.
type HTTPProvider struct {
	name      string
	url       string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
	retry     utils.RetryConfig
	breaker   *resilience.Breaker
}

// NewHTTPProvider creates a feed provider.
func NewHTTPProvider(cfg HTTPProviderConfig) *HTTPProvider {
	if cfg.Name == "" {
		cfg.Name = "faireconomy"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 1
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = utils.DefaultRetryConfig()
	}
	cfg.Retry.Permanent = append(cfg.Retry.Permanent, errors.ErrProviderUnavailable)

	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 60 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}

	return &HTTPProvider{
		name:      cfg.Name,
		url:       cfg.URL,
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: cfg.Timeout, Transport: tr},
		limiter:   rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		retry:     cfg.Retry,
		breaker:   cfg.Breaker,
	}
}

// Name returns the provider name.
func (p *HTTPProvider) Name() string { return p.name }

// Fetch downloads the feed and keeps releases dated between from and to.
func (p *HTTPProvider) Fetch(ctx context.Context, from, to time.Time) ([]models.EventRecord, error) {
	entries, err := resilience.Execute(p.breaker, ctx, func(ctx context.Context) ([]feedEntry, error) {
		return utils.RetryWithResult(ctx, p.retry, func() ([]feedEntry, error) {
			if err := p.limiter.Wait(ctx); err != nil {
				return nil, err
			}
			return p.get(ctx)
		})
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrProviderUnavailable, err)
	}

	lo, hi := utils.TruncateDay(from), utils.TruncateDay(to)
	var records []models.EventRecord
	for _, e := range entries {
		r, ok := e.record()
		if !ok {
			continue
		}
		if r.Date.Before(lo) || r.Date.After(hi) {
			continue
		}
		records = append(records, r)
	}
	return EnsureIDs(records), nil
}

func (p *HTTPProvider) get(ctx context.Context) ([]feedEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, errors.NewProviderError(p.name, 0, "bad request", errors.ErrProviderUnavailable)
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.NewProviderError(p.name, 0, "request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errors.NewProviderError(p.name, resp.StatusCode, "rate limited", errors.ErrRateLimited)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, errors.NewProviderError(p.name, resp.StatusCode, "request rejected", errors.ErrProviderUnavailable)
	case resp.StatusCode/100 != 2:
		return nil, errors.NewProviderError(p.name, resp.StatusCode, "server error", nil)
	}

	var entries []feedEntry
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxFeedBytes)).Decode(&entries); err != nil {
		return nil, errors.NewProviderError(p.name, resp.StatusCode, "malformed feed: "+err.Error(), errors.ErrProviderUnavailable)
	}
	return entries, nil
}

// record converts a feed entry. The calendar day and clock time are taken
// in the feed's own UTC offset.
func (e feedEntry) record() (models.EventRecord, bool) {
	if strings.TrimSpace(e.Country) == "" || strings.TrimSpace(e.Title) == "" {
		return models.EventRecord{}, false
	}
	ts, err := time.Parse(time.RFC3339, strings.TrimSpace(e.Date))
	if err != nil {
		return models.EventRecord{}, false
	}
	return models.EventRecord{
		Date:       utils.TruncateDay(ts),
		Time:       ts.Format("15:04"),
		Currency:   strings.ToUpper(strings.TrimSpace(e.Country)),
		Importance: models.ParseImportance(e.Impact),
		Event:      strings.TrimSpace(e.Title),
		Actual:     e.Actual,
		Forecast:   e.Forecast,
		Previous:   e.Previous,
	}, true
}
