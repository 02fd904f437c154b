package planingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/asgard/cgr/internal/cgr"
)

// Client fetches contact plans published by a remote collaborator over
// HTTP, with a small TTL cache keyed by URL so a live loop re-fetching the
// same plan every few ticks doesn't hammer the source.
type Client struct {
	httpClient *http.Client
	userAgent  string
	cache      *planCache
}

// Config holds remote plan fetch configuration.
type Config struct {
	// HTTP timeout for a single fetch.
	Timeout time.Duration
	// CacheTTL controls how long a fetched plan is reused before refetching.
	CacheTTL time.Duration
	// UserAgent sent with every request.
	UserAgent string
}

// DefaultConfig returns sensible defaults for remote plan fetching.
func DefaultConfig() Config {
	return Config{
		Timeout:   30 * time.Second,
		CacheTTL:  1 * time.Minute,
		UserAgent: "cgr-planingest/1.0",
	}
}

// NewClient creates a new remote plan fetch client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 1 * time.Minute
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "cgr-planingest/1.0"
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		userAgent:  cfg.UserAgent,
		cache:      newPlanCache(cfg.CacheTTL),
	}
}

// contactRow mirrors the nine-field ingestion format in JSON form.
type contactRow struct {
	ID            int     `json:"id"`
	From          int     `json:"from"`
	To            int     `json:"to"`
	TStart        float64 `json:"t_start"`
	TEnd          float64 `json:"t_end"`
	OWLT          float64 `json:"owlt"`
	RateBPS       float64 `json:"rate_bps"`
	SetupS        float64 `json:"setup_s"`
	ResidualBytes float64 `json:"residual_bytes"`
}

// FetchPlan retrieves a contact plan (JSON array of the ingestion fields)
// from url, serving a cached copy if it was fetched within the configured
// TTL.
func (c *Client) FetchPlan(ctx context.Context, url string) (cgr.Plan, error) {
	if cached := c.cache.get(url); cached != nil {
		return cached.Clone(), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch plan: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("plan source returned %d: %s", resp.StatusCode, string(body))
	}

	var rows []contactRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}

	plan := make(cgr.Plan, len(rows))
	for i, r := range rows {
		plan[i] = cgr.Contact{
			ID:            r.ID,
			From:          r.From,
			To:            r.To,
			TStart:        r.TStart,
			TEnd:          r.TEnd,
			OWLT:          r.OWLT,
			RateBPS:       r.RateBPS,
			SetupS:        r.SetupS,
			ResidualBytes: r.ResidualBytes,
		}
	}

	c.cache.set(url, plan)
	return plan.Clone(), nil
}

// planCache provides thread-safe TTL caching of fetched plans.
type planCache struct {
	mu      sync.RWMutex
	entries map[string]*planCacheEntry
	ttl     time.Duration
}

type planCacheEntry struct {
	plan      cgr.Plan
	expiresAt time.Time
}

func newPlanCache(ttl time.Duration) *planCache {
	return &planCache{entries: make(map[string]*planCacheEntry), ttl: ttl}
}

func (c *planCache) get(url string) cgr.Plan {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[url]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil
	}
	return entry.plan
}

func (c *planCache) set(url string, plan cgr.Plan) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[url] = &planCacheEntry{plan: plan, expiresAt: time.Now().Add(c.ttl)}
}
