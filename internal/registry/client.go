// Package registry provides a client for the GLEIF LEI records API.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/Veraticus/lei-flow/internal/cache"
	"github.com/Veraticus/lei-flow/internal/common"
	"github.com/Veraticus/lei-flow/internal/model"
	"github.com/Veraticus/lei-flow/internal/service"
)

// DefaultBaseURL is the public GLEIF LEI records endpoint.
const DefaultBaseURL = "https://api.gleif.org/api/v1/lei-records"

// Config holds registry client configuration.
type Config struct {
	BaseURL        string
	RateLimitDelay time.Duration
	MaxRetries     int
	Timeout        time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:        DefaultBaseURL,
		RateLimitDelay: 100 * time.Millisecond,
		MaxRetries:     3,
		Timeout:        30 * time.Second,
	}
}

// Client resolves entity records from the registry, backed by a cache.
// Resolution is sequential; the client keeps at most one request in
// flight at a time.
type Client struct {
	cache      *cache.Cache
	httpClient *http.Client
	logger     *slog.Logger
	sleep      func(time.Duration)
	cfg        Config
}

// NewClient creates a registry client with the given configuration and
// lookup cache.
func NewClient(cfg Config, entityCache *cache.Cache) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RateLimitDelay <= 0 {
		cfg.RateLimitDelay = 100 * time.Millisecond
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		cfg:        cfg,
		cache:      entityCache,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     slog.Default().With("component", "registry"),
		sleep:      time.Sleep,
	}
}

// GLEIF API response types.
type leiResponse struct {
	Data []leiRecord `json:"data"`
}

type leiRecord struct {
	Attributes leiAttributes `json:"attributes"`
}

type leiAttributes struct {
	Entity leiEntity       `json:"entity"`
	BIC    json.RawMessage `json:"bic"`
}

type leiEntity struct {
	LegalName struct {
		Name string `json:"name"`
	} `json:"legalName"`
	LegalAddress struct {
		Country string `json:"country"`
	} `json:"legalAddress"`
}

// outcome is the classified result of one registry request.
type outcome int

const (
	// outcomeRecord: a structurally valid response with at least one record.
	outcomeRecord outcome = iota
	// outcomeEmpty: a structurally valid response with zero records.
	// Absence of data is not a transient failure.
	outcomeEmpty
	// outcomeMalformed: an unparseable payload. Not retried.
	outcomeMalformed
)

// Resolve returns the entity record for an LEI code. Cache hits return
// immediately. Cache misses trigger up to MaxRetries registry requests
// with exponential backoff between transport failures; exhausting the
// budget yields a RegistryUnavailableError and leaves the cache
// unwritten so a future run may retry. "Not found" and malformed
// responses resolve definitively to an all-empty record and are cached.
func (c *Client) Resolve(ctx context.Context, lei string) (model.EntityRecord, error) {
	if rec, ok := c.cache.Get(lei); ok {
		c.logger.Debug("Using cached entity data", "lei", lei)
		return rec, nil
	}

	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		c.logger.Debug("Fetching entity data", "lei", lei, "attempt", attempt+1)

		rec, out, err := c.fetchOnce(ctx, lei)
		if err != nil {
			lastErr = err
			c.logger.Warn("Registry request failed",
				"lei", lei,
				"attempt", attempt+1,
				"max_retries", c.cfg.MaxRetries,
				"error", err)

			if attempt < c.cfg.MaxRetries-1 {
				c.sleep(common.NextDelay(attempt, time.Second))
			}
			continue
		}

		switch out {
		case outcomeRecord:
			c.cache.Put(lei, rec)
			// Bound the outbound request rate.
			c.sleep(c.cfg.RateLimitDelay)
			return rec, nil
		case outcomeEmpty:
			c.cache.Put(lei, model.EntityRecord{})
			return model.EntityRecord{}, nil
		case outcomeMalformed:
			c.cache.Put(lei, model.EntityRecord{})
			return model.EntityRecord{}, nil
		}
	}

	return model.EntityRecord{}, &common.RegistryUnavailableError{
		LEI:      lei,
		Attempts: c.cfg.MaxRetries,
		LastErr:  lastErr,
	}
}

// fetchOnce issues a single lookup request. A non-nil error is a
// transport-level failure (timeout, connection error, non-2xx status)
// and is the only condition the caller retries.
func (c *Client) fetchOnce(ctx context.Context, lei string) (model.EntityRecord, outcome, error) {
	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return model.EntityRecord{}, 0, fmt.Errorf("failed to parse base URL: %w", err)
	}
	q := u.Query()
	q.Set("filter[lei]", lei)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return model.EntityRecord{}, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.EntityRecord{}, 0, fmt.Errorf("failed to fetch entity data: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.EntityRecord{}, 0, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.EntityRecord{}, 0, fmt.Errorf("registry returned status %d", resp.StatusCode)
	}

	var payload leiResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		// A malformed payload is not a transient failure; resolve to
		// an all-empty record without retrying.
		c.logger.Error("Failed to parse registry response", "lei", lei, "error", err)
		return model.EntityRecord{}, outcomeMalformed, nil
	}

	if len(payload.Data) == 0 {
		c.logger.Debug("No registry data for LEI", "lei", lei)
		return model.EntityRecord{}, outcomeEmpty, nil
	}

	return extractRecord(payload.Data[0]), outcomeRecord, nil
}

// extractRecord pulls the entity attributes out of a registry record.
// Missing nested fields default to empty strings and never fail the call.
func extractRecord(rec leiRecord) model.EntityRecord {
	return model.EntityRecord{
		LegalName: rec.Attributes.Entity.LegalName.Name,
		BIC:       extractBIC(rec.Attributes.BIC),
		Country:   rec.Attributes.Entity.LegalAddress.Country,
	}
}

// extractBIC handles the bic attribute being either a list (first element
// wins) or a bare string.
func extractBIC(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) > 0 {
			return list[0]
		}
		return ""
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return single
	}

	return ""
}

// Ensure Client implements the EntityResolver interface.
var _ service.EntityResolver = (*Client)(nil)
