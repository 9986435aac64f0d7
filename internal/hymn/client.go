package hymn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/psalterhq/psalter/internal/cache"
)

var ErrNotFound = errors.New("hymn not found")

var (
	httpClient     *http.Client
	httpClientOnce sync.Once
)

const requestTimeout = 10 * time.Second

func getHTTPClient() *http.Client {
	httpClientOnce.Do(func() {
		transport := &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   2 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     60 * time.Second,
			TLSHandshakeTimeout: 2 * time.Second,
		}
		httpClient = &http.Client{
			Transport: transport,
			Timeout:   requestTimeout,
		}
	})
	return httpClient
}

// Client fetches hymn records from the hymn backend. It is the only part of
// the engine that talks to the network; everything downstream works from
// the decoded record.
type Client struct {
	baseURL string
	store   *cache.Store
	noCache bool
	log     *zap.Logger
}

type ClientOption func(*Client)

func WithCache(store *cache.Store) ClientOption {
	return func(c *Client) { c.store = store }
}

// WithoutCache forces fresh fetches even when a cache store is attached.
func WithoutCache() ClientOption {
	return func(c *Client) { c.noCache = true }
}

func WithLogger(log *zap.Logger) ClientOption {
	return func(c *Client) { c.log = log }
}

func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("empty hymn source url")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid hymn source url %q: %w", baseURL, err)
	}

	c := &Client{
		baseURL: baseURL,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Fetch retrieves a hymn by id, cache-first.
func (c *Client) Fetch(ctx context.Context, id string) (*Hymn, error) {
	if id == "" {
		return nil, errors.New("empty hymn id")
	}

	if c.store != nil && !c.noCache {
		if payload, err := c.store.Get(id); err == nil {
			h, err := Decode(payload)
			if err == nil {
				c.log.Debug("hymn served from cache", zap.String("id", id))
				return h, nil
			}
			// corrupt cached payload; fall through to the network
			_ = c.store.Delete(id)
		}
	}

	payload, err := c.fetchPayload(ctx, id)
	if err != nil {
		return nil, err
	}

	h, err := Decode(payload)
	if err != nil {
		return nil, err
	}

	if c.store != nil {
		if err := c.store.Set(id, payload); err != nil {
			c.log.Warn("failed to cache hymn", zap.String("id", id), zap.Error(err))
		}
	}

	c.log.Debug("hymn fetched",
		zap.String("id", id),
		zap.String("title", h.Title),
		zap.Int("tracks", len(h.AudioFiles)),
		zap.Int("transcripts", len(h.Lyrics)))

	return h, nil
}

func (c *Client) fetchPayload(ctx context.Context, id string) ([]byte, error) {
	requestURL, err := url.JoinPath(c.baseURL, url.PathEscape(id))
	if err != nil {
		return nil, fmt.Errorf("failed to build hymn url: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build hymn request: %w", err)
	}
	req.Header.Set("User-Agent", "psalter/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := getHTTPClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("hymn fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("hymn source returned status %d: %s", resp.StatusCode, string(body))
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read hymn response: %w", err)
	}

	return payload, nil
}
