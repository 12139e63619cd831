package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/naveenhacks/KVISION/internal/models"
)

const rosterCacheKey = "directory:roster"

// Client fetches the roster from the identity service over HTTP with
// exponential-backoff retry, and caches it in Redis so projection rebuilds
// do not hammer the service. A nil redis client disables caching.
type Client struct {
	base       string
	http       *http.Client
	cache      *redis.Client
	cacheTTL   time.Duration
	maxElapsed time.Duration
	log        *zap.SugaredLogger
}

type ClientConfig struct {
	BaseURL         string
	Timeout         time.Duration
	RetryMaxElapsed time.Duration
	CacheTTL        time.Duration
}

func NewClient(cfg ClientConfig, cache *redis.Client, log *zap.SugaredLogger) *Client {
	tr := &http.Transport{
		DialContext:     (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		MaxIdleConns:    10,
		IdleConnTimeout: 90 * time.Second,
	}
	return &Client{
		base:       cfg.BaseURL,
		http:       &http.Client{Transport: tr, Timeout: cfg.Timeout},
		cache:      cache,
		cacheTTL:   cfg.CacheTTL,
		maxElapsed: cfg.RetryMaxElapsed,
		log:        log,
	}
}

func (c *Client) Users(ctx context.Context) ([]models.User, error) {
	if users, ok := c.cachedRoster(ctx); ok {
		return users, nil
	}

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/users", nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 {
			io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("identity service: %s", resp.Status)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("identity service: %s", resp.Status))
		}
		body, err = io.ReadAll(resp.Body)
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = c.maxElapsed
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}

	var users []models.User
	if err := json.Unmarshal(body, &users); err != nil {
		return nil, err
	}
	c.storeRoster(ctx, body)
	return users, nil
}

func (c *Client) User(ctx context.Context, id string) (models.User, error) {
	// The roster of a single school is small; resolve from it instead of a
	// per-id endpoint round trip.
	users, err := c.Users(ctx)
	if err != nil {
		return models.User{}, err
	}
	for _, u := range users {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, ErrUnknownUser
}

func (c *Client) cachedRoster(ctx context.Context) ([]models.User, bool) {
	if c.cache == nil {
		return nil, false
	}
	raw, err := c.cache.Get(ctx, rosterCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Debugw("roster cache read failed", "err", err)
		}
		return nil, false
	}
	var users []models.User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, false
	}
	return users, true
}

func (c *Client) storeRoster(ctx context.Context, raw []byte) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Set(ctx, rosterCacheKey, raw, c.cacheTTL).Err(); err != nil {
		c.log.Debugw("roster cache write failed", "err", err)
	}
}
