// Package identity talks to the external identity broker that holds each
// user's Google OAuth grant. The broker verifies users out of band; this
// service only ever exchanges a verified identity subject for a short-lived
// Google access token.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"mailtriage/internal/apperr"
	"mailtriage/pkg/circuitbreaker"
	"mailtriage/pkg/metrics"
)

const tokenCachePrefix = "broker:token:"

type Broker struct {
	baseURL   string
	secretKey string
	client    *http.Client
	breaker   *circuitbreaker.CircuitBreaker
	cache     *redis.Client // optional, nil disables caching
	cacheTTL  time.Duration
	logger    *zap.Logger
}

func NewBroker(baseURL, secretKey string, cache *redis.Client, cacheTTL time.Duration, logger *zap.Logger) *Broker {
	return &Broker{
		baseURL:   baseURL,
		secretKey: secretKey,
		client:    &http.Client{Timeout: 10 * time.Second},
		breaker:   circuitbreaker.New(circuitbreaker.DefaultConfig()),
		cache:     cache,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

type tokenEntry struct {
	Token string `json:"token"`
}

// GoogleAccessToken returns a Google access token for the subject. Tokens
// are cached in redis for a short TTL; a cache outage degrades to calling
// the broker every time.
func (b *Broker) GoogleAccessToken(ctx context.Context, subject string) (string, error) {
	if subject == "" {
		return "", apperr.Unauthenticated()
	}

	cacheKey := tokenCachePrefix + subject
	if b.cache != nil {
		token, err := b.cache.Get(ctx, cacheKey).Result()
		if err == nil && token != "" {
			return token, nil
		}
	}

	token, err := b.fetchToken(ctx, subject)
	if err != nil {
		return "", err
	}

	if b.cache != nil {
		if err := b.cache.Set(ctx, cacheKey, token, b.cacheTTL).Err(); err != nil {
			b.logger.Warn("Failed to cache brokered token", zap.Error(err))
		}
	}
	return token, nil
}

func (b *Broker) fetchToken(ctx context.Context, subject string) (string, error) {
	url := fmt.Sprintf("%s/v1/users/%s/oauth_access_tokens/google", b.baseURL, subject)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+b.secretKey)

	// The breaker only counts transport failures and broker-side 5xx
	// responses; a user without a Google grant must not open it.
	start := time.Now()
	var resp *http.Response
	cbErr := b.breaker.Execute(func() error {
		var doErr error
		resp, doErr = b.client.Do(req)
		if doErr != nil {
			return doErr
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("broker returned %s", resp.Status)
		}
		return nil
	})
	if errors.Is(cbErr, circuitbreaker.ErrOpen) {
		metrics.RecordBrokerCallLatency("rejected", time.Since(start))
		return "", apperr.Upstream("identity broker unavailable", cbErr)
	}
	if resp == nil {
		metrics.RecordBrokerCallLatency("error", time.Since(start))
		return "", apperr.Upstream("failed to get OAuth token", cbErr)
	}
	defer resp.Body.Close()
	metrics.RecordBrokerCallLatency(resp.Status, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", apperr.Upstream("failed to get OAuth token: "+resp.Status, nil)
	}

	var entries []tokenEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return "", apperr.Upstream("failed to decode OAuth token response", err)
	}
	if len(entries) == 0 || entries[0].Token == "" {
		return "", apperr.Upstream("no OAuth access token found", nil)
	}
	return entries[0].Token, nil
}
