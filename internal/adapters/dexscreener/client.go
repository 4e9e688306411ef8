package dexscreener

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/jortega/memetrader/internal/domain"
	"github.com/jortega/memetrader/internal/ports"
)

const (
	defaultBase = "https://api.dexscreener.com/latest/dex"

	// DexScreener allows 300 req/min on the search endpoint; stay at 60%.
	searchRatePerSec = 3

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client fetches candidate pair observations from DexScreener with rate
// limiting, retries and a circuit breaker. Implements ports.MarketProvider.
type Client struct {
	http     *http.Client
	base     string
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker
	maxPairs int
}

// NewClient creates a Client. base empty means production; maxPairs caps
// how many observations a fetch returns (0 = 50).
func NewClient(base string, maxPairs int) *Client {
	if base == "" {
		base = defaultBase
	}
	if maxPairs <= 0 {
		maxPairs = 50
	}

	settings := gobreaker.Settings{
		Name:     "dexscreener",
		Interval: 60 * time.Second,
		Timeout:  60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("dexscreener: circuit state change", "from", from.String(), "to", to.String())
		},
	}

	return &Client{
		http:     &http.Client{Timeout: 10 * time.Second},
		base:     base,
		limiter:  rate.NewLimiter(searchRatePerSec, 5),
		breaker:  gobreaker.NewCircuitBreaker(settings),
		maxPairs: maxPairs,
	}
}

// FetchObservations pulls fresh and trending pairs and normalizes them
// into observations. Any failure surfaces as domain.ErrDataUnavailable so
// the loop skips the tick instead of crashing.
func (c *Client) FetchObservations(ctx context.Context) ([]domain.TokenObservation, error) {
	now := time.Now().UTC()

	result, err := c.breaker.Execute(func() (any, error) {
		fresh, err := c.search(ctx, "created")
		if err != nil {
			return nil, err
		}
		trending, err := c.search(ctx, "volume")
		if err != nil {
			return nil, err
		}
		return append(fresh, trending...), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: dexscreener: %v", domain.ErrDataUnavailable, err)
	}

	pairs := result.([]pair)
	observations := make([]domain.TokenObservation, 0, len(pairs))
	seen := make(map[string]bool, len(pairs))
	for _, p := range pairs {
		obs, ok := mapPair(p, now)
		if !ok || seen[obs.Token] {
			continue
		}
		seen[obs.Token] = true
		observations = append(observations, obs)
		if len(observations) >= c.maxPairs {
			break
		}
	}

	slog.Debug("dexscreener: fetched observations",
		"pairs", len(pairs), "observations", len(observations))
	return observations, nil
}

// FetchTokens returns fresh observations for specific pair addresses.
// The search endpoint resolves addresses directly; results for other
// pairs are discarded.
func (c *Client) FetchTokens(ctx context.Context, tokens []string) ([]domain.TokenObservation, error) {
	now := time.Now().UTC()

	observations := make([]domain.TokenObservation, 0, len(tokens))
	for _, token := range tokens {
		pairs, err := c.search(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("%w: dexscreener: %v", domain.ErrDataUnavailable, err)
		}
		for _, p := range pairs {
			if p.PairAddress != token {
				continue
			}
			if obs, ok := mapPair(p, now); ok {
				observations = append(observations, obs)
			}
			break
		}
	}
	return observations, nil
}

// search queries the search endpoint with rate limiting and retries.
func (c *Client) search(ctx context.Context, query string) ([]pair, error) {
	url := fmt.Sprintf("%s/search/?q=%s", c.base, query)

	var resp searchResponse
	if err := c.get(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return resp.Pairs, nil
}

// get performs a GET with rate limiting and exponential-backoff retries
// on transient failures (network errors, 429, 5xx).
func (c *Client) get(ctx context.Context, url string, out any) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
		} else {
			lastErr = c.decode(resp, out)
			if lastErr == nil {
				return nil
			}
			if !retryable(resp.StatusCode) {
				return lastErr
			}
		}

		if attempt < maxRetries {
			wait := baseRetryWait << attempt
			slog.Debug("dexscreener: retrying", "url", url, "attempt", attempt+1, "wait", wait)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

func (c *Client) decode(resp *http.Response, out any) error {
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

var _ ports.MarketProvider = (*Client)(nil)
