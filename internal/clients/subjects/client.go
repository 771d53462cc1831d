package subjects

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/yungbote/titlememory-backend/internal/domain/titlememory"
	"github.com/yungbote/titlememory-backend/internal/platform/httpx"
	"github.com/yungbote/titlememory-backend/internal/platform/logger"
)

type Config struct {
	BaseURL string
	Timeout time.Duration
	// Breaker opens after MinRequests calls in Interval with a failure
	// ratio of at least FailureRatio, and half-opens after OpenTimeout.
	MinRequests  uint32
	FailureRatio float64
	Interval     time.Duration
	OpenTimeout  time.Duration
}

func (c Config) withDefaults() Config {
	if c.MinRequests == 0 {
		c.MinRequests = 5
	}
	if c.FailureRatio <= 0 {
		c.FailureRatio = 0.6
	}
	if c.Interval <= 0 {
		c.Interval = 30 * time.Second
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = 30 * time.Second
	}
	return c
}

// ErrUnavailable is returned without calling the service while the
// breaker is open.
var ErrUnavailable = errors.New("subjects service unavailable (circuit open)")

// Client notifies the subjects service of title memory status changes.
type Client struct {
	http *httpx.Client
	cb   *gobreaker.CircuitBreaker
	log  *logger.Logger
}

func New(log *logger.Logger, cfg Config, obs httpx.Observer) (*Client, error) {
	cfg = cfg.withDefaults()
	hc, err := httpx.New("subjects", cfg.BaseURL, cfg.Timeout, log, obs)
	if err != nil {
		return nil, err
	}
	clientLog := log.With("client", "SubjectsClient")
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "subjects",
		MaxRequests: 1,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			clientLog.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return &Client{http: hc, cb: cb, log: clientLog}, nil
}

// ChangeStatus sends change to the subjects service on behalf of token.
func (c *Client) ChangeStatus(ctx context.Context, token string, change titlememory.StatusChange) error {
	_, err := c.cb.Execute(func() (any, error) {
		return nil, c.http.Do(ctx, httpx.Request{
			Op:     "subjects.change_status",
			Method: http.MethodPut,
			Path:   "/api/subjects/change-status/" + url.PathEscape(change.TitleMemoryID),
			Token:  token,
			Body:   change,
		}, nil)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
