package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/yungbote/titlememory-backend/internal/platform/ctxutil"
	"github.com/yungbote/titlememory-backend/internal/platform/logger"
)

// Observer receives one sample per upstream call.
type Observer interface {
	ObserveUpstream(service, op, outcome string, d time.Duration)
}

// Client issues JSON requests against one collaborating service. Calls are
// never retried.
type Client struct {
	service    string
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
	obs        Observer
}

func New(service, baseURL string, timeout time.Duration, log *logger.Logger, obs Observer) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("%s: base url required", service)
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("%s: invalid base url: %w", service, err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		service:    service,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With("client", service),
		obs:        obs,
	}, nil
}

// Request describes one call. Op is a low-cardinality label for metrics
// and logs (e.g. "skills.validate").
type Request struct {
	Op     string
	Method string
	Path   string
	Token  string
	Body   any
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Service    string
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := strings.TrimSpace(e.Body)
	if len(msg) > 200 {
		msg = msg[:200]
	}
	if msg == "" {
		return fmt.Sprintf("%s %s: status %d", e.Service, e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Service, e.Op, e.StatusCode, msg)
}

// HasStatus reports whether err is a StatusError with one of codes.
func HasStatus(err error, codes ...int) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	for _, c := range codes {
		if se.StatusCode == c {
			return true
		}
	}
	return false
}

// Do sends req and decodes a 2xx JSON body into out (when out is non-nil).
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	start := time.Now()
	status, err := c.do(ctx, req, out)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		if status != 0 {
			outcome = strconv.Itoa(status)
		}
	}
	if c.obs != nil {
		c.obs.ObserveUpstream(c.service, req.Op, outcome, time.Since(start))
	}
	if err != nil {
		c.log.Debug("upstream call failed", "op", req.Op, "status", status, "error", err)
	}
	return err
}

func (c *Client) do(ctx context.Context, req Request, out any) (int, error) {
	var body io.Reader = http.NoBody
	if req.Body != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(req.Body); err != nil {
			return 0, fmt.Errorf("%s %s: encode body: %w", c.service, req.Op, err)
		}
		body = buf
	}
	ctx = ctxutil.Default(ctx)
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, body)
	if err != nil {
		return 0, err
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}
	if td := ctxutil.GetTraceData(ctx); td != nil && td.RequestID != "" {
		httpReq.Header.Set("X-Request-Id", td.RequestID)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", c.service, req.Op, err)
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp.StatusCode, fmt.Errorf("%s %s: read body: %w", c.service, req.Op, readErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, &StatusError{Service: c.service, Op: req.Op, StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if out != nil && len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, fmt.Errorf("%s %s: decode body: %w", c.service, req.Op, err)
		}
	}
	return resp.StatusCode, nil
}
