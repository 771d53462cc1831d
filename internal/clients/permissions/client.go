package permissions

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/titlememory-backend/internal/platform/httpx"
	"github.com/yungbote/titlememory-backend/internal/platform/logger"
)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	http *httpx.Client
	log  *logger.Logger
}

func New(log *logger.Logger, cfg Config, obs httpx.Observer) (*Client, error) {
	hc, err := httpx.New("permissions", cfg.BaseURL, cfg.Timeout, log, obs)
	if err != nil {
		return nil, err
	}
	return &Client{http: hc, log: log.With("client", "PermissionsClient")}, nil
}

type grant struct {
	MemoryID string `json:"memoryId"`
}

// TitleMemoryIDs lists the title memory ids the token's user was granted,
// deduplicated and in response order.
func (c *Client) TitleMemoryIDs(ctx context.Context, token string) ([]string, error) {
	var resp struct {
		Data []grant `json:"data"`
	}
	if err := c.http.Do(ctx, httpx.Request{
		Op:     "permissions.by_user",
		Method: http.MethodGet,
		Path:   "/permissions/getByUserId",
		Token:  token,
	}, &resp); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(resp.Data))
	out := make([]string, 0, len(resp.Data))
	for _, g := range resp.Data {
		id := strings.TrimSpace(g.MemoryID)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}
