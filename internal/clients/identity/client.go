package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/titlememory-backend/internal/platform/httpx"
	"github.com/yungbote/titlememory-backend/internal/platform/logger"
)

// ErrInvalidToken is returned when the identity service rejects a token.
var ErrInvalidToken = errors.New("invalid token")

type Config struct {
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// CacheRecorder counts cache lookups.
type CacheRecorder interface {
	RecordIdentityCache(hit bool)
}

// Client resolves bearer tokens to user ids through the identity service,
// with an optional Redis cache in front.
type Client struct {
	http    *httpx.Client
	rdb     *goredis.Client
	ttl     time.Duration
	metrics CacheRecorder
	log     *logger.Logger
	now     func() time.Time
}

// New builds the client. rdb may be nil to disable caching.
func New(log *logger.Logger, cfg Config, rdb *goredis.Client, obs httpx.Observer, metrics CacheRecorder) (*Client, error) {
	hc, err := httpx.New("identity", cfg.BaseURL, cfg.Timeout, log, obs)
	if err != nil {
		return nil, err
	}
	return &Client{
		http:    hc,
		rdb:     rdb,
		ttl:     cfg.CacheTTL,
		metrics: metrics,
		log:     log.With("client", "IdentityClient"),
		now:     time.Now,
	}, nil
}

type verifyResponse struct {
	UserID string `json:"userId"`
	User   *struct {
		MongoID string `json:"_id"`
		ID      string `json:"id"`
	} `json:"user"`
	Data *struct {
		User *struct {
			MongoID string `json:"_id"`
			ID      string `json:"id"`
		} `json:"user"`
	} `json:"data"`
}

func (v verifyResponse) userID() string {
	candidates := []string{v.UserID}
	if v.User != nil {
		candidates = append(candidates, v.User.MongoID, v.User.ID)
	}
	if v.Data != nil && v.Data.User != nil {
		candidates = append(candidates, v.Data.User.MongoID, v.Data.User.ID)
	}
	for _, c := range candidates {
		if s := strings.TrimSpace(c); s != "" {
			return s
		}
	}
	return ""
}

// VerifyToken returns the user id behind token. A rejected token yields
// ErrInvalidToken; transport failures are returned as-is.
func (c *Client) VerifyToken(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrInvalidToken
	}
	key := cacheKey(token)
	if userID := c.cached(ctx, key); userID != "" {
		return userID, nil
	}

	var resp verifyResponse
	err := c.http.Do(ctx, httpx.Request{
		Op:     "token.verify",
		Method: http.MethodGet,
		Path:   "/api/auth/verify-token",
		Token:  token,
	}, &resp)
	if httpx.HasStatus(err, http.StatusUnauthorized, http.StatusForbidden, http.StatusBadRequest, http.StatusNotFound) {
		return "", ErrInvalidToken
	}
	if err != nil {
		return "", err
	}
	userID := resp.userID()
	if userID == "" {
		return "", ErrInvalidToken
	}
	c.store(ctx, key, token, userID)
	return userID, nil
}

func (c *Client) cached(ctx context.Context, key string) string {
	if c.rdb == nil {
		return ""
	}
	userID, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.log.Warn("identity cache read failed", "error", err)
		}
		if c.metrics != nil {
			c.metrics.RecordIdentityCache(false)
		}
		return ""
	}
	if c.metrics != nil {
		c.metrics.RecordIdentityCache(true)
	}
	return userID
}

func (c *Client) store(ctx context.Context, key, token, userID string) {
	if c.rdb == nil {
		return
	}
	ttl := c.cacheTTL(token)
	if ttl <= 0 {
		return
	}
	if err := c.rdb.Set(ctx, key, userID, ttl).Err(); err != nil {
		c.log.Warn("identity cache write failed", "error", err)
	}
}

// cacheTTL never lets an entry outlive the token's own exp claim. The
// token is only inspected, not trusted: the identity service already
// verified it.
func (c *Client) cacheTTL(token string) time.Duration {
	ttl := c.ttl
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ttl
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return ttl
	}
	if remaining := exp.Time.Sub(c.now()); remaining < ttl {
		return remaining
	}
	return ttl
}

func cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "identity:token:" + hex.EncodeToString(sum[:])
}
