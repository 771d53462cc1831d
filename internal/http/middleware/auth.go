package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/titlememory-backend/internal/http/response"
	"github.com/yungbote/titlememory-backend/internal/platform/apierr"
	"github.com/yungbote/titlememory-backend/internal/platform/ctxutil"
	"github.com/yungbote/titlememory-backend/internal/platform/logger"
)

// TokenVerifier resolves a bearer token to the caller's user id.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

type AuthMiddleware struct {
	log      *logger.Logger
	verifier TokenVerifier
}

func NewAuthMiddleware(log *logger.Logger, verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), verifier: verifier}
}

// RequireAuth rejects requests without a token the identity service accepts.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.RespondAPIError(c, apierr.Unauthorized("no token provided"))
			return
		}
		if !am.attach(c, token) {
			response.RespondAPIError(c, apierr.Unauthorized("invalid token"))
			return
		}
		c.Next()
	}
}

// OptionalAuth attaches the caller when a valid token is present and lets
// the request through either way.
func (am *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			am.attach(c, token)
		}
		c.Next()
	}
}

func (am *AuthMiddleware) attach(c *gin.Context, token string) bool {
	userID, err := am.verifier.VerifyToken(c.Request.Context(), token)
	if err != nil || strings.TrimSpace(userID) == "" {
		am.log.Debug("token rejected", "path", c.FullPath(), "error", err)
		return false
	}
	ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{UserID: userID, Token: token})
	c.Request = c.Request.WithContext(ctx)
	return true
}

func bearerToken(c *gin.Context) string {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
