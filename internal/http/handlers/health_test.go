package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/titlememory-backend/internal/platform/logger"
)

func TestHealthCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ok := func(ctx context.Context) error { return nil }
	down := func(ctx context.Context) error { return errors.New("dial tcp: refused") }

	cases := []struct {
		name   string
		checks map[string]HealthCheck
		status int
		body   string
	}{
		{"all up", map[string]HealthCheck{"db": ok, "redis": ok}, http.StatusOK, `{"status":"ok","checks":{"db":"ok","redis":"ok"}}`},
		{"redis down", map[string]HealthCheck{"db": ok, "redis": down}, http.StatusServiceUnavailable, `{"status":"degraded","checks":{"db":"ok","redis":"down"}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/healthcheck", NewHealthHandler(logger.Nop(), tc.checks).HealthCheck)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
			require.Equal(t, tc.status, rec.Code)
			require.JSONEq(t, tc.body, rec.Body.String())
		})
	}
}
