package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/titlememory-backend/internal/platform/ctxutil"
)

func TestAttachTraceContextRecordsTitleMemory(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var seen *ctxutil.TraceData
	r := gin.New()
	r.Use(AttachTraceContext())
	handler := func(c *gin.Context) {
		seen = ctxutil.GetTraceData(c.Request.Context())
		c.Status(http.StatusOK)
	}
	r.GET("/api/title-memories/:id", handler)
	r.GET("/api/title-memories", handler)

	req := httptest.NewRequest(http.MethodGet, "/api/title-memories/rec-1", nil)
	req.Header.Set(headerRequestID, "req-42")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if seen == nil {
		t.Fatalf("trace data missing from request context")
	}
	if seen.RequestID != "req-42" || seen.TitleMemoryID != "rec-1" || seen.TraceID == "" {
		t.Fatalf("trace data: got=%+v", seen)
	}
	if got := rec.Header().Get(headerTitleMemoryID); got != "rec-1" {
		t.Fatalf("%s: want=rec-1 got=%q", headerTitleMemoryID, got)
	}
	if got := rec.Header().Get(headerRequestID); got != "req-42" {
		t.Fatalf("%s: want=req-42 got=%q", headerRequestID, got)
	}
	fields := seen.LogFields()
	if len(fields) != 6 || fields[4] != "title_memory_id" || fields[5] != "rec-1" {
		t.Fatalf("log fields: got=%v", fields)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/title-memories", nil))
	if seen.TitleMemoryID != "" || seen.RequestID == "" {
		t.Fatalf("listing trace data: got=%+v", seen)
	}
	if rec.Header().Get(headerTitleMemoryID) != "" {
		t.Fatalf("listing should not echo a title memory id")
	}
}
