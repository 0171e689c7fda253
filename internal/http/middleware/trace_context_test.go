package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/courseguide-backend/internal/observability"
	"github.com/yungbote/courseguide-backend/internal/platform/ctxutil"
	"github.com/yungbote/courseguide-backend/internal/platform/logger"
)

func TestAttachTraceContextEchoesAndGenerates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext(), RequestLogger(logger.NewNop()))
	var seen *ctxutil.TraceData
	r.GET("/x", func(c *gin.Context) {
		seen = ctxutil.GetTraceData(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "req-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if seen == nil || seen.RequestID != "req-1" || seen.TraceID == "" {
		t.Fatalf("trace data=%+v", seen)
	}
	if rec.Header().Get("X-Request-Id") != "req-1" || rec.Header().Get("X-Trace-Id") != seen.TraceID {
		t.Fatalf("headers not echoed: %v", rec.Header())
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("request id should be generated")
	}
}

func TestAttachTraceContextRejectsUnsafeClientIDs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "bad id; drop table")
	req.Header.Set("X-Trace-Id", "trace-abc.1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-Id"); got == "" || got == "bad id; drop table" {
		t.Fatalf("unsafe request id should be replaced, got %q", got)
	}
	if got := rec.Header().Get("X-Trace-Id"); got != "trace-abc.1" {
		t.Fatalf("safe trace id should be kept, got %q", got)
	}
}

func TestClientID(t *testing.T) {
	long := make([]byte, maxClientIDLen+1)
	for i := range long {
		long[i] = 'a'
	}
	cases := map[string]bool{
		"":                         false,
		"abc-123_X.y:z":            true,
		"has space":                false,
		"semi;colon":               false,
		string(long):               false,
		string(long[:len(long)-1]): true,
	}
	for in, want := range cases {
		if _, ok := clientID(in); ok != want {
			t.Errorf("clientID(%q)=%v want %v", in, ok, want)
		}
	}
}

func TestMetricsMiddlewareObservesRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := observability.NewMetrics()
	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/api/course-guide", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/course-guide?userId=u1", nil))

	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "courseguide_api_requests_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range metric.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["route"] == "/api/course-guide" && labels["status"] == "200" && metric.GetCounter().GetValue() == 1 {
				return
			}
		}
	}
	t.Fatalf("request was not counted")
}
