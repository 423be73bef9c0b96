package observability

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func newTestEngine(logger zerolog.Logger, node string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(RequestLogger(logger))
	r.Use(RequestMetricsMiddleware(node))
	r.GET("/stats", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", func(c *gin.Context) { c.String(http.StatusOK, "# none") })
	return r
}

func serve(r http.Handler, path string) {
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
}

func TestRequestMetricsCollapseUnmatchedPaths(t *testing.T) {
	RegisterMetrics()
	node := "middleware.unmatched"
	r := newTestEngine(zerolog.Nop(), node)

	serve(r, "/stats")
	serve(r, "/nope/1")
	serve(r, "/nope/2")

	if got := testutil.ToFloat64(httpRequests.WithLabelValues(node, "GET", "/stats", "200")); got != 1 {
		t.Fatalf("stats requests=%v", got)
	}
	if got := testutil.ToFloat64(httpRequests.WithLabelValues(node, "GET", UnmatchedRoute, "404")); got != 2 {
		t.Fatalf("unmatched requests=%v", got)
	}
}

func TestRequestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	r := newTestEngine(logger, "middleware.levels")

	serve(r, "/metrics")
	if buf.Len() != 0 {
		t.Fatalf("scrape logged above trace: %s", buf.String())
	}

	serve(r, "/stats")
	if !strings.Contains(buf.String(), `"route":"/stats"`) || !strings.Contains(buf.String(), `"level":"debug"`) {
		t.Fatalf("unexpected stats log: %s", buf.String())
	}

	buf.Reset()
	serve(r, "/missing")
	out := buf.String()
	if !strings.Contains(out, `"level":"warn"`) || !strings.Contains(out, `"route":"unmatched"`) || !strings.Contains(out, `"path":"/missing"`) {
		t.Fatalf("unexpected 404 log: %s", out)
	}
}
