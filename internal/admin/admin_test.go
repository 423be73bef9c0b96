package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/msgsink/internal/config"
	"github.com/danmuck/msgsink/internal/feed"
	"github.com/danmuck/msgsink/internal/observability"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
)

type fakeStats struct {
	sessions []feed.SessionInfo
}

func (f fakeStats) Snapshot() []feed.SessionInfo { return f.sessions }

func (f fakeStats) Totals() feed.Totals {
	t := feed.Totals{Sessions: uint64(len(f.sessions))}
	for _, s := range f.sessions {
		t.Bytes += s.Bytes
		t.Messages += s.Messages
	}
	return t
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	a := New(Config{ID: "sinkctl.test"})
	rec := get(t, a.Handler(), "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" || body["service"] != "sinkctl.test" {
		t.Fatalf("unexpected body: %v", body)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("cors origin header=%q", got)
	}
}

func TestStatsReportsSessions(t *testing.T) {
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	stats := fakeStats{sessions: []feed.SessionInfo{
		{ID: "a", Remote: "127.0.0.1:5000", StartedAt: started, Bytes: 10, Messages: 2},
		{ID: "b", Remote: "127.0.0.1:5001", StartedAt: started, Bytes: 4, Messages: 1},
	}}
	a := New(Config{Stats: stats})
	rec := get(t, a.Handler(), "/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	var body struct {
		Totals   feed.Totals        `json:"totals"`
		Sessions []feed.SessionInfo `json:"sessions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(feed.Totals{Sessions: 2, Bytes: 14, Messages: 3}, body.Totals); diff != "" {
		t.Fatalf("totals mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(stats.sessions, body.Sessions); diff != "" {
		t.Fatalf("sessions mismatch (-want +got):\n%s", diff)
	}
}

func TestStatsWithoutSource(t *testing.T) {
	a := New(Config{})
	rec := get(t, a.Handler(), "/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"sessions":[]`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestProfileEndpoint(t *testing.T) {
	modem := config.DefaultProfile()
	modem.Name = "modem"
	modem.Capacity = 64
	a := New(Config{Profile: func() config.Profile { return modem }})
	rec := get(t, a.Handler(), "/profile")
	var body struct {
		Name     string `json:"name"`
		Capacity int    `json:"capacity"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Name != "modem" || body.Capacity != 64 {
		t.Fatalf("unexpected profile: %+v", body)
	}
}

func TestMetricsExposesFeedCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	m.BytesTotal.WithLabelValues("test").Add(3)
	a := New(Config{Gatherer: reg})
	rec := get(t, a.Handler(), "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `msgsink_feed_bytes_total{source="test"} 3`) {
		t.Fatalf("metrics output missing feed counter:\n%s", rec.Body.String())
	}
}
