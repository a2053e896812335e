package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestExtractClientIP(t *testing.T) {
	cases := []struct {
		name   string
		remote string
		xff    string
		xri    string
		want   string
	}{
		{"direct", "203.0.113.7:1234", "", "", "203.0.113.7"},
		{"untrusted proxy ignored", "203.0.113.7:1234", "198.51.100.1", "", "203.0.113.7"},
		{"trusted proxy xff", "10.0.0.2:80", "198.51.100.1, 10.0.0.2", "", "198.51.100.1"},
		{"trusted proxy real ip", "127.0.0.1:80", "", "198.51.100.9", "198.51.100.9"},
		{"trusted proxy junk header", "127.0.0.1:80", "not-an-ip", "", "127.0.0.1"},
		{"no port", "198.51.100.3", "", "", "198.51.100.3"},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = tc.remote
		if tc.xff != "" {
			r.Header.Set("X-Forwarded-For", tc.xff)
		}
		if tc.xri != "" {
			r.Header.Set("X-Real-IP", tc.xri)
		}
		if got := extractClientIP(r); got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestDetectSuspiciousRequest(t *testing.T) {
	var m securityMetrics
	bad := []*http.Request{
		httptest.NewRequest(http.MethodGet, "/../../etc/passwd", nil),
		httptest.NewRequest(http.MethodGet, "/.env", nil),
		httptest.NewRequest("TRACE", "/", nil),
	}
	scanner := httptest.NewRequest(http.MethodGet, "/", nil)
	scanner.Header.Set("User-Agent", "sqlmap/1.7")
	bad = append(bad, scanner)

	for _, r := range bad {
		if !detectSuspiciousRequest(r, &m) {
			t.Fatalf("expected %s %s to be flagged", r.Method, r.URL)
		}
	}
	if m.suspiciousCount() != int64(len(bad)) {
		t.Fatalf("expected %d flagged, got %d", len(bad), m.suspiciousCount())
	}

	ok := httptest.NewRequest(http.MethodGet, "/ui/summary?year=2024&month=1&unit=GB", nil)
	if detectSuspiciousRequest(ok, &m) {
		t.Fatalf("normal request flagged")
	}
}

func TestRateLimiter_Window(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := newRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }
	var m securityMetrics

	if !rl.allow("a", &m) || !rl.allow("a", &m) {
		t.Fatalf("first two requests should pass")
	}
	if rl.allow("a", &m) {
		t.Fatalf("third request should be limited")
	}
	if !rl.allow("b", &m) {
		t.Fatalf("clients are limited independently")
	}
	if m.rateLimitHitsCount() != 1 {
		t.Fatalf("expected 1 hit, got %d", m.rateLimitHitsCount())
	}

	now = now.Add(time.Minute)
	if !rl.allow("a", &m) {
		t.Fatalf("new window should reset the counter")
	}

	now = now.Add(5 * time.Minute)
	if removed := rl.cleanupStaleEntries(); removed != 2 {
		t.Fatalf("expected 2 stale clients removed, got %d", removed)
	}
	rl.close()
	rl.close()
}
