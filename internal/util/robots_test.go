package util

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func robotsServer(t *testing.T, body string, fetches *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		if fetches != nil {
			fetches.Add(1)
		}
		_, _ = w.Write([]byte(body))
	}))
}

func TestCanFetch(t *testing.T) {
	srv := robotsServer(t, "User-agent: *\nDisallow: /private/\n", nil)
	defer srv.Close()

	checker := NewRobotsChecker("claimstream", 2*time.Second)
	ctx := context.Background()

	allowed, _, err := checker.CanFetch(ctx, srv.URL+"/public/page")
	if err != nil || !allowed {
		t.Errorf("public path: allowed=%v err=%v", allowed, err)
	}

	allowed, _, err = checker.CanFetch(ctx, srv.URL+"/private/page")
	if err != nil || allowed {
		t.Errorf("private path: allowed=%v err=%v", allowed, err)
	}
}

func TestCanFetch_CachesPerHost(t *testing.T) {
	var fetches atomic.Int32
	srv := robotsServer(t, "User-agent: *\nDisallow:\n", &fetches)
	defer srv.Close()

	checker := NewRobotsChecker("claimstream", 2*time.Second)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if !checker.IsAllowed(ctx, srv.URL+"/page") {
			t.Fatal("allowed path denied")
		}
	}
	if got := fetches.Load(); got != 1 {
		t.Errorf("robots.txt fetched %d times, want 1", got)
	}
}

func TestCanFetch_MissingRobotsAllows(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	checker := NewRobotsChecker("claimstream", 2*time.Second)
	if !checker.IsAllowed(context.Background(), srv.URL+"/anything") {
		t.Error("missing robots.txt denied fetch")
	}
}

func TestCanFetch_UnreachableHostAllows(t *testing.T) {
	checker := NewRobotsChecker("claimstream", 100*time.Millisecond)
	if !checker.IsAllowed(context.Background(), "http://127.0.0.1:1/page") {
		t.Error("unreachable robots.txt denied fetch")
	}
}
