package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"bitbucket.org/mmdatafocus/trader_backend/config"
)

// The limiter is wired only after the dependencies connect, which is after
// the routes exist and their handler chains are snapshotted. The gate
// middleware sits in the chain from the start, so a limiter assigned later
// must still apply to every route.
func TestRateLimiterAppliesWhenAssignedAfterRouteRegistration(t *testing.T) {
	gin.SetMode(gin.TestMode)
	app := &application{logger: config.NewLogger()}
	r := app.buildRouter()

	get := func(path string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		r.ServeHTTP(w, req)
		return w.Code
	}

	// startup probe answers before readiness
	if code := get("/healthz"); code != http.StatusNoContent {
		t.Fatalf("healthz: expected 204, got %d", code)
	}
	// everything else is gated until wiring finishes
	if code := get("/nope"); code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before ready, got %d", code)
	}

	app.ready.Store(true)
	if code := get("/nope"); code != http.StatusNotFound {
		t.Fatalf("expected 404 without a limiter, got %d", code)
	}

	// a limiter backed by an unreachable redis fails closed with 500; seeing
	// that failure proves the gate runs for routes registered before the
	// limiter was assigned
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	app.limiter = NewRateLimiter(client, 1, time.Minute)

	if code := get("/nope"); code != http.StatusInternalServerError {
		t.Fatalf("expected the limiter to intercept the request, got %d", code)
	}
}
