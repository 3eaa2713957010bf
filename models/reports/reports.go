package reports

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/trader_backend/appctx"
	"bitbucket.org/mmdatafocus/trader_backend/config"
)

// PlaceholderLabel substitutes missing foreign references in report rows.
// Reports never fail on a dangling id; the row keeps its numbers and gets
// this label instead of a name.
const PlaceholderLabel = "unknown"

// Reports is the read-only aggregation surface over sales, requests, orders
// and stock. It never mutates; it may run concurrently with any write and
// accepts read skew.
type Reports struct {
	db    *gorm.DB
	cache *config.RedisStore
}

func NewReports(db *gorm.DB, cache *config.RedisStore) *Reports {
	return &Reports{db: db, cache: cache}
}

func reportCacheEnabled() bool {
	v := strings.TrimSpace(os.Getenv("ENABLE_REPORT_CACHE"))
	return v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes") || strings.EqualFold(v, "on")
}

func reportCacheTTL() time.Duration {
	// Env: REPORT_CACHE_TTL_SECONDS (default 120s)
	ttl := 120
	if v := strings.TrimSpace(os.Getenv("REPORT_CACHE_TTL_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ttl = n
		}
	}
	return time.Duration(ttl) * time.Second
}

func reportSlowMs() int64 {
	// Env: REPORT_SLOW_MS (default 500ms)
	ms := int64(500)
	if v := strings.TrimSpace(os.Getenv("REPORT_SLOW_MS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			ms = n
		}
	}
	return ms
}

func logSlowReport(ctx context.Context, name string, started time.Time, extra map[string]any) {
	d := time.Since(started)
	if d.Milliseconds() < reportSlowMs() {
		return
	}
	cid, _ := appctx.GetString(ctx, appctx.ContextKeyCorrelationId)
	log.Printf("slow_report name=%s ms=%d correlation_id=%s extra=%v", name, d.Milliseconds(), cid, extra)
}

func (r *Reports) cacheGet(ctx context.Context, key string, dest any) bool {
	if !reportCacheEnabled() || r.cache == nil {
		return false
	}
	found, err := r.cache.GetObject(ctx, key, dest)
	if err != nil {
		log.Printf("report cache read failed key=%s: %v", key, err)
		return false
	}
	return found
}

func (r *Reports) cacheSet(ctx context.Context, key string, obj any) {
	if !reportCacheEnabled() || r.cache == nil {
		return
	}
	if err := r.cache.SetObject(ctx, key, obj, reportCacheTTL()); err != nil {
		log.Printf("report cache write failed key=%s: %v", key, err)
	}
}
