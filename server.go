package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/trader_backend/appctx"
	"bitbucket.org/mmdatafocus/trader_backend/config"
	"bitbucket.org/mmdatafocus/trader_backend/models"
	"bitbucket.org/mmdatafocus/trader_backend/models/reports"
	"bitbucket.org/mmdatafocus/trader_backend/utils"
	"bitbucket.org/mmdatafocus/trader_backend/workflow"
)

const defaultPort = "8080"

var tracer = otel.Tracer("trader-backend")

// application wires every core component onto one DB handle. Handlers are
// registered before the database is up (the container must listen on $PORT
// quickly); the readiness gate keeps traffic out until wiring is done.
type application struct {
	ready  atomic.Bool
	logger *logrus.Logger

	db    *gorm.DB
	redis *config.RedisStore

	tradePoints *models.TradePointStore
	products    *models.ProductStore
	stocks      *models.StockStore
	requests    *models.RequestLedger
	orders      *models.OrderLedger
	fulfillment *workflow.FulfillmentEngine
	saleRec     *workflow.SaleRecorder
	reports     *reports.Reports

	// limiter is assigned during wiring, before ready flips; the gate
	// middleware in buildRouter reads it only after the readiness check, so
	// the ready.Store/Load pair orders the write.
	limiter *RateLimiter
}

// RateLimiter is an optional redis-backed per-IP limiter.
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	logger := config.NewLogger()
	app := &application{logger: logger}

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("tradepointtype", func(fl validator.FieldLevel) bool {
			return models.TradePointType(fl.Field().String()).Valid()
		})
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := app.buildRouter()

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	db := config.ConnectDatabaseWithRetry()
	redisStore := config.ConnectRedis()

	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable(db)
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	app.db = db
	app.redis = redisStore
	app.tradePoints = models.NewTradePointStore(db)
	app.products = models.NewProductStore(db)
	app.stocks = models.NewStockStore(db)
	app.requests = models.NewRequestLedger(db)
	app.orders = models.NewOrderLedger(db)
	app.fulfillment = workflow.NewFulfillmentEngine(db, logger, redisStore)
	app.saleRec = workflow.NewSaleRecorder(db, logger)
	app.reports = reports.NewReports(db, redisStore)

	// Optional rate limiting. Env:
	// - RATE_LIMIT_ENABLED=true
	// - RATE_LIMIT_WINDOW_SECONDS=60
	// - RATE_LIMIT_MAX_REQUESTS=600
	if strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") && redisStore != nil {
		limit := int64FromEnv("RATE_LIMIT_MAX_REQUESTS", 600)
		windowSec := int64FromEnv("RATE_LIMIT_WINDOW_SECONDS", 60)
		app.limiter = NewRateLimiter(redisStore.Client, limit, time.Duration(windowSec)*time.Second)
	}

	app.ready.Store(true)
	logger.WithFields(logrus.Fields{"info": "Connection Established"}).Info("listening on :", port)

	select {
	case <-sigCtx.Done():
		// fall through to the drain
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if sqlDB, err := db.DB(); err == nil && sqlDB != nil {
		_ = sqlDB.Close()
	}
	redisStore.Close()
}

// buildRouter assembles the full middleware chain and routes. Route handler
// chains are snapshotted at registration, so every middleware (including the
// rate-limiter gate, whose limiter arrives only after the dependencies are
// wired) must be attached here, before registerRoutes.
func (app *application) buildRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(correlationMiddleware())
	r.Use(customErrorLogger(app.logger))
	r.Use(func(c *gin.Context) {
		// Always answer the startup probe.
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if !app.ready.Load() {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		if rl := app.limiter; rl != nil {
			rl.RateLimitMiddleware(c)
			return
		}
		c.Next()
	})

	corsConfig := cors.DefaultConfig()
	// Explicit allowlist via CORS_ALLOWED_ORIGINS in production, allow-all
	// otherwise.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	r.Use(cors.New(corsConfig))

	app.registerRoutes(r)
	return r
}

func (app *application) registerRoutes(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	// trade point registry
	r.POST("/trade-points", app.createTradePoint)
	r.GET("/trade-points", app.listTradePoints)
	r.PUT("/trade-points/:id", app.updateTradePoint)
	r.DELETE("/trade-points/:id", app.deleteTradePoint)
	r.GET("/trade-points/:id/inventory", app.getInventorySnapshot)
	r.PUT("/sellers/:id/trade-point", app.reassignSeller)

	// product catalog
	r.POST("/products", app.createProduct)
	r.GET("/products", app.listProducts)
	r.GET("/products/:id", app.getProduct)
	r.PUT("/products/:id", app.updateProduct)

	// stock requests
	r.POST("/requests", app.createRequest)
	r.GET("/requests/pending", app.listPendingRequests)

	// supplier orders and fulfillment
	r.POST("/supplier-orders", app.createSupplierOrder)
	r.GET("/supplier-orders/unreceived", app.listUnreceivedOrders)
	r.POST("/supplier-orders/:id/receive", app.receiveSupplierOrder)

	// sales
	r.POST("/sales", app.recordSale)
	r.GET("/sales", app.listSales)
	r.PUT("/sales/:id", app.updateSale)
	r.DELETE("/sales/:id", app.deleteSale)

	// reports
	r.GET("/reports/active-customers", app.reportActiveCustomers)
	r.GET("/reports/product-sales", app.reportProductSales)
	r.GET("/reports/supplier-deliveries", app.reportSupplierDeliveries)
	r.GET("/reports/profitability", app.reportProfitability)
	r.GET("/reports/turnover", app.reportTurnover)
	r.GET("/reports/inventory/:id", app.reportInventory)
	r.GET("/reports/inventory/:id/export", app.exportInventory)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
}

// writeError maps the failure taxonomy onto status codes. Anything outside
// the taxonomy is an internal fault: logged here, opaque to the caller.
func (app *application) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, utils.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrInsufficientStock):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrAlreadyReceived):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrEmptySelection):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case utils.IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		config.LogError(app.logger, "server.go", "writeError", c.FullPath(), nil, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (app *application) createTradePoint(c *gin.Context) {
	var input models.NewTradePoint
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tradePoint, err := app.tradePoints.Create(c.Request.Context(), &input)
	if err != nil {
		app.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tradePoint)
}

func (app *application) listTradePoints(c *gin.Context) {
	var name *string
	if v := c.Query("name"); v != "" {
		name = &v
	}
	results, err := app.tradePoints.List(c.Request.Context(), name)
	if err != nil {
		app.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (app *application) updateTradePoint(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var input models.NewTradePoint
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tradePoint, err := app.tradePoints.Update(c.Request.Context(), id, &input)
	if err != nil {
		app.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tradePoint)
}

func (app *application) deleteTradePoint(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	tradePoint, err := app.tradePoints.Delete(c.Request.Context(), id)
	if err != nil {
		app.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tradePoint)
}

func (app *application) getInventorySnapshot(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	snapshot, err := app.stocks.Snapshot(c.Request.Context(), id)
	if err != nil {
		app.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (app *application) reassignSeller(c *gin.Context) {
	sellerID, ok := pathID(c)
	if !ok {
		return
	}
	var input struct {
		TradePointId int `json:"trade_point_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := app.tradePoints.ReassignSeller(c.Request.Context(), sellerID, input.TradePointId); err != nil {
		app.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (app *application) createProduct(c *gin.Context) {
	var input models.NewProduct
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	product, err := app.products.Create(c.Request.Context(), &input)
	if err != nil {
		app.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (app *application) listProducts(c *gin.Context) {
	var name *string
	if v := c.Query("name"); v != "" {
		name = &v
	}
	results, err := app.products.List(c.Request.Context(), name)
	if err != nil {
		app.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (app *application) getProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	product, err := app.products.Get(c.Request.Context(), id)
	if err != nil {
		app.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (app *application) updateProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var input models.NewProduct
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	product, err := app.products.Update(c.Request.Context(), id, &input)
	if err != nil {
		app.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (app *application) createRequest(c *gin.Context) {
	var input models.NewStockRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	request, err := app.requests.Create(c.Request.Context(), &input)
	if err != nil {
		app.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, request)
}

func (app *application) listPendingRequests(c *gin.Context) {
	results, err := app.requests.ListPending(c.Request.Context())
	if err != nil {
		app.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (app *application) createSupplierOrder(c *gin.Context) {
	var input models.NewSupplierOrder
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	order, err := app.orders.Create(c.Request.Context(), &input)
	if err != nil {
		app.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (app *application) listUnreceivedOrders(c *gin.Context) {
	results, err := app.orders.ListUnreceived(c.Request.Context())
	if err != nil {
		app.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (app *application) receiveSupplierOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ctx, span := tracer.Start(c.Request.Context(), "receiveSupplierOrder")
	defer span.End()
	if err := app.fulfillment.Receive(ctx, id); err != nil {
		app.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

func (app *application) recordSale(c *gin.Context) {
	var input models.NewSale
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sale, err := app.saleRec.Record(c.Request.Context(), &input)
	if err != nil {
		app.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sale)
}

func (app *application) listSales(c *gin.Context) {
	filter := models.SaleFilter{}
	if v, ok := queryInt(c, "trade_point_id"); ok {
		filter.TradePointId = &v
	}
	if v, ok := queryInt(c, "seller_id"); ok {
		filter.SellerId = &v
	}
	if v, ok := queryDate(c, "from"); ok {
		filter.FromDate = &v
	}
	if v, ok := queryDate(c, "to"); ok {
		filter.ToDate = &v
	}
	results, err := models.ListSales(c.Request.Context(), app.db, &filter)
	if err != nil {
		app.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (app *application) updateSale(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var input models.NewSale
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sale, err := app.saleRec.Update(c.Request.Context(), id, &input)
	if err != nil {
		app.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

func (app *application) deleteSale(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	sale, err := app.saleRec.Delete(c.Request.Context(), id)
	if err != nil {
		app.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

func (app *application) reportActiveCustomers(c *gin.Context) {
	limit := 10
	if v, ok := queryInt(c, "limit"); ok {
		limit = v
	}
	rows, err := app.reports.GetActiveCustomersReport(c.Request.Context(), limit)
	if err != nil {
		app.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"title": reports.TitleActiveCustomers, "rows": rows})
}

func (app *application) reportProductSales(c *gin.Context) {
	var productID *int
	if v, ok := queryInt(c, "product_id"); ok {
		productID = &v
	}
	minQty := 0
	if v, ok := queryInt(c, "min_qty"); ok {
		minQty = v
	}
	rows, err := app.reports.GetProductSalesReport(c.Request.Context(), productID, minQty)
	if err != nil {
		app.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"title": reports.TitleProductSales, "rows": rows})
}

func (app *application) reportSupplierDeliveries(c *gin.Context) {
	productID, ok := queryInt(c, "product_id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product_id is required"})
		return
	}
	minQty := 0
	if v, ok := queryInt(c, "min_qty"); ok {
		minQty = v
	}
	rows, err := app.reports.GetSupplierDeliveriesReport(c.Request.Context(), productID, minQty)
	if err != nil {
		app.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"title": reports.TitleSupplierDeliveries, "rows": rows})
}

func (app *application) reportProfitability(c *gin.Context) {
	tradePointID, ok := queryInt(c, "trade_point_id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "trade_point_id is required"})
		return
	}
	fromDate, okFrom := queryDate(c, "from")
	toDate, okTo := queryDate(c, "to")
	if !okFrom || !okTo {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to dates are required (YYYY-MM-DD)"})
		return
	}
	row, err := app.reports.GetProfitabilityReport(c.Request.Context(), tradePointID, fromDate, toDate)
	if err != nil {
		app.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"title": reports.TitleTradePointProfitability, "row": row})
}

func (app *application) reportTurnover(c *gin.Context) {
	var tradePointID *int
	if v, ok := queryInt(c, "trade_point_id"); ok {
		tradePointID = &v
	}
	fromDate, okFrom := queryDate(c, "from")
	toDate, okTo := queryDate(c, "to")
	if !okFrom || !okTo {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to dates are required (YYYY-MM-DD)"})
		return
	}
	rows, err := app.reports.GetTurnoverReport(c.Request.Context(), tradePointID, fromDate, toDate)
	if err != nil {
		app.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"title": reports.TitleTradeTurnover, "rows": rows})
}

func (app *application) reportInventory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	rows, err := app.reports.GetInventorySnapshotReport(c.Request.Context(), id)
	if err != nil {
		app.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"title": reports.TitleInventorySnapshot, "rows": rows})
}

func (app *application) exportInventory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	f, err := app.reports.ExportInventorySnapshotExcel(c.Request.Context(), id)
	if err != nil {
		app.writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="inventory_%d.xlsx"`, id))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		config.LogError(app.logger, "server.go", "exportInventory", "excel write", id, err)
	}
}

func pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string) (int, bool) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func queryDate(c *gin.Context, key string) (time.Time, bool) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// correlationMiddleware tags each request (and its context) with an id the
// structured logs can be joined on.
func correlationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := c.GetHeader("X-Correlation-Id")
		if cid == "" {
			cid = uuid.NewString()
		}
		ctx := appctx.Set(c.Request.Context(), appctx.ContextKeyCorrelationId, cid)
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Correlation-Id", cid)
		c.Next()
	}
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

// Initialize a new RateLimiter instance.
func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// Middleware function to check rate limits.
func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	key := c.ClientIP()

	exists, err := rl.client.Exists(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	if exists == 0 {
		err := rl.client.Set(c.Request.Context(), key, 1, rl.window).Err()
		if err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
		c.Next()
		return
	}

	count, err := rl.client.Incr(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}

	c.Next()
}

func int64FromEnv(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
