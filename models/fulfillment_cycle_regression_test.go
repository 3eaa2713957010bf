package models_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/trader_backend/config"
	"bitbucket.org/mmdatafocus/trader_backend/models"
	"bitbucket.org/mmdatafocus/trader_backend/models/reports"
	"bitbucket.org/mmdatafocus/trader_backend/utils"
	"bitbucket.org/mmdatafocus/trader_backend/workflow"
)

// Walks the full chain against a real MySQL: request -> order -> receipt ->
// inventory -> sales -> reports, including the failure paths (double receipt,
// overdraw, request consumed twice).
func TestFulfillmentCycle(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	// Wire env for config.Connect* helpers.
	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "trader_test")

	logger := config.NewLogger()
	db := config.ConnectDatabaseWithRetry()
	redisStore := config.ConnectRedis()
	models.MigrateTable(db)

	tradePoints := models.NewTradePointStore(db)
	products := models.NewProductStore(db)
	stocks := models.NewStockStore(db)
	requests := models.NewRequestLedger(db)
	orders := models.NewOrderLedger(db)
	fulfillment := workflow.NewFulfillmentEngine(db, logger, redisStore)
	saleRec := workflow.NewSaleRecorder(db, logger)
	reporter := reports.NewReports(db, redisStore)

	// --- registry ---
	shop, err := tradePoints.Create(ctx, &models.NewTradePoint{
		Name:            "Shop A",
		Type:            models.TradePointTypeShop,
		RentPayments:    decimal.NewFromInt(1500),
		UtilityPayments: decimal.NewFromInt(300),
	})
	if err != nil {
		t.Fatalf("create shop: %v", err)
	}
	kiosk, err := tradePoints.Create(ctx, &models.NewTradePoint{
		Name: "Kiosk B",
		Type: models.TradePointTypeKiosk,
	})
	if err != nil {
		t.Fatalf("create kiosk: %v", err)
	}
	stall, err := tradePoints.Create(ctx, &models.NewTradePoint{
		Name: "Quiet Stall",
		Type: models.TradePointTypeStall,
	})
	if err != nil {
		t.Fatalf("create stall: %v", err)
	}

	supplier := models.Supplier{Name: "Wholesale Co"}
	if err := db.WithContext(ctx).Create(&supplier).Error; err != nil {
		t.Fatalf("create supplier: %v", err)
	}
	shopSeller := models.Seller{Name: "Shop Seller", TradePointId: shop.ID, Salary: decimal.NewFromInt(700)}
	if err := db.WithContext(ctx).Create(&shopSeller).Error; err != nil {
		t.Fatalf("create shop seller: %v", err)
	}
	kioskSeller := models.Seller{Name: "Kiosk Seller", TradePointId: kiosk.ID, Salary: decimal.NewFromInt(500)}
	if err := db.WithContext(ctx).Create(&kioskSeller).Error; err != nil {
		t.Fatalf("create kiosk seller: %v", err)
	}
	customer := models.Customer{Name: "Regular Customer"}
	if err := db.WithContext(ctx).Create(&customer).Error; err != nil {
		t.Fatalf("create customer: %v", err)
	}

	product, err := products.Create(ctx, &models.NewProduct{
		Name:        "Bottled Water",
		SupplierIds: []int{supplier.ID},
		Prices:      []models.NewProductPrice{{Amount: decimal.NewFromInt(2), Currency: "USD"}},
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	saleDate := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	rangeFrom := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	rangeTo := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	// --- request -> order -> receipt for the shop ---
	request, err := requests.Create(ctx, &models.NewStockRequest{
		TradePointId: shop.ID,
		RequestDate:  saleDate,
		Lines:        []models.NewStockRequestLine{{ProductId: product.ID, Qty: 10}},
	})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}

	pending, err := requests.ListPending(ctx)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != request.ID {
		t.Fatalf("expected the new request pending, got %d rows", len(pending))
	}

	order, err := orders.Create(ctx, &models.NewSupplierOrder{
		SupplierId: supplier.ID,
		OrderDate:  saleDate,
		RequestIds: []int{request.ID},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if len(order.Lines) != 1 || order.Lines[0].Qty != 10 {
		t.Fatalf("expected one consolidated line qty=10, got %+v", order.Lines)
	}

	// the consumed request is out of the pending pool and cannot feed a second order
	pending, err = requests.ListPending(ctx)
	if err != nil {
		t.Fatalf("list pending after order: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending requests after consolidation, got %d", len(pending))
	}
	if _, err := orders.Create(ctx, &models.NewSupplierOrder{
		SupplierId: supplier.ID,
		OrderDate:  saleDate,
		RequestIds: []int{request.ID},
	}); !utils.IsValidationError(err) {
		t.Fatalf("expected validation error for consumed request, got %v", err)
	}
	if _, err := orders.Create(ctx, &models.NewSupplierOrder{
		SupplierId: supplier.ID,
		OrderDate:  saleDate,
		RequestIds: []int{},
	}); !errors.Is(err, utils.ErrEmptySelection) {
		t.Fatalf("expected ErrEmptySelection, got %v", err)
	}

	if err := fulfillment.Receive(ctx, order.ID); err != nil {
		t.Fatalf("receive: %v", err)
	}
	assertStock(t, ctx, stocks, shop.ID, product.ID, 10)

	unreceived, err := orders.ListUnreceived(ctx)
	if err != nil {
		t.Fatalf("list unreceived: %v", err)
	}
	if len(unreceived) != 0 {
		t.Fatalf("expected no unreceived orders, got %d", len(unreceived))
	}

	// receipt is terminal; a replay must not credit stock again
	if err := fulfillment.Receive(ctx, order.ID); !errors.Is(err, utils.ErrAlreadyReceived) {
		t.Fatalf("expected ErrAlreadyReceived, got %v", err)
	}
	assertStock(t, ctx, stocks, shop.ID, product.ID, 10)

	if err := fulfillment.Receive(ctx, 99999); !errors.Is(err, utils.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown order, got %v", err)
	}

	// --- sales at the shop ---
	sale, err := saleRec.Record(ctx, &models.NewSale{
		TradePointId: shop.ID,
		SellerId:     shopSeller.ID,
		ProductId:    product.ID,
		CustomerId:   &customer.ID,
		Qty:          3,
		UnitPrice:    decimal.NewFromInt(2),
		SaleDate:     saleDate,
	})
	if err != nil {
		t.Fatalf("record sale: %v", err)
	}
	if sale.CustomerId == nil || *sale.CustomerId != customer.ID {
		t.Fatalf("shop sale must keep the customer")
	}
	assertStock(t, ctx, stocks, shop.ID, product.ID, 7)

	// overdraw: rejected atomically, nothing written
	if _, err := saleRec.Record(ctx, &models.NewSale{
		TradePointId: shop.ID,
		SellerId:     shopSeller.ID,
		ProductId:    product.ID,
		Qty:          8,
		UnitPrice:    decimal.NewFromInt(2),
		SaleDate:     saleDate,
	}); !errors.Is(err, utils.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	assertStock(t, ctx, stocks, shop.ID, product.ID, 7)

	// correction: qty 3 -> 5 restores the old quantity before taking the new one
	sale, err = saleRec.Update(ctx, sale.ID, &models.NewSale{
		TradePointId: shop.ID,
		SellerId:     shopSeller.ID,
		ProductId:    product.ID,
		CustomerId:   &customer.ID,
		Qty:          5,
		UnitPrice:    decimal.NewFromInt(2),
		SaleDate:     saleDate,
	})
	if err != nil {
		t.Fatalf("update sale: %v", err)
	}
	if sale.Qty != 5 {
		t.Fatalf("expected corrected qty 5, got %d", sale.Qty)
	}
	assertStock(t, ctx, stocks, shop.ID, product.ID, 5)

	// delete restores what the deleted sale had taken
	second, err := saleRec.Record(ctx, &models.NewSale{
		TradePointId: shop.ID,
		SellerId:     shopSeller.ID,
		ProductId:    product.ID,
		Qty:          2,
		UnitPrice:    decimal.NewFromInt(2),
		SaleDate:     saleDate,
	})
	if err != nil {
		t.Fatalf("record second sale: %v", err)
	}
	assertStock(t, ctx, stocks, shop.ID, product.ID, 3)
	if _, err := saleRec.Delete(ctx, second.ID); err != nil {
		t.Fatalf("delete sale: %v", err)
	}
	assertStock(t, ctx, stocks, shop.ID, product.ID, 5)

	// --- kiosk cycle: walk-up sales drop the customer ---
	kioskRequest, err := requests.Create(ctx, &models.NewStockRequest{
		TradePointId: kiosk.ID,
		RequestDate:  saleDate,
		Lines:        []models.NewStockRequestLine{{ProductId: product.ID, Qty: 4}},
	})
	if err != nil {
		t.Fatalf("create kiosk request: %v", err)
	}
	kioskOrder, err := orders.Create(ctx, &models.NewSupplierOrder{
		SupplierId: supplier.ID,
		OrderDate:  saleDate,
		RequestIds: []int{kioskRequest.ID},
	})
	if err != nil {
		t.Fatalf("create kiosk order: %v", err)
	}
	if err := fulfillment.Receive(ctx, kioskOrder.ID); err != nil {
		t.Fatalf("receive kiosk order: %v", err)
	}
	assertStock(t, ctx, stocks, kiosk.ID, product.ID, 4)

	kioskSale, err := saleRec.Record(ctx, &models.NewSale{
		TradePointId: kiosk.ID,
		SellerId:     kioskSeller.ID,
		ProductId:    product.ID,
		CustomerId:   &customer.ID,
		Qty:          1,
		UnitPrice:    decimal.NewFromInt(2),
		SaleDate:     saleDate,
	})
	if err != nil {
		t.Fatalf("record kiosk sale: %v", err)
	}
	if kioskSale.CustomerId != nil {
		t.Fatalf("kiosk sale must not keep a customer, got %d", *kioskSale.CustomerId)
	}
	assertStock(t, ctx, stocks, kiosk.ID, product.ID, 3)

	// --- reports over the final state ---
	// shop sold 5 (corrected sale), kiosk sold 1, the stall sold nothing
	turnover, err := reporter.GetTurnoverReport(ctx, nil, rangeFrom, rangeTo)
	if err != nil {
		t.Fatalf("turnover report: %v", err)
	}
	totals := map[int]int{}
	for _, row := range turnover {
		totals[row.TradePointId] = row.TotalQuantitySold
	}
	if totals[shop.ID] != 5 || totals[kiosk.ID] != 1 {
		t.Fatalf("unexpected turnover totals: %v", totals)
	}
	if got, ok := totals[stall.ID]; !ok || got != 0 {
		t.Fatalf("stall must appear with zero turnover, got %v (present=%v)", got, ok)
	}

	// only the shop sale carries the customer
	active, err := reporter.GetActiveCustomersReport(ctx, 10)
	if err != nil {
		t.Fatalf("active customers report: %v", err)
	}
	if len(active) != 1 || active[0].CustomerId != customer.ID || active[0].TotalPurchases != 5 {
		t.Fatalf("unexpected active customers: %+v", active)
	}

	deliveries, err := reporter.GetSupplierDeliveriesReport(ctx, product.ID, 0)
	if err != nil {
		t.Fatalf("supplier deliveries report: %v", err)
	}
	if len(deliveries) != 2 {
		t.Fatalf("expected 2 delivery rows, got %d", len(deliveries))
	}
	deliveries, err = reporter.GetSupplierDeliveriesReport(ctx, product.ID, 5)
	if err != nil {
		t.Fatalf("supplier deliveries report (minQty): %v", err)
	}
	if len(deliveries) != 1 || deliveries[0].OrderId != order.ID || deliveries[0].TotalQty != 10 {
		t.Fatalf("expected only the 10-unit delivery, got %+v", deliveries)
	}

	profit, err := reporter.GetProfitabilityReport(ctx, shop.ID, rangeFrom, rangeTo)
	if err != nil {
		t.Fatalf("profitability report: %v", err)
	}
	if !profit.Revenue.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected revenue 10, got %s", profit.Revenue)
	}
	wantOverhead := decimal.NewFromInt(1500 + 300 + 700)
	if !profit.Overhead.Equal(wantOverhead) {
		t.Fatalf("expected overhead %s, got %s", wantOverhead, profit.Overhead)
	}
	if !profit.Profitability.Equal(profit.Revenue.DivRound(wantOverhead, 4)) {
		t.Fatalf("unexpected profitability %s", profit.Profitability)
	}

	snapshot, err := reporter.GetInventorySnapshotReport(ctx, shop.ID)
	if err != nil {
		t.Fatalf("inventory snapshot report: %v", err)
	}
	if len(snapshot) != 1 || snapshot[0].ProductId != product.ID || snapshot[0].Qty != 5 {
		t.Fatalf("unexpected inventory snapshot: %+v", snapshot)
	}

	// name search is capped at the shared search limit
	for i := 0; i < config.SearchLimit+2; i++ {
		if _, err := tradePoints.Create(ctx, &models.NewTradePoint{
			Name: fmt.Sprintf("Branch %02d", i),
			Type: models.TradePointTypeShop,
		}); err != nil {
			t.Fatalf("create branch %d: %v", i, err)
		}
	}
	branchFilter := "Branch"
	branches, err := tradePoints.List(ctx, &branchFilter)
	if err != nil {
		t.Fatalf("list branches: %v", err)
	}
	if len(branches) != config.SearchLimit {
		t.Fatalf("expected name search capped at %d, got %d", config.SearchLimit, len(branches))
	}

	// ordering a product id the catalog has never seen stubs a placeholder entry
	ghostRequest, err := requests.Create(ctx, &models.NewStockRequest{
		TradePointId: shop.ID,
		RequestDate:  saleDate,
		Lines:        []models.NewStockRequestLine{{ProductId: product.ID + 500, Qty: 2}},
	})
	if err != nil {
		t.Fatalf("create ghost request: %v", err)
	}
	if _, err := orders.Create(ctx, &models.NewSupplierOrder{
		SupplierId: supplier.ID,
		OrderDate:  saleDate,
		RequestIds: []int{ghostRequest.ID},
	}); err != nil {
		t.Fatalf("create ghost order: %v", err)
	}
	ghost, err := products.Get(ctx, product.ID+500)
	if err != nil {
		t.Fatalf("placeholder product not created: %v", err)
	}
	if ghost.Name != models.PlaceholderProductName {
		t.Fatalf("expected placeholder name, got %q", ghost.Name)
	}
}

// Concurrent receipts of one order must credit stock exactly once.
func TestReceiveIsExactlyOnceUnderConcurrency(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "trader_test")
	t.Setenv("REDIS_ADDRESS", "")

	logger := config.NewLogger()
	db := config.ConnectDatabaseWithRetry()
	models.MigrateTable(db)

	tradePoints := models.NewTradePointStore(db)
	stocks := models.NewStockStore(db)
	requests := models.NewRequestLedger(db)
	orders := models.NewOrderLedger(db)
	fulfillment := workflow.NewFulfillmentEngine(db, logger, nil)

	shop, err := tradePoints.Create(ctx, &models.NewTradePoint{Name: "Race Shop", Type: models.TradePointTypeShop})
	if err != nil {
		t.Fatalf("create shop: %v", err)
	}
	supplier := models.Supplier{Name: "Race Supplier"}
	if err := db.WithContext(ctx).Create(&supplier).Error; err != nil {
		t.Fatalf("create supplier: %v", err)
	}
	request, err := requests.Create(ctx, &models.NewStockRequest{
		TradePointId: shop.ID,
		RequestDate:  time.Now(),
		Lines:        []models.NewStockRequestLine{{ProductId: 1, Qty: 6}},
	})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	order, err := orders.Create(ctx, &models.NewSupplierOrder{
		SupplierId: supplier.ID,
		OrderDate:  time.Now(),
		RequestIds: []int{request.ID},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = fulfillment.Receive(ctx, order.ID)
		}(i)
	}
	wg.Wait()

	var succeeded int
	for i, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, utils.ErrAlreadyReceived):
			// expected for every loser
		default:
			t.Fatalf("worker %d: unexpected error: %v", i, err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly 1 successful receipt, got %d", succeeded)
	}
	assertStock(t, ctx, stocks, shop.ID, 1, 6)
}

func assertStock(t *testing.T, ctx context.Context, stocks *models.StockStore, tradePointID, productID, want int) {
	t.Helper()
	got, err := stocks.Get(ctx, tradePointID, productID)
	if err != nil {
		t.Fatalf("stock get (tp=%d product=%d): %v", tradePointID, productID, err)
	}
	if got != want {
		t.Fatalf("stock (tp=%d product=%d): expected %d, got %d", tradePointID, productID, want, got)
	}
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("trader-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("trader-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=trader_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
