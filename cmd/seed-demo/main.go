// seed-demo populates an empty database with a small retail chain: two trade
// points (a shop and a kiosk), sellers, a supplier, three products, a
// customer, and one full restock cycle (request -> order -> receipt) so the
// shop starts with stock on hand.
//
// Safe to rerun against a non-empty database: it exits without writing when
// any trade point already exists.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-demo
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/trader_backend/config"
	"bitbucket.org/mmdatafocus/trader_backend/models"
	"bitbucket.org/mmdatafocus/trader_backend/workflow"
)

func main() {
	ctx := context.Background()
	logger := config.NewLogger()
	db := config.ConnectDatabaseWithRetry()
	models.MigrateTable(db)

	var count int64
	if err := db.WithContext(ctx).Model(&models.TradePoint{}).Count(&count).Error; err != nil {
		fmt.Fprintf(os.Stderr, "count trade points: %v\n", err)
		os.Exit(1)
	}
	if count > 0 {
		fmt.Println("database already has trade points; nothing to seed")
		return
	}

	tradePoints := models.NewTradePointStore(db)
	products := models.NewProductStore(db)
	requests := models.NewRequestLedger(db)
	orders := models.NewOrderLedger(db)
	fulfillment := workflow.NewFulfillmentEngine(db, logger, nil)

	shop, err := tradePoints.Create(ctx, &models.NewTradePoint{
		Name:             "Central Shop",
		Type:             models.TradePointTypeShop,
		Size:             120,
		RentPayments:     decimal.NewFromInt(1500),
		UtilityPayments:  decimal.NewFromInt(300),
		NumberOfCounters: 3,
	})
	if err != nil {
		fail("create shop", err)
	}
	kiosk, err := tradePoints.Create(ctx, &models.NewTradePoint{
		Name:            "Station Kiosk",
		Type:            models.TradePointTypeKiosk,
		Size:            8,
		RentPayments:    decimal.NewFromInt(200),
		UtilityPayments: decimal.NewFromInt(40),
	})
	if err != nil {
		fail("create kiosk", err)
	}

	supplier := models.Supplier{Name: "Northline Wholesale", ContactInfo: "orders@northline.example"}
	if err := db.WithContext(ctx).Create(&supplier).Error; err != nil {
		fail("create supplier", err)
	}

	sellers := []models.Seller{
		{Name: "Aye Chan", TradePointId: shop.ID, Salary: decimal.NewFromInt(900)},
		{Name: "Min Thu", TradePointId: shop.ID, Salary: decimal.NewFromInt(850)},
		{Name: "Su Su", TradePointId: kiosk.ID, Salary: decimal.NewFromInt(600)},
	}
	for i := range sellers {
		if err := db.WithContext(ctx).Create(&sellers[i]).Error; err != nil {
			fail("create seller", err)
		}
	}

	customer := models.Customer{Name: "Daw Khin", Characteristics: "regular, prefers morning visits"}
	if err := db.WithContext(ctx).Create(&customer).Error; err != nil {
		fail("create customer", err)
	}

	names := []string{"Green Tea 500ml", "Instant Noodles", "Laundry Soap"}
	prices := []int64{2, 1, 3}
	var productIds []int
	for i, name := range names {
		product, err := products.Create(ctx, &models.NewProduct{
			Name:        name,
			SupplierIds: []int{supplier.ID},
			Prices: []models.NewProductPrice{
				{Amount: decimal.NewFromInt(prices[i]), Currency: "USD"},
			},
		})
		if err != nil {
			fail("create product", err)
		}
		productIds = append(productIds, product.ID)
	}

	// One full restock cycle so the shop opens with stock.
	request, err := requests.Create(ctx, &models.NewStockRequest{
		TradePointId: shop.ID,
		RequestDate:  time.Now(),
		Lines: []models.NewStockRequestLine{
			{ProductId: productIds[0], Qty: 40},
			{ProductId: productIds[1], Qty: 60},
			{ProductId: productIds[2], Qty: 20},
		},
	})
	if err != nil {
		fail("create request", err)
	}
	order, err := orders.Create(ctx, &models.NewSupplierOrder{
		SupplierId: supplier.ID,
		OrderDate:  time.Now(),
		RequestIds: []int{request.ID},
	})
	if err != nil {
		fail("create order", err)
	}
	if err := fulfillment.Receive(ctx, order.ID); err != nil {
		fail("receive order", err)
	}

	fmt.Printf("seeded: trade points %d/%d, supplier %d, products %v, order %d received\n",
		shop.ID, kiosk.ID, supplier.ID, productIds, order.ID)
}

func fail(step string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", step, err)
	os.Exit(1)
}
