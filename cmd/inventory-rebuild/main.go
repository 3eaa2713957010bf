// inventory-rebuild recomputes every (trade point, product) quantity from the
// receipt and sale ledgers and reports pairs whose stored value drifted.
//
// Dry run by default. Pass -apply to overwrite the stored quantities with the
// ledger-derived ones; stop the API server first, the rewrite does not take
// the receipt locks.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/inventory-rebuild [-apply]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/trader_backend/config"
	"bitbucket.org/mmdatafocus/trader_backend/workflow"
)

func main() {
	apply := flag.Bool("apply", false, "rewrite drifted quantities instead of only listing them")
	flag.Parse()

	ctx := context.Background()
	logger := config.NewLogger()
	db := config.ConnectDatabaseWithRetry()

	drifts, err := workflow.RebuildInventory(ctx, db, logger, *apply)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rebuild failed: %v\n", err)
		os.Exit(1)
	}

	if len(drifts) == 0 {
		fmt.Println("no drift: stored quantities match the ledgers")
		return
	}
	for _, d := range drifts {
		fmt.Printf("trade_point=%d product=%d stored=%d expected=%d\n",
			d.TradePointId, d.ProductId, d.StoredQty, d.ExpectedQty)
	}
	if *apply {
		fmt.Printf("rewrote %d pairs\n", len(drifts))
	} else {
		fmt.Printf("%d drifted pairs (dry run; pass -apply to fix)\n", len(drifts))
	}
}
