package workflow

import (
	"testing"

	"bitbucket.org/mmdatafocus/trader_backend/models"
)

// NOTE: These tests are intentionally DB-free. They validate the customer
// resolution rule on its own; the DB-backed record/update/delete paths are
// covered by the integration tests in models.

func intPtr(v int) *int { return &v }

func TestResolveSaleCustomer_WalkUpPointsDropCustomer(t *testing.T) {
	for _, typ := range []models.TradePointType{models.TradePointTypeKiosk, models.TradePointTypeStall} {
		got := ResolveSaleCustomer(typ, intPtr(42))
		if got != nil {
			t.Fatalf("%s: expected nil customer, got %d", typ, *got)
		}
	}
}

func TestResolveSaleCustomer_RecordingPointsKeepCustomer(t *testing.T) {
	for _, typ := range []models.TradePointType{models.TradePointTypeShop, models.TradePointTypeDepartmentStore} {
		got := ResolveSaleCustomer(typ, intPtr(42))
		if got == nil || *got != 42 {
			t.Fatalf("%s: expected customer 42, got %v", typ, got)
		}
	}
}

func TestResolveSaleCustomer_AbsentCustomerStaysAbsent(t *testing.T) {
	if got := ResolveSaleCustomer(models.TradePointTypeShop, nil); got != nil {
		t.Fatalf("expected nil for absent customer, got %d", *got)
	}
	// zero id means "no customer" from clients that cannot send null
	if got := ResolveSaleCustomer(models.TradePointTypeShop, intPtr(0)); got != nil {
		t.Fatalf("expected nil for zero customer id, got %d", *got)
	}
}
