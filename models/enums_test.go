package models

import "testing"

func TestTradePointTypeValid(t *testing.T) {
	for _, typ := range []TradePointType{
		TradePointTypeDepartmentStore,
		TradePointTypeShop,
		TradePointTypeKiosk,
		TradePointTypeStall,
	} {
		if !typ.Valid() {
			t.Fatalf("%s should be valid", typ)
		}
	}
	if TradePointType("warehouse").Valid() {
		t.Fatalf("unknown type should not be valid")
	}
	if TradePointType("").Valid() {
		t.Fatalf("empty type should not be valid")
	}
}

func TestTradePointTypeRecordsCustomer(t *testing.T) {
	// walk-up points never keep a customer reference
	if TradePointTypeKiosk.RecordsCustomer() {
		t.Fatalf("kiosk must not record customers")
	}
	if TradePointTypeStall.RecordsCustomer() {
		t.Fatalf("stall must not record customers")
	}
	if !TradePointTypeShop.RecordsCustomer() {
		t.Fatalf("shop must record customers")
	}
	if !TradePointTypeDepartmentStore.RecordsCustomer() {
		t.Fatalf("department store must record customers")
	}
}
