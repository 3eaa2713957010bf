package models

import (
	"testing"

	"bitbucket.org/mmdatafocus/trader_backend/utils"
)

func TestValidateRequestLines_RejectsEmpty(t *testing.T) {
	err := ValidateRequestLines(nil)
	if err == nil {
		t.Fatalf("expected error for empty line list")
	}
	if !utils.IsValidationError(err) {
		t.Fatalf("expected validation error, got %T: %v", err, err)
	}
}

func TestValidateRequestLines_RejectsNonPositiveQty(t *testing.T) {
	for _, qty := range []int{0, -1, -40} {
		err := ValidateRequestLines([]NewStockRequestLine{{ProductId: 1, Qty: qty}})
		if err == nil {
			t.Fatalf("qty=%d: expected error", qty)
		}
		if !utils.IsValidationError(err) {
			t.Fatalf("qty=%d: expected validation error, got %T: %v", qty, err, err)
		}
	}
}

func TestValidateRequestLines_RejectsMissingProduct(t *testing.T) {
	err := ValidateRequestLines([]NewStockRequestLine{{ProductId: 0, Qty: 5}})
	if err == nil {
		t.Fatalf("expected error for missing product id")
	}
}

func TestValidateRequestLines_AcceptsValidLines(t *testing.T) {
	lines := []NewStockRequestLine{
		{ProductId: 1, Qty: 10},
		{ProductId: 2, Qty: 1},
	}
	if err := ValidateRequestLines(lines); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
