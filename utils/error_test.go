package utils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("qty", "quantity must be positive")
	if !IsValidationError(err) {
		t.Fatalf("expected IsValidationError to be true")
	}
	if err.Error() == "" {
		t.Fatalf("expected non-empty message")
	}

	wrapped := fmt.Errorf("create request: %w", err)
	if !IsValidationError(wrapped) {
		t.Fatalf("expected IsValidationError to see through wrapping")
	}
}

func TestSentinelErrorsAreDistinct(t *testing.T) {
	sentinels := []error{ErrNotFound, ErrInsufficientStock, ErrAlreadyReceived, ErrEmptySelection}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Fatalf("sentinel %v must not match %v", a, b)
			}
		}
	}
	wrapped := fmt.Errorf("receive order: %w", ErrAlreadyReceived)
	if !errors.Is(wrapped, ErrAlreadyReceived) {
		t.Fatalf("wrapped sentinel must still match")
	}
	if IsValidationError(ErrNotFound) {
		t.Fatalf("sentinels are not validation errors")
	}
}

func TestIsDuplicateKey(t *testing.T) {
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry '7' for key 'PRIMARY'"}
	if !IsDuplicateKey(dup) {
		t.Fatalf("expected ER_DUP_ENTRY to be a duplicate key")
	}
	if !IsDuplicateKey(fmt.Errorf("create product: %w", dup)) {
		t.Fatalf("expected wrapped ER_DUP_ENTRY to match")
	}
	if IsDuplicateKey(&mysql.MySQLError{Number: 1213}) {
		t.Fatalf("deadlock is not a duplicate key")
	}
	if IsDuplicateKey(errors.New("plain")) {
		t.Fatalf("plain error is not a duplicate key")
	}
}
