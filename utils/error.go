package utils

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// Failure taxonomy for the core operations. The HTTP layer translates these
// to status codes; anything outside this set is an internal fault.
var (
	ErrNotFound          = errors.New("record not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrAlreadyReceived   = errors.New("order already received")
	ErrEmptySelection    = errors.New("no requests selected")
)

// ValidationError reports malformed caller input (empty line list,
// non-positive quantity, negative price).
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsDuplicateKey reports whether err is a MySQL duplicate-entry violation
// (ER_DUP_ENTRY). Writers racing on the same natural key use this to treat
// "someone else inserted it first" as success.
func IsDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
