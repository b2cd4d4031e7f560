package services

import (
	"errors"
	"fmt"
)

var (
	ErrProductInactive = errors.New("product is no longer available")
	ErrOutOfStock      = errors.New("not enough stock")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrCartEmpty       = errors.New("cart is empty")
	ErrLineNotFound    = errors.New("cart line not found")
	ErrCartChanged     = errors.New("cart was adjusted, please review and retry")

	// ErrCommitFailed is the generic retry-later failure shown to users when an
	// integrity error (write failure, exhausted order-number retries) rolls the
	// commit back. Detail goes to the log, not to the user.
	ErrCommitFailed = errors.New("could not place the order, please try again")
)

// OutOfStockError reports how many more units are still addable.
type OutOfStockError struct {
	ProductName string
	Available   int
}

func (e *OutOfStockError) Error() string {
	if e.Available <= 0 {
		return fmt.Sprintf("%s is sold out", e.ProductName)
	}
	return fmt.Sprintf("only %d more of %s can be added", e.Available, e.ProductName)
}

func (e *OutOfStockError) Unwrap() error { return ErrOutOfStock }

// CartIssuesError carries the validator's adjustment report. It is fatal for
// the checkout attempt that triggered the validation.
type CartIssuesError struct {
	Issues []Issue
}

func (e *CartIssuesError) Error() string {
	return fmt.Sprintf("cart adjusted: %d issue(s)", len(e.Issues))
}

func (e *CartIssuesError) Unwrap() error { return ErrCartChanged }
