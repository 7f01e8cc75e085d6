package orders

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyCart rejects a checkout with no cart lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrProductUnavailable marks cart lines whose product is missing or
	// short on stock at snapshot time. Carried by StockError with per-line
	// detail.
	ErrProductUnavailable = errors.New("product unavailable")
	// ErrStockChanged means stock was sufficient at snapshot time but not at
	// commit time: a concurrent checkout won the race. The client should
	// re-fetch the cart before retrying.
	ErrStockChanged = errors.New("stock changed")
	// ErrInvalidCoupon covers unknown, expired and exhausted coupon codes.
	ErrInvalidCoupon = errors.New("invalid coupon")
	// ErrForbidden means the caller does not own the order.
	ErrForbidden = errors.New("forbidden")
	// ErrNotCancellable means the order status precludes cancellation.
	ErrNotCancellable = errors.New("order not cancellable")
	// ErrIllegalTransition means the requested status is not reachable from
	// the current one.
	ErrIllegalTransition = errors.New("illegal status transition")
	// ErrNotFound covers missing orders and products.
	ErrNotFound = errors.New("not found")
)

// UnavailableLine describes one cart line that blocks checkout.
type UnavailableLine struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name,omitempty"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
	// Missing is set when the product row no longer exists at all.
	Missing bool `json:"missing,omitempty"`
}

// StockError wraps ErrProductUnavailable or ErrStockChanged together with the
// lines that caused it, so the caller can show which item blocks checkout.
type StockError struct {
	Err   error
	Lines []UnavailableLine
}

func (e *StockError) Error() string {
	parts := make([]string, 0, len(e.Lines))
	for _, l := range e.Lines {
		if l.Missing {
			parts = append(parts, fmt.Sprintf("product %d: gone", l.ProductID))
			continue
		}
		parts = append(parts, fmt.Sprintf("product %d: want %d, have %d", l.ProductID, l.Requested, l.Available))
	}
	return fmt.Sprintf("%v: %s", e.Err, strings.Join(parts, "; "))
}

func (e *StockError) Unwrap() error { return e.Err }
