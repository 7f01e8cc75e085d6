package orders

import (
	"fmt"
	"time"

	"github.com/safar/go-commerce/internal/config"
	"github.com/safar/go-commerce/internal/models"
	"github.com/shopspring/decimal"
)

// Quote is the priced result of a cart snapshot. Pure output: computing it
// has no side effects.
type Quote struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// ValidateCoupon checks existence, expiry and usage constraints. A nil coupon
// (unknown code) is invalid.
func ValidateCoupon(c *models.Coupon, now time.Time) error {
	switch {
	case c == nil:
		return fmt.Errorf("%w: unknown code", ErrInvalidCoupon)
	case !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt):
		return fmt.Errorf("%w: %s expired", ErrInvalidCoupon, c.Code)
	case c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit:
		return fmt.Errorf("%w: %s exhausted", ErrInvalidCoupon, c.Code)
	}
	return nil
}

// PriceCart computes subtotal, discount, tax, shipping and total for a
// non-empty snapshot. Line subtotals are summed exactly and rounded only at
// the final sum, so per-line rounding cannot drift. The coupon, if given,
// must already be validated; it discounts the subtotal before tax.
func PriceCart(cfg config.PricingConfig, snap *CartSnapshot, coupon *models.Coupon) (Quote, error) {
	if snap == nil || len(snap.Lines) == 0 {
		return Quote{}, ErrEmptyCart
	}

	var subtotal decimal.Decimal
	for _, line := range snap.Lines {
		subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	subtotal = subtotal.Round(2)

	var discount decimal.Decimal
	if coupon != nil {
		if coupon.Percent > 0 {
			discount = subtotal.Mul(decimal.NewFromInt(int64(coupon.Percent))).Div(decimal.NewFromInt(100)).Round(2)
		} else {
			discount = coupon.Amount.Round(2)
		}
		if discount.GreaterThan(subtotal) {
			discount = subtotal
		}
	}
	discounted := subtotal.Sub(discount)

	tax := discounted.Mul(cfg.TaxRate).Round(2)

	shipping := cfg.FlatShipping
	if cfg.FreeShippingOver.IsPositive() && discounted.GreaterThanOrEqual(cfg.FreeShippingOver) {
		shipping = decimal.Zero
	}

	q := Quote{
		Subtotal: subtotal,
		Discount: discount,
		Tax:      tax,
		Shipping: shipping,
		Total:    discounted.Add(tax).Add(shipping),
	}

	// Inputs are non-negative, so negative amounts should be impossible.
	for _, amount := range []decimal.Decimal{q.Subtotal, q.Discount, q.Tax, q.Shipping, q.Total} {
		if amount.IsNegative() {
			return Quote{}, fmt.Errorf("pricing produced negative amount: %s", amount)
		}
	}
	return q, nil
}
