package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/safar/go-commerce/internal/config"
	"github.com/safar/go-commerce/internal/models"
)

// Service runs the order workflow: cart snapshot, pricing, atomic checkout,
// and the status lifecycle. All durable state lives behind Repository; the
// service itself holds no cross-request mutable state.
type Service struct {
	repo    Repository
	pricing config.PricingConfig
	now     func() time.Time
}

func NewService(repo Repository, pricing config.PricingConfig) *Service {
	return &Service{repo: repo, pricing: pricing, now: time.Now}
}

type CheckoutInput struct {
	ShippingAddress string
	BillingAddress  string
	PaymentMethod   string
	CouponCode      string
	Notes           string
}

type CheckoutResult struct {
	Order *models.Order `json:"order"`
	// CouponRejected reports why a supplied coupon was ignored, when the
	// configured policy is to proceed without the discount instead of
	// rejecting the checkout.
	CouponRejected string `json:"coupon_rejected,omitempty"`
}

// Checkout turns the user's cart into an order as one unit of work: stock
// re-check under row locks, order + item insertion, stock decrement, coupon
// redemption, cart clear. Any failure rolls everything back and leaves the
// cart intact.
func (s *Service) Checkout(ctx context.Context, userID int64, in CheckoutInput) (*CheckoutResult, error) {
	res := &CheckoutResult{}

	err := s.repo.Update(ctx, func(tx Tx) error {
		lines, err := tx.CartLines(ctx, userID)
		if err != nil {
			return err
		}
		products, err := productsFor(ctx, tx, lines)
		if err != nil {
			return err
		}
		snap, err := buildSnapshot(userID, lines, products, ErrProductUnavailable)
		if err != nil {
			return err
		}

		coupon, rejected, err := s.resolveCoupon(ctx, tx, in.CouponCode)
		if err != nil {
			return err
		}
		res.CouponRejected = rejected

		quote, err := PriceCart(s.pricing, snap, coupon)
		if err != nil {
			return err
		}

		// Re-check stock under row locks; time has passed since the snapshot
		// read. Lock in product-id order so two checkouts sharing products
		// cannot deadlock.
		sorted := make([]SnapshotLine, len(snap.Lines))
		copy(sorted, snap.Lines)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })

		var raced []UnavailableLine
		for _, line := range sorted {
			p, err := tx.ProductForUpdate(ctx, line.ProductID)
			if errors.Is(err, ErrNotFound) {
				raced = append(raced, UnavailableLine{ProductID: line.ProductID, Requested: line.Quantity, Missing: true})
				continue
			}
			if err != nil {
				return err
			}
			if p.StockQuantity < line.Quantity {
				raced = append(raced, UnavailableLine{
					ProductID: p.ID,
					Name:      p.Name,
					Requested: line.Quantity,
					Available: p.StockQuantity,
				})
			}
		}
		if len(raced) > 0 {
			return &StockError{Err: ErrStockChanged, Lines: raced}
		}

		order := &models.Order{
			UserID:          userID,
			OrderNumber:     generateOrderNumber(),
			Status:          models.OrderStatusPending,
			Subtotal:        quote.Subtotal,
			Discount:        quote.Discount,
			Tax:             quote.Tax,
			Shipping:        quote.Shipping,
			Total:           quote.Total,
			ShippingAddress: in.ShippingAddress,
			BillingAddress:  in.BillingAddress,
			PaymentMethod:   in.PaymentMethod,
			PaymentStatus:   models.PaymentStatusPending,
			Notes:           in.Notes,
		}
		if coupon != nil {
			order.CouponCode = coupon.Code
		}
		for _, line := range snap.Lines {
			order.Items = append(order.Items, models.OrderItem{
				ProductID: line.ProductID,
				Name:      line.Name,
				UnitPrice: line.UnitPrice,
				Quantity:  line.Quantity,
				Subtotal:  line.LineSubtotal.Round(2),
			})
		}
		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}

		for _, line := range sorted {
			if err := tx.DecrementStock(ctx, line.ProductID, line.Quantity); err != nil {
				return err
			}
		}
		if coupon != nil {
			if err := tx.RedeemCoupon(ctx, coupon.ID); err != nil {
				return err
			}
		}
		if err := tx.ClearCart(ctx, userID); err != nil {
			return err
		}

		res.Order = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// resolveCoupon validates the supplied code against the configured policy:
// strict mode propagates ErrInvalidCoupon, lenient mode drops the coupon and
// reports why.
func (s *Service) resolveCoupon(ctx context.Context, tx Tx, code string) (*models.Coupon, string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, "", nil
	}
	coupon, err := tx.CouponByCode(ctx, code)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, "", err
	}
	if vErr := ValidateCoupon(coupon, s.now()); vErr != nil {
		if s.pricing.RejectInvalidCoupon {
			return nil, "", vErr
		}
		return nil, vErr.Error(), nil
	}
	return coupon, "", nil
}

// Get fetches one order with its items. Non-admin callers only see their own
// orders.
func (s *Service) Get(ctx context.Context, callerID int64, admin bool, orderID int64) (*models.Order, error) {
	var order *models.Order
	err := s.repo.View(ctx, func(tx Tx) error {
		var err error
		order, err = loadOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if !admin && order.UserID != callerID {
			return ErrForbidden
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// List pages through orders. q.UserID 0 lists all orders (administrative
// view); otherwise only the given user's.
func (s *Service) List(ctx context.Context, q ListQuery) (*Page, error) {
	var page *Page
	err := s.repo.View(ctx, func(tx Tx) error {
		var err error
		page, err = tx.ListOrders(ctx, q.Normalize())
		return err
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// Cancel moves an order to cancelled and restores each item's quantity to
// product stock, atomically. Only pending and processing orders are
// cancellable; once shipped, cancellation goes through returns instead.
func (s *Service) Cancel(ctx context.Context, callerID int64, admin bool, orderID int64) (*models.Order, error) {
	return s.transition(ctx, callerID, admin, orderID, models.OrderStatusCancelled)
}

// SetStatus is the administrative transition path: it bypasses ownership but
// still enforces the transition graph.
func (s *Service) SetStatus(ctx context.Context, orderID int64, to models.OrderStatus) (*models.Order, error) {
	if !models.ValidOrderStatus(to) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrIllegalTransition, to)
	}
	return s.transition(ctx, 0, true, orderID, to)
}

func (s *Service) transition(ctx context.Context, callerID int64, admin bool, orderID int64, to models.OrderStatus) (*models.Order, error) {
	var order *models.Order
	err := s.repo.Update(ctx, func(tx Tx) error {
		// Re-read under lock: the decision must be made on the current
		// status, not one fetched before the transaction began.
		current, err := tx.OrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !admin && current.UserID != callerID {
			return ErrForbidden
		}
		if !models.IsLegalTransition(current.Status, to) {
			if to == models.OrderStatusCancelled {
				return fmt.Errorf("%w: status is %s", ErrNotCancellable, current.Status)
			}
			return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, current.Status, to)
		}

		if to == models.OrderStatusCancelled {
			items, err := tx.OrderItems(ctx, orderID)
			if err != nil {
				return err
			}
			for _, item := range items {
				if err := tx.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}

		if err := tx.UpdateOrderStatus(ctx, orderID, current.Status, to); err != nil {
			return err
		}
		order, err = loadOrder(ctx, tx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func loadOrder(ctx context.Context, tx Tx, orderID int64) (*models.Order, error) {
	order, err := tx.Order(ctx, orderID)
	if err != nil {
		return nil, err
	}
	items, err := tx.OrderItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func generateOrderNumber() string {
	return "ORD-" + uuid.NewString()
}
