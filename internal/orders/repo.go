package orders

import (
	"context"

	"github.com/safar/go-commerce/internal/models"
)

// Repository is the narrow storage surface the workflow needs. The SQL
// implementation lives in internal/store; tests use an in-memory fake.
type Repository interface {
	// View runs fn with read-only access.
	View(ctx context.Context, fn func(Tx) error) error
	// Update runs fn as one unit of work: all writes commit together or roll
	// back together. Implementations run it at serializable isolation and
	// retry transient conflicts.
	Update(ctx context.Context, fn func(Tx) error) error
}

// Tx is the set of operations available inside a unit of work.
type Tx interface {
	CartLines(ctx context.Context, userID int64) ([]models.CartItem, error)
	ClearCart(ctx context.Context, userID int64) error

	ProductsByID(ctx context.Context, ids []int64) (map[int64]models.Product, error)
	// ProductForUpdate row-locks the product so the stock re-check and the
	// decrement cannot interleave with a competing checkout.
	ProductForUpdate(ctx context.Context, id int64) (*models.Product, error)
	DecrementStock(ctx context.Context, productID int64, quantity int) error
	RestoreStock(ctx context.Context, productID int64, quantity int) error

	// InsertOrder persists the order header and its items, filling generated
	// ids and timestamps.
	InsertOrder(ctx context.Context, o *models.Order) error
	Order(ctx context.Context, id int64) (*models.Order, error)
	OrderForUpdate(ctx context.Context, id int64) (*models.Order, error)
	OrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	// UpdateOrderStatus is conditional on the expected current status.
	UpdateOrderStatus(ctx context.Context, id int64, from, to models.OrderStatus) error
	ListOrders(ctx context.Context, q ListQuery) (*Page, error)

	CouponByCode(ctx context.Context, code string) (*models.Coupon, error)
	// RedeemCoupon increments the usage counter, failing with
	// ErrInvalidCoupon once the usage limit is reached.
	RedeemCoupon(ctx context.Context, id int64) error
}

// ListQuery selects and orders a page of orders. UserID 0 means no ownership
// filter (administrative listing).
type ListQuery struct {
	UserID   int64
	Status   models.OrderStatus
	Page     int
	PageSize int
	SortBy   string // "created_at" or "total"
	SortDesc bool
}

// Normalize clamps pagination and sorting to safe values.
func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 100 {
		q.PageSize = 20
	}
	if q.SortBy != "total" {
		q.SortBy = "created_at"
	}
	return q
}

type Page struct {
	Data       []models.Order `json:"data"`
	Pagination Pagination     `json:"pagination"`
}

type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}
