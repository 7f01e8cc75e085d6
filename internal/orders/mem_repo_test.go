package orders

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/safar/go-commerce/internal/models"
)

// memRepo is an in-memory Repository for unit tests. Update works on a deep
// copy of the state and swaps it in only on success, so a failed unit of work
// leaves nothing behind, same as a rolled-back transaction.
type memRepo struct {
	state *memState
}

type memState struct {
	carts    map[int64][]models.CartItem
	products map[int64]models.Product
	orders   map[int64]models.Order
	items    map[int64][]models.OrderItem
	coupons  map[int64]models.Coupon

	nextOrderID int64
	nextItemID  int64
	clock       time.Time
}

func newMemRepo() *memRepo {
	return &memRepo{state: &memState{
		carts:       map[int64][]models.CartItem{},
		products:    map[int64]models.Product{},
		orders:      map[int64]models.Order{},
		items:       map[int64][]models.OrderItem{},
		coupons:     map[int64]models.Coupon{},
		nextOrderID: 1,
		nextItemID:  1,
		clock:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}}
}

func (s *memState) clone() *memState {
	c := &memState{
		carts:       make(map[int64][]models.CartItem, len(s.carts)),
		products:    make(map[int64]models.Product, len(s.products)),
		orders:      make(map[int64]models.Order, len(s.orders)),
		items:       make(map[int64][]models.OrderItem, len(s.items)),
		coupons:     make(map[int64]models.Coupon, len(s.coupons)),
		nextOrderID: s.nextOrderID,
		nextItemID:  s.nextItemID,
		clock:       s.clock,
	}
	for k, v := range s.carts {
		c.carts[k] = append([]models.CartItem(nil), v...)
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.orders {
		v.Items = nil
		c.orders[k] = v
	}
	for k, v := range s.items {
		c.items[k] = append([]models.OrderItem(nil), v...)
	}
	for k, v := range s.coupons {
		c.coupons[k] = v
	}
	return c
}

func (r *memRepo) View(ctx context.Context, fn func(Tx) error) error {
	return fn(&memTx{state: r.state.clone()})
}

func (r *memRepo) Update(ctx context.Context, fn func(Tx) error) error {
	next := r.state.clone()
	if err := fn(&memTx{state: next}); err != nil {
		return err
	}
	r.state = next
	return nil
}

type memTx struct {
	state *memState
}

func (t *memTx) CartLines(ctx context.Context, userID int64) ([]models.CartItem, error) {
	return append([]models.CartItem(nil), t.state.carts[userID]...), nil
}

func (t *memTx) ClearCart(ctx context.Context, userID int64) error {
	delete(t.state.carts, userID)
	return nil
}

func (t *memTx) ProductsByID(ctx context.Context, ids []int64) (map[int64]models.Product, error) {
	out := make(map[int64]models.Product, len(ids))
	for _, id := range ids {
		if p, ok := t.state.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (t *memTx) ProductForUpdate(ctx context.Context, id int64) (*models.Product, error) {
	p, ok := t.state.products[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	return &p, nil
}

func (t *memTx) DecrementStock(ctx context.Context, productID int64, quantity int) error {
	p, ok := t.state.products[productID]
	if !ok || p.StockQuantity < quantity {
		return fmt.Errorf("product %d: %w", productID, ErrStockChanged)
	}
	p.StockQuantity -= quantity
	p.Version++
	t.state.products[productID] = p
	return nil
}

func (t *memTx) RestoreStock(ctx context.Context, productID int64, quantity int) error {
	p, ok := t.state.products[productID]
	if !ok {
		return nil
	}
	p.StockQuantity += quantity
	p.Version++
	t.state.products[productID] = p
	return nil
}

func (t *memTx) InsertOrder(ctx context.Context, o *models.Order) error {
	o.ID = t.state.nextOrderID
	t.state.nextOrderID++
	o.CreatedAt = t.state.clock
	o.UpdatedAt = t.state.clock
	o.Version = 1
	for i := range o.Items {
		o.Items[i].ID = t.state.nextItemID
		t.state.nextItemID++
		o.Items[i].OrderID = o.ID
		o.Items[i].CreatedAt = t.state.clock
	}
	header := *o
	header.Items = nil
	t.state.orders[o.ID] = header
	t.state.items[o.ID] = append([]models.OrderItem(nil), o.Items...)
	return nil
}

func (t *memTx) Order(ctx context.Context, id int64) (*models.Order, error) {
	o, ok := t.state.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	return &o, nil
}

func (t *memTx) OrderForUpdate(ctx context.Context, id int64) (*models.Order, error) {
	return t.Order(ctx, id)
}

func (t *memTx) OrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	items := append([]models.OrderItem(nil), t.state.items[orderID]...)
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (t *memTx) UpdateOrderStatus(ctx context.Context, id int64, from, to models.OrderStatus) error {
	o, ok := t.state.orders[id]
	if !ok || o.Status != from {
		return fmt.Errorf("order %d: %w", id, ErrIllegalTransition)
	}
	o.Status = to
	o.UpdatedAt = t.state.clock
	o.Version++
	t.state.orders[id] = o
	return nil
}

func (t *memTx) ListOrders(ctx context.Context, q ListQuery) (*Page, error) {
	q = q.Normalize()

	var all []models.Order
	for _, o := range t.state.orders {
		if q.UserID != 0 && o.UserID != q.UserID {
			continue
		}
		if q.Status != "" && o.Status != q.Status {
			continue
		}
		all = append(all, o)
	}
	sort.Slice(all, func(i, j int) bool {
		var less bool
		if q.SortBy == "total" {
			less = all[i].Total.LessThan(all[j].Total)
		} else {
			less = all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		if all[i].ID != all[j].ID && ((q.SortBy == "total" && all[i].Total.Equal(all[j].Total)) ||
			(q.SortBy != "total" && all[i].CreatedAt.Equal(all[j].CreatedAt))) {
			less = all[i].ID < all[j].ID
		}
		if q.SortDesc {
			return !less
		}
		return less
	})

	total := int64(len(all))
	start := (q.Page - 1) * q.PageSize
	if start > len(all) {
		start = len(all)
	}
	end := start + q.PageSize
	if end > len(all) {
		end = len(all)
	}

	totalPages := int(total) / q.PageSize
	if int(total)%q.PageSize > 0 {
		totalPages++
	}
	return &Page{
		Data: all[start:end],
		Pagination: Pagination{
			Page:       q.Page,
			PageSize:   q.PageSize,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

func (t *memTx) CouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	code = strings.ToUpper(code)
	for _, c := range t.state.coupons {
		if c.Code == code {
			return &c, nil
		}
	}
	return nil, fmt.Errorf("coupon %s: %w", code, ErrNotFound)
}

func (t *memTx) RedeemCoupon(ctx context.Context, id int64) error {
	c, ok := t.state.coupons[id]
	if !ok || (c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit) {
		return fmt.Errorf("%w: usage limit reached", ErrInvalidCoupon)
	}
	c.UsedCount++
	t.state.coupons[id] = c
	return nil
}
