package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/go-commerce/internal/models"
	"github.com/safar/go-commerce/internal/orders"
)

const orderColumns = `id, user_id, order_number, status, subtotal, discount, tax, shipping, total,
	coupon_code, shipping_address, billing_address, payment_method, payment_status, notes,
	created_at, updated_at, version`

func scanOrder(row interface{ Scan(...any) error }) (*models.Order, error) {
	o := &models.Order{}
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.OrderNumber,
		&o.Status,
		&o.Subtotal,
		&o.Discount,
		&o.Tax,
		&o.Shipping,
		&o.Total,
		&o.CouponCode,
		&o.ShippingAddress,
		&o.BillingAddress,
		&o.PaymentMethod,
		&o.PaymentStatus,
		&o.Notes,
		&o.CreatedAt,
		&o.UpdatedAt,
		&o.Version,
	)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (t *storeTx) InsertOrder(ctx context.Context, o *models.Order) error {
	query := `
		INSERT INTO orders (user_id, order_number, status, subtotal, discount, tax, shipping, total,
			coupon_code, shipping_address, billing_address, payment_method, payment_status, notes,
			created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW(), 1)
		RETURNING id, created_at, updated_at, version`

	err := t.tx.QueryRowContext(ctx, query,
		o.UserID, o.OrderNumber, o.Status, o.Subtotal, o.Discount, o.Tax, o.Shipping, o.Total,
		o.CouponCode, o.ShippingAddress, o.BillingAddress, o.PaymentMethod, o.PaymentStatus, o.Notes,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt, &o.Version)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = o.ID
		err := t.tx.QueryRowContext(ctx,
			`INSERT INTO order_items (order_id, product_id, name, unit_price, quantity, subtotal, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, NOW())
			 RETURNING id, created_at`,
			item.OrderID, item.ProductID, item.Name, item.UnitPrice, item.Quantity, item.Subtotal,
		).Scan(&item.ID, &item.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

func (t *storeTx) Order(ctx context.Context, id int64) (*models.Order, error) {
	o, err := scanOrder(t.tx.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, orders.ErrNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

func (t *storeTx) OrderForUpdate(ctx context.Context, id int64) (*models.Order, error) {
	o, err := scanOrder(t.tx.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, orders.ErrNotFound
		}
		return nil, fmt.Errorf("lock order %d: %w", id, err)
	}
	return o, nil
}

func (t *storeTx) OrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, name, unit_price, quantity, subtotal, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY id`

	rows, err := t.tx.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Name,
			&item.UnitPrice,
			&item.Quantity,
			&item.Subtotal,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (t *storeTx) UpdateOrderStatus(ctx context.Context, id int64, from, to models.OrderStatus) error {
	result, err := t.tx.ExecContext(ctx,
		`UPDATE orders
		 SET status = $1, version = version + 1, updated_at = NOW()
		 WHERE id = $2 AND status = $3`,
		to, id, from)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// The row is locked by OrderForUpdate in the same transaction, so a
		// status mismatch here means the caller passed a stale expectation.
		return fmt.Errorf("%w: status changed from %s", orders.ErrIllegalTransition, from)
	}
	return nil
}

func (t *storeTx) ListOrders(ctx context.Context, q orders.ListQuery) (*orders.Page, error) {
	where := ""
	args := []any{}
	addCond := func(cond string, value any) {
		args = append(args, value)
		if where == "" {
			where = fmt.Sprintf("WHERE %s $%d", cond, len(args))
			return
		}
		where += fmt.Sprintf(" AND %s $%d", cond, len(args))
	}
	if q.UserID != 0 {
		addCond("user_id =", q.UserID)
	}
	if q.Status != "" {
		addCond("status =", string(q.Status))
	}

	var total int64
	if err := t.tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders `+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	dir := "ASC"
	if q.SortDesc {
		dir = "DESC"
	}
	// SortBy is normalized upstream to one of two column names.
	orderBy := fmt.Sprintf("ORDER BY %s %s, id %s", q.SortBy, dir, dir)

	offset := (q.Page - 1) * q.PageSize
	query := fmt.Sprintf(`SELECT %s FROM orders %s %s LIMIT $%d OFFSET $%d`,
		orderColumns, where, orderBy, len(args)+1, len(args)+2)
	args = append(args, q.PageSize, offset)

	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	result := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	totalPages := int(total) / q.PageSize
	if int(total)%q.PageSize > 0 {
		totalPages++
	}

	return &orders.Page{
		Data: result,
		Pagination: orders.Pagination{
			Page:       q.Page,
			PageSize:   q.PageSize,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}
