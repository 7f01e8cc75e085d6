package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/go-commerce/internal/models"
	"github.com/safar/go-commerce/internal/orders"
)

const cartColumns = `user_id, product_id, quantity, created_at, updated_at`

func scanCartItem(row interface{ Scan(...any) error }) (*models.CartItem, error) {
	item := &models.CartItem{}
	err := row.Scan(
		&item.UserID,
		&item.ProductID,
		&item.Quantity,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func GetCart(ctx context.Context, db *sql.DB, userID int64) ([]models.CartItem, error) {
	return cartLines(ctx, db, userID)
}

// AddCartItem merges the quantity into an existing line or creates one.
func AddCartItem(ctx context.Context, db *sql.DB, userID, productID int64, quantity int) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be >= 1")
	}
	if _, err := GetProduct(ctx, db, productID); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO cart_items (user_id, product_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()
		RETURNING ` + cartColumns

	item, err := scanCartItem(db.QueryRowContext(ctx, query, userID, productID, quantity))
	if err != nil {
		return nil, fmt.Errorf("add cart item: %w", err)
	}
	return item, nil
}

// SetCartItemQuantity replaces a line's quantity. Zero deletes the row
// instead; quantities below zero are rejected by the caller.
func SetCartItemQuantity(ctx context.Context, db *sql.DB, userID, productID int64, quantity int) (*models.CartItem, error) {
	if quantity == 0 {
		if err := RemoveCartItem(ctx, db, userID, productID); err != nil {
			return nil, err
		}
		return nil, nil
	}

	query := `
		UPDATE cart_items
		SET quantity = $3, updated_at = NOW()
		WHERE user_id = $1 AND product_id = $2
		RETURNING ` + cartColumns

	item, err := scanCartItem(db.QueryRowContext(ctx, query, userID, productID, quantity))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, orders.ErrNotFound
		}
		return nil, fmt.Errorf("update cart item: %w", err)
	}
	return item, nil
}

func RemoveCartItem(ctx context.Context, db *sql.DB, userID, productID int64) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`,
		userID, productID)
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return orders.ErrNotFound
	}
	return nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func cartLines(ctx context.Context, q queryer, userID int64) ([]models.CartItem, error) {
	query := `
		SELECT ` + cartColumns + `
		FROM cart_items
		WHERE user_id = $1
		ORDER BY created_at, product_id`

	rows, err := q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	defer rows.Close()

	var items []models.CartItem
	for rows.Next() {
		item, err := scanCartItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (t *storeTx) CartLines(ctx context.Context, userID int64) ([]models.CartItem, error) {
	return cartLines(ctx, t.tx, userID)
}

func (t *storeTx) ClearCart(ctx context.Context, userID int64) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
