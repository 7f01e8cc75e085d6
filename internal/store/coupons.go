package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/safar/go-commerce/internal/models"
	"github.com/safar/go-commerce/internal/orders"
	"github.com/shopspring/decimal"
)

const couponColumns = `id, code, percent, amount, expires_at, usage_limit, used_count, created_at`

func scanCoupon(row interface{ Scan(...any) error }) (*models.Coupon, error) {
	c := &models.Coupon{}
	err := row.Scan(
		&c.ID,
		&c.Code,
		&c.Percent,
		&c.Amount,
		&c.ExpiresAt,
		&c.UsageLimit,
		&c.UsedCount,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func CreateCoupon(ctx context.Context, db *sql.DB, code string, percent int, amount decimal.Decimal, expiresAt time.Time, usageLimit int) (*models.Coupon, error) {
	query := `
		INSERT INTO coupons (code, percent, amount, expires_at, usage_limit, used_count, created_at)
		VALUES ($1, $2, $3, $4, $5, 0, NOW())
		RETURNING ` + couponColumns

	c, err := scanCoupon(db.QueryRowContext(ctx, query,
		strings.ToUpper(strings.TrimSpace(code)), percent, amount, expiresAt, usageLimit))
	if err != nil {
		return nil, fmt.Errorf("create coupon: %w", err)
	}
	return c, nil
}

func (t *storeTx) CouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1`

	c, err := scanCoupon(t.tx.QueryRowContext(ctx, query, strings.ToUpper(strings.TrimSpace(code))))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, orders.ErrNotFound
		}
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	return c, nil
}

func (t *storeTx) RedeemCoupon(ctx context.Context, id int64) error {
	result, err := t.tx.ExecContext(ctx,
		`UPDATE coupons
		 SET used_count = used_count + 1
		 WHERE id = $1
		   AND (usage_limit = 0 OR used_count < usage_limit)`,
		id)
	if err != nil {
		return fmt.Errorf("redeem coupon: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: usage limit reached", orders.ErrInvalidCoupon)
	}
	return nil
}
