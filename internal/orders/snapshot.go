package orders

import (
	"context"

	"github.com/safar/go-commerce/internal/models"
	"github.com/shopspring/decimal"
)

// SnapshotLine is one cart line resolved against the live product: current
// price, current name, and the quantity the user asked for.
type SnapshotLine struct {
	ProductID    int64           `json:"product_id"`
	Name         string          `json:"name"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     int             `json:"quantity"`
	LineSubtotal decimal.Decimal `json:"line_subtotal"`
}

// CartSnapshot is the resolved state of a user's cart at a point in time.
type CartSnapshot struct {
	UserID int64          `json:"user_id"`
	Lines  []SnapshotLine `json:"lines"`
}

// buildSnapshot joins cart lines to their products. Every blocking line is
// collected, not just the first, so the caller sees the full picture. The
// sentinel distinguishes snapshot-time failures (ErrProductUnavailable) from
// commit-time races (ErrStockChanged).
func buildSnapshot(userID int64, lines []models.CartItem, products map[int64]models.Product, sentinel error) (*CartSnapshot, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	snap := &CartSnapshot{UserID: userID}
	var blocked []UnavailableLine

	for _, line := range lines {
		p, ok := products[line.ProductID]
		if !ok {
			blocked = append(blocked, UnavailableLine{
				ProductID: line.ProductID,
				Requested: line.Quantity,
				Missing:   true,
			})
			continue
		}
		if p.StockQuantity < line.Quantity {
			blocked = append(blocked, UnavailableLine{
				ProductID: line.ProductID,
				Name:      p.Name,
				Requested: line.Quantity,
				Available: p.StockQuantity,
			})
			continue
		}
		qty := decimal.NewFromInt(int64(line.Quantity))
		snap.Lines = append(snap.Lines, SnapshotLine{
			ProductID:    p.ID,
			Name:         p.Name,
			UnitPrice:    p.Price,
			Quantity:     line.Quantity,
			LineSubtotal: p.Price.Mul(qty),
		})
	}

	if len(blocked) > 0 {
		return nil, &StockError{Err: sentinel, Lines: blocked}
	}
	return snap, nil
}

// Snapshot reads the user's cart and resolves it against live products.
// Read-only; fails with ErrEmptyCart or ErrProductUnavailable.
func (s *Service) Snapshot(ctx context.Context, userID int64) (*CartSnapshot, error) {
	var snap *CartSnapshot
	err := s.repo.View(ctx, func(tx Tx) error {
		lines, err := tx.CartLines(ctx, userID)
		if err != nil {
			return err
		}
		products, err := productsFor(ctx, tx, lines)
		if err != nil {
			return err
		}
		snap, err = buildSnapshot(userID, lines, products, ErrProductUnavailable)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func productsFor(ctx context.Context, tx Tx, lines []models.CartItem) (map[int64]models.Product, error) {
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	return tx.ProductsByID(ctx, ids)
}
