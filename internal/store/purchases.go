package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/db"
	"storefront/internal/models"
)

type PurchaseStore struct {
	db *sql.DB
}

func NewPurchaseStore(db *sql.DB) *PurchaseStore {
	return &PurchaseStore{db: db}
}

// AddToCart inserts an unpaid purchase for (buyerID, productID) unless one is
// already pending. It reports whether a new cart line was created.
func (s *PurchaseStore) AddToCart(ctx context.Context, buyerID, productID int64) (bool, error) {
	var created bool
	err := db.WithTx(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		var id int64
		err := tx.QueryRowContext(ctx, "SELECT id FROM products WHERE id = ?", productID).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrNotFound
		}
		if err != nil {
			return translate(err)
		}

		// the no-op update keeps a second add from creating another pending row
		result, err := tx.ExecContext(ctx,
			`INSERT INTO purchases (paid, buyer_id, product_id) VALUES (FALSE, ?, ?)
			 ON DUPLICATE KEY UPDATE id = id`,
			buyerID, productID,
		)
		if err != nil {
			return translate(err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return translate(err)
		}
		created = n == 1
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// Pending returns the buyer's cart lines: purchases with paid = FALSE.
func (s *PurchaseStore) Pending(ctx context.Context, buyerID int64) ([]models.CartItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT pu.id, p.id, p.title, p.description, p.price, p.img_url
		 FROM purchases pu
		 JOIN products p ON p.id = pu.product_id
		 WHERE pu.buyer_id = ? AND pu.paid = FALSE
		 ORDER BY pu.id`,
		buyerID,
	)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	items := []models.CartItem{}
	for rows.Next() {
		var item models.CartItem
		p := &item.Product
		if err := rows.Scan(&item.PurchaseID, &p.ID, &p.Title, &p.Description, &p.Price, &p.ImgURL); err != nil {
			return nil, fmt.Errorf("error scanning cart item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err)
	}
	return items, nil
}
