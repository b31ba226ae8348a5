package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/db"
	"storefront/internal/models"
)

type CheckoutStore struct {
	db *sql.DB
}

func NewCheckoutStore(db *sql.DB) *CheckoutStore {
	return &CheckoutStore{db: db}
}

// Create records a provider session together with the purchases it covers.
func (s *CheckoutStore) Create(ctx context.Context, session *models.CheckoutSession) error {
	return db.WithTx(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO checkout_sessions (id, buyer_id, status, amount_total, currency) VALUES (?, ?, ?, ?, ?)",
			session.ID, session.BuyerID, session.Status, session.AmountTotal, session.Currency,
		)
		if err != nil {
			return translate(err)
		}

		for _, purchaseID := range session.PurchaseIDs {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO checkout_session_items (session_id, purchase_id) VALUES (?, ?)",
				session.ID, purchaseID,
			)
			if err != nil {
				return translate(err)
			}
		}
		return nil
	})
}

func (s *CheckoutStore) Get(ctx context.Context, id string) (*models.CheckoutSession, error) {
	var session models.CheckoutSession
	var completedAt sql.NullTime

	err := s.db.QueryRowContext(ctx,
		"SELECT id, buyer_id, status, amount_total, currency, created_at, completed_at FROM checkout_sessions WHERE id = ?",
		id,
	).Scan(
		&session.ID, &session.BuyerID, &session.Status, &session.AmountTotal,
		&session.Currency, &session.CreatedAt, &completedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, translate(err)
	}
	if completedAt.Valid {
		t := completedAt.Time
		session.CompletedAt = &t
	}

	session.PurchaseIDs, err = s.purchaseIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *CheckoutStore) purchaseIDs(ctx context.Context, sessionID string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT purchase_id FROM checkout_session_items WHERE session_id = ? ORDER BY purchase_id",
		sessionID,
	)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var purchaseID int64
		if err := rows.Scan(&purchaseID); err != nil {
			return nil, fmt.Errorf("error scanning checkout item: %w", err)
		}
		ids = append(ids, purchaseID)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err)
	}
	return ids, nil
}

// OpenForBuyer lists the buyer's sessions that are neither paid nor expired,
// oldest first.
func (s *CheckoutStore) OpenForBuyer(ctx context.Context, buyerID int64) ([]models.CheckoutSession, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, buyer_id, status, amount_total, currency, created_at FROM checkout_sessions WHERE buyer_id = ? AND status = ? ORDER BY created_at, id",
		buyerID, string(models.CheckoutStatusOpen),
	)
	if err != nil {
		return nil, translate(err)
	}

	sessions := []models.CheckoutSession{}
	for rows.Next() {
		var session models.CheckoutSession
		if err := rows.Scan(
			&session.ID, &session.BuyerID, &session.Status, &session.AmountTotal,
			&session.Currency, &session.CreatedAt,
		); err != nil {
			rows.Close()
			return nil, fmt.Errorf("error scanning checkout session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, translate(err)
	}
	rows.Close()

	for i := range sessions {
		ids, err := s.purchaseIDs(ctx, sessions[i].ID)
		if err != nil {
			return nil, err
		}
		sessions[i].PurchaseIDs = ids
	}
	return sessions, nil
}

// MarkExpired closes an open session. It reports false when the session was
// no longer open.
func (s *CheckoutStore) MarkExpired(ctx context.Context, id string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		"UPDATE checkout_sessions SET status = ?, completed_at = NOW() WHERE id = ? AND status = ?",
		string(models.CheckoutStatusExpired), id, string(models.CheckoutStatusOpen),
	)
	if err != nil {
		return false, translate(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, translate(err)
	}
	return n == 1, nil
}

// MarkPaid moves the session from open to paid and flips its purchases to
// paid, in one transaction. Both updates are conditional: Transitioned is
// false when another caller already completed the session, and Flipped counts
// only purchases that were still unpaid.
func (s *CheckoutStore) MarkPaid(ctx context.Context, id string) (models.PaidResult, error) {
	var res models.PaidResult
	err := db.WithTx(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		result, err := tx.ExecContext(ctx,
			"UPDATE checkout_sessions SET status = ?, completed_at = NOW() WHERE id = ? AND status = ?",
			string(models.CheckoutStatusPaid), id, string(models.CheckoutStatusOpen),
		)
		if err != nil {
			return translate(err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return translate(err)
		}
		if n == 0 {
			return nil
		}

		flipped, err := tx.ExecContext(ctx,
			`UPDATE purchases pu
			 JOIN checkout_session_items i ON i.purchase_id = pu.id
			 SET pu.paid = TRUE, pu.paid_at = NOW()
			 WHERE i.session_id = ? AND pu.paid = FALSE`,
			id,
		)
		if err != nil {
			return translate(err)
		}
		res.Flipped, err = flipped.RowsAffected()
		if err != nil {
			return translate(err)
		}
		res.Transitioned = true
		return nil
	})
	if err != nil {
		return models.PaidResult{}, err
	}
	return res, nil
}
