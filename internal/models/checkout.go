package models

import "time"

// CheckoutSession records a provider session and the cart lines it charges for.
type CheckoutSession struct {
	ID          string     `json:"id"`
	BuyerID     int64      `json:"buyer_id"`
	Status      string     `json:"status"`
	AmountTotal int64      `json:"amount_total"`
	Currency    string     `json:"currency"`
	PurchaseIDs []int64    `json:"purchase_ids"`
	URL         string     `json:"url,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type CheckoutStatus string

const (
	CheckoutStatusOpen    CheckoutStatus = "open"
	CheckoutStatusPaid    CheckoutStatus = "paid"
	CheckoutStatusExpired CheckoutStatus = "expired"
)

func (s *CheckoutSession) IsPaid() bool {
	return s.Status == string(CheckoutStatusPaid)
}

func (s *CheckoutSession) IsOpen() bool {
	return s.Status == string(CheckoutStatusOpen)
}

// Covers reports whether the session charges for exactly purchaseIDs.
func (s *CheckoutSession) Covers(purchaseIDs []int64) bool {
	if len(s.PurchaseIDs) != len(purchaseIDs) {
		return false
	}
	want := make(map[int64]struct{}, len(purchaseIDs))
	for _, id := range purchaseIDs {
		want[id] = struct{}{}
	}
	for _, id := range s.PurchaseIDs {
		if _, ok := want[id]; !ok {
			return false
		}
		delete(want, id)
	}
	return len(want) == 0
}

// PaidResult is the outcome of settling a checkout session.
type PaidResult struct {
	Transitioned bool
	Flipped      int64
}
