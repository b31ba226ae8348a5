// Package payment talks to the hosted checkout provider (Stripe).
package payment

import "context"

type PaymentStatus string

const (
	PaymentStatusPaid              PaymentStatus = "paid"
	PaymentStatusUnpaid            PaymentStatus = "unpaid"
	PaymentStatusNoPaymentRequired PaymentStatus = "no_payment_required"
)

// SessionStatus is the lifecycle state of a hosted session, independent of payment.
type SessionStatus string

const (
	SessionStatusOpen     SessionStatus = "open"
	SessionStatusComplete SessionStatus = "complete"
	SessionStatusExpired  SessionStatus = "expired"
)

type LineItem struct {
	Name       string
	ImageURL   string
	UnitAmount int64
	Quantity   int64
}

type SessionRequest struct {
	LineItems         []LineItem
	Currency          string
	SuccessURL        string
	CancelURL         string
	ClientReferenceID string
	IdempotencyKey    string
}

type Session struct {
	ID            string
	URL           string
	Status        SessionStatus
	PaymentStatus PaymentStatus
	AmountTotal   int64
}

// IsPaid reports whether the session is settled. A zero-total session is
// settled without a charge.
func (s *Session) IsPaid() bool {
	return s.PaymentStatus == PaymentStatusPaid || s.PaymentStatus == PaymentStatusNoPaymentRequired
}

func (s *Session) IsOpen() bool {
	return s.Status == SessionStatusOpen
}

// Provider creates hosted checkout sessions, reports their payment status and
// expires sessions that were superseded before payment.
type Provider interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	GetSession(ctx context.Context, id string) (*Session, error)
	ExpireSession(ctx context.Context, id string) (*Session, error)
}
