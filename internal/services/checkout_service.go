package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/payment"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type CheckoutConfig struct {
	BaseURL  string
	Currency string
}

type CheckoutService struct {
	checkouts CheckoutRepository
	carts     *CartService
	provider  payment.Provider
	cfg       CheckoutConfig
	metrics   *metrics.Metrics
	logger    zerolog.Logger

	// serializes checkouts of the same buyer within this process
	buyerLocks [64]sync.Mutex
}

func NewCheckoutService(
	checkouts CheckoutRepository,
	carts *CartService,
	provider payment.Provider,
	cfg CheckoutConfig,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *CheckoutService {
	return &CheckoutService{
		checkouts: checkouts,
		carts:     carts,
		provider:  provider,
		cfg:       cfg,
		metrics:   m,
		logger:    logger,
	}
}

func (s *CheckoutService) lockBuyer(buyerID int64) func() {
	mu := &s.buyerLocks[uint64(buyerID)%uint64(len(s.buyerLocks))]
	mu.Lock()
	return mu.Unlock
}

func lineItemsFor(cart *models.Cart) ([]payment.LineItem, int64) {
	lineItems := make([]payment.LineItem, 0, len(cart.Items))
	var amountTotal int64
	for _, product := range cart.Products() {
		unitAmount := product.UnitAmount()
		lineItems = append(lineItems, payment.LineItem{
			Name:       product.Title,
			ImageURL:   product.ImgURL,
			UnitAmount: unitAmount,
			Quantity:   1,
		})
		amountTotal += unitAmount
	}
	return lineItems, amountTotal
}

func providerUnavailable(err error) error {
	if errors.Is(err, models.ErrProviderUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", models.ErrProviderUnavailable, err)
}

// CreateSession returns the provider session that charges for the user's
// whole cart. An earlier open session for exactly the same purchases is
// reused. Any other open session of the user is settled when the provider
// reports it paid, or expired otherwise, so one cart line is never payable
// through two sessions.
func (s *CheckoutService) CreateSession(ctx context.Context, user *models.User) (*models.CheckoutSession, error) {
	defer s.lockBuyer(user.ID)()

	cart, err := s.carts.CartFor(ctx, user.ID)
	if err != nil {
		s.metrics.ObserveCheckout("error")
		return nil, err
	}
	if cart.IsEmpty() {
		s.metrics.ObserveCheckout("empty_cart")
		return nil, models.ErrEmptyCart
	}

	open, err := s.checkouts.OpenForBuyer(ctx, user.ID)
	if err != nil {
		s.metrics.ObserveCheckout("error")
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("Error loading open checkout sessions")
		return nil, err
	}

	remotes := make([]*payment.Session, len(open))
	settled := false
	for i := range open {
		remote, err := s.provider.GetSession(ctx, open[i].ID)
		if err != nil {
			s.metrics.ObserveCheckout("provider_error")
			return nil, providerUnavailable(err)
		}
		remotes[i] = remote
		if !remote.IsPaid() {
			continue
		}

		// paid on the provider but not reconciled yet
		if _, err := s.Reconcile(ctx, open[i].ID); err != nil {
			if errors.Is(err, models.ErrProviderUnavailable) {
				s.metrics.ObserveCheckout("provider_error")
				return nil, err
			}
			s.logger.Error().Err(err).Str("session_id", open[i].ID).Msg("Could not settle paid checkout session")
		}
		settled = true
	}
	if settled {
		cart, err = s.carts.CartFor(ctx, user.ID)
		if err != nil {
			s.metrics.ObserveCheckout("error")
			return nil, err
		}
	}

	lineItems, amountTotal := lineItemsFor(cart)
	purchaseIDs := cart.PurchaseIDs()

	var reuse *models.CheckoutSession
	for i := range open {
		remote := remotes[i]
		if remote.IsPaid() {
			continue
		}
		if reuse == nil && !cart.IsEmpty() && remote.IsOpen() &&
			open[i].Covers(purchaseIDs) && open[i].AmountTotal == amountTotal {
			reuse = &open[i]
			reuse.URL = remote.URL
			continue
		}
		if err := s.supersede(ctx, &open[i], remote); err != nil {
			return nil, err
		}
	}

	if cart.IsEmpty() {
		s.metrics.ObserveCheckout("empty_cart")
		return nil, models.ErrEmptyCart
	}
	if reuse != nil {
		s.metrics.ObserveCheckout("reused")
		s.logger.Info().
			Str("session_id", reuse.ID).
			Int64("user_id", user.ID).
			Msg("Reusing open checkout session")
		return reuse, nil
	}

	remote, err := s.provider.CreateSession(ctx, payment.SessionRequest{
		LineItems:         lineItems,
		Currency:          s.cfg.Currency,
		SuccessURL:        s.cfg.BaseURL + "/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:         s.cfg.BaseURL + "/cart",
		ClientReferenceID: strconv.FormatInt(user.ID, 10),
		IdempotencyKey:    uuid.NewString(),
	})
	if err != nil {
		s.metrics.ObserveCheckout("provider_error")
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("Checkout session creation failed")
		return nil, providerUnavailable(err)
	}

	session := &models.CheckoutSession{
		ID:          remote.ID,
		BuyerID:     user.ID,
		Status:      string(models.CheckoutStatusOpen),
		AmountTotal: amountTotal,
		Currency:    s.cfg.Currency,
		PurchaseIDs: purchaseIDs,
		URL:         remote.URL,
	}
	if err := s.checkouts.Create(ctx, session); err != nil {
		s.metrics.ObserveCheckout("error")
		s.logger.Error().Err(err).Str("session_id", remote.ID).Msg("Error recording checkout session")
		return nil, fmt.Errorf("failed to record checkout session: %w", err)
	}

	s.metrics.ObserveCheckout("created")
	s.logger.Info().
		Str("session_id", session.ID).
		Int64("user_id", user.ID).
		Int("items", len(lineItems)).
		Int64("amount_total", amountTotal).
		Msg("Checkout session opened")
	return session, nil
}

// supersede retires an unpaid session so it can no longer be paid. A session
// the provider already completed without payment is left alone.
func (s *CheckoutService) supersede(ctx context.Context, session *models.CheckoutSession, remote *payment.Session) error {
	switch remote.Status {
	case payment.SessionStatusOpen:
		if _, err := s.provider.ExpireSession(ctx, session.ID); err != nil {
			s.metrics.ObserveCheckout("provider_error")
			s.logger.Error().Err(err).Str("session_id", session.ID).Msg("Could not expire superseded checkout session")
			return providerUnavailable(err)
		}
	case payment.SessionStatusExpired:
	default:
		s.logger.Warn().
			Str("session_id", session.ID).
			Str("status", string(remote.Status)).
			Str("payment_status", string(remote.PaymentStatus)).
			Msg("Leaving completed unpaid checkout session open")
		return nil
	}

	if _, err := s.checkouts.MarkExpired(ctx, session.ID); err != nil {
		s.metrics.ObserveCheckout("error")
		s.logger.Error().Err(err).Str("session_id", session.ID).Msg("Error recording expired checkout session")
		return err
	}

	s.metrics.ObserveCheckout("superseded")
	s.logger.Info().Str("session_id", session.ID).Int64("user_id", session.BuyerID).Msg("Checkout session superseded")
	return nil
}

// Reconcile confirms with the provider that the session was paid and then
// marks its purchases paid. It is idempotent: a session that was already
// processed returns processed=false and no error.
func (s *CheckoutService) Reconcile(ctx context.Context, sessionID string) (processed bool, err error) {
	if sessionID == "" {
		v := &models.ValidationError{}
		v.Add("session_id", "Session id is required.")
		return false, v
	}

	local, err := s.checkouts.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.metrics.ObserveReconcile("unknown_session")
			s.logger.Warn().Str("session_id", sessionID).Msg("Reconcile for unknown session")
		} else {
			s.metrics.ObserveReconcile("error")
		}
		return false, err
	}
	if local.IsPaid() {
		s.metrics.ObserveReconcile("already_paid")
		return false, nil
	}
	if !local.IsOpen() {
		s.metrics.ObserveReconcile("expired")
		return false, models.ErrPaymentNotCompleted
	}

	remote, err := s.provider.GetSession(ctx, sessionID)
	if err != nil {
		s.metrics.ObserveReconcile("provider_error")
		return false, providerUnavailable(err)
	}
	if !remote.IsPaid() {
		s.metrics.ObserveReconcile("unpaid")
		s.logger.Info().Str("session_id", sessionID).Str("payment_status", string(remote.PaymentStatus)).Msg("Session not paid yet")
		return false, models.ErrPaymentNotCompleted
	}
	if remote.AmountTotal != local.AmountTotal {
		s.metrics.ObserveReconcile("amount_mismatch")
		s.logger.Error().
			Str("session_id", sessionID).
			Int64("expected", local.AmountTotal).
			Int64("paid", remote.AmountTotal).
			Msg("Paid amount differs from checkout total")
		return false, models.ErrAmountMismatch
	}

	res, err := s.checkouts.MarkPaid(ctx, sessionID)
	if err != nil {
		s.metrics.ObserveReconcile("error")
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("Error marking checkout paid")
		return false, err
	}
	if !res.Transitioned {
		s.metrics.ObserveReconcile("already_paid")
		return false, nil
	}

	if res.Flipped < int64(len(local.PurchaseIDs)) {
		s.metrics.ObserveReconcile("duplicate_payment")
		s.logger.Error().
			Str("session_id", sessionID).
			Int64("user_id", local.BuyerID).
			Int("purchases", len(local.PurchaseIDs)).
			Int64("newly_paid", res.Flipped).
			Int64("amount_total", local.AmountTotal).
			Msg("Checkout paid for purchases that were already paid")
		return true, nil
	}

	s.metrics.ObserveReconcile("paid")
	s.logger.Info().
		Str("session_id", sessionID).
		Int64("user_id", local.BuyerID).
		Int("purchases", len(local.PurchaseIDs)).
		Msg("Checkout reconciled")
	return true, nil
}
