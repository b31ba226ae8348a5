package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/models"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

type StripeConfig struct {
	SecretKey string
	Timeout   time.Duration
	// BaseURL overrides the API endpoint; empty means api.stripe.com.
	BaseURL string
}

type StripeProvider struct {
	api    *client.API
	logger zerolog.Logger
}

func NewStripeProvider(cfg StripeConfig, logger zerolog.Logger) *StripeProvider {
	if cfg.SecretKey == "" {
		logger.Warn().Msg("STRIPE_SECRET_KEY not set, checkout requests will fail")
	}

	backendCfg := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: cfg.Timeout},
		MaxNetworkRetries: stripe.Int64(1),
		LeveledLogger:     stripeLogger{logger: logger},
	}
	if cfg.BaseURL != "" {
		backendCfg.URL = stripe.String(cfg.BaseURL)
	}

	backends := &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, backendCfg),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, backendCfg),
	}

	return &StripeProvider{
		api:    client.New(cfg.SecretKey, backends),
		logger: logger,
	}
}

func (p *StripeProvider) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
	}
	if req.ClientReferenceID != "" {
		params.ClientReferenceID = stripe.String(req.ClientReferenceID)
	}

	for _, item := range req.LineItems {
		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(item.Name),
		}
		if item.ImageURL != "" {
			productData.Images = stripe.StringSlice([]string{item.ImageURL})
		}

		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(req.Currency),
				ProductData: productData,
				UnitAmount:  stripe.Int64(item.UnitAmount),
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	s, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, p.wrapError("create checkout session", err)
	}

	p.logger.Info().
		Str("session_id", s.ID).
		Int("line_items", len(req.LineItems)).
		Int64("amount_total", s.AmountTotal).
		Msg("Checkout session created")

	return toSession(s), nil
}

func (p *StripeProvider) GetSession(ctx context.Context, id string) (*Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := p.api.CheckoutSessions.Get(id, params)
	if err != nil {
		return nil, p.wrapError("retrieve checkout session", err)
	}
	return toSession(s), nil
}

// ExpireSession closes an open session so it can no longer be paid.
func (p *StripeProvider) ExpireSession(ctx context.Context, id string) (*Session, error) {
	params := &stripe.CheckoutSessionExpireParams{}
	params.Context = ctx

	s, err := p.api.CheckoutSessions.Expire(id, params)
	if err != nil {
		return nil, p.wrapError("expire checkout session", err)
	}

	p.logger.Info().Str("session_id", s.ID).Msg("Checkout session expired")
	return toSession(s), nil
}

// wrapError marks every provider failure as retryable for the caller while
// keeping the underlying stripe error reachable through errors.As.
func (p *StripeProvider) wrapError(op string, err error) error {
	event := p.logger.Error().Err(err).Str("op", op)

	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		event = event.
			Int("http_status", stripeErr.HTTPStatusCode).
			Str("type", string(stripeErr.Type)).
			Str("request_id", stripeErr.RequestID)
	}
	event.Msg("Payment provider request failed")

	return fmt.Errorf("%w: %s: %w", models.ErrProviderUnavailable, op, err)
}

func toSession(s *stripe.CheckoutSession) *Session {
	return &Session{
		ID:            s.ID,
		URL:           s.URL,
		Status:        SessionStatus(s.Status),
		PaymentStatus: PaymentStatus(s.PaymentStatus),
		AmountTotal:   s.AmountTotal,
	}
}

type stripeLogger struct {
	logger zerolog.Logger
}

func (l stripeLogger) Debugf(format string, v ...interface{}) { l.logger.Debug().Msgf(format, v...) }
func (l stripeLogger) Infof(format string, v ...interface{})  { l.logger.Debug().Msgf(format, v...) }
func (l stripeLogger) Warnf(format string, v ...interface{})  { l.logger.Warn().Msgf(format, v...) }
func (l stripeLogger) Errorf(format string, v ...interface{}) { l.logger.Error().Msgf(format, v...) }
