package handlers

import (
	"errors"
	"io"
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/payment"
	"storefront/internal/services"

	"github.com/rs/zerolog"
)

const maxWebhookBytes = 64 << 10

type CheckoutHandler struct {
	checkoutService *services.CheckoutService
	webhooks        *payment.WebhookVerifier
	logger          zerolog.Logger
}

func NewCheckoutHandler(checkoutService *services.CheckoutService, webhooks *payment.WebhookVerifier, logger zerolog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		webhooks:        webhooks,
		logger:          logger,
	}
}

type CheckoutResponse struct {
	ID  string `json:"id"`
	URL string `json:"url,omitempty"`
}

type SuccessResponse struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id"`
}

func (h *CheckoutHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.checkoutService.CreateSession(r.Context(), middleware.CurrentUser(r))
	switch {
	case err == nil:
		respondWithJSON(w, http.StatusOK, CheckoutResponse{ID: session.ID, URL: session.URL})
	case errors.Is(err, models.ErrEmptyCart):
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_failed",
			Message: "Your cart is empty.",
			Fields:  map[string]string{"cart": "Your cart is empty."},
		})
	case errors.Is(err, models.ErrProviderUnavailable):
		respondWithError(w, http.StatusServiceUnavailable, "payment_provider_unavailable", "")
	default:
		respondWithError(w, http.StatusInternalServerError, "internal_error", "Could not start checkout")
	}
}

// Success is the provider's redirect target. The session is verified with the
// provider before any purchase is marked paid.
func (h *CheckoutHandler) Success(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")

	_, err := h.checkoutService.Reconcile(r.Context(), sessionID)
	if err != nil {
		h.respondReconcileError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, SuccessResponse{
		Status:    string(models.CheckoutStatusPaid),
		SessionID: sessionID,
	})
}

func (h *CheckoutHandler) respondReconcileError(w http.ResponseWriter, err error) {
	switch {
	case respondWithValidation(w, err):
	case errors.Is(err, models.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "unknown_session", "Checkout session not found")
	case errors.Is(err, models.ErrProviderUnavailable):
		respondWithError(w, http.StatusServiceUnavailable, "payment_provider_unavailable", "")
	case errors.Is(err, models.ErrPaymentNotCompleted):
		respondWithError(w, http.StatusPaymentRequired, "payment_not_completed", "Payment has not completed yet")
	case errors.Is(err, models.ErrAmountMismatch):
		respondWithError(w, http.StatusConflict, "amount_mismatch", "Paid amount does not match the order")
	default:
		respondWithError(w, http.StatusInternalServerError, "internal_error", "Could not confirm payment")
	}
}

// Webhook accepts signed checkout.session.completed deliveries and feeds them
// through the same reconciliation as Success.
func (h *CheckoutHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	if !h.webhooks.Enabled() {
		respondWithError(w, http.StatusNotFound, "not_found", "")
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid_request", "Could not read body")
		return
	}

	sessionID, ok, err := h.webhooks.CompletedSessionID(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.logger.Warn().Err(err).Msg("Rejected webhook")
		respondWithError(w, http.StatusBadRequest, "invalid_signature", "")
		return
	}
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}

	processed, err := h.checkoutService.Reconcile(r.Context(), sessionID)
	if err != nil {
		// the provider retries 5xx deliveries
		if errors.Is(err, models.ErrProviderUnavailable) {
			respondWithError(w, http.StatusServiceUnavailable, "payment_provider_unavailable", "")
			return
		}
		h.logger.Warn().Err(err).Str("session_id", sessionID).Msg("Webhook not reconciled")
		w.WriteHeader(http.StatusOK)
		return
	}

	h.logger.Info().Str("session_id", sessionID).Bool("processed", processed).Msg("Webhook handled")
	w.WriteHeader(http.StatusOK)
}
