package services

import (
	"context"
	"errors"

	"storefront/internal/metrics"
	"storefront/internal/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type CartService struct {
	purchases PurchaseRepository
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

func NewCartService(purchases PurchaseRepository, m *metrics.Metrics, logger zerolog.Logger) *CartService {
	return &CartService{
		purchases: purchases,
		metrics:   m,
		logger:    logger,
	}
}

// CartFor returns the user's unpaid purchases and their summed price.
func (s *CartService) CartFor(ctx context.Context, userID int64) (*models.Cart, error) {
	items, err := s.purchases.Pending(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("Error loading cart")
		return nil, err
	}

	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Product.Price)
	}

	return &models.Cart{Items: items, Total: total}, nil
}

// AddToCart puts productID in the user's cart. Adding a product that is
// already pending is a no-op.
func (s *CartService) AddToCart(ctx context.Context, userID, productID int64) error {
	created, err := s.purchases.AddToCart(ctx, userID, productID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.metrics.ObserveCartAdd("unknown_product")
			s.logger.Warn().Int64("user_id", userID).Int64("product_id", productID).Msg("Add to cart for unknown product")
		} else {
			s.metrics.ObserveCartAdd("error")
			s.logger.Error().Err(err).Int64("user_id", userID).Int64("product_id", productID).Msg("Error adding to cart")
		}
		return err
	}

	if created {
		s.metrics.ObserveCartAdd("created")
	} else {
		s.metrics.ObserveCartAdd("already_pending")
	}

	s.logger.Info().
		Int64("user_id", userID).
		Int64("product_id", productID).
		Bool("created", created).
		Msg("Product added to cart")
	return nil
}
