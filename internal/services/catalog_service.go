package services

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"storefront/internal/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type CatalogService struct {
	products ProductRepository
	logger   zerolog.Logger
}

func NewCatalogService(products ProductRepository, logger zerolog.Logger) *CatalogService {
	return &CatalogService{
		products: products,
		logger:   logger,
	}
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Error listing products")
		return nil, err
	}
	return products, nil
}

func (s *CatalogService) AddProduct(ctx context.Context, req *models.NewProductRequest) (*models.Product, error) {
	product, err := parseProduct(req)
	if err != nil {
		return nil, err
	}

	created, err := s.products.Create(ctx, product)
	if err != nil {
		if !errors.Is(err, models.ErrDuplicateKey) {
			s.logger.Error().Err(err).Msg("Error creating product")
		}
		return nil, err
	}

	s.logger.Info().
		Int64("product_id", created.ID).
		Str("title", created.Title).
		Str("price", created.Price.StringFixed(2)).
		Msg("Product created")
	return created, nil
}

// maxPrice keeps a line item's amount in cents within what the payment
// provider accepts.
var maxPrice = decimal.RequireFromString("999999.99")

func parseProduct(req *models.NewProductRequest) (*models.Product, error) {
	var v models.ValidationError

	title := strings.TrimSpace(req.Title)
	if title == "" {
		v.Add("title", "Name of product is required.")
	} else if len(title) > 250 {
		v.Add("title", "Name of product must be at most 250 characters.")
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		v.Add("description", "Description is required.")
	} else if len(description) > 250 {
		v.Add("description", "Description must be at most 250 characters.")
	}

	var price decimal.Decimal
	rawPrice := strings.TrimSpace(string(req.Price))
	if rawPrice == "" {
		v.Add("price", "Price is required.")
	} else if p, err := decimal.NewFromString(rawPrice); err != nil {
		v.Add("price", "Price must be a number.")
	} else if p.IsNegative() {
		v.Add("price", "Price must not be negative.")
	} else if p.Round(2).GreaterThan(maxPrice) {
		v.Add("price", "Price must be at most "+maxPrice.StringFixed(2)+".")
	} else {
		price = p.Round(2)
	}

	imgURL := strings.TrimSpace(req.ImgURL)
	if imgURL == "" {
		v.Add("img_url", "Image URL is required.")
	} else if u, err := url.ParseRequestURI(imgURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		v.Add("img_url", "Image URL must be a valid URL.")
	}

	if err := v.OrNil(); err != nil {
		return nil, err
	}

	return &models.Product{
		Title:       title,
		Description: description,
		Price:       price,
		ImgURL:      imgURL,
	}, nil
}
