package services

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddProduct(t *testing.T) {
	f := newFixture(t)

	p := f.product(t, "Mug", "12.499")
	assert.True(t, p.Price.Equal(dec("12.50")))

	products, err := f.catalog.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Mug", products[0].Title)
}

func TestAddProduct_DuplicateTitle(t *testing.T) {
	f := newFixture(t)
	f.product(t, "Mug", "1")

	_, err := f.catalog.AddProduct(context.Background(), &models.NewProductRequest{
		Title: "Mug", Description: "again", Price: "2", ImgURL: "https://img.example.com/x.png",
	})
	require.ErrorIs(t, err, models.ErrDuplicateKey)
}

func TestAddProduct_Validation(t *testing.T) {
	tests := []struct {
		name  string
		req   models.NewProductRequest
		field string
	}{
		{"missing title", models.NewProductRequest{Description: "d", Price: "1", ImgURL: "https://i/x"}, "title"},
		{"negative price", models.NewProductRequest{Title: "t", Description: "d", Price: "-1", ImgURL: "https://i/x"}, "price"},
		{"non numeric price", models.NewProductRequest{Title: "t", Description: "d", Price: "ten", ImgURL: "https://i/x"}, "price"},
		{"price above ceiling", models.NewProductRequest{Title: "t", Description: "d", Price: "1000000", ImgURL: "https://i/x"}, "price"},
		{"price overflowing cents", models.NewProductRequest{Title: "t", Description: "d", Price: "99999999999999999.99", ImgURL: "https://i/x"}, "price"},
		{"relative image url", models.NewProductRequest{Title: "t", Description: "d", Price: "1", ImgURL: "/img/x.png"}, "img_url"},
		{"non http image url", models.NewProductRequest{Title: "t", Description: "d", Price: "1", ImgURL: "ftp://host/x.png"}, "img_url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.catalog.AddProduct(context.Background(), &tt.req)

			var verr *models.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestAddProduct_ZeroPriceAllowed(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Sticker", "0")
	assert.True(t, p.Price.IsZero())
}

func TestAddProduct_HighestPriceAllowed(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Boat", "999999.99")
	assert.Equal(t, int64(99999999), p.UnitAmount())
}
