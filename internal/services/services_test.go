package services

import (
	"context"
	"io"
	"testing"

	"storefront/internal/models"
	"storefront/internal/testutil"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var discard = zerolog.New(io.Discard)

type fixture struct {
	store    *testutil.Store
	provider *testutil.Provider
	users    *UserService
	catalog  *CatalogService
	carts    *CartService
	checkout *CheckoutService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := testutil.NewStore()
	provider := testutil.NewProvider()

	users := NewUserService(st.Users(), "admin@example.com", discard)
	users.hashCost = bcrypt.MinCost
	carts := NewCartService(st.Purchases(), nil, discard)

	return &fixture{
		store:    st,
		provider: provider,
		users:    users,
		catalog:  NewCatalogService(st.Products(), discard),
		carts:    carts,
		checkout: NewCheckoutService(st.Checkouts(), carts, provider, CheckoutConfig{
			BaseURL:  "http://shop.test",
			Currency: "usd",
		}, nil, discard),
	}
}

func (f *fixture) user(t *testing.T, email string) *models.User {
	t.Helper()
	u, err := f.users.Register(context.Background(), &models.RegisterRequest{Email: email, Password: "pw", Name: "Buyer"})
	require.NoError(t, err)
	return u
}

func (f *fixture) product(t *testing.T, title, price string) *models.Product {
	t.Helper()
	p, err := f.catalog.AddProduct(context.Background(), &models.NewProductRequest{
		Title:       title,
		Description: title + " description",
		Price:       models.PriceInput(price),
		ImgURL:      "https://img.example.com/" + title + ".png",
	})
	require.NoError(t, err)
	return p
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
