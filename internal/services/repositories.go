package services

import (
	"context"

	"storefront/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	SetRole(ctx context.Context, email, role string) error
}

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	List(ctx context.Context) ([]models.Product, error)
}

type PurchaseRepository interface {
	AddToCart(ctx context.Context, buyerID, productID int64) (bool, error)
	Pending(ctx context.Context, buyerID int64) ([]models.CartItem, error)
}

type CheckoutRepository interface {
	Create(ctx context.Context, session *models.CheckoutSession) error
	Get(ctx context.Context, id string) (*models.CheckoutSession, error)
	OpenForBuyer(ctx context.Context, buyerID int64) ([]models.CheckoutSession, error)
	MarkPaid(ctx context.Context, id string) (models.PaidResult, error)
	MarkExpired(ctx context.Context, id string) (bool, error)
}
