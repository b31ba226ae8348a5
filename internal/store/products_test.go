package store

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"storefront/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productColumns = []string{"id", "title", "description", "price", "img_url"}

func TestProductStore_Create(t *testing.T) {
	db, mock := newMock(t)
	s := NewProductStore(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO products (title, description, price, img_url) VALUES (?, ?, ?, ?)")).
		WithArgs("Mug", "A mug", "12.5", "https://img.example.com/mug.png").
		WillReturnResult(sqlmock.NewResult(11, 1))

	p, err := s.Create(context.Background(), &models.Product{
		Title:       "Mug",
		Description: "A mug",
		Price:       decimal.RequireFromString("12.50"),
		ImgURL:      "https://img.example.com/mug.png",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), p.ID)
}

func TestProductStore_Create_DuplicateTitle(t *testing.T) {
	db, mock := newMock(t)
	s := NewProductStore(db)

	mock.ExpectExec("INSERT INTO products").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'Mug'"})

	_, err := s.Create(context.Background(), &models.Product{Title: "Mug", Price: decimal.NewFromInt(1)})
	require.ErrorIs(t, err, models.ErrDuplicateKey)
}

func TestProductStore_List(t *testing.T) {
	db, mock := newMock(t)
	s := NewProductStore(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, description, price, img_url FROM products ORDER BY id")).
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow(1, "Mug", "A mug", "20.00", "https://img/1").
			AddRow(2, "Cap", "A cap", "5.00", "https://img/2"))

	products, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.True(t, products[0].Price.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, "Cap", products[1].Title)
}

func TestProductStore_List_Empty(t *testing.T) {
	db, mock := newMock(t)
	s := NewProductStore(db)

	mock.ExpectQuery("SELECT id, title, description, price, img_url FROM products").
		WillReturnRows(sqlmock.NewRows(productColumns))

	products, err := s.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)
}

func TestProductStore_GetByID_NotFound(t *testing.T) {
	db, mock := newMock(t)
	s := NewProductStore(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM products WHERE id = ?")).
		WithArgs(int64(5)).
		WillReturnError(sql.ErrNoRows)

	_, err := s.GetByID(context.Background(), 5)
	require.ErrorIs(t, err, models.ErrNotFound)
}
