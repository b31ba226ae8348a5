package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/models"
)

type ProductStore struct {
	db *sql.DB
}

func NewProductStore(db *sql.DB) *ProductStore {
	return &ProductStore{db: db}
}

func (s *ProductStore) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO products (title, description, price, img_url) VALUES (?, ?, ?, ?)",
		product.Title, product.Description, product.Price, product.ImgURL,
	)
	if err != nil {
		return nil, translate(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, translate(err)
	}
	product.ID = id
	return product, nil
}

func (s *ProductStore) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	var p models.Product
	err := s.db.QueryRowContext(ctx,
		"SELECT id, title, description, price, img_url FROM products WHERE id = ?",
		id,
	).Scan(&p.ID, &p.Title, &p.Description, &p.Price, &p.ImgURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *ProductStore) List(ctx context.Context) ([]models.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, title, description, price, img_url FROM products ORDER BY id",
	)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.Price, &p.ImgURL); err != nil {
			return nil, fmt.Errorf("error scanning product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err)
	}
	return products, nil
}
