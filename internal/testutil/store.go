// Package testutil provides in-memory stores and a scripted payment provider
// for tests. The stores enforce the same constraints as the MySQL schema.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"storefront/internal/models"
)

type Store struct {
	mu sync.Mutex

	users     map[int64]*models.User
	products  map[int64]*models.Product
	purchases map[int64]*models.Purchase
	sessions  map[string]*models.CheckoutSession

	sessionIDs []string // creation order

	nextUserID     int64
	nextProductID  int64
	nextPurchaseID int64
}

func NewStore() *Store {
	return &Store{
		users:     make(map[int64]*models.User),
		products:  make(map[int64]*models.Product),
		purchases: make(map[int64]*models.Purchase),
		sessions:  make(map[string]*models.CheckoutSession),
	}
}

func (s *Store) Users() *UserStore         { return &UserStore{s} }
func (s *Store) Products() *ProductStore   { return &ProductStore{s} }
func (s *Store) Purchases() *PurchaseStore { return &PurchaseStore{s} }
func (s *Store) Checkouts() *CheckoutStore { return &CheckoutStore{s} }

// AllPurchases returns a snapshot of every purchase row ordered by id.
func (s *Store) AllPurchases() []models.Purchase {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Purchase, 0, len(s.purchases))
	for _, p := range s.purchases {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SetPaid forces the paid flag of a purchase, for arranging test fixtures.
func (s *Store) SetPaid(purchaseID int64, paid bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.purchases[purchaseID]; ok {
		p.Paid = paid
	}
}

func (s *Store) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

type UserStore struct{ s *Store }

func (r *UserStore) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == user.Email {
			return nil, fmt.Errorf("%w: email %s", models.ErrDuplicateKey, user.Email)
		}
	}
	r.s.nextUserID++
	stored := *user
	stored.ID = r.s.nextUserID
	stored.CreatedAt = time.Now()
	r.s.users[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (r *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *UserStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (r *UserStore) SetRole(ctx context.Context, email, role string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == email {
			u.Role = role
			return nil
		}
	}
	return models.ErrNotFound
}

type ProductStore struct{ s *Store }

func (r *ProductStore) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, p := range r.s.products {
		if p.Title == product.Title {
			return nil, fmt.Errorf("%w: title %s", models.ErrDuplicateKey, product.Title)
		}
	}
	r.s.nextProductID++
	stored := *product
	stored.ID = r.s.nextProductID
	r.s.products[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (r *ProductStore) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.products[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := *p
	return &out, nil
}

func (r *ProductStore) List(ctx context.Context) ([]models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]models.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type PurchaseStore struct{ s *Store }

func (r *PurchaseStore) AddToCart(ctx context.Context, buyerID, productID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.products[productID]; !ok {
		return false, models.ErrNotFound
	}
	for _, p := range r.s.purchases {
		if p.BuyerID == buyerID && p.ProductID == productID && !p.Paid {
			return false, nil
		}
	}
	r.s.nextPurchaseID++
	r.s.purchases[r.s.nextPurchaseID] = &models.Purchase{
		ID:        r.s.nextPurchaseID,
		BuyerID:   buyerID,
		ProductID: productID,
	}
	return true, nil
}

func (r *PurchaseStore) Pending(ctx context.Context, buyerID int64) ([]models.CartItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	items := []models.CartItem{}
	for _, p := range r.s.purchases {
		if p.BuyerID != buyerID || p.Paid {
			continue
		}
		items = append(items, models.CartItem{PurchaseID: p.ID, Product: *r.s.products[p.ProductID]})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].PurchaseID < items[j].PurchaseID })
	return items, nil
}

type CheckoutStore struct{ s *Store }

func (r *CheckoutStore) Create(ctx context.Context, session *models.CheckoutSession) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.sessions[session.ID]; exists {
		return fmt.Errorf("%w: checkout session %s", models.ErrDuplicateKey, session.ID)
	}
	for _, id := range session.PurchaseIDs {
		if _, ok := r.s.purchases[id]; !ok {
			return models.ErrNotFound
		}
	}
	stored := *session
	stored.PurchaseIDs = append([]int64(nil), session.PurchaseIDs...)
	stored.CreatedAt = time.Now()
	r.s.sessions[stored.ID] = &stored
	r.s.sessionIDs = append(r.s.sessionIDs, stored.ID)
	return nil
}

func (r *CheckoutStore) Get(ctx context.Context, id string) (*models.CheckoutSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	session, ok := r.s.sessions[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := *session
	out.PurchaseIDs = append([]int64(nil), session.PurchaseIDs...)
	return &out, nil
}

func (r *CheckoutStore) OpenForBuyer(ctx context.Context, buyerID int64) ([]models.CheckoutSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []models.CheckoutSession{}
	for _, id := range r.s.sessionIDs {
		session := r.s.sessions[id]
		if session.BuyerID != buyerID || !session.IsOpen() {
			continue
		}
		c := *session
		c.PurchaseIDs = append([]int64(nil), session.PurchaseIDs...)
		out = append(out, c)
	}
	return out, nil
}

func (r *CheckoutStore) MarkPaid(ctx context.Context, id string) (models.PaidResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	session, ok := r.s.sessions[id]
	if !ok || !session.IsOpen() {
		return models.PaidResult{}, nil
	}
	now := time.Now()
	session.Status = string(models.CheckoutStatusPaid)
	session.CompletedAt = &now

	res := models.PaidResult{Transitioned: true}
	for _, purchaseID := range session.PurchaseIDs {
		if p, ok := r.s.purchases[purchaseID]; ok && !p.Paid {
			p.Paid = true
			res.Flipped++
		}
	}
	return res, nil
}

func (r *CheckoutStore) MarkExpired(ctx context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	session, ok := r.s.sessions[id]
	if !ok || !session.IsOpen() {
		return false, nil
	}
	now := time.Now()
	session.Status = string(models.CheckoutStatusExpired)
	session.CompletedAt = &now
	return true, nil
}

// Session returns a snapshot of a recorded checkout session.
func (s *Store) Session(id string) (models.CheckoutSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return models.CheckoutSession{}, false
	}
	out := *session
	out.PurchaseIDs = append([]int64(nil), session.PurchaseIDs...)
	return out, true
}
