package testutil

import (
	"context"
	"fmt"
	"sync"

	"storefront/internal/payment"
)

// Provider is a scripted payment.Provider that records every call.
type Provider struct {
	mu sync.Mutex

	Created   []payment.SessionRequest
	Retrieved []string
	Expired   []string

	CreateErr error
	GetErr    error
	ExpireErr error

	sessions map[string]*payment.Session
	next     int
}

func NewProvider() *Provider {
	return &Provider{sessions: make(map[string]*payment.Session)}
}

func (p *Provider) CreateSession(ctx context.Context, req payment.SessionRequest) (*payment.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Created = append(p.Created, req)
	if p.CreateErr != nil {
		return nil, p.CreateErr
	}

	p.next++
	var total int64
	for _, item := range req.LineItems {
		total += item.UnitAmount * item.Quantity
	}
	id := fmt.Sprintf("cs_test_%d", p.next)
	s := &payment.Session{
		ID:            id,
		URL:           "https://checkout.test/" + id,
		Status:        payment.SessionStatusOpen,
		PaymentStatus: payment.PaymentStatusUnpaid,
		AmountTotal:   total,
	}
	p.sessions[id] = s

	out := *s
	return &out, nil
}

func (p *Provider) GetSession(ctx context.Context, id string) (*payment.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Retrieved = append(p.Retrieved, id)
	if p.GetErr != nil {
		return nil, p.GetErr
	}
	s, ok := p.sessions[id]
	if !ok {
		return nil, fmt.Errorf("no such checkout session: %s", id)
	}
	out := *s
	return &out, nil
}

// ExpireSession fails for sessions that are no longer open, like the real API.
func (p *Provider) ExpireSession(ctx context.Context, id string) (*payment.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Expired = append(p.Expired, id)
	if p.ExpireErr != nil {
		return nil, p.ExpireErr
	}
	s, ok := p.sessions[id]
	if !ok {
		return nil, fmt.Errorf("no such checkout session: %s", id)
	}
	if s.Status != payment.SessionStatusOpen {
		return nil, fmt.Errorf("checkout session %s is %s", id, s.Status)
	}
	s.Status = payment.SessionStatusExpired
	out := *s
	return &out, nil
}

// Pay marks a created session as paid, as the hosted page would.
func (p *Provider) Pay(id string) {
	p.Settle(id, payment.PaymentStatusPaid)
}

// Settle completes an open session with the given payment status. Expired
// sessions cannot be paid.
func (p *Provider) Settle(id string, status payment.PaymentStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.sessions[id]; ok && s.Status == payment.SessionStatusOpen {
		s.Status = payment.SessionStatusComplete
		s.PaymentStatus = status
	}
}

// Abandon expires a session on the provider side only, as its timeout would.
func (p *Provider) Abandon(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.sessions[id]; ok {
		s.Status = payment.SessionStatusExpired
	}
}

// SetAmount overrides the amount the provider reports for a session.
func (p *Provider) SetAmount(id string, amount int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.sessions[id]; ok {
		s.AmountTotal = amount
	}
}

func (p *Provider) CreateCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Created)
}

func (p *Provider) RetrieveCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Retrieved)
}

func (p *Provider) ExpireCalls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.Expired...)
}
