package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"storefront/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	insertSessionSQL = regexp.QuoteMeta("INSERT INTO checkout_sessions (id, buyer_id, status, amount_total, currency) VALUES (?, ?, ?, ?, ?)")
	insertItemSQL    = regexp.QuoteMeta("INSERT INTO checkout_session_items (session_id, purchase_id) VALUES (?, ?)")
	markSessionSQL   = regexp.QuoteMeta("UPDATE checkout_sessions SET status = ?, completed_at = NOW() WHERE id = ? AND status = ?")
	markPurchasesSQL = regexp.QuoteMeta("SET pu.paid = TRUE, pu.paid_at = NOW() WHERE i.session_id = ? AND pu.paid = FALSE")
)

func TestCheckoutStore_Create(t *testing.T) {
	db, mock := newMock(t)
	s := NewCheckoutStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(insertSessionSQL).
		WithArgs("cs_1", int64(1), "open", int64(2500), "usd").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertItemSQL).WithArgs("cs_1", int64(10)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertItemSQL).WithArgs("cs_1", int64(12)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.Create(context.Background(), &models.CheckoutSession{
		ID: "cs_1", BuyerID: 1, Status: "open", AmountTotal: 2500, Currency: "usd",
		PurchaseIDs: []int64{10, 12},
	})
	require.NoError(t, err)
}

func TestCheckoutStore_Create_ItemFailureRollsBack(t *testing.T) {
	db, mock := newMock(t)
	s := NewCheckoutStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(insertSessionSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertItemSQL).WillReturnError(errors.New("fk violation"))
	mock.ExpectRollback()

	err := s.Create(context.Background(), &models.CheckoutSession{ID: "cs_1", PurchaseIDs: []int64{10}})
	require.Error(t, err)
}

func TestCheckoutStore_Get(t *testing.T) {
	db, mock := newMock(t)
	s := NewCheckoutStore(db)

	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM checkout_sessions WHERE id = ?")).
		WithArgs("cs_1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "buyer_id", "status", "amount_total", "currency", "created_at", "completed_at"}).
			AddRow("cs_1", 1, "open", 2500, "usd", created, nil))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT purchase_id FROM checkout_session_items WHERE session_id = ?")).
		WithArgs("cs_1").
		WillReturnRows(sqlmock.NewRows([]string{"purchase_id"}).AddRow(10).AddRow(12))

	session, err := s.Get(context.Background(), "cs_1")
	require.NoError(t, err)
	assert.Equal(t, int64(2500), session.AmountTotal)
	assert.Equal(t, []int64{10, 12}, session.PurchaseIDs)
	assert.Nil(t, session.CompletedAt)
	assert.False(t, session.IsPaid())
}

func TestCheckoutStore_Get_NotFound(t *testing.T) {
	db, mock := newMock(t)
	s := NewCheckoutStore(db)

	mock.ExpectQuery("FROM checkout_sessions").WithArgs("cs_missing").WillReturnError(sql.ErrNoRows)

	_, err := s.Get(context.Background(), "cs_missing")
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestCheckoutStore_MarkPaid_Transitions(t *testing.T) {
	db, mock := newMock(t)
	s := NewCheckoutStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(markSessionSQL).WithArgs("paid", "cs_1", "open").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(markPurchasesSQL).WithArgs("cs_1").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	res, err := s.MarkPaid(context.Background(), "cs_1")
	require.NoError(t, err)
	assert.True(t, res.Transitioned)
	assert.Equal(t, int64(2), res.Flipped)
}

func TestCheckoutStore_MarkPaid_PurchasesAlreadySettled(t *testing.T) {
	db, mock := newMock(t)
	s := NewCheckoutStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(markSessionSQL).WithArgs("paid", "cs_2", "open").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(markPurchasesSQL).WithArgs("cs_2").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	res, err := s.MarkPaid(context.Background(), "cs_2")
	require.NoError(t, err)
	assert.True(t, res.Transitioned)
	assert.Zero(t, res.Flipped)
}

func TestCheckoutStore_MarkPaid_AlreadyPaidIsNoop(t *testing.T) {
	db, mock := newMock(t)
	s := NewCheckoutStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(markSessionSQL).WithArgs("paid", "cs_1", "open").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	res, err := s.MarkPaid(context.Background(), "cs_1")
	require.NoError(t, err)
	assert.False(t, res.Transitioned)
}

func TestCheckoutStore_MarkPaid_PurchaseUpdateFailsRollsBack(t *testing.T) {
	db, mock := newMock(t)
	s := NewCheckoutStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(markSessionSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(markPurchasesSQL).WillReturnError(errors.New("deadlock"))
	mock.ExpectRollback()

	res, err := s.MarkPaid(context.Background(), "cs_1")
	require.Error(t, err)
	assert.False(t, res.Transitioned)
}

func TestCheckoutStore_OpenForBuyer(t *testing.T) {
	db, mock := newMock(t)
	s := NewCheckoutStore(db)

	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM checkout_sessions WHERE buyer_id = ? AND status = ? ORDER BY created_at, id")).
		WithArgs(int64(7), "open").
		WillReturnRows(sqlmock.NewRows([]string{"id", "buyer_id", "status", "amount_total", "currency", "created_at"}).
			AddRow("cs_1", 7, "open", 2000, "usd", created).
			AddRow("cs_2", 7, "open", 2500, "usd", created))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT purchase_id FROM checkout_session_items WHERE session_id = ?")).
		WithArgs("cs_1").
		WillReturnRows(sqlmock.NewRows([]string{"purchase_id"}).AddRow(10))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT purchase_id FROM checkout_session_items WHERE session_id = ?")).
		WithArgs("cs_2").
		WillReturnRows(sqlmock.NewRows([]string{"purchase_id"}).AddRow(10).AddRow(12))

	sessions, err := s.OpenForBuyer(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, []int64{10}, sessions[0].PurchaseIDs)
	assert.Equal(t, []int64{10, 12}, sessions[1].PurchaseIDs)
	assert.True(t, sessions[1].IsOpen())
}

func TestCheckoutStore_MarkExpired(t *testing.T) {
	db, mock := newMock(t)
	s := NewCheckoutStore(db)

	expireSQL := regexp.QuoteMeta("UPDATE checkout_sessions SET status = ?, completed_at = NOW() WHERE id = ? AND status = ?")
	mock.ExpectExec(expireSQL).WithArgs("expired", "cs_1", "open").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(expireSQL).WithArgs("expired", "cs_1", "open").WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := s.MarkExpired(context.Background(), "cs_1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.MarkExpired(context.Background(), "cs_1")
	require.NoError(t, err)
	assert.False(t, ok)
}
