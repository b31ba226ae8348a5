package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront/internal/models"
	"storefront/internal/services"
	"storefront/internal/testutil"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

var discard = zerolog.New(io.Discard)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func withUser(r *http.Request, u *models.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), UserKey, u))
}

func TestSession_ResolvesCookieToUser(t *testing.T) {
	st := testutil.NewStore()
	user, err := st.Users().Create(context.Background(), &models.User{Email: "ann@example.com", Name: "Ann", Role: "customer"})
	require.NoError(t, err)

	auth := services.NewAuthService("secret", time.Hour, discard)
	users := services.NewUserService(st.Users(), "", discard)
	token, err := auth.GenerateToken(user)
	require.NoError(t, err)

	var seen *models.User
	h := Session(auth, users, discard)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CurrentUser(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, seen)
	assert.Equal(t, user.ID, seen.ID)
}

func TestSession_InvalidOrMissingCookieIsAnonymous(t *testing.T) {
	st := testutil.NewStore()
	auth := services.NewAuthService("secret", time.Hour, discard)
	users := services.NewUserService(st.Users(), "", discard)

	forged, err := services.NewAuthService("other", time.Hour, discard).GenerateToken(&models.User{ID: 1})
	require.NoError(t, err)
	deleted, err := auth.GenerateToken(&models.User{ID: 99})
	require.NoError(t, err)

	for name, value := range map[string]string{"missing": "", "garbage": "abc", "forged": forged, "deleted user": deleted} {
		t.Run(name, func(t *testing.T) {
			called := false
			h := Session(auth, users, discard)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				assert.Nil(t, CurrentUser(r))
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if value != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookie, Value: value})
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			assert.True(t, called)
		})
	}
}

func TestRequireUser_RedirectsAnonymousToLogin(t *testing.T) {
	h := RequireUser()(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodGet, "/cart", nil), &models.User{ID: 1}))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	h := RequireAdmin(discard)(okHandler())

	tests := []struct {
		name string
		user *models.User
		want int
	}{
		{"anonymous", nil, http.StatusForbidden},
		{"customer", &models.User{ID: 1, Role: "customer"}, http.StatusForbidden},
		{"admin", &models.User{ID: 2, Role: "admin"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/add-new-product", nil)
			if tt.user != nil {
				req = withUser(req, tt.user)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRequestValidation(t *testing.T) {
	h := RequestValidation()(okHandler())

	tests := []struct {
		contentType string
		want        int
	}{
		{"application/x-www-form-urlencoded", http.StatusOK},
		{"multipart/form-data; boundary=xyz", http.StatusOK},
		{"application/json; charset=utf-8", http.StatusOK},
		{"text/plain", http.StatusUnsupportedMediaType},
		{"", http.StatusUnsupportedMediaType},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(""))
		if tt.contentType != "" {
			req.Header.Set("Content-Type", tt.contentType)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, tt.want, rec.Code, tt.contentType)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestErrorHandling_RecoversPanic(t *testing.T) {
	h := ErrorHandling(discard)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal_error")
}

func TestRateLimiter(t *testing.T) {
	h := NewRateLimiter(rate.Limit(0), 1).Middleware()(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRequestLogging_SetsRequestID(t *testing.T) {
	var id string
	h := RequestLogging(discard)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id = GetRequestID(r)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, id)
	assert.Equal(t, id, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "given")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "given", id)
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders()(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}
