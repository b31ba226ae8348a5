package router

import (
	"net/http"
	"time"

	"storefront/internal/handlers"
	"storefront/internal/metrics"
	"storefront/internal/middleware"
	"storefront/internal/payment"
	"storefront/internal/services"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

type Deps struct {
	Users    *services.UserService
	Auth     *services.AuthService
	Catalog  *services.CatalogService
	Carts    *services.CartService
	Checkout *services.CheckoutService
	Webhooks *payment.WebhookVerifier
	Metrics  *metrics.Metrics
	Health   func() error
	Logger   zerolog.Logger

	BaseURL        string
	CookieSecure   bool
	RateLimitRPS   float64
	RateLimitBurst int
}

func SetupRouter(d Deps) *mux.Router {
	logger := d.Logger

	authHandler := handlers.NewAuthHandler(d.Users, d.Auth, d.CookieSecure, logger)
	catalogHandler := handlers.NewCatalogHandler(d.Catalog, logger)
	cartHandler := handlers.NewCartHandler(d.Carts, logger)
	checkoutHandler := handlers.NewCheckoutHandler(d.Checkout, d.Webhooks, logger)

	r := mux.NewRouter()

	rateLimiter := middleware.NewRateLimiter(rate.Limit(d.RateLimitRPS), d.RateLimitBurst)

	r.Use(middleware.ErrorHandling(logger))
	r.Use(d.Metrics.Middleware())
	r.Use(middleware.PerformanceMonitoring(time.Second, logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(d.BaseURL))
	r.Use(rateLimiter.Middleware())

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if d.Health != nil {
			if err := d.Health(); err != nil {
				logger.Error().Err(err).Msg("Health check failed")
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")
	r.Handle("/metrics", d.Metrics.Handler()).Methods("GET")

	// signed by the provider, no session
	r.HandleFunc("/webhooks/stripe", checkoutHandler.Webhook).Methods("POST")

	site := r.PathPrefix("").Subrouter()
	site.Use(middleware.Session(d.Auth, d.Users, logger))

	form := middleware.RequestValidation()

	site.HandleFunc("/", catalogHandler.Index).Methods("GET")
	site.HandleFunc("/register", authHandler.RegisterForm).Methods("GET")
	site.Handle("/register", form(http.HandlerFunc(authHandler.Register))).Methods("POST")
	site.HandleFunc("/login", authHandler.LoginForm).Methods("GET")
	site.Handle("/login", form(http.HandlerFunc(authHandler.Login))).Methods("POST")
	site.HandleFunc("/logout", authHandler.Logout).Methods("GET")
	site.HandleFunc("/success", checkoutHandler.Success).Methods("GET")

	admin := site.PathPrefix("").Subrouter()
	admin.Use(middleware.RequireAdmin(logger))
	admin.HandleFunc("/add-new-product", catalogHandler.NewProductForm).Methods("GET")
	admin.Handle("/add-new-product", form(http.HandlerFunc(catalogHandler.AddProduct))).Methods("POST")

	account := site.PathPrefix("").Subrouter()
	account.Use(middleware.RequireUser())
	account.HandleFunc("/cart", cartHandler.Cart).Methods("GET")
	account.HandleFunc("/add-to-cart", cartHandler.AddToCart).Methods("GET")
	account.HandleFunc("/create-checkout-session", checkoutHandler.CreateCheckoutSession).Methods("POST")

	return r
}
