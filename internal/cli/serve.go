package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/metrics"
	"storefront/internal/payment"
	"storefront/internal/router"
	"storefront/internal/services"
	"storefront/internal/store"

	"github.com/spf13/cobra"
)

var shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Long: `Run the storefront HTTP server.

Migrations are applied before the server starts listening.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 5*time.Second, "time allowed for in-flight requests on shutdown")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, log, database, err := bootstrap(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Startup failed")
		return err
	}
	defer database.Close()

	if cfg.StripeSecretKey == "" {
		log.Warn().Msg("STRIPE_SECRET_KEY not set, checkout will be unavailable")
	}
	if cfg.StripeWebhookSecret == "" {
		log.Info().Msg("STRIPE_WEBHOOK_SECRET not set, webhook endpoint disabled")
	}

	m := metrics.New()
	provider := payment.NewStripeProvider(payment.StripeConfig{
		SecretKey: cfg.StripeSecretKey,
		Timeout:   cfg.StripeTimeout,
	}, log)

	users := services.NewUserService(store.NewUserStore(database), cfg.AdminEmail, log)
	carts := services.NewCartService(store.NewPurchaseStore(database), m, log)
	checkout := services.NewCheckoutService(store.NewCheckoutStore(database), carts, provider, services.CheckoutConfig{
		BaseURL:  cfg.BaseURL,
		Currency: cfg.Currency,
	}, m, log)

	handler := router.SetupRouter(router.Deps{
		Users:    users,
		Auth:     services.NewAuthService(cfg.JWTSecret, cfg.SessionTTL, log),
		Catalog:  services.NewCatalogService(store.NewProductStore(database), log),
		Carts:    carts,
		Checkout: checkout,
		Webhooks: payment.NewWebhookVerifier(cfg.StripeWebhookSecret),
		Metrics:  m,
		Health: func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return database.PingContext(pingCtx)
		},
		Logger:         log,
		BaseURL:        cfg.BaseURL,
		CookieSecure:   cfg.CookieSecure,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.StripeTimeout + 30*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("base_url", cfg.BaseURL).Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			log.Error().Err(err).Msg("Server error")
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
		return err
	}

	log.Info().Msg("Server stopped")
	return nil
}
