package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sainikcanteen/storefront/internal/analytics"
	"github.com/sainikcanteen/storefront/internal/auth"
	"github.com/sainikcanteen/storefront/internal/cart"
	"github.com/sainikcanteen/storefront/internal/config"
	"github.com/sainikcanteen/storefront/internal/db"
	handler "github.com/sainikcanteen/storefront/internal/handler/http"
	"github.com/sainikcanteen/storefront/internal/order"
	"github.com/sainikcanteen/storefront/internal/payment"
	"github.com/sainikcanteen/storefront/internal/product"
	"github.com/sainikcanteen/storefront/internal/user"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.App.Env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.New(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	tokens := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	gateway := payment.NewGateway(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret, cfg.Razorpay.WebhookSecret)

	userRepo := user.NewRepository(database.Pool)
	productRepo := product.NewRepository(database.Pool)
	cartRepo := cart.NewRepository(database.Pool)
	orderRepo := order.NewRepository(database.Pool)
	analyticsRepo := analytics.NewRepository(database.Pool)

	userService := user.NewService(userRepo, cfg.Auth.BcryptCost)
	productService := product.NewService(productRepo)
	cartService := cart.NewService(cartRepo, productRepo)
	orderService := order.NewService(orderRepo)
	analyticsService := analytics.NewService(analyticsRepo)

	authMW := handler.NewAuthMiddleware(tokens, userService, cfg.Auth.AdminEmail)
	router := handler.NewRouter(handler.RouterDeps{
		Auth:        handler.NewAuthHandler(userService, tokens, cfg.Auth.TokenTTL),
		Products:    handler.NewProductHandler(productService, cfg.Auth.AdminEmail),
		Carts:       handler.NewCartHandler(cartService),
		Orders:      handler.NewOrderHandler(orderService, gateway, cfg.Auth.AdminEmail),
		Admin:       handler.NewAdminHandler(orderService, analyticsService),
		Users:       handler.NewUserHandler(userService, cfg.Auth.AdminEmail),
		AuthMW:      authMW,
		CORSOrigins: cfg.App.CORSOrigins,
	})

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("Starting HTTP server")
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Graceful shutdown failed, forcing close")
			server.Close()
		}
	}

	log.Info().Msg("Server stopped")
}
