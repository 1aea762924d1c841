package main

import (
	"context"

	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/linemk/checkout-service/internal/app"
	"github.com/linemk/checkout-service/internal/app/handlers"
	"github.com/linemk/checkout-service/internal/config"
	"github.com/linemk/checkout-service/internal/gateway"
	"github.com/linemk/checkout-service/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/checkout-service/internal/lib/logger"
	"github.com/linemk/checkout-service/internal/lib/logger/handlers/urllog"
	"github.com/linemk/checkout-service/internal/service"
	"github.com/linemk/checkout-service/internal/storage"
	"github.com/pkg/errors"
)

func main() {
	// load configuration
	cfg := config.MustLoad()

	// logger setup depends on the environment
	log := logger.SetupLogger(cfg.Env)
	log.Info("starting app", slog.String("env", cfg.Env))

	// application object with config and DB connection
	application, err := app.NewApp(log, cfg)
	if err != nil {
		log.Error("failed to initialize app", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize app"))
	}
	defer application.DB.Close()

	router := chi.NewRouter()
	// middleware setup
	router.Use(middleware.RequestID)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	// repository layer, one per table group
	userRepo := storage.NewUserRepository(application.DB)
	productRepo := storage.NewProductRepository(application.DB)
	cartRepo := storage.NewCartRepository(application.DB)
	pendingRepo := storage.NewPendingPaymentRepository(application.DB)
	orderRepo := storage.NewOrderRepository(application.DB)

	gatewayClient := gateway.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.SecretKey, cfg.Gateway.Timeout)

	authService := service.NewAuthService(application.Logger, userRepo, time.Duration(application.Config.JWT.TokenTTL)*time.Minute)
	cartService := service.NewCartService(application.Logger, cartRepo, productRepo)
	checkoutService := service.NewCheckoutService(application.Logger, application.DB, userRepo, cartRepo, pendingRepo, orderRepo, gatewayClient, cfg.Gateway)

	// authentication endpoint
	router.Post("/api/auth", handlers.AuthHandler(application.Logger, authService))
	// public catalog
	router.Get("/api/products", handlers.ListProductsHandler(application.Logger, productRepo))
	// callback is hit by the payment provider, it carries no user token;
	// the pending payment row identifies the user
	router.Get("/api/payment/callback", handlers.PaymentCallbackHandler(application.Logger, checkoutService))

	router.Group(func(r chi.Router) {
		jwtMW := jwtmiddleware.NewJWTMiddleware()
		r.Use(jwtMW)
		// cart endpoints
		r.Get("/api/cart", handlers.GetCartHandler(application.Logger, cartService))
		r.Post("/api/cart/items", handlers.AddToCartHandler(application.Logger, cartService))
		// checkout initiation (body carries the shipping address)
		r.Post("/api/payment/initiate", handlers.InitiatePaymentHandler(application.Logger, checkoutService))
		// order tracking
		r.Get("/api/orders", handlers.ListOrdersHandler(application.Logger, orderRepo))
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.Any("error", err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	stopSign := <-stop
	log.Info("received shutdown signal", slog.String("signal", stopSign.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", slog.Any("error", err))
	}
	log.Info("server gracefully stopped")
}
