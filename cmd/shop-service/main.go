package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/auth"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/events"
	httpapi "github.com/andreasstove999/ecommerce-system/shop-service-go/internal/http"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/logging"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/metrics"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/user"
)

const devJWTSecret = "dev-only-secret"

func main() {
	cfg := config.Load()
	logger := logging.New(logging.Options{
		Service: "shop-service",
		Env:     cfg.AppEnv,
		Level:   cfg.LogLevel,
	})

	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- storage ---
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("open storage")
	}
	defer st.close()

	m := metrics.New()

	// --- events ---
	var publisher cart.EventPublisher
	if cfg.EventsEnabled {
		conn, err := events.Dial(cfg.RabbitURL)
		if err != nil {
			logger.WithError(err).Fatal("rabbitmq connect")
		}
		defer conn.Close()

		pub, err := events.NewPublisher(conn, st.sequences, logger, events.PublisherOptions{})
		if err != nil {
			logger.WithError(err).Fatal("create publisher")
		}
		defer pub.Close()
		publisher = pub
		logger.WithField("exchange", events.EventsExchange).Info("cart events enabled")
	}

	// --- services ---
	secret := cfg.JWTSecret
	if secret == "" {
		logger.Warn("JWT_SECRET not set, using development secret")
		secret = devJWTSecret
	}
	tokens := auth.NewTokenCodec([]byte(secret), cfg.TokenTTL())
	directory := user.NewDirectory(st.users)

	products := catalog.NewService(st.products, logger)
	cartOpts := []cart.Option{cart.WithOwnerDirectory(directory)}
	if publisher != nil {
		cartOpts = append(cartOpts, cart.WithEvents(m.WrapPublisher(publisher)))
	}
	carts := cart.NewService(st.carts, products, logger, cartOpts...)
	accounts := user.NewAccounts(st.users, tokens, carts, logger)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)
	limiter.StartCleanup(ctx, time.Minute)

	// --- HTTP ---
	r := httpapi.NewRouter(httpapi.Deps{
		Log:      logger,
		Cfg:      cfg,
		Metrics:  m,
		Resolver: auth.NewResolver(tokens, directory),
		Limiter:  limiter,
		Accounts: accounts,
		Products: products,
		Carts:    carts,
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		logger.WithFields(logrus.Fields{"addr": httpServer.Addr, "storage": cfg.StorageDriver}).Info("http listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.WithField("signal", sig.String()).Info("shutdown signal")
	case err := <-errCh:
		logger.WithError(err).Error("http server failed")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("http shutdown")
	}
	cancel()

	logger.Info("shutdown complete")
}
