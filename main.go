package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"

	"github.com/Yusei-0/cuba-click/internal/cart"
	"github.com/Yusei-0/cuba-click/internal/checkout"
	"github.com/Yusei-0/cuba-click/internal/config"
	"github.com/Yusei-0/cuba-click/internal/database"
	"github.com/Yusei-0/cuba-click/internal/events"
	"github.com/Yusei-0/cuba-click/internal/handlers"
	"github.com/Yusei-0/cuba-click/internal/history"
	"github.com/Yusei-0/cuba-click/internal/metrics"
	"github.com/Yusei-0/cuba-click/internal/middleware"
	"github.com/Yusei-0/cuba-click/internal/payment"
	"github.com/Yusei-0/cuba-click/internal/pricing"
	"github.com/Yusei-0/cuba-click/internal/tracking"
)

func main() {
	log.SetFormatter(&log.JSONFormatter{})
	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET is empty, admin and user tokens cannot be verified")
	}

	client, err := database.Connect(cfg.MongoURI, cfg.DBTimeout)
	if err != nil {
		log.WithError(err).Fatal("mongo connection failed")
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	db := client.Database(cfg.DBName)
	log.WithField("db", db.Name()).Info("MongoDB connected")

	if err := database.EnsureIndexes(db, cfg.DBTimeout); err != nil {
		log.WithError(err).Warn("index bootstrap incomplete")
	}

	store := database.NewStore(db, cfg.DBTimeout)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	publisher := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaOrderTopic, cfg.KafkaWriteTimeout)
	defer publisher.Close()

	carts := cart.NewRegistry()
	histories := history.NewRegistry(store, store)
	resolver := payment.NewResolver(store, log.StandardLogger())

	svc := checkout.NewService(checkout.Deps{
		Carts:     carts,
		History:   histories,
		Resolver:  resolver,
		Shipping:  pricing.NewShippingLookup(store),
		Codes:     tracking.NewGenerator(),
		Store:     store,
		Publisher: publisher,
		Metrics:   m,
		Log:       log.StandardLogger(),
	})

	r := gin.New()
	r.Use(gin.Recovery(), m.Middleware())

	r.GET("/health", handlers.Health(store))
	r.GET("/metrics", gin.WrapH(m.Handler()))
	r.GET("/products", handlers.GetProducts(store))
	r.GET("/shipping", handlers.GetShippingTable(store))

	shop := r.Group("/")
	shop.Use(middleware.ClientIdentity(cfg.JWTSecret))
	{
		shop.GET("/payment-methods", handlers.GetPaymentMethods(resolver))

		shop.GET("/cart", handlers.GetCart(carts))
		shop.POST("/cart/lines", handlers.AddCartLine(carts, store))
		shop.PUT("/cart/lines/:productId", handlers.UpdateCartLine(carts))
		shop.DELETE("/cart/lines/:productId", handlers.RemoveCartLine(carts))
		shop.DELETE("/cart", handlers.ClearCart(carts))

		shop.POST("/checkout/quote", handlers.QuoteCheckout(svc))
		shop.POST("/orders", handlers.CreateOrder(svc))
		shop.GET("/orders/history", handlers.GetOrderHistory(histories))
		shop.GET("/orders/track/:code", handlers.TrackOrder(histories))
	}

	admin := r.Group("/admin/api")
	admin.Use(middleware.AdminAuth(cfg.JWTSecret))
	{
		admin.GET("/me", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": true})
		})

		admin.GET("/config/base", handlers.GetBaseConfig(store))
		admin.PUT("/config/base", handlers.UpdateBaseConfig(store))

		admin.GET("/exchange-rates", handlers.ListExchangeRates(store))
		admin.POST("/exchange-rates", handlers.CreateExchangeRate(store))
		admin.PUT("/exchange-rates/:id", handlers.UpdateExchangeRate(store))
		admin.DELETE("/exchange-rates/:id", handlers.DeleteExchangeRate(store))

		admin.GET("/orders", handlers.ListOrders(store))
		admin.PATCH("/orders/:id/status", handlers.UpdateOrderStatus(store, publisher))
		admin.DELETE("/orders/:id", handlers.DeleteOrder(store))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("HTTP server stopped")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
