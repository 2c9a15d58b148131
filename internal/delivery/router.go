package delivery

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers groups everything the HTTP surface is assembled from.
type Handlers struct {
	Users         *UserHandler
	Categories    *CategoryHandler
	Products      *ProductHandler
	Carts         *CartHandler
	Orders        *OrderHandler
	Payments      *PaymentHandler
	Notifications *NotificationHandler
	Reviews       *ReviewHandler
	Wishlists     *WishlistHandler
}

func NewRouter(h Handlers, store Pinger, logger *logrus.Logger) (*gin.Engine, error) {
	if err := RegisterValidators(); err != nil {
		return nil, err
	}

	router := gin.New()
	router.RedirectTrailingSlash = false
	router.Use(gin.Recovery(), RequestLogger(logger))

	router.GET("/health", healthHandler(store, logger))

	api := router.Group("/api", Identity(logger))
	authed := api.Group("", RequireUser(logger))
	admin := api.Group("", RequireUser(logger), RequireAdmin(logger))

	h.Users.RegisterRoutes(api, authed)
	h.Categories.RegisterRoutes(api, admin)
	h.Products.RegisterRoutes(api, admin)
	h.Reviews.RegisterRoutes(api, authed)
	h.Carts.RegisterRoutes(authed)
	h.Orders.RegisterRoutes(authed, admin)
	h.Payments.RegisterRoutes(api, authed)
	h.Notifications.RegisterRoutes(authed)
	h.Wishlists.RegisterRoutes(authed)

	logger.Info("Handler: Routes registered")
	return router, nil
}

func healthHandler(store Pinger, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			logger.Errorf("Handler: Health check failed: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
