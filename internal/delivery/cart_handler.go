package delivery

import (
	"net/http"

	"shoplit/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type CartHandler struct {
	useCase domain.CartUseCase
	log     *logrus.Logger
}

func NewCartHandler(uc domain.CartUseCase, logger *logrus.Logger) *CartHandler {
	return &CartHandler{
		useCase: uc,
		log:     logger,
	}
}

func (h *CartHandler) RegisterRoutes(authed gin.IRouter) {
	cart := authed.Group("/cart")
	{
		cart.GET("", h.GetCart)
		cart.DELETE("", h.Clear)
		cart.GET("/total_price", h.TotalPrice)
		cart.POST("/items", h.AddItem)
		cart.PATCH("/items/:id", h.UpdateItem)
		cart.DELETE("/items/:id", h.RemoveItem)
		cart.POST("/checkout", h.Checkout)
	}
}

func (h *CartHandler) GetCart(c *gin.Context) {
	cart, err := h.useCase.GetCart(c.Request.Context(), userID(c))
	if err != nil {
		failWith(c, h.log, "load cart", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Cart retrieved successfully", cart)
}

func (h *CartHandler) TotalPrice(c *gin.Context) {
	total, err := h.useCase.TotalPrice(c.Request.Context(), userID(c))
	if err != nil {
		failWith(c, h.log, "compute cart total", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Cart total computed", gin.H{"total_price": total})
}

type addCartItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

func (h *CartHandler) AddItem(c *gin.Context) {
	var req addCartItemRequest
	if !bindJSON(c, h.log, &req) {
		return
	}
	cart, err := h.useCase.AddItem(c.Request.Context(), userID(c), req.ProductID, req.Quantity)
	if err != nil {
		failWith(c, h.log, "add cart item", err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Item added to cart", cart)
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

func (h *CartHandler) UpdateItem(c *gin.Context) {
	itemID, ok := int64Param(c, h.log, "id")
	if !ok {
		return
	}
	var req updateCartItemRequest
	if !bindJSON(c, h.log, &req) {
		return
	}
	cart, err := h.useCase.UpdateItemQuantity(c.Request.Context(), userID(c), itemID, req.Quantity)
	if err != nil {
		failWith(c, h.log, "update cart item", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Cart item updated", cart)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	itemID, ok := int64Param(c, h.log, "id")
	if !ok {
		return
	}
	cart, err := h.useCase.RemoveItem(c.Request.Context(), userID(c), itemID)
	if err != nil {
		failWith(c, h.log, "remove cart item", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Cart item removed", cart)
}

func (h *CartHandler) Clear(c *gin.Context) {
	cart, err := h.useCase.Clear(c.Request.Context(), userID(c))
	if err != nil {
		failWith(c, h.log, "clear cart", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Cart cleared", cart)
}

func (h *CartHandler) Checkout(c *gin.Context) {
	order, err := h.useCase.Checkout(c.Request.Context(), userID(c))
	if err != nil {
		failWith(c, h.log, "check out cart", err)
		return
	}
	h.log.Infof("Handler: User %d checked out into order %d", order.UserID, order.ID)
	SuccessResponse(c, http.StatusCreated, "Order created successfully", order)
}
