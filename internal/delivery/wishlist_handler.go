package delivery

import (
	"net/http"

	"shoplit/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type WishlistHandler struct {
	useCase domain.WishlistUseCase
	log     *logrus.Logger
}

func NewWishlistHandler(uc domain.WishlistUseCase, logger *logrus.Logger) *WishlistHandler {
	return &WishlistHandler{
		useCase: uc,
		log:     logger,
	}
}

func (h *WishlistHandler) RegisterRoutes(authed gin.IRouter) {
	wishlist := authed.Group("/wishlist")
	{
		wishlist.GET("", h.Get)
		wishlist.POST("/products", h.AddProduct)
		wishlist.DELETE("/products/:product_id", h.RemoveProduct)
	}
}

func (h *WishlistHandler) Get(c *gin.Context) {
	wishlist, err := h.useCase.GetWishlist(c.Request.Context(), userID(c))
	if err != nil {
		failWith(c, h.log, "load wishlist", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Wishlist retrieved successfully", wishlist)
}

type wishlistProductRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
}

func (h *WishlistHandler) AddProduct(c *gin.Context) {
	var req wishlistProductRequest
	if !bindJSON(c, h.log, &req) {
		return
	}
	wishlist, err := h.useCase.AddProduct(c.Request.Context(), userID(c), req.ProductID)
	if err != nil {
		failWith(c, h.log, "add wishlist product", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Product added to wishlist", wishlist)
}

func (h *WishlistHandler) RemoveProduct(c *gin.Context) {
	productID, ok := uuidParam(c, h.log, "product_id")
	if !ok {
		return
	}
	wishlist, err := h.useCase.RemoveProduct(c.Request.Context(), userID(c), productID)
	if err != nil {
		failWith(c, h.log, "remove wishlist product", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Product removed from wishlist", wishlist)
}
