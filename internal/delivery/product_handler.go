package delivery

import (
	"net/http"

	"shoplit/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type ProductHandler struct {
	useCase domain.ProductUseCase
	log     *logrus.Logger
}

func NewProductHandler(uc domain.ProductUseCase, logger *logrus.Logger) *ProductHandler {
	return &ProductHandler{
		useCase: uc,
		log:     logger,
	}
}

func (h *ProductHandler) RegisterRoutes(public, admin gin.IRouter) {
	public.GET("/products", h.ListProducts)
	public.GET("/products/:id", h.GetProduct)

	admin.POST("/products", h.CreateProduct)
	admin.PATCH("/products/:id", h.UpdateProduct)
	admin.DELETE("/products/:id", h.DeleteProduct)
	admin.POST("/products/:id/stock", h.AdjustStock)
}

type createProductRequest struct {
	Name          string           `json:"name" binding:"required,notblank"`
	Description   string           `json:"description"`
	Price         *decimal.Decimal `json:"price" binding:"required"`
	StockQuantity int              `json:"stock_quantity" binding:"gte=0"`
	CategoryID    *uuid.UUID       `json:"category_id"`
	SubCategoryID *uuid.UUID       `json:"subcategory_id"`
	IsActive      *bool            `json:"is_active"`
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req createProductRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	product := &domain.Product{
		Name:          req.Name,
		Description:   req.Description,
		Price:         *req.Price,
		StockQuantity: req.StockQuantity,
		CategoryID:    req.CategoryID,
		SubCategoryID: req.SubCategoryID,
		IsActive:      req.IsActive == nil || *req.IsActive,
	}
	created, err := h.useCase.CreateProduct(c.Request.Context(), product)
	if err != nil {
		failWith(c, h.log, "create product", err)
		return
	}
	h.log.Infof("Handler: Product created: ID %s, Name %s", created.ID, created.Name)
	SuccessResponse(c, http.StatusCreated, "Product created successfully", created)
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := uuidParam(c, h.log, "id")
	if !ok {
		return
	}
	product, err := h.useCase.GetProduct(c.Request.Context(), id, isAdmin(c))
	if err != nil {
		failWith(c, h.log, "retrieve product", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Product retrieved successfully", product)
}

type updateProductRequest struct {
	Name          *string          `json:"name"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	CategoryID    *uuid.UUID       `json:"category_id"`
	SubCategoryID *uuid.UUID       `json:"subcategory_id"`
	IsActive      *bool            `json:"is_active"`
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := uuidParam(c, h.log, "id")
	if !ok {
		return
	}
	var req updateProductRequest
	if !bindJSON(c, h.log, &req) {
		return
	}
	update := domain.ProductUpdate{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		CategoryID:    req.CategoryID,
		SubCategoryID: req.SubCategoryID,
		IsActive:      req.IsActive,
	}
	if update.IsEmpty() {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: no fields provided for update")
		return
	}

	product, err := h.useCase.UpdateProduct(c.Request.Context(), id, update)
	if err != nil {
		failWith(c, h.log, "update product", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Product updated successfully", product)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := uuidParam(c, h.log, "id")
	if !ok {
		return
	}
	if err := h.useCase.DeleteProduct(c.Request.Context(), id); err != nil {
		failWith(c, h.log, "delete product", err)
		return
	}
	h.log.Infof("Handler: Product deleted: ID %s", id)
	SuccessResponse(c, http.StatusOK, "Product deleted successfully", nil)
}

type listProductsQuery struct {
	CategoryID    string `form:"category_id" binding:"omitempty,uuid"`
	SubCategoryID string `form:"subcategory_id" binding:"omitempty,uuid"`
	MinPrice      string `form:"min_price" binding:"omitempty,numeric"`
	MaxPrice      string `form:"max_price" binding:"omitempty,numeric"`
	Search        string `form:"search"`
	Ordering      string `form:"ordering"`
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	var q listProductsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.log.Warnf("Handler: Invalid product list query: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid query parameters: "+err.Error())
		return
	}

	filter := domain.ProductFilter{
		Search:          q.Search,
		Ordering:        q.Ordering,
		IncludeInactive: isAdmin(c),
	}
	filter.Limit, filter.Offset = pagination(c)
	if q.CategoryID != "" {
		id := uuid.MustParse(q.CategoryID)
		filter.CategoryID = &id
	}
	if q.SubCategoryID != "" {
		id := uuid.MustParse(q.SubCategoryID)
		filter.SubCategoryID = &id
	}
	if q.MinPrice != "" {
		v := decimal.RequireFromString(q.MinPrice)
		filter.MinPrice = &v
	}
	if q.MaxPrice != "" {
		v := decimal.RequireFromString(q.MaxPrice)
		filter.MaxPrice = &v
	}

	products, err := h.useCase.ListProducts(c.Request.Context(), filter)
	if err != nil {
		failWith(c, h.log, "list products", err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	SuccessResponse(c, http.StatusOK, "Products retrieved successfully", products)
}

type adjustStockRequest struct {
	Delta int `json:"delta" binding:"required"`
}

func (h *ProductHandler) AdjustStock(c *gin.Context) {
	id, ok := uuidParam(c, h.log, "id")
	if !ok {
		return
	}
	var req adjustStockRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	product, err := h.useCase.AdjustStock(c.Request.Context(), id, req.Delta)
	if err != nil {
		failWith(c, h.log, "adjust stock", err)
		return
	}
	h.log.Infof("Handler: Stock of product %s adjusted by %d to %d", id, req.Delta, product.StockQuantity)
	SuccessResponse(c, http.StatusOK, "Stock adjusted successfully", product)
}
