package delivery

import (
	"net/http"

	"shoplit/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type CategoryHandler struct {
	useCase domain.CategoryUseCase
	log     *logrus.Logger
}

func NewCategoryHandler(uc domain.CategoryUseCase, logger *logrus.Logger) *CategoryHandler {
	return &CategoryHandler{
		useCase: uc,
		log:     logger,
	}
}

func (h *CategoryHandler) RegisterRoutes(public, admin gin.IRouter) {
	public.GET("/categories", h.ListCategories)
	public.GET("/categories/:id", h.GetCategory)
	public.GET("/subcategories", h.ListSubCategories)
	public.GET("/subcategories/:id", h.GetSubCategory)

	admin.POST("/categories", h.CreateCategory)
	admin.PATCH("/categories/:id", h.UpdateCategory)
	admin.DELETE("/categories/:id", h.DeleteCategory)
	admin.POST("/subcategories", h.CreateSubCategory)
	admin.PATCH("/subcategories/:id", h.UpdateSubCategory)
	admin.DELETE("/subcategories/:id", h.DeleteSubCategory)
}

type categoryRequest struct {
	Name        string `json:"name" binding:"required,notblank"`
	Description string `json:"description"`
}

func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	category, err := h.useCase.CreateCategory(c.Request.Context(), &domain.Category{Name: req.Name, Description: req.Description})
	if err != nil {
		failWith(c, h.log, "create category", err)
		return
	}
	h.log.Infof("Handler: Category created: ID %s, Name %s", category.ID, category.Name)
	SuccessResponse(c, http.StatusCreated, "Category created successfully", category)
}

func (h *CategoryHandler) GetCategory(c *gin.Context) {
	id, ok := uuidParam(c, h.log, "id")
	if !ok {
		return
	}
	category, err := h.useCase.GetCategory(c.Request.Context(), id)
	if err != nil {
		failWith(c, h.log, "retrieve category", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Category retrieved successfully", category)
}

func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	id, ok := uuidParam(c, h.log, "id")
	if !ok {
		return
	}
	var req categoryRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	category, err := h.useCase.UpdateCategory(c.Request.Context(), &domain.Category{ID: id, Name: req.Name, Description: req.Description})
	if err != nil {
		failWith(c, h.log, "update category", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Category updated successfully", category)
}

func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id, ok := uuidParam(c, h.log, "id")
	if !ok {
		return
	}
	if err := h.useCase.DeleteCategory(c.Request.Context(), id); err != nil {
		failWith(c, h.log, "delete category", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Category deleted successfully", nil)
}

func (h *CategoryHandler) ListCategories(c *gin.Context) {
	categories, err := h.useCase.ListCategories(c.Request.Context())
	if err != nil {
		failWith(c, h.log, "list categories", err)
		return
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	SuccessResponse(c, http.StatusOK, "Categories retrieved successfully", categories)
}

type subCategoryRequest struct {
	CategoryID  uuid.UUID `json:"category_id" binding:"required"`
	Name        string    `json:"name" binding:"required,notblank"`
	Description string    `json:"description"`
}

func (h *CategoryHandler) CreateSubCategory(c *gin.Context) {
	var req subCategoryRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	sub, err := h.useCase.CreateSubCategory(c.Request.Context(), &domain.SubCategory{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		failWith(c, h.log, "create subcategory", err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Subcategory created successfully", sub)
}

func (h *CategoryHandler) GetSubCategory(c *gin.Context) {
	id, ok := uuidParam(c, h.log, "id")
	if !ok {
		return
	}
	sub, err := h.useCase.GetSubCategory(c.Request.Context(), id)
	if err != nil {
		failWith(c, h.log, "retrieve subcategory", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Subcategory retrieved successfully", sub)
}

func (h *CategoryHandler) UpdateSubCategory(c *gin.Context) {
	id, ok := uuidParam(c, h.log, "id")
	if !ok {
		return
	}
	var req subCategoryRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	sub, err := h.useCase.UpdateSubCategory(c.Request.Context(), &domain.SubCategory{
		ID:          id,
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		failWith(c, h.log, "update subcategory", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Subcategory updated successfully", sub)
}

func (h *CategoryHandler) DeleteSubCategory(c *gin.Context) {
	id, ok := uuidParam(c, h.log, "id")
	if !ok {
		return
	}
	if err := h.useCase.DeleteSubCategory(c.Request.Context(), id); err != nil {
		failWith(c, h.log, "delete subcategory", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Subcategory deleted successfully", nil)
}

func (h *CategoryHandler) ListSubCategories(c *gin.Context) {
	var categoryID *uuid.UUID
	if raw := c.Query("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			ErrorResponse(c, http.StatusBadRequest, "Invalid category_id format")
			return
		}
		categoryID = &id
	}

	subs, err := h.useCase.ListSubCategories(c.Request.Context(), categoryID)
	if err != nil {
		failWith(c, h.log, "list subcategories", err)
		return
	}
	if subs == nil {
		subs = []domain.SubCategory{}
	}
	SuccessResponse(c, http.StatusOK, "Subcategories retrieved successfully", subs)
}
