package delivery

import (
	"net/http"

	"shoplit/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type ReviewHandler struct {
	useCase domain.ReviewUseCase
	log     *logrus.Logger
}

func NewReviewHandler(uc domain.ReviewUseCase, logger *logrus.Logger) *ReviewHandler {
	return &ReviewHandler{
		useCase: uc,
		log:     logger,
	}
}

func (h *ReviewHandler) RegisterRoutes(public, authed gin.IRouter) {
	public.GET("/products/:id/reviews", h.ListReviews)
	public.GET("/reviews/:id", h.GetReview)

	authed.POST("/products/:id/reviews", h.CreateReview)
	authed.PATCH("/reviews/:id", h.UpdateReview)
	authed.DELETE("/reviews/:id", h.DeleteReview)
}

type createReviewRequest struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	Rating int    `json:"rating" binding:"required,min=1,max=5"`
}

func (h *ReviewHandler) CreateReview(c *gin.Context) {
	productID, ok := uuidParam(c, h.log, "id")
	if !ok {
		return
	}
	var req createReviewRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	review, err := h.useCase.CreateReview(c.Request.Context(), &domain.Review{
		UserID:    userID(c),
		ProductID: productID,
		Title:     req.Title,
		Body:      req.Body,
		Rating:    req.Rating,
	})
	if err != nil {
		failWith(c, h.log, "create review", err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Review created successfully", review)
}

func (h *ReviewHandler) ListReviews(c *gin.Context) {
	productID, ok := uuidParam(c, h.log, "id")
	if !ok {
		return
	}
	reviews, err := h.useCase.ListReviews(c.Request.Context(), productID)
	if err != nil {
		failWith(c, h.log, "list reviews", err)
		return
	}
	if reviews == nil {
		reviews = []domain.Review{}
	}
	SuccessResponse(c, http.StatusOK, "Reviews retrieved successfully", reviews)
}

func (h *ReviewHandler) GetReview(c *gin.Context) {
	id, ok := uuidParam(c, h.log, "id")
	if !ok {
		return
	}
	review, err := h.useCase.GetReview(c.Request.Context(), id)
	if err != nil {
		failWith(c, h.log, "retrieve review", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Review retrieved successfully", review)
}

type updateReviewRequest struct {
	Title  *string `json:"title"`
	Body   *string `json:"body"`
	Rating *int    `json:"rating" binding:"omitempty,min=1,max=5"`
}

func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	id, ok := uuidParam(c, h.log, "id")
	if !ok {
		return
	}
	var req updateReviewRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	review, err := h.useCase.UpdateReview(c.Request.Context(), userID(c), id, domain.ReviewUpdate{
		Title:  req.Title,
		Body:   req.Body,
		Rating: req.Rating,
	})
	if err != nil {
		failWith(c, h.log, "update review", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Review updated successfully", review)
}

func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	id, ok := uuidParam(c, h.log, "id")
	if !ok {
		return
	}
	if err := h.useCase.DeleteReview(c.Request.Context(), userID(c), id); err != nil {
		failWith(c, h.log, "delete review", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Review deleted successfully", nil)
}
