package delivery

import (
	"net/http"

	"shoplit/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type OrderHandler struct {
	useCase domain.OrderUseCase
	log     *logrus.Logger
}

func NewOrderHandler(uc domain.OrderUseCase, logger *logrus.Logger) *OrderHandler {
	return &OrderHandler{
		useCase: uc,
		log:     logger,
	}
}

func (h *OrderHandler) RegisterRoutes(authed, admin gin.IRouter) {
	orders := authed.Group("/orders")
	{
		orders.POST("", h.CreateOrder)
		orders.GET("", h.ListOrders)
		orders.GET("/:id", h.GetOrder)
		orders.PATCH("/:id", h.UpdateOrderItems)
		orders.DELETE("/:id", h.DeleteOrder)
	}
	admin.PATCH("/orders/:id/status", h.UpdateOrderStatus)
}

type orderLineRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

type orderItemsRequest struct {
	Items []orderLineRequest `json:"items" binding:"required,min=1,dive"`
}

func (r orderItemsRequest) lines() []domain.OrderLine {
	lines := make([]domain.OrderLine, 0, len(r.Items))
	for _, item := range r.Items {
		lines = append(lines, domain.OrderLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return lines
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req orderItemsRequest
	if !bindJSON(c, h.log, &req) {
		return
	}
	uid := userID(c)
	h.log.Infof("Handler: Processing create order request for user %d", uid)

	order, err := h.useCase.CreateOrder(c.Request.Context(), uid, req.lines())
	if err != nil {
		failWith(c, h.log, "create order", err)
		return
	}
	h.log.Infof("Handler: Order %d created for user %d", order.ID, uid)
	SuccessResponse(c, http.StatusCreated, "Order created successfully", order)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := int64Param(c, h.log, "id")
	if !ok {
		return
	}
	order, err := h.useCase.GetOrder(c.Request.Context(), userID(c), id)
	if err != nil {
		failWith(c, h.log, "retrieve order", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Order retrieved successfully", order)
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	uid := userID(c)
	limit, offset := pagination(c)

	orders, err := h.useCase.ListOrders(c.Request.Context(), uid, limit, offset)
	if err != nil {
		failWith(c, h.log, "list orders", err)
		return
	}
	h.log.Debugf("Handler: Retrieved %d orders for user %d", len(orders), uid)
	if len(orders) == 0 {
		SuccessResponse(c, http.StatusOK, "No orders found for this user", []domain.Order{})
		return
	}
	SuccessResponse(c, http.StatusOK, "Orders retrieved successfully", orders)
}

func (h *OrderHandler) UpdateOrderItems(c *gin.Context) {
	id, ok := int64Param(c, h.log, "id")
	if !ok {
		return
	}
	var req orderItemsRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	order, err := h.useCase.UpdateOrderItems(c.Request.Context(), userID(c), id, req.lines())
	if err != nil {
		failWith(c, h.log, "update order items", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Order updated successfully", order)
}

type orderStatusRequest struct {
	Status string `json:"status" binding:"required,order_status"`
}

func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	id, ok := int64Param(c, h.log, "id")
	if !ok {
		return
	}
	var req orderStatusRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	order, err := h.useCase.UpdateOrderStatus(c.Request.Context(), id, domain.OrderStatus(req.Status))
	if err != nil {
		failWith(c, h.log, "update order status", err)
		return
	}
	h.log.Infof("Handler: Order %d status set to '%s'", order.ID, order.Status)
	SuccessResponse(c, http.StatusOK, "Order status updated successfully", order)
}

func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	id, ok := int64Param(c, h.log, "id")
	if !ok {
		return
	}
	if err := h.useCase.DeleteOrder(c.Request.Context(), userID(c), id); err != nil {
		failWith(c, h.log, "delete order", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Order deleted successfully", nil)
}
