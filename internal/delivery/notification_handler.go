package delivery

import (
	"net/http"

	"shoplit/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type NotificationHandler struct {
	useCase domain.NotificationUseCase
	log     *logrus.Logger
}

func NewNotificationHandler(uc domain.NotificationUseCase, logger *logrus.Logger) *NotificationHandler {
	return &NotificationHandler{
		useCase: uc,
		log:     logger,
	}
}

func (h *NotificationHandler) RegisterRoutes(authed gin.IRouter) {
	notifications := authed.Group("/notifications")
	{
		notifications.GET("", h.List)
		notifications.GET("/:id", h.Get)
		notifications.PATCH("/:id/read", h.MarkAsRead)
		notifications.DELETE("/:id", h.Delete)
	}
}

func (h *NotificationHandler) List(c *gin.Context) {
	limit, offset := pagination(c)
	list, err := h.useCase.ListNotifications(c.Request.Context(), userID(c), limit, offset)
	if err != nil {
		failWith(c, h.log, "list notifications", err)
		return
	}
	if list == nil {
		list = []domain.Notification{}
	}
	SuccessResponse(c, http.StatusOK, "Notifications retrieved successfully", list)
}

func (h *NotificationHandler) Get(c *gin.Context) {
	id, ok := int64Param(c, h.log, "id")
	if !ok {
		return
	}
	n, err := h.useCase.GetNotification(c.Request.Context(), userID(c), id)
	if err != nil {
		failWith(c, h.log, "retrieve notification", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Notification retrieved successfully", n)
}

func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	id, ok := int64Param(c, h.log, "id")
	if !ok {
		return
	}
	n, err := h.useCase.MarkAsRead(c.Request.Context(), userID(c), id)
	if err != nil {
		failWith(c, h.log, "mark notification read", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Notification marked as read", n)
}

func (h *NotificationHandler) Delete(c *gin.Context) {
	id, ok := int64Param(c, h.log, "id")
	if !ok {
		return
	}
	if err := h.useCase.DeleteNotification(c.Request.Context(), userID(c), id); err != nil {
		failWith(c, h.log, "delete notification", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Notification deleted successfully", nil)
}
