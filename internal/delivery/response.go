package delivery

import (
	"net/http"

	"shoplit/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Response struct {
	Status  string      `json:"Status"`
	Kind    string      `json:"Kind,omitempty"`
	Message string      `json:"Message"`
	Data    interface{} `json:"Data,omitempty"`
}

func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Status:  "Success",
		Message: message,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Status:  "Fail",
		Message: message,
	})
}

func mapErrorToStatus(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation, domain.KindInsufficientStock, domain.KindPaymentRejected, domain.KindPaymentFailed:
		return http.StatusBadRequest
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// failWith writes the error envelope for a use case failure. Only the
// caller-safe message leaves the process; the full chain goes to the log.
func failWith(c *gin.Context, log *logrus.Logger, action string, err error) {
	statusCode := mapErrorToStatus(err)
	entry := log.WithField("kind", domain.KindOf(err))
	if statusCode >= http.StatusInternalServerError {
		entry.Errorf("Handler: Failed to %s: %v", action, err)
	} else {
		entry.Warnf("Handler: Failed to %s: %v", action, err)
	}
	c.JSON(statusCode, Response{
		Status:  "Fail",
		Kind:    string(domain.KindOf(err)),
		Message: domain.MessageOf(err),
	})
}
