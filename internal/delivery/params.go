package delivery

import (
	"net/http"
	"strconv"
	"strings"

	"shoplit/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RegisterValidators adds the request tags shared by the handlers to gin's
// validator engine. Safe to call more than once.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	if err := v.RegisterValidation("order_status", func(fl validator.FieldLevel) bool {
		return domain.IsValidStatus(domain.OrderStatus(fl.Field().String()))
	}); err != nil {
		return err
	}
	return v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

func bindJSON(c *gin.Context, log *logrus.Logger, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		log.Warnf("Handler: Failed to bind JSON for %s %s: %v", c.Request.Method, c.FullPath(), err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func int64Param(c *gin.Context, log *logrus.Logger, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		log.Warnf("Handler: Invalid %s parameter: %s", name, raw)
		ErrorResponse(c, http.StatusBadRequest, "Invalid "+name+" format")
		return 0, false
	}
	return id, true
}

func uuidParam(c *gin.Context, log *logrus.Logger, name string) (uuid.UUID, bool) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		log.Warnf("Handler: Invalid %s parameter: %s", name, raw)
		ErrorResponse(c, http.StatusBadRequest, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

// pagination falls back to the defaults on malformed values.
func pagination(c *gin.Context) (int, int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil {
		limit = 0
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		offset = 0
	}
	return domain.NormalizePage(limit, offset)
}
