package delivery

import (
	"net/http"

	"shoplit/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type UserHandler struct {
	useCase domain.UserUseCase
	log     *logrus.Logger
}

func NewUserHandler(uc domain.UserUseCase, logger *logrus.Logger) *UserHandler {
	return &UserHandler{
		useCase: uc,
		log:     logger,
	}
}

func (h *UserHandler) RegisterRoutes(public, authed gin.IRouter) {
	users := public.Group("/users")
	{
		users.POST("/register", h.Register)
		users.POST("/login", h.Login)
	}
	authed.GET("/users/me", h.Me)
}

type registerRequest struct {
	Name     string `json:"name" binding:"required,notblank"`
	Email    string `json:"email" binding:"required"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required"`
}

func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	user, err := h.useCase.RegisterUser(c.Request.Context(), req.Name, req.Email, req.Phone, req.Password)
	if err != nil {
		failWith(c, h.log, "register user", err)
		return
	}
	h.log.Infof("Handler: User %d registered", user.ID)
	SuccessResponse(c, http.StatusCreated, "User registered successfully", user)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	result, err := h.useCase.AuthenticateUser(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		failWith(c, h.log, "authenticate user", err)
		return
	}
	if !result.Authenticated {
		ErrorResponse(c, http.StatusUnauthorized, result.ErrorMessage)
		return
	}
	SuccessResponse(c, http.StatusOK, "Authenticated successfully", result)
}

func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.useCase.GetUserProfile(c.Request.Context(), userID(c))
	if err != nil {
		failWith(c, h.log, "load profile", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Profile retrieved successfully", user)
}
