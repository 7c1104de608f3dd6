package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"leasehub/internal/app/access"
	"leasehub/internal/app/dto"
	authsvc "leasehub/internal/app/services/auth"
)

type AuthHTTP interface {
	Register(c *gin.Context)
	Login(c *gin.Context)
	Logout(c *gin.Context)
	Me(c *gin.Context)
}

type AuthHandler struct {
	Service *authsvc.Service
	Logger  *slog.Logger
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required"`
	AsOwner  bool   `json:"as_owner"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, codeInvalidRequestBody, err.Error())
		return
	}
	result, err := h.Service.Register(c.Request.Context(), authsvc.RegisterParams{
		Email:    req.Email,
		Name:     req.Name,
		Phone:    req.Phone,
		Password: req.Password,
		AsOwner:  req.AsOwner,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewAuthResponse(result.User, result.Token))
}

func (h AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, codeInvalidRequestBody, err.Error())
		return
	}
	result, err := h.Service.Login(c.Request.Context(), authsvc.LoginParams{Email: req.Email, Password: req.Password})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewAuthResponse(result.User, result.Token))
}

func (h AuthHandler) Logout(c *gin.Context) {
	if err := h.Service.Logout(c.Request.Context(), c.GetString(tokenContextKey)); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h AuthHandler) Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, h.Logger, access.ErrUnauthenticated)
		return
	}
	c.JSON(http.StatusOK, dto.MapUserProfile(user))
}

var _ AuthHTTP = AuthHandler{}
