package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"clouddrive/internal/config"
	"clouddrive/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password" binding:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "username and password are required")
		return
	}

	result, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid username or password")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "login failed")
		return
	}

	response.SuccessMessage(c, http.StatusOK, "Login successful", result)
}

// Logout is a stateless acknowledgement; the client discards the token.
func (h *Handler) Logout(c *gin.Context) {
	response.SuccessMessage(c, http.StatusOK, "Logged out successfully", nil)
}

// ForgotPassword is simulated for local use — no mail is sent.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "email is required")
		return
	}
	response.SuccessMessage(c, http.StatusOK,
		"Password reset instructions sent (simulated - use reset endpoint directly)", nil)
}

// ResetPassword resets the default account's password. Local-use shortcut:
// the token is not validated, same as the reference behavior.
func (h *Handler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "new_password is required")
		return
	}

	if err := h.service.ResetPassword(c.Request.Context(), config.DefaultAdminUsername, req.NewPassword); err != nil {
		response.Error(c, http.StatusBadRequest, "RESET_FAILED", "Failed to reset password")
		return
	}
	response.SuccessMessage(c, http.StatusOK, "Password reset successful", nil)
}
