package api

import (
	"net/http"
	"time"

	"github.com/ajharbinger/policy-fund-matcher/internal/auth"
	"github.com/ajharbinger/policy-fund-matcher/internal/models"
	"github.com/ajharbinger/policy-fund-matcher/internal/services"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles authentication operations
type AuthHandler struct {
	authService services.AuthService
}

// NewAuthHandler creates a new auth handler with service injection
func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Login authenticates a user
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format", err)
		return
	}

	response, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Register creates a consultant account. Public registration cannot pick a role.
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format", err)
		return
	}
	req.Role = ""
	h.register(c, &req)
}

// CreateUser creates an account of any role (Admin only)
func (h *AuthHandler) CreateUser(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format", err)
		return
	}
	h.register(c, &req)
}

func (h *AuthHandler) register(c *gin.Context, req *models.RegisterRequest) {
	user, err := h.authService.Register(req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "User created successfully",
		"user":      user,
		"timestamp": time.Now(),
	})
}

// RefreshToken exchanges a refresh token for a new token pair
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req models.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format", err)
		return
	}

	response, err := h.authService.RefreshToken(req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Me returns the identity carried by the access token
func (h *AuthHandler) Me(c *gin.Context) {
	userID, _ := auth.UserID(c)
	c.JSON(http.StatusOK, gin.H{
		"user_id":   userID,
		"email":     c.GetString(auth.UserEmailKey),
		"role":      c.GetString(auth.UserRoleKey),
		"timestamp": time.Now(),
	})
}
