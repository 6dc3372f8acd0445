package user

import (
	"net/http"

	"municipal-planning-collab/auth"
	"municipal-planning-collab/internal/config"
	"municipal-planning-collab/internal/domain"
	"municipal-planning-collab/internal/errors"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for users
type Handler struct {
	service Service
}

// NewHandler creates a new user handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// FormLogin represents login form data
type FormLogin struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// FormRegister represents registration form data
type FormRegister struct {
	Name           string `json:"name" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required,min=6"`
	MunicipalityID uint64 `json:"municipality_id" binding:"required"`
	DepartmentID   uint64 `json:"department_id" binding:"required"`
}

// Register handles user registration
func (h *Handler) Register(c *gin.Context) {
	var form FormRegister
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	user := &domain.User{
		Name:           form.Name,
		Email:          form.Email,
		Password:       form.Password,
		MunicipalityID: form.MunicipalityID,
		DepartmentID:   form.DepartmentID,
		IsActive:       true,
	}

	if err := h.service.Register(user); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user.ToSafeUser()})
}

// Login handles user login
func (h *Handler) Login(c *gin.Context) {
	var form FormLogin
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	user, err := h.service.Login(form.Email, form.Password)
	if err != nil {
		c.Error(err)
		return
	}

	accessToken, err := auth.GenerateAccessToken(user.ID, user.TokenVersion)
	if err != nil {
		c.Error(errors.Internal(err))
		return
	}
	refreshToken, err := auth.GenerateRefreshToken(user.ID, user.TokenVersion)
	if err != nil {
		c.Error(errors.Internal(err))
		return
	}

	// Set refresh token as HttpOnly cookie
	c.SetCookie(
		"refresh_token",
		refreshToken,
		7*24*3600,
		"/",
		"",
		config.AppConfig.Environment == "production", // Secure
		true, // HttpOnly
	)

	c.JSON(http.StatusOK, gin.H{
		"access_token": accessToken,
		"user":         user.ToSafeUser(),
	})
}

func (h *Handler) RefreshToken(c *gin.Context) {
	refreshToken, err := c.Cookie("refresh_token")
	if err != nil {
		c.Error(errors.Unauthorized("Refresh token not found", err))
		return
	}

	token, err := auth.VerifyJWT(refreshToken)
	if err != nil {
		c.Error(errors.Unauthorized("Invalid token or expired!", err))
		return
	}

	userID, tokenVersion, err := auth.GetDataFromToken(token)
	if err != nil {
		c.Error(errors.Unauthorized("Invalid token", err))
		return
	}

	user, err := h.service.GetUserByID(userID)
	if err != nil {
		c.Error(errors.Unauthorized("User not found", err))
		return
	}

	// Check token version
	if user.TokenVersion != tokenVersion {
		c.Error(errors.Unauthorized("Invalid token!", nil))
		return
	}

	// Issue new access token
	newAccessToken, err := auth.GenerateAccessToken(user.ID, user.TokenVersion)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": newAccessToken,
	})
}

// Logout handles user logout
func (h *Handler) Logout(c *gin.Context) {
	userID, _ := c.Get("user_id")

	if err := h.service.IncreaseTokenVersion(userID.(uint64)); err != nil {
		c.Error(err)
		return
	}
	// Clear refresh cookie
	c.SetCookie("refresh_token", "", -1, "/", "", true, true)
	c.Status(http.StatusNoContent)
}

// GetProfile handles getting the current user's profile
func (h *Handler) GetProfile(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.Error(errors.Unauthorized("user not found", nil))
		return
	}

	user, err := h.service.GetUserByID(userID.(uint64))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, user.ToSafeUser())
}

// SearchUsers searches users in the caller's municipality, used for mention
// autocompletion
func (h *Handler) SearchUsers(c *gin.Context) {
	query := c.Query("q")

	caller, _ := c.Get("user")

	users, err := h.service.SearchUsers(
		c.Request.Context(),
		caller.(*domain.User).MunicipalityID,
		query,
	)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, users)
}
