package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"quickbite-api/middleware"
	"quickbite-api/services"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	svc      *services.AuthService
	tokenTTL time.Duration
	secure   bool
	logger   *slog.Logger
}

// NewAuthHandler builds the auth endpoints. secure switches the session
// cookie to Secure with SameSite=None.
func NewAuthHandler(svc *services.AuthService, tokenTTL time.Duration, secure bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, tokenTTL: tokenTTL, secure: secure, logger: logger}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a new user account
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterInput
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "user": user})
}

// Login authenticates a user and sets the session cookie
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	user, token, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	h.setCookie(c, token, int(h.tokenTTL.Seconds()))
	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "token": token, "user": user})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	h.setCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}

// Verify returns the user behind the session
func (h *AuthHandler) Verify(c *gin.Context) {
	user, err := h.svc.Me(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Valid User", "user": user})
}

func (h *AuthHandler) setCookie(c *gin.Context, value string, maxAge int) {
	if h.secure {
		c.SetSameSite(http.SameSiteNoneMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}
	c.SetCookie(middleware.TokenCookie, value, maxAge, "/", "", h.secure, true)
}
