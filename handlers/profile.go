package handlers

import (
	"io"
	"log/slog"
	"net/http"

	"quickbite-api/middleware"
	"quickbite-api/services"
	"quickbite-api/storage"

	"github.com/gin-gonic/gin"
)

// PictureField is the multipart field holding the profile picture
const PictureField = "profilePicture"

type ProfileHandler struct {
	svc    *services.ProfileService
	logger *slog.Logger
}

func NewProfileHandler(svc *services.ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{svc: svc, logger: logger}
}

func (h *ProfileHandler) Get(c *gin.Context) {
	profile, err := h.svc.Get(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    "Profile retrieved successfully",
		"user":       profile.User,
		"statistics": profile.Statistics,
		"orders":     profile.Orders,
	})
}

func (h *ProfileHandler) Update(c *gin.Context) {
	var req services.ProfileUpdate
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.svc.Update(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "user": user})
}

// UploadPicture accepts a multipart image up to 5MB
func (h *ProfileHandler) UploadPicture(c *gin.Context) {
	header, err := c.FormFile(PictureField)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "No file uploaded"})
		return
	}
	if header.Size > storage.MaxImageSize {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "File size must not exceed 5MB"})
		return
	}
	f, err := header.Open()
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	defer f.Close()

	// one extra byte lets the size check see oversized streams
	data, err := io.ReadAll(io.LimitReader(f, storage.MaxImageSize+1))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	user, err := h.svc.UploadPicture(c.Request.Context(), middleware.GetUserID(c), data)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":        "Profile picture uploaded successfully",
		"profilePicture": user.ProfilePicture,
		"user":           user,
	})
}
