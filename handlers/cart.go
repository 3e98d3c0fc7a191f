package handlers

import (
	"log/slog"
	"net/http"

	"quickbite-api/middleware"
	"quickbite-api/services"

	"github.com/gin-gonic/gin"
)

type CartHandler struct {
	svc    *services.CartService
	logger *slog.Logger
}

func NewCartHandler(svc *services.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{svc: svc, logger: logger}
}

func (h *CartHandler) List(c *gin.Context) {
	view, err := h.svc.List(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *CartHandler) Add(c *gin.Context) {
	var req services.AddItemInput
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.svc.AddItem(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	switch {
	case res.Created:
		c.JSON(http.StatusCreated, gin.H{"message": "Your item has been added to the cart", "quantity": res.Quantity})
	case res.Merged:
		c.JSON(http.StatusOK, gin.H{"message": "Quantity updated successfully", "quantity": res.Quantity})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Your item has been added to the cart", "quantity": res.Quantity})
	}
}

type updateCartRequest struct {
	Action string `json:"action" binding:"required"`
}

func (h *CartHandler) Update(c *gin.Context) {
	itemID, ok := idParam(c, "itemId")
	if !ok {
		return
	}
	var req updateCartRequest
	if !bindJSON(c, &req) {
		return
	}
	qty, err := h.svc.UpdateQuantity(c.Request.Context(), middleware.GetUserID(c), itemID, req.Action)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart has been updated", "quantity": qty})
}

func (h *CartHandler) Remove(c *gin.Context) {
	itemID, ok := idParam(c, "itemId")
	if !ok {
		return
	}
	if err := h.svc.RemoveItem(c.Request.Context(), middleware.GetUserID(c), itemID); err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product removed from cart"})
}

func (h *CartHandler) Clear(c *gin.Context) {
	if err := h.svc.Clear(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cleared the cart successfully"})
}
