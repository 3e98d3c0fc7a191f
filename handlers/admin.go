package handlers

import (
	"net/http"

	"quickbite-api/middleware"
	"quickbite-api/services"

	"github.com/gin-gonic/gin"
)

// ListAll returns every food item, including inactive ones, with audit users
func (h *CatalogHandler) ListAll(c *gin.Context) {
	items, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(items), "food": items})
}

func (h *CatalogHandler) Create(c *gin.Context) {
	var req services.FoodInput
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.svc.Create(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Food item created successfully", "food": item})
}

type bulkRequest struct {
	Items []services.FoodInput `json:"items" binding:"required,min=1,dive"`
}

func (h *CatalogHandler) CreateBulk(c *gin.Context) {
	var req bulkRequest
	if !bindJSON(c, &req) {
		return
	}
	items, err := h.svc.CreateBulk(c.Request.Context(), middleware.GetUserID(c), req.Items)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Food items created successfully", "count": len(items), "food": items})
}

func (h *CatalogHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req services.FoodPatch
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.svc.Update(c.Request.Context(), middleware.GetUserID(c), id, req)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Food item updated successfully", "food": item})
}

func (h *CatalogHandler) Deactivate(c *gin.Context) {
	h.setActive(c, false, "Food item deactivated successfully")
}

func (h *CatalogHandler) Reactivate(c *gin.Context) {
	h.setActive(c, true, "Food item reactivated successfully")
}

func (h *CatalogHandler) setActive(c *gin.Context, active bool, msg string) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	item, err := h.svc.SetActive(c.Request.Context(), middleware.GetUserID(c), id, active)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "food": item})
}

func (h *CatalogHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Food item deleted successfully"})
}
