package handlers

import (
	"log/slog"
	"net/http"

	"quickbite-api/models"
	"quickbite-api/services"
	"quickbite-api/statemachine"

	"github.com/gin-gonic/gin"
)

// CatalogHandler serves the public food catalog and the admin food endpoints
type CatalogHandler struct {
	svc    *services.CatalogService
	logger *slog.Logger
}

func NewCatalogHandler(svc *services.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{svc: svc, logger: logger}
}

func (h *CatalogHandler) ByCategory(c *gin.Context) {
	items, err := h.svc.ByCategory(c.Request.Context(), c.Param("category"))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"food": items})
}

func (h *CatalogHandler) Popular(c *gin.Context) {
	items, err := h.svc.Popular(c.Request.Context())
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"food": items})
}

func (h *CatalogHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	item, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"food": item})
}

// Filter narrows a category by ?type= and ?search=
func (h *CatalogHandler) Filter(c *gin.Context) {
	items, err := h.svc.Filter(c.Request.Context(), c.Param("category"), c.Query("type"), c.Query("search"))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"food": items})
}

// StateMachine describes the order lifecycle for clients and docs
func StateMachine(c *gin.Context) {
	transitions := statemachine.GetAllTransitions()
	info := make([]gin.H, 0, len(transitions))
	for _, t := range transitions {
		info = append(info, gin.H{"from": t.From, "to": t.To, "actor": t.Actor})
	}
	var terminal []models.OrderStatus
	for _, s := range models.OrderStatuses {
		if statemachine.IsTerminal(s) {
			terminal = append(terminal, s)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"state_machine":   info,
		"terminal_states": terminal,
		"cancellation":    "customers may cancel until a paid order enters the kitchen",
	})
}
