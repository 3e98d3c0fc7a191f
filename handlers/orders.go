package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"quickbite-api/middleware"
	"quickbite-api/models"
	"quickbite-api/services"

	"github.com/gin-gonic/gin"
)

// SignatureHeader carries the gateway webhook signature
const SignatureHeader = "X-Razorpay-Signature"

const maxWebhookBody = 1 << 20

type OrderHandler struct {
	svc    *services.OrderService
	keyID  string
	logger *slog.Logger
}

// NewOrderHandler builds the order endpoints. keyID is the public gateway
// key returned to clients for checkout.
func NewOrderHandler(svc *services.OrderService, keyID string, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{svc: svc, keyID: keyID, logger: logger}
}

// Create checks out the caller's cart
func (h *OrderHandler) Create(c *gin.Context) {
	var req services.CreateOrderInput
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.svc.CreateOrder(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Order created successfully",
		"key":     h.keyID,
		"order": gin.H{
			"id":              order.ID,
			"orderId":         order.OrderID,
			"razorpayOrderId": order.GatewayOrderID,
			"amount":          order.TotalAmount,
			"currency":        order.Currency,
			"items":           order.Items,
			"deliveryDetails": order.DeliveryDetails,
		},
	})
}

func (h *OrderHandler) VerifyPayment(c *gin.Context) {
	var req services.VerifyPaymentInput
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.svc.VerifyPayment(c.Request.Context(), req)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Payment verified successfully",
		"order": gin.H{
			"id":            order.ID,
			"orderId":       order.OrderID,
			"paymentStatus": order.PaymentStatus,
			"orderStatus":   order.OrderStatus,
			"totalAmount":   order.TotalAmount,
		},
	})
}

// Webhook receives gateway events. The raw body is needed for the signature.
func (h *OrderHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if err := h.svc.HandleWebhook(c.Request.Context(), body, c.GetHeader(SignatureHeader)); err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *OrderHandler) RetryPayment(c *gin.Context) {
	order, err := h.svc.RetryPayment(c.Request.Context(), middleware.GetUserID(c), c.Param("orderId"))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Payment retry initiated successfully",
		"key":     h.keyID,
		"order": gin.H{
			"id":              order.ID,
			"orderId":         order.OrderID,
			"razorpayOrderId": order.GatewayOrderID,
			"amount":          order.TotalAmount,
			"currency":        order.Currency,
		},
	})
}

// MyOrders returns the caller's orders, newest first
func (h *OrderHandler) MyOrders(c *gin.Context) {
	orders, err := h.svc.ListMyOrders(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	if len(orders) == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "No orders found", "count": 0, "orders": []models.Order{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Orders retrieved successfully", "count": len(orders), "orders": orders})
}

func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.svc.GetOrder(c.Request.Context(), middleware.GetUserID(c), c.Param("orderId"))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order details retrieved successfully", "order": order})
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *OrderHandler) Cancel(c *gin.Context) {
	var req cancelRequest
	// the body is optional
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	order, err := h.svc.CancelOrder(c.Request.Context(), middleware.GetUserID(c), c.Param("orderId"), req.Reason)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Order cancelled successfully",
		"order": gin.H{
			"id":          order.ID,
			"orderId":     order.OrderID,
			"orderStatus": order.OrderStatus,
		},
	})
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus moves an order along the fulfilment graph (admin)
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.svc.UpdateOrderStatus(c.Request.Context(), middleware.GetUserID(c), c.Param("orderId"), req.Status)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Order status updated successfully",
		"order": gin.H{
			"id":            order.ID,
			"orderId":       order.OrderID,
			"orderStatus":   order.OrderStatus,
			"paymentStatus": order.PaymentStatus,
		},
	})
}
