package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents the fulfillment state of an order
type OrderStatus string

const (
	StatusConfirmed      OrderStatus = "confirmed"
	StatusPreparing      OrderStatus = "preparing"
	StatusReady          OrderStatus = "ready"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
)

// OrderStatuses lists every status in lifecycle order
var OrderStatuses = []OrderStatus{
	StatusConfirmed, StatusPreparing, StatusReady, StatusOutForDelivery, StatusDelivered, StatusCancelled,
}

// Valid reports whether s is a member of the status enum
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// PaymentStatus is pending until the gateway confirms success or failure
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
)

// DeliveryDetails are captured with the order; every field is required
type DeliveryDetails struct {
	FullName   string `json:"fullName" gorm:"not null" binding:"required"`
	Email      string `json:"email" gorm:"not null" binding:"required"`
	Phone      string `json:"phone" gorm:"not null" binding:"required"`
	Address    string `json:"address" gorm:"not null" binding:"required"`
	City       string `json:"city" gorm:"not null" binding:"required"`
	PostalCode string `json:"postalCode" gorm:"not null" binding:"required"`
}

// Complete reports whether all six fields are present
func (d DeliveryDetails) Complete() bool {
	return d.FullName != "" && d.Email != "" && d.Phone != "" &&
		d.Address != "" && d.City != "" && d.PostalCode != ""
}

type Order struct {
	ID               uint                 `json:"_id" gorm:"primaryKey"`
	UserID           uint                 `json:"userId" gorm:"not null;index"`
	OrderID          string               `json:"orderId" gorm:"uniqueIndex;not null"`
	GatewayOrderID   string               `json:"razorpayOrderId" gorm:"index;not null"`
	GatewayPaymentID string               `json:"razorpayPaymentId"`
	GatewaySignature string               `json:"razorpaySignature"`
	Items            []OrderItem          `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	DeliveryDetails  DeliveryDetails      `json:"deliveryDetails" gorm:"embedded;embeddedPrefix:delivery_"`
	TotalAmount      decimal.Decimal      `json:"totalAmount" gorm:"type:decimal(12,2);not null"`
	Currency         string               `json:"currency" gorm:"not null;default:'INR'"`
	PaymentStatus    PaymentStatus        `json:"paymentStatus" gorm:"not null;default:'pending'"`
	OrderStatus      OrderStatus          `json:"orderStatus" gorm:"not null;default:'confirmed'"`
	PaymentMethod    string               `json:"paymentMethod" gorm:"not null;default:'razorpay'"`
	Notes            string               `json:"notes"`
	CartID           uint                 `json:"-"`
	CartVersion      int                  `json:"-"`
	StatusHistory    []OrderStatusHistory `json:"statusHistory,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time            `json:"createdAt"`
	UpdatedAt        time.Time            `json:"updatedAt"`
}

// OrderItem is a frozen snapshot of a cart line priced at creation time
type OrderItem struct {
	ID         uint            `json:"-" gorm:"primaryKey"`
	OrderID    uint            `json:"-" gorm:"not null;index"`
	FoodItemID uint            `json:"itemId" gorm:"not null"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	Quantity   int             `json:"quantity" gorm:"not null"`
	Size       Size            `json:"size"`
	Subtotal   decimal.Decimal `json:"subtotal" gorm:"type:decimal(12,2);not null"`
}

// OrderStatusHistory tracks every status change
type OrderStatusHistory struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	OrderID    uint        `json:"orderId" gorm:"not null;index"`
	FromStatus OrderStatus `json:"fromStatus"`
	ToStatus   OrderStatus `json:"toStatus" gorm:"not null"`
	ChangedBy  uint        `json:"changedBy"`
	Note       string      `json:"note"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// SumSubtotals adds up the line subtotals
func SumSubtotals(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal)
	}
	return total
}
