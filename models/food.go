package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices render as JSON numbers rather than quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Size is one of the fixed price tiers of a food item
type Size string

const (
	SizeRegular Size = "regular"
	SizeMedium  Size = "medium"
	SizeLarge   Size = "large"
)

// ParseSize normalizes s and reports whether it names a known tier
func ParseSize(s string) (Size, bool) {
	switch size := Size(strings.ToLower(strings.TrimSpace(s))); size {
	case SizeRegular, SizeMedium, SizeLarge:
		return size, true
	}
	return "", false
}

// PriceTiers holds the three tier prices. The keys never change, only values.
type PriceTiers struct {
	Regular decimal.Decimal `json:"regular" gorm:"type:decimal(10,2);not null"`
	Medium  decimal.Decimal `json:"medium" gorm:"type:decimal(10,2);not null"`
	Large   decimal.Decimal `json:"large" gorm:"type:decimal(10,2);not null"`
}

// For returns the price of the given tier
func (p PriceTiers) For(size Size) (decimal.Decimal, bool) {
	switch size {
	case SizeRegular:
		return p.Regular, true
	case SizeMedium:
		return p.Medium, true
	case SizeLarge:
		return p.Large, true
	}
	return decimal.Zero, false
}

// Positive reports whether every tier is strictly positive
func (p PriceTiers) Positive() bool {
	return p.Regular.IsPositive() && p.Medium.IsPositive() && p.Large.IsPositive()
}

type FoodItem struct {
	ID              uint       `json:"_id" gorm:"primaryKey"`
	Name            string     `json:"name" gorm:"not null;index"`
	Category        string     `json:"category" gorm:"not null;index"`
	Type            string     `json:"type" gorm:"not null"`
	Popular         bool       `json:"popular" gorm:"not null;default:false"`
	Description     string     `json:"description"`
	Price           PriceTiers `json:"price" gorm:"embedded;embeddedPrefix:price_"`
	Image           string     `json:"image"`
	Rating          string     `json:"rating"`
	IsActive        bool       `json:"isActive" gorm:"not null;index"`
	CreatedByID     uint       `json:"createdById" gorm:"not null"`
	CreatedBy       *User      `json:"createdBy,omitempty" gorm:"foreignKey:CreatedByID"`
	LastUpdatedByID *uint      `json:"lastUpdatedById"`
	LastUpdatedBy   *User      `json:"lastUpdatedBy,omitempty" gorm:"foreignKey:LastUpdatedByID"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}
