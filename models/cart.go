package models

import "time"

// Cart is the single active cart of a user. Version increases on every mutation
// so an order can record which cart state it consumed.
type Cart struct {
	ID        uint       `json:"_id" gorm:"primaryKey"`
	UserID    uint       `json:"userId" gorm:"uniqueIndex;not null"`
	Version   int        `json:"version" gorm:"not null;default:0"`
	Items     []CartItem `json:"foodItems" gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// CartItem is one line entry; at most one per food item within a cart
type CartItem struct {
	ID         uint      `json:"_id" gorm:"primaryKey"`
	CartID     uint      `json:"-" gorm:"not null;uniqueIndex:idx_cart_food"`
	FoodItemID uint      `json:"itemId" gorm:"not null;uniqueIndex:idx_cart_food"`
	Quantity   int       `json:"quantity" gorm:"not null"`
	Size       Size      `json:"size" gorm:"not null"`
	CreatedAt  time.Time `json:"-"`
}

// Line returns the entry for the given food item, if present
func (c *Cart) Line(foodItemID uint) *CartItem {
	for i := range c.Items {
		if c.Items[i].FoodItemID == foodItemID {
			return &c.Items[i]
		}
	}
	return nil
}
