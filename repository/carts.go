package repository

import (
	"context"
	"time"

	"quickbite-api/models"

	"gorm.io/gorm"
)

type CartRepository interface {
	// FindByUser loads the cart with its lines in insertion order
	FindByUser(ctx context.Context, userID uint) (*models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) error
	SaveItem(ctx context.Context, item *models.CartItem) error
	DeleteItems(ctx context.Context, cartID uint, foodItemIDs []uint) error
	// Touch increments the cart version and records it on cart
	Touch(ctx context.Context, cart *models.Cart) error
	DeleteByUser(ctx context.Context, userID uint) error
	// DeleteIfCurrent removes cart cartID only while it still has version.
	// It reports whether a cart was removed.
	DeleteIfCurrent(ctx context.Context, cartID uint, version int) (bool, error)
}

type cartRepo struct {
	db *gorm.DB
}

func (r *cartRepo) FindByUser(ctx context.Context, userID uint) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&cart).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &cart, nil
}

func (r *cartRepo) Create(ctx context.Context, cart *models.Cart) error {
	return r.db.WithContext(ctx).Create(cart).Error
}

func (r *cartRepo) SaveItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *cartRepo) DeleteItems(ctx context.Context, cartID uint, foodItemIDs []uint) error {
	if len(foodItemIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("cart_id = ? AND food_item_id IN ?", cartID, foodItemIDs).
		Delete(&models.CartItem{}).Error
}

func (r *cartRepo) Touch(ctx context.Context, cart *models.Cart) error {
	now := time.Now()
	err := r.db.WithContext(ctx).Model(&models.Cart{}).
		Where("id = ?", cart.ID).
		UpdateColumns(map[string]interface{}{
			"version":    gorm.Expr("version + 1"),
			"updated_at": now,
		}).Error
	if err != nil {
		return err
	}
	cart.Version++
	cart.UpdatedAt = now
	return nil
}

func (r *cartRepo) DeleteByUser(ctx context.Context, userID uint) error {
	db := r.db.WithContext(ctx)
	err := db.Where("cart_id IN (?)", db.Model(&models.Cart{}).Select("id").Where("user_id = ?", userID)).
		Delete(&models.CartItem{}).Error
	if err != nil {
		return err
	}
	return db.Where("user_id = ?", userID).Delete(&models.Cart{}).Error
}

func (r *cartRepo) DeleteIfCurrent(ctx context.Context, cartID uint, version int) (bool, error) {
	var removed bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND version = ?", cartID, version).Delete(&models.Cart{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		removed = true
		return tx.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
	})
	return removed, err
}
