package repository

import (
	"context"
	"strconv"

	"quickbite-api/models"

	"gorm.io/gorm"
)

type OrderRepository interface {
	// Create inserts the order together with its line snapshot
	Create(ctx context.Context, order *models.Order) error
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Order, error)
	// FindByRef resolves ref as a numeric id or an external order id
	FindByRef(ctx context.Context, ref string) (*models.Order, error)
	// FindForUser is FindByRef scoped to orders owned by userID
	FindForUser(ctx context.Context, userID uint, ref string) (*models.Order, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Order, error)
	Update(ctx context.Context, id uint, fields map[string]interface{}) error
	AddHistory(ctx context.Context, entry *models.OrderStatusHistory) error
}

type orderRepo struct {
	db *gorm.DB
}

func (r *orderRepo) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepo) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("id") })
}

func (r *orderRepo) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Order, error) {
	var order models.Order
	err := r.preloaded(ctx).Where("gateway_order_id = ?", gatewayOrderID).First(&order).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

func (r *orderRepo) FindByRef(ctx context.Context, ref string) (*models.Order, error) {
	return r.find(ctx, r.preloaded(ctx), ref)
}

func (r *orderRepo) FindForUser(ctx context.Context, userID uint, ref string) (*models.Order, error) {
	return r.find(ctx, r.preloaded(ctx).Where("user_id = ?", userID), ref)
}

func (r *orderRepo) find(_ context.Context, q *gorm.DB, ref string) (*models.Order, error) {
	if id, err := strconv.ParseUint(ref, 10, 64); err == nil {
		q = q.Where("id = ?", id)
	} else {
		q = q.Where("order_id = ?", ref)
	}
	var order models.Order
	if err := q.First(&order).Error; err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

func (r *orderRepo) ListByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	orders := make([]models.Order, 0)
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	return orders, err
}

func (r *orderRepo) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orderRepo) AddHistory(ctx context.Context, entry *models.OrderStatusHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}
