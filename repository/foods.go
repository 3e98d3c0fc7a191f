package repository

import (
	"context"
	"strings"

	"quickbite-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FoodFilter narrows catalog listings. Empty fields match everything.
type FoodFilter struct {
	Category    string
	Type        string
	Search      string // case-insensitive substring of the name
	PopularOnly bool
	ActiveOnly  bool
}

type FoodRepository interface {
	Create(ctx context.Context, item *models.FoodItem) error
	CreateBatch(ctx context.Context, items []models.FoodItem) error
	FindByID(ctx context.Context, id uint) (*models.FoodItem, error)
	// FindByIDs returns the items that exist, keyed by id
	FindByIDs(ctx context.Context, ids []uint) (map[uint]models.FoodItem, error)
	List(ctx context.Context, f FoodFilter) ([]models.FoodItem, error)
	// ListWithAudit returns every item with creator and last editor loaded
	ListWithAudit(ctx context.Context) ([]models.FoodItem, error)
	Save(ctx context.Context, item *models.FoodItem) error
	Delete(ctx context.Context, id uint) error
}

type foodRepo struct {
	db *gorm.DB
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func (r *foodRepo) Create(ctx context.Context, item *models.FoodItem) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error
}

func (r *foodRepo) CreateBatch(ctx context.Context, items []models.FoodItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).CreateInBatches(items, 100).Error
}

func (r *foodRepo) FindByID(ctx context.Context, id uint) (*models.FoodItem, error) {
	var item models.FoodItem
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

func (r *foodRepo) FindByIDs(ctx context.Context, ids []uint) (map[uint]models.FoodItem, error) {
	out := make(map[uint]models.FoodItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var items []models.FoodItem
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	for _, it := range items {
		out[it.ID] = it
	}
	return out, nil
}

func (r *foodRepo) List(ctx context.Context, f FoodFilter) ([]models.FoodItem, error) {
	q := r.db.WithContext(ctx).Model(&models.FoodItem{})
	if f.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	if f.PopularOnly {
		q = q.Where("popular = ?", true)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
		q = q.Where("LOWER(name) LIKE ? ESCAPE '!'", pattern)
	}

	items := make([]models.FoodItem, 0)
	if err := q.Order("id").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *foodRepo) ListWithAudit(ctx context.Context) ([]models.FoodItem, error) {
	items := make([]models.FoodItem, 0)
	err := r.db.WithContext(ctx).
		Preload("CreatedBy").
		Preload("LastUpdatedBy").
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

func (r *foodRepo) Save(ctx context.Context, item *models.FoodItem) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(item).Error
}

func (r *foodRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.FoodItem{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
