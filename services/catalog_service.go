package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"quickbite-api/apperr"
	"quickbite-api/cache"
	"quickbite-api/models"
	"quickbite-api/repository"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

const (
	popularKey     = "catalog:popular"
	categoryPrefix = "catalog:category:"
	itemPrefix     = "catalog:item:"
)

// CatalogService serves the food catalog. Customer reads only see active
// items and go through the read cache; admin writes invalidate it.
type CatalogService struct {
	store  repository.Store
	cache  cache.Cache
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

func NewCatalogService(store repository.Store, c cache.Cache, ttl time.Duration, logger *slog.Logger) *CatalogService {
	if c == nil {
		c = cache.Noop{}
	}
	return &CatalogService{store: store, cache: c, ttl: ttl, logger: logger}
}

// PriceInput carries the three tier prices of a new item
type PriceInput struct {
	Regular decimal.Decimal `json:"regular"`
	Medium  decimal.Decimal `json:"medium"`
	Large   decimal.Decimal `json:"large"`
}

type FoodInput struct {
	Name        string     `json:"name" binding:"required"`
	Category    string     `json:"category" binding:"required"`
	Type        string     `json:"type" binding:"required"`
	Popular     bool       `json:"popular"`
	Description string     `json:"description"`
	Price       PriceInput `json:"price"`
	Image       string     `json:"image"`
	Rating      string     `json:"rating"`
}

// PricePatch updates individual tiers; the tier keys themselves are fixed
type PricePatch struct {
	Regular *decimal.Decimal `json:"regular"`
	Medium  *decimal.Decimal `json:"medium"`
	Large   *decimal.Decimal `json:"large"`
}

// FoodPatch is a partial update; nil fields are left unchanged
type FoodPatch struct {
	Name        *string     `json:"name"`
	Category    *string     `json:"category"`
	Type        *string     `json:"type"`
	Popular     *bool       `json:"popular"`
	Description *string     `json:"description"`
	Price       *PricePatch `json:"price"`
	Image       *string     `json:"image"`
	Rating      *string     `json:"rating"`
}

var errPriceTiers = apperr.Validation("Price for every size (regular, medium, large) must be greater than 0")

func (in FoodInput) toModel(actorID uint) (*models.FoodItem, error) {
	item := &models.FoodItem{
		Name:        strings.TrimSpace(in.Name),
		Category:    strings.TrimSpace(in.Category),
		Type:        strings.TrimSpace(in.Type),
		Popular:     in.Popular,
		Description: in.Description,
		Price: models.PriceTiers{
			Regular: in.Price.Regular,
			Medium:  in.Price.Medium,
			Large:   in.Price.Large,
		},
		Image:       in.Image,
		Rating:      in.Rating,
		IsActive:    true,
		CreatedByID: actorID,
	}
	if item.Name == "" || item.Category == "" || item.Type == "" {
		return nil, apperr.Validation("Name, category and type are required")
	}
	if !item.Price.Positive() {
		return nil, errPriceTiers
	}
	return item, nil
}

// ---- customer reads ----

func (s *CatalogService) ByCategory(ctx context.Context, category string) ([]models.FoodItem, error) {
	return s.cachedList(ctx, categoryPrefix+category, repository.FoodFilter{Category: category, ActiveOnly: true})
}

func (s *CatalogService) Popular(ctx context.Context) ([]models.FoodItem, error) {
	return s.cachedList(ctx, popularKey, repository.FoodFilter{PopularOnly: true, ActiveOnly: true})
}

// Filter narrows a category by type ("All" or empty matches any) and a
// case-insensitive name search. Results are not cached.
func (s *CatalogService) Filter(ctx context.Context, category, typ, search string) ([]models.FoodItem, error) {
	f := repository.FoodFilter{Category: category, Search: search, ActiveOnly: true}
	if typ != "" && typ != "All" {
		f.Type = typ
	}
	items, err := s.store.Foods().List(ctx, f)
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to filter food items")
	}
	return items, nil
}

// Get returns an active item
func (s *CatalogService) Get(ctx context.Context, id uint) (*models.FoodItem, error) {
	key := fmt.Sprintf("%s%d", itemPrefix, id)

	var cached models.FoodItem
	if found, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.logger.Warn("catalog cache read failed", "key", key, "error", err)
	} else if found {
		return &cached, nil
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		item, err := s.store.Foods().FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if !item.IsActive {
			return nil, repository.ErrNotFound
		}
		s.fill(ctx, key, item)
		return item, nil
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("Food item not found")
	}
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to load food item")
	}
	item := *v.(*models.FoodItem)
	return &item, nil
}

func (s *CatalogService) cachedList(ctx context.Context, key string, f repository.FoodFilter) ([]models.FoodItem, error) {
	var cached []models.FoodItem
	if found, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.logger.Warn("catalog cache read failed", "key", key, "error", err)
	} else if found {
		return cached, nil
	}

	// concurrent misses on the same key share one query
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		items, err := s.store.Foods().List(ctx, f)
		if err != nil {
			return nil, err
		}
		s.fill(ctx, key, items)
		return items, nil
	})
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to load food items")
	}
	return v.([]models.FoodItem), nil
}

func (s *CatalogService) fill(ctx context.Context, key string, value interface{}) {
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		s.logger.Warn("catalog cache write failed", "key", key, "error", err)
	}
}

func (s *CatalogService) invalidate(ctx context.Context, items ...*models.FoodItem) {
	keys := []string{popularKey}
	seen := map[string]bool{popularKey: true}
	for _, it := range items {
		for _, k := range []string{fmt.Sprintf("%s%d", itemPrefix, it.ID), categoryPrefix + it.Category} {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn("catalog cache invalidation failed", "keys", keys, "error", err)
	}
}

// ---- admin ----

// ListAll returns active and inactive items with their audit users
func (s *CatalogService) ListAll(ctx context.Context) ([]models.FoodItem, error) {
	items, err := s.store.Foods().ListWithAudit(ctx)
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to load food items")
	}
	return items, nil
}

func (s *CatalogService) Create(ctx context.Context, actorID uint, in FoodInput) (*models.FoodItem, error) {
	item, err := in.toModel(actorID)
	if err != nil {
		return nil, err
	}
	if err := s.store.Foods().Create(ctx, item); err != nil {
		return nil, apperr.Wrap(err, "Failed to create food item")
	}
	s.invalidate(ctx, item)
	s.logger.Info("food item created", "item_id", item.ID, "by", actorID)
	return item, nil
}

// CreateBulk inserts all items or none
func (s *CatalogService) CreateBulk(ctx context.Context, actorID uint, inputs []FoodInput) ([]models.FoodItem, error) {
	if len(inputs) == 0 {
		return nil, apperr.Validation("At least one food item is required")
	}
	items := make([]models.FoodItem, 0, len(inputs))
	for i, in := range inputs {
		item, err := in.toModel(actorID)
		if err != nil {
			return nil, apperr.Validation(fmt.Sprintf("Item %d: %s", i+1, apperr.MessageOf(err)))
		}
		items = append(items, *item)
	}

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		return tx.Foods().CreateBatch(ctx, items)
	})
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to create food items")
	}

	ptrs := make([]*models.FoodItem, len(items))
	for i := range items {
		ptrs[i] = &items[i]
	}
	s.invalidate(ctx, ptrs...)
	s.logger.Info("food items created", "count", len(items), "by", actorID)
	return items, nil
}

func (s *CatalogService) load(ctx context.Context, id uint) (*models.FoodItem, error) {
	item, err := s.store.Foods().FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("Food item not found")
	}
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to load food item")
	}
	return item, nil
}

func (s *CatalogService) Update(ctx context.Context, actorID, id uint, patch FoodPatch) (*models.FoodItem, error) {
	item, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *item

	setString := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	setString(&item.Name, patch.Name)
	setString(&item.Category, patch.Category)
	setString(&item.Type, patch.Type)
	setString(&item.Description, patch.Description)
	setString(&item.Image, patch.Image)
	setString(&item.Rating, patch.Rating)
	if patch.Popular != nil {
		item.Popular = *patch.Popular
	}
	if p := patch.Price; p != nil {
		if p.Regular != nil {
			item.Price.Regular = *p.Regular
		}
		if p.Medium != nil {
			item.Price.Medium = *p.Medium
		}
		if p.Large != nil {
			item.Price.Large = *p.Large
		}
	}
	if item.Name == "" || item.Category == "" || item.Type == "" {
		return nil, apperr.Validation("Name, category and type cannot be empty")
	}
	if !item.Price.Positive() {
		return nil, errPriceTiers
	}

	return s.save(ctx, actorID, item, &before)
}

// SetActive deactivates or reactivates an item. Deactivation is the soft delete.
func (s *CatalogService) SetActive(ctx context.Context, actorID, id uint, active bool) (*models.FoodItem, error) {
	item, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	item.IsActive = active
	return s.save(ctx, actorID, item, nil)
}

func (s *CatalogService) save(ctx context.Context, actorID uint, item, before *models.FoodItem) (*models.FoodItem, error) {
	item.LastUpdatedByID = &actorID
	if err := s.store.Foods().Save(ctx, item); err != nil {
		return nil, apperr.Wrap(err, "Failed to update food item")
	}
	if before != nil {
		s.invalidate(ctx, item, before)
	} else {
		s.invalidate(ctx, item)
	}
	s.logger.Info("food item updated", "item_id", item.ID, "active", item.IsActive, "by", actorID)
	return item, nil
}

// Delete removes an item permanently
func (s *CatalogService) Delete(ctx context.Context, actorID, id uint) error {
	item, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Foods().Delete(ctx, id); err != nil {
		return apperr.Wrap(err, "Failed to delete food item")
	}
	s.invalidate(ctx, item)
	s.logger.Info("food item deleted", "item_id", id, "by", actorID)
	return nil
}
