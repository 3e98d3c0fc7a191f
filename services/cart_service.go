package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"quickbite-api/apperr"
	"quickbite-api/models"
	"quickbite-api/repository"

	"github.com/shopspring/decimal"
)

// Cart quantity actions
const (
	ActionIncrease = "increase"
	ActionDecrease = "decrease"
)

type CartService struct {
	store  repository.Store
	logger *slog.Logger
}

func NewCartService(store repository.Store, logger *slog.Logger) *CartService {
	return &CartService{store: store, logger: logger}
}

type AddItemInput struct {
	ItemID   uint   `json:"itemId"`
	Quantity int    `json:"quantity"`
	Size     string `json:"size"`
}

// AddResult tells whether the cart was created and the resulting line quantity
type AddResult struct {
	Created  bool
	Merged   bool
	Quantity int
}

// CartLine is a cart entry with its food item resolved
type CartLine struct {
	Item      models.FoodItem `json:"itemId"`
	Quantity  int             `json:"quantity"`
	Size      models.Size     `json:"size"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// CartView is the cart as shown to its owner. Subtotal uses current prices
// and is informational only.
type CartView struct {
	ID        uint            `json:"_id,omitempty"`
	UserID    uint            `json:"userId"`
	Items     []CartLine      `json:"foodItems"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	UpdatedAt *time.Time      `json:"updatedAt,omitempty"`
}

func (s *CartService) AddItem(ctx context.Context, userID uint, in AddItemInput) (*AddResult, error) {
	if in.ItemID == 0 || in.Size == "" || in.Quantity == 0 {
		return nil, apperr.Validation("Item, quantity and size are required")
	}
	if in.Quantity < 1 {
		return nil, apperr.Validation("Quantity must be at least 1")
	}
	size, ok := models.ParseSize(in.Size)
	if !ok {
		return nil, apperr.Validation("Size must be one of regular, medium, large")
	}

	res := &AddResult{}
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		item, err := tx.Foods().FindByID(ctx, in.ItemID)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && !item.IsActive) {
			return apperr.NotFound("Food item not found")
		}
		if err != nil {
			return err
		}

		cart, err := tx.Carts().FindByUser(ctx, userID)
		if errors.Is(err, repository.ErrNotFound) {
			cart = &models.Cart{UserID: userID}
			if err := tx.Carts().Create(ctx, cart); err != nil {
				return err
			}
			res.Created = true
		} else if err != nil {
			return err
		}

		line := cart.Line(in.ItemID)
		if line != nil {
			line.Quantity += in.Quantity
			line.Size = size
			res.Merged = true
		} else {
			line = &models.CartItem{CartID: cart.ID, FoodItemID: in.ItemID, Quantity: in.Quantity, Size: size}
		}
		if err := tx.Carts().SaveItem(ctx, line); err != nil {
			return err
		}
		res.Quantity = line.Quantity
		return tx.Carts().Touch(ctx, cart)
	})
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to add item to cart")
	}
	return res, nil
}

// List resolves every line against the catalog. Lines whose item was removed
// or deactivated are dropped and the pruned cart is saved.
func (s *CartService) List(ctx context.Context, userID uint) (*CartView, error) {
	view := &CartView{UserID: userID, Items: []CartLine{}, Subtotal: decimal.Zero}

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		cart, err := tx.Carts().FindByUser(ctx, userID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		ids := make([]uint, len(cart.Items))
		for i, line := range cart.Items {
			ids[i] = line.FoodItemID
		}
		foods, err := tx.Foods().FindByIDs(ctx, ids)
		if err != nil {
			return err
		}

		var stale []uint
		for _, line := range cart.Items {
			item, ok := foods[line.FoodItemID]
			if !ok || !item.IsActive {
				stale = append(stale, line.FoodItemID)
				continue
			}
			price, _ := item.Price.For(line.Size)
			total := price.Mul(decimal.NewFromInt(int64(line.Quantity)))
			view.Items = append(view.Items, CartLine{Item: item, Quantity: line.Quantity, Size: line.Size, LineTotal: total})
			view.Subtotal = view.Subtotal.Add(total)
		}

		if len(stale) > 0 {
			if err := tx.Carts().DeleteItems(ctx, cart.ID, stale); err != nil {
				return err
			}
			if err := tx.Carts().Touch(ctx, cart); err != nil {
				return err
			}
			s.logger.Info("pruned unavailable cart lines", "user_id", userID, "items", stale)
		}

		view.ID = cart.ID
		view.UpdatedAt = &cart.UpdatedAt
		return nil
	})
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to load cart")
	}
	return view, nil
}

// UpdateQuantity applies an increase or decrease of one. A line never drops
// below one; removing it is a separate operation.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, itemID uint, action string) (int, error) {
	if action != ActionIncrease && action != ActionDecrease {
		return 0, apperr.Validation("Action must be either increase or decrease")
	}

	var quantity int
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		cart, line, err := s.line(ctx, tx, userID, itemID)
		if err != nil {
			return err
		}
		if action == ActionIncrease {
			line.Quantity++
		} else {
			if line.Quantity <= 1 {
				return apperr.Validation("Quantity cannot be less than 1. Remove the item instead")
			}
			line.Quantity--
		}
		if err := tx.Carts().SaveItem(ctx, line); err != nil {
			return err
		}
		quantity = line.Quantity
		return tx.Carts().Touch(ctx, cart)
	})
	if err != nil {
		return 0, apperr.Wrap(err, "Failed to update cart")
	}
	return quantity, nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, itemID uint) error {
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		cart, _, err := s.line(ctx, tx, userID, itemID)
		if err != nil {
			return err
		}
		if err := tx.Carts().DeleteItems(ctx, cart.ID, []uint{itemID}); err != nil {
			return err
		}
		return tx.Carts().Touch(ctx, cart)
	})
	return apperr.Wrap(err, "Failed to remove item from cart")
}

// Clear deletes the cart; a missing cart is not an error
func (s *CartService) Clear(ctx context.Context, userID uint) error {
	return apperr.Wrap(s.store.Carts().DeleteByUser(ctx, userID), "Failed to clear cart")
}

func (s *CartService) line(ctx context.Context, tx repository.Store, userID, itemID uint) (*models.Cart, *models.CartItem, error) {
	cart, err := tx.Carts().FindByUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, apperr.NotFound("Cart not found")
	}
	if err != nil {
		return nil, nil, err
	}
	line := cart.Line(itemID)
	if line == nil {
		return nil, nil, apperr.NotFound("Item not found in cart")
	}
	return cart, line, nil
}
