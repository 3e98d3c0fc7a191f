package repository

import (
	"context"
	"errors"
	"testing"

	"quickbite-api/config"
	"quickbite-api/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	db, err := config.OpenDB(config.DatabaseConfig{Driver: "sqlite", DSN: "file::memory:"})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewStore(db)
}

func seedUser(t *testing.T, s Store, email string) *models.User {
	t.Helper()
	u := &models.User{Name: "Test User", Email: email, PasswordHash: "x", Role: models.RoleCustomer, IsActive: true}
	require.NoError(t, s.Users().Create(context.Background(), u))
	return u
}

func seedFood(t *testing.T, s Store, name, category string, by uint) *models.FoodItem {
	t.Helper()
	item := &models.FoodItem{
		Name:     name,
		Category: category,
		Type:     "veg",
		Price: models.PriceTiers{
			Regular: decimal.NewFromInt(80),
			Medium:  decimal.NewFromInt(100),
			Large:   decimal.NewFromInt(150),
		},
		IsActive:    true,
		CreatedByID: by,
	}
	require.NoError(t, s.Foods().Create(context.Background(), item))
	return item
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "a@example.com")
	other := seedUser(t, s, "b@example.com")

	got, err := s.Users().FindByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.True(t, got.IsActive)

	_, err = s.Users().FindByID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	taken, err := s.Users().EmailTaken(ctx, "b@example.com", u.ID)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = s.Users().EmailTaken(ctx, "b@example.com", other.ID)
	require.NoError(t, err)
	assert.False(t, taken)

	require.NoError(t, s.Users().Update(ctx, u.ID, map[string]interface{}{"phone": "12345"}))
	got, err = s.Users().FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "12345", got.Phone)

	assert.ErrorIs(t, s.Users().Update(ctx, 999, map[string]interface{}{"phone": "1"}), ErrNotFound)
}

func TestCreateKeepsInactiveFlag(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	u := &models.User{Name: "Dormant", Email: "dormant@example.com", PasswordHash: "x", Role: models.RoleCustomer}
	require.NoError(t, s.Users().Create(ctx, u))
	got, err := s.Users().FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	item := &models.FoodItem{Name: "Draft Dish", Category: "mains", Type: "veg", CreatedByID: u.ID}
	require.NoError(t, s.Foods().Create(ctx, item))
	items, err := s.Foods().List(ctx, FoodFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = s.Foods().List(ctx, FoodFilter{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.False(t, items[0].IsActive)
}

func TestFoodFilter(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	admin := seedUser(t, s, "admin@example.com")

	seedFood(t, s, "Paneer Pizza", "pizza", admin.ID)
	seedFood(t, s, "Chicken Pizza", "pizza", admin.ID)
	burger := seedFood(t, s, "Veg Burger", "burger", admin.ID)
	off := seedFood(t, s, "100% Pizza", "pizza", admin.ID)

	off.IsActive = false
	require.NoError(t, s.Foods().Save(ctx, off))
	burger.Popular = true
	require.NoError(t, s.Foods().Save(ctx, burger))

	items, err := s.Foods().List(ctx, FoodFilter{Category: "pizza", ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, err = s.Foods().List(ctx, FoodFilter{Category: "pizza", Search: "PANEER", ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Paneer Pizza", items[0].Name)

	// LIKE wildcards in the search term are literal
	items, err = s.Foods().List(ctx, FoodFilter{Search: "%"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, off.ID, items[0].ID)

	items, err = s.Foods().List(ctx, FoodFilter{PopularOnly: true, ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, burger.ID, items[0].ID)

	byID, err := s.Foods().FindByIDs(ctx, []uint{burger.ID, 404})
	require.NoError(t, err)
	assert.Len(t, byID, 1)
	assert.Contains(t, byID, burger.ID)
}

func TestFoodAuditAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	admin := seedUser(t, s, "admin@example.com")
	mod := seedUser(t, s, "mod@example.com")

	item := seedFood(t, s, "Fries", "sides", admin.ID)
	item.LastUpdatedByID = &mod.ID
	require.NoError(t, s.Foods().Save(ctx, item))

	items, err := s.Foods().ListWithAudit(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].CreatedBy)
	require.NotNil(t, items[0].LastUpdatedBy)
	assert.Equal(t, "admin@example.com", items[0].CreatedBy.Email)
	assert.Equal(t, "mod@example.com", items[0].LastUpdatedBy.Email)

	require.NoError(t, s.Foods().Delete(ctx, item.ID))
	assert.ErrorIs(t, s.Foods().Delete(ctx, item.ID), ErrNotFound)
}

func TestCartRepository(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "c@example.com")
	a := seedFood(t, s, "A", "x", u.ID)
	b := seedFood(t, s, "B", "x", u.ID)

	_, err := s.Carts().FindByUser(ctx, u.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	cart := &models.Cart{UserID: u.ID}
	require.NoError(t, s.Carts().Create(ctx, cart))
	require.NoError(t, s.Carts().SaveItem(ctx, &models.CartItem{CartID: cart.ID, FoodItemID: a.ID, Quantity: 2, Size: models.SizeMedium}))
	require.NoError(t, s.Carts().SaveItem(ctx, &models.CartItem{CartID: cart.ID, FoodItemID: b.ID, Quantity: 1, Size: models.SizeLarge}))
	require.NoError(t, s.Carts().Touch(ctx, cart))
	assert.Equal(t, 1, cart.Version)

	// one line per food item
	dup := &models.CartItem{CartID: cart.ID, FoodItemID: a.ID, Quantity: 1, Size: models.SizeRegular}
	assert.Error(t, s.Carts().SaveItem(ctx, dup))

	got, err := s.Carts().FindByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, a.ID, got.Items[0].FoodItemID)
	assert.Equal(t, 1, got.Version)

	require.NoError(t, s.Carts().DeleteItems(ctx, cart.ID, []uint{a.ID}))
	got, err = s.Carts().FindByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)

	removed, err := s.Carts().DeleteIfCurrent(ctx, cart.ID, 0)
	require.NoError(t, err)
	assert.False(t, removed, "stale version keeps the cart")

	removed, err = s.Carts().DeleteIfCurrent(ctx, cart.ID+1, 1)
	require.NoError(t, err)
	assert.False(t, removed, "another cart id keeps the cart")

	removed, err = s.Carts().DeleteIfCurrent(ctx, cart.ID, 1)
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = s.Carts().FindByUser(ctx, u.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// clearing an absent cart is fine
	assert.NoError(t, s.Carts().DeleteByUser(ctx, u.ID))

	// ids are not handed out again after a delete
	next := &models.Cart{UserID: u.ID}
	require.NoError(t, s.Carts().Create(ctx, next))
	assert.Greater(t, next.ID, cart.ID)
}

func TestOrderRepository(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "o@example.com")
	other := seedUser(t, s, "p@example.com")

	order := &models.Order{
		UserID:         u.ID,
		OrderID:        "ORD-1234567890-ABCDEF",
		GatewayOrderID: "order_gw_1",
		Items: []models.OrderItem{
			{FoodItemID: 1, Name: "A", Price: decimal.NewFromInt(100), Quantity: 2, Size: models.SizeMedium, Subtotal: decimal.NewFromInt(200)},
		},
		DeliveryDetails: models.DeliveryDetails{FullName: "A", Email: "a@b.c", Phone: "1", Address: "x", City: "y", PostalCode: "z"},
		TotalAmount:     decimal.NewFromInt(200),
		PaymentStatus:   models.PaymentPending,
		OrderStatus:     models.StatusConfirmed,
	}
	require.NoError(t, s.Orders().Create(ctx, order))
	require.NotZero(t, order.ID)

	got, err := s.Orders().FindByGatewayOrderID(ctx, "order_gw_1")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.True(t, got.TotalAmount.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, "INR", got.Currency)

	got, err = s.Orders().FindForUser(ctx, u.ID, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = s.Orders().FindForUser(ctx, other.ID, order.OrderID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Orders().Update(ctx, order.ID, map[string]interface{}{"order_status": models.StatusPreparing}))
	require.NoError(t, s.Orders().AddHistory(ctx, &models.OrderStatusHistory{
		OrderID: order.ID, FromStatus: models.StatusConfirmed, ToStatus: models.StatusPreparing, ChangedBy: u.ID,
	}))

	got, err = s.Orders().FindByRef(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPreparing, got.OrderStatus)
	require.Len(t, got.StatusHistory, 1)

	list, err := s.Orders().ListByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	boom := errors.New("boom")
	err := s.Transaction(ctx, func(tx Store) error {
		require.NoError(t, tx.Users().Create(ctx, &models.User{Name: "Temp", Email: "t@example.com", PasswordHash: "x"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.Users().FindByEmail(ctx, "t@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}
