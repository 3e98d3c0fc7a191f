package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"quickbite-api/config"
	"quickbite-api/models"
	"quickbite-api/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) repository.Store {
	t.Helper()
	db, err := config.OpenDB(config.DatabaseConfig{Driver: "sqlite", DSN: "file::memory:"})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return repository.NewStore(db)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func createUser(t *testing.T, store repository.Store, email string, role models.UserRole) *models.User {
	t.Helper()
	u := &models.User{Name: "Test User", Email: email, PasswordHash: "x", Role: role, IsActive: true}
	require.NoError(t, store.Users().Create(context.Background(), u))
	return u
}

// createFood adds an active item priced regular=p/2, medium=p, large=p*1.5
func createFood(t *testing.T, store repository.Store, name string, medium int64, by uint) *models.FoodItem {
	t.Helper()
	m := decimal.NewFromInt(medium)
	item := &models.FoodItem{
		Name:     name,
		Category: "mains",
		Type:     "veg",
		Price: models.PriceTiers{
			Regular: m.Div(decimal.NewFromInt(2)),
			Medium:  m,
			Large:   m.Mul(decimal.RequireFromString("1.5")),
		},
		IsActive:    true,
		CreatedByID: by,
	}
	require.NoError(t, store.Foods().Create(context.Background(), item))
	return item
}

func deactivate(t *testing.T, store repository.Store, item *models.FoodItem) {
	t.Helper()
	item.IsActive = false
	require.NoError(t, store.Foods().Save(context.Background(), item))
}
