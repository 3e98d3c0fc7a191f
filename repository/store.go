// Package repository persists users, food items, carts and orders through gorm.
package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("record not found")

// Store groups the repositories that share one database handle.
// Inside Transaction every repository of the passed Store runs on the transaction.
type Store interface {
	Users() UserRepository
	Foods() FoodRepository
	Carts() CartRepository
	Orders() OrderRepository
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

type gormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Users() UserRepository   { return &userRepo{db: s.db} }
func (s *gormStore) Foods() FoodRepository   { return &foodRepo{db: s.db} }
func (s *gormStore) Carts() CartRepository   { return &cartRepo{db: s.db} }
func (s *gormStore) Orders() OrderRepository { return &orderRepo{db: s.db} }

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
