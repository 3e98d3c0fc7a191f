package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"quickbite-api/apperr"
	"quickbite-api/models"
	"quickbite-api/repository"
	"quickbite-api/storage"

	"github.com/shopspring/decimal"
)

type ProfileService struct {
	store  repository.Store
	images storage.ImageStore
	logger *slog.Logger
	now    func() time.Time
}

func NewProfileService(store repository.Store, images storage.ImageStore, logger *slog.Logger) *ProfileService {
	return &ProfileService{store: store, images: images, logger: logger, now: time.Now}
}

type ProfileStats struct {
	TotalOrders   int             `json:"totalOrders"`
	TotalSpent    decimal.Decimal `json:"totalSpent"`
	LastOrderDate *time.Time      `json:"lastOrderDate"`
}

type Profile struct {
	User       *models.User   `json:"user"`
	Statistics ProfileStats   `json:"statistics"`
	Orders     []models.Order `json:"orders"`
}

// ProfileUpdate holds optional fields; empty strings leave a field unchanged
type ProfileUpdate struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (s *ProfileService) user(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.store.Users().FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to retrieve profile")
	}
	return user, nil
}

// Get returns the user with order statistics and history, newest first
func (s *ProfileService) Get(ctx context.Context, userID uint) (*Profile, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	orders, err := s.store.Orders().ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to retrieve profile")
	}

	stats := ProfileStats{TotalOrders: len(orders), TotalSpent: decimal.Zero}
	for _, o := range orders {
		stats.TotalSpent = stats.TotalSpent.Add(o.TotalAmount)
	}
	if len(orders) > 0 {
		last := orders[0].CreatedAt
		stats.LastOrderDate = &last
	}
	return &Profile{User: user, Statistics: stats, Orders: orders}, nil
}

func (s *ProfileService) Update(ctx context.Context, userID uint, in ProfileUpdate) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)

	var fields []apperr.FieldError
	if n := utf8.RuneCountInString(in.Name); in.Name != "" && (n < 5 || n > 20) {
		fields = append(fields, apperr.FieldError{Field: "name", Message: "Name must be between 5 and 20 characters"})
	}
	if in.Email != "" && !validEmail(in.Email) {
		fields = append(fields, apperr.FieldError{Field: "email", Message: "Please enter a valid email address"})
	}
	if len(fields) > 0 {
		return nil, apperr.New(apperr.KindValidation, "Validation failed", fields...)
	}

	if in.Email != "" {
		taken, err := s.store.Users().EmailTaken(ctx, in.Email, userID)
		if err != nil {
			return nil, apperr.Wrap(err, "Failed to update profile")
		}
		if taken {
			return nil, apperr.Conflict("Email is already in use")
		}
	}

	updates := map[string]interface{}{}
	for col, v := range map[string]string{"name": in.Name, "email": in.Email, "phone": in.Phone, "address": in.Address} {
		if v != "" {
			updates[col] = v
		}
	}
	if len(updates) > 0 {
		err := s.store.Users().Update(ctx, userID, updates)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		if err != nil {
			return nil, apperr.Wrap(err, "Failed to update profile")
		}
	}
	return s.user(ctx, userID)
}

// UploadPicture stores a new profile picture and removes the old one.
// Failing to remove the old picture is logged and otherwise ignored.
func (s *ProfileService) UploadPicture(ctx context.Context, userID uint, data []byte) (*models.User, error) {
	if len(data) == 0 {
		return nil, apperr.Validation("No file uploaded")
	}
	ext, err := storage.DetectImage(data)
	if errors.Is(err, storage.ErrTooLarge) {
		return nil, apperr.Validation("File size must not exceed 5MB")
	}
	if err != nil {
		return nil, apperr.Validation("Only JPEG, PNG, GIF and WebP images are allowed")
	}

	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("profile_%d_%d%s", userID, s.now().UnixMilli(), ext)
	url, err := s.images.Save(ctx, name, data)
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to upload profile picture")
	}

	if err := s.store.Users().Update(ctx, userID, map[string]interface{}{"profile_picture": url}); err != nil {
		return nil, apperr.Wrap(err, "Failed to upload profile picture")
	}

	if old := user.ProfilePicture; old != "" && old != url {
		if err := s.images.Delete(ctx, old); err != nil {
			s.logger.Warn("could not delete old profile picture", "user_id", userID, "url", old, "error", err)
		}
	}
	user.ProfilePicture = url
	return user, nil
}
