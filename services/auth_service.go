package services

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"quickbite-api/apperr"
	"quickbite-api/auth"
	"quickbite-api/models"
	"quickbite-api/repository"

	"github.com/go-playground/validator/v10"
)

var (
	namePattern = regexp.MustCompile(`^[a-zA-Z\s]{3,50}$`)
	validate    = validator.New()
)

// AuthService handles registration, login and session lookups
type AuthService struct {
	store       repository.Store
	issuer      *auth.Issuer
	adminSecret string
	logger      *slog.Logger
	now         func() time.Time
}

func NewAuthService(store repository.Store, issuer *auth.Issuer, adminSecret string, logger *slog.Logger) *AuthService {
	return &AuthService{store: store, issuer: issuer, adminSecret: adminSecret, logger: logger, now: time.Now}
}

type RegisterInput struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	Role           string `json:"role"`
	AdminSecretKey string `json:"adminSecretKey"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}

func (in *RegisterInput) validate() error {
	var fields []apperr.FieldError
	if !namePattern.MatchString(in.Name) {
		fields = append(fields, apperr.FieldError{Field: "name", Message: "Name must be 3-50 characters and contain only letters and spaces"})
	}
	if !validEmail(in.Email) {
		fields = append(fields, apperr.FieldError{Field: "email", Message: "Please enter a valid email address"})
	}
	if !auth.StrongPassword(in.Password) {
		fields = append(fields, apperr.FieldError{Field: "password", Message: "Password must be 6-50 characters with at least one uppercase letter, one lowercase letter, and one number"})
	}
	if in.Role != string(models.RoleCustomer) && in.Role != string(models.RoleAdmin) {
		fields = append(fields, apperr.FieldError{Field: "role", Message: "Role must be either customer, admin"})
	}
	if len(fields) > 0 {
		return apperr.New(apperr.KindValidation, "Validation failed", fields...)
	}
	return nil
}

// Register creates a customer, or an admin when the admin secret key matches
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if in.Role == "" {
		in.Role = string(models.RoleCustomer)
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	existing, err := s.store.Users().FindByEmail(ctx, in.Email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Wrap(err, "Registration failed")
	}
	if existing != nil {
		return nil, apperr.Conflict("user already exists")
	}

	role := models.UserRole(in.Role)
	if role == models.RoleAdmin {
		if strings.TrimSpace(in.AdminSecretKey) == "" {
			return nil, apperr.New(apperr.KindValidation, "Admin secret key is required for admin registration",
				apperr.FieldError{Field: "adminSecretKey", Message: "Admin secret key is required"})
		}
		if s.adminSecret == "" || in.AdminSecretKey != s.adminSecret {
			return nil, apperr.New(apperr.KindPermission, "Invalid admin secret key",
				apperr.FieldError{Field: "adminSecretKey", Message: "The admin secret key you entered is incorrect"})
		}
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Wrap(err, "Registration failed")
	}
	user := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
		Permissions:  auth.PermissionsFor(role),
		IsActive:     true,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, apperr.Wrap(err, "Registration failed")
	}

	s.logger.Info("user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Login checks credentials, stamps lastLogin and issues a session token
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = normalizeEmail(email)
	if !validEmail(email) || password == "" {
		return nil, "", apperr.New(apperr.KindValidation, "Validation failed",
			apperr.FieldError{Field: "email", Message: "Please enter a valid email address and password"})
	}

	user, err := s.store.Users().FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "", apperr.New(apperr.KindValidation, "Invalid email or password",
			apperr.FieldError{Field: "email", Message: "No account found with this email address"})
	}
	if err != nil {
		return nil, "", apperr.Wrap(err, "Login failed")
	}
	if !user.IsActive {
		return nil, "", apperr.New(apperr.KindPermission, "Account is inactive",
			apperr.FieldError{Field: "email", Message: "Your account has been deactivated. Please contact administrator."})
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, "", apperr.New(apperr.KindValidation, "Invalid email or password",
			apperr.FieldError{Field: "password", Message: "Incorrect password"})
	}

	token, err := s.issuer.Generate(user)
	if err != nil {
		return nil, "", apperr.Wrap(err, "Login failed")
	}

	now := s.now()
	if err := s.store.Users().Update(ctx, user.ID, map[string]interface{}{"last_login": now}); err != nil {
		return nil, "", apperr.Wrap(err, "Login failed")
	}
	user.LastLogin = &now
	return user, token, nil
}

// Me returns the account behind a verified session
func (s *AuthService) Me(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.store.Users().FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Auth("User not found")
	}
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to verify user")
	}
	if !user.IsActive {
		return nil, apperr.Permission("Account is inactive")
	}
	return user, nil
}

// EnsureAdmin creates an admin account for email unless one already exists.
// It reports whether an account was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return false, errors.New("ADMIN_EMAIL and ADMIN_PASSWORD are required")
	}
	if !auth.StrongPassword(password) {
		return false, errors.New("ADMIN_PASSWORD must be 6-50 characters with upper case, lower case and a digit")
	}

	_, err := s.store.Users().FindByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, err
	}
	admin := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		Permissions:  auth.PermissionsFor(models.RoleAdmin),
		IsActive:     true,
	}
	if err := s.store.Users().Create(ctx, admin); err != nil {
		return false, err
	}
	s.logger.Info("admin account seeded", "email", email)
	return true, nil
}
