package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"storefront/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	users      UserRepository
	adminEmail string
	hashCost   int
	logger     zerolog.Logger
}

// NewUserService builds the identity service. adminEmail, when set, is given
// the admin role at registration.
func NewUserService(users UserRepository, adminEmail string, logger zerolog.Logger) *UserService {
	return &UserService{
		users:      users,
		adminEmail: models.NormalizeEmail(adminEmail),
		hashCost:   bcrypt.DefaultCost,
		logger:     logger,
	}
}

// SetHashCost overrides the bcrypt cost used for new passwords.
func (s *UserService) SetHashCost(cost int) {
	s.hashCost = cost
}

// Column widths of the users table. bcrypt rejects passwords over 72 bytes.
const (
	maxEmailLen    = 100
	maxNameLen     = 1000
	maxPasswordLen = 72
)

func validateRegistration(req *models.RegisterRequest) error {
	var v models.ValidationError
	if req.Email == "" {
		v.Add("email", "Email is required.")
	} else if len(req.Email) > maxEmailLen {
		v.Add("email", fmt.Sprintf("Email must be at most %d characters.", maxEmailLen))
	} else if _, err := mail.ParseAddress(req.Email); err != nil {
		v.Add("email", "Email is not a valid address.")
	}
	if req.Password == "" {
		v.Add("password", "Password is required.")
	} else if len(req.Password) > maxPasswordLen {
		v.Add("password", fmt.Sprintf("Password must be at most %d bytes.", maxPasswordLen))
	}
	if req.Name == "" {
		v.Add("name", "Name is required.")
	} else if len(req.Name) > maxNameLen {
		v.Add("name", fmt.Sprintf("Name must be at most %d characters.", maxNameLen))
	}
	return v.OrNil()
}

func (s *UserService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	req.Normalize()
	if err := validateRegistration(req); err != nil {
		return nil, err
	}

	_, err := s.users.GetByEmail(ctx, req.Email)
	if err == nil {
		return nil, fmt.Errorf("email %s: %w", req.Email, models.ErrDuplicateKey)
	}
	if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error().Err(err).Msg("Error checking existing user")
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		s.logger.Error().Err(err).Msg("Error hashing password")
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := models.RoleCustomer
	if s.adminEmail != "" && req.Email == s.adminEmail {
		role = models.RoleAdmin
	}

	// a concurrent registration of the same email surfaces as ErrDuplicateKey here
	user, err := s.users.Create(ctx, &models.User{
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		Name:         req.Name,
		Role:         string(role),
	})
	if err != nil {
		if !errors.Is(err, models.ErrDuplicateKey) {
			s.logger.Error().Err(err).Msg("Error creating user")
		}
		return nil, err
	}

	s.logger.Info().Int64("user_id", user.ID).Str("email", user.Email).Str("role", user.Role).Msg("User registered successfully")
	return user, nil
}

// Authenticate checks the credential against the stored bcrypt hash.
// It returns ErrUnknownEmail or ErrWrongPassword so the caller can tell them apart.
func (s *UserService) Authenticate(ctx context.Context, req *models.LoginRequest) (*models.User, error) {
	email := models.NormalizeEmail(req.Email)

	var v models.ValidationError
	if email == "" {
		v.Add("email", "Email is required.")
	}
	if req.Password == "" {
		v.Add("password", "Password is required.")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		s.logger.Warn().Str("email", email).Msg("Login for unknown email")
		return nil, models.ErrUnknownEmail
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Error querying user")
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn().Str("email", email).Msg("Failed authentication attempt")
		return nil, models.ErrWrongPassword
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("User authenticated successfully")
	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// GrantAdmin gives the admin role to the account registered under email.
func (s *UserService) GrantAdmin(ctx context.Context, email string) error {
	email = models.NormalizeEmail(email)
	if err := s.users.SetRole(ctx, email, string(models.RoleAdmin)); err != nil {
		return err
	}
	s.logger.Info().Str("email", email).Msg("Admin role granted")
	return nil
}
