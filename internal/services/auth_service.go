package services

import (
	"errors"
	"strconv"
	"time"

	"storefront/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// AuthService issues and validates the signed session credential stored in
// the session cookie.
type AuthService struct {
	secretKey []byte
	ttl       time.Duration
	logger    zerolog.Logger
}

type Claims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

func NewAuthService(secret string, ttl time.Duration, logger zerolog.Logger) *AuthService {
	return &AuthService{
		secretKey: []byte(secret),
		ttl:       ttl,
		logger:    logger,
	}
}

func (s *AuthService) TTL() time.Duration {
	return s.ttl
}

func (s *AuthService) GenerateToken(user *models.User) (string, error) {
	now := time.Now()

	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secretKey)
	if err != nil {
		s.logger.Error().Err(err).Msg("Error generating token")
		return "", err
	}

	return tokenString, nil
}

func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secretKey, nil
	})
	if err != nil {
		return nil, errors.Join(models.ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, models.ErrInvalidToken
	}

	return claims, nil
}
