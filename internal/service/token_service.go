package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles accepted on write endpoints
const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

// DefaultTokenExpiration is the lifetime of operator tokens
const DefaultTokenExpiration = 12 * time.Hour

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrInvalidRole  = errors.New("role must be admin or cashier")
)

// Claims represents the JWT claims
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and validates the bearer tokens that guard write endpoints
type TokenService interface {
	IssueToken(userID, role string, ttl time.Duration) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type tokenService struct {
	jwtSecret string
	now       func() time.Time
}

// NewTokenService creates a new instance of TokenService
func NewTokenService(jwtSecret string) TokenService {
	return &tokenService{jwtSecret: jwtSecret, now: time.Now}
}

// IssueToken signs an HS256 token carrying user ID and role claims
func (s *tokenService) IssueToken(userID, role string, ttl time.Duration) (string, error) {
	if role != RoleAdmin && role != RoleCashier {
		return "", ErrInvalidRole
	}
	if ttl <= 0 {
		ttl = DefaultTokenExpiration
	}

	now := s.now()
	claims := &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken validates a JWT token and returns the claims
func (s *tokenService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
