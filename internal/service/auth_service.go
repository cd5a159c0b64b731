package service

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stemsi/recordclean/internal/config"
	"github.com/stemsi/recordclean/internal/model"
)

// TokenType distinguishes student vs admin tokens issued by the main backend.
type TokenType string

const (
	TokenTypeStudent TokenType = "student"
	TokenTypeAdmin   TokenType = "admin"
)

var ErrTokenInvalid = errors.New("invalid token")

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	TokenType   TokenType `json:"token_type"`
	UserID      int       `json:"user_id"`
	RoleID      int       `json:"role_id,omitempty"`
	Permissions []string  `json:"permissions,omitempty"`
}

// AuthService verifies tokens signed with the shared JWT secret. Tokens are
// issued by the main backend; this service never logs anyone in.
type AuthService struct {
	secret []byte
}

func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{secret: []byte(cfg.JWTSecret)}
}

// ValidateToken parses and verifies an HS256 token.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// HasPermission reports whether the claims grant code.
func (c *Claims) HasPermission(code model.Permission) bool {
	for _, p := range c.Permissions {
		if p == string(code) {
			return true
		}
	}
	return false
}
