package services

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the identity the auth provider asserts for a request.
type TokenClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// TokenService validates session tokens minted by the hosted auth provider.
// Tokens are HS256 over a shared secret; we verify, we never issue.
type TokenService interface {
	ValidateToken(tokenString string) (*TokenClaims, error)
}

type tokenService struct {
	secretKey string
}

func NewTokenService(secretKey string) TokenService {
	return &tokenService{secretKey: secretKey}
}

type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func (t *tokenService) ValidateToken(tokenString string) (*TokenClaims, error) {
	if t.secretKey == "" {
		return nil, fmt.Errorf("auth %w", ErrNotConfigured)
	}

	token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(t.secretKey), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token missing subject")
	}

	return &TokenClaims{
		UserID: claims.Subject,
		Email:  claims.Email,
	}, nil
}
