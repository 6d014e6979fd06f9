package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"sweetbox/pkg/config"
	"sweetbox/pkg/models"
)

// TokenClaims represents the custom JWT claims
type TokenClaims struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Permission models.Permission `json:"permission"`
	jwt.RegisteredClaims
}

// GenerateToken generates a JWT token for a roster member
func GenerateToken(userID, name string, permission models.Permission) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		ID:         userID,
		Name:       name,
		Permission: permission,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(config.AppConfig.TokenTTL())),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(config.AppConfig.JWTSecret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ErrTokenExpired is returned by VerifyToken for a well-formed but expired token.
var ErrTokenExpired = errors.New("token expired")

// VerifyToken verifies and parses a JWT token
func VerifyToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, err
	}

	if claims, ok := token.Claims.(*TokenClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
