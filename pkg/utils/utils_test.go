package utils

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sweetbox/pkg/config"
	"sweetbox/pkg/engine"
	"sweetbox/pkg/models"
)

func withConfig(t *testing.T) {
	t.Helper()
	prev := config.AppConfig
	config.AppConfig = &config.Config{JWTSecret: "test-secret", JWTExpiresIn: "1d"}
	t.Cleanup(func() { config.AppConfig = prev })
}

func TestTokenRoundTrip(t *testing.T) {
	withConfig(t)
	tok, err := GenerateToken("u-ana", "Ana", models.PermissionKitchenStaff)
	require.NoError(t, err)

	claims, err := VerifyToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "u-ana", claims.ID)
	assert.Equal(t, models.PermissionKitchenStaff, claims.Permission)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestVerifyTokenRejectsExpiredAndForeign(t *testing.T) {
	withConfig(t)
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, TokenClaims{
		ID: "u-ana",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	s, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = VerifyToken(s)
	assert.ErrorIs(t, err, ErrTokenExpired)

	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, TokenClaims{ID: "u-ana"}).SignedString([]byte("other"))
	require.NoError(t, err)
	_, err = VerifyToken(foreign)
	assert.Error(t, err)
}

func TestPINHashing(t *testing.T) {
	hash, err := HashPIN("2468")
	require.NoError(t, err)
	assert.NoError(t, ComparePIN(hash, "2468"))
	assert.Error(t, ComparePIN(hash, "1357"))
}

func TestValidatePIN(t *testing.T) {
	assert.NoError(t, ValidatePIN("0000"))
	assert.NoError(t, ValidatePIN("12345678"))
	assert.Error(t, ValidatePIN("123"))
	assert.Error(t, ValidatePIN("123456789"))
	assert.Error(t, ValidatePIN("12a4"))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusFor(&engine.ValidationError{Field: "name", Message: "is required"}))
	assert.Equal(t, http.StatusConflict, StatusFor(&engine.RestoreConflict{LogID: "a", ConflictID: "b"}))
	assert.Equal(t, http.StatusPreconditionRequired, StatusFor(engine.ErrConfirmationRequired))
	assert.Equal(t, http.StatusNotFound, StatusFor(engine.ErrNotFound))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("disk full")))
}
