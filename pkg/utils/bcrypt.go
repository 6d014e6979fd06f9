package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// HashPIN hashes a till PIN using bcrypt
func HashPIN(pin string) (string, error) {
	// Cost factor 10 (bcrypt default)
	bytes, err := bcrypt.GenerateFromPassword([]byte(pin), 10)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// ComparePIN compares a hashed PIN with a plain text PIN
func ComparePIN(hashedPIN, pin string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hashedPIN), []byte(pin)); err != nil {
		return errors.New("invalid PIN")
	}
	return nil
}

// ValidatePIN requires four to eight digits.
func ValidatePIN(pin string) error {
	if len(pin) < 4 || len(pin) > 8 {
		return errors.New("PIN must be 4 to 8 digits")
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return errors.New("PIN must contain digits only")
		}
	}
	return nil
}
