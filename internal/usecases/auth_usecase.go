package usecases

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthUsecase authenticates the single bot operator configured through the environment.
type AuthUsecase struct {
	username     string
	passwordHash []byte
	jwtSecret    []byte
	ttl          time.Duration
}

func NewAuthUsecase(username, passwordHash, secret string) *AuthUsecase {
	return &AuthUsecase{
		username:     username,
		passwordHash: []byte(passwordHash),
		jwtSecret:    []byte(secret),
		ttl:          24 * time.Hour,
	}
}

// Enabled reports whether an admin password was configured at all.
func (uc *AuthUsecase) Enabled() bool {
	return len(uc.passwordHash) > 0 && len(uc.jwtSecret) > 0
}

func (uc *AuthUsecase) Login(username, password string) (string, error) {
	if !uc.Enabled() || username != uc.username {
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(uc.passwordHash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	// Generate JWT
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  username,
		"role": "admin",
		"exp":  time.Now().Add(uc.ttl).Unix(),
	})

	tokenString, err := token.SignedString(uc.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// HashPassword produces the value expected in ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
