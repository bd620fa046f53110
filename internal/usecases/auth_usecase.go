package usecases

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 24 * time.Hour

// AuthUsecase guards the admin HTTP API with a single configured account.
type AuthUsecase struct {
	username     string
	passwordHash []byte
	jwtSecret    []byte
	now          func() time.Time
}

// NewAuthUsecase hashes the admin password once at startup. An empty
// username or password disables login.
func NewAuthUsecase(username, password, secret string) (*AuthUsecase, error) {
	uc := &AuthUsecase{
		username:  username,
		jwtSecret: []byte(secret),
		now:       time.Now,
	}
	if username == "" || password == "" {
		return uc, nil
	}
	if secret == "" {
		return nil, errors.New("auth: JWT secret is required when an admin account is configured")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash admin password: %w", err)
	}
	uc.passwordHash = hashed
	return uc, nil
}

func (uc *AuthUsecase) Enabled() bool {
	return len(uc.passwordHash) > 0
}

func (uc *AuthUsecase) Login(username, password string) (string, error) {
	if !uc.Enabled() {
		return "", newError(ErrorInvalidCredentials, "login disabled", nil)
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(uc.username)) == 1
	passErr := bcrypt.CompareHashAndPassword(uc.passwordHash, []byte(password))
	if !userOK || passErr != nil {
		return "", newError(ErrorInvalidCredentials, "invalid credentials", nil)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": uc.username,
		"role":    "admin",
		"exp":     uc.now().Add(tokenTTL).Unix(),
	})
	tokenString, err := token.SignedString(uc.jwtSecret)
	if err != nil {
		return "", newError(ErrorInternal, "sign token", err)
	}
	return tokenString, nil
}
