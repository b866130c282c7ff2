// internal/auth/auth.go
package auth

import (
	"errors"
	"fmt"
	"time"

	"recycle-pickup-api-server/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const defaultTokenTTL = 24 * time.Hour

// JWTClaims defines the payload for the JWT.
type JWTClaims struct {
	UserID      string             `json:"userId"`
	Email       string             `json:"email"`
	AccountType models.AccountType `json:"accountType"`
	jwt.RegisteredClaims
}

// Hashing
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// TokenManager issues and verifies the bearer tokens both apps send.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager signs with secret; expiration is a duration string such
// as "24h" and defaults to one day when empty.
func NewTokenManager(secret, expiration string) (*TokenManager, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	ttl := defaultTokenTTL
	if expiration != "" {
		d, err := time.ParseDuration(expiration)
		if err != nil {
			return nil, fmt.Errorf("invalid jwt expiration %q: %w", expiration, err)
		}
		ttl = d
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// GenerateJWT signs a token for u.
func (m *TokenManager) GenerateJWT(u models.User) (string, error) {
	now := m.now()
	claims := &JWTClaims{
		UserID:      u.ID,
		Email:       u.Email,
		AccountType: u.AccountType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// VerifyToken checks signature, algorithm and expiry of tokenString.
func (m *TokenManager) VerifyToken(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
