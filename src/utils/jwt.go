package utils

import (
	"fmt"
	"os"
	"sync"
	"time"

	"Backend-QA-Portal/src/models"

	"github.com/golang-jwt/jwt/v5"
)

var (
	jwtSecretMu sync.RWMutex
	jwtSecret   []byte
)

// SetJWTSecret is called once at startup with the configured secret.
func SetJWTSecret(secret string) {
	jwtSecretMu.Lock()
	defer jwtSecretMu.Unlock()
	jwtSecret = []byte(secret)
}

func getJWTSecret() []byte {
	jwtSecretMu.RLock()
	defer jwtSecretMu.RUnlock()
	if len(jwtSecret) > 0 {
		return jwtSecret
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "your_secret_key" // fallback for development
	}
	return []byte(secret)
}

// JWTClaims ข้อมูลที่ระบบยืนยันตัวตนภายนอกใส่มาใน token
type JWTClaims struct {
	UserID     string `json:"userId"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Department string `json:"department,omitempty"`
	School     string `json:"school,omitempty"`
	SchoolName string `json:"schoolName,omitempty"`
	jwt.RegisteredClaims
}

func (c *JWTClaims) User() *models.AuthUser {
	return &models.AuthUser{
		ID:         c.UserID,
		Email:      c.Email,
		Role:       models.Role(c.Role),
		Department: c.Department,
		School:     c.School,
		SchoolName: c.SchoolName,
	}
}

// GenerateJWT mints a token for a user. Session issuance lives outside this
// service; this is used by tests and local tooling.
func GenerateJWT(user models.AuthUser, ttl time.Duration) (string, error) {
	claims := JWTClaims{
		UserID:     user.ID,
		Email:      user.Email,
		Role:       string(user.Role),
		Department: user.Department,
		School:     user.School,
		SchoolName: user.SchoolName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(getJWTSecret())
}

func ParseJWT(tokenStr string) (*JWTClaims, error) {
	if tokenStr == "" {
		return nil, fmt.Errorf("empty token string")
	}

	token, err := jwt.ParseWithClaims(tokenStr, &JWTClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return getJWTSecret(), nil
	})

	if err != nil || token == nil {
		return nil, fmt.Errorf("token parsing failed: %v", err)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}
