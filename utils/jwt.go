package utils

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/harbdev/blogapi/config"
)

// Claims defines JWT claims carried by issued access tokens.
type Claims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

// ErrInvalidToken covers malformed, forged, and expired tokens.
var ErrInvalidToken = errors.New("invalid token")

// signingMethod maps the configured algorithm name to an HMAC method.
// Unknown values fall back to HS256.
func signingMethod(name string) jwt.SigningMethod {
	switch strings.ToUpper(name) {
	case "HS384":
		return jwt.SigningMethodHS384
	case "HS512":
		return jwt.SigningMethodHS512
	default:
		return jwt.SigningMethodHS256
	}
}

// GenerateToken issues a signed, time-bounded JWT for the given user.
// Expiry comes from JWTExpireMinutes in the configuration.
func GenerateToken(userID uint) (string, error) {
	cfg := config.Get()

	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(cfg.JWTExpireMinutes) * time.Minute)),
		},
	}

	token := jwt.NewWithClaims(signingMethod(cfg.JWTAlgorithm), claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// ParseToken validates a JWT and returns its claims. Signature, algorithm
// family, and expiry are all verified; any failure maps to ErrInvalidToken.
func ParseToken(tokenStr string) (*Claims, error) {
	cfg := config.Get()
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
