package crypto

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const deviceTokenIssuer = "ebookstore"

// DeviceClaims identify a browsing device. They carry no user identity.
type DeviceClaims struct {
	Device string `json:"dev"`
	jwt.RegisteredClaims
}

// NewDeviceID returns a fresh random device identifier.
func NewDeviceID() string {
	return uuid.NewString()
}

// GenerateDeviceToken signs deviceID so it can be handed back in a cookie.
func GenerateDeviceToken(secret, deviceID string, ttl time.Duration) (string, error) {
	if deviceID == "" {
		return "", errors.New("empty device id")
	}
	now := time.Now()
	c := DeviceClaims{
		Device: deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    deviceTokenIssuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return t.SignedString([]byte(secret))
}

// ParseDeviceToken verifies tokenStr and returns its claims.
func ParseDeviceToken(secret, tokenStr string) (*DeviceClaims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &DeviceClaims{}, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(deviceTokenIssuer),
	)
	if err != nil {
		return nil, err
	}
	if claims, ok := t.Claims.(*DeviceClaims); ok && t.Valid && claims.Device != "" {
		return claims, nil
	}
	return nil, jwt.ErrTokenInvalidClaims
}
