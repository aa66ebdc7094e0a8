package config

import (
	"time"
)

const defaultJWTSecret = "flying-bus-dev-secret-change-me"

var JWTSecret = []byte(defaultJWTSecret)
var JWTExpiration = 24 * time.Hour

// SetJWT replaces the signing settings; an empty secret keeps the current one.
func SetJWT(secret string, expiration time.Duration) {
	if secret != "" {
		JWTSecret = []byte(secret)
	}
	if expiration > 0 {
		JWTExpiration = expiration
	}
}
