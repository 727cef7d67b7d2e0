package integration

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/valter-silva-au/planwise/pkg/models"
)

// TokenExpiry reads the exp claim of a bearer token without verifying its
// signature; the client has no key and the backend verifies anyway. ok is
// false when the token is not a JWT or carries no exp claim.
func TokenExpiry(token string) (exp time.Time, ok bool) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	date, err := parsed.Claims.GetExpirationTime()
	if err != nil || date == nil {
		return time.Time{}, false
	}
	return date.Time, true
}

// TokenSubject returns the sub claim of a JWT, or "" when absent.
func TokenSubject(token string) string {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return ""
	}
	sub, err := parsed.Claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}

// CheckTokenExpiry rejects a token whose exp claim is not after now.
// Tokens without a readable expiry are passed through to the backend.
func CheckTokenExpiry(token string, now time.Time) error {
	exp, ok := TokenExpiry(token)
	if !ok {
		return nil
	}
	if !now.Before(exp) {
		return &APIError{
			Kind:    models.KindUnauthorized,
			Message: fmt.Sprintf("session expired at %s, run 'pw auth login'", exp.UTC().Format(time.RFC3339)),
		}
	}
	return nil
}
