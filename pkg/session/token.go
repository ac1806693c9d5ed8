package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// expiresWithin reports whether the access token's exp claim falls inside the
// given leeway. The token is parsed without signature verification: the
// client never validates tokens, it only schedules refreshes ahead of the
// server rejecting them. Tokens without a readable exp claim report false and
// rely on the 401 path instead.
func expiresWithin(token string, leeway time.Duration) bool {
	if leeway <= 0 {
		return false
	}

	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}

	return time.Until(exp.Time) < leeway
}
