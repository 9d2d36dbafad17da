package tokens

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"
)

// RefreshCookiePath scopes the refresh cookie to the one endpoint allowed to
// read it.
const RefreshCookiePath = "/auth/refresh"

func RefreshCookie(value string, exp time.Time, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     "refreshToken",
		Value:    value,
		Path:     RefreshCookiePath,
		Expires:  exp,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func DeleteRefreshCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     "refreshToken",
		Value:    "",
		Path:     RefreshCookiePath,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// Sha256Hex is how refresh tokens are stored: the raw token never hits the
// database.
func Sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
