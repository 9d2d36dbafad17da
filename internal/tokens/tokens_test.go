package tokens

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func TestAccessRoundTrip(t *testing.T) {
	signed, exp, err := SignAccess(42, "alice", "alice@example.com", "organizer", testSecret, time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, signed)
	require.WithinDuration(t, time.Now().Add(time.Minute), exp, 5*time.Second)

	claims, err := ParseAccess(signed, testSecret)
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Username)
	require.Equal(t, "alice@example.com", claims.Email)
	require.Equal(t, "organizer", claims.Role)

	id, err := claims.UserID()
	require.NoError(t, err)
	require.Equal(t, uint(42), id)
}

func TestAccessWrongSecret(t *testing.T) {
	signed, _, err := SignAccess(1, "bob", "bob@example.com", "user", testSecret, time.Minute)
	require.NoError(t, err)

	_, err = ParseAccess(signed, []byte("other-secret"))
	require.Error(t, err)
}

func TestAccessExpired(t *testing.T) {
	signed, _, err := SignAccess(1, "bob", "bob@example.com", "user", testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = ParseAccess(signed, testSecret)
	require.Error(t, err)
	require.True(t, errors.Is(err, jwt.ErrTokenExpired))
}

func TestRefreshCarriesOnlySubjectAndJTI(t *testing.T) {
	signed, jti, exp, err := SignRefresh(7, testSecret, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, jti)
	require.True(t, exp.After(time.Now()))

	claims, err := ParseRefresh(signed, testSecret)
	require.NoError(t, err)
	require.Equal(t, jti, claims.ID)

	id, err := claims.UserID()
	require.NoError(t, err)
	require.Equal(t, uint(7), id)
}

func TestRefreshJTIsAreUnique(t *testing.T) {
	_, jti1, _, err := SignRefresh(7, testSecret, time.Hour)
	require.NoError(t, err)
	_, jti2, _, err := SignRefresh(7, testSecret, time.Hour)
	require.NoError(t, err)
	require.NotEqual(t, jti1, jti2)
}

func TestRejectsUnexpectedSigningMethod(t *testing.T) {
	tkn := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "1"})
	signed, err := tkn.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ParseAccess(signed, testSecret)
	require.Error(t, err)
	_, err = ParseRefresh(signed, testSecret)
	require.Error(t, err)
}
