package tokens

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer() *Issuer {
	return &Issuer{
		Secret:     []byte("test-jwt-secret"),
		AccessTTL:  time.Hour,
		RefreshTTL: 7 * 24 * time.Hour,
	}
}

func TestIssuer_IssuePair_RefreshRoundTrip(t *testing.T) {
	t.Parallel()

	iss := newTestIssuer()
	userID := uuid.NewString()

	pair, err := iss.IssuePair(userID, "ADMIN")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	claims, err := iss.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "ADMIN", claims.Role)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, pair.RefreshExp, claims.ExpiresAt.Time, time.Second)
}

func TestIssuer_IssuePair_AccessRoundTrip(t *testing.T) {
	t.Parallel()

	iss := newTestIssuer()
	userID := uuid.NewString()

	pair, err := iss.IssuePair(userID, "USER")
	require.NoError(t, err)

	claims, err := iss.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "USER", claims.Role)
	assert.WithinDuration(t, pair.AccessExp, claims.ExpiresAt.Time, time.Second)
}

func TestIssuer_Verify_RejectsWrongType(t *testing.T) {
	t.Parallel()

	iss := newTestIssuer()
	pair, err := iss.IssuePair(uuid.NewString(), "USER")
	require.NoError(t, err)

	_, err = iss.VerifyRefresh(pair.AccessToken)
	require.Error(t, err)

	_, err = iss.VerifyAccess(pair.RefreshToken)
	require.Error(t, err)
}

func TestIssuer_VerifyRefresh_Expired(t *testing.T) {
	t.Parallel()

	iss := &Issuer{
		Secret:     []byte("test-jwt-secret"),
		AccessTTL:  -time.Minute,
		RefreshTTL: -time.Minute,
	}
	pair, err := iss.IssuePair(uuid.NewString(), "USER")
	require.NoError(t, err)

	claims, err := iss.VerifyRefresh(pair.RefreshToken)
	require.Error(t, err)
	assert.Nil(t, claims)
}

func TestIssuer_VerifyRefresh_WrongSecret(t *testing.T) {
	t.Parallel()

	pair, err := newTestIssuer().IssuePair(uuid.NewString(), "USER")
	require.NoError(t, err)

	other := &Issuer{Secret: []byte("other-secret"), AccessTTL: time.Hour, RefreshTTL: time.Hour}
	_, err = other.VerifyRefresh(pair.RefreshToken)
	require.Error(t, err)
}

func TestIssuer_VerifyRefresh_Garbage(t *testing.T) {
	t.Parallel()

	_, err := newTestIssuer().VerifyRefresh("not-a-valid-jwt")
	require.Error(t, err)
}

// An old refresh token stays valid until its own expiry even after a newer
// pair is issued; there is nothing server-side to revoke it against.
func TestIssuer_OldRefreshStillValidAfterReissue(t *testing.T) {
	t.Parallel()

	iss := newTestIssuer()
	userID := uuid.NewString()

	first, err := iss.IssuePair(userID, "USER")
	require.NoError(t, err)
	_, err = iss.IssuePair(userID, "USER")
	require.NoError(t, err)

	claims, err := iss.VerifyRefresh(first.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
}
