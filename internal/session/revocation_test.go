package session

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursecatalyst/identity/internal/testutil"
)

func Test_RevocationLedger(t *testing.T) {
	t.Parallel()

	rd := testutil.StartRedisContainer(t)
	t.Cleanup(rd.Terminate)

	t.Run("no marker means not revoked", func(t *testing.T) {
		ledger := NewRevocationLedger(rd.Client)

		revoked, err := ledger.IsRevoked(t.Context(), uuid.New(), time.Now())
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("tokens issued before the marker are revoked", func(t *testing.T) {
		ledger := NewRevocationLedger(rd.Client)
		userID := uuid.New()

		// Pin the clock so the marker lands on a known second
		markedAt := time.Now().Truncate(time.Second)
		ledger.now = func() time.Time { return markedAt }

		require.NoError(t, ledger.MarkRevokedNow(t.Context(), userID, time.Minute))

		revoked, err := ledger.IsRevoked(t.Context(), userID, markedAt.Add(-2*time.Second))
		require.NoError(t, err)
		assert.True(t, revoked, "token issued before the mass logout must be revoked")
	})

	t.Run("tokens issued in the marker second stay valid", func(t *testing.T) {
		ledger := NewRevocationLedger(rd.Client)
		userID := uuid.New()

		markedAt := time.Now().Truncate(time.Second)
		ledger.now = func() time.Time { return markedAt }

		require.NoError(t, ledger.MarkRevokedNow(t.Context(), userID, time.Minute))

		revoked, err := ledger.IsRevoked(t.Context(), userID, markedAt)
		require.NoError(t, err)
		assert.False(t, revoked, "same-second issuance is on the valid side of the marker")
	})

	t.Run("tokens issued after the marker are valid", func(t *testing.T) {
		ledger := NewRevocationLedger(rd.Client)
		userID := uuid.New()

		markedAt := time.Now().Truncate(time.Second)
		ledger.now = func() time.Time { return markedAt }

		require.NoError(t, ledger.MarkRevokedNow(t.Context(), userID, time.Minute))

		revoked, err := ledger.IsRevoked(t.Context(), userID, markedAt.Add(2*time.Second))
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("marker expires with ttl", func(t *testing.T) {
		ledger := NewRevocationLedger(rd.Client)
		userID := uuid.New()

		require.NoError(t, ledger.MarkRevokedNow(t.Context(), userID, 100*time.Millisecond))

		time.Sleep(200 * time.Millisecond)

		revoked, err := ledger.IsRevoked(t.Context(), userID, time.Now().Add(-time.Hour))
		require.NoError(t, err)
		assert.False(t, revoked, "expired marker must not revoke anything")
	})

	t.Run("newer mark replaces older", func(t *testing.T) {
		ledger := NewRevocationLedger(rd.Client)
		userID := uuid.New()

		first := time.Now().Truncate(time.Second).Add(-time.Minute)
		ledger.now = func() time.Time { return first }
		require.NoError(t, ledger.MarkRevokedNow(t.Context(), userID, time.Minute))

		second := first.Add(30 * time.Second)
		ledger.now = func() time.Time { return second }
		require.NoError(t, ledger.MarkRevokedNow(t.Context(), userID, time.Minute))

		// Issued between the two marks: revoked by the second one
		revoked, err := ledger.IsRevoked(t.Context(), userID, first.Add(10*time.Second))
		require.NoError(t, err)
		assert.True(t, revoked)
	})
}
