package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStagedFileExpiry(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)
	f := StagedFile{CreatedAt: created, Retention: 5 * time.Minute}

	require.Equal(t, created.Add(5*time.Minute), f.ExpiresAt())

	// exactly at expiry counts as expired
	require.False(t, f.Expired(f.ExpiresAt().Add(-time.Second)))
	require.True(t, f.Expired(f.ExpiresAt()))
	require.True(t, f.Expired(f.ExpiresAt().Add(time.Second)))
}
