package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStatsManager(t *testing.T) (*StatsManager, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return NewStatsManager(client), mr
}

func TestStats_RecordRound_ImposterCaught(t *testing.T) {
	t.Parallel()

	sm, mr := newTestStatsManager(t)
	defer mr.Close()
	ctx := context.Background()

	// bob is the imposter and gets voted out; alice and carol both hit him
	err := sm.RecordRound(ctx, "bob", true,
		[]string{"alice", "carol"},
		[]string{"alice", "bob", "carol"})
	require.NoError(t, err)

	alice, err := sm.GetPlayerStats(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, alice)
	assert.Equal(t, 1, alice.RoundsPlayed)
	assert.Equal(t, 1, alice.CorrectAccusations)
	assert.Equal(t, 0, alice.ImposterRounds)
	assert.NotZero(t, alice.CreatedAt)

	bob, err := sm.GetPlayerStats(ctx, "bob")
	require.NoError(t, err)
	require.NotNil(t, bob)
	assert.Equal(t, 1, bob.RoundsPlayed)
	assert.Equal(t, 1, bob.ImposterRounds)
	assert.Equal(t, 0, bob.Escapes)
}

func TestStats_RecordRound_ImposterEscapes(t *testing.T) {
	t.Parallel()

	sm, mr := newTestStatsManager(t)
	defer mr.Close()
	ctx := context.Background()

	err := sm.RecordRound(ctx, "bob", false, nil,
		[]string{"alice", "bob", "carol"})
	require.NoError(t, err)

	bob, err := sm.GetPlayerStats(ctx, "bob")
	require.NoError(t, err)
	require.NotNil(t, bob)
	assert.Equal(t, 1, bob.ImposterRounds)
	assert.Equal(t, 1, bob.Escapes)
}

func TestStats_RecordRound_Accumulates(t *testing.T) {
	t.Parallel()

	sm, mr := newTestStatsManager(t)
	defer mr.Close()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := sm.RecordRound(ctx, "bob", false, nil, []string{"alice", "bob"})
		require.NoError(t, err)
	}

	alice, err := sm.GetPlayerStats(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, alice)
	assert.Equal(t, 3, alice.RoundsPlayed)

	bob, err := sm.GetPlayerStats(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 3, bob.Escapes)
}

func TestStats_GetPlayerStats_NotFound(t *testing.T) {
	t.Parallel()

	sm, mr := newTestStatsManager(t)
	defer mr.Close()

	stats, err := sm.GetPlayerStats(context.Background(), "nobody")
	assert.NoError(t, err)
	assert.Nil(t, stats)
}
