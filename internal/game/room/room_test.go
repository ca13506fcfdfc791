package room

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matttsch/imposter/internal/apperrors"
	"github.com/matttsch/imposter/internal/game/words"
	"github.com/matttsch/imposter/internal/protocol"
	"github.com/matttsch/imposter/internal/protocol/codec"
	"github.com/matttsch/imposter/internal/server/storage"
	"github.com/matttsch/imposter/internal/testutil"
)

func newTestRoom(t *testing.T, wordList ...string) *Room {
	t.Helper()
	if len(wordList) == 0 {
		wordList = []string{"苹果", "香蕉", "西瓜", "葡萄", "柠檬"}
	}
	pool, err := words.NewPool(context.Background(), wordList, nil)
	require.NoError(t, err)
	return NewRoom(pool, nil, Options{ReconnectGrace: 2 * time.Minute})
}

func join(t *testing.T, r *Room, name string) *testutil.SimpleClient {
	t.Helper()
	c := &testutil.SimpleClient{ID: "conn-" + name}
	_, err := r.Register(c, name)
	require.NoError(t, err)
	return c
}

func TestRoom_Register(t *testing.T) {
	t.Parallel()
	r := newTestRoom(t)

	c := &testutil.SimpleClient{ID: "conn-1"}
	joined, err := r.Register(c, "alice")
	require.NoError(t, err)

	assert.Equal(t, "alice", joined.Name)
	assert.False(t, joined.Reconnected)
	assert.False(t, joined.Started)
	assert.Equal(t, "alice", c.Name) // bound to the connection
	assert.True(t, r.HasPlayer("alice"))

	roster := r.Roster()
	require.Len(t, roster, 1)
	assert.Equal(t, "alice", roster[0].Name)
	assert.True(t, roster[0].Online)
}

func TestRoom_Register_NameTakenByOnlinePlayer(t *testing.T) {
	t.Parallel()
	r := newTestRoom(t)
	join(t, r, "alice")

	_, err := r.Register(&testutil.SimpleClient{ID: "conn-2"}, "alice")
	assert.ErrorIs(t, err, apperrors.ErrNameTaken)
}

func TestRoom_Register_ReconnectKeepsScoreAndStatus(t *testing.T) {
	t.Parallel()
	r := newTestRoom(t)
	join(t, r, "alice")
	join(t, r, "bob")
	join(t, r, "carol")

	require.NoError(t, r.Start())

	// alice votes, then drops
	_, err := r.CastVote("alice", "bob")
	require.NoError(t, err)
	r.SetOffline("alice")

	roster := r.Roster()
	for _, p := range roster {
		if p.Name == "alice" {
			assert.False(t, p.Online)
			assert.True(t, p.Voted) // vote survives the disconnect
		}
	}

	// Same name on a fresh connection rebinds the seat
	c2 := &testutil.SimpleClient{ID: "conn-new"}
	joined, err := r.Register(c2, "alice")
	require.NoError(t, err)

	assert.True(t, joined.Reconnected)
	assert.True(t, joined.Started)
	assert.Equal(t, "voted", joined.PlayerState)
	assert.NotEmpty(t, joined.Word)
}

func TestRoom_Register_LateJoinerSpectates(t *testing.T) {
	t.Parallel()
	r := newTestRoom(t)
	join(t, r, "alice")
	join(t, r, "bob")
	require.NoError(t, r.Start())

	c := &testutil.SimpleClient{ID: "conn-late"}
	joined, err := r.Register(c, "carol")
	require.NoError(t, err)

	assert.True(t, joined.Started)
	assert.Equal(t, "spectating", joined.PlayerState)
	assert.Empty(t, joined.Word) // word hidden by default policy

	// Spectator has no vote this round
	_, err = r.CastVote("carol", "alice")
	assert.ErrorIs(t, err, apperrors.ErrNotEligible)
}

func TestRoom_Register_LateJoinerSeesWordWhenPolicyAllows(t *testing.T) {
	t.Parallel()
	pool, err := words.NewPool(context.Background(), []string{"苹果"}, nil)
	require.NoError(t, err)
	r := NewRoom(pool, nil, Options{RevealWordToLateJoiners: true})

	_, err = r.Register(&testutil.SimpleClient{ID: "c1"}, "alice")
	require.NoError(t, err)
	_, err = r.Register(&testutil.SimpleClient{ID: "c2"}, "bob")
	require.NoError(t, err)
	require.NoError(t, r.Start())

	joined, err := r.Register(&testutil.SimpleClient{ID: "c3"}, "carol")
	require.NoError(t, err)
	assert.Equal(t, "苹果", joined.Word)
}

func TestRoom_SetOffline_Broadcast(t *testing.T) {
	t.Parallel()
	r := newTestRoom(t)
	join(t, r, "alice")
	bob := join(t, r, "bob")

	r.SetOffline("alice")
	require.True(t, r.HasPlayer("alice")) // seat kept

	msg := bob.LastOfType(protocol.MsgPlayerOffline)
	require.NotNil(t, msg)
	payload, err := codec.ParsePayload[protocol.PlayerOfflinePayload](msg)
	require.NoError(t, err)
	assert.Equal(t, "alice", payload.Name)
	assert.Equal(t, 120, payload.Timeout)
}

func TestRoom_RemoveIfOffline_RemovesOfflineSeat(t *testing.T) {
	t.Parallel()
	r := newTestRoom(t)
	alice := join(t, r, "alice")
	join(t, r, "bob")
	join(t, r, "carol")
	require.NoError(t, r.Start())

	_, err := r.CastVote("alice", "carol")
	require.NoError(t, err)
	_, err = r.CastVote("bob", "carol")
	require.NoError(t, err)

	// carol drops without voting; her seat expiring completes the round
	r.SetOffline("carol")
	outcome := r.RemoveIfOffline("carol")
	require.NotNil(t, outcome)
	assert.False(t, r.HasPlayer("carol"))
	assert.NotNil(t, alice.LastOfType(protocol.MsgResult))
}

func TestRoom_RemoveIfOffline_KeepsReconnectedPlayer(t *testing.T) {
	t.Parallel()
	r := newTestRoom(t)
	join(t, r, "alice")
	join(t, r, "bob")

	r.SetOffline("alice")

	// alice rejoins before the expiry callback fires
	joined, err := r.Register(&testutil.SimpleClient{ID: "conn-new"}, "alice")
	require.NoError(t, err)
	require.True(t, joined.Reconnected)

	outcome := r.RemoveIfOffline("alice")
	assert.Nil(t, outcome)
	assert.True(t, r.HasPlayer("alice")) // seat untouched

	roster := r.Roster()
	require.Len(t, roster, 2)
	assert.True(t, roster[0].Online)
}

func newSnapshotRoom(t *testing.T) (*Room, *storage.RedisStore) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := storage.NewRedisStore(client)

	pool, err := words.NewPool(context.Background(), []string{"苹果", "香蕉"}, store)
	require.NoError(t, err)
	return NewRoom(pool, store, Options{ReconnectGrace: 2 * time.Minute}), store
}

func waitForOnlineFlag(t *testing.T, store *storage.RedisStore, name string, online bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		data, err := store.LoadRoom(context.Background())
		if err != nil || data == nil {
			return false
		}
		for _, p := range data.Players {
			if p.Name == name {
				return p.Online == online
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
}

func TestRoom_SnapshotTracksOnlineFlag(t *testing.T) {
	t.Parallel()
	r, store := newSnapshotRoom(t)
	join(t, r, "alice")
	join(t, r, "bob")

	r.SetOffline("alice")
	waitForOnlineFlag(t, store, "alice", false)

	// Reconnect refreshes the stored snapshot, not just the live roster
	_, err := r.Register(&testutil.SimpleClient{ID: "conn-new"}, "alice")
	require.NoError(t, err)
	waitForOnlineFlag(t, store, "alice", true)
}

func TestRoom_Remove_ClearsBallotAndCompletesRound(t *testing.T) {
	t.Parallel()
	r := newTestRoom(t)
	alice := join(t, r, "alice")
	join(t, r, "bob")
	join(t, r, "carol")
	require.NoError(t, r.Start())

	_, err := r.CastVote("alice", "bob")
	require.NoError(t, err)
	_, err = r.CastVote("bob", "alice")
	require.NoError(t, err)

	// carol never voted; removing her leaves 2 ballots for 2 eligible voters
	outcome := r.Remove("carol")
	require.NotNil(t, outcome)
	assert.NotNil(t, alice.LastOfType(protocol.MsgResult))
}

func TestRoom_Remove_LastPlayerResetsRoom(t *testing.T) {
	t.Parallel()
	r := newTestRoom(t)
	join(t, r, "alice")
	join(t, r, "bob")
	require.NoError(t, r.Start())
	remainingAfterStart := r.pool.Remaining()

	r.Remove("alice")
	r.Remove("bob")

	assert.False(t, r.Started())
	assert.Empty(t, r.Roster())
	// Word rotation survives an empty-room reset
	assert.Equal(t, remainingAfterStart, r.pool.Remaining())
}

func TestRoom_Kick(t *testing.T) {
	t.Parallel()
	r := newTestRoom(t)
	join(t, r, "alice")
	bob := join(t, r, "bob")
	join(t, r, "carol")

	_, err := r.Kick("alice", "bob")
	require.NoError(t, err)

	assert.False(t, r.HasPlayer("bob"))

	msg := bob.LastOfType(protocol.MsgKicked)
	require.NotNil(t, msg)
	payload, err := codec.ParsePayload[protocol.KickedPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, "alice", payload.By)
}

func TestRoom_Kick_UnknownTarget(t *testing.T) {
	t.Parallel()
	r := newTestRoom(t)
	join(t, r, "alice")

	_, err := r.Kick("alice", "nobody")
	assert.ErrorIs(t, err, apperrors.ErrUnknownTarget)
}
