package room

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matttsch/imposter/internal/apperrors"
	"github.com/matttsch/imposter/internal/protocol"
	"github.com/matttsch/imposter/internal/protocol/codec"
	"github.com/matttsch/imposter/internal/testutil"
)

// forceImposter pins the imposter so scoring assertions are deterministic
func forceImposter(r *Room, name string) {
	r.mu.Lock()
	r.imposter = name
	r.mu.Unlock()
}

func TestVote_RequiresStartedGame(t *testing.T) {
	t.Parallel()
	r := newTestRoom(t)
	join(t, r, "alice")
	join(t, r, "bob")

	_, err := r.CastVote("alice", "bob")
	assert.ErrorIs(t, err, apperrors.ErrGameNotStart)
}

func TestVote_SecondVoteRejectedNotOverwritten(t *testing.T) {
	t.Parallel()
	r := newTestRoom(t)
	join(t, r, "alice")
	join(t, r, "bob")
	join(t, r, "carol")
	require.NoError(t, r.Start())

	_, err := r.CastVote("alice", "bob")
	require.NoError(t, err)

	_, err = r.CastVote("alice", "carol")
	assert.ErrorIs(t, err, apperrors.ErrAlreadyVoted)

	// The original ballot stands
	r.mu.RLock()
	assert.Equal(t, "bob", r.ballot["alice"])
	r.mu.RUnlock()
}

func TestVote_UnknownVoterAndTarget(t *testing.T) {
	t.Parallel()
	r := newTestRoom(t)
	join(t, r, "alice")
	join(t, r, "bob")
	require.NoError(t, r.Start())

	_, err := r.CastVote("nobody", "alice")
	assert.ErrorIs(t, err, apperrors.ErrNotEligible)

	_, err = r.CastVote("alice", "nobody")
	assert.ErrorIs(t, err, apperrors.ErrUnknownTarget)
}

func TestVote_SelfVoteAllowed(t *testing.T) {
	t.Parallel()
	r := newTestRoom(t)
	join(t, r, "alice")
	join(t, r, "bob")
	require.NoError(t, r.Start())

	_, err := r.CastVote("alice", "alice")
	assert.NoError(t, err)
}

func TestVote_ResolvesWhenAllBallotsIn(t *testing.T) {
	t.Parallel()
	r := newTestRoom(t)
	alice := join(t, r, "alice")
	join(t, r, "bob")
	join(t, r, "carol")
	require.NoError(t, r.Start())
	forceImposter(r, "bob")

	outcome, err := r.CastVote("alice", "bob")
	require.NoError(t, err)
	assert.Nil(t, outcome) // 1/3

	outcome, err = r.CastVote("bob", "alice")
	require.NoError(t, err)
	assert.Nil(t, outcome) // 2/3

	outcome, err = r.CastVote("carol", "bob")
	require.NoError(t, err)
	require.NotNil(t, outcome) // 3/3 resolves

	assert.Equal(t, "bob", outcome.Imposter)
	assert.True(t, outcome.Caught)
	assert.Equal(t, protocol.VotedOutNames{"bob"}, outcome.Result.VotedOut)
	assert.Equal(t, map[string]string{"alice": "bob", "bob": "alice", "carol": "bob"}, outcome.Ballot)

	// Everyone was told the result and the updated scores
	msg := alice.LastOfType(protocol.MsgResult)
	require.NotNil(t, msg)
	result, err := codec.ParsePayload[protocol.ResultPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, "bob", result.ImposterName)
	assert.Len(t, result.VoteHistory, 3)
	assert.NotNil(t, alice.LastOfType(protocol.MsgScores))
}

func TestVote_ImposterCaught_AccusersScore(t *testing.T) {
	t.Parallel()
	r := newTestRoom(t)
	join(t, r, "alice")
	join(t, r, "bob")
	join(t, r, "carol")
	require.NoError(t, r.Start())
	forceImposter(r, "bob")

	_, err := r.CastVote("alice", "bob")
	require.NoError(t, err)
	_, err = r.CastVote("carol", "bob")
	require.NoError(t, err)
	outcome, err := r.CastVote("bob", "alice")
	require.NoError(t, err)
	require.NotNil(t, outcome)

	// alice and carol hit the imposter, bob gets nothing
	assert.Equal(t, map[string]int{"alice": 1, "bob": 0, "carol": 1}, r.Scores())
}

func TestVote_ImposterEscapes_ImposterScores(t *testing.T) {
	t.Parallel()
	r := newTestRoom(t)
	join(t, r, "alice")
	join(t, r, "bob")
	join(t, r, "carol")
	join(t, r, "dave")
	require.NoError(t, r.Start())
	forceImposter(r, "bob")

	// {alice: 3, bob: 1}: bob survives with the minority vote
	_, err := r.CastVote("bob", "alice")
	require.NoError(t, err)
	_, err = r.CastVote("carol", "alice")
	require.NoError(t, err)
	_, err = r.CastVote("dave", "alice")
	require.NoError(t, err)
	outcome, err := r.CastVote("alice", "bob")
	require.NoError(t, err)
	require.NotNil(t, outcome)

	assert.False(t, outcome.Caught)
	assert.Equal(t, protocol.VotedOutNames{"alice"}, outcome.Result.VotedOut)
	assert.Equal(t, map[string]int{"alice": 0, "bob": 1, "carol": 0, "dave": 0}, r.Scores())
}

func TestVote_TieVotesOutAllLeaders(t *testing.T) {
	t.Parallel()
	r := newTestRoom(t)
	join(t, r, "alice")
	join(t, r, "bob")
	join(t, r, "carol")
	join(t, r, "dave")
	join(t, r, "erin")
	require.NoError(t, r.Start())
	forceImposter(r, "alice")

	// Tally {alice: 2, bob: 2, carol: 1}: both leaders are voted out
	_, err := r.CastVote("bob", "alice")
	require.NoError(t, err)
	_, err = r.CastVote("carol", "alice")
	require.NoError(t, err)
	_, err = r.CastVote("dave", "bob")
	require.NoError(t, err)
	_, err = r.CastVote("erin", "bob")
	require.NoError(t, err)
	outcome, err := r.CastVote("alice", "carol")
	require.NoError(t, err)
	require.NotNil(t, outcome)

	assert.Equal(t, protocol.VotedOutNames{"alice", "bob"}, outcome.Result.VotedOut)
	assert.True(t, outcome.Caught) // imposter among the voted out
	// bob and carol targeted the imposter
	assert.Equal(t, map[string]int{"alice": 0, "bob": 1, "carol": 1, "dave": 0, "erin": 0}, r.Scores())
}

func TestVote_NoVotesAfterResolve(t *testing.T) {
	t.Parallel()
	r := newTestRoom(t)
	join(t, r, "alice")
	join(t, r, "bob")
	require.NoError(t, r.Start())

	_, err := r.CastVote("alice", "bob")
	require.NoError(t, err)
	outcome, err := r.CastVote("bob", "alice")
	require.NoError(t, err)
	require.NotNil(t, outcome)

	// Round is settled, further ballots are refused
	_, err = r.CastVote("alice", "bob")
	assert.ErrorIs(t, err, apperrors.ErrNotEligible)
}

func TestVote_OfflineVoterStillCounted(t *testing.T) {
	t.Parallel()
	r := newTestRoom(t)
	join(t, r, "alice")
	join(t, r, "bob")
	join(t, r, "carol")
	require.NoError(t, r.Start())

	_, err := r.CastVote("alice", "bob")
	require.NoError(t, err)
	r.SetOffline("alice")

	_, err = r.CastVote("bob", "carol")
	require.NoError(t, err)
	outcome, err := r.CastVote("carol", "bob")
	require.NoError(t, err)

	// alice's ballot survived her disconnect, so 3/3 resolves
	require.NotNil(t, outcome)
	assert.Len(t, outcome.Ballot, 3)
}

func TestVote_SpectatorNotBlockingResolve(t *testing.T) {
	t.Parallel()
	r := newTestRoom(t)
	join(t, r, "alice")
	join(t, r, "bob")
	require.NoError(t, r.Start())

	// carol joins mid-round, spectating
	carol := &testutil.SimpleClient{ID: "c3"}
	_, err := r.Register(carol, "carol")
	require.NoError(t, err)

	_, err = r.CastVote("alice", "bob")
	require.NoError(t, err)
	outcome, err := r.CastVote("bob", "alice")
	require.NoError(t, err)

	// Only the two eligible voters were needed
	require.NotNil(t, outcome)
}
