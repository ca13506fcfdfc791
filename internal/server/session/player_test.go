package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionManager_Track(t *testing.T) {
	t.Parallel()
	sm := NewSessionManager(time.Minute, nil)

	session := sm.Track("alice")
	assert.NotNil(t, session)
	assert.Equal(t, "alice", session.Name)
	assert.True(t, session.IsOnline)

	// Tracking the same name returns the existing session
	again := sm.Track("alice")
	assert.Same(t, session, again)

	// Delete
	sm.Delete("alice")
	assert.Nil(t, sm.GetSession("alice"))
}

func TestSessionManager_OnlineStatus(t *testing.T) {
	t.Parallel()
	sm := NewSessionManager(time.Minute, nil)
	session := sm.Track("alice")

	// Initial state: online
	assert.True(t, session.IsOnline)
	assert.True(t, session.DisconnectedAt.IsZero())

	// Set Offline
	sm.SetOffline("alice")
	assert.False(t, sm.IsOnline("alice"))
	assert.False(t, sm.GetSession("alice").DisconnectedAt.IsZero())

	// Tracking again marks the session online
	sm.Track("alice")
	assert.True(t, sm.IsOnline("alice"))
	assert.True(t, sm.GetSession("alice").DisconnectedAt.IsZero())
}

func TestSessionManager_IsOnline_Unknown(t *testing.T) {
	t.Parallel()
	sm := NewSessionManager(time.Minute, nil)
	assert.False(t, sm.IsOnline("nobody"))
}

func TestSessionManager_Cleanup_ExpiresOfflineSessions(t *testing.T) {
	t.Parallel()

	var expired []string
	sm := NewSessionManager(50*time.Millisecond, func(name string) {
		expired = append(expired, name)
	})

	sm.Track("alice")
	sm.Track("bob")
	sm.SetOffline("alice")

	// Not yet past the grace period
	sm.cleanup()
	assert.NotNil(t, sm.GetSession("alice"))
	assert.Empty(t, expired)

	time.Sleep(60 * time.Millisecond)
	sm.cleanup()

	// alice expired, bob (online) untouched
	assert.Nil(t, sm.GetSession("alice"))
	assert.NotNil(t, sm.GetSession("bob"))
	assert.Equal(t, []string{"alice"}, expired)
}

func TestSessionManager_Cleanup_OnlineSessionsSurvive(t *testing.T) {
	t.Parallel()

	sm := NewSessionManager(time.Nanosecond, nil)
	sm.Track("alice")

	time.Sleep(time.Millisecond)
	sm.cleanup()

	assert.NotNil(t, sm.GetSession("alice"))
}

func TestSessionManager_Clear(t *testing.T) {
	t.Parallel()

	sm := NewSessionManager(time.Minute, nil)
	sm.Track("alice")
	sm.Track("bob")

	sm.Clear()
	assert.Nil(t, sm.GetSession("alice"))
	assert.Nil(t, sm.GetSession("bob"))
}
