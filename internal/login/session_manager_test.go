package login

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionManager_Claim(t *testing.T) {
	sm := NewSessionManager()
	c1 := newTestClient(t, "10.0.0.1")
	c2 := newTestClient(t, "10.0.0.2")

	require.True(t, sm.Claim("alice", c1))
	assert.False(t, sm.Claim("alice", c2))

	got, ok := sm.Get("alice")
	require.True(t, ok)
	assert.Same(t, c1, got)

	assert.False(t, sm.RemoveIf("alice", c2))
	assert.True(t, sm.RemoveIf("alice", c1))
	assert.Zero(t, sm.Count())

	require.True(t, sm.Claim("alice", c2))
	sm.Remove("alice")
	_, ok = sm.Get("alice")
	assert.False(t, ok)
}

func TestSessionManager_ConcurrentClaim(t *testing.T) {
	sm := NewSessionManager()
	clients := make([]*Client, 32)
	for i := range clients {
		clients[i] = newTestClient(t, "10.0.0.1")
	}

	var wins atomic.Int32
	var wg sync.WaitGroup
	for _, c := range clients {
		wg.Go(func() {
			if sm.Claim("alice", c) {
				wins.Add(1)
			}
		})
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, 1, sm.Count())
}

func TestSessionKey_Matches(t *testing.T) {
	sk := SessionKey{LoginOkID1: 1, LoginOkID2: 2, PlayOkID1: 3, PlayOkID2: 4}

	assert.True(t, sk.Matches(sk, true))
	assert.False(t, sk.Matches(SessionKey{PlayOkID1: 3, PlayOkID2: 4}, true))
	assert.True(t, sk.Matches(SessionKey{PlayOkID1: 3, PlayOkID2: 4}, false))
	assert.False(t, sk.Matches(SessionKey{PlayOkID1: 3, PlayOkID2: 5}, false))
	assert.True(t, sk.CheckLoginPair(1, 2))
	assert.False(t, sk.CheckLoginPair(2, 1))
}
