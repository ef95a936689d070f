package gameserver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/la2login/internal/crypto"
	"github.com/udisondev/la2login/internal/model"
)

var testNames = map[int]string{1: "Bartz", 2: "Sieghardt", 3: "Kain"}

func newTestTable(t *testing.T, store Store, acceptNew bool) *GameServerTable {
	t.Helper()
	return NewGameServerTable(store, testNames, fixedKeyPair(t), acceptNew)
}

// fixedKeyPair генерирует одну пару на тест: генерация RSA медленная.
func fixedKeyPair(t *testing.T) crypto.KeyGenerator {
	t.Helper()
	kp, err := crypto.GenerateRSAKeyPair512()
	require.NoError(t, err)
	return func() (*crypto.RSAKeyPair, error) { return kp, nil }
}

func registration(id int, hexID string, acceptAlt bool) Registration {
	addr, _ := ParseAddress("0.0.0.0/0", "203.0.113.10")
	return Registration{
		DesiredID:           id,
		AcceptAlternativeID: acceptAlt,
		HexID:               []byte(hexID),
		Port:                7777,
		MaxPlayers:          100,
		Addresses:           []Address{addr},
	}
}

func TestGameServerTable_Load(t *testing.T) {
	store := &memStore{records: []model.GameServerRecord{{ID: 2, HexID: []byte{0xAB}}}}
	table := newTestTable(t, store, true)
	require.NoError(t, table.Load(context.Background()))

	info, ok := table.GetByID(2)
	require.True(t, ok)
	assert.Equal(t, []byte{0xAB}, info.HexID())
	assert.False(t, info.IsAuthed())
	assert.Equal(t, StatusDown, info.Status())
}

func TestGameServerTable_LoadError(t *testing.T) {
	table := newTestTable(t, &memStore{err: errors.New("db down")}, true)
	assert.Error(t, table.Load(context.Background()))
}

func TestGameServerTable_AuthorizeNewID(t *testing.T) {
	store := &memStore{}
	table := newTestTable(t, store, true)
	link := newStubLink()

	info, reason := table.Authorize(context.Background(), registration(1, "S1", false), link)
	require.Equal(t, ReasonNone, reason)
	assert.Equal(t, 1, info.ID())
	assert.True(t, info.IsAuthed())
	assert.Equal(t, 7777, info.Port())
	assert.Equal(t, 100, info.MaxPlayers())
	assert.Same(t, link, info.Link().(*stubLink))

	require.Len(t, store.records, 1)
	assert.Equal(t, model.GameServerRecord{ID: 1, HexID: []byte("S1"), Host: "203.0.113.10"}, store.records[0])
}

func TestGameServerTable_AuthorizeKnownHexID(t *testing.T) {
	store := &memStore{records: []model.GameServerRecord{{ID: 1, HexID: []byte("S1")}}}
	table := newTestTable(t, store, false)
	require.NoError(t, table.Load(context.Background()))

	info, reason := table.Authorize(context.Background(), registration(1, "S1", false), newStubLink())
	require.Equal(t, ReasonNone, reason)
	assert.Equal(t, 1, info.ID())
	assert.Len(t, store.records, 1, "known binding is not persisted again")
}

func TestGameServerTable_AuthorizeAlreadyLoggedIn(t *testing.T) {
	table := newTestTable(t, &memStore{}, true)

	_, reason := table.Authorize(context.Background(), registration(1, "S1", false), newStubLink())
	require.Equal(t, ReasonNone, reason)

	info, reason := table.Authorize(context.Background(), registration(1, "S1", false), newStubLink())
	assert.Nil(t, info)
	assert.Equal(t, ReasonAlreadyLoggedIn, reason)
}

func TestGameServerTable_ReconnectAfterDown(t *testing.T) {
	table := newTestTable(t, &memStore{}, true)

	info, reason := table.Authorize(context.Background(), registration(1, "S1", false), newStubLink())
	require.Equal(t, ReasonNone, reason)
	info.SetDown()
	assert.Nil(t, info.Link())
	assert.Equal(t, 0, info.Port())

	again, reason := table.Authorize(context.Background(), registration(1, "S1", false), newStubLink())
	require.Equal(t, ReasonNone, reason)
	assert.Same(t, info, again)
}

func TestGameServerTable_AuthorizeAlternativeID(t *testing.T) {
	table := newTestTable(t, &memStore{}, true)

	_, reason := table.Authorize(context.Background(), registration(1, "S1", false), newStubLink())
	require.Equal(t, ReasonNone, reason)

	info, reason := table.Authorize(context.Background(), registration(1, "S2", true), newStubLink())
	require.Equal(t, ReasonNone, reason)
	assert.Equal(t, 2, info.ID())
}

func TestGameServerTable_AuthorizeWrongHexID(t *testing.T) {
	tests := []struct {
		name      string
		acceptNew bool
		acceptAlt bool
	}{
		{name: "alternative not accepted", acceptNew: true, acceptAlt: false},
		{name: "new servers disabled", acceptNew: false, acceptAlt: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memStore{records: []model.GameServerRecord{{ID: 1, HexID: []byte("S1")}}}
			table := newTestTable(t, store, tt.acceptNew)
			require.NoError(t, table.Load(context.Background()))

			info, reason := table.Authorize(context.Background(), registration(1, "S2", tt.acceptAlt), newStubLink())
			assert.Nil(t, info)
			assert.Equal(t, ReasonWrongHexID, reason)
		})
	}
}

func TestGameServerTable_UnknownIDWithNewServersDisabled(t *testing.T) {
	table := newTestTable(t, &memStore{}, false)

	_, reason := table.Authorize(context.Background(), registration(3, "S3", false), newStubLink())
	assert.Equal(t, ReasonWrongHexID, reason)
}

func TestGameServerTable_NoFreeID(t *testing.T) {
	table := newTestTable(t, &memStore{}, true)
	for id := range 3 {
		_, reason := table.Authorize(context.Background(), registration(id+1, fmt.Sprintf("S%d", id+1), false), newStubLink())
		require.Equal(t, ReasonNone, reason)
	}

	_, reason := table.Authorize(context.Background(), registration(1, "S9", true), newStubLink())
	assert.Equal(t, ReasonNoFreeID, reason)
}

func TestGameServerTable_ConcurrentAllocationIsUnique(t *testing.T) {
	names := make(map[int]string)
	for id := 1; id <= 64; id++ {
		names[id] = fmt.Sprintf("server-%d", id)
	}
	table := NewGameServerTable(&memStore{}, names, fixedKeyPair(t), true)

	const workers = 32
	ids := make(chan int, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Go(func() {
			info, reason := table.Authorize(context.Background(), registration(1, fmt.Sprintf("secret-%d", i), true), newStubLink())
			if reason == ReasonNone {
				ids <- info.ID()
			}
		})
	}
	wg.Wait()
	close(ids)

	seen := make(map[int]bool)
	for id := range ids {
		assert.False(t, seen[id], "id %d assigned twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, workers)
}

func TestGameServerTable_RegisterWithFirstAvailableID(t *testing.T) {
	table := newTestTable(t, &memStore{}, true)

	require.True(t, table.Register(1, NewGameServerInfo(0, []byte("a"))))
	assert.False(t, table.Register(1, NewGameServerInfo(0, []byte("b"))))

	id, ok := table.RegisterWithFirstAvailableID(NewGameServerInfo(0, []byte("c")))
	require.True(t, ok)
	assert.Equal(t, 2, id)

	info, _ := table.GetByID(2)
	assert.Equal(t, 2, info.ID())
	assert.True(t, table.ValidateHexID(2, []byte("c")))
	assert.False(t, table.ValidateHexID(2, []byte("a")))
	assert.False(t, table.ValidateHexID(9, []byte("a")))
}

func TestGameServerTable_FindAccountAndLinks(t *testing.T) {
	table := newTestTable(t, &memStore{}, true)
	alice := newStubLink("alice")
	bob := newStubLink("bob")

	_, reason := table.Authorize(context.Background(), registration(1, "S1", false), alice)
	require.Equal(t, ReasonNone, reason)
	_, reason = table.Authorize(context.Background(), registration(2, "S2", false), bob)
	require.Equal(t, ReasonNone, reason)

	info, ok := table.FindAccount("bob")
	require.True(t, ok)
	assert.Equal(t, 2, info.ID())

	_, ok = table.FindAccount("carol")
	assert.False(t, ok)

	assert.Len(t, table.Links(), 2)
	info.SetDown()
	assert.Len(t, table.Links(), 1)
}

func TestGameServerTable_ListSortedAndNames(t *testing.T) {
	table := newTestTable(t, &memStore{}, true)
	require.True(t, table.Register(3, NewGameServerInfo(0, nil)))
	require.True(t, table.Register(1, NewGameServerInfo(0, nil)))

	list := table.List()
	require.Len(t, list, 2)
	assert.Equal(t, 1, list[0].ID())
	assert.Equal(t, 3, list[1].ID())

	assert.Equal(t, "Kain", table.Name(3))
	assert.Empty(t, table.Name(99))

	table.Remove(3)
	_, ok := table.GetByID(3)
	assert.False(t, ok)
}

func TestGameServerTable_NewKeyPairPerConnection(t *testing.T) {
	table := NewGameServerTable(&memStore{}, testNames, nil, true)

	first, err := table.NewKeyPair()
	require.NoError(t, err)
	second, err := table.NewKeyPair()
	require.NoError(t, err)

	assert.Equal(t, 512, first.PrivateKey.N.BitLen())
	assert.NotZero(t, first.PrivateKey.N.Cmp(second.PrivateKey.N))
}

func TestGameServerTable_NewKeyPairError(t *testing.T) {
	boom := errors.New("no entropy")
	table := NewGameServerTable(&memStore{}, testNames, func() (*crypto.RSAKeyPair, error) {
		return nil, boom
	}, true)

	_, err := table.NewKeyPair()
	assert.ErrorIs(t, err, boom)
}
