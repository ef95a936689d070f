package login

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBanList_Wildcards(t *testing.T) {
	tests := []struct {
		name   string
		banned string
		lookup string
		want   bool
	}{
		{"exact", "10.1.2.3", "10.1.2.3", true},
		{"class C", "10.1.2.0", "10.1.2.3", true},
		{"class B", "10.1.0.0", "10.1.2.3", true},
		{"class A", "10.0.0.0", "10.1.2.3", true},
		{"other host", "10.1.2.4", "10.1.2.3", false},
		{"other network", "11.0.0.0", "10.1.2.3", false},
		{"mapped v6", "10.1.2.3", "::ffff:10.1.2.3", true},
		{"not an address", "garbage", "garbage", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBanList(time.Minute)
			require.True(t, b.Add(tt.banned, time.Time{}))
			assert.Equal(t, tt.want, b.Contains(tt.lookup))
		})
	}
}

func TestBanList_Expiry(t *testing.T) {
	b := NewBanList(10 * time.Millisecond)

	require.True(t, b.Add("10.0.0.5", time.Now().Add(50*time.Millisecond)))
	assert.True(t, b.Contains("10.0.0.5"))

	assert.Eventually(t, func() bool { return !b.Contains("10.0.0.5") }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return b.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestBanList_ExpiredWithoutSweep(t *testing.T) {
	// janitor не успеет отработать за время теста
	b := NewBanList(time.Hour)

	require.True(t, b.Add("10.0.0.5", time.Now().Add(20*time.Millisecond)))
	require.True(t, b.Add("10.0.0.6", time.Now().Add(20*time.Millisecond)))
	require.True(t, b.Add("10.0.0.7", time.Time{}))
	assert.Equal(t, 3, b.Len())

	time.Sleep(40 * time.Millisecond)

	assert.False(t, b.Contains("10.0.0.5"))
	assert.Equal(t, 2, b.entries.ItemCount(), "lookup drops the expired entry it hit")

	assert.Equal(t, 1, b.Len())
	assert.True(t, b.Contains("10.0.0.7"))
	assert.True(t, b.Add("10.0.0.5", time.Time{}), "expired entry does not block a new ban")
}

func TestBanList_PastExpiryIgnored(t *testing.T) {
	b := NewBanList(time.Minute)
	assert.False(t, b.Add("10.0.0.5", time.Now().Add(-time.Second)))
	assert.False(t, b.Contains("10.0.0.5"))
}

func TestBanList_AddKeepsExisting(t *testing.T) {
	b := NewBanList(time.Minute)
	require.True(t, b.Add("10.0.0.5", time.Time{}))
	assert.False(t, b.Add("10.0.0.5", time.Now().Add(time.Second)))

	list := b.List()
	require.Len(t, list, 1)
	assert.True(t, list[0].Expires.IsZero())
}

func TestBanList_Remove(t *testing.T) {
	b := NewBanList(time.Minute)
	b.Add("10.0.0.0", time.Time{})

	assert.True(t, b.Remove("10.0.0.0"))
	assert.False(t, b.Contains("10.9.9.9"))
	assert.False(t, b.Remove("10.0.0.0"))
}
