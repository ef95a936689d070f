package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/la2login/internal/constants"
)

func TestRSAKeyPool(t *testing.T) {
	calls := 0
	pool, err := NewRSAKeyPool(3, func() (*RSAKeyPair, error) {
		calls++
		return GenerateRSAKeyPair512()
	})
	require.NoError(t, err)

	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, pool.Len())

	seen := map[*RSAKeyPair]bool{}
	for range 200 {
		seen[pool.Random()] = true
	}
	assert.Len(t, seen, 3, "every pair is eventually handed out")
}

// Пул RSA-512 строится так же, как при старте процесса: без rsa1024min=0
// генерация ключей меньше 1024 бит завершается ошибкой.
func TestRSAKeyPool_GameServerKeysBoot(t *testing.T) {
	pool, err := NewRSAKeyPool(constants.RSAKeyPairPoolSize, GenerateRSAKeyPair512)
	require.NoError(t, err)
	require.Equal(t, constants.RSAKeyPairPoolSize, pool.Len())

	kp := pool.Random()
	assert.Equal(t, constants.RSA512KeyBits, kp.PrivateKey.N.BitLen())
	assert.Len(t, kp.ScrambledModulus, constants.RSA512ModulusSize)
}

func TestRSAKeyPool_InvalidCount(t *testing.T) {
	_, err := NewRSAKeyPool(0, GenerateRSAKeyPair512)
	assert.Error(t, err)
}

func TestBlowfishKeyPool(t *testing.T) {
	pool, err := NewBlowfishKeyPool(constants.BlowfishKeyPoolSize, constants.BlowfishKeySize)
	require.NoError(t, err)
	assert.Equal(t, constants.BlowfishKeyPoolSize, pool.Len())

	for range 50 {
		key := pool.Random()
		require.Len(t, key, constants.BlowfishKeySize)
		assert.NotContains(t, key, byte(0))
	}
}

func TestGenerateBlowfishKey_NoZeroBytes(t *testing.T) {
	for range 100 {
		key, err := GenerateBlowfishKey(constants.BlowfishKeySize)
		require.NoError(t, err)
		assert.NotContains(t, key, byte(0))
	}
}
