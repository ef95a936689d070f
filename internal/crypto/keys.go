package crypto

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	mathrand "math/rand/v2"
	"time"
)

// KeyGenerator produces one RSA key pair.
type KeyGenerator func() (*RSAKeyPair, error)

// RSAKeyPool is a fixed set of RSA pairs generated at startup.
// Key generation is too slow to run per connection, so connections share pairs.
type RSAKeyPool struct {
	pairs []*RSAKeyPair
}

// NewRSAKeyPool generates count pairs with gen.
func NewRSAKeyPool(count int, gen KeyGenerator) (*RSAKeyPool, error) {
	if count <= 0 {
		return nil, fmt.Errorf("rsa key pool: count must be positive, got %d", count)
	}

	start := time.Now()
	pairs := make([]*RSAKeyPair, count)
	for i := range pairs {
		kp, err := gen()
		if err != nil {
			return nil, fmt.Errorf("generating RSA key pair %d: %w", i, err)
		}
		pairs[i] = kp
	}
	slog.Info("RSA key pairs generated", "count", count, "took", time.Since(start))

	return &RSAKeyPool{pairs: pairs}, nil
}

// Random returns a uniformly chosen pair.
func (p *RSAKeyPool) Random() *RSAKeyPair {
	return p.pairs[mathrand.IntN(len(p.pairs))]
}

// Len returns the pool size.
func (p *RSAKeyPool) Len() int {
	return len(p.pairs)
}

// BlowfishKeyPool is a fixed set of random client session keys.
type BlowfishKeyPool struct {
	keys [][]byte
}

// NewBlowfishKeyPool generates count keys of size bytes each.
func NewBlowfishKeyPool(count, size int) (*BlowfishKeyPool, error) {
	if count <= 0 {
		return nil, fmt.Errorf("blowfish key pool: count must be positive, got %d", count)
	}

	keys := make([][]byte, count)
	for i := range keys {
		k, err := GenerateBlowfishKey(size)
		if err != nil {
			return nil, err
		}
		keys[i] = k
	}
	slog.Info("blowfish keys generated", "count", count)

	return &BlowfishKeyPool{keys: keys}, nil
}

// Random returns a uniformly chosen key. Callers must not modify it.
func (p *BlowfishKeyPool) Random() []byte {
	return p.keys[mathrand.IntN(len(p.keys))]
}

// Len returns the pool size.
func (p *BlowfishKeyPool) Len() int {
	return len(p.keys)
}

// GenerateBlowfishKey returns a random key whose bytes are all in 1..255:
// the client treats the key as a C string.
func GenerateBlowfishKey(size int) ([]byte, error) {
	key := make([]byte, size)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generating blowfish key: %w", err)
	}
	for i, b := range key {
		if b == 0 {
			key[i] = byte(1 + mathrand.IntN(255))
		}
	}
	return key, nil
}
