package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"math/big"

	"github.com/udisondev/la2login/internal/constants"
)

// RSAKeyPair holds a key pair and the modulus in the form sent on the wire.
// For the client channel the modulus is scrambled, for game servers it is raw.
type RSAKeyPair struct {
	PrivateKey       *rsa.PrivateKey
	ScrambledModulus []byte
}

// GenerateRSAKeyPair generates an RSA-1024 pair (e=65537) with the scrambled modulus
// the client expects in Init.
func GenerateRSAKeyPair() (*RSAKeyPair, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, constants.RSAKeyBits)
	if err != nil {
		return nil, fmt.Errorf("generating RSA key: %w", err)
	}
	privateKey.Precompute()

	return &RSAKeyPair{
		PrivateKey:       privateKey,
		ScrambledModulus: ScrambleModulus(modulusBytes(privateKey, constants.RSA1024ModulusSize)),
	}, nil
}

// GenerateRSAKeyPair512 generates the RSA-512 pair used for the game-server key exchange.
// InitLS carries the modulus unscrambled.
func GenerateRSAKeyPair512() (*RSAKeyPair, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, constants.RSA512KeyBits)
	if err != nil {
		return nil, fmt.Errorf("generating RSA-512 key: %w", err)
	}
	privateKey.Precompute()

	return &RSAKeyPair{
		PrivateKey:       privateKey,
		ScrambledModulus: modulusBytes(privateKey, constants.RSA512ModulusSize),
	}, nil
}

// modulusBytes returns N left-padded to exactly size bytes.
func modulusBytes(key *rsa.PrivateKey, size int) []byte {
	return key.N.FillBytes(make([]byte, size))
}

// ScrambleModulus applies the 4-step swap/XOR obfuscation to a 128-byte modulus.
func ScrambleModulus(modulus []byte) []byte {
	if len(modulus) != constants.RSA1024ModulusSize {
		panic(fmt.Sprintf("ScrambleModulus: expected %d bytes, got %d", constants.RSA1024ModulusSize, len(modulus)))
	}

	s := make([]byte, len(modulus))
	copy(s, modulus)

	// 1: swap 0x00..0x03 <-> 0x4D..0x50
	for i := range constants.ScrambleSwapLength {
		s[i], s[constants.ScrambleSwapOffset+i] = s[constants.ScrambleSwapOffset+i], s[i]
	}
	// 2: first 0x40 ^= last 0x40
	for i := range constants.ScrambleXORBlockSize {
		s[i] ^= s[constants.ScrambleXORBlockSize+i]
	}
	// 3: 0x0D..0x10 ^= 0x34..0x37
	for i := range constants.ScrambleXORLength {
		s[constants.ScrambleXOROffset1+i] ^= s[constants.ScrambleXOROffset2+i]
	}
	// 4: last 0x40 ^= first 0x40
	for i := range constants.ScrambleXORBlockSize {
		s[constants.ScrambleXORBlockSize+i] ^= s[i]
	}
	return s
}

// UnscrambleModulus reverses ScrambleModulus, as the client does.
func UnscrambleModulus(scrambled []byte) []byte {
	if len(scrambled) != constants.RSA1024ModulusSize {
		panic(fmt.Sprintf("UnscrambleModulus: expected %d bytes, got %d", constants.RSA1024ModulusSize, len(scrambled)))
	}

	m := make([]byte, len(scrambled))
	copy(m, scrambled)

	for i := range constants.ScrambleXORBlockSize {
		m[constants.ScrambleXORBlockSize+i] ^= m[i]
	}
	for i := range constants.ScrambleXORLength {
		m[constants.ScrambleXOROffset1+i] ^= m[constants.ScrambleXOROffset2+i]
	}
	for i := range constants.ScrambleXORBlockSize {
		m[i] ^= m[constants.ScrambleXORBlockSize+i]
	}
	for i := range constants.ScrambleSwapLength {
		m[i], m[constants.ScrambleSwapOffset+i] = m[constants.ScrambleSwapOffset+i], m[i]
	}
	return m
}

// RSADecryptNoPadding is RSA/ECB/NoPadding: c^d mod n, left-padded to the key size.
// The block must be exactly one modulus long.
func RSADecryptNoPadding(privateKey *rsa.PrivateKey, ciphertext []byte) ([]byte, error) {
	size := privateKey.Size()
	if len(ciphertext) != size {
		return nil, fmt.Errorf("RSA decrypt: expected %d bytes, got %d", size, len(ciphertext))
	}

	c := new(big.Int).SetBytes(ciphertext)
	if c.Cmp(privateKey.N) >= 0 {
		return nil, fmt.Errorf("RSA decrypt: ciphertext out of range")
	}
	m := new(big.Int).Exp(c, privateKey.D, privateKey.N)
	return m.FillBytes(make([]byte, size)), nil
}

// RSAEncryptNoPadding is the peer side of RSADecryptNoPadding: m^e mod n.
// Clients and game servers use it to wrap credentials and keys.
func RSAEncryptNoPadding(publicKey *rsa.PublicKey, plaintext []byte) ([]byte, error) {
	size := publicKey.Size()
	if len(plaintext) > size {
		return nil, fmt.Errorf("RSA encrypt: plaintext of %d bytes exceeds key size %d", len(plaintext), size)
	}

	m := new(big.Int).SetBytes(plaintext)
	if m.Cmp(publicKey.N) >= 0 {
		return nil, fmt.Errorf("RSA encrypt: plaintext out of range")
	}
	c := new(big.Int).Exp(m, big.NewInt(int64(publicKey.E)), publicKey.N)
	return c.FillBytes(make([]byte, size)), nil
}
