package crypto

import (
	"fmt"

	"golang.org/x/crypto/blowfish"
)

// BlowfishCipher — Blowfish в режиме ECB: каждый 8-байтовый блок шифруется независимо.
// Цепочки нет, IV нет: так устроен формат кадров у клиента и у гейм-серверов.
type BlowfishCipher struct {
	cipher *blowfish.Cipher
}

// NewBlowfishCipher creates a Blowfish ECB cipher from key (1..56 bytes).
func NewBlowfishCipher(key []byte) (*BlowfishCipher, error) {
	c, err := blowfish.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating blowfish cipher: %w", err)
	}
	return &BlowfishCipher{cipher: c}, nil
}

// Encrypt encrypts data[offset:offset+size] in place. size must be a multiple of 8.
func (b *BlowfishCipher) Encrypt(data []byte, offset, size int) error {
	if err := checkBlockRange("encrypt", data, offset, size); err != nil {
		return err
	}
	for i := offset; i < offset+size; i += blowfish.BlockSize {
		b.cipher.Encrypt(data[i:i+blowfish.BlockSize], data[i:i+blowfish.BlockSize])
	}
	return nil
}

// Decrypt decrypts data[offset:offset+size] in place. size must be a multiple of 8.
func (b *BlowfishCipher) Decrypt(data []byte, offset, size int) error {
	if err := checkBlockRange("decrypt", data, offset, size); err != nil {
		return err
	}
	for i := offset; i < offset+size; i += blowfish.BlockSize {
		b.cipher.Decrypt(data[i:i+blowfish.BlockSize], data[i:i+blowfish.BlockSize])
	}
	return nil
}

func checkBlockRange(op string, data []byte, offset, size int) error {
	if size%blowfish.BlockSize != 0 {
		return fmt.Errorf("blowfish %s: size %d is not a multiple of %d", op, size, blowfish.BlockSize)
	}
	if offset < 0 || offset+size > len(data) {
		return fmt.Errorf("blowfish %s: offset %d + size %d exceeds data length %d", op, offset, size, len(data))
	}
	return nil
}
