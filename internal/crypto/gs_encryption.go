package crypto

import (
	"fmt"
	"sync"
)

// DefaultGSBlowfishKey открывает канал гейм-сервера до того,
// как сервер пришлёт собственный ключ в BlowFishKey.
var DefaultGSBlowfishKey = []byte("_;v.]05-31!|+-%xT!^[$\x00")

// GameServerEncryption is the frame cipher of the game-server channel:
// payload + 4 byte checksum, zero padded to 8, Blowfish ECB.
// The key is replaced once after the key exchange, so access is guarded.
type GameServerEncryption struct {
	mu     sync.RWMutex
	cipher *BlowfishCipher
}

// NewGameServerEncryption returns a cipher keyed with DefaultGSBlowfishKey.
func NewGameServerEncryption() (*GameServerEncryption, error) {
	c, err := NewBlowfishCipher(DefaultGSBlowfishKey)
	if err != nil {
		return nil, err
	}
	return &GameServerEncryption{cipher: c}, nil
}

// SetKey replaces the channel key.
func (e *GameServerEncryption) SetKey(key []byte) error {
	c, err := NewBlowfishCipher(key)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.cipher = c
	e.mu.Unlock()
	return nil
}

// EncryptedSize returns the frame size for a payload of size bytes.
func (e *GameServerEncryption) EncryptedSize(size int) int {
	size += 4
	if rem := size % 8; rem != 0 {
		size += 8 - rem
	}
	return size
}

// EncryptPacket appends the checksum and encrypts data[offset:offset+size] in place.
func (e *GameServerEncryption) EncryptPacket(data []byte, offset, size int) (int, error) {
	encSize := e.EncryptedSize(size)
	if offset+encSize > len(data) {
		return 0, fmt.Errorf("encrypt packet: need %d bytes, have %d: %w", offset+encSize, len(data), ErrPacketTooLong)
	}
	clear(data[offset+size : offset+encSize])
	AppendChecksum(data, offset, encSize)

	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.cipher.Encrypt(data, offset, encSize); err != nil {
		return 0, fmt.Errorf("encrypting packet: %w", err)
	}
	return encSize, nil
}

// DecryptPacket decrypts in place and reports whether the checksum holds.
func (e *GameServerEncryption) DecryptPacket(data []byte, offset, size int) (bool, error) {
	e.mu.RLock()
	err := e.cipher.Decrypt(data, offset, size)
	e.mu.RUnlock()
	if err != nil {
		return false, fmt.Errorf("decrypting packet: %w", err)
	}
	return VerifyChecksum(data, offset, size), nil
}
