package crypto

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// StaticBlowfishKey зашит в клиент и закрывает только первый кадр (Init).
var StaticBlowfishKey = []byte{
	0x6b, 0x60, 0xcb, 0x5b,
	0x82, 0xce, 0x90, 0xb1,
	0xcc, 0x2b, 0x6c, 0x55,
	0x6c, 0x6c, 0x6c, 0x6c,
}

// ErrPacketTooLong is returned when the buffer cannot hold the padded frame.
var ErrPacketTooLong = errors.New("packet too long")

// LoginEncryption is the client channel frame cipher.
// The first outgoing frame is XOR-chained and encrypted with StaticBlowfishKey,
// every other frame (in both directions) carries a checksum and uses the dynamic key.
type LoginEncryption struct {
	staticCipher  *BlowfishCipher
	dynamicCipher *BlowfishCipher
	firstPacket   bool
	xorKey        func() uint32
}

// NewLoginEncryption creates a LoginEncryption with the per-connection Blowfish key.
func NewLoginEncryption(dynamicKey []byte) (*LoginEncryption, error) {
	sc, err := NewBlowfishCipher(StaticBlowfishKey)
	if err != nil {
		return nil, fmt.Errorf("creating static blowfish cipher: %w", err)
	}
	dc, err := NewBlowfishCipher(dynamicKey)
	if err != nil {
		return nil, fmt.Errorf("creating dynamic blowfish cipher: %w", err)
	}
	return &LoginEncryption{
		staticCipher:  sc,
		dynamicCipher: dc,
		firstPacket:   true,
		xorKey:        rand.Uint32,
	}, nil
}

// EncryptedSize returns how many bytes EncryptPacket produces for a payload of size bytes.
func (le *LoginEncryption) EncryptedSize(size int) int {
	size += 4
	if le.firstPacket {
		size += 4
	}
	// Старый сервер добавляет полный блок даже при выровненном размере, клиент к этому привык.
	return size + 8 - size%8
}

// EncryptPacket encrypts data[offset:offset+size] in place and returns the frame size.
func (le *LoginEncryption) EncryptPacket(data []byte, offset, size int) (int, error) {
	encSize := le.EncryptedSize(size)
	if offset+encSize > len(data) {
		return 0, fmt.Errorf("encrypt packet: need %d bytes, have %d: %w", offset+encSize, len(data), ErrPacketTooLong)
	}
	clear(data[offset+size : offset+encSize])

	if le.firstPacket {
		le.firstPacket = false
		EncXORPass(data, offset, encSize, le.xorKey())
		if err := le.staticCipher.Encrypt(data, offset, encSize); err != nil {
			return 0, fmt.Errorf("encrypting init packet: %w", err)
		}
		return encSize, nil
	}

	AppendChecksum(data, offset, encSize)
	if err := le.dynamicCipher.Encrypt(data, offset, encSize); err != nil {
		return 0, fmt.Errorf("encrypting packet: %w", err)
	}
	return encSize, nil
}

// DecryptPacket decrypts an incoming frame in place with the dynamic key
// and reports whether its checksum is valid.
func (le *LoginEncryption) DecryptPacket(data []byte, offset, size int) (bool, error) {
	if err := le.dynamicCipher.Decrypt(data, offset, size); err != nil {
		return false, fmt.Errorf("decrypting packet: %w", err)
	}
	return VerifyChecksum(data, offset, size), nil
}

// ClientEncryption is the client's side of the channel: it removes the Init
// obfuscation and then speaks the checksum + dynamic key format.
// Used by test clients and diagnostic tools.
type ClientEncryption struct {
	staticCipher  *BlowfishCipher
	dynamicCipher *BlowfishCipher
}

// NewClientEncryption returns a client-side cipher awaiting the Init frame.
func NewClientEncryption() (*ClientEncryption, error) {
	sc, err := NewBlowfishCipher(StaticBlowfishKey)
	if err != nil {
		return nil, fmt.Errorf("creating static blowfish cipher: %w", err)
	}
	return &ClientEncryption{staticCipher: sc}, nil
}

// DecryptInit decodes the Init frame in place.
func (ce *ClientEncryption) DecryptInit(data []byte, offset, size int) error {
	if err := ce.staticCipher.Decrypt(data, offset, size); err != nil {
		return fmt.Errorf("decrypting init packet: %w", err)
	}
	DecXORPass(data, offset, size)
	return nil
}

// SetKey adopts the dynamic key announced in Init.
func (ce *ClientEncryption) SetKey(key []byte) error {
	dc, err := NewBlowfishCipher(key)
	if err != nil {
		return err
	}
	ce.dynamicCipher = dc
	return nil
}

// EncryptPacket appends the checksum and encrypts with the dynamic key.
func (ce *ClientEncryption) EncryptPacket(data []byte, offset, size int) (int, error) {
	if ce.dynamicCipher == nil {
		return 0, errors.New("encrypt packet: dynamic key not set")
	}
	encSize := size + 4
	encSize += 8 - encSize%8
	if offset+encSize > len(data) {
		return 0, fmt.Errorf("encrypt packet: need %d bytes, have %d: %w", offset+encSize, len(data), ErrPacketTooLong)
	}
	clear(data[offset+size : offset+encSize])
	AppendChecksum(data, offset, encSize)
	if err := ce.dynamicCipher.Encrypt(data, offset, encSize); err != nil {
		return 0, fmt.Errorf("encrypting packet: %w", err)
	}
	return encSize, nil
}

// DecryptPacket decrypts a server frame and verifies its checksum.
func (ce *ClientEncryption) DecryptPacket(data []byte, offset, size int) (bool, error) {
	if ce.dynamicCipher == nil {
		return false, errors.New("decrypt packet: dynamic key not set")
	}
	if err := ce.dynamicCipher.Decrypt(data, offset, size); err != nil {
		return false, fmt.Errorf("decrypting packet: %w", err)
	}
	return VerifyChecksum(data, offset, size), nil
}
