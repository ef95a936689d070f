package clientpackets

import (
	"fmt"

	"github.com/udisondev/la2login/internal/packet"
)

// maxKeyBlockSize ограничивает размер RSA-блока; RSA-512 даёт 64 байта.
const maxKeyBlockSize = 512

// BlowFishKey [0x00] — GS → LS новый ключ канала, зашифрованный RSA-512
//
// Format:
//
//	[size int32]
//	[block byte[size]]
type BlowFishKey struct {
	EncryptedKey []byte
}

// Parse парсит пакет BlowFishKey из body (без opcode).
func (p *BlowFishKey) Parse(body []byte) error {
	r := packet.NewReader(body)

	size, err := r.ReadInt()
	if err != nil {
		return fmt.Errorf("reading key size: %w", err)
	}
	if size <= 0 || size > maxKeyBlockSize {
		return fmt.Errorf("invalid key size: %d", size)
	}

	block, err := r.ReadBytes(int(size))
	if err != nil {
		return fmt.Errorf("reading key block: %w", err)
	}
	p.EncryptedKey = block
	return nil
}
