package clientpackets

import (
	"fmt"

	"github.com/udisondev/la2login/internal/packet"
)

// ReplyCharacters [0x08] — GS → LS персонажи аккаунта на этом сервере
//
// Format:
//
//	[account string]
//	[chars byte]
//	[pending byte]
//	[deleteAt int64] * pending // epoch ms
type ReplyCharacters struct {
	Account   string
	Chars     int
	Deletions []int64
}

// Parse парсит пакет ReplyCharacters из body (без opcode).
func (p *ReplyCharacters) Parse(body []byte) error {
	r := packet.NewReader(body)

	account, err := readAccount(r)
	if err != nil {
		return fmt.Errorf("reading account: %w", err)
	}
	chars, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("reading chars: %w", err)
	}
	pending, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("reading pending count: %w", err)
	}

	p.Account = account
	p.Chars = int(chars)
	p.Deletions = make([]int64, 0, pending)
	for range pending {
		at, err := r.ReadLong()
		if err != nil {
			return fmt.Errorf("reading deletion time: %w", err)
		}
		p.Deletions = append(p.Deletions, at)
	}
	return nil
}
