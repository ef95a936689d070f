package clientpackets

import (
	"fmt"

	"github.com/udisondev/la2login/internal/packet"
)

// PlayerInGame [0x02] — GS → LS аккаунты, вошедшие в мир
//
// Format:
//
//	[count int16]
//	[account string] * count
type PlayerInGame struct {
	Accounts []string
}

// Parse парсит пакет PlayerInGame из body (без opcode).
func (p *PlayerInGame) Parse(body []byte) error {
	r := packet.NewReader(body)

	count, err := r.ReadShort()
	if err != nil {
		return fmt.Errorf("reading count: %w", err)
	}
	if count < 0 {
		return fmt.Errorf("invalid count: %d", count)
	}

	p.Accounts = make([]string, 0, count)
	for range count {
		account, err := readAccount(r)
		if err != nil {
			return fmt.Errorf("reading account: %w", err)
		}
		p.Accounts = append(p.Accounts, account)
	}
	return nil
}
