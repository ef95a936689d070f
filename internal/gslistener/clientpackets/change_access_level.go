package clientpackets

import (
	"fmt"

	"github.com/udisondev/la2login/internal/packet"
)

// ChangeAccessLevel [0x04] — GS → LS смена уровня доступа аккаунта
//
// Format:
//
//	[level int32]
//	[account string]
type ChangeAccessLevel struct {
	Level   int32
	Account string
}

// Parse парсит пакет ChangeAccessLevel из body (без opcode).
func (p *ChangeAccessLevel) Parse(body []byte) error {
	r := packet.NewReader(body)

	level, err := r.ReadInt()
	if err != nil {
		return fmt.Errorf("reading level: %w", err)
	}
	account, err := readAccount(r)
	if err != nil {
		return fmt.Errorf("reading account: %w", err)
	}

	p.Level = level
	p.Account = account
	return nil
}
