package clientpackets

import (
	"fmt"

	"github.com/udisondev/la2login/internal/constants"
	"github.com/udisondev/la2login/internal/packet"
)

// ChangePassword [0x0B] — GS → LS смена пароля по запросу игрока
type ChangePassword struct {
	Account   string
	Character string
	Current   string
	New       string
}

// Parse парсит пакет ChangePassword из body (без opcode).
func (p *ChangePassword) Parse(body []byte) error {
	r := packet.NewReader(body)

	account, err := readAccount(r)
	if err != nil {
		return fmt.Errorf("reading account: %w", err)
	}
	character, err := readName(r, constants.MaxCharacterNameLength)
	if err != nil {
		return fmt.Errorf("reading character: %w", err)
	}
	current, err := r.ReadString()
	if err != nil {
		return fmt.Errorf("reading current password: %w", err)
	}
	next, err := r.ReadString()
	if err != nil {
		return fmt.Errorf("reading new password: %w", err)
	}

	p.Account, p.Character, p.Current, p.New = account, character, current, next
	return nil
}
