package clientpackets

import (
	"fmt"

	"github.com/udisondev/la2login/internal/packet"
)

// PlayerLogout [0x03] — GS → LS игрок вышел
type PlayerLogout struct {
	Account string
}

// Parse парсит пакет PlayerLogout из body (без opcode).
func (p *PlayerLogout) Parse(body []byte) error {
	account, err := readAccount(packet.NewReader(body))
	if err != nil {
		return fmt.Errorf("reading account: %w", err)
	}
	p.Account = account
	return nil
}
