package clientpackets

import (
	"fmt"

	"github.com/udisondev/la2login/internal/model"
	"github.com/udisondev/la2login/internal/packet"
)

// PlayerTracert [0x07] — GS → LS маршрут клиента игрока
//
// Format: account, pcIp, hop1..hop4 (все string).
type PlayerTracert struct {
	Account string
	Tracert model.Tracert
}

// Parse парсит пакет PlayerTracert из body (без opcode).
func (p *PlayerTracert) Parse(body []byte) error {
	r := packet.NewReader(body)

	account, err := readAccount(r)
	if err != nil {
		return fmt.Errorf("reading account: %w", err)
	}

	var fields [6]string
	for i := 1; i < len(fields); i++ {
		if fields[i], err = r.ReadString(); err != nil {
			return fmt.Errorf("reading field %d: %w", i, err)
		}
	}

	p.Account = account
	p.Tracert = model.Tracert{
		PCIP: fields[1],
		Hop1: fields[2],
		Hop2: fields[3],
		Hop3: fields[4],
		Hop4: fields[5],
	}
	return nil
}
