package clientpackets

import (
	"fmt"

	"github.com/udisondev/la2login/internal/login"
	"github.com/udisondev/la2login/internal/packet"
)

// PlayerAuthRequest [0x05] — GS → LS запрос валидации сессии игрока
//
// Format:
//
//	[account string]
//	[playOkID1 int32]
//	[playOkID2 int32]
//	[loginOkID1 int32]
//	[loginOkID2 int32]
type PlayerAuthRequest struct {
	Account    string
	SessionKey login.SessionKey
}

// Parse парсит пакет PlayerAuthRequest из body (без opcode).
func (p *PlayerAuthRequest) Parse(body []byte) error {
	r := packet.NewReader(body)

	account, err := readAccount(r)
	if err != nil {
		return fmt.Errorf("reading account: %w", err)
	}
	p.Account = account

	var keys [4]int32
	for i := range keys {
		if keys[i], err = r.ReadInt(); err != nil {
			return fmt.Errorf("reading session key part %d: %w", i, err)
		}
	}

	p.SessionKey = login.SessionKey{
		PlayOkID1:  keys[0],
		PlayOkID2:  keys[1],
		LoginOkID1: keys[2],
		LoginOkID2: keys[3],
	}
	return nil
}
