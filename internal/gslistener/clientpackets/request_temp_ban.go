package clientpackets

import (
	"fmt"
	"time"

	"github.com/udisondev/la2login/internal/packet"
)

// RequestTempBan [0x0A] — GS → LS временный бан аккаунта и его адреса
//
// Format:
//
//	[account string]
//	[ip string]
//	[expires int64] // epoch ms
//	[hasReason byte]
//	[reason string] // только при hasReason != 0
type RequestTempBan struct {
	Account string
	IP      string
	Expires time.Time
	Reason  string
}

// Parse парсит пакет RequestTempBan из body (без opcode).
func (p *RequestTempBan) Parse(body []byte) error {
	r := packet.NewReader(body)

	account, err := readAccount(r)
	if err != nil {
		return fmt.Errorf("reading account: %w", err)
	}
	ip, err := r.ReadString()
	if err != nil {
		return fmt.Errorf("reading ip: %w", err)
	}
	expires, err := r.ReadLong()
	if err != nil {
		return fmt.Errorf("reading expiry: %w", err)
	}
	hasReason, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("reading reason flag: %w", err)
	}

	p.Account = account
	p.IP = ip
	p.Expires = time.UnixMilli(expires)
	p.Reason = ""
	if hasReason != 0 {
		if p.Reason, err = r.ReadString(); err != nil {
			return fmt.Errorf("reading reason: %w", err)
		}
	}
	return nil
}
