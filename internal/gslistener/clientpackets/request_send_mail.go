package clientpackets

import (
	"fmt"

	"github.com/udisondev/la2login/internal/packet"
)

// RequestSendMail [0x09] — GS → LS отправить письмо владельцу аккаунта
//
// Format:
//
//	[account string]
//	[mailId string]
//	[argc byte]
//	[arg string] * argc
type RequestSendMail struct {
	Account string
	MailID  string
	Args    []string
}

// Parse парсит пакет RequestSendMail из body (без opcode).
func (p *RequestSendMail) Parse(body []byte) error {
	r := packet.NewReader(body)

	account, err := readAccount(r)
	if err != nil {
		return fmt.Errorf("reading account: %w", err)
	}
	mailID, err := r.ReadString()
	if err != nil {
		return fmt.Errorf("reading mail id: %w", err)
	}
	argc, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("reading argc: %w", err)
	}

	p.Account = account
	p.MailID = mailID
	p.Args = make([]string, 0, argc)
	for range argc {
		arg, err := r.ReadString()
		if err != nil {
			return fmt.Errorf("reading arg: %w", err)
		}
		p.Args = append(p.Args, arg)
	}
	return nil
}
