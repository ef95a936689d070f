package clientpackets

import (
	"fmt"

	"github.com/udisondev/la2login/internal/packet"
)

const maxStatusAttributes = 64

// ServerStatus [0x06] — GS → LS обновление атрибутов сервера
//
// Format:
//
//	[count int32]
//	[attributeID int32, value int32] * count
//
// Атрибуты: gameserver.AttrServerListStatus и соседние константы.
type ServerStatus struct {
	Attributes []Attribute
}

// Attribute представляет пару (id, value) в пакете ServerStatus.
type Attribute struct {
	ID    int32
	Value int32
}

// Parse парсит пакет ServerStatus из body (без opcode).
func (p *ServerStatus) Parse(body []byte) error {
	r := packet.NewReader(body)

	count, err := r.ReadInt()
	if err != nil {
		return fmt.Errorf("reading count: %w", err)
	}
	if count < 0 || count > maxStatusAttributes {
		return fmt.Errorf("invalid count: %d", count)
	}

	p.Attributes = make([]Attribute, 0, count)
	for range count {
		id, err := r.ReadInt()
		if err != nil {
			return fmt.Errorf("reading attribute ID: %w", err)
		}
		value, err := r.ReadInt()
		if err != nil {
			return fmt.Errorf("reading attribute value: %w", err)
		}
		p.Attributes = append(p.Attributes, Attribute{ID: id, Value: value})
	}
	return nil
}
