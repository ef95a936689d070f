package clientpackets

import (
	"fmt"

	"github.com/udisondev/la2login/internal/packet"
)

const (
	maxHexIDSize = 256
	maxHostPairs = 50
)

// GameServerAuth [0x01] — GS → LS запрос регистрации
//
// Format:
//
//	[id byte]                   // желаемый server ID
//	[acceptAlternate byte]      // 0x01 = принимать альтернативный ID
//	[reserveHost byte]          // не используется
//	[port int16]                // порт для клиентов
//	[maxPlayers int32]
//	[hexIdSize int32]
//	[hexId byte[hexIdSize]]
//	[hostPairs int32]
//	[subnet, host string] * hostPairs
type GameServerAuth struct {
	ID              byte
	AcceptAlternate bool
	ReserveHost     bool
	Port            uint16
	MaxPlayers      int32
	HexID           []byte
	Hosts           []HostPair
}

// HostPair is one advertised (subnet, host) entry.
type HostPair struct {
	Subnet string
	Host   string
}

// Parse парсит пакет GameServerAuth из body (без opcode).
func (p *GameServerAuth) Parse(body []byte) error {
	r := packet.NewReader(body)

	id, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("reading id: %w", err)
	}
	p.ID = id

	acceptAlt, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("reading acceptAlternate: %w", err)
	}
	p.AcceptAlternate = acceptAlt != 0

	reserve, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("reading reserveHost: %w", err)
	}
	p.ReserveHost = reserve != 0

	port, err := r.ReadShort()
	if err != nil {
		return fmt.Errorf("reading port: %w", err)
	}
	p.Port = uint16(port)

	maxPlayers, err := r.ReadInt()
	if err != nil {
		return fmt.Errorf("reading maxPlayers: %w", err)
	}
	p.MaxPlayers = maxPlayers

	hexIDSize, err := r.ReadInt()
	if err != nil {
		return fmt.Errorf("reading hexId size: %w", err)
	}
	if hexIDSize < 0 || hexIDSize > maxHexIDSize {
		return fmt.Errorf("invalid hexId size: %d", hexIDSize)
	}
	hexID, err := r.ReadBytes(int(hexIDSize))
	if err != nil {
		return fmt.Errorf("reading hexId: %w", err)
	}
	p.HexID = hexID

	pairs, err := r.ReadInt()
	if err != nil {
		return fmt.Errorf("reading host pairs count: %w", err)
	}
	if pairs < 0 || pairs > maxHostPairs {
		return fmt.Errorf("invalid host pairs count: %d", pairs)
	}
	p.Hosts = make([]HostPair, 0, pairs)
	for range pairs {
		subnet, err := r.ReadString()
		if err != nil {
			return fmt.Errorf("reading subnet: %w", err)
		}
		host, err := r.ReadString()
		if err != nil {
			return fmt.Errorf("reading host: %w", err)
		}
		p.Hosts = append(p.Hosts, HostPair{Subnet: subnet, Host: host})
	}

	return nil
}
