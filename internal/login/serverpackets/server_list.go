package serverpackets

import "github.com/udisondev/la2login/internal/packet"

const ServerListOpcode = 0x04

// ServerInfo holds data for one game server entry in the ServerList packet.
type ServerInfo struct {
	ID             byte
	IP             [4]byte
	Port           int32
	AgeLimit       byte
	PvP            bool
	CurrentPlayers int16
	MaxPlayers     int16
	Up             bool
	ServerType     int32
	Brackets       bool
}

// CharactersOnServer is the per-server block after the server entries.
type CharactersOnServer struct {
	ServerID byte
	Count    byte
	// DeletionSeconds — секунд до удаления каждого персонажа из очереди на удаление.
	DeletionSeconds []int32
}

// ServerList writes the ServerList packet (opcode 0x04) into buf.
// Returns the number of bytes written, or packet.ErrBufferOverflow if the
// list does not fit into buf.
func ServerList(buf []byte, servers []ServerInfo, lastServer byte, chars []CharactersOnServer) (int, error) {
	w := packet.NewWriter(buf)
	w.WriteU8(ServerListOpcode)
	w.WriteU8(byte(len(servers)))
	w.WriteU8(lastServer)

	for _, s := range servers {
		w.WriteU8(s.ID)
		w.WriteBytes(s.IP[:])
		w.WriteInt(s.Port)
		w.WriteU8(s.AgeLimit)
		w.WriteBool(s.PvP)
		w.WriteShort(s.CurrentPlayers)
		w.WriteShort(s.MaxPlayers)
		w.WriteBool(s.Up)
		w.WriteInt(s.ServerType)
		w.WriteBool(s.Brackets)
	}

	w.WriteShort(0) // unknown
	w.WriteU8(byte(len(chars)))
	for _, c := range chars {
		w.WriteU8(c.ServerID)
		w.WriteU8(c.Count)
		w.WriteU8(byte(len(c.DeletionSeconds)))
		for _, sec := range c.DeletionSeconds {
			w.WriteInt(sec)
		}
	}
	return w.Len(), w.Err()
}
