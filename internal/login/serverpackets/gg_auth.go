package serverpackets

import "github.com/udisondev/la2login/internal/packet"

const GGAuthOpcode = 0x0B

// GGAuth writes the GGAuth response packet (opcode 0x0B) into buf.
// Returns the number of bytes written.
func GGAuth(buf []byte, sessionID int32) int {
	w := packet.NewWriter(buf)
	w.WriteU8(GGAuthOpcode)
	w.WriteInt(sessionID)
	w.WriteZeros(16)
	return w.Len()
}
