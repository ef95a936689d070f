package serverpackets

import "github.com/udisondev/la2login/internal/packet"

const PlayOkOpcode = 0x07

// PlayOk writes the PlayOk packet (opcode 0x07) into buf.
// Returns the number of bytes written.
func PlayOk(buf []byte, playOkID1, playOkID2 int32) int {
	w := packet.NewWriter(buf)
	w.WriteU8(PlayOkOpcode)
	w.WriteInt(playOkID1)
	w.WriteInt(playOkID2)
	return w.Len()
}
