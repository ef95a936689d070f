package serverpackets

import (
	"github.com/udisondev/la2login/internal/constants"
	"github.com/udisondev/la2login/internal/packet"
)

const InitOpcode = 0x00

var ggConstants = [4]uint32{constants.GGConst1, constants.GGConst2, constants.GGConst3, constants.GGConst4}

// Init writes the Init packet (opcode 0x00) into buf.
// Contains: sessionId, protocol version, scrambled RSA modulus, GG constants, blowfish key.
// Returns the number of bytes written.
func Init(buf []byte, sessionID int32, scrambledModulus, blowfishKey []byte) int {
	w := packet.NewWriter(buf)
	w.WriteU8(InitOpcode)
	w.WriteInt(sessionID)
	w.WriteInt(constants.ProtocolRevisionInit)
	w.WriteBytes(scrambledModulus[:constants.RSA1024ModulusSize])
	w.WriteZeros(constants.InitPacketGGConstantsOffset - constants.InitPacketModulusOffset - constants.RSA1024ModulusSize)
	for _, c := range ggConstants {
		w.WriteInt(int32(c))
	}
	w.WriteBytes(blowfishKey[:constants.BlowfishKeySize])
	w.WriteU8(0x00) // null terminator
	return w.Len()
}
