package serverpackets

import (
	"github.com/udisondev/la2login/internal/constants"
	"github.com/udisondev/la2login/internal/packet"
)

const LoginOkOpcode = 0x03

// LoginOk writes the LoginOk packet (opcode 0x03) into buf.
// Returns the number of bytes written.
func LoginOk(buf []byte, loginOkID1, loginOkID2 int32) int {
	w := packet.NewWriter(buf)
	w.WriteU8(LoginOkOpcode)
	w.WriteInt(loginOkID1)
	w.WriteInt(loginOkID2)
	w.WriteInt(0)
	w.WriteInt(0)
	w.WriteInt(constants.LoginOkUnknownField)
	w.WriteInt(0)
	w.WriteInt(0)
	w.WriteInt(0)
	w.WriteZeros(constants.LoginOkPaddingSize)
	return w.Len()
}
