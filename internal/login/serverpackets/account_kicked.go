package serverpackets

import "github.com/udisondev/la2login/internal/packet"

const AccountKickedOpcode = 0x02

// AccountKickedReason codes.
const (
	ReasonDataStealer       int32 = 0x01
	ReasonGenericViolation  int32 = 0x08
	Reason7DaysSuspended    int32 = 0x10
	ReasonPermanentlyBanned int32 = 0x20
)

// AccountKicked writes the AccountKicked packet (opcode 0x02) into buf.
// Returns the number of bytes written.
func AccountKicked(buf []byte, reason int32) int {
	w := packet.NewWriter(buf)
	w.WriteU8(AccountKickedOpcode)
	w.WriteInt(reason)
	return w.Len()
}
