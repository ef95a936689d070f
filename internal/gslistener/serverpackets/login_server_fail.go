package serverpackets

import "github.com/udisondev/la2login/internal/gameserver"

// LoginServerFail [0x01] — отказ, после него соединение закрывается.
func LoginServerFail(buf []byte, reason gameserver.FailReason) int {
	buf[0] = OpcodeLoginServerFail
	buf[1] = byte(reason)
	return 2
}
