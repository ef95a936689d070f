package serverpackets

import "github.com/udisondev/la2login/internal/packet"

// PlayerAuthResponse [0x03] — результат проверки сессионного ключа игрока.
func PlayerAuthResponse(buf []byte, account string, ok bool) (int, error) {
	w := packet.NewWriter(buf)
	w.WriteU8(OpcodePlayerAuthResponse)
	w.WriteString(account)
	w.WriteBool(ok)
	return w.Len(), w.Err()
}
