package serverpackets

import "github.com/udisondev/la2login/internal/packet"

// AuthResponse [0x02] — регистрация подтверждена: выданный ID и его имя.
func AuthResponse(buf []byte, serverID byte, serverName string) (int, error) {
	w := packet.NewWriter(buf)
	w.WriteU8(OpcodeAuthResponse)
	w.WriteU8(serverID)
	w.WriteString(serverName)
	return w.Len(), w.Err()
}
