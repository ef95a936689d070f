// Package serverpackets writes LoginServer → GameServer packets straight into
// the send buffer. Every writer returns the number of bytes written.
package serverpackets

import (
	"github.com/udisondev/la2login/internal/constants"
	"github.com/udisondev/la2login/internal/packet"
)

// LoginServer → GameServer opcodes.
const (
	OpcodeInitLS                 = 0x00
	OpcodeLoginServerFail        = 0x01
	OpcodeAuthResponse           = 0x02
	OpcodePlayerAuthResponse     = 0x03
	OpcodeKickPlayer             = 0x04
	OpcodeRequestCharacters      = 0x05
	OpcodeChangePasswordResponse = 0x06
)

// InitLS [0x00] — первый пакет после подключения GameServer
//
// Format:
//
//	[revision int32]
//	[keySize int32]
//	[modulus byte[keySize]] // RSA-512, без скремблирования
func InitLS(buf []byte, modulus []byte) int {
	w := packet.NewWriter(buf)
	w.WriteU8(OpcodeInitLS)
	w.WriteInt(constants.ProtocolRevisionGameServer)
	w.WriteInt(int32(len(modulus)))
	w.WriteBytes(modulus)
	return w.Len()
}
