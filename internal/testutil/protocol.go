package testutil

import (
	"github.com/udisondev/la2login/internal/constants"
	"github.com/udisondev/la2login/internal/packet"
)

// Пакеты GameServer → LoginServer в том виде, как их шлёт гейм-сервер (с opcode).

// build пишет пакет в буфер максимального размера кадра.
func build(fill func(w *packet.Writer)) []byte {
	w := packet.NewWriter(make([]byte, constants.MaxPacketSize))
	fill(w)
	return w.Bytes()
}

// MakeBlowFishKeyPacket создаёт пакет BlowFishKey с уже зашифрованным блоком.
func MakeBlowFishKeyPacket(block []byte) []byte {
	return build(func(w *packet.Writer) {
		w.WriteU8(0x00)
		w.WriteInt(int32(len(block)))
		w.WriteBytes(block)
	})
}

// GSHost is one (subnet, host) pair of GameServerAuth.
type GSHost struct {
	Subnet string
	Host   string
}

// MakeGameServerAuthPacket создаёт пакет GameServerAuth.
func MakeGameServerAuthPacket(id byte, acceptAlt bool, hexID []byte, port int16, maxPlayers int32, hosts ...GSHost) []byte {
	return build(func(w *packet.Writer) {
		w.WriteU8(0x01)
		w.WriteU8(id)
		w.WriteBool(acceptAlt)
		w.WriteU8(0)
		w.WriteShort(port)
		w.WriteInt(maxPlayers)
		w.WriteInt(int32(len(hexID)))
		w.WriteBytes(hexID)
		w.WriteInt(int32(len(hosts)))
		for _, h := range hosts {
			w.WriteString(h.Subnet)
			w.WriteString(h.Host)
		}
	})
}

// MakePlayerInGamePacket создаёт пакет PlayerInGame.
func MakePlayerInGamePacket(accounts ...string) []byte {
	return build(func(w *packet.Writer) {
		w.WriteU8(0x02)
		w.WriteShort(int16(len(accounts)))
		for _, a := range accounts {
			w.WriteString(a)
		}
	})
}

// MakePlayerLogoutPacket создаёт пакет PlayerLogout.
func MakePlayerLogoutPacket(account string) []byte {
	return MakeStringsPacket(0x03, account)
}

// MakeChangeAccessLevelPacket создаёт пакет ChangeAccessLevel.
func MakeChangeAccessLevelPacket(account string, level int32) []byte {
	return build(func(w *packet.Writer) {
		w.WriteU8(0x04)
		w.WriteInt(level)
		w.WriteString(account)
	})
}

// MakePlayerAuthRequestPacket создаёт пакет PlayerAuthRequest.
func MakePlayerAuthRequestPacket(account string, playOkID1, playOkID2, loginOkID1, loginOkID2 int32) []byte {
	return build(func(w *packet.Writer) {
		w.WriteU8(0x05)
		w.WriteString(account)
		w.WriteInt(playOkID1)
		w.WriteInt(playOkID2)
		w.WriteInt(loginOkID1)
		w.WriteInt(loginOkID2)
	})
}

// StatusAttr is one (attribute, value) pair of ServerStatus.
type StatusAttr struct {
	ID    int32
	Value int32
}

// MakeServerStatusPacket создаёт пакет ServerStatus.
func MakeServerStatusPacket(attrs ...StatusAttr) []byte {
	return build(func(w *packet.Writer) {
		w.WriteU8(0x06)
		w.WriteInt(int32(len(attrs)))
		for _, a := range attrs {
			w.WriteInt(a.ID)
			w.WriteInt(a.Value)
		}
	})
}

// MakePlayerTracertPacket создаёт пакет PlayerTracert.
func MakePlayerTracertPacket(account, pcIP, hop1, hop2, hop3, hop4 string) []byte {
	return MakeStringsPacket(0x07, account, pcIP, hop1, hop2, hop3, hop4)
}

// MakeReplyCharactersPacket создаёт пакет ReplyCharacters.
func MakeReplyCharactersPacket(account string, chars byte, deletions ...int64) []byte {
	return build(func(w *packet.Writer) {
		w.WriteU8(0x08)
		w.WriteString(account)
		w.WriteU8(chars)
		w.WriteU8(byte(len(deletions)))
		for _, d := range deletions {
			w.WriteLong(d)
		}
	})
}

// MakeRequestSendMailPacket создаёт пакет RequestSendMail.
func MakeRequestSendMailPacket(account, mailID string, args ...string) []byte {
	return build(func(w *packet.Writer) {
		w.WriteU8(0x09)
		w.WriteString(account)
		w.WriteString(mailID)
		w.WriteU8(byte(len(args)))
		for _, a := range args {
			w.WriteString(a)
		}
	})
}

// MakeRequestTempBanPacket создаёт пакет RequestTempBan; пустой reason не передаётся.
func MakeRequestTempBanPacket(account, ip string, expiresMs int64, reason string) []byte {
	return build(func(w *packet.Writer) {
		w.WriteU8(0x0A)
		w.WriteString(account)
		w.WriteString(ip)
		w.WriteLong(expiresMs)
		w.WriteBool(reason != "")
		if reason != "" {
			w.WriteString(reason)
		}
	})
}

// MakeChangePasswordPacket создаёт пакет ChangePassword.
func MakeChangePasswordPacket(account, character, current, next string) []byte {
	return MakeStringsPacket(0x0B, account, character, current, next)
}

// MakeStringsPacket создаёт пакет из opcode и строк подряд.
func MakeStringsPacket(opcode byte, fields ...string) []byte {
	return build(func(w *packet.Writer) {
		w.WriteU8(opcode)
		for _, f := range fields {
			w.WriteString(f)
		}
	})
}
