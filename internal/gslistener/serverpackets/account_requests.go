package serverpackets

import "github.com/udisondev/la2login/internal/packet"

// KickPlayer [0x04] — выкинуть аккаунт с гейм-сервера (двойной вход).
func KickPlayer(buf []byte, account string) (int, error) {
	return accountPacket(buf, OpcodeKickPlayer, account)
}

// RequestCharacters [0x05] — запросить число персонажей аккаунта.
func RequestCharacters(buf []byte, account string) (int, error) {
	return accountPacket(buf, OpcodeRequestCharacters, account)
}

func accountPacket(buf []byte, opcode byte, account string) (int, error) {
	w := packet.NewWriter(buf)
	w.WriteU8(opcode)
	w.WriteString(account)
	return w.Len(), w.Err()
}

// ChangePasswordResponse [0x06] — итог смены пароля для персонажа, который её запросил.
func ChangePasswordResponse(buf []byte, ok bool, character, message string) (int, error) {
	w := packet.NewWriter(buf)
	w.WriteU8(OpcodeChangePasswordResponse)
	w.WriteBool(ok)
	w.WriteString(character)
	w.WriteString(message)
	return w.Len(), w.Err()
}
