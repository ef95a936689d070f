package serverpackets

const PlayFailOpcode = 0x06

// PlayFail reasons.
const (
	PlayFailNoMessage        byte = 0x00
	PlayFailSystemError      byte = 0x01
	PlayFailUserOrPassWrong  byte = 0x02
	PlayFailAccessFailed     byte = 0x04
	PlayFailAccountInUse     byte = 0x07
	PlayFailServerOverloaded byte = 0x0F
)

// PlayFail writes the PlayFail packet (opcode 0x06) into buf.
// Returns the number of bytes written.
func PlayFail(buf []byte, reason byte) int {
	buf[0] = PlayFailOpcode
	buf[1] = reason
	return 2
}
