package gslistener

// GameServer → LoginServer opcodes
const (
	OpcodeBlowFishKey       = 0x00
	OpcodeGameServerAuth    = 0x01
	OpcodePlayerInGame      = 0x02
	OpcodePlayerLogout      = 0x03
	OpcodeChangeAccessLevel = 0x04
	OpcodePlayerAuthRequest = 0x05
	OpcodeServerStatus      = 0x06
	OpcodePlayerTracert     = 0x07
	OpcodeReplyCharacters   = 0x08
	OpcodeRequestSendMail   = 0x09
	OpcodeRequestTempBan    = 0x0A
	OpcodeChangePassword    = 0x0B
)
