package gameserver

// GSConnectionState represents the state machine for a GameServer→LoginServer connection.
type GSConnectionState int32

const (
	GSStateConnected   GSConnectionState = iota // Ожидание BlowFishKey
	GSStateBFConnected                          // Ожидание GameServerAuth (Blowfish установлен)
	GSStateAuthed                               // Полноценная работа (аутентифицирован)
)

func (s GSConnectionState) String() string {
	switch s {
	case GSStateConnected:
		return "CONNECTED"
	case GSStateBFConnected:
		return "BF_CONNECTED"
	case GSStateAuthed:
		return "AUTHED"
	default:
		return "UNKNOWN"
	}
}

// ServerStatus константы
const (
	StatusAuto   = 0x00
	StatusGood   = 0x01
	StatusNormal = 0x02
	StatusFull   = 0x03
	StatusDown   = 0x04
	StatusGMOnly = 0x05
)

// StatusName returns the operator-facing label of a status value.
func StatusName(status int) string {
	switch status {
	case StatusAuto:
		return "Auto"
	case StatusGood:
		return "Good"
	case StatusNormal:
		return "Normal"
	case StatusFull:
		return "Full"
	case StatusDown:
		return "Down"
	case StatusGMOnly:
		return "GM Only"
	default:
		return "Unknown"
	}
}

// ServerType константы (битовая маска)
const (
	ServerNormal             = 0x01
	ServerRelax              = 0x02
	ServerTest               = 0x04
	ServerNoLabel            = 0x08
	ServerCreationRestricted = 0x10
	ServerEvent              = 0x20
	ServerFree               = 0x40
)

// ServerAge константы
const (
	ServerAgeAll = 0x00
	ServerAge15  = 0x0F
	ServerAge18  = 0x12
)

// FailReason is the reason code of LoginServerFail.
type FailReason byte

// LoginServerFail reason codes
const (
	ReasonNone            FailReason = 0
	ReasonIPBanned        FailReason = 1
	ReasonIPReserved      FailReason = 2
	ReasonWrongHexID      FailReason = 3
	ReasonIDReserved      FailReason = 4
	ReasonNoFreeID        FailReason = 5
	ReasonNotAuthed       FailReason = 6
	ReasonAlreadyLoggedIn FailReason = 7
)

func (r FailReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonIPBanned:
		return "ip banned"
	case ReasonIPReserved:
		return "ip reserved"
	case ReasonWrongHexID:
		return "wrong hexid"
	case ReasonIDReserved:
		return "id reserved"
	case ReasonNoFreeID:
		return "no free id"
	case ReasonNotAuthed:
		return "not authed"
	case ReasonAlreadyLoggedIn:
		return "already logged in"
	default:
		return "unknown"
	}
}

// ServerStatus attribute types
const (
	AttrServerListStatus        = 0x01
	AttrServerType              = 0x02
	AttrServerListSquareBracket = 0x03
	AttrMaxPlayers              = 0x04
	AttrTestServer              = 0x05
	AttrServerAge               = 0x06
)

// Значения флаговых атрибутов ServerStatus.
const (
	AttrOff = 0x00
	AttrOn  = 0x01
)
