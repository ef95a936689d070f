package login

// AuthResult is the outcome of credential verification.
type AuthResult int

const (
	AuthSuccess AuthResult = iota
	AuthInvalidCredentials
	AuthAddressBanned
)

func (r AuthResult) String() string {
	switch r {
	case AuthSuccess:
		return "success"
	case AuthInvalidCredentials:
		return "invalid credentials"
	case AuthAddressBanned:
		return "address banned"
	default:
		return "unknown"
	}
}

// CheckinResult is the check-in decision taken after credentials were accepted.
// Callers must handle every value.
type CheckinResult int

const (
	CheckinInvalidPassword CheckinResult = iota
	CheckinAccountBanned
	CheckinAlreadyOnLS
	CheckinAlreadyOnGS
	CheckinSuccess
)

func (r CheckinResult) String() string {
	switch r {
	case CheckinInvalidPassword:
		return "invalid password"
	case CheckinAccountBanned:
		return "account banned"
	case CheckinAlreadyOnLS:
		return "already on login server"
	case CheckinAlreadyOnGS:
		return "already on game server"
	case CheckinSuccess:
		return "success"
	default:
		return "unknown"
	}
}
