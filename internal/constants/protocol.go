package constants

// Protocol constants of the login broker (Interlude client, L2J-compatible game servers).

// Protocol revisions
const (
	// ProtocolRevisionGameServer is sent in InitLS and expected from game servers.
	ProtocolRevisionGameServer = 0x0106

	// ProtocolRevisionInit is the revision field of the client Init packet.
	ProtocolRevisionInit = 0x0000C621
)

// RSA
const (
	// RSAKeyBits is the client channel key size.
	RSAKeyBits = 1024

	// RSA512KeyBits is the game-server channel key size.
	RSA512KeyBits = 512

	// RSAPublicExponent is F4.
	RSAPublicExponent = 65537

	RSA1024ModulusSize = 128
	RSA512ModulusSize  = 64

	// RSAKeyPairPoolSize — сколько пар генерируется при старте для каждого канала.
	RSAKeyPairPoolSize = 10
)

// Blowfish
const (
	// BlowfishKeySize is the dynamic client key length.
	BlowfishKeySize = 16

	// BlowfishKeyPoolSize is the number of pre-generated client keys.
	BlowfishKeyPoolSize = 20

	BlowfishBlockSize = 8
)

// Framing
const (
	// PacketHeaderSize is the u16 LE length prefix (it counts itself).
	PacketHeaderSize = 2

	PacketChecksumSize = 4
	PacketPaddingAlign = 8

	// PacketBufferPadding is the room reserved after a payload for checksum, XOR key and padding.
	PacketBufferPadding = 16

	// MaxPacketSize is the largest frame a u16 length prefix can describe.
	MaxPacketSize = 0xFFFF
)

// Init packet layout (client channel, opcode 0x00).
const (
	InitPacketSessionIDOffset   = 1
	InitPacketProtocolRevOffset = 5
	InitPacketModulusOffset     = 9
	InitPacketGGConstantsOffset = 153
	InitPacketBlowfishKeyOffset = 169
	InitPacketSize              = 186
)

// GameGuard constants sent in Init.
const (
	GGConst1 = 0x29DD954E
	GGConst2 = 0x77C39CFC
	GGConst3 = 0x97ADB620
	GGConst4 = 0x07BDE0F7
)

// RequestAuthLogin: offsets of credentials inside the RSA-decrypted blocks.
const (
	// AuthLoginNewLayoutMinSize — начиная с этого размера тела клиент шлёт два RSA-блока.
	AuthLoginNewLayoutMinSize = 256

	AuthLoginBlockSize = 128

	AuthLoginUserOffsetNew = 0x4E
	AuthLoginPassOffsetNew = 0x5C

	AuthLoginUserOffsetLegacy = 0x5E
	AuthLoginPassOffsetLegacy = 0x6C

	AuthLoginUserMaxLength = 14
	AuthLoginPassMaxLength = 16

	// Limits for names a game server sends: accounts.login is VARCHAR(45),
	// character names are at most 35 characters.
	MaxAccountNameLength   = 45
	MaxCharacterNameLength = 35

	// AuthLoginOTPOffset is the one-time password field (u32 LE) in the user block.
	AuthLoginOTPOffset = 0x7C
)

// Client channel timings
const (
	// LoginPurgeDivisor: the timed-out client sweep runs every LoginTimeout/LoginPurgeDivisor.
	LoginPurgeDivisor = 2
)

// LoginOk
const (
	LoginOkUnknownField = 0x000003EA
	LoginOkPaddingSize  = 16
)

// RSA modulus scrambling (ScrambledKeyPair layout expected by the client).
const (
	ScrambleSwapOffset   = 0x4D
	ScrambleSwapLength   = 4
	ScrambleXORBlockSize = 0x40
	ScrambleXOROffset1   = 0x0D
	ScrambleXOROffset2   = 0x34
	ScrambleXORLength    = 4
)

// Buffer sizes
const (
	// DefaultSendBufSize fits a ServerList with every known server and the character block.
	DefaultSendBufSize = 4096
	DefaultReadBufSize = 1024

	GSListenerSendBufSize = 1024
	GSListenerReadBufSize = 1 << 16
)
