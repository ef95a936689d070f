package testutil

import (
	"github.com/udisondev/la2login/internal/crypto"
)

// Fixtures содержит предварительно сгенерированные тестовые данные
// для избежания дублирования в тестах.
var Fixtures = struct {
	// RSA ключи (генерируются один раз при init)
	RSAKey    *crypto.RSAKeyPair
	RSAKey512 *crypto.RSAKeyPair

	// Blowfish ключ (16 байт)
	BlowfishKey []byte

	// Тестовые аккаунты
	ValidAccount  string
	ValidPassword string

	// Game Server test data
	GSServerID    byte
	GSBlowfishKey []byte
	GSHexID       []byte
}{
	BlowfishKey: []byte{
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
		0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F, 0x10,
	},
	ValidAccount:  "testuser",
	ValidPassword: "testpass",

	GSServerID: 1,
	GSBlowfishKey: []byte{
		0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17, 0x18,
		0x19, 0x1A, 0x1B, 0x1C, 0x1D, 0x1E, 0x1F, 0x20,
	},
	GSHexID: []byte{0xa1, 0xb2, 0xc3, 0xd4, 0xe5, 0xf6, 0xa7, 0xb8, 0xc9, 0xd0, 0xe1, 0xf2, 0xa3, 0xb4, 0xc5, 0xd6},
}

func init() {
	var err error

	// Генерируем RSA-1024 ключ
	Fixtures.RSAKey, err = crypto.GenerateRSAKeyPair()
	if err != nil {
		panic("failed to generate RSA-1024 key: " + err.Error())
	}

	// Генерируем RSA-512 ключ
	Fixtures.RSAKey512, err = crypto.GenerateRSAKeyPair512()
	if err != nil {
		panic("failed to generate RSA-512 key: " + err.Error())
	}
}
