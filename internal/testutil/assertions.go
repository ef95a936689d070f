package testutil

import (
	"encoding/binary"
	"testing"
	"unicode/utf16"
)

// AssertPacketOpcode проверяет, что первый байт пакета соответствует ожидаемому opcode.
func AssertPacketOpcode(t testing.TB, expected byte, packet []byte) {
	t.Helper()

	if len(packet) == 0 {
		t.Fatalf("packet is empty, expected opcode 0x%02X", expected)
	}

	actual := packet[0]
	if actual != expected {
		t.Fatalf("packet opcode mismatch: expected 0x%02X, got 0x%02X", expected, actual)
	}
}

// AssertInt32LE проверяет, что int32 значение в пакете (little-endian) соответствует ожидаемому.
func AssertInt32LE(t testing.TB, expected int32, packet []byte, offset int) {
	t.Helper()

	if len(packet) < offset+4 {
		t.Fatalf("packet too short: need %d bytes for int32 at offset %d, got %d",
			offset+4, offset, len(packet))
	}

	actual := int32(binary.LittleEndian.Uint32(packet[offset:]))
	if actual != expected {
		t.Fatalf("int32 mismatch at offset %d: expected %d, got %d", offset, expected, actual)
	}
}

// AssertByteAtOffset проверяет, что байт в пакете соответствует ожидаемому.
func AssertByteAtOffset(t testing.TB, expected byte, packet []byte, offset int) {
	t.Helper()

	if len(packet) <= offset {
		t.Fatalf("packet too short: need %d bytes, got %d", offset+1, len(packet))
	}

	actual := packet[offset]
	if actual != expected {
		t.Fatalf("byte mismatch at offset %d: expected 0x%02X, got 0x%02X", offset, expected, actual)
	}
}

// AssertUTF16String проверяет, что UTF-16LE строка в пакете соответствует ожидаемой.
// Строка должна заканчиваться нулевым терминатором (0x00 0x00).
func AssertUTF16String(t testing.TB, expected string, packet []byte, offset int) {
	t.Helper()

	// Ищем null terminator
	nullIdx := -1
	for i := offset; i < len(packet)-1; i += 2 {
		if packet[i] == 0 && packet[i+1] == 0 {
			nullIdx = i
			break
		}
	}

	if nullIdx == -1 {
		t.Fatalf("UTF-16 string at offset %d has no null terminator", offset)
	}

	// Декодируем UTF-16LE
	utf16Data := packet[offset:nullIdx]
	if len(utf16Data)%2 != 0 {
		t.Fatalf("UTF-16 string at offset %d has odd length: %d", offset, len(utf16Data))
	}

	runes := make([]uint16, len(utf16Data)/2)
	for i := range runes {
		runes[i] = binary.LittleEndian.Uint16(utf16Data[i*2:])
	}

	actual := string(utf16.Decode(runes))
	if actual != expected {
		t.Fatalf("UTF-16 string mismatch at offset %d: expected %q, got %q", offset, expected, actual)
	}
}
