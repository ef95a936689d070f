package crypto

import "encoding/binary"

// AppendChecksum XOR-folds every 32-bit LE word of data[offset:offset+size]
// except the last one and writes the result into the last 4 bytes.
// size must be a multiple of 4.
func AppendChecksum(data []byte, offset, size int) {
	var checksum uint32
	end := offset + size - 4
	for i := offset; i < end; i += 4 {
		checksum ^= binary.LittleEndian.Uint32(data[i:])
	}
	binary.LittleEndian.PutUint32(data[end:], checksum)
}

// VerifyChecksum reports whether the last word of the range equals the XOR of
// all preceding words. Frames of 4 bytes or less, or not aligned to 4, never verify.
func VerifyChecksum(data []byte, offset, size int) bool {
	if size <= 4 || size%4 != 0 || offset+size > len(data) {
		return false
	}
	var checksum uint32
	end := offset + size - 4
	for i := offset; i < end; i += 4 {
		checksum ^= binary.LittleEndian.Uint32(data[i:])
	}
	return checksum == binary.LittleEndian.Uint32(data[end:])
}

// EncXORPass обфусцирует первый кадр клиентского канала (Init).
// Слова начиная с offset+4 и до offset+size-8 проходят через накопитель:
// ecx += word; word ^= ecx. Итоговое значение накопителя пишется в offset+size-8,
// последние 4 байта остаются под контрольную сумму.
func EncXORPass(data []byte, offset, size int, key uint32) {
	stop := offset + size - 8
	pos := offset + 4
	ecx := key
	for ; pos < stop; pos += 4 {
		edx := binary.LittleEndian.Uint32(data[pos:])
		ecx += edx
		edx ^= ecx
		binary.LittleEndian.PutUint32(data[pos:], edx)
	}
	binary.LittleEndian.PutUint32(data[pos:], ecx)
}

// DecXORPass reverses EncXORPass. The client side runs it on the Init frame
// after the static Blowfish layer has been removed.
func DecXORPass(data []byte, offset, size int) {
	stop := offset + 4
	pos := offset + size - 8
	ecx := binary.LittleEndian.Uint32(data[pos:])
	for pos -= 4; pos >= stop; pos -= 4 {
		edx := binary.LittleEndian.Uint32(data[pos:])
		edx ^= ecx
		ecx -= edx
		binary.LittleEndian.PutUint32(data[pos:], edx)
	}
}
