// Package packet reads and writes the primitive wire types shared by both
// channels: little-endian integers, UTF-16LE null-terminated strings and raw blocks.
package packet

import (
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/text/encoding/unicode"
)

// ErrShortBuffer is returned when a read runs past the end of the packet body.
var ErrShortBuffer = errors.New("packet: not enough data")

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// Reader читает тело пакета. Опкод снимается до создания Reader,
// поэтому курсор стоит на первом байте после него.
type Reader struct {
	data []byte
	pos  int
}

// NewReader creates a Reader over body (the packet without its opcode byte).
func NewReader(body []byte) *Reader {
	return &Reader{data: body}
}

func (r *Reader) need(op string, n int) error {
	if n < 0 || r.pos+n > len(r.data) {
		return fmt.Errorf("%s at %d (need %d, len %d): %w", op, r.pos, n, len(r.data), ErrShortBuffer)
	}
	return nil
}

// ReadByte reads a u8 (C).
func (r *Reader) ReadByte() (byte, error) {
	if err := r.need("ReadByte", 1); err != nil {
		return 0, err
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// ReadShort reads an int16 (H).
func (r *Reader) ReadShort() (int16, error) {
	if err := r.need("ReadShort", 2); err != nil {
		return 0, err
	}
	v := int16(binary.LittleEndian.Uint16(r.data[r.pos:]))
	r.pos += 2
	return v, nil
}

// ReadInt reads an int32 (D).
func (r *Reader) ReadInt() (int32, error) {
	if err := r.need("ReadInt", 4); err != nil {
		return 0, err
	}
	v := int32(binary.LittleEndian.Uint32(r.data[r.pos:]))
	r.pos += 4
	return v, nil
}

// ReadLong reads an int64 (Q).
func (r *Reader) ReadLong() (int64, error) {
	if err := r.need("ReadLong", 8); err != nil {
		return 0, err
	}
	v := int64(binary.LittleEndian.Uint64(r.data[r.pos:]))
	r.pos += 8
	return v, nil
}

// ReadString reads a UTF-16LE string terminated by two zero bytes (S).
func (r *Reader) ReadString() (string, error) {
	end := r.pos
	for {
		if end+2 > len(r.data) {
			return "", fmt.Errorf("ReadString at %d: missing terminator: %w", r.pos, ErrShortBuffer)
		}
		if r.data[end] == 0 && r.data[end+1] == 0 {
			break
		}
		end += 2
	}

	s, err := utf16le.NewDecoder().Bytes(r.data[r.pos:end])
	if err != nil {
		return "", fmt.Errorf("ReadString at %d: %w", r.pos, err)
	}
	r.pos = end + 2
	return string(s), nil
}

// ReadBytes reads n raw bytes (B). The result is a copy.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if err := r.need("ReadBytes", n); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	copy(b, r.data[r.pos:])
	r.pos += n
	return b, nil
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// Position returns the cursor offset within the body.
func (r *Reader) Position() int {
	return r.pos
}
