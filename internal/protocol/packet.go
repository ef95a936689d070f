// Package protocol frames packets on the wire: u16 LE length (counting itself)
// followed by the encrypted body.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/udisondev/la2login/internal/constants"
)

var (
	// ErrChecksum is returned for frames whose checksum does not verify.
	ErrChecksum = errors.New("packet checksum verification failed")

	// ErrMalformedFrame is returned for empty or misaligned frames.
	ErrMalformedFrame = errors.New("malformed packet frame")
)

// FrameCipher encrypts and decrypts frame bodies in place.
// crypto.LoginEncryption, crypto.ClientEncryption and crypto.GameServerEncryption implement it.
type FrameCipher interface {
	EncryptPacket(data []byte, offset, size int) (int, error)
	DecryptPacket(data []byte, offset, size int) (bool, error)
}

// EncryptInPlace encrypts the payload at buf[PacketHeaderSize:] and writes the
// length header. Returns the total frame length.
func EncryptInPlace(enc FrameCipher, buf []byte, payloadLen int) (int, error) {
	needed := constants.PacketHeaderSize + payloadLen + constants.PacketBufferPadding
	if payloadLen <= 0 || len(buf) < needed {
		return 0, fmt.Errorf("encrypt packet: payload %d does not fit buffer %d", payloadLen, len(buf))
	}

	encSize, err := enc.EncryptPacket(buf, constants.PacketHeaderSize, payloadLen)
	if err != nil {
		return 0, fmt.Errorf("encrypting packet: %w", err)
	}

	total := constants.PacketHeaderSize + encSize
	if total > constants.MaxPacketSize {
		return 0, fmt.Errorf("encrypt packet: frame of %d bytes exceeds u16 length", total)
	}
	binary.LittleEndian.PutUint16(buf[:constants.PacketHeaderSize], uint16(total))
	return total, nil
}

// WritePacket encrypts payload in place and writes the frame to w.
// The payload lives at buf[PacketHeaderSize : PacketHeaderSize+payloadLen].
func WritePacket(w io.Writer, enc FrameCipher, buf []byte, payloadLen int) error {
	total, err := EncryptInPlace(enc, buf, payloadLen)
	if err != nil {
		return err
	}
	if _, err := w.Write(buf[:total]); err != nil {
		return fmt.Errorf("writing packet: %w", err)
	}
	return nil
}

// ReadPacket reads one frame from r into buf, decrypts it and verifies its checksum.
// Returns the decrypted body (opcode first, checksum and padding still at the tail).
func ReadPacket(r io.Reader, enc FrameCipher, buf []byte) ([]byte, error) {
	var header [constants.PacketHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("reading packet header: %w", err)
	}

	totalLen := int(binary.LittleEndian.Uint16(header[:]))
	bodyLen := totalLen - constants.PacketHeaderSize
	if bodyLen <= 0 || bodyLen%constants.PacketPaddingAlign != 0 {
		return nil, fmt.Errorf("packet length %d: %w", totalLen, ErrMalformedFrame)
	}
	if bodyLen > len(buf) {
		return nil, fmt.Errorf("packet body %d exceeds buffer size %d", bodyLen, len(buf))
	}

	body := buf[:bodyLen]
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("reading packet body: %w", err)
	}

	ok, err := enc.DecryptPacket(body, 0, bodyLen)
	if err != nil {
		return nil, fmt.Errorf("decrypting packet: %w", err)
	}
	if !ok {
		return nil, ErrChecksum
	}
	return body, nil
}
