package packet

import (
	"encoding/binary"
	"errors"
)

// ErrBufferOverflow — пакет не поместился в буфер.
var ErrBufferOverflow = errors.New("packet: writer buffer overflow")

// Writer пишет пакет прямо в буфер соединения (обычно sendBuf[2:]).
// Запись за границу буфера не выполняется: Writer запоминает ErrBufferOverflow
// и игнорирует все последующие записи.
type Writer struct {
	buf []byte
	pos int
	err error
}

// NewWriter creates a Writer positioned at buf[0].
func NewWriter(buf []byte) *Writer {
	return &Writer{buf: buf}
}

// reserve returns the next n bytes of the buffer, or nil after an overflow.
func (w *Writer) reserve(n int) []byte {
	if w.err != nil {
		return nil
	}
	if n > len(w.buf)-w.pos {
		w.err = ErrBufferOverflow
		return nil
	}
	b := w.buf[w.pos : w.pos+n]
	w.pos += n
	return b
}

// WriteU8 writes a u8 (C).
func (w *Writer) WriteU8(v byte) {
	if b := w.reserve(1); b != nil {
		b[0] = v
	}
}

// WriteBool writes 1 or 0 as a u8.
func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteU8(1)
		return
	}
	w.WriteU8(0)
}

// WriteShort writes an int16 (H).
func (w *Writer) WriteShort(v int16) {
	if b := w.reserve(2); b != nil {
		binary.LittleEndian.PutUint16(b, uint16(v))
	}
}

// WriteInt writes an int32 (D).
func (w *Writer) WriteInt(v int32) {
	if b := w.reserve(4); b != nil {
		binary.LittleEndian.PutUint32(b, uint32(v))
	}
}

// WriteLong writes an int64 (Q).
func (w *Writer) WriteLong(v int64) {
	if b := w.reserve(8); b != nil {
		binary.LittleEndian.PutUint64(b, uint64(v))
	}
}

// WriteString writes s as UTF-16LE followed by two zero bytes (S).
func (w *Writer) WriteString(s string) {
	if s != "" {
		// невалидный UTF-8 кодировщик заменяет на U+FFFD, ошибки здесь не бывает
		enc, _ := utf16le.NewEncoder().Bytes([]byte(s))
		w.WriteBytes(enc)
	}
	w.WriteShort(0)
}

// WriteBytes writes b verbatim (B).
func (w *Writer) WriteBytes(p []byte) {
	if b := w.reserve(len(p)); b != nil {
		copy(b, p)
	}
}

// WriteZeros writes n zero bytes.
func (w *Writer) WriteZeros(n int) {
	if b := w.reserve(n); b != nil {
		clear(b)
	}
}

// Err returns ErrBufferOverflow if any write did not fit.
func (w *Writer) Err() error {
	return w.err
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return w.pos
}

// Bytes returns the written part of the buffer.
func (w *Writer) Bytes() []byte {
	return w.buf[:w.pos]
}
