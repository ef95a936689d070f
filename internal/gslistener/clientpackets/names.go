package clientpackets

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/udisondev/la2login/internal/constants"
	"github.com/udisondev/la2login/internal/packet"
)

// ErrNameTooLong — имя длиннее, чем допускает хранилище.
var ErrNameTooLong = errors.New("name too long")

func readAccount(r *packet.Reader) (string, error) {
	return readName(r, constants.MaxAccountNameLength)
}

// readName читает строку и отвергает её, если в ней больше max символов.
func readName(r *packet.Reader, max int) (string, error) {
	s, err := r.ReadString()
	if err != nil {
		return "", err
	}
	if n := utf8.RuneCountInString(s); n > max {
		return "", fmt.Errorf("%w: %d characters, at most %d", ErrNameTooLong, n, max)
	}
	return s, nil
}
