package login

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadBanFile adds the bans listed in path. A missing file is not an error.
// Returns the number of entries read.
func (c *Controller) LoadBanFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Info("ban file not found, skipping", "path", path)
			return 0, nil
		}
		return 0, fmt.Errorf("opening ban file: %w", err)
	}
	defer f.Close()

	entries, err := ParseBanFile(f)
	if err != nil {
		return 0, fmt.Errorf("reading ban file %s: %w", path, err)
	}
	for _, e := range entries {
		c.BanAddressUntil(e.Address, e.Expires)
	}
	slog.Info("ban file loaded", "path", path, "entries", len(entries))
	return len(entries), nil
}

// ParseBanFile reads lines of the form "address [expiry-epoch-ms] [# comment]".
// A missing or zero expiry means a permanent ban. Malformed lines are skipped.
func ParseBanFile(r io.Reader) ([]BanEntry, error) {
	var entries []BanEntry
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line, _, _ := strings.Cut(sc.Text(), "#")
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		if _, err := netip.ParseAddr(fields[0]); err != nil {
			slog.Warn("ban file: skipping invalid address", "line", lineNo, "address", fields[0])
			continue
		}

		entry := BanEntry{Address: fields[0]}
		if len(fields) > 1 {
			ms, err := strconv.ParseInt(fields[1], 10, 64)
			if err != nil {
				slog.Warn("ban file: skipping invalid expiry", "line", lineNo, "value", fields[1])
				continue
			}
			if ms > 0 {
				entry.Expires = time.UnixMilli(ms)
			}
		}
		entries = append(entries, entry)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
