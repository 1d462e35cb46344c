package gateway

import (
	"encoding/hex"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// maxExtLen bounds the extension carried over from a client file name.
const maxExtLen = 16

// GenerateKey returns "<folder>/<unixMillis>-<12 hex><ext>" where ext is the
// extension of filename. The 48 random bits come from a version 4 UUID.
func GenerateKey(folder, filename string) string {
	return newKey(folder, filename, time.Now(), uuid.New())
}

func newKey(folder, filename string, now time.Time, id uuid.UUID) string {
	var b strings.Builder
	b.WriteString(strings.TrimSuffix(folder, "/"))
	b.WriteByte('/')
	b.WriteString(strconv.FormatInt(now.UnixMilli(), 10))
	b.WriteByte('-')
	// bytes 0..5 of a v4 UUID carry no version or variant bits
	b.WriteString(hex.EncodeToString(id[:6]))
	b.WriteString(extension(filename))
	return b.String()
}

// extension returns the extension of name, or "" when it is too long or
// holds anything but ASCII letters, digits, '-' and '_'.
func extension(name string) string {
	name = name[strings.LastIndexAny(name, `/\`)+1:]
	ext := path.Ext(name)
	if len(ext) < 2 || len(ext) > maxExtLen {
		return ""
	}
	for _, r := range ext[1:] {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return ""
		}
	}
	return ext
}
