package upload

import (
	"fmt"
	"math/rand/v2"
	"path"
	"strings"
	"time"
)

const fallbackName = "file"

// FileName builds the stored name for an upload:
// "<unix millis>-<random 0..1e9>-<original base name>". The extension of the
// original name is preserved.
func FileName(originalName string, now time.Time) string {
	return fmt.Sprintf("%d-%d-%s", now.UnixMilli(), rand.IntN(1e9), sanitize(originalName))
}

// sanitize drops any directory part a client may send with the file name
func sanitize(originalName string) string {
	name := strings.ReplaceAll(originalName, `\`, "/")
	name = path.Base(name)
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)

	if name == "" || name == "." || name == ".." || name == "/" {
		return fallbackName
	}
	return name
}
