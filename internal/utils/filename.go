package utils

import (
	"regexp"
	"strings"
)

// maxFileStem leaves room for an extension within the usual 255 byte limit.
const maxFileStem = 200

var (
	// Characters invalid in filenames on most filesystems
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
)

// ValidFileStem reports whether s can be used unchanged as a file name
// without an extension: no separators or reserved characters, no leading dot
// and no surrounding whitespace.
func ValidFileStem(s string) bool {
	if s == "" || len(s) > maxFileStem {
		return false
	}
	if strings.TrimSpace(s) != s || strings.HasPrefix(s, ".") {
		return false
	}
	return !invalidFilenameChars.MatchString(s)
}
