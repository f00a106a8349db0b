// validation.go - Upload name checks and filename sanitization
package server

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// IsPDFName reports whether filename ends in ".pdf", ignoring case.
func IsPDFName(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".pdf")
}

// SanitizeFilename reduces an uploaded filename to a safe basename made only
// of ASCII letters, digits, '_', '.' and '-'. A '/' becomes a word break, so
// "../../etc/passwd.pdf" becomes "etc_passwd.pdf"; a '\' is simply dropped.
// The result may be empty when nothing safe remains.
func SanitizeFilename(filename string) string {
	// Decompose accented characters and drop whatever is not ASCII.
	decomposed := norm.NFKD.String(filename)
	var ascii strings.Builder
	ascii.Grow(len(decomposed))
	for i := 0; i < len(decomposed); i++ {
		if c := decomposed[i]; c < 0x80 {
			ascii.WriteByte(c)
		}
	}
	filename = ascii.String()

	filename = strings.ReplaceAll(filename, "/", " ")

	filename = strings.Join(strings.Fields(filename), "_")
	filename = unsafeFilenameChars.ReplaceAllString(filename, "")
	return strings.Trim(filename, "._")
}
