package models

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// CheckEmbeddablePath returns ErrPathEncoding when p cannot be carried inside
// a generated command or script: it is empty, not valid UTF-8, or contains a
// NUL byte or a line break.
func CheckEmbeddablePath(p string) error {
	switch {
	case p == "":
		return fmt.Errorf("%w: empty path", ErrPathEncoding)
	case !utf8.ValidString(p):
		return fmt.Errorf("%w: %q is not valid UTF-8", ErrPathEncoding, p)
	case strings.ContainsAny(p, "\x00\n\r"):
		return fmt.Errorf("%w: %q contains a control character", ErrPathEncoding, p)
	}
	return nil
}
