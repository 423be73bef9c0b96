package config

import (
	"errors"
	"fmt"
	"strconv"
)

var ErrBadEscape = errors.New("config: bad escape sequence")

// ParseEscaped decodes the byte escapes used in profile files: \0 \r \n \t \\
// and \xHH. Any other byte is taken literally.
func ParseEscaped(s string) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			out = append(out, c)
			continue
		}
		i++
		if i == len(s) {
			return nil, fmt.Errorf("%w: trailing backslash in %q", ErrBadEscape, s)
		}
		switch s[i] {
		case '0':
			out = append(out, 0)
		case 'r':
			out = append(out, '\r')
		case 'n':
			out = append(out, '\n')
		case 't':
			out = append(out, '\t')
		case '\\':
			out = append(out, '\\')
		case 'x':
			if i+2 >= len(s) {
				return nil, fmt.Errorf("%w: short \\x in %q", ErrBadEscape, s)
			}
			v, err := strconv.ParseUint(s[i+1:i+3], 16, 8)
			if err != nil {
				return nil, fmt.Errorf("%w: \\x%s in %q", ErrBadEscape, s[i+1:i+3], s)
			}
			out = append(out, byte(v))
			i += 2
		default:
			return nil, fmt.Errorf("%w: \\%c in %q", ErrBadEscape, s[i], s)
		}
	}
	return out, nil
}

// FormatEscaped is the inverse of ParseEscaped for display. Double quotes are
// written as \x22 so the result can sit inside quotes.
func FormatEscaped(b []byte) string {
	out := make([]byte, 0, len(b))
	for _, c := range b {
		switch {
		case c == 0:
			out = append(out, `\0`...)
		case c == '\r':
			out = append(out, `\r`...)
		case c == '\n':
			out = append(out, `\n`...)
		case c == '\t':
			out = append(out, `\t`...)
		case c == '\\':
			out = append(out, `\\`...)
		case c == '"':
			out = append(out, `\x22`...)
		case c < 0x20 || c >= 0x7F:
			out = append(out, fmt.Sprintf(`\x%02X`, c)...)
		default:
			out = append(out, c)
		}
	}
	return string(out)
}
