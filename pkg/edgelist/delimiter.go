package edgelist

import (
	"fmt"
	"strings"
)

// Delimiter separates the two columns of an edge record.
type Delimiter rune

// Supported delimiters
const (
	Whitespace Delimiter = ' '
	Tab        Delimiter = '\t'
	Comma      Delimiter = ','
)

// ParseDelimiter maps a delimiter name to its Delimiter. Names are matched
// case-insensitively: "whitespace" (or "space"), "tab", "comma".
func ParseDelimiter(s string) (Delimiter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "whitespace", "white-space", "space", "":
		return Whitespace, nil
	case "tab", "tsv":
		return Tab, nil
	case "comma", "csv":
		return Comma, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownDelimiter, s)
	}
}

func (d Delimiter) String() string {
	switch d {
	case Whitespace:
		return "whitespace"
	case Tab:
		return "tab"
	case Comma:
		return "comma"
	default:
		return fmt.Sprintf("Delimiter(%q)", rune(d))
	}
}

// orDefault returns Whitespace for the zero Delimiter.
func (d Delimiter) orDefault() Delimiter {
	if d == 0 {
		return Whitespace
	}
	return d
}

// MarshalText implements encoding.TextMarshaler.
func (d Delimiter) MarshalText() ([]byte, error) {
	return []byte(d.orDefault().String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler so delimiters can be
// named in configuration files.
func (d *Delimiter) UnmarshalText(text []byte) error {
	parsed, err := ParseDelimiter(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
