package swf

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
)

// LegacyEncoding returns the text encoding named by a config value, used for
// strings in movies older than version 6. Unknown names fall back to
// Windows-1252.
func LegacyEncoding(name string) encoding.Encoding {
	switch strings.ToLower(strings.ReplaceAll(name, "_", "-")) {
	case "shift-jis", "sjis", "shiftjis":
		return japanese.ShiftJIS
	case "euc-jp":
		return japanese.EUCJP
	case "iso-8859-1", "latin1":
		return charmap.ISO8859_1
	default:
		return charmap.Windows1252
	}
}

// decodeString turns raw tag string bytes into UTF-8. Version 6 and later
// store UTF-8 already.
func (p *parser) decodeString(raw []byte) string {
	if p.version >= 6 || p.legacy == nil {
		return strings.ToValidUTF8(string(raw), string(utf8.RuneError))
	}
	s, err := p.legacy.NewDecoder().Bytes(raw)
	if err != nil {
		return strings.ToValidUTF8(string(raw), string(utf8.RuneError))
	}
	return string(s)
}
