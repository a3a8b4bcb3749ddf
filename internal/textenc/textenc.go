// Package textenc converts filename bytes of unknown encoding into UTF-8.
package textenc

import (
	"bytes"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
)

// FallbackCharset is guessed when the locale names no charset.
const FallbackCharset = "windows-1252"

var replacement = []byte(string(utf8.RuneError))

// ToUTF8 returns raw as UTF-8 text. Valid UTF-8 is returned unchanged;
// otherwise raw is decoded from charset (or FallbackCharset when charset is
// empty). When decoding is lossy the raw bytes are passed through untouched.
func ToUTF8(raw []byte, charset string) string {
	if utf8.Valid(raw) {
		return string(raw)
	}

	name := strings.TrimSpace(charset)
	if name == "" {
		name = FallbackCharset
	}
	enc := lookup(name)
	if enc == nil {
		enc = charmap.Windows1252
	}

	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil || !utf8.Valid(decoded) || bytes.Contains(decoded, replacement) {
		return string(raw)
	}
	return string(decoded)
}

func lookup(name string) encoding.Encoding {
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil
	}
	return enc
}

// LocaleCharset returns the charset named by LC_ALL, LC_CTYPE or LANG, in
// that order of precedence, or "" when none names one.
func LocaleCharset() string {
	for _, key := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
		value := strings.TrimSpace(os.Getenv(key))
		if value == "" {
			continue
		}
		return charsetOf(value)
	}
	return ""
}

// charsetOf extracts "ISO-8859-15" from "de_DE.ISO-8859-15@euro".
func charsetOf(locale string) string {
	if at := strings.IndexByte(locale, '@'); at >= 0 {
		locale = locale[:at]
	}
	dot := strings.IndexByte(locale, '.')
	if dot < 0 {
		return ""
	}
	return locale[dot+1:]
}
