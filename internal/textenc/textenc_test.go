package textenc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToUTF8PassesValidUTF8Through(t *testing.T) {
	require.Equal(t, "/tmp/naïve.txt", ToUTF8([]byte("/tmp/naïve.txt"), "ISO-8859-1"))
}

func TestToUTF8DecodesLocaleCharset(t *testing.T) {
	raw := []byte("/tmp/caf\xe9.txt")
	require.Equal(t, "/tmp/café.txt", ToUTF8(raw, "ISO-8859-1"))
}

func TestToUTF8GuessesWhenLocaleHasNoCharset(t *testing.T) {
	raw := []byte("/tmp/\x93quoted\x94")
	require.Equal(t, "/tmp/“quoted”", ToUTF8(raw, ""))
}

func TestToUTF8UnknownCharsetFallsBackToGuess(t *testing.T) {
	raw := []byte("/tmp/caf\xe9")
	require.Equal(t, "/tmp/café", ToUTF8(raw, "not-a-charset"))
}

func TestToUTF8PassesRawBytesWhenDecodingIsLossy(t *testing.T) {
	raw := []byte("/tmp/\xff\xfe")
	require.Equal(t, string(raw), ToUTF8(raw, "utf-8"))
}

func TestLocaleCharsetPrecedence(t *testing.T) {
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_CTYPE", "de_DE.ISO-8859-15@euro")
	t.Setenv("LANG", "en_US.UTF-8")
	require.Equal(t, "ISO-8859-15", LocaleCharset())

	t.Setenv("LC_ALL", "fr_FR.windows-1252")
	require.Equal(t, "windows-1252", LocaleCharset())
}

func TestLocaleCharsetWithoutCharset(t *testing.T) {
	t.Setenv("LC_ALL", "C")
	require.Equal(t, "", LocaleCharset())
}
