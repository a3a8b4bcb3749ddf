package config

import (
	"fmt"
	"strings"
	"unicode"
)

// argvScanner splits a shell-like command line. It understands quotes and
// backslash escapes but no expansion or operators.
type argvScanner struct {
	argv    []string
	word    strings.Builder
	inWord  bool
	quote   rune
	escaped bool
}

func (s *argvScanner) emit() {
	if !s.inWord {
		return
	}
	s.argv = append(s.argv, s.word.String())
	s.word.Reset()
	s.inWord = false
}

func (s *argvScanner) add(r rune) {
	s.word.WriteRune(r)
	s.inWord = true
}

// step consumes r and reports false once an unquoted comment starts.
func (s *argvScanner) step(r rune) bool {
	switch {
	case s.escaped:
		s.add(r)
		s.escaped = false
	case s.quote != 0:
		if r == s.quote {
			s.quote = 0
		} else {
			s.add(r)
		}
	case r == '\\':
		s.escaped = true
		s.inWord = true
	case r == '\'' || r == '"':
		s.quote = r
		s.inWord = true
	case r == '#' && !s.inWord:
		return false
	case unicode.IsSpace(r):
		s.emit()
	default:
		s.add(r)
	}
	return true
}

// parseArgv splits input into argv. Text after an unquoted "#" that starts a
// word is ignored, so a fully commented value yields nil. Empty quotes
// produce an empty argument.
func parseArgv(input string) ([]string, error) {
	var s argvScanner
	for _, r := range strings.TrimSpace(input) {
		if !s.step(r) {
			break
		}
	}

	switch {
	case s.escaped:
		return nil, fmt.Errorf("unterminated escape sequence in command: %q", input)
	case s.quote != 0:
		return nil, fmt.Errorf("unterminated quote in command: %q", input)
	}
	s.emit()
	return s.argv, nil
}

// ExpandArgv replaces {name} placeholders in each argument with vars[name].
// Unknown placeholders are left untouched.
func ExpandArgv(argv []string, vars map[string]string) []string {
	if len(argv) == 0 {
		return nil
	}
	pairs := make([]string, 0, len(vars)*2)
	for name, value := range vars {
		pairs = append(pairs, "{"+name+"}", value)
	}
	replacer := strings.NewReplacer(pairs...)

	out := make([]string, len(argv))
	for i, arg := range argv {
		out[i] = replacer.Replace(arg)
	}
	return out
}
