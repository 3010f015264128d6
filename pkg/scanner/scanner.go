package scanner

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Scanner provides rune based access to a single line
// of input.
type Scanner interface {
	Next() rune
	Current() rune
	Position() int
	EOF() bool

	ConsumeRune(r rune) error
	ConsumeString(s string) bool
	SkipBlanks() rune
	While(f func(rune) bool) string
	Rest() string

	Errorf(msg string, args ...interface{}) error
}

type scanner struct {
	in      string
	start   int
	offset  int
	no      int
	current rune
}

func NewScanner(in string) Scanner {
	s := &scanner{
		in: in,
	}
	s.Next()
	return s
}

func (s *scanner) Next() rune {
	s.start = s.offset
	if s.offset >= len(s.in) {
		s.current = 0
		return 0
	}
	r, size := utf8.DecodeRuneInString(s.in[s.offset:])
	s.current = r
	s.offset += size
	s.no++
	return r
}

func (s *scanner) EOF() bool {
	return s.start >= len(s.in)
}

func (s *scanner) ConsumeRune(r rune) error {
	if s.Current() != r {
		return s.Errorf("%q expected", string(r))
	}
	s.Next()
	return nil
}

// ConsumeString consumes the given string if the
// remaining input starts with it.
func (s *scanner) ConsumeString(str string) bool {
	if s.EOF() || !strings.HasPrefix(s.in[s.start:], str) {
		return false
	}
	for range str {
		s.Next()
	}
	return true
}

func (s *scanner) Current() rune {
	return s.current
}

// Position is the 1-based rune position of the current rune.
func (s *scanner) Position() int {
	return s.no
}

func (s *scanner) SkipBlanks() rune {
	n := s.Current()
	for !s.EOF() && unicode.IsSpace(n) {
		n = s.Next()
	}
	return n
}

// While consumes all runes matching the given predicate
// and returns them.
func (s *scanner) While(f func(rune) bool) string {
	start := s.start
	for !s.EOF() && f(s.current) {
		s.Next()
	}
	return s.in[start:s.start]
}

// Rest consumes the remaining input.
func (s *scanner) Rest() string {
	rest := s.in[s.start:]
	s.offset = len(s.in)
	s.Next()
	return rest
}

func (s *scanner) Errorf(msg string, args ...interface{}) error {
	return fmt.Errorf("%q, column %d: %s", s.in, s.Position(), fmt.Sprintf(msg, args...))
}
