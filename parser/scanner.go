package parser

import (
	"fmt"
	"strings"

	"github.com/vkngwrapper/rmlog/rmutils"
)

// param is one key=value token. A value is either an atom or a brace group of nested params.
type param struct {
	key    string
	atom   string
	group  []param
	nested bool
	offset int
}

// SyntaxError describes where a parameter list stopped being well formed
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("offset %d: %s", e.Offset, e.Msg)
}

func (e *SyntaxError) Unwrap() error {
	return rmutils.ErrSyntax
}

// scanner is a recursive-descent reader for the driver log's parameter lists:
//
//	list  = [ item { "," item } ]
//	item  = key "=" value
//	value = "{" list "}" | atom
//	atom  = any run of characters up to "," "}" or ")" at depth zero; "(" ... ")" is kept whole
type scanner struct {
	src string
	pos int
}

func scanParams(src string) ([]param, error) {
	s := &scanner{src: src}
	params, err := s.list()
	if err != nil {
		return nil, err
	}
	s.skipSpace()
	if s.pos != len(s.src) {
		return nil, s.errorf("unexpected %q after parameter list", s.src[s.pos])
	}
	return params, nil
}

func (s *scanner) errorf(format string, args ...any) error {
	return &SyntaxError{Offset: s.pos, Msg: fmt.Sprintf(format, args...)}
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.src) && (s.src[s.pos] == ' ' || s.src[s.pos] == '\t') {
		s.pos++
	}
}

func (s *scanner) peek() byte {
	if s.pos >= len(s.src) {
		return 0
	}
	return s.src[s.pos]
}

func (s *scanner) list() ([]param, error) {
	var params []param

	s.skipSpace()
	if s.pos == len(s.src) || s.peek() == '}' {
		return params, nil
	}

	for {
		p, err := s.item()
		if err != nil {
			return nil, err
		}
		params = append(params, p)

		s.skipSpace()
		if s.peek() != ',' {
			return params, nil
		}
		s.pos++
	}
}

func (s *scanner) item() (param, error) {
	s.skipSpace()
	start := s.pos
	for s.pos < len(s.src) && isKeyChar(s.src[s.pos]) {
		s.pos++
	}
	if s.pos == start {
		return param{}, s.errorf("expected parameter name")
	}
	key := s.src[start:s.pos]

	s.skipSpace()
	if s.peek() != '=' {
		return param{}, s.errorf("expected '=' after %q", key)
	}
	s.pos++
	s.skipSpace()

	if s.peek() == '{' {
		s.pos++
		group, err := s.list()
		if err != nil {
			return param{}, err
		}
		s.skipSpace()
		if s.peek() != '}' {
			return param{}, s.errorf("unterminated group %q", key)
		}
		s.pos++
		return param{key: key, group: group, nested: true, offset: start}, nil
	}

	atom, err := s.atom()
	if err != nil {
		return param{}, err
	}
	return param{key: key, atom: atom, offset: start}, nil
}

func (s *scanner) atom() (string, error) {
	start := s.pos
	depth := 0
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == '(':
			depth++
		case c == ')' && depth > 0:
			depth--
		case depth == 0 && (c == ',' || c == '}' || c == ')' || c == '{'):
			return s.finishAtom(start)
		}
		s.pos++
	}
	if depth != 0 {
		return "", s.errorf("unbalanced parenthesis in value")
	}
	return s.finishAtom(start)
}

func (s *scanner) finishAtom(start int) (string, error) {
	atom := strings.TrimSpace(s.src[start:s.pos])
	if atom == "" {
		return "", s.errorf("empty value")
	}
	return atom, nil
}

func isKeyChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// matchParen returns the index of the parenthesis closing the one at open, or -1
func matchParen(src string, open int) int {
	depth := 0
	for i := open; i < len(src); i++ {
		switch src[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
