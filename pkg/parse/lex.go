package parse

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"src.adam.sh/pkg/diag"
)

type tokenType uint8

const (
	tEOF tokenType = iota
	tIdent
	tNumber
	tString
	tName
	tPunct
)

type token struct {
	typ tokenType
	// Source text for identifiers and punctuation, decoded text for strings
	// and names.
	text string
	num  float64
	diag.Ranging
}

func (t token) String() string {
	switch t.typ {
	case tEOF:
		return "end of input"
	case tString:
		return strconv.Quote(t.text)
	case tName:
		return "@" + t.text
	}
	return strconv.Quote(t.text)
}

func (t token) is(typ tokenType, text string) bool {
	return t.typ == typ && t.text == text
}

// Punctuation, longest first so that the lexer can match greedily.
var puncts = []string{
	"<==", "==", "!=", "<=", ">=", "&&", "||",
	"+", "-", "*", "/", "%", "<", ">", "!", "?", ":", ";", ",", ".",
	"(", ")", "[", "]", "{", "}", "=",
}

// lexer splits a source into tokens.
type lexer struct {
	src string
	pos int
}

// next returns the next token, or an error with the range of the offending
// text.
func (lx *lexer) next() (token, *lexError) {
	if err := lx.skipSpace(); err != nil {
		return token{}, err
	}
	begin := lx.pos
	if lx.pos == len(lx.src) {
		return token{typ: tEOF, Ranging: diag.PointRanging(begin)}, nil
	}
	r, size := utf8.DecodeRuneInString(lx.src[lx.pos:])
	switch {
	case isIdentStart(r):
		lx.pos += size
		lx.skipWhile(isIdentRest)
		return lx.token(tIdent, begin, lx.src[begin:lx.pos]), nil
	case r == '@':
		lx.pos++
		nameBegin := lx.pos
		if r, _ := utf8.DecodeRuneInString(lx.src[lx.pos:]); !isIdentStart(r) {
			return token{}, lx.error(begin, lx.pos, "@ should be followed by a name")
		}
		lx.skipWhile(isIdentRest)
		return lx.token(tName, begin, lx.src[nameBegin:lx.pos]), nil
	case isDigit(r) || (r == '.' && lx.pos+1 < len(lx.src) && isDigit(rune(lx.src[lx.pos+1]))):
		return lx.number(begin)
	case r == '\'' || r == '"':
		return lx.string(begin, byte(r))
	}
	for _, p := range puncts {
		if strings.HasPrefix(lx.src[lx.pos:], p) {
			lx.pos += len(p)
			return lx.token(tPunct, begin, p), nil
		}
	}
	return token{}, lx.error(begin, begin+size, fmt.Sprintf("unexpected character %q", r))
}

func (lx *lexer) token(typ tokenType, begin int, text string) token {
	return token{typ: typ, text: text, Ranging: diag.Ranging{From: begin, To: lx.pos}}
}

func (lx *lexer) number(begin int) (token, *lexError) {
	lx.skipWhile(isDigit)
	if lx.pos < len(lx.src) && lx.src[lx.pos] == '.' {
		lx.pos++
		lx.skipWhile(isDigit)
	}
	if lx.pos < len(lx.src) && (lx.src[lx.pos] == 'e' || lx.src[lx.pos] == 'E') {
		save := lx.pos
		lx.pos++
		if lx.pos < len(lx.src) && (lx.src[lx.pos] == '+' || lx.src[lx.pos] == '-') {
			lx.pos++
		}
		if lx.pos < len(lx.src) && isDigit(rune(lx.src[lx.pos])) {
			lx.skipWhile(isDigit)
		} else {
			lx.pos = save
		}
	}
	text := lx.src[begin:lx.pos]
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return token{}, lx.error(begin, lx.pos, "bad number "+text)
	}
	t := lx.token(tNumber, begin, text)
	t.num = f
	return t, nil
}

// Single-quoted strings are raw; double-quoted strings support Go escapes.
func (lx *lexer) string(begin int, quote byte) (token, *lexError) {
	lx.pos++
	for lx.pos < len(lx.src) && lx.src[lx.pos] != quote {
		if quote == '"' && lx.src[lx.pos] == '\\' {
			lx.pos++
		}
		lx.pos++
	}
	if lx.pos >= len(lx.src) {
		return token{}, lx.error(begin, len(lx.src), "string not terminated")
	}
	lx.pos++
	raw := lx.src[begin:lx.pos]
	text := raw[1 : len(raw)-1]
	if quote == '"' {
		s, err := strconv.Unquote(raw)
		if err != nil {
			return token{}, lx.error(begin, lx.pos, "invalid escape sequence")
		}
		text = s
	}
	return lx.token(tString, begin, text), nil
}

func (lx *lexer) skipSpace() *lexError {
	for lx.pos < len(lx.src) {
		switch {
		case strings.HasPrefix(lx.src[lx.pos:], "//"):
			for lx.pos < len(lx.src) && lx.src[lx.pos] != '\n' {
				lx.pos++
			}
		case strings.HasPrefix(lx.src[lx.pos:], "/*"):
			end := strings.Index(lx.src[lx.pos+2:], "*/")
			if end == -1 {
				return lx.error(lx.pos, len(lx.src), "comment not terminated")
			}
			lx.pos += end + 4
		default:
			r, size := utf8.DecodeRuneInString(lx.src[lx.pos:])
			if !unicode.IsSpace(r) {
				return nil
			}
			lx.pos += size
		}
	}
	return nil
}

func (lx *lexer) skipWhile(f func(rune) bool) {
	for lx.pos < len(lx.src) {
		r, size := utf8.DecodeRuneInString(lx.src[lx.pos:])
		if !f(r) {
			return
		}
		lx.pos += size
	}
}

type lexError struct {
	diag.Ranging
	msg string
}

func (lx *lexer) error(from, to int, msg string) *lexError {
	return &lexError{diag.Ranging{From: from, To: to}, msg}
}

func isIdentStart(r rune) bool { return r == '_' || unicode.IsLetter(r) }

func isIdentRest(r rune) bool { return isIdentStart(r) || unicode.IsDigit(r) }

func isDigit(r rune) bool { return '0' <= r && r <= '9' }

// IsIdentifier reports whether s can be written as a bare identifier.
func IsIdentifier(s string) bool {
	if s == "" || keywords[s] {
		return false
	}
	for i, r := range s {
		if i == 0 && !isIdentStart(r) || !isIdentRest(r) {
			return false
		}
	}
	return true
}

// Words that cannot be used as variable names.
var keywords = map[string]bool{
	"true": true, "false": true, "empty": true,
	"constant": true, "if": true, "else": true, "for": true,
	"continue": true, "break": true, "return": true,
}
