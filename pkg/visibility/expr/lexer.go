package expr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type kind int

const (
	kindEOF kind = iota
	kindIdent
	kindString
	kindNumber
	kindTrue
	kindFalse
	kindNull
	kindEq
	kindNeq
	kindLt
	kindLte
	kindGt
	kindGte
	kindAnd
	kindOr
	kindNot
	kindLParen
	kindRParen
)

type lexeme struct {
	kind kind
	text string
	pos  int
}

type lexer struct {
	src string
	pos int
	out []lexeme
}

func lex(src string) ([]lexeme, error) {
	l := &lexer{src: src}
	for {
		l.skipSpace()
		if l.pos >= len(l.src) {
			l.out = append(l.out, lexeme{kind: kindEOF, pos: l.pos})
			return l.out, nil
		}
		if err := l.next(); err != nil {
			return nil, err
		}
	}
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) && unicode.IsSpace(rune(l.src[l.pos])) {
		l.pos++
	}
}

func (l *lexer) emit(k kind, text string, start int) {
	l.out = append(l.out, lexeme{kind: k, text: text, pos: start})
}

// two emits a two-char operator when the second char matches, else the
// single-char fallback. A zero fallback means the single char is invalid.
func (l *lexer) two(second byte, double, single kind) error {
	start := l.pos
	if l.pos+1 < len(l.src) && l.src[l.pos+1] == second {
		l.pos += 2
		l.emit(double, l.src[start:l.pos], start)
		return nil
	}
	if single == kindEOF {
		return fmt.Errorf("expr: unexpected %q at %d", l.src[start], start)
	}
	l.pos++
	l.emit(single, l.src[start:l.pos], start)
	return nil
}

func (l *lexer) next() error {
	start := l.pos
	switch ch := l.src[l.pos]; ch {
	case '(':
		l.pos++
		l.emit(kindLParen, "(", start)
	case ')':
		l.pos++
		l.emit(kindRParen, ")", start)
	case '!':
		return l.two('=', kindNeq, kindNot)
	case '=':
		return l.two('=', kindEq, kindEOF)
	case '<':
		return l.two('=', kindLte, kindLt)
	case '>':
		return l.two('=', kindGte, kindGt)
	case '&':
		return l.two('&', kindAnd, kindEOF)
	case '|':
		return l.two('|', kindOr, kindEOF)
	case '"', '\'':
		return l.quoted(ch)
	default:
		return l.word()
	}
	return nil
}

func (l *lexer) quoted(quote byte) error {
	start := l.pos
	l.pos++
	var b strings.Builder
	for l.pos < len(l.src) {
		ch := l.src[l.pos]
		l.pos++
		switch {
		case ch == '\\' && l.pos < len(l.src):
			b.WriteByte(l.src[l.pos])
			l.pos++
		case ch == quote:
			l.emit(kindString, b.String(), start)
			return nil
		default:
			b.WriteByte(ch)
		}
	}
	return fmt.Errorf("expr: unterminated string starting at %d", start)
}

func (l *lexer) word() error {
	start := l.pos
	for l.pos < len(l.src) && isWordByte(l.src[l.pos]) {
		l.pos++
	}
	if l.pos == start {
		return fmt.Errorf("expr: unexpected %q at %d", l.src[start], start)
	}
	text := l.src[start:l.pos]
	switch strings.ToLower(text) {
	case "true":
		l.emit(kindTrue, text, start)
	case "false":
		l.emit(kindFalse, text, start)
	case "null", "nil":
		l.emit(kindNull, text, start)
	case "and":
		l.emit(kindAnd, text, start)
	case "or":
		l.emit(kindOr, text, start)
	case "not":
		l.emit(kindNot, text, start)
	default:
		if _, err := strconv.ParseFloat(text, 64); err == nil {
			l.emit(kindNumber, text, start)
		} else {
			l.emit(kindIdent, text, start)
		}
	}
	return nil
}

func isWordByte(ch byte) bool {
	switch {
	case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		return true
	case ch == '_' || ch == '.' || ch == '-' || ch == '+':
		return true
	default:
		return false
	}
}
