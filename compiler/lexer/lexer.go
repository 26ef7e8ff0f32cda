package lexer

import (
	"bufio"
	"io"
	"strconv"
)

type (
	// Kind classifies a token. Anything that is not a keyword, an
	// identifier or a number is returned as a raw Char token; the parser
	// and the operator table decide what to do with it.
	Kind int

	Token struct {
		Kind Kind
		Text string  // identifier spelling
		Num  float64 // number value
		Char byte    // raw character
	}

	// Lexer turns a character stream into tokens. It consumes one byte at
	// a time and carries a single lookahead character between calls,
	// initialized to a space so the first call skips nothing spuriously.
	// Not safe for concurrent use.
	Lexer struct {
		r    *bufio.Reader
		last byte
		eof  bool
	}
)

const (
	EOF Kind = iota
	Def
	Extern
	Ident
	Number
	If
	Then
	Else
	For
	In
	Char
)

func New(r io.Reader) *Lexer {
	return &Lexer{
		r:    bufio.NewReader(r),
		last: ' ',
	}
}

// Next returns the next token from the stream. There is no error state:
// every input byte maps to some token, and the end of the stream maps to EOF.
func (l *Lexer) Next() Token {
	for !l.eof && isSpace(l.last) {
		l.read()
	}

	if l.eof {
		return Token{Kind: EOF}
	}

	if isAlpha(l.last) {
		ident := []byte{l.last}

		for l.read(); !l.eof && isAlnum(l.last); l.read() {
			ident = append(ident, l.last)
		}

		return keywordOrIdent(string(ident))
	}

	if isDigit(l.last) || l.last == '.' {
		var num []byte

		for ; !l.eof && (isDigit(l.last) || l.last == '.'); l.read() {
			num = append(num, l.last)
		}

		v, _ := strconv.ParseFloat(string(num), 64) // malformed runs lex as 0

		return Token{Kind: Number, Num: v}
	}

	if l.last == '#' {
		for !l.eof && l.last != '\n' && l.last != '\r' {
			l.read()
		}

		return l.Next()
	}

	c := l.last
	l.read()

	return Token{Kind: Char, Char: c}
}

func (l *Lexer) read() {
	c, err := l.r.ReadByte()
	if err != nil {
		l.eof = true
		l.last = 0

		return
	}

	l.last = c
}

func keywordOrIdent(s string) Token {
	switch s {
	case "def":
		return Token{Kind: Def}
	case "extern":
		return Token{Kind: Extern}
	case "if":
		return Token{Kind: If}
	case "then":
		return Token{Kind: Then}
	case "else":
		return Token{Kind: Else}
	case "for":
		return Token{Kind: For}
	case "in":
		return Token{Kind: In}
	}

	return Token{Kind: Ident, Text: s}
}

func (t Token) String() string {
	switch t.Kind {
	case EOF:
		return "<eof>"
	case Def:
		return "def"
	case Extern:
		return "extern"
	case If:
		return "if"
	case Then:
		return "then"
	case Else:
		return "else"
	case For:
		return "for"
	case In:
		return "in"
	case Ident:
		return t.Text
	case Number:
		return strconv.FormatFloat(t.Num, 'g', -1, 64)
	}

	return string(t.Char)
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }
func isAlpha(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }
func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isAlnum(c byte) bool { return isAlpha(c) || isDigit(c) }
