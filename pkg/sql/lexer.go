package sql

import (
	"fmt"
	"strings"
)

// TokenType enumerates the lexical categories the parser consumes.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIdent
	TokenNumber
	TokenString
	TokenDate
	TokenOp     // punctuation / operators: ( ) , . = <> < <= > >= + - * /
	TokenKeyword
)

// Token is a single lexical unit with its source text.
type Token struct {
	Type TokenType
	Text string
}

// Keywords recognized by the lexer; matching is case-insensitive and the
// canonical Text stored on the token is upper-cased.
var keywords = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "INSERT": true, "INTO": true,
	"VALUES": true, "UPDATE": true, "SET": true, "DELETE": true,
	"CREATE": true, "DROP": true, "TABLE": true, "INDEX": true, "ON": true,
	"DATABASE": true, "USE": true, "SHOW": true, "DATABASES": true, "TABLES": true,
	"OWNER": true, "PASSWORD": true,
	"AND": true, "OR": true, "NOT": true, "NULL": true, "IS": true, "LIKE": true,
	"TRUE": true, "FALSE": true, "PRIMARY": true, "KEY": true, "DEFAULT": true,
	"INT": true, "FLOAT": true, "CHAR": true, "BOOL": true, "DATE": true,
	"COUNT": true, "MIN": true, "MAX": true, "SUM": true, "AVG": true,
	"IF": true, "EXISTS": true, "ALL": true,
}

// Lexer tokenizes SQL source.
type Lexer struct {
	src []rune
	pos int
}

// NewLexer creates a lexer over the given source text.
func NewLexer(src string) *Lexer {
	return &Lexer{src: []rune(src)}
}

func (l *Lexer) peekRune() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekRuneAt(off int) rune {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *Lexer) advance() rune {
	r := l.peekRune()
	l.pos++
	return r
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.pos < len(l.src) && isSpace(l.src[l.pos]) {
			l.pos++
		}
		if l.peekRune() == '-' && l.peekRuneAt(1) == '-' {
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
			continue
		}
		break
	}
}

func isSpace(r rune) bool { return r == ' ' || r == '\t' || r == '\n' || r == '\r' }

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentCont(r rune) bool { return isIdentStart(r) || isDigit(r) }

// Next returns the next token in the stream.
func (l *Lexer) Next() (Token, error) {
	l.skipWhitespaceAndComments()
	if l.pos >= len(l.src) {
		return Token{Type: TokenEOF}, nil
	}

	r := l.peekRune()

	switch {
	case isIdentStart(r):
		start := l.pos
		for l.pos < len(l.src) && isIdentCont(l.src[l.pos]) {
			l.pos++
		}
		text := string(l.src[start:l.pos])
		upper := strings.ToUpper(text)
		if keywords[upper] {
			return Token{Type: TokenKeyword, Text: upper}, nil
		}
		return Token{Type: TokenIdent, Text: text}, nil

	case isDigit(r):
		start := l.pos
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
		if l.peekRune() == '.' && isDigit(l.peekRuneAt(1)) {
			l.pos++
			for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
				l.pos++
			}
		}
		return Token{Type: TokenNumber, Text: string(l.src[start:l.pos])}, nil

	case r == '\'':
		l.pos++
		var sb strings.Builder
		for {
			if l.pos >= len(l.src) {
				return Token{}, fmt.Errorf("unterminated string literal")
			}
			c := l.advance()
			if c == '\'' {
				if l.peekRune() == '\'' { // escaped quote
					sb.WriteRune('\'')
					l.pos++
					continue
				}
				break
			}
			sb.WriteRune(c)
		}
		return Token{Type: TokenString, Text: sb.String()}, nil

	case r == '<':
		l.pos++
		if l.peekRune() == '>' {
			l.pos++
			return Token{Type: TokenOp, Text: "<>"}, nil
		}
		if l.peekRune() == '=' {
			l.pos++
			return Token{Type: TokenOp, Text: "<="}, nil
		}
		return Token{Type: TokenOp, Text: "<"}, nil

	case r == '>':
		l.pos++
		if l.peekRune() == '=' {
			l.pos++
			return Token{Type: TokenOp, Text: ">="}, nil
		}
		return Token{Type: TokenOp, Text: ">"}, nil

	case strings.ContainsRune("()=,.+-*/;", r):
		l.pos++
		return Token{Type: TokenOp, Text: string(r)}, nil

	default:
		return Token{}, fmt.Errorf("unexpected character %q", r)
	}
}
