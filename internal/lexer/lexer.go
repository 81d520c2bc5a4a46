package lexer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenType represents the type of a token
type TokenType int

const (
	// EOF represents the end of input
	EOF TokenType = iota
	// ILLEGAL represents input that cannot start a token, such as an unterminated string
	ILLEGAL
	// KEYWORD represents a keyword token
	KEYWORD
	// IDENTIFIER represents an identifier token
	IDENTIFIER
	// NUMBER represents a number token
	NUMBER
	// STRING represents a quoted string token, quotes included
	STRING
	// SYMBOL represents any other single character
	SYMBOL
	// LPAREN represents a left parenthesis
	LPAREN
	// RPAREN represents a right parenthesis
	RPAREN
	// COMMA represents a comma
	COMMA
	// SEMICOLON represents a semicolon
	SEMICOLON
	// ASTERISK represents an asterisk
	ASTERISK
	// EQUALS represents an equals sign
	EQUALS
)

var tokenNames = map[TokenType]string{
	EOF:        "EOF",
	ILLEGAL:    "ILLEGAL",
	KEYWORD:    "KEYWORD",
	IDENTIFIER: "IDENTIFIER",
	NUMBER:     "NUMBER",
	STRING:     "STRING",
	SYMBOL:     "SYMBOL",
	LPAREN:     "LPAREN",
	RPAREN:     "RPAREN",
	COMMA:      "COMMA",
	SEMICOLON:  "SEMICOLON",
	ASTERISK:   "ASTERISK",
	EQUALS:     "EQUALS",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Token represents a lexical token. Literal is always the exact source text,
// so input[Pos:Pos+len(Literal)] == Literal.
type Token struct {
	Type    TokenType
	Literal string
	Pos     int
}

// End returns the offset just past the token.
func (t Token) End() int {
	return t.Pos + len(t.Literal)
}

// Lexer represents a lexical analyzer
type Lexer struct {
	input        string
	position     int
	readPosition int
	ch           byte
}

// New creates a new lexer with the given input
func New(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

// Input returns the text being tokenized.
func (l *Lexer) Input() string {
	return l.input
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
}

// NextToken returns the next token, or an EOF token once input is exhausted.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	start := l.position
	var typ TokenType

	switch l.ch {
	case '(':
		typ = LPAREN
	case ')':
		typ = RPAREN
	case ',':
		typ = COMMA
	case ';':
		typ = SEMICOLON
	case '*':
		typ = ASTERISK
	case '=':
		typ = EQUALS
	case 0:
		if l.position >= len(l.input) {
			return Token{Type: EOF, Pos: len(l.input)}
		}
		typ = SYMBOL
	case '"', '\'':
		// a quote inside a word, as in O'Brien, is an ordinary character
		if !l.atValueStart(start) {
			typ = SYMBOL
			break
		}
		if l.readString(l.ch) {
			return Token{Type: STRING, Literal: l.input[start:l.position], Pos: start}
		}
		return Token{Type: ILLEGAL, Literal: l.input[start:l.position], Pos: start}
	default:
		if isLetter(l.ch) || l.ch == '_' {
			l.readIdentifier()
			lit := l.input[start:l.position]
			if IsKeyword(lit) {
				return Token{Type: KEYWORD, Literal: lit, Pos: start}
			}
			return Token{Type: IDENTIFIER, Literal: lit, Pos: start}
		} else if isDigit(l.ch) || l.ch == '-' {
			l.readNumber()
			lit := l.input[start:l.position]
			// names such as 2024sales
			if isDigit(lit[0]) && !strings.Contains(lit, ".") && (isLetter(l.ch) || l.ch == '_') {
				l.readIdentifier()
				return Token{Type: IDENTIFIER, Literal: l.input[start:l.position], Pos: start}
			}
			return Token{Type: NUMBER, Literal: lit, Pos: start}
		}
		typ = SYMBOL
	}

	l.readChar()
	return Token{Type: typ, Literal: l.input[start:l.position], Pos: start}
}

// Tokenize returns every token of the input, EOF included.
func (l *Lexer) Tokenize() []Token {
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens
		}
	}
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

func (l *Lexer) readIdentifier() {
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
}

func (l *Lexer) readNumber() {
	if l.ch == '-' {
		l.readChar()
	}
	for isDigit(l.ch) || l.ch == '.' {
		l.readChar()
	}
}

// atValueStart reports whether offset pos begins a field: the start of input
// or right after whitespace, an opening parenthesis, a comma or an equals sign.
func (l *Lexer) atValueStart(pos int) bool {
	if pos == 0 {
		return true
	}
	return strings.IndexByte(" \t\n\r(,=", l.input[pos-1]) >= 0
}

// readString consumes a quoted string including both quotes. Only a quote
// followed by a separator or the end of input closes the string, so
// 'Jeanne d'Arc' is one token. It reports false when no closing quote is
// found.
func (l *Lexer) readString(quote byte) bool {
	l.readChar()
	for l.position < len(l.input) {
		if l.ch == '\\' && l.readPosition < len(l.input) && l.input[l.readPosition] == quote {
			l.readChar()
			l.readChar()
			continue
		}
		if l.ch == quote && l.atValueEnd(l.readPosition) {
			l.readChar()
			return true
		}
		l.readChar()
	}
	return false
}

// atValueEnd reports whether offset pos ends a field: the end of input or a
// whitespace, comma, closing parenthesis or semicolon.
func (l *Lexer) atValueEnd(pos int) bool {
	if pos >= len(l.input) {
		return true
	}
	return strings.IndexByte(" \t\n\r,);", l.input[pos]) >= 0
}

// isLetter treats every non-ASCII byte as a letter so multi-byte UTF-8
// sequences stay inside one identifier.
func isLetter(ch byte) bool {
	return ch >= utf8.RuneSelf || unicode.IsLetter(rune(ch))
}

func isDigit(ch byte) bool {
	return unicode.IsDigit(rune(ch))
}

var keywords = map[string]struct{}{
	"SELECT": {}, "FROM": {}, "WHERE": {}, "INSERT": {}, "INTO": {}, "VALUES": {},
	"UPDATE": {}, "SET": {}, "DELETE": {}, "CREATE": {}, "TABLE": {},
	"AND": {}, "OR": {}, "GROUP": {}, "BY": {},
}

// IsKeyword reports whether word is a reserved keyword. Keywords are
// case-sensitive: only the upper-case spelling is reserved.
func IsKeyword(word string) bool {
	_, ok := keywords[word]
	return ok
}

func (t Token) String() string {
	return fmt.Sprintf("Token{Type: %v, Literal: %q}", t.Type, t.Literal)
}
