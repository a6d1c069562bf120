// lexer.go — tokenizer for the Tern surface syntax.
//
// Tokens carry 1-based (Line, Col) of their first rune; numeric and text
// tokens carry a decoded payload alongside the raw literal text.
//
// Lexical notes worth knowing before reading the code:
//   - `+` immediately followed by a digit starts a Natural literal (`+5`),
//     `++` is text append, and a bare `+` is addition. `+2 + +3` is therefore
//     addition of two naturals, while `+2 ++3` is `+2 ++ 3`.
//   - `-` only appears in `->`, `--` line comments, and negative Integer or
//     Double literals; Tern has no subtraction.
//   - identifiers may contain `/`-separated segments (`Natural/fold`); a
//     token that starts like an identifier but continues with `://` is a URL.
//   - import targets are single tokens: `./relative`, `../relative`,
//     `/absolute`, `scheme://…`, and `env:NAME`.
//   - comments are `--` to end of line and nestable `{- … -}` blocks.
//
// Unicode spellings `λ`, `∀`, and `→` are accepted for `\`, `forall`, `->`.
package tern

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenType represents the kind of token.
type TokenType int

const (
	// Special
	EOF TokenType = iota
	ILLEGAL

	// Punctuation
	LPAREN   // "("
	RPAREN   // ")"
	LBRACKET // "["
	RBRACKET // "]"
	LBRACE   // "{"
	RBRACE   // "}"
	LANGLE   // "<"
	RANGLE   // ">"
	COMMA    // ","
	COLON    // ":"
	EQUALS   // "="
	DOT      // "."
	BAR      // "|"
	ARROW    // "->" or "→"
	LAMBDA   // "\" or "λ"

	// Operators
	OR         // "||"
	AND        // "&&"
	EQEQ       // "=="
	NEQ        // "!="
	PLUS       // "+"
	STAR       // "*"
	TEXTAPPEND // "++"

	// Literals & identifiers
	IDENT
	NATURAL // "+123"
	INTEGER // "123", "-123"
	DOUBLE  // "1.5", "-2e3"
	TEXT    // double-quoted
	BOOL    // True / False

	// Import targets
	PATH   // "./x", "../x", "/abs/x"
	URL    // "scheme://..."
	ENVREF // "env:NAME"

	// Keywords
	LET
	IN
	IF
	THEN
	ELSE
	FORALL
	SOME
	NONE
)

var keywords = map[string]TokenType{
	"let":    LET,
	"in":     IN,
	"if":     IF,
	"then":   THEN,
	"else":   ELSE,
	"forall": FORALL,
	"Some":   SOME,
	"None":   NONE,
}

// Token is one lexeme with its decoded payload.
type Token struct {
	Type TokenType
	Lit  string // raw text as written
	Line int    // 1-based
	Col  int    // 1-based

	Nat uint64  // NATURAL
	Int int64   // INTEGER
	Dbl float64 // DOUBLE
	Str string  // TEXT (decoded) / ENVREF (variable name)
	B   bool    // BOOL
}

// LexError is a positioned tokenizer failure; errors.go renders it with a
// caret snippet via WrapErrorWithSource.
type LexError struct {
	Line int
	Col  int
	Msg  string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lexical error at %d:%d: %s", e.Line, e.Col, e.Msg)
}

type lexer struct {
	src  string
	pos  int
	line int
	col  int
}

// Lex tokenizes src, appending a final EOF token.
func Lex(src string) ([]Token, error) {
	lx := &lexer{src: src, line: 1, col: 1}
	var toks []Token
	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Type == EOF {
			return toks, nil
		}
	}
}

func (lx *lexer) errf(line, col int, format string, args ...any) error {
	return &LexError{Line: line, Col: col, Msg: fmt.Sprintf(format, args...)}
}

func (lx *lexer) peekAt(off int) byte {
	if lx.pos+off >= len(lx.src) {
		return 0
	}
	return lx.src[lx.pos+off]
}

// advance moves past n bytes, maintaining line/col.
func (lx *lexer) advance(n int) {
	for i := 0; i < n && lx.pos < len(lx.src); i++ {
		if lx.src[lx.pos] == '\n' {
			lx.line++
			lx.col = 1
		} else {
			lx.col++
		}
		lx.pos++
	}
}

// skipTrivia consumes whitespace and comments; returns an error only for an
// unterminated block comment.
func (lx *lexer) skipTrivia() error {
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			lx.advance(1)
		case c == '-' && lx.peekAt(1) == '-':
			for lx.pos < len(lx.src) && lx.src[lx.pos] != '\n' {
				lx.advance(1)
			}
		case c == '{' && lx.peekAt(1) == '-':
			line, col := lx.line, lx.col
			depth := 0
			for lx.pos < len(lx.src) {
				if lx.src[lx.pos] == '{' && lx.peekAt(1) == '-' {
					depth++
					lx.advance(2)
				} else if lx.src[lx.pos] == '-' && lx.peekAt(1) == '}' {
					depth--
					lx.advance(2)
					if depth == 0 {
						break
					}
				} else {
					lx.advance(1)
				}
			}
			if depth != 0 {
				return lx.errf(line, col, "unterminated block comment")
			}
		default:
			return nil
		}
	}
	return nil
}

func (lx *lexer) next() (Token, error) {
	if err := lx.skipTrivia(); err != nil {
		return Token{}, err
	}
	line, col := lx.line, lx.col
	if lx.pos >= len(lx.src) {
		return Token{Type: EOF, Line: line, Col: col}, nil
	}

	mk := func(t TokenType, n int) Token {
		tok := Token{Type: t, Lit: lx.src[lx.pos : lx.pos+n], Line: line, Col: col}
		lx.advance(n)
		return tok
	}

	c := lx.src[lx.pos]
	switch {
	case c == '(':
		return mk(LPAREN, 1), nil
	case c == ')':
		return mk(RPAREN, 1), nil
	case c == '[':
		return mk(LBRACKET, 1), nil
	case c == ']':
		return mk(RBRACKET, 1), nil
	case c == '{':
		return mk(LBRACE, 1), nil
	case c == '}':
		return mk(RBRACE, 1), nil
	case c == '<':
		return mk(LANGLE, 1), nil
	case c == '>':
		return mk(RANGLE, 1), nil
	case c == ',':
		return mk(COMMA, 1), nil
	case c == ':':
		return mk(COLON, 1), nil
	case c == '|':
		if lx.peekAt(1) == '|' {
			return mk(OR, 2), nil
		}
		return mk(BAR, 1), nil
	case c == '&':
		if lx.peekAt(1) == '&' {
			return mk(AND, 2), nil
		}
		return Token{}, lx.errf(line, col, "unexpected character %q (did you mean \"&&\"?)", string(c))
	case c == '=':
		if lx.peekAt(1) == '=' {
			return mk(EQEQ, 2), nil
		}
		return mk(EQUALS, 1), nil
	case c == '!':
		if lx.peekAt(1) == '=' {
			return mk(NEQ, 2), nil
		}
		return Token{}, lx.errf(line, col, "unexpected character %q (did you mean \"!=\"?)", string(c))
	case c == '*':
		return mk(STAR, 1), nil
	case c == '\\':
		return mk(LAMBDA, 1), nil
	case c == '+':
		if lx.peekAt(1) == '+' {
			return mk(TEXTAPPEND, 2), nil
		}
		if isDigit(lx.peekAt(1)) {
			return lx.lexNatural(line, col)
		}
		return mk(PLUS, 1), nil
	case c == '-':
		if lx.peekAt(1) == '>' {
			return mk(ARROW, 2), nil
		}
		if isDigit(lx.peekAt(1)) {
			return lx.lexNumber(line, col)
		}
		return Token{}, lx.errf(line, col, "unexpected character %q (Tern has no subtraction)", string(c))
	case c == '"':
		return lx.lexText(line, col)
	case c == '.':
		if lx.peekAt(1) == '/' || (lx.peekAt(1) == '.' && lx.peekAt(2) == '/') {
			return lx.lexTarget(line, col, PATH)
		}
		return mk(DOT, 1), nil
	case c == '/':
		return lx.lexTarget(line, col, PATH)
	case isDigit(c):
		return lx.lexNumber(line, col)
	default:
		r, size := utf8.DecodeRuneInString(lx.src[lx.pos:])
		switch r {
		case 'λ':
			return mk(LAMBDA, size), nil
		case '∀':
			tok := mk(IDENT, size)
			tok.Type = FORALL
			return tok, nil
		case '→':
			tok := mk(IDENT, size)
			tok.Type = ARROW
			return tok, nil
		}
		if isIdentStart(r) {
			return lx.lexIdentOrURL(line, col)
		}
		return Token{}, lx.errf(line, col, "unexpected character %q", string(r))
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// lexNatural consumes "+123".
func (lx *lexer) lexNatural(line, col int) (Token, error) {
	start := lx.pos
	lx.advance(1) // '+'
	for lx.pos < len(lx.src) && isDigit(lx.src[lx.pos]) {
		lx.advance(1)
	}
	lit := lx.src[start:lx.pos]
	n, err := strconv.ParseUint(lit[1:], 10, 64)
	if err != nil {
		return Token{}, lx.errf(line, col, "invalid Natural literal %q: %v", lit, err)
	}
	return Token{Type: NATURAL, Lit: lit, Line: line, Col: col, Nat: n}, nil
}

// lexNumber consumes an Integer or a Double (digits with '.' and/or exponent),
// with an optional leading '-'.
func (lx *lexer) lexNumber(line, col int) (Token, error) {
	start := lx.pos
	if lx.src[lx.pos] == '-' {
		lx.advance(1)
	}
	isDouble := false
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		if isDigit(c) {
			lx.advance(1)
			continue
		}
		if c == '.' && isDigit(lx.peekAt(1)) {
			isDouble = true
			lx.advance(1)
			continue
		}
		if (c == 'e' || c == 'E') && (isDigit(lx.peekAt(1)) || ((lx.peekAt(1) == '+' || lx.peekAt(1) == '-') && isDigit(lx.peekAt(2)))) {
			isDouble = true
			lx.advance(2)
			continue
		}
		break
	}
	lit := lx.src[start:lx.pos]
	if isDouble {
		d, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return Token{}, lx.errf(line, col, "invalid Double literal %q: %v", lit, err)
		}
		return Token{Type: DOUBLE, Lit: lit, Line: line, Col: col, Dbl: d}, nil
	}
	i, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		return Token{}, lx.errf(line, col, "invalid Integer literal %q: %v", lit, err)
	}
	return Token{Type: INTEGER, Lit: lit, Line: line, Col: col, Int: i}, nil
}

// lexText consumes a double-quoted literal with \" \\ \n \t \r escapes.
func (lx *lexer) lexText(line, col int) (Token, error) {
	start := lx.pos
	lx.advance(1) // opening quote
	var b strings.Builder
	for {
		if lx.pos >= len(lx.src) {
			return Token{}, lx.errf(line, col, "unterminated text literal")
		}
		c := lx.src[lx.pos]
		if c == '"' {
			lx.advance(1)
			return Token{Type: TEXT, Lit: lx.src[start:lx.pos], Line: line, Col: col, Str: b.String()}, nil
		}
		if c == '\\' {
			esc := lx.peekAt(1)
			switch esc {
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				return Token{}, lx.errf(lx.line, lx.col, "unknown escape \\%s", string(esc))
			}
			lx.advance(2)
			continue
		}
		if c == '\n' {
			return Token{}, lx.errf(line, col, "unterminated text literal")
		}
		b.WriteByte(c)
		lx.advance(1)
	}
}

// targetDelims are the characters that end a PATH or URL token.
const targetDelims = " \t\r\n(),[]{}<>|\""

// lexTarget consumes a PATH or URL import target up to the next delimiter.
// PATH additionally stops at ':' so `./x : T` lexes as three tokens.
func (lx *lexer) lexTarget(line, col int, typ TokenType) (Token, error) {
	start := lx.pos
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		if strings.IndexByte(targetDelims, c) >= 0 {
			break
		}
		if typ == PATH && c == ':' {
			break
		}
		lx.advance(1)
	}
	lit := lx.src[start:lx.pos]
	return Token{Type: typ, Lit: lit, Line: line, Col: col}, nil
}

// lexIdentOrURL consumes an identifier, a keyword, a `Name/segment` builtin
// identifier, a `scheme://…` URL, or an `env:NAME` reference.
func (lx *lexer) lexIdentOrURL(line, col int) (Token, error) {
	start := lx.pos
	consumeSegment := func() {
		for lx.pos < len(lx.src) {
			r, size := utf8.DecodeRuneInString(lx.src[lx.pos:])
			if !isIdentPart(r) {
				return
			}
			lx.advance(size)
		}
	}
	consumeSegment()

	// scheme://host/...
	if strings.HasPrefix(lx.src[lx.pos:], "://") {
		tok, err := lx.lexTarget(line, col, URL)
		if err != nil {
			return Token{}, err
		}
		tok.Lit = lx.src[start:lx.pos]
		return tok, nil
	}

	// env:NAME
	if lx.src[start:lx.pos] == "env" && lx.peekAt(0) == ':' {
		if r, _ := utf8.DecodeRuneInString(lx.src[lx.pos+1:]); isIdentStart(r) {
			lx.advance(1) // ':'
			nameStart := lx.pos
			consumeSegment()
			return Token{
				Type: ENVREF,
				Lit:  lx.src[start:lx.pos],
				Line: line, Col: col,
				Str: lx.src[nameStart:lx.pos],
			}, nil
		}
	}

	// Name/segment identifiers (Natural/fold etc.)
	for lx.peekAt(0) == '/' {
		r, _ := utf8.DecodeRuneInString(lx.src[lx.pos+1:])
		if !isIdentStart(r) {
			break
		}
		lx.advance(1)
		consumeSegment()
	}

	lit := lx.src[start:lx.pos]
	switch lit {
	case "True":
		return Token{Type: BOOL, Lit: lit, Line: line, Col: col, B: true}, nil
	case "False":
		return Token{Type: BOOL, Lit: lit, Line: line, Col: col, B: false}, nil
	}
	if kw, ok := keywords[lit]; ok {
		return Token{Type: kw, Lit: lit, Line: line, Col: col}, nil
	}
	return Token{Type: IDENT, Lit: lit, Line: line, Col: col}, nil
}
