package sparql

import (
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIRI
	tokPName
	tokBlank
	tokVar
	tokString
	tokLangTag
	tokInteger
	tokDecimal
	tokDouble
	tokName
	tokPunct
)

// token is a lexical unit. For IRIs text holds the content between the angle
// brackets, for variables the name without its sigil, for strings the raw body
// without quotes.
type token struct {
	kind   tokenKind
	text   string
	prefix string // tokPName only
	line   int
	col    int
}

// describe renders a token the way it appears in diagnostics.
func (t token) describe() string {
	switch t.kind {
	case tokEOF:
		return "end of input"
	case tokIRI:
		return "<" + t.text + ">"
	case tokPName:
		return t.prefix + ":" + t.text
	case tokVar:
		return "?" + t.text
	case tokString:
		return "string literal"
	case tokLangTag:
		return "@" + t.text
	default:
		return "'" + t.text + "'"
	}
}

type lexer struct {
	src  []rune
	pos  int
	line int
	col  int
}

// lex splits input into tokens, always terminated by a tokEOF token.
func lex(input string) ([]token, error) {
	l := &lexer{src: []rune(input), line: 1, col: 1}
	var toks []token
	for {
		l.skipSpace()
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.kind == tokEOF {
			return toks, nil
		}
	}
}

func (l *lexer) peek(n int) rune {
	if l.pos+n >= len(l.src) {
		return 0
	}
	return l.src[l.pos+n]
}

func (l *lexer) advance() rune {
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		r := l.src[l.pos]
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			l.advance()
		case r == '#':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' && l.src[l.pos] != '\r' {
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *lexer) errorf(line, col int, format string, args ...interface{}) error {
	return newSyntaxError(line, col, format, args...)
}

func (l *lexer) next() (token, error) {
	line, col := l.line, l.col
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, line: line, col: col}, nil
	}
	mk := func(kind tokenKind, text string) token {
		return token{kind: kind, text: text, line: line, col: col}
	}

	r := l.src[l.pos]
	switch {
	case r == '<':
		if body, ok := l.scanIRI(); ok {
			return mk(tokIRI, body), nil
		}
		l.advance()
		if l.peek(0) == '=' {
			l.advance()
			return mk(tokPunct, "<="), nil
		}
		return mk(tokPunct, "<"), nil

	case r == '?' || r == '$':
		if isVarChar(l.peek(1)) {
			l.advance()
			return mk(tokVar, l.scanWhile(isVarChar)), nil
		}
		if r == '$' {
			return token{}, l.errorf(line, col, "unexpected character '$'")
		}
		l.advance()
		return mk(tokPunct, "?"), nil

	case r == '_' && l.peek(1) == ':':
		l.advance()
		l.advance()
		if !isPNCharsU(l.peek(0)) && !unicode.IsDigit(l.peek(0)) {
			return token{}, l.errorf(line, col, "invalid blank node label")
		}
		return mk(tokBlank, l.scanName()), nil

	case r == '"' || r == '\'':
		body, err := l.scanString()
		if err != nil {
			return token{}, err
		}
		return mk(tokString, body), nil

	case r == '@':
		l.advance()
		tag := l.scanWhile(isLetter)
		if tag == "" {
			return token{}, l.errorf(line, col, "invalid language tag")
		}
		for l.peek(0) == '-' && isAlnum(l.peek(1)) {
			l.advance()
			tag += "-" + l.scanWhile(isAlnum)
		}
		return mk(tokLangTag, tag), nil

	case isDigit(r) || (r == '.' && isDigit(l.peek(1))):
		kind, text := l.scanNumber()
		return mk(kind, text), nil

	case isPNCharsBase(r) || r == ':':
		prefix := ""
		if r != ':' {
			prefix = l.scanName()
		}
		if l.peek(0) != ':' {
			return mk(tokName, prefix), nil
		}
		l.advance()
		local, err := l.scanLocal()
		if err != nil {
			return token{}, err
		}
		tok := mk(tokPName, local)
		tok.prefix = prefix
		return tok, nil
	}

	for _, op := range []string{"^^", "&&", "||", "!=", ">="} {
		if l.hasPrefix(op) {
			l.advance()
			l.advance()
			return mk(tokPunct, op), nil
		}
	}
	if strings.ContainsRune("{}()[].,;*+-/!=>^|", r) {
		l.advance()
		return mk(tokPunct, string(r)), nil
	}
	return token{}, l.errorf(line, col, "unexpected character %q", r)
}

func (l *lexer) hasPrefix(s string) bool {
	for i, r := range []rune(s) {
		if l.peek(i) != r {
			return false
		}
	}
	return true
}

// scanIRI consumes an IRIREF when the input at pos forms one.
func (l *lexer) scanIRI() (string, bool) {
	end := l.pos + 1
	for end < len(l.src) {
		r := l.src[end]
		if r == '>' {
			body := string(l.src[l.pos+1 : end])
			for l.pos <= end {
				l.advance()
			}
			return body, true
		}
		if r <= 0x20 || strings.ContainsRune("<\"{}|^`\\", r) {
			return "", false
		}
		end++
	}
	return "", false
}

func (l *lexer) scanWhile(pred func(rune) bool) string {
	start := l.pos
	for l.pos < len(l.src) && pred(l.src[l.pos]) {
		l.advance()
	}
	return string(l.src[start:l.pos])
}

// scanName reads PN_CHARS and dots, leaving a trailing dot unconsumed.
func (l *lexer) scanName() string {
	start := l.pos
	end := l.pos
	for end < len(l.src) {
		r := l.src[end]
		if isPNChars(r) || r == '.' {
			end++
			continue
		}
		break
	}
	for end > start && l.src[end-1] == '.' {
		end--
	}
	for l.pos < end {
		l.advance()
	}
	return string(l.src[start:end])
}

// scanLocal reads the local part of a prefixed name, including percent and
// backslash escapes.
func (l *lexer) scanLocal() (string, error) {
	var b strings.Builder
	for l.pos < len(l.src) {
		r := l.src[l.pos]
		switch {
		case r == '%':
			if !isHex(l.peek(1)) || !isHex(l.peek(2)) {
				return "", l.errorf(l.line, l.col, "invalid percent escape in prefixed name")
			}
			b.WriteRune(l.advance())
			b.WriteRune(l.advance())
			b.WriteRune(l.advance())
		case r == '\\':
			if !strings.ContainsRune("_~.-!$&'()*+,;=/?#@%", l.peek(1)) {
				return "", l.errorf(l.line, l.col, "invalid escape in prefixed name")
			}
			l.advance()
			b.WriteRune(l.advance())
		case r == '.':
			if b.Len() == 0 {
				return b.String(), nil
			}
			// a run of dots is only part of the name when more name follows it
			n := 1
			for l.peek(n) == '.' {
				n++
			}
			nr := l.peek(n)
			if !(isPNChars(nr) || nr == ':' || nr == '%' || nr == '\\') {
				return b.String(), nil
			}
			for i := 0; i < n; i++ {
				b.WriteRune(l.advance())
			}
		case isPNChars(r) || r == ':':
			b.WriteRune(l.advance())
		default:
			return b.String(), nil
		}
	}
	return b.String(), nil
}

func (l *lexer) scanNumber() (tokenKind, string) {
	start := l.pos
	kind := tokInteger
	l.scanWhile(isDigit)
	if l.peek(0) == '.' && isDigit(l.peek(1)) {
		kind = tokDecimal
		l.advance()
		l.scanWhile(isDigit)
	}
	if r := l.peek(0); r == 'e' || r == 'E' {
		off := 1
		if s := l.peek(1); s == '+' || s == '-' {
			off = 2
		}
		if isDigit(l.peek(off)) {
			kind = tokDouble
			for i := 0; i < off; i++ {
				l.advance()
			}
			l.scanWhile(isDigit)
		}
	}
	return kind, string(l.src[start:l.pos])
}

func (l *lexer) scanString() (string, error) {
	line, col := l.line, l.col
	q := l.src[l.pos]
	long := l.peek(1) == q && l.peek(2) == q
	if long {
		l.advance()
		l.advance()
	}
	l.advance()

	var b strings.Builder
	for {
		if l.pos >= len(l.src) {
			return "", l.errorf(line, col, "unterminated string literal")
		}
		r := l.src[l.pos]
		switch {
		case r == '\\':
			esc := l.peek(1)
			switch esc {
			case 't', 'b', 'n', 'r', 'f', '"', '\'', '\\':
				b.WriteRune(l.advance())
				b.WriteRune(l.advance())
			case 'u', 'U':
				n := 4
				if esc == 'U' {
					n = 8
				}
				for i := 0; i < n; i++ {
					if !isHex(l.peek(2 + i)) {
						return "", l.errorf(l.line, l.col, "invalid unicode escape in string literal")
					}
				}
				for i := 0; i < n+2; i++ {
					b.WriteRune(l.advance())
				}
			default:
				return "", l.errorf(l.line, l.col, "invalid escape sequence in string literal")
			}
		case r == q && !long:
			l.advance()
			return b.String(), nil
		case r == q && long && l.peek(1) == q && l.peek(2) == q:
			l.advance()
			l.advance()
			l.advance()
			return b.String(), nil
		case !long && (r == '\n' || r == '\r'):
			return "", l.errorf(line, col, "unterminated string literal")
		default:
			b.WriteRune(l.advance())
		}
	}
}

func isDigit(r rune) bool  { return r >= '0' && r <= '9' }
func isLetter(r rune) bool { return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') }
func isAlnum(r rune) bool  { return isLetter(r) || isDigit(r) }

func isHex(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isPNCharsBase(r rune) bool {
	return isLetter(r) || (r > 0x7f && unicode.IsLetter(r))
}

func isPNCharsU(r rune) bool { return isPNCharsBase(r) || r == '_' }

func isPNChars(r rune) bool {
	return isPNCharsU(r) || r == '-' || isDigit(r) || r == 0xB7 ||
		(r >= 0x300 && r <= 0x36F) || r == 0x203F || r == 0x2040
}

func isVarChar(r rune) bool {
	return isPNCharsU(r) || isDigit(r) || r == 0xB7 ||
		(r >= 0x300 && r <= 0x36F) || r == 0x203F || r == 0x2040
}
