package internal

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"jackc/util"
)

// A lazy Tokenizer for jack.

// Jack language has those elements:
// * KeyWord: class, constructor, function, method, field, static, var, int, char, boolean, void, true,
// 			false, null, this, let, do, if, else, while, return.
// * Symbol: {, }, (, ), [, ], ., ,, ;, +, -, *, /, &, |, <, >, =, ~.
// * Constant: integer (0..32767), string ("xxx", no newline and no quote inside)
// * Identifier: letters, digits, underscore, not starting with a digit.
// * Comment: /**/, //.

type TokenType int

const (
	NoneTP TokenType = iota
	KeyWordTP
	SymbolTP
	IdentifierTP
	IntegerConstantTP
	StringConstantTP
)

// String returns the tag used for the token type in trace and token dump output.
func (tp TokenType) String() string {
	switch tp {
	case KeyWordTP:
		return "keyword"
	case SymbolTP:
		return "symbol"
	case IdentifierTP:
		return "identifier"
	case IntegerConstantTP:
		return "integerConstant"
	case StringConstantTP:
		return "stringConstant"
	}
	return "none"
}

const (
	maxIntegerConstant = 32767
	maxStringCharacter = 126
)

var keyWords = map[string]bool{
	"class":       true,
	"constructor": true,
	"function":    true,
	"method":      true,
	"field":       true,
	"static":      true,
	"var":         true,
	"int":         true,
	"char":        true,
	"boolean":     true,
	"void":        true,
	"true":        true,
	"false":       true,
	"null":        true,
	"this":        true,
	"let":         true,
	"do":          true,
	"if":          true,
	"else":        true,
	"while":       true,
	"return":      true,
}

const symbols = "{}()[].,;+-*/&|<>=~"

func isSymbol(b byte) bool {
	return strings.IndexByte(symbols, b) >= 0
}

type Token struct {
	content string
	line    int
	tp      TokenType
}

func (t *Token) Type() TokenType {
	return t.tp
}

func (t *Token) Content() string {
	return t.content
}

func (t *Token) Line() int {
	return t.line
}

// Literal renders the token the way it is written in source.
func (t *Token) Literal() string {
	if t.tp == StringConstantTP {
		return `"` + t.content + `"`
	}
	return t.content
}

type Tokenizer struct {
	reader      *bufio.Reader
	currentLine int
	current     *Token
	err         error
}

func NewTokenizer(rd io.Reader) *Tokenizer {
	return &Tokenizer{reader: bufio.NewReader(rd), currentLine: 1}
}

// HasMoreTokens reports whether Advance can be called. A pending lexical fault counts as
// a remaining token so that the following Advance surfaces it.
func (tokenizer *Tokenizer) HasMoreTokens() bool {
	if tokenizer.err != nil {
		return true
	}
	more, err := tokenizer.skipTrivia()
	if err != nil {
		tokenizer.err = err
		return true
	}
	return more
}

// Advance makes the next token current.
func (tokenizer *Tokenizer) Advance() error {
	if tokenizer.err != nil {
		return tokenizer.err
	}
	more, err := tokenizer.skipTrivia()
	if err != nil {
		tokenizer.err = err
		return err
	}
	if !more {
		tokenizer.current = nil
		return makeLexicalError("", tokenizer.currentLine, "no more tokens")
	}
	token, err := tokenizer.scanToken()
	if err != nil {
		tokenizer.err = err
		return err
	}
	tokenizer.current = token
	return nil
}

func (tokenizer *Tokenizer) TokenType() TokenType {
	if tokenizer.current == nil {
		return NoneTP
	}
	return tokenizer.current.tp
}

// Token returns the current token, nil before the first Advance.
func (tokenizer *Tokenizer) Token() *Token {
	return tokenizer.current
}

// Line returns the line of the current token, or the line the reader stopped at.
func (tokenizer *Tokenizer) Line() int {
	if tokenizer.current == nil {
		return tokenizer.currentLine
	}
	return tokenizer.current.line
}

func (tokenizer *Tokenizer) KeyWord() string {
	return tokenizer.mustBe(KeyWordTP).content
}

func (tokenizer *Tokenizer) Symbol() byte {
	return tokenizer.mustBe(SymbolTP).content[0]
}

func (tokenizer *Tokenizer) Identifier() string {
	return tokenizer.mustBe(IdentifierTP).content
}

func (tokenizer *Tokenizer) IntValue() int {
	v, _ := strconv.Atoi(tokenizer.mustBe(IntegerConstantTP).content)
	return v
}

func (tokenizer *Tokenizer) StringValue() string {
	return tokenizer.mustBe(StringConstantTP).content
}

func (tokenizer *Tokenizer) mustBe(tp TokenType) *Token {
	if tokenizer.TokenType() != tp {
		panic(fmt.Sprintf("Tokenizer: current token is %s, not %s", tokenizer.TokenType(), tp))
	}
	return tokenizer.current
}

func (tokenizer *Tokenizer) readByte() (byte, error) {
	b, err := tokenizer.reader.ReadByte()
	if err == nil && b == '\n' {
		tokenizer.currentLine++
	}
	return b, err
}

func (tokenizer *Tokenizer) peekByte() (byte, bool, error) {
	bs, err := tokenizer.reader.Peek(1)
	if err == io.EOF {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return bs[0], true, nil
}

// skipTrivia steps over whitespace and comments and reports whether a token follows.
func (tokenizer *Tokenizer) skipTrivia() (bool, error) {
	for {
		b, ok, err := tokenizer.peekByte()
		if err != nil || !ok {
			return false, err
		}
		switch {
		case util.IsSpace(b):
			_, _ = tokenizer.readByte()
		case b == '/':
			two, _ := tokenizer.reader.Peek(2)
			if len(two) < 2 || (two[1] != '/' && two[1] != '*') {
				return true, nil
			}
			if two[1] == '/' {
				err = tokenizer.skipSingleLineComment()
			} else {
				err = tokenizer.skipMultipleLineComment()
			}
			if err != nil {
				return false, err
			}
		default:
			return true, nil
		}
	}
}

func (tokenizer *Tokenizer) skipSingleLineComment() error {
	for {
		b, err := tokenizer.readByte()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if b == '\n' {
			return nil
		}
	}
}

func (tokenizer *Tokenizer) skipMultipleLineComment() error {
	startLine := tokenizer.currentLine
	// Consume the opening /*.
	_, _ = tokenizer.readByte()
	_, _ = tokenizer.readByte()
	var prev byte
	for {
		b, err := tokenizer.readByte()
		if err == io.EOF {
			return makeLexicalError("/*", startLine, "unterminated block comment")
		}
		if err != nil {
			return err
		}
		if prev == '*' && b == '/' {
			return nil
		}
		prev = b
	}
}

func (tokenizer *Tokenizer) scanToken() (*Token, error) {
	b, _, err := tokenizer.peekByte()
	if err != nil {
		return nil, err
	}
	switch {
	case isSymbol(b):
		_, _ = tokenizer.readByte()
		return &Token{content: string(b), line: tokenizer.currentLine, tp: SymbolTP}, nil
	case b == '"':
		return tokenizer.tokenString()
	case util.IsNumber(b):
		return tokenizer.tokenNumber()
	case util.IsLetterOrUnderscore(b):
		return tokenizer.toKeyWordOrIdentifier()
	}
	_, _ = tokenizer.readByte()
	return nil, makeLexicalError(string(b), tokenizer.currentLine, "unrecognized character")
}

func (tokenizer *Tokenizer) tokenString() (*Token, error) {
	line := tokenizer.currentLine
	// Consume the opening quote.
	_, _ = tokenizer.readByte()
	var content strings.Builder
	for {
		b, ok, err := tokenizer.peekByte()
		if err != nil {
			return nil, err
		}
		if !ok || b == '\n' {
			return nil, makeLexicalError(`"`+content.String(), line, "unterminated string")
		}
		_, _ = tokenizer.readByte()
		if b == '"' {
			return &Token{content: content.String(), line: line, tp: StringConstantTP}, nil
		}
		// A string holds one word per character, so only printable ascii is allowed.
		if b > maxStringCharacter {
			return nil, makeLexicalError(`"`+content.String(), line, "non ascii character %#x in string", b)
		}
		content.WriteByte(b)
	}
}

func (tokenizer *Tokenizer) tokenNumber() (*Token, error) {
	content, err := tokenizer.readWhile(util.IsNumber)
	if err != nil {
		return nil, err
	}
	v, err := strconv.Atoi(content)
	if err != nil || v > maxIntegerConstant {
		return nil, makeLexicalError(content, tokenizer.currentLine, "integer constant out of range 0..%d", maxIntegerConstant)
	}
	return &Token{content: content, line: tokenizer.currentLine, tp: IntegerConstantTP}, nil
}

func (tokenizer *Tokenizer) toKeyWordOrIdentifier() (*Token, error) {
	content, err := tokenizer.readWhile(util.IsLetterOrUnderscoreOrNumber)
	if err != nil {
		return nil, err
	}
	tp := IdentifierTP
	if keyWords[content] {
		tp = KeyWordTP
	}
	return &Token{content: content, line: tokenizer.currentLine, tp: tp}, nil
}

func (tokenizer *Tokenizer) readWhile(accept func(byte) bool) (string, error) {
	var content strings.Builder
	for {
		b, ok, err := tokenizer.peekByte()
		if err != nil {
			return "", err
		}
		if !ok || !accept(b) {
			return content.String(), nil
		}
		_, _ = tokenizer.readByte()
		content.WriteByte(b)
	}
}
