package pattern

import (
	"github.com/alecthomas/participle/v2/lexer"

	retagerrors "github.com/alexisbeaulieu97/retag/pkg/errors"
)

// TokenKind classifies a token of the pattern and template mini language.
type TokenKind int

const (
	TokenText TokenKind = iota
	TokenSpace
	TokenCapture
)

// Token is one lexical unit of a pattern or template source. For captures,
// Text holds the raw body between "%{" and "}".
type Token struct {
	Kind   TokenKind
	Text   string
	Offset int
}

// sourceLexer splits pattern and template sources into escapes, captures,
// whitespace runs and literal text.
var sourceLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Escape", Pattern: `%%`},
	{Name: "Capture", Pattern: `%\{[^{}%]*\}`},
	{Name: "Open", Pattern: `%\{`},
	{Name: "Space", Pattern: `\s+`},
	{Name: "Text", Pattern: `[^%\s]+|%`},
})

var (
	symbols     = sourceLexer.Symbols()
	escapeType  = symbols["Escape"]
	captureType = symbols["Capture"]
	openType    = symbols["Open"]
	spaceType   = symbols["Space"]
)

// Tokenize splits src into tokens. "%%" is returned as literal text "%".
// Adjacent literal tokens are merged.
func Tokenize(src string) ([]Token, error) {
	lex, err := sourceLexer.LexString("", src)
	if err != nil {
		return nil, retagerrors.NewPatternSyntaxError(src, 0, err.Error())
	}
	raw, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, retagerrors.NewPatternSyntaxError(src, 0, err.Error())
	}

	tokens := make([]Token, 0, len(raw))
	for _, tok := range raw {
		if tok.EOF() {
			break
		}
		switch tok.Type {
		case openType:
			return nil, retagerrors.NewPatternSyntaxError(src, tok.Pos.Offset, "unterminated capture: missing '}'")
		case captureType:
			body := tok.Value[2 : len(tok.Value)-1]
			tokens = append(tokens, Token{Kind: TokenCapture, Text: body, Offset: tok.Pos.Offset})
		case spaceType:
			tokens = append(tokens, Token{Kind: TokenSpace, Text: tok.Value, Offset: tok.Pos.Offset})
		default:
			value := tok.Value
			if tok.Type == escapeType {
				value = "%"
			}
			if n := len(tokens); n > 0 && tokens[n-1].Kind == TokenText {
				tokens[n-1].Text += value
				continue
			}
			tokens = append(tokens, Token{Kind: TokenText, Text: value, Offset: tok.Pos.Offset})
		}
	}
	return tokens, nil
}
