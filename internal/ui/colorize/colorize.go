// Package colorize highlights LLIL text and PowerPC disassembly for the
// terminal. Setting PPCIL_NO_COLOR disables it.
package colorize

import (
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// ILLexer tokenizes canonical LLIL strings.
var ILLexer = lexers.Register(chroma.MustNewLexer(
	&chroma.Config{
		Name:      "LLIL",
		Aliases:   []string{"llil"},
		MimeTypes: []string{"text/x-llil"},
	},
	func() chroma.Rules {
		return chroma.Rules{
			"root": {
				{Pattern: `LLIL_[A-Z_]+`, Type: chroma.Keyword},
				{Pattern: `\.[bwdqo]\b`, Type: chroma.KeywordType},
				{Pattern: `\{[a-z0-9_]+\}`, Type: chroma.NameAttribute},
				{Pattern: `0x[0-9A-Fa-f]+`, Type: chroma.LiteralNumberHex},
				{Pattern: `-?[0-9]+`, Type: chroma.LiteralNumberInteger},
				{Pattern: `[a-z_][a-z0-9_]*`, Type: chroma.NameVariable},
				{Pattern: `[(),;]`, Type: chroma.Punctuation},
				{Pattern: `\s+`, Type: chroma.TextWhitespace},
				{Pattern: `.`, Type: chroma.Text},
			},
		}
	},
))

// Enabled reports whether highlighting is on.
func Enabled() bool {
	return os.Getenv("PPCIL_NO_COLOR") == ""
}

func assemblyLexer() chroma.Lexer {
	for _, name := range []string{"gas", "GAS", "nasm"} {
		if lexer := lexers.Get(name); lexer != nil {
			return lexer
		}
	}
	return nil
}

func style() *chroma.Style {
	for _, name := range []string{"ppcil-dark", "dracula", "monokai"} {
		if s := styles.Get(name); s != nil {
			return s
		}
	}
	return styles.Fallback
}

func formatter() chroma.Formatter {
	for _, name := range []string{"terminal16m", "terminal256"} {
		if f := formatters.Get(name); f != nil {
			return f
		}
	}
	return formatters.Fallback
}

func highlight(lexer chroma.Lexer, text string) (string, error) {
	if !Enabled() || lexer == nil {
		return text, nil
	}
	it, err := lexer.Tokenise(nil, text)
	if err != nil {
		return text, err
	}
	var buf strings.Builder
	if err := formatter().Format(&buf, style(), it); err != nil {
		return text, err
	}
	return buf.String(), nil
}

// IL highlights canonical LLIL text. On error the text is returned as is.
func IL(text string) string {
	out, err := highlight(ILLexer, text)
	if err != nil {
		return text
	}
	return out
}

// Assembly highlights a line of GNU-syntax disassembly.
func Assembly(text string) string {
	out, err := highlight(assemblyLexer(), text)
	if err != nil {
		return text
	}
	return out
}

// Tokens splits IL text into chroma tokens without formatting.
func Tokens(text string) ([]chroma.Token, error) {
	it, err := ILLexer.Tokenise(nil, text)
	if err != nil {
		return nil, err
	}
	return it.Tokens(), nil
}
