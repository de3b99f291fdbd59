package colorize

import (
	"strings"
	"testing"

	"github.com/alecthomas/chroma/v2"
)

func TestTokens(t *testing.T) {
	toks, err := Tokens("LLIL_SET_REG.d{none}(r3,LLIL_CONST.d(0x64))")
	if err != nil {
		t.Fatal(err)
	}

	byType := make(map[chroma.TokenType][]string)
	var joined strings.Builder
	for _, tok := range toks {
		byType[tok.Type] = append(byType[tok.Type], tok.Value)
		joined.WriteString(tok.Value)
	}

	if got := joined.String(); got != "LLIL_SET_REG.d{none}(r3,LLIL_CONST.d(0x64))" {
		t.Errorf("tokens do not cover the input: %q", got)
	}
	checks := map[chroma.TokenType][]string{
		chroma.Keyword:          {"LLIL_SET_REG", "LLIL_CONST"},
		chroma.KeywordType:      {".d", ".d"},
		chroma.NameAttribute:    {"{none}"},
		chroma.NameVariable:     {"r3"},
		chroma.LiteralNumberHex: {"0x64"},
	}
	for typ, want := range checks {
		if got := byType[typ]; strings.Join(got, " ") != strings.Join(want, " ") {
			t.Errorf("%v tokens = %q, want %q", typ, got, want)
		}
	}
}

func TestNoColor(t *testing.T) {
	t.Setenv("PPCIL_NO_COLOR", "1")
	const s = "LLIL_NOP{none}()"
	if got := IL(s); got != s {
		t.Errorf("IL with PPCIL_NO_COLOR = %q", got)
	}
	if got := Assembly("li r3,100"); got != "li r3,100" {
		t.Errorf("Assembly with PPCIL_NO_COLOR = %q", got)
	}
}

func TestILColored(t *testing.T) {
	t.Setenv("PPCIL_NO_COLOR", "")
	got := IL("LLIL_NOP{none}()")
	if !strings.Contains(got, "\x1b[") || !strings.Contains(got, "LLIL_NOP") {
		t.Errorf("IL = %q, want ANSI escapes", got)
	}
}
