package colorize

import (
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
)

// Dark is the palette for IL and disassembly listings.
var Dark = styles.Register(chroma.MustNewStyle("ppcil-dark", chroma.StyleEntries{
	chroma.Text:       "#FFFFFF",
	chroma.Background: "bg:#1e1e1e",
	chroma.Comment:    "#6A9955",

	chroma.Keyword:       "#569CD6", // LLIL_* and mnemonics
	chroma.KeywordType:   "#858585", // size suffix
	chroma.NameAttribute: "#DCDCAA", // flag write
	chroma.Name:          "#7C9C9D",
	chroma.NameBuiltin:   "#7C9C9D",
	chroma.NameVariable:  "#7C9C9D", // registers and flags
	chroma.NameLabel:     "#FFD700",
	chroma.NameFunction:  "#FFFFFF",

	chroma.LiteralNumber:        "#FF5F87",
	chroma.LiteralNumberHex:     "#FF5F87",
	chroma.LiteralNumberInteger: "#FF5F87",

	chroma.Operator:    "#FFFFFF",
	chroma.Punctuation: "#D4D4D4",
	chroma.String:      "#EACD53",
}))
