// Package golden loads test corpora: lists of instruction words with the
// canonical IL they must lift to. Corpora are YAML or JSON; a built-in
// corpus is embedded.
package golden

import (
	"bytes"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"ppcil/internal/harness"
)

//go:embed testdata/corpus.yaml
var builtin []byte

// ErrBadEntry marks a corpus entry that cannot become a test case.
var ErrBadEntry = errors.New("bad corpus entry")

// Entry is the on-disk form of one case.
type Entry struct {
	Name     string `json:"name,omitempty" yaml:"name,omitempty" jsonschema:"title=Name,description=Label shown in reports"`
	Addr     uint32 `json:"addr,omitempty" yaml:"addr,omitempty" jsonschema:"title=Address,description=Address the word is lifted at"`
	Input    string `json:"input" yaml:"input" jsonschema:"title=Input,description=Instruction bytes as big-endian hex,example=38600064"`
	Expected string `json:"expected" yaml:"expected" jsonschema:"title=Expected,description=Canonical IL with one trailing LLIL_UNDEF trimmed"`
}

// Format selects the corpus encoding.
type Format uint8

const (
	YAML Format = iota
	JSON
)

// FormatOf picks the format from a file extension. Anything but .json is
// YAML.
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return JSON
	}
	return YAML
}

// ParseHex decodes instruction bytes written as hex. Whitespace and a
// leading 0x are ignored.
func ParseHex(s string) ([]byte, error) {
	s = strings.Join(strings.Fields(s), "")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return nil, errors.New("empty input")
	}
	return hex.DecodeString(s)
}

// Case converts the entry.
func (e Entry) Case() (harness.Case, error) {
	b, err := ParseHex(e.Input)
	if err != nil {
		return harness.Case{}, fmt.Errorf("%w: input %q: %v", ErrBadEntry, e.Input, err)
	}
	return harness.Case{Name: e.Name, Addr: e.Addr, Input: b, Expected: e.Expected}, nil
}

// EntryOf is the inverse of Entry.Case.
func EntryOf(c harness.Case) Entry {
	return Entry{Name: c.Name, Addr: c.Addr, Input: hex.EncodeToString(c.Input), Expected: c.Expected}
}

// Load reads a corpus from r.
func Load(r io.Reader, f Format) ([]harness.Case, error) {
	var entries []Entry
	switch f {
	case JSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&entries); err != nil {
			return nil, fmt.Errorf("decode json corpus: %w", err)
		}
	default:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&entries); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode yaml corpus: %w", err)
		}
	}

	cases := make([]harness.Case, 0, len(entries))
	for i, e := range entries {
		c, err := e.Case()
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		cases = append(cases, c)
	}
	return cases, nil
}

// LoadFile reads a corpus file, choosing the format by extension.
func LoadFile(path string) ([]harness.Case, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cases, err := Load(f, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cases, nil
}

// Builtin returns the embedded corpus.
func Builtin() ([]harness.Case, error) {
	return Load(bytes.NewReader(builtin), YAML)
}

// Write encodes cases as a YAML corpus.
func Write(w io.Writer, cases []harness.Case) error {
	entries := make([]Entry, len(cases))
	for i, c := range cases {
		entries[i] = EntryOf(c)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return err
	}
	return enc.Close()
}
