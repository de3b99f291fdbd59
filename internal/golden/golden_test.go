package golden

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"ppcil/internal/harness"
)

func TestBuiltinCorpusPasses(t *testing.T) {
	cases, err := Builtin()
	if err != nil {
		t.Fatal(err)
	}
	if len(cases) < 50 {
		t.Fatalf("built-in corpus has %d cases", len(cases))
	}

	r := &harness.Runner{Parallel: 4}
	sum, err := r.Run(context.Background(), cases)
	if err != nil {
		t.Fatal(err)
	}
	for _, res := range sum.Results {
		if !res.Passed() {
			t.Errorf("case %d (%s): %s\n\texpected: %s\n\t  actual: %s\n\t   error: %v",
				res.Index, res.Case.Name, res.Status, res.Case.Expected, res.Actual, res.Err)
		}
	}
	if !sum.OK() {
		t.Errorf("summary not OK: %+v", sum)
	}
}

func TestLoadYAML(t *testing.T) {
	const doc = `
- name: li r3,100
  input: "38 60 00 64"
  expected: LLIL_SET_REG.d{none}(r3,LLIL_CONST.d(0x64))
- addr: 0x1000
  input: "0x48000010"
  expected: LLIL_JUMP{none}(LLIL_CONST_PTR.d(0x1010))
`
	got, err := Load(strings.NewReader(doc), YAML)
	if err != nil {
		t.Fatal(err)
	}
	want := []harness.Case{
		{Name: "li r3,100", Input: []byte{0x38, 0x60, 0x00, 0x64}, Expected: "LLIL_SET_REG.d{none}(r3,LLIL_CONST.d(0x64))"},
		{Addr: 0x1000, Input: []byte{0x48, 0x00, 0x00, 0x10}, Expected: "LLIL_JUMP{none}(LLIL_CONST_PTR.d(0x1010))"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadJSON(t *testing.T) {
	const doc = `[{"name":"nop","input":"60000000","expected":"LLIL_NOP{none}()"}]`
	got, err := Load(strings.NewReader(doc), JSON)
	if err != nil {
		t.Fatal(err)
	}
	want := []harness.Case{{Name: "nop", Input: []byte{0x60, 0, 0, 0}, Expected: "LLIL_NOP{none}()"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadEmpty(t *testing.T) {
	got, err := Load(strings.NewReader(""), YAML)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("got %d cases from empty corpus", len(got))
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		f    Format
	}{
		{"bad hex", `[{input: "zz", expected: x}]`, YAML},
		{"empty input", `[{input: "", expected: x}]`, YAML},
		{"unknown field", `[{input: "60000000", expect: x}]`, YAML},
		{"json unknown field", `[{"input":"60000000","expect":"x"}]`, JSON},
		{"not a list", `input: 60000000`, YAML},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(strings.NewReader(tt.doc), tt.f); err == nil {
				t.Error("Load succeeded")
			}
		})
	}

	_, err := Load(strings.NewReader(`[{input: "zz", expected: x}]`), YAML)
	if !errors.Is(err, ErrBadEntry) {
		t.Errorf("bad hex error = %v, want ErrBadEntry", err)
	}
}

func TestWriteThenLoadFile(t *testing.T) {
	cases := []harness.Case{
		{Name: "blr", Input: []byte{0x4e, 0x80, 0x00, 0x20}, Expected: "LLIL_RET{none}(LLIL_REG.d(lr))"},
		{Name: "b", Addr: 0x100, Input: []byte{0x4b, 0xff, 0xff, 0xfc}, Expected: "LLIL_JUMP{none}(LLIL_CONST_PTR.d(0xFC))"},
	}
	var buf bytes.Buffer
	if err := Write(&buf, cases); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "corpus.yml")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(cases, got); diff != "" {
		t.Errorf("LoadFile mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatOf(t *testing.T) {
	for path, want := range map[string]Format{
		"a.json":     JSON,
		"a.JSON":     JSON,
		"a.yaml":     YAML,
		"a.yml":      YAML,
		"corpus":     YAML,
		"dir.json/a": YAML,
	} {
		if got := FormatOf(path); got != want {
			t.Errorf("FormatOf(%q) = %v, want %v", path, got, want)
		}
	}
}
