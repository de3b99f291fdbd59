package bits

import (
	"errors"
	"testing"
)

func TestExtract(t *testing.T) {
	// li r3, 100
	const word = 0x38600064

	tests := []struct {
		name  string
		field Field
		want  uint32
	}{
		{"primary opcode", F(0, 5), 14},
		{"rt", F(6, 10), 3},
		{"ra", F(11, 15), 0},
		{"si", F(16, 31), 100},
		{"whole word msb0", F(0, 31), word},
		{"low byte lsb0", Field{Offset: 0, Width: 8, Order: LSB0}, 0x64},
		{"top nibble lsb0", Field{Offset: 28, Width: 4, Order: LSB0}, 0x3},
		{"whole word lsb0", Field{Offset: 0, Width: 32, Order: LSB0}, word},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.field.Extract(word)
			if err != nil {
				t.Fatalf("Extract(%s) error: %v", tt.field, err)
			}
			if got != tt.want {
				t.Errorf("Extract(%s) = %#x, want %#x", tt.field, got, tt.want)
			}
		})
	}
}

func TestExtractOutOfRange(t *testing.T) {
	tests := []struct {
		name  string
		field Field
	}{
		{"zero width", Field{Offset: 3}},
		{"past end msb0", Field{Offset: 30, Width: 3}},
		{"past end lsb0", Field{Offset: 31, Width: 2, Order: LSB0}},
		{"reversed range", F(10, 6)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.field.Extract(0xFFFFFFFF)
			if !errors.Is(err, ErrOutOfRange) {
				t.Errorf("Extract(%s) error = %v, want ErrOutOfRange", tt.field, err)
			}
		})
	}
}

func TestSignExtend(t *testing.T) {
	tests := []struct {
		v     uint32
		width uint
		want  int32
	}{
		{0x0064, 16, 100},
		{0xFFFF, 16, -1},
		{0x8000, 16, -32768},
		{0x7FFF, 16, 32767},
		{0x3FFFFFC, 26, -4},
		{0x1F, 5, -1},
		{0xDEADBEEF, 32, -559038737},
	}

	for _, tt := range tests {
		if got := SignExtend(tt.v, tt.width); got != tt.want {
			t.Errorf("SignExtend(%#x, %d) = %d, want %d", tt.v, tt.width, got, tt.want)
		}
	}
}
