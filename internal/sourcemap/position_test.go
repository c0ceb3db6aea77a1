package sourcemap

import (
	"fmt"
	"strings"
	"testing"
)

// ============================================================================
// Line Index Tests
// ============================================================================

func TestLineIndexEmpty(t *testing.T) {
	idx := NewLineIndex("")
	line, col := idx.ByteOffsetToLineColumn(0)
	if line != 0 || col != 0 {
		t.Errorf("Empty source offset 0: got (%d, %d), want (0, 0)", line, col)
	}
}

func TestLineIndexSingleLine(t *testing.T) {
	source := "const x = 1;"
	idx := NewLineIndex(source)

	tests := []struct {
		offset int
		line   int
		col    int
	}{
		{0, 0, 0},   // 'c'
		{6, 0, 6},   // 'x'
		{11, 0, 11}, // ';'
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("offset_%d", tt.offset), func(t *testing.T) {
			line, col := idx.ByteOffsetToLineColumn(tt.offset)
			if line != tt.line || col != tt.col {
				t.Errorf("offset %d: got (%d, %d), want (%d, %d)",
					tt.offset, line, col, tt.line, tt.col)
			}
		})
	}
}

func TestLineIndexMultiLine(t *testing.T) {
	source := "const x = 1;\nconst y = 2;\nconst z = 3;"
	idx := NewLineIndex(source)

	tests := []struct {
		offset int
		line   int
		col    int
	}{
		{0, 0, 0},   // 'c' of first line
		{6, 0, 6},   // 'x' of first line
		{12, 0, 12}, // ';' of first line
		{13, 1, 0},  // 'c' of second line (after \n)
		{19, 1, 6},  // 'y' of second line
		{26, 2, 0},  // 'c' of third line
		{32, 2, 6},  // 'z' of third line
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("offset_%d", tt.offset), func(t *testing.T) {
			line, col := idx.ByteOffsetToLineColumn(tt.offset)
			if line != tt.line || col != tt.col {
				t.Errorf("offset %d: got (%d, %d), want (%d, %d)",
					tt.offset, line, col, tt.line, tt.col)
			}
		})
	}
}

func TestLineIndexNewlineStyles(t *testing.T) {
	tests := []struct {
		name       string
		source     string
		lastLine   int // 0-indexed line the final byte falls on
	}{
		{"unix_lf", "a\nb\nc", 2},
		{"windows_crlf", "a\r\nb\r\nc", 2},
		{"old_mac_cr", "a\rb\rc", 2},
		{"trailing_lf", "a\nb\n", 1},
		{"trailing_crlf", "a\r\nb\r\n", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := NewLineIndex(tt.source)
			line, _ := idx.ByteOffsetToLineColumn(len(tt.source) - 1)
			if line != tt.lastLine {
				t.Errorf("last byte's line = %d, want %d", line, tt.lastLine)
			}
		})
	}
}

func TestLineIndexCRLFPositions(t *testing.T) {
	// Test that CRLF is treated as single newline
	source := "ab\r\ncd\r\nef"
	idx := NewLineIndex(source)

	tests := []struct {
		offset int
		line   int
		col    int
	}{
		{0, 0, 0}, // 'a'
		{1, 0, 1}, // 'b'
		{2, 0, 2}, // '\r' (still on line 0)
		{4, 1, 0}, // 'c' (first char of line 1)
		{5, 1, 1}, // 'd'
		{8, 2, 0}, // 'e' (first char of line 2)
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("offset_%d", tt.offset), func(t *testing.T) {
			line, col := idx.ByteOffsetToLineColumn(tt.offset)
			if line != tt.line || col != tt.col {
				t.Errorf("offset %d: got (%d, %d), want (%d, %d)",
					tt.offset, line, col, tt.line, tt.col)
			}
		})
	}
}

func TestByteOffsetToLineColumnOutOfBounds(t *testing.T) {
	source := "abc"
	idx := NewLineIndex(source)

	// Test offset beyond source length
	line, col := idx.ByteOffsetToLineColumn(100)
	// Should clamp to end of source
	if line != 0 || col != 3 {
		t.Errorf("Out of bounds offset: got (%d, %d), want (0, 3)", line, col)
	}

	// Test negative offset
	line, col = idx.ByteOffsetToLineColumn(-1)
	if line != 0 || col != 0 {
		t.Errorf("Negative offset: got (%d, %d), want (0, 0)", line, col)
	}
}

func TestByteOffsetToLineColumnASCII(t *testing.T) {
	source := "const x = 1;"
	idx := NewLineIndex(source)

	line, col := idx.ByteOffsetToLineColumn(6)
	if line != 0 || col != 6 {
		t.Errorf("ASCII offset 6: got (%d, %d), want (0, 6)", line, col)
	}
}

func TestByteOffsetToLineColumnMultibyte(t *testing.T) {
	// "café" — 'é' is 2 UTF-8 bytes; the column is in bytes, not runes,
	// so the byte after 'é' lands on column 5, not 4.
	source := "café!"
	idx := NewLineIndex(source)

	_, col := idx.ByteOffsetToLineColumn(5)
	if col != 5 {
		t.Errorf("byte offset 5: col = %d, want 5", col)
	}
}

func TestVeryLongLine(t *testing.T) {
	// Create a source with a very long line
	var builder strings.Builder
	builder.WriteString("const x = ")
	for i := 0; i < 10000; i++ {
		builder.WriteString("a")
	}
	builder.WriteString(";")
	source := builder.String()

	idx := NewLineIndex(source)

	// Check position near end
	offset := len(source) - 1
	line, col := idx.ByteOffsetToLineColumn(offset)
	if line != 0 {
		t.Errorf("Line = %d, want 0", line)
	}
	if col != offset {
		t.Errorf("Col = %d, want %d", col, offset)
	}
}

func TestManyLines(t *testing.T) {
	// Create source with many lines
	var builder strings.Builder
	lineCount := 10000
	for i := 0; i < lineCount; i++ {
		builder.WriteString(fmt.Sprintf("const x%d = %d;\n", i, i))
	}
	source := builder.String()

	idx := NewLineIndex(source)

	// Check first line
	line, col := idx.ByteOffsetToLineColumn(0)
	if line != 0 || col != 0 {
		t.Errorf("First char: got (%d, %d), want (0, 0)", line, col)
	}

	// Check middle of source - find a known line
	midOffset := len(source) / 2
	line, _ = idx.ByteOffsetToLineColumn(midOffset)
	if line < lineCount/4 || line > lineCount*3/4 {
		t.Errorf("Middle offset %d mapped to line %d, expected between %d and %d",
			midOffset, line, lineCount/4, lineCount*3/4)
	}

	// Check last line
	lastLineStart := len(source) - 20 // approximate start of last line
	line, _ = idx.ByteOffsetToLineColumn(lastLineStart)
	if line != lineCount-1 {
		t.Errorf("Last line = %d, want %d", line, lineCount-1)
	}
}

// Benchmark tests
func BenchmarkNewLineIndex(b *testing.B) {
	var builder strings.Builder
	for i := 0; i < 1000; i++ {
		builder.WriteString(fmt.Sprintf("const x%d = %d;\n", i, i))
	}
	source := builder.String()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		NewLineIndex(source)
	}
}

func BenchmarkByteOffsetToLineColumn(b *testing.B) {
	var builder strings.Builder
	for i := 0; i < 1000; i++ {
		builder.WriteString(fmt.Sprintf("const x%d = %d;\n", i, i))
	}
	source := builder.String()
	idx := NewLineIndex(source)
	offset := len(source) / 2

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		idx.ByteOffsetToLineColumn(offset)
	}
}

// Test edge cases for ByteOffsetToLineColumn with empty source
func TestByteOffsetToLineColumnEmptySourcePositiveOffset(t *testing.T) {
	idx := NewLineIndex("")
	// Test with positive offset on empty source
	line, col := idx.ByteOffsetToLineColumn(10)
	if line != 0 || col != 0 {
		t.Errorf("Empty source offset 10: got (%d, %d), want (0, 0)", line, col)
	}
}
