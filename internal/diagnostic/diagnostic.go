// Package diagnostic provides error reporting for the RSL compiler and
// virtual machine: accurate source locations, severity levels, and a
// stable set of error codes shared by the parser, code generator, and
// VM.
package diagnostic

import (
	"fmt"
	"strings"
	"sync"

	"github.com/reyes-sl/shade/internal/sourcemap"
)

// Severity represents the severity level of a diagnostic.
type Severity uint8

const (
	Error Severity = iota
	Warning
	Info
	Note
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	case Note:
		return "note"
	default:
		return "unknown"
	}
}

// Position represents a position in source code.
type Position struct {
	Offset int
	Line   int
	Column int
}

// Range represents a range in source code.
type Range struct {
	Start Position
	End   Position
}

// RelatedInfo provides additional location information for a diagnostic.
type RelatedInfo struct {
	Range   Range
	Message string
}

// Code is a stable, machine-checkable identifier for a diagnostic,
// independent of its human-readable message — spec.md §6/§7's error
// taxonomy (syntactic, semantic, runtime, unimplemented).
type Code string

const (
	SyntaxError            Code = "SYNTAX_ERROR"
	ParsingFailed          Code = "PARSING_FAILED"
	OpeningFileFailed      Code = "OPENING_FILE_FAILED"
	UnknownColorSpace      Code = "UNKNOWN_COLOR_SPACE"
	UnknownCoordinateSystem Code = "UNKNOWN_COORDINATE_SYSTEM"
	UnknownIdentifier      Code = "UNKNOWN_IDENTIFIER"
	TypeMismatch           Code = "TYPE_MISMATCH"
	StorageMismatch        Code = "STORAGE_MISMATCH"
	OverloadNotFound       Code = "OVERLOAD_NOT_FOUND"
	Unimplemented          Code = "UNIMPLEMENTED"
	DuplicateSymbol        Code = "DUPLICATE_SYMBOL"
	BreakDepthExceeded     Code = "BREAK_DEPTH_EXCEEDED"
	TextureFetchFailed     Code = "TEXTURE_FETCH_FAILED"
)

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Range    Range
	Related  []RelatedInfo
}

// Error makes Diagnostic satisfy the error interface.
func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%d:%d: %s: %s", d.Range.Start.Line, d.Range.Start.Column, d.Severity, d.Message)
}

// DiagnosticList collects diagnostics produced while compiling a
// single shader. It is a single-writer accumulator: concurrent Add
// calls from multiple goroutines are not safe. Code that shades many
// grids in parallel and needs to report VM errors should use SyncSink
// instead, one per goroutine or wrapping a shared list.
type DiagnosticList struct {
	diagnostics []Diagnostic
	lineIndex   *sourcemap.LineIndex
	source      string
	hasErrors   bool
}

// NewDiagnosticList creates a diagnostic list for the given source.
func NewDiagnosticList(source string) *DiagnosticList {
	return &DiagnosticList{
		diagnostics: make([]Diagnostic, 0),
		lineIndex:   sourcemap.NewLineIndex(source),
		source:      source,
	}
}

// Add appends a diagnostic to the list.
func (dl *DiagnosticList) Add(d Diagnostic) {
	dl.diagnostics = append(dl.diagnostics, d)
	if d.Severity == Error {
		dl.hasErrors = true
	}
}

// AddError adds an error diagnostic at the given byte offset.
func (dl *DiagnosticList) AddError(offset int, code Code, message string) {
	dl.AddErrorRange(offset, offset+1, code, message)
}

// AddErrorRange adds an error diagnostic for a byte range.
func (dl *DiagnosticList) AddErrorRange(start, end int, code Code, message string) {
	dl.Add(Diagnostic{
		Severity: Error,
		Code:     code,
		Message:  message,
		Range:    dl.MakeRange(start, end),
	})
}

// AddWarning adds a warning diagnostic at the given byte offset.
func (dl *DiagnosticList) AddWarning(offset int, code Code, message string) {
	dl.Add(Diagnostic{
		Severity: Warning,
		Code:     code,
		Message:  message,
		Range:    dl.MakeRange(offset, offset+1),
	})
}

// MakePosition converts a byte offset to a Position.
func (dl *DiagnosticList) MakePosition(offset int) Position {
	line, col := dl.lineIndex.ByteOffsetToLineColumn(offset)
	return Position{Offset: offset, Line: line + 1, Column: col + 1}
}

// MakeRange converts byte offsets to a Range.
func (dl *DiagnosticList) MakeRange(start, end int) Range {
	return Range{Start: dl.MakePosition(start), End: dl.MakePosition(end)}
}

// HasErrors reports whether any error-level diagnostic was recorded.
func (dl *DiagnosticList) HasErrors() bool {
	return dl.hasErrors
}

// Diagnostics returns every collected diagnostic, in report order.
func (dl *DiagnosticList) Diagnostics() []Diagnostic {
	return dl.diagnostics
}

// ErrorCount returns the number of error-level diagnostics, the count
// spec.md §7 says the parser must consult before returning its tree.
func (dl *DiagnosticList) ErrorCount() int {
	count := 0
	for _, d := range dl.diagnostics {
		if d.Severity == Error {
			count++
		}
	}
	return count
}

// Format renders every diagnostic as a human-readable multi-line string.
func (dl *DiagnosticList) Format() string {
	if len(dl.diagnostics) == 0 {
		return ""
	}
	var sb strings.Builder
	for i := range dl.diagnostics {
		sb.WriteString(dl.FormatDiagnostic(&dl.diagnostics[i]))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// FormatDiagnostic renders a single diagnostic with source context.
func (dl *DiagnosticList) FormatDiagnostic(d *Diagnostic) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d:%d: %s [%s]: %s\n",
		d.Range.Start.Line, d.Range.Start.Column, d.Severity, d.Code, d.Message))

	if line := dl.getSourceLine(d.Range.Start.Line); line != "" {
		sb.WriteString(fmt.Sprintf("    %s\n", line))
		caret := strings.Repeat(" ", d.Range.Start.Column-1+4) + "^"
		if d.Range.End.Line == d.Range.Start.Line && d.Range.End.Column > d.Range.Start.Column {
			caret += strings.Repeat("~", d.Range.End.Column-d.Range.Start.Column-1)
		}
		sb.WriteString(caret)
		sb.WriteByte('\n')
	}

	for _, rel := range d.Related {
		sb.WriteString(fmt.Sprintf("  %d:%d: note: %s\n", rel.Range.Start.Line, rel.Range.Start.Column, rel.Message))
	}
	return sb.String()
}

func (dl *DiagnosticList) getSourceLine(line int) string {
	if line < 1 {
		return ""
	}
	lines := strings.Split(dl.source, "\n")
	if line > len(lines) {
		return ""
	}
	return strings.TrimRight(lines[line-1], "\r")
}

// Clear removes all diagnostics, resetting HasErrors.
func (dl *DiagnosticList) Clear() {
	dl.diagnostics = dl.diagnostics[:0]
	dl.hasErrors = false
}

// Sink is the narrow interface a renderer host implements to receive
// diagnostics — spec.md §6's "error sink" external interface.
type Sink interface {
	Report(Diagnostic)
}

// Report implements Sink by forwarding to Add.
func (dl *DiagnosticList) Report(d Diagnostic) {
	dl.Add(d)
}

// SyncSink wraps a Sink with a mutex so that many goroutines shading
// grids concurrently can report VM runtime errors through it safely,
// per spec.md §5's concurrency contract on the error sink.
type SyncSink struct {
	mu   sync.Mutex
	sink Sink
}

// NewSyncSink wraps sink for concurrent use.
func NewSyncSink(sink Sink) *SyncSink {
	return &SyncSink{sink: sink}
}

// Report forwards d to the wrapped sink under the mutex.
func (s *SyncSink) Report(d Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink.Report(d)
}
