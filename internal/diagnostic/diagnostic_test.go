package diagnostic

import (
	"strings"
	"testing"
)

func TestAddErrorSetsHasErrors(t *testing.T) {
	dl := NewDiagnosticList("surface t() {}")
	if dl.HasErrors() {
		t.Fatal("fresh list should have no errors")
	}
	dl.AddError(0, SyntaxError, "unexpected token")
	if !dl.HasErrors() {
		t.Fatal("AddError should set HasErrors")
	}
	if dl.ErrorCount() != 1 {
		t.Fatalf("ErrorCount() = %d, want 1", dl.ErrorCount())
	}
}

func TestAddWarningDoesNotSetHasErrors(t *testing.T) {
	dl := NewDiagnosticList("surface t() {}")
	dl.AddWarning(0, UnknownIdentifier, "unused parameter")
	if dl.HasErrors() {
		t.Fatal("AddWarning should not set HasErrors")
	}
}

func TestMakePositionIsOneBased(t *testing.T) {
	dl := NewDiagnosticList("ab\ncd")
	pos := dl.MakePosition(3)
	if pos.Line != 2 || pos.Column != 1 {
		t.Fatalf("MakePosition(3) = %+v, want line 2 col 1", pos)
	}
}

func TestFormatIncludesCodeAndSourceLine(t *testing.T) {
	dl := NewDiagnosticList("surface t() { Ci[0] = 1; }")
	dl.AddError(14, Unimplemented, "indexed assignment is not implemented")
	out := dl.Format()
	if !strings.Contains(out, "UNIMPLEMENTED") {
		t.Errorf("Format() missing code, got %q", out)
	}
	if !strings.Contains(out, "Ci[0]") {
		t.Errorf("Format() missing source line, got %q", out)
	}
}

func TestClearResetsList(t *testing.T) {
	dl := NewDiagnosticList("x")
	dl.AddError(0, SyntaxError, "bad")
	dl.Clear()
	if dl.HasErrors() || len(dl.Diagnostics()) != 0 {
		t.Fatal("Clear should empty the list and reset HasErrors")
	}
}

type collectingSink struct {
	got []Diagnostic
}

func (c *collectingSink) Report(d Diagnostic) {
	c.got = append(c.got, d)
}

func TestSyncSinkForwardsToWrapped(t *testing.T) {
	c := &collectingSink{}
	sink := NewSyncSink(c)
	sink.Report(Diagnostic{Severity: Error, Code: TypeMismatch, Message: "boom"})
	if len(c.got) != 1 || c.got[0].Code != TypeMismatch {
		t.Fatalf("SyncSink did not forward report, got %+v", c.got)
	}
}
