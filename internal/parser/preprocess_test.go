package parser

import (
	"strings"
	"testing"
)

func TestPreprocessDefineSubstitutesWord(t *testing.T) {
	src := "#define KD 0.8\nfloat x = KD;\n"
	out, err := Preprocess(src, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(out, "\n")
	if lines[1] != "float x = 0.8;" {
		t.Fatalf("expected the define to be substituted, got %q", lines[1])
	}
}

func TestPreprocessDefinePreservesWordBoundaries(t *testing.T) {
	src := "#define N 3\nfloat NAME = 1;\n"
	out, err := Preprocess(src, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(out, "\n")
	if lines[1] != "float NAME = 1;" {
		t.Fatalf("expected NAME to be left untouched, got %q", lines[1])
	}
}

func TestPreprocessIfdefKeepsActiveBranch(t *testing.T) {
	src := "#define DEBUG 1\n#ifdef DEBUG\nfloat d = 1;\n#else\nfloat d = 0;\n#endif\n"
	out, err := Preprocess(src, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "float d = 1;") || strings.Contains(out, "float d = 0;") {
		t.Fatalf("expected only the #ifdef branch to survive, got %q", out)
	}
}

func TestPreprocessIfndefWhenUndefined(t *testing.T) {
	src := "#ifndef DEBUG\nfloat d = 0;\n#endif\n"
	out, err := Preprocess(src, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "float d = 0;") {
		t.Fatalf("expected the #ifndef branch to survive when DEBUG is undefined, got %q", out)
	}
}

func TestPreprocessPreservesLineCount(t *testing.T) {
	src := "#define X 1\nfloat a = X;\n#ifdef X\nfloat b = 1;\n#endif\nfloat c = 2;\n"
	out, err := Preprocess(src, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := len(strings.Split(out, "\n")), len(strings.Split(src, "\n")); got != want {
		t.Fatalf("expected line count to be preserved: got %d lines, want %d", got, want)
	}
}

func TestPreprocessUnterminatedIfdefIsError(t *testing.T) {
	src := "#ifdef X\nfloat a = 1;\n"
	if _, err := Preprocess(src, nil); err == nil {
		t.Fatalf("expected an error for an unterminated #ifdef")
	}
}

func TestPreprocessElseWithoutIfdefIsError(t *testing.T) {
	src := "#else\nfloat a = 1;\n"
	if _, err := Preprocess(src, nil); err == nil {
		t.Fatalf("expected an error for a stray #else")
	}
}
