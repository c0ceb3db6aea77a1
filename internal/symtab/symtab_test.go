package symtab

import (
	"testing"

	"github.com/reyes-sl/shade/internal/value"
)

func TestFindSymbolSearchesInnermostFirst(t *testing.T) {
	tbl := New()
	tbl.AddGlobal("P", value.TypePoint)
	tbl.PushScope()
	outer, err := tbl.AddSymbol("x")
	if err != nil {
		t.Fatal(err)
	}
	outer.Type = value.TypeFloat

	tbl.PushScope()
	inner, _ := tbl.AddSymbol("x")
	inner.Type = value.TypeColor

	if got := tbl.FindSymbol("x"); got != inner {
		t.Fatalf("FindSymbol should resolve to the innermost binding, got type %s", got.Type)
	}

	tbl.PopScope()
	if got := tbl.FindSymbol("x"); got != outer {
		t.Fatalf("after popping the inner scope, FindSymbol should resolve to the outer binding, got type %s", got.Type)
	}

	if tbl.FindSymbol("P") == nil {
		t.Fatal("global P should still resolve from a nested scope")
	}
}

func TestAddSymbolDuplicateInSameScopeFails(t *testing.T) {
	tbl := New()
	if _, err := tbl.AddSymbol("x"); err != nil {
		t.Fatal(err)
	}
	_, err := tbl.AddSymbol("x")
	if err == nil {
		t.Fatal("expected a duplicate-definition error")
	}
	if _, ok := err.(*DuplicateError); !ok {
		t.Fatalf("expected *DuplicateError, got %T", err)
	}
}

func TestAddSymbolSameNameDifferentScopeShadows(t *testing.T) {
	tbl := New()
	tbl.AddSymbol("x")
	tbl.PushScope()
	if _, err := tbl.AddSymbol("x"); err != nil {
		t.Fatalf("shadowing an outer-scope binding should succeed, got %v", err)
	}
}

func TestPushShaderScopeLoadsSurfaceGlobals(t *testing.T) {
	tbl := New()
	tbl.PushShaderScope(KindSurface)
	for _, name := range []string{"Cs", "Os", "P", "N", "I", "s", "t", "Ci", "Oi"} {
		if tbl.FindSymbol(name) == nil {
			t.Errorf("surface scope missing global %q", name)
		}
	}
	if tbl.FindSymbol("Cl") != nil {
		t.Error("surface scope should not carry light globals")
	}
}

func TestPushShaderScopeLoadsLightGlobals(t *testing.T) {
	tbl := New()
	tbl.PushShaderScope(KindLight)
	for _, name := range []string{"Ps", "N", "Cl", "Ol"} {
		if tbl.FindSymbol(name) == nil {
			t.Errorf("light scope missing global %q", name)
		}
	}
}

func TestPushIlluminanceScopeAddsLCLOL(t *testing.T) {
	tbl := New()
	tbl.PushShaderScope(KindSurface)
	tbl.PushIlluminanceScope()
	for _, name := range []string{"L", "Cl", "Ol"} {
		if tbl.FindSymbol(name) == nil {
			t.Errorf("illuminance scope missing global %q", name)
		}
	}
}

func TestPopScopeOnOutermostPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic popping the outermost scope")
		}
	}()
	tbl := New()
	tbl.PopScope()
}

func TestDepthTracksPushPop(t *testing.T) {
	tbl := New()
	if tbl.Depth() != 1 {
		t.Fatalf("Depth() = %d, want 1", tbl.Depth())
	}
	tbl.PushScope()
	tbl.PushScope()
	if tbl.Depth() != 3 {
		t.Fatalf("Depth() = %d, want 3", tbl.Depth())
	}
	tbl.PopScope()
	if tbl.Depth() != 2 {
		t.Fatalf("Depth() = %d, want 2", tbl.Depth())
	}
}
