package value

import "testing"

func TestResetSizesBuffers(t *testing.T) {
	tests := []struct {
		name string
		typ  Type
		size int
	}{
		{"float", TypeFloat, 4},
		{"color", TypeColor, 16},
		{"matrix", TypeMatrix, 1},
		{"string", TypeString, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New(tt.typ, StorageVarying, tt.size)
			if v.Size() != tt.size {
				t.Fatalf("Size() = %d, want %d", v.Size(), tt.size)
			}
			switch tt.typ {
			case TypeFloat:
				if len(v.Floats()) != tt.size {
					t.Fatalf("Floats() length = %d, want %d", len(v.Floats()), tt.size)
				}
			case TypeColor:
				if len(v.Vec3s()) != tt.size {
					t.Fatalf("Vec3s() length = %d, want %d", len(v.Vec3s()), tt.size)
				}
			case TypeMatrix:
				if len(v.Matrices()) != tt.size {
					t.Fatalf("Matrices() length = %d, want %d", len(v.Matrices()), tt.size)
				}
			case TypeString:
				if len(v.Strings()) != tt.size {
					t.Fatalf("Strings() length = %d, want %d", len(v.Strings()), tt.size)
				}
			}
		})
	}
}

func TestFloatsPanicsOnWrongType(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic calling Floats() on a color value")
		}
	}()
	v := New(TypeColor, StorageUniform, 1)
	v.Floats()
}

func TestPromoteBroadcastsUniform(t *testing.T) {
	v := New(TypeFloat, StorageUniform, 1)
	v.Floats()[0] = 3.5
	v.Promote(6)
	if v.Storage() != StorageVarying || v.Size() != 6 {
		t.Fatalf("Promote did not update storage/size: %v %d", v.Storage(), v.Size())
	}
	for i, f := range v.Floats() {
		if f != 3.5 {
			t.Fatalf("Floats()[%d] = %v, want 3.5", i, f)
		}
	}
}

func TestGridValueCreatesAndReuses(t *testing.T) {
	g := NewGrid(2, 2)
	ci := g.Value("Ci", TypeColor)
	if ci.Size() != 4 {
		t.Fatalf("Ci size = %d, want 4 (width*height)", ci.Size())
	}
	again := g.Value("Ci", TypeColor)
	if again != ci {
		t.Fatal("Value() should return the same *Value for an existing name/type")
	}
	if _, ok := g.FindValue("nonexistent"); ok {
		t.Fatal("FindValue should report false for a name never created")
	}
}

func TestGridValueRetypesOnTypeChange(t *testing.T) {
	g := NewGrid(1, 1)
	v := g.Value("x", TypeFloat)
	v.Floats()[0] = 1
	v2 := g.Value("x", TypeColor)
	if v2.Type() != TypeColor {
		t.Fatalf("Value() with a new type did not reallocate: got %s", v2.Type())
	}
}

func TestGridNamesPreservesInsertionOrder(t *testing.T) {
	g := NewGrid(1, 1)
	g.Value("P", TypePoint)
	g.Value("N", TypeNormal)
	g.Value("Cs", TypeColor)
	want := []string{"P", "N", "Cs"}
	got := g.Names()
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Names()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestFloatAtBroadcastsUniform(t *testing.T) {
	u := New(TypeFloat, StorageUniform, 1)
	u.Floats()[0] = 7
	for _, i := range []int{0, 1, 5} {
		if got := u.FloatAt(i); got != 7 {
			t.Fatalf("FloatAt(%d) = %v, want 7 (broadcast)", i, got)
		}
	}
}

func TestResultStorageVaryingIfAnyOperandVarying(t *testing.T) {
	u := New(TypeFloat, StorageUniform, 1)
	vr := New(TypeFloat, StorageVarying, 4)
	if ResultStorage(u, u) != StorageUniform {
		t.Fatal("ResultStorage of two uniforms should be uniform")
	}
	if ResultStorage(u, vr) != StorageVarying {
		t.Fatal("ResultStorage should be varying if any operand is varying")
	}
}

func TestGridPopulateFillsVaryingSize(t *testing.T) {
	g := NewGrid(3, 2)
	g.Populate()
	p, ok := g.FindValue("P")
	if !ok {
		t.Fatal("Populate should create P")
	}
	if p.Size() != g.Size() {
		t.Fatalf("P size = %d, want %d", p.Size(), g.Size())
	}
}
