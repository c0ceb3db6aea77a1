package builtins

import (
	"math"
	"testing"

	"github.com/reyes-sl/shade/internal/value"
)

type fakeContext struct{}

func (fakeContext) Transform(string, [3]float32) [3]float32         { return [3]float32{} }
func (fakeContext) VTransform(string, [3]float32) [3]float32        { return [3]float32{} }
func (fakeContext) NTransform(string, [3]float32) [3]float32        { return [3]float32{} }
func (fakeContext) Texture(string, float32, float32) [3]float32     { return [3]float32{} }
func (fakeContext) Environment(string, [3]float32) [3]float32       { return [3]float32{} }
func (fakeContext) Shadow(string, [3]float32) float32                { return 1 }
func (fakeContext) ReportError(string, string)                       {}

func uniformF(f float32) *value.Value {
	v := value.New(value.TypeFloat, value.StorageUniform, 1)
	v.Floats()[0] = f
	return v
}

func varyingF(vals ...float32) *value.Value {
	v := value.New(value.TypeFloat, value.StorageVarying, len(vals))
	copy(v.Floats(), vals)
	return v
}

func approxEqual(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func TestClampClampsWithinBounds(t *testing.T) {
	b := Lookup("clamp")
	out := b.Overloads[0].Eval(fakeContext{}, []*value.Value{uniformF(5), uniformF(0), uniformF(1)}, 1)
	if !approxEqual(out.Floats()[0], 1) {
		t.Fatalf("clamp(5,0,1) = %v, want 1", out.Floats()[0])
	}
}

func TestMixInterpolates(t *testing.T) {
	b := Lookup("mix")
	out := b.Overloads[0].Eval(fakeContext{}, []*value.Value{uniformF(0), uniformF(10), uniformF(0.5)}, 1)
	if !approxEqual(out.Floats()[0], 5) {
		t.Fatalf("mix(0,10,0.5) = %v, want 5", out.Floats()[0])
	}
}

func TestMinMaxPromoteToVarying(t *testing.T) {
	b := Lookup("max")
	out := b.Overloads[0].Eval(fakeContext{}, []*value.Value{varyingF(1, 5, 2), uniformF(3)}, 3)
	if out.Storage() != value.StorageVarying || out.Size() != 3 {
		t.Fatalf("max should broadcast to varying size 3, got storage=%s size=%d", out.Storage(), out.Size())
	}
	want := []float32{3, 5, 3}
	for i, w := range want {
		if !approxEqual(out.Floats()[i], w) {
			t.Fatalf("max()[%d] = %v, want %v", i, out.Floats()[i], w)
		}
	}
}

func vec3(x, y, z float32) *value.Value {
	v := value.New(value.TypeVector, value.StorageUniform, 1)
	v.Vec3s()[0] = [3]float32{x, y, z}
	return v
}

func TestNormalizeUnitLength(t *testing.T) {
	b := Lookup("normalize")
	out := b.Overloads[0].Eval(fakeContext{}, []*value.Value{vec3(3, 0, 0)}, 1)
	got := out.Vec3s()[0]
	if !approxEqual(got[0], 1) || !approxEqual(got[1], 0) || !approxEqual(got[2], 0) {
		t.Fatalf("normalize((3,0,0)) = %v, want (1,0,0)", got)
	}
}

func TestDotOrthogonalIsZero(t *testing.T) {
	b := Lookup("dot")
	out := b.Overloads[0].Eval(fakeContext{}, []*value.Value{vec3(1, 0, 0), vec3(0, 1, 0)}, 1)
	if !approxEqual(out.Floats()[0], 0) {
		t.Fatalf("dot((1,0,0),(0,1,0)) = %v, want 0", out.Floats()[0])
	}
}

func TestCrossRightHanded(t *testing.T) {
	b := Lookup("cross")
	out := b.Overloads[0].Eval(fakeContext{}, []*value.Value{vec3(1, 0, 0), vec3(0, 1, 0)}, 1)
	got := out.Vec3s()[0]
	if !approxEqual(got[0], 0) || !approxEqual(got[1], 0) || !approxEqual(got[2], 1) {
		t.Fatalf("cross(X,Y) = %v, want (0,0,1)", got)
	}
}

func uniformColor(r, g, b float32) *value.Value {
	v := value.New(value.TypeColor, value.StorageUniform, 1)
	v.Vec3s()[0] = [3]float32{r, g, b}
	return v
}

func uniformString(s string) *value.Value {
	v := value.New(value.TypeString, value.StorageUniform, 1)
	v.Strings()[0] = s
	return v
}

func TestCompReadsChannel(t *testing.T) {
	b := Lookup("comp")
	out := b.Overloads[0].Eval(fakeContext{}, []*value.Value{uniformColor(1, 2, 3), uniformF(1)}, 1)
	if !approxEqual(out.Floats()[0], 2) {
		t.Fatalf("comp(c, 1) = %v, want 2", out.Floats()[0])
	}
}

func TestSetcompWritesChannel(t *testing.T) {
	b := Lookup("setcomp")
	out := b.Overloads[0].Eval(fakeContext{}, []*value.Value{uniformColor(1, 2, 3), uniformF(2), uniformF(9)}, 1)
	got := out.Vec3s()[0]
	if !approxEqual(got[2], 9) {
		t.Fatalf("setcomp did not write channel 2: got %v", got)
	}
}

func TestCtransformHSVRoundTrips(t *testing.T) {
	rgbToHSV := colorConversion("rgb_to_hsv")
	hsvToRGB := colorConversion("hsv")
	c := [3]float32{0.2, 0.4, 0.8}
	back := hsvToRGB(rgbToHSV(c))
	for i := range c {
		if !approxEqual(back[i], c[i]) {
			t.Fatalf("hsv round trip: got %v, want %v", back, c)
		}
	}
}

func TestCtransformUnknownSpaceIsIdentity(t *testing.T) {
	b := Lookup("ctransform")
	out := b.Overloads[0].Eval(fakeContext{}, []*value.Value{uniformString("nosuchspace"), uniformColor(1, 2, 3)}, 1)
	got := out.Vec3s()[0]
	if got != [3]float32{1, 2, 3} {
		t.Fatalf("unknown space should pass color through unchanged, got %v", got)
	}
}
