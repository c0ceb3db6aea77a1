package shade

import "github.com/reyes-sl/shade/internal/value"

// attributeTypes names the dynamic type of every global a compiled
// shader can read or write, mirrored on internal/symtab/globals.go's
// globalsFor table so a caller building a Grid from this package never
// needs to import internal/value to spell out a type. A name outside
// this table (a shader-local uniform parameter, for instance) is never
// looked up through Grid — those are set via Shader.Parameter instead.
var attributeTypes = map[string]value.Type{
	"Cs": value.TypeColor, "Os": value.TypeColor,
	"P": value.TypePoint, "N": value.TypeNormal, "I": value.TypeVector,
	"s": value.TypeFloat, "t": value.TypeFloat,
	"Ci": value.TypeColor, "Oi": value.TypeColor,
	"Ps": value.TypePoint, "Cl": value.TypeColor, "Ol": value.TypeColor,
	"alpha": value.TypeFloat,
	"dPdu":  value.TypeVector, "dPdv": value.TypeVector,
}

// Grid is the named collection of per-sample values a Shader runs
// over, wrapping internal/value.Grid behind plain float32/[3]float32
// accessors so a caller of this package never needs to import an
// internal package to drive a shading pass.
type Grid struct {
	inner *value.Grid
}

// NewGrid allocates a width*height grid. Every attribute starts out
// unset; Populate or the Set* methods below fill in the ones a given
// shader kind reads.
func NewGrid(width, height int) *Grid {
	return &Grid{inner: value.NewGrid(width, height)}
}

// Size returns width*height.
func (g *Grid) Size() int { return g.inner.Size() }

// Populate fills P, N, s, t with a flat test patch, the shape a
// geometry dicer would hand the VM — a development/test convenience,
// not something a real renderer integration calls (spec.md §3.1).
func (g *Grid) Populate() { g.inner.Populate() }

// Float reads a float-typed attribute, broadcasting a uniform value
// across every sample.
func (g *Grid) Float(name string) []float32 {
	v, ok := g.inner.FindValue(name)
	if !ok {
		return make([]float32, g.Size())
	}
	out := make([]float32, g.Size())
	for i := range out {
		out[i] = v.FloatAt(i)
	}
	return out
}

// SetFloat installs a varying float-typed attribute, one value per
// sample; len(values) must equal g.Size().
func (g *Grid) SetFloat(name string, values []float32) {
	v := value.New(attrType(name, value.TypeFloat), value.StorageVarying, len(values))
	copy(v.Floats(), values)
	g.inner.SetValue(name, v)
}

// SetUniformFloat installs a uniform float-typed attribute, one value
// shared by every sample until promoted.
func (g *Grid) SetUniformFloat(name string, f float32) {
	v := value.New(attrType(name, value.TypeFloat), value.StorageUniform, 1)
	v.Floats()[0] = f
	g.inner.SetValue(name, v)
}

// Vec3 reads a color/point/vector/normal attribute, broadcasting a
// uniform value across every sample.
func (g *Grid) Vec3(name string) [][3]float32 {
	v, ok := g.inner.FindValue(name)
	if !ok {
		return make([][3]float32, g.Size())
	}
	out := make([][3]float32, g.Size())
	for i := range out {
		out[i] = v.Vec3At(i)
	}
	return out
}

// SetVec3 installs a varying color/point/vector/normal attribute, one
// triple per sample; len(values) must equal g.Size().
func (g *Grid) SetVec3(name string, values [][3]float32) {
	v := value.New(attrType(name, value.TypeColor), value.StorageVarying, len(values))
	copy(v.Vec3s(), values)
	g.inner.SetValue(name, v)
}

// SetUniformVec3 installs a uniform color/point/vector/normal
// attribute, one triple shared by every sample until promoted.
func (g *Grid) SetUniformVec3(name string, c [3]float32) {
	v := value.New(attrType(name, value.TypeColor), value.StorageUniform, 1)
	v.Vec3s()[0] = c
	g.inner.SetValue(name, v)
}

func attrType(name string, fallback value.Type) value.Type {
	if t, ok := attributeTypes[name]; ok {
		return t
	}
	return fallback
}
