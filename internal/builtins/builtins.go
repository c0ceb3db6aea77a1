// Package builtins defines the table of RSL built-in functions: their
// overload signatures (for the parser's overload resolution) and their
// evaluators (for the virtual machine's CALL_n instruction), grounded
// on color_functions.cpp's comp/setcomp/ctransform family and on the
// standard RSL math, geometric, transform and sampling functions named
// in spec.md §4.4.
package builtins

import (
	"github.com/chewxy/math32"

	"github.com/reyes-sl/shade/internal/symtab"
	"github.com/reyes-sl/shade/internal/value"
)

// Context exposes the external oracles spec.md §4.4 lists as VM
// state — coordinate systems, texture sampler, error sink — to the
// builtins that need them (transform/vtransform/ntransform and the
// texture/environment/shadow sampling calls). internal/vm implements
// this interface; builtins that don't need an oracle ignore ctx.
type Context interface {
	// Transform maps p from space into the renderer's current space.
	Transform(space string, p [3]float32) [3]float32
	// VTransform maps a vector (ignoring translation).
	VTransform(space string, v [3]float32) [3]float32
	// NTransform maps a normal (inverse-transpose rule).
	NTransform(space string, n [3]float32) [3]float32
	// Texture samples a 2D texture map at (s, t).
	Texture(name string, s, t float32) [3]float32
	// Environment samples a reflection/environment map along dir.
	Environment(name string, dir [3]float32) [3]float32
	// Shadow evaluates a shadow map's visibility at p, in [0, 1].
	Shadow(name string, p [3]float32) float32
	// ReportError forwards a runtime diagnostic to the VM's error sink.
	ReportError(code, message string)
}

// Eval evaluates a builtin overload given the calling Context, its
// already-typed argument Values, and the enclosing Grid's sample
// count. The returned Value's storage is uniform iff every argument
// is uniform; size follows.
type Eval func(ctx Context, args []*value.Value, gridSize int) *value.Value

// Overload is one callable signature of a Builtin, paired with its
// runtime evaluator.
type Overload struct {
	Params []symtab.Parameter
	Return value.Type
	Eval   Eval
}

// Builtin is a named RSL function, possibly with several overloads.
type Builtin struct {
	Name      string
	Overloads []Overload
}

// Table holds every registered builtin, keyed by name.
var Table = map[string]*Builtin{}

func register(name string, overloads ...Overload) {
	Table[name] = &Builtin{Name: name, Overloads: overloads}
}

func init() {
	registerMath()
	registerGeometric()
	registerColor()
	registerTransform()
	registerSampling()
}

// Lookup returns the builtin named name, or nil.
func Lookup(name string) *Builtin {
	return Table[name]
}

// Signatures returns the symtab.Signature list for a builtin, so the
// parser's symbol table can bind it as a KindBuiltin function.
func (b *Builtin) Signatures() []symtab.Signature {
	sigs := make([]symtab.Signature, len(b.Overloads))
	for i, o := range b.Overloads {
		sigs[i] = symtab.Signature{Params: o.Params, Return: o.Return, Builtin: o.Eval}
	}
	return sigs
}

// PopulateGlobalFunctions binds every registered builtin into tbl as
// a KindBuiltin global function symbol, so identifier lookup during
// parsing resolves calls to them like any other function.
func PopulateGlobalFunctions(tbl *symtab.Table) {
	for name, b := range Table {
		tbl.AddFunction(name, symtab.KindBuiltin, b.Signatures()...)
	}
}

func uniformFloat(f float32) *value.Value {
	v := value.New(value.TypeFloat, value.StorageUniform, 1)
	v.Floats()[0] = f
	return v
}

// floatUnary builds an Eval for f(x) applied lane-wise to a single
// float argument.
func floatUnary(f func(float32) float32) Eval {
	return func(ctx Context, args []*value.Value, gridSize int) *value.Value {
		x := args[0]
		n := value.ResultSize(gridSize, x)
		storage := value.ResultStorage(x)
		out := value.New(value.TypeFloat, storage, n)
		for i := 0; i < n; i++ {
			out.Floats()[i] = f(x.FloatAt(i))
		}
		return out
	}
}

// floatBinary builds an Eval for f(x, y) applied lane-wise to two
// float arguments.
func floatBinary(f func(a, b float32) float32) Eval {
	return func(ctx Context, args []*value.Value, gridSize int) *value.Value {
		a, b := args[0], args[1]
		n := value.ResultSize(gridSize, a, b)
		storage := value.ResultStorage(a, b)
		out := value.New(value.TypeFloat, storage, n)
		for i := 0; i < n; i++ {
			out.Floats()[i] = f(a.FloatAt(i), b.FloatAt(i))
		}
		return out
	}
}

func registerMath() {
	floatParam := symtab.Parameter{Type: value.TypeFloat, Storage: value.StorageVarying}

	unary := func(name string, f func(float32) float32) {
		register(name, Overload{
			Params: []symtab.Parameter{floatParam},
			Return: value.TypeFloat,
			Eval:   floatUnary(f),
		})
	}
	binary := func(name string, f func(a, b float32) float32) {
		register(name, Overload{
			Params: []symtab.Parameter{floatParam, floatParam},
			Return: value.TypeFloat,
			Eval:   floatBinary(f),
		})
	}

	unary("sin", math32.Sin)
	unary("cos", math32.Cos)
	unary("tan", math32.Tan)
	unary("asin", math32.Asin)
	unary("acos", math32.Acos)
	unary("sqrt", math32.Sqrt)
	unary("exp", math32.Exp)
	unary("log", math32.Log)
	unary("abs", math32.Abs)
	unary("floor", math32.Floor)
	unary("ceil", math32.Ceil)
	unary("round", math32.Round)
	unary("radians", func(x float32) float32 { return x * math32.Pi / 180 })
	unary("degrees", func(x float32) float32 { return x * 180 / math32.Pi })
	unary("sign", func(x float32) float32 {
		switch {
		case x > 0:
			return 1
		case x < 0:
			return -1
		default:
			return 0
		}
	})

	binary("atan2", math32.Atan2)
	binary("pow", math32.Pow)
	binary("mod", func(a, b float32) float32 { return a - b*math32.Floor(a/b) })
	binary("min", func(a, b float32) float32 {
		if a < b {
			return a
		}
		return b
	})
	binary("max", func(a, b float32) float32 {
		if a > b {
			return a
		}
		return b
	})

	register("clamp",
		Overload{
			Params: []symtab.Parameter{floatParam, floatParam, floatParam},
			Return: value.TypeFloat,
			Eval: func(ctx Context, args []*value.Value, gridSize int) *value.Value {
				x, lo, hi := args[0], args[1], args[2]
				n := value.ResultSize(gridSize, x, lo, hi)
				out := value.New(value.TypeFloat, value.ResultStorage(x, lo, hi), n)
				for i := 0; i < n; i++ {
					v := x.FloatAt(i)
					l, h := lo.FloatAt(i), hi.FloatAt(i)
					if v < l {
						v = l
					} else if v > h {
						v = h
					}
					out.Floats()[i] = v
				}
				return out
			},
		},
	)

	register("mix",
		Overload{
			Params: []symtab.Parameter{floatParam, floatParam, floatParam},
			Return: value.TypeFloat,
			Eval: func(ctx Context, args []*value.Value, gridSize int) *value.Value {
				a, b, t := args[0], args[1], args[2]
				n := value.ResultSize(gridSize, a, b, t)
				out := value.New(value.TypeFloat, value.ResultStorage(a, b, t), n)
				for i := 0; i < n; i++ {
					av, bv, tv := a.FloatAt(i), b.FloatAt(i), t.FloatAt(i)
					out.Floats()[i] = av + (bv-av)*tv
				}
				return out
			},
		},
	)

	register("step",
		Overload{
			Params: []symtab.Parameter{floatParam, floatParam},
			Return: value.TypeFloat,
			Eval: floatBinary(func(edge, x float32) float32 {
				if x < edge {
					return 0
				}
				return 1
			}),
		},
	)

	register("smoothstep",
		Overload{
			Params: []symtab.Parameter{floatParam, floatParam, floatParam},
			Return: value.TypeFloat,
			Eval: func(ctx Context, args []*value.Value, gridSize int) *value.Value {
				lo, hi, x := args[0], args[1], args[2]
				n := value.ResultSize(gridSize, lo, hi, x)
				out := value.New(value.TypeFloat, value.ResultStorage(lo, hi, x), n)
				for i := 0; i < n; i++ {
					l, h, v := lo.FloatAt(i), hi.FloatAt(i), x.FloatAt(i)
					t := (v - l) / (h - l)
					if t < 0 {
						t = 0
					} else if t > 1 {
						t = 1
					}
					out.Floats()[i] = t * t * (3 - 2*t)
				}
				return out
			},
		},
	)

	// noise is a coherent pseudo-random function; a lattice-free hash
	// stands in for Perlin noise since the original table lookups are
	// out of scope for this core.
	register("random",
		Overload{
			Return: value.TypeFloat,
			Eval: func(ctx Context, args []*value.Value, gridSize int) *value.Value {
				return uniformFloat(hashFloat(0))
			},
		},
	)
	register("noise",
		Overload{
			Params: []symtab.Parameter{floatParam},
			Return: value.TypeFloat,
			Eval:   floatUnary(func(x float32) float32 { return hashFloat(x) }),
		},
	)
}

// hashFloat is a small deterministic hash used as the noise/random
// stand-in, folded into [0, 1).
func hashFloat(seed float32) float32 {
	bits := math32.Float32bits(seed + 1)
	bits ^= bits >> 13
	bits *= 0x5bd1e995
	bits ^= bits >> 15
	return float32(bits%1000) / 1000
}
