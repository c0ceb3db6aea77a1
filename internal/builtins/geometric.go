package builtins

import (
	"github.com/chewxy/math32"

	"github.com/reyes-sl/shade/internal/symtab"
	"github.com/reyes-sl/shade/internal/value"
)

func vec3Param() symtab.Parameter {
	return symtab.Parameter{Type: value.TypeVector, Storage: value.StorageVarying}
}

func dot3(a, b [3]float32) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func length3(a [3]float32) float32 {
	return math32.Sqrt(dot3(a, a))
}

func scale3(a [3]float32, s float32) [3]float32 {
	return [3]float32{a[0] * s, a[1] * s, a[2] * s}
}

func sub3(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func add3(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func neg3(a [3]float32) [3]float32 {
	return [3]float32{-a[0], -a[1], -a[2]}
}

func cross3(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// vec3UnaryToFloat builds an Eval for a function of one vector argument
// returning a float, applied lane-wise (length, dot-with-self, etc).
func vec3UnaryToFloat(f func([3]float32) float32) Eval {
	return func(ctx Context, args []*value.Value, gridSize int) *value.Value {
		a := args[0]
		n := value.ResultSize(gridSize, a)
		out := value.New(value.TypeFloat, value.ResultStorage(a), n)
		for i := 0; i < n; i++ {
			out.Floats()[i] = f(a.Vec3At(i))
		}
		return out
	}
}

// vec3UnaryToVec3 builds an Eval for a function of one vector
// argument returning a vector, applied lane-wise.
func vec3UnaryToVec3(resultType value.Type, f func([3]float32) [3]float32) Eval {
	return func(ctx Context, args []*value.Value, gridSize int) *value.Value {
		a := args[0]
		n := value.ResultSize(gridSize, a)
		out := value.New(resultType, value.ResultStorage(a), n)
		for i := 0; i < n; i++ {
			out.Vec3s()[i] = f(a.Vec3At(i))
		}
		return out
	}
}

// vec3BinaryToFloat builds an Eval for a function of two vector
// arguments returning a float (dot, distance).
func vec3BinaryToFloat(f func(a, b [3]float32) float32) Eval {
	return func(ctx Context, args []*value.Value, gridSize int) *value.Value {
		a, b := args[0], args[1]
		n := value.ResultSize(gridSize, a, b)
		out := value.New(value.TypeFloat, value.ResultStorage(a, b), n)
		for i := 0; i < n; i++ {
			out.Floats()[i] = f(a.Vec3At(i), b.Vec3At(i))
		}
		return out
	}
}

// vec3BinaryToVec3 builds an Eval for a function of two vector
// arguments returning a vector (cross, reflect).
func vec3BinaryToVec3(resultType value.Type, f func(a, b [3]float32) [3]float32) Eval {
	return func(ctx Context, args []*value.Value, gridSize int) *value.Value {
		a, b := args[0], args[1]
		n := value.ResultSize(gridSize, a, b)
		out := value.New(resultType, value.ResultStorage(a, b), n)
		for i := 0; i < n; i++ {
			out.Vec3s()[i] = f(a.Vec3At(i), b.Vec3At(i))
		}
		return out
	}
}

func registerGeometric() {
	vp := vec3Param()

	register("length", Overload{
		Params: []symtab.Parameter{vp},
		Return: value.TypeFloat,
		Eval:   vec3UnaryToFloat(length3),
	})

	register("distance", Overload{
		Params: []symtab.Parameter{vp, vp},
		Return: value.TypeFloat,
		Eval:   vec3BinaryToFloat(func(a, b [3]float32) float32 { return length3(sub3(a, b)) }),
	})

	register("dot", Overload{
		Params: []symtab.Parameter{vp, vp},
		Return: value.TypeFloat,
		Eval:   vec3BinaryToFloat(dot3),
	})

	register("normalize", Overload{
		Params: []symtab.Parameter{vp},
		Return: value.TypeVector,
		Eval: vec3UnaryToVec3(value.TypeVector, func(a [3]float32) [3]float32 {
			l := length3(a)
			if l == 0 {
				return a
			}
			return scale3(a, 1/l)
		}),
	})

	register("cross", Overload{
		Params: []symtab.Parameter{vp, vp},
		Return: value.TypeVector,
		Eval:   vec3BinaryToVec3(value.TypeVector, cross3),
	})

	// faceforward(N, I) flips N so it points against I.
	register("faceforward", Overload{
		Params: []symtab.Parameter{vp, vp},
		Return: value.TypeVector,
		Eval: vec3BinaryToVec3(value.TypeVector, func(n, i [3]float32) [3]float32 {
			if dot3(n, i) < 0 {
				return n
			}
			return neg3(n)
		}),
	})

	// reflect(I, N) reflects I about N.
	register("reflect", Overload{
		Params: []symtab.Parameter{vp, vp},
		Return: value.TypeVector,
		Eval: vec3BinaryToVec3(value.TypeVector, func(i, n [3]float32) [3]float32 {
			return sub3(i, scale3(n, 2*dot3(i, n)))
		}),
	})

	// refract(I, N, eta) bends I through a surface with relative
	// index of refraction eta; the zero vector is returned on total
	// internal reflection, per the original implementation's fallback.
	register("refract", Overload{
		Params: []symtab.Parameter{vp, vp, symtab.Parameter{Type: value.TypeFloat, Storage: value.StorageVarying}},
		Return: value.TypeVector,
		Eval: func(ctx Context, args []*value.Value, gridSize int) *value.Value {
			i, n, eta := args[0], args[1], args[2]
			sz := value.ResultSize(gridSize, i, n, eta)
			out := value.New(value.TypeVector, value.ResultStorage(i, n, eta), sz)
			for idx := 0; idx < sz; idx++ {
				iv, nv, e := i.Vec3At(idx), n.Vec3At(idx), eta.FloatAt(idx)
				cosi := dot3(neg3(iv), nv)
				k := 1 - e*e*(1-cosi*cosi)
				if k < 0 {
					out.Vec3s()[idx] = [3]float32{}
					continue
				}
				out.Vec3s()[idx] = add3(scale3(iv, e), scale3(nv, e*cosi-math32.Sqrt(k)))
			}
			return out
		},
	})
}
