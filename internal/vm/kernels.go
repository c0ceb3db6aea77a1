package vm

import (
	"github.com/chewxy/math32"

	"github.com/reyes-sl/shade/internal/codegen"
	"github.com/reyes-sl/shade/internal/value"
)

// The handful of vec3 primitives the kernels below need, mirrored on
// internal/builtins/geometric.go's local dot3/cross3/scale3/sub3/add3
// helpers rather than imported, since builtins keeps them unexported.

func dot3(a, b [3]float32) float32 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }

func cross3(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func add3(a, b [3]float32) [3]float32 { return [3]float32{a[0] + b[0], a[1] + b[1], a[2] + b[2]} }
func sub3(a, b [3]float32) [3]float32 { return [3]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }
func neg3(a [3]float32) [3]float32    { return [3]float32{-a[0], -a[1], -a[2]} }
func scale3(a [3]float32, s float32) [3]float32 {
	return [3]float32{a[0] * s, a[1] * s, a[2] * s}
}

func length3(a [3]float32) float32 {
	return math32.Sqrt(dot3(a, a))
}

func normalize3(a [3]float32) [3]float32 {
	l := length3(a)
	if l == 0 {
		return a
	}
	return scale3(a, 1/l)
}

// vec3From reads operand i of v as a 3-component value, broadcasting
// a scalar into [x, x, x] when v's dynamic type is float/integer — a
// defensive widening for the rare case an arithmetic operand's type
// doesn't already match the instruction's result type.
func vec3From(v *value.Value, i int) [3]float32 {
	if v.Type().IsVec3() {
		return v.Vec3At(i)
	}
	f := v.FloatAt(i)
	return [3]float32{f, f, f}
}

// scalarOf reduces operand i of v to one float32: the value itself for
// float/integer, its length for a vec3 type. Used by comparisons,
// AND/OR and NOT, which spec.md leaves free to accept either operand
// shape and always produce TypeFloat — this is the VM's one consistent
// rule for what "the value" of a vec3 operand means in that position.
func scalarOf(v *value.Value, i int) float32 {
	if v.Type().IsVec3() {
		return length3(v.Vec3At(i))
	}
	return v.FloatAt(i)
}

func boolToFloat(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

// evalBinary runs op lane-by-lane over a and b, producing a fresh
// full-length Value — spec.md §4.4: "kernels always write the full
// length; the mask is enforced by the store step." resultType is the
// instruction's own Dst.Type, already resolved at compile time.
func evalBinary(op codegen.Opcode, a, b *value.Value, resultType value.Type, gridSize int) *value.Value {
	n := value.ResultSize(gridSize, a, b)
	storage := value.ResultStorage(a, b)
	out := value.New(resultType, storage, n)

	switch {
	case resultType.IsVec3() && (op == codegen.OpAdd || op == codegen.OpSub || op == codegen.OpMul || op == codegen.OpDiv):
		dst := out.Vec3s()
		for i := 0; i < n; i++ {
			dst[i] = vec3Arith(op, vec3From(a, i), vec3From(b, i))
		}
	case op == codegen.OpCross:
		dst := out.Vec3s()
		for i := 0; i < n; i++ {
			dst[i] = cross3(vec3From(a, i), vec3From(b, i))
		}
	case op == codegen.OpDot:
		dst := out.Floats()
		for i := 0; i < n; i++ {
			dst[i] = dot3(vec3From(a, i), vec3From(b, i))
		}
	case op == codegen.OpAnd || op == codegen.OpOr:
		dst := out.Floats()
		for i := 0; i < n; i++ {
			av, bv := scalarOf(a, i) != 0, scalarOf(b, i) != 0
			var r bool
			if op == codegen.OpAnd {
				r = av && bv
			} else {
				r = av || bv
			}
			dst[i] = boolToFloat(r)
		}
	case isComparison(op):
		dst := out.Floats()
		for i := 0; i < n; i++ {
			dst[i] = boolToFloat(compare(op, scalarOf(a, i), scalarOf(b, i)))
		}
	default: // plain float arithmetic
		dst := out.Floats()
		for i := 0; i < n; i++ {
			dst[i] = floatArith(op, a.FloatAt(i), b.FloatAt(i))
		}
	}
	return out
}

// evalUnary mirrors evalBinary for NEG and NOT.
func evalUnary(op codegen.Opcode, a *value.Value, resultType value.Type, gridSize int) *value.Value {
	n := value.ResultSize(gridSize, a)
	out := value.New(resultType, value.ResultStorage(a), n)
	switch op {
	case codegen.OpNeg:
		if resultType.IsVec3() {
			dst := out.Vec3s()
			for i := 0; i < n; i++ {
				dst[i] = neg3(vec3From(a, i))
			}
		} else {
			dst := out.Floats()
			for i := 0; i < n; i++ {
				dst[i] = -a.FloatAt(i)
			}
		}
	case codegen.OpNot:
		dst := out.Floats()
		for i := 0; i < n; i++ {
			dst[i] = boolToFloat(scalarOf(a, i) == 0)
		}
	}
	return out
}

func vec3Arith(op codegen.Opcode, a, b [3]float32) [3]float32 {
	switch op {
	case codegen.OpAdd:
		return add3(a, b)
	case codegen.OpSub:
		return sub3(a, b)
	case codegen.OpMul:
		return [3]float32{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
	case codegen.OpDiv:
		return [3]float32{safeDiv(a[0], b[0]), safeDiv(a[1], b[1]), safeDiv(a[2], b[2])}
	default:
		return [3]float32{}
	}
}

func floatArith(op codegen.Opcode, a, b float32) float32 {
	switch op {
	case codegen.OpAdd:
		return a + b
	case codegen.OpSub:
		return a - b
	case codegen.OpMul:
		return a * b
	case codegen.OpDiv:
		return safeDiv(a, b)
	default:
		return 0
	}
}

func safeDiv(a, b float32) float32 {
	if b == 0 {
		return 0
	}
	return a / b
}

func isComparison(op codegen.Opcode) bool {
	switch op {
	case codegen.OpLess, codegen.OpLessEqual, codegen.OpGreater, codegen.OpGreaterEqual,
		codegen.OpEqual, codegen.OpNotEqual:
		return true
	default:
		return false
	}
}

func compare(op codegen.Opcode, a, b float32) bool {
	switch op {
	case codegen.OpLess:
		return a < b
	case codegen.OpLessEqual:
		return a <= b
	case codegen.OpGreater:
		return a > b
	case codegen.OpGreaterEqual:
		return a >= b
	case codegen.OpEqual:
		return a == b
	case codegen.OpNotEqual:
		return a != b
	default:
		return false
	}
}

// copyLane copies src's lane si into dst's lane di, broadcasting src
// if it is uniform (si is then ignored by the At accessor).
func copyLane(dst, src *value.Value, di, si int) {
	switch dst.Type() {
	case value.TypeFloat, value.TypeInteger:
		dst.Floats()[di] = src.FloatAt(si)
	case value.TypeMatrix:
		dst.Matrices()[di] = src.MatrixAt(si)
	case value.TypeString:
		dst.Strings()[di] = src.StringAt(si)
	default:
		dst.Vec3s()[di] = src.Vec3At(si)
	}
}

func uniformFloat(f float32) *value.Value {
	v := value.New(value.TypeFloat, value.StorageUniform, 1)
	v.Floats()[0] = f
	return v
}

func uniformVec3(t value.Type, c [3]float32) *value.Value {
	v := value.New(t, value.StorageUniform, 1)
	v.Vec3s()[0] = c
	return v
}
