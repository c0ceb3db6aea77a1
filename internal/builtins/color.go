package builtins

import (
	"github.com/chewxy/math32"

	"github.com/reyes-sl/shade/internal/symtab"
	"github.com/reyes-sl/shade/internal/value"
)

// rgbFromHSV and hsvFromRGB are grounded on color_functions.cpp's
// rgb_from_hsv/rgb_from_hsl calls (the HSV/HSL matrices themselves
// live in the renderer's math library, out of this core's scope; the
// conversion formulas are the standard ones those calls implement).
func rgbFromHSV(c [3]float32) [3]float32 {
	h, s, v := c[0], c[1], c[2]
	i := math32.Floor(h * 6)
	f := h*6 - i
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)
	switch int(i) % 6 {
	case 0:
		return [3]float32{v, t, p}
	case 1:
		return [3]float32{q, v, p}
	case 2:
		return [3]float32{p, v, t}
	case 3:
		return [3]float32{p, q, v}
	case 4:
		return [3]float32{t, p, v}
	default:
		return [3]float32{v, p, q}
	}
}

func hsvFromRGB(c [3]float32) [3]float32 {
	r, g, b := c[0], c[1], c[2]
	max := math32.Max(r, math32.Max(g, b))
	min := math32.Min(r, math32.Min(g, b))
	v := max
	d := max - min
	var s float32
	if max != 0 {
		s = d / max
	}
	if d == 0 {
		return [3]float32{0, s, v}
	}
	var h float32
	switch max {
	case r:
		h = (g - b) / d
		if g < b {
			h += 6
		}
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}
	h /= 6
	return [3]float32{h, s, v}
}

func rgbFromHSL(c [3]float32) [3]float32 {
	h, s, l := c[0], c[1], c[2]
	if s == 0 {
		return [3]float32{l, l, l}
	}
	var q float32
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	hueToRGB := func(p, q, t float32) float32 {
		if t < 0 {
			t++
		}
		if t > 1 {
			t--
		}
		switch {
		case t < 1.0/6:
			return p + (q-p)*6*t
		case t < 1.0/2:
			return q
		case t < 2.0/3:
			return p + (q-p)*(2.0/3-t)*6
		default:
			return p
		}
	}
	return [3]float32{hueToRGB(p, q, h+1.0/3), hueToRGB(p, q, h), hueToRGB(p, q, h-1.0/3)}
}

func registerColor() {
	colorParam := symtab.Parameter{Type: value.TypeColor, Storage: value.StorageVarying}
	floatParam := symtab.Parameter{Type: value.TypeFloat, Storage: value.StorageVarying}
	uniformStringParam := symtab.Parameter{Type: value.TypeString, Storage: value.StorageUniform}

	// comp(color, index) reads channel index (0=x,1=y,2/default=z) of
	// every lane. index must be uniform, per REYES_ASSERT in the
	// original.
	register("comp", Overload{
		Params: []symtab.Parameter{colorParam, floatParam},
		Return: value.TypeFloat,
		Eval: func(ctx Context, args []*value.Value, gridSize int) *value.Value {
			c, idx := args[0], args[1]
			n := value.ResultSize(gridSize, c)
			out := value.New(value.TypeFloat, c.Storage(), n)
			index := int(idx.FloatAt(0))
			for i := 0; i < n; i++ {
				e := c.Vec3At(i)
				switch index {
				case 0:
					out.Floats()[i] = e[0]
				case 1:
					out.Floats()[i] = e[1]
				default:
					out.Floats()[i] = e[2]
				}
			}
			return out
		},
	})

	// setcomp(color, index, value) writes channel index of color in
	// place and returns the mutated color, mirroring the original's
	// void-returning, by-reference signature adapted to this VM's
	// value-returning CALL_n convention.
	register("setcomp", Overload{
		Params: []symtab.Parameter{colorParam, floatParam, floatParam},
		Return: value.TypeColor,
		Eval: func(ctx Context, args []*value.Value, gridSize int) *value.Value {
			c, idx, val := args[0], args[1], args[2]
			n := value.ResultSize(gridSize, c, val)
			out := value.New(value.TypeColor, value.ResultStorage(c, val), n)
			index := int(idx.FloatAt(0))
			for i := 0; i < n; i++ {
				e := c.Vec3At(i)
				v := val.FloatAt(i)
				switch index {
				case 0:
					e[0] = v
				case 1:
					e[1] = v
				default:
					e[2] = v
				}
				out.Vec3s()[i] = e
			}
			return out
		},
	})

	// ctransform(space, color) converts color from the named space
	// into the renderer's working RGB space, or from RGB into the
	// named space for the "rgb_to_X"-style reverse names the round
	// trip property (spec.md §8) exercises.
	register("ctransform", Overload{
		Params: []symtab.Parameter{uniformStringParam, colorParam},
		Return: value.TypeColor,
		Eval: func(ctx Context, args []*value.Value, gridSize int) *value.Value {
			space, c := args[0], args[1]
			n := value.ResultSize(gridSize, c)
			out := value.New(value.TypeColor, c.Storage(), n)
			convert := colorConversion(space.StringAt(0))
			for i := 0; i < n; i++ {
				out.Vec3s()[i] = convert(c.Vec3At(i))
			}
			return out
		},
	})
}

func colorConversion(space string) func([3]float32) [3]float32 {
	switch space {
	case "hsv":
		return rgbFromHSV
	case "hsl":
		return rgbFromHSL
	case "rgb_to_hsv":
		return hsvFromRGB
	default:
		return func(c [3]float32) [3]float32 { return c }
	}
}
