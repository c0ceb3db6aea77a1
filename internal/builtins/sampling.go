package builtins

import (
	"github.com/reyes-sl/shade/internal/symtab"
	"github.com/reyes-sl/shade/internal/value"
)

func registerSampling() {
	nameParam := symtab.Parameter{Type: value.TypeString, Storage: value.StorageUniform}
	floatParam := symtab.Parameter{Type: value.TypeFloat, Storage: value.StorageVarying}
	vectorParam := symtab.Parameter{Type: value.TypeVector, Storage: value.StorageVarying}
	pointParam := symtab.Parameter{Type: value.TypePoint, Storage: value.StorageVarying}

	register("texture", Overload{
		Params: []symtab.Parameter{nameParam, floatParam, floatParam},
		Return: value.TypeColor,
		Eval: func(ctx Context, args []*value.Value, gridSize int) *value.Value {
			name, s, t := args[0], args[1], args[2]
			n := value.ResultSize(gridSize, s, t)
			out := value.New(value.TypeColor, value.ResultStorage(s, t), n)
			mapName := name.StringAt(0)
			for i := 0; i < n; i++ {
				c, ok := sampleTexture(ctx, mapName, s.FloatAt(i), t.FloatAt(i))
				if !ok {
					out.Vec3s()[i] = [3]float32{}
					continue
				}
				out.Vec3s()[i] = c
			}
			return out
		},
	})

	register("environment", Overload{
		Params: []symtab.Parameter{nameParam, vectorParam},
		Return: value.TypeColor,
		Eval: func(ctx Context, args []*value.Value, gridSize int) *value.Value {
			name, dir := args[0], args[1]
			n := value.ResultSize(gridSize, dir)
			out := value.New(value.TypeColor, dir.Storage(), n)
			mapName := name.StringAt(0)
			for i := 0; i < n; i++ {
				out.Vec3s()[i] = ctx.Environment(mapName, dir.Vec3At(i))
			}
			return out
		},
	})

	register("shadow", Overload{
		Params: []symtab.Parameter{nameParam, pointParam},
		Return: value.TypeFloat,
		Eval: func(ctx Context, args []*value.Value, gridSize int) *value.Value {
			name, p := args[0], args[1]
			n := value.ResultSize(gridSize, p)
			out := value.New(value.TypeFloat, p.Storage(), n)
			mapName := name.StringAt(0)
			for i := 0; i < n; i++ {
				out.Floats()[i] = ctx.Shadow(mapName, p.Vec3At(i))
			}
			return out
		},
	})
}

// sampleTexture returns the zero color on failure — the runtime-error
// recovery rule spec.md §7 and SPEC_FULL.md §10.1 specify: the VM
// does not abort the grid, it writes a default value into the masked
// lanes and continues.
func sampleTexture(ctx Context, name string, s, t float32) ([3]float32, bool) {
	defer func() {
		recover() // a sampler that panics on a bad map name still yields the default value
	}()
	return ctx.Texture(name, s, t), true
}
