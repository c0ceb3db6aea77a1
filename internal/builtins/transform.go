package builtins

import (
	"github.com/reyes-sl/shade/internal/symtab"
	"github.com/reyes-sl/shade/internal/value"
)

func registerTransform() {
	spaceParam := symtab.Parameter{Type: value.TypeString, Storage: value.StorageUniform}
	pointParam := symtab.Parameter{Type: value.TypePoint, Storage: value.StorageVarying}
	vectorParam := symtab.Parameter{Type: value.TypeVector, Storage: value.StorageVarying}
	normalParam := symtab.Parameter{Type: value.TypeNormal, Storage: value.StorageVarying}

	register("transform", Overload{
		Params: []symtab.Parameter{spaceParam, pointParam},
		Return: value.TypePoint,
		Eval: func(ctx Context, args []*value.Value, gridSize int) *value.Value {
			space, p := args[0], args[1]
			n := value.ResultSize(gridSize, p)
			out := value.New(value.TypePoint, p.Storage(), n)
			name := space.StringAt(0)
			for i := 0; i < n; i++ {
				out.Vec3s()[i] = ctx.Transform(name, p.Vec3At(i))
			}
			return out
		},
	})

	register("vtransform", Overload{
		Params: []symtab.Parameter{spaceParam, vectorParam},
		Return: value.TypeVector,
		Eval: func(ctx Context, args []*value.Value, gridSize int) *value.Value {
			space, v := args[0], args[1]
			n := value.ResultSize(gridSize, v)
			out := value.New(value.TypeVector, v.Storage(), n)
			name := space.StringAt(0)
			for i := 0; i < n; i++ {
				out.Vec3s()[i] = ctx.VTransform(name, v.Vec3At(i))
			}
			return out
		},
	})

	register("ntransform", Overload{
		Params: []symtab.Parameter{spaceParam, normalParam},
		Return: value.TypeNormal,
		Eval: func(ctx Context, args []*value.Value, gridSize int) *value.Value {
			space, nv := args[0], args[1]
			n := value.ResultSize(gridSize, nv)
			out := value.New(value.TypeNormal, nv.Storage(), n)
			name := space.StringAt(0)
			for i := 0; i < n; i++ {
				out.Vec3s()[i] = ctx.NTransform(name, nv.Vec3At(i))
			}
			return out
		},
	})
}
