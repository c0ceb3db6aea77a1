package symtab

import (
	"testing"

	"github.com/reyes-sl/shade/internal/value"
)

func sig(params ...Parameter) Signature {
	return Signature{Params: params, Return: value.TypeFloat}
}

func TestResolveOverloadPrefersExactMatch(t *testing.T) {
	sigs := []Signature{
		sig(Parameter{Type: value.TypeFloat, Storage: value.StorageUniform}),
		sig(Parameter{Type: value.TypeFloat, Storage: value.StorageVarying}),
	}
	args := []ArgInfo{{Type: value.TypeFloat, Storage: value.StorageUniform}}
	got, ok := ResolveOverload(sigs, args)
	if !ok || got != &sigs[0] {
		t.Fatalf("expected the exact uniform-parameter overload to win")
	}
}

func TestResolveOverloadFallsBackToIntToFloat(t *testing.T) {
	sigs := []Signature{
		sig(Parameter{Type: value.TypeFloat, Storage: value.StorageVarying}),
	}
	args := []ArgInfo{{Type: value.TypeInteger, Storage: value.StorageUniform}}
	if _, ok := ResolveOverload(sigs, args); !ok {
		t.Fatal("integer argument should coerce to a float parameter")
	}
}

func TestResolveOverloadFallsBackToFloatToVec3(t *testing.T) {
	sigs := []Signature{
		sig(Parameter{Type: value.TypeColor, Storage: value.StorageVarying}),
	}
	args := []ArgInfo{{Type: value.TypeFloat, Storage: value.StorageVarying}}
	if _, ok := ResolveOverload(sigs, args); !ok {
		t.Fatal("float argument should broadcast to a color parameter")
	}
}

func TestResolveOverloadNoMatchReturnsFalse(t *testing.T) {
	sigs := []Signature{
		sig(Parameter{Type: value.TypeString, Storage: value.StorageUniform}),
	}
	args := []ArgInfo{{Type: value.TypeColor, Storage: value.StorageVarying}}
	if _, ok := ResolveOverload(sigs, args); ok {
		t.Fatal("a color argument should never satisfy a string parameter")
	}
}

func TestResolveOverloadRejectsVaryingIntoUniformParameter(t *testing.T) {
	sigs := []Signature{
		sig(Parameter{Type: value.TypeString, Storage: value.StorageUniform}),
	}
	args := []ArgInfo{{Type: value.TypeString, Storage: value.StorageVarying}}
	if _, ok := ResolveOverload(sigs, args); ok {
		t.Fatal("a varying argument must not satisfy a uniform-only parameter")
	}
}
