package symtab

import "github.com/reyes-sl/shade/internal/value"

// coercionLevel enumerates how permissively an argument is allowed to
// match a parameter, from strictest to most permissive. ResolveOverload
// tries each level in turn across the whole argument list, in the
// order decided in DESIGN.md for spec.md §9 Open Question (d): exact,
// then integer→float, then uniform→varying, then float→vec3, then
// integer→float combined with uniform→varying.
type coercionLevel int

const (
	levelExact coercionLevel = iota
	levelIntToFloat
	levelUniformToVarying
	levelFloatToVec3
	levelCombined
	levelCount
)

// ArgInfo is the (type, storage) pair of one call-site argument,
// everything overload resolution needs to know about it.
type ArgInfo struct {
	Type    value.Type
	Storage value.Storage
}

func coerces(a ArgInfo, p Parameter, level coercionLevel) bool {
	switch level {
	case levelExact:
		return a.Type == p.Type && storageCompatible(a.Storage, p.Storage)
	case levelIntToFloat:
		return intToFloat(a.Type, p.Type) && storageCompatible(a.Storage, p.Storage)
	case levelUniformToVarying:
		return a.Type == p.Type && storageCoercible(a.Storage, p.Storage)
	case levelFloatToVec3:
		return floatToVec3(a.Type, p.Type) && storageCompatible(a.Storage, p.Storage)
	case levelCombined:
		return (a.Type == p.Type || intToFloat(a.Type, p.Type) || floatToVec3(a.Type, p.Type)) &&
			storageCoercible(a.Storage, p.Storage)
	default:
		return false
	}
}

func intToFloat(from, to value.Type) bool {
	return from == value.TypeInteger && to == value.TypeFloat
}

func floatToVec3(from, to value.Type) bool {
	return from == value.TypeFloat && to.IsVec3()
}

// storageCompatible reports whether a's storage already satisfies p
// without any coercion: uniform/constant arguments satisfy a uniform
// parameter, and any storage satisfies a varying parameter (varying
// parameters accept uniform operands without a PROMOTE_* — promotion
// only matters for assignment targets, per spec.md §4.3).
func storageCompatible(a, p value.Storage) bool {
	if p == value.StorageVarying {
		return true
	}
	return a != value.StorageVarying
}

// storageCoercible is used at levelUniformToVarying and levelCombined;
// identical to storageCompatible today, kept distinct so the level
// table stays self-documenting if a stricter parameter-storage rule
// is ever added.
func storageCoercible(a, p value.Storage) bool {
	return storageCompatible(a, p)
}

// ResolveOverload returns the first signature, in declaration order,
// whose every parameter is satisfiable at the given coercion level,
// trying levels from strictest to most permissive.
func ResolveOverload(sigs []Signature, args []ArgInfo) (*Signature, bool) {
	for level := coercionLevel(0); level < levelCount; level++ {
		for i := range sigs {
			sig := &sigs[i]
			if len(sig.Params) != len(args) {
				continue
			}
			ok := true
			for j, p := range sig.Params {
				if !coerces(args[j], p, level) {
					ok = false
					break
				}
			}
			if ok {
				return sig, true
			}
		}
	}
	return nil, false
}
