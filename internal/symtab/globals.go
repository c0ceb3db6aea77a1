package symtab

import "github.com/reyes-sl/shade/internal/value"

// ShaderKind identifies one of the five shader kinds, each of which
// pushes its own preloaded scope of implicit globals.
type ShaderKind uint8

const (
	KindSurface ShaderKind = iota
	KindLight
	KindVolume
	KindDisplacement
	KindImager
)

func (k ShaderKind) String() string {
	switch k {
	case KindSurface:
		return "surface"
	case KindLight:
		return "light"
	case KindVolume:
		return "volume"
	case KindDisplacement:
		return "displacement"
	case KindImager:
		return "imager"
	default:
		return "unknown"
	}
}

// globalsFor is grounded directly on ShaderParser.cpp's
// push_surface_scope/push_light_scope/push_volume_scope/
// push_displacement_scope/push_imager_scope, one NameType list per
// shader kind.
var globalsFor = map[ShaderKind][]NameType{
	KindSurface: {
		{"Cs", value.TypeColor}, {"Os", value.TypeColor},
		{"P", value.TypePoint}, {"N", value.TypeNormal},
		{"I", value.TypeVector}, {"s", value.TypeFloat}, {"t", value.TypeFloat},
		{"Ci", value.TypeColor}, {"Oi", value.TypeColor},
	},
	KindLight: {
		{"Ps", value.TypePoint}, {"N", value.TypeNormal},
		{"Cl", value.TypeColor}, {"Ol", value.TypeColor},
	},
	KindVolume: {
		{"P", value.TypePoint}, {"I", value.TypeVector},
		{"Ci", value.TypeColor}, {"Oi", value.TypeColor},
	},
	KindDisplacement: {
		{"P", value.TypePoint}, {"N", value.TypeNormal}, {"I", value.TypeVector},
		{"s", value.TypeFloat}, {"t", value.TypeFloat},
	},
	KindImager: {
		{"P", value.TypePoint}, {"Ci", value.TypeColor}, {"Oi", value.TypeColor},
		{"alpha", value.TypeFloat},
	},
}

// IlluminanceGlobals are added, on top of the enclosing shader's
// globals, when entering an illuminance{} block.
var IlluminanceGlobals = []NameType{
	{"L", value.TypeVector}, {"Cl", value.TypeColor}, {"Ol", value.TypeColor},
}

// SolarOrIlluminateGlobals are added when entering a solar{} or
// illuminate{} block.
var SolarOrIlluminateGlobals = []NameType{
	{"L", value.TypeVector},
}

// GlobalNames returns the implicit globals preloaded for kind, so
// callers outside this package (the parser, wiring them onto the
// shader's syntax-tree node) don't need their own copy of the table.
func GlobalNames(kind ShaderKind) []NameType {
	return globalsFor[kind]
}

// PushShaderScope pushes a new scope preloaded with kind's implicit
// globals.
func (t *Table) PushShaderScope(kind ShaderKind) {
	t.PushScope()
	t.AddSymbols(globalsFor[kind]...)
}

// PushIlluminanceScope pushes a new scope preloaded with L, Cl, Ol.
func (t *Table) PushIlluminanceScope() {
	t.PushScope()
	t.AddSymbols(IlluminanceGlobals...)
}

// PushSolarOrIlluminateScope pushes a new scope preloaded with L.
func (t *Table) PushSolarOrIlluminateScope() {
	t.PushScope()
	t.AddSymbols(SolarOrIlluminateGlobals...)
}
