// Package shade is the public API onto the RSL shading core: compile
// source into one or more Shader objects, bind parameters, and shade a
// Grid — spec.md §6's Shader(source, symbol_table, error_policy) /
// Shader.parameter(name, value) / Shader.shade(grid) triple, following
// the teacher's pkg/api/api.go shape of a small translation layer that
// never leaks an internal compiler/VM type across the package boundary.
package shade

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/reyes-sl/shade/internal/builtins"
	"github.com/reyes-sl/shade/internal/codegen"
	"github.com/reyes-sl/shade/internal/config"
	"github.com/reyes-sl/shade/internal/diagnostic"
	"github.com/reyes-sl/shade/internal/parser"
	"github.com/reyes-sl/shade/internal/symtab"
	"github.com/reyes-sl/shade/internal/value"
	"github.com/reyes-sl/shade/internal/vm"
)

// ErrorPolicy controls how Compile's parser and preprocessor behave —
// spec.md §6's error_policy argument, resolved from internal/config's
// Options rather than duplicated: a caller that already loaded an
// rslc.yaml can pass config.Options{}.ToOptions() straight through via
// ErrorPolicyFromConfig.
type ErrorPolicy struct {
	IncludePaths                   []string
	ToleratesUnresolvedIdentifiers bool
	ErrorLimit                     int
	DefaultCoordinateSystem        string
	DefaultColorSpace              string
}

// DefaultErrorPolicy matches internal/config.DefaultOptions's parser-
// relevant fields.
func DefaultErrorPolicy() ErrorPolicy {
	return ErrorPolicyFromConfig(config.DefaultOptions())
}

// ErrorPolicyFromConfig narrows a fully-resolved internal/config.Options
// (as returned by Config.ToOptions/Merge) down to the fields Compile's
// parser actually consults, so a caller that already loaded an
// rslc.yaml doesn't have to restate them.
func ErrorPolicyFromConfig(opts config.Options) ErrorPolicy {
	return ErrorPolicy{
		IncludePaths:                   opts.IncludePaths,
		ToleratesUnresolvedIdentifiers: opts.ToleratesUnresolvedIdentifiers,
		ErrorLimit:                     opts.ErrorLimit,
		DefaultCoordinateSystem:        opts.DefaultCoordinateSystem,
		DefaultColorSpace:              opts.DefaultColorSpace,
	}
}

// Diagnostic is a caller-facing copy of internal/diagnostic.Diagnostic,
// carrying only plain types across the package boundary.
type Diagnostic struct {
	Severity string
	Code     string
	Message  string
	Line     int
	Column   int
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", "<source>", d.Line, d.Column, d.Severity, d.Message)
}

// CompileResult is everything Compile produces: zero or more compiled
// Shaders (one per shader definition found in source) plus every
// diagnostic the parser and code generator reported.
type CompileResult struct {
	Shaders     []*Shader
	Diagnostics []Diagnostic
}

// HasErrors reports whether any Diagnostic is error-severity. A
// CompileResult with HasErrors true has a nil Shaders slice — spec.md
// §7: "the parser returns a null tree if the count is non-zero."
func (r CompileResult) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == "error" {
			return true
		}
	}
	return false
}

// Compile preprocesses, parses, and code-generates source, returning
// every shader definition it contains. A source file with more than
// one shader (a surface shader plus the light shaders it's commonly
// tested against, say) yields more than one Shader — Compile's plural
// result is this package's one departure from spec.md §6's singular
// phrasing, needed because internal/codegen.Generator.Generate itself
// already compiles every KindShader definition under the parsed root
// in one pass.
func Compile(source string, policy ErrorPolicy) CompileResult {
	pre, err := parser.Preprocess(source, policy.IncludePaths)
	if err != nil {
		return CompileResult{Diagnostics: []Diagnostic{{
			Severity: "error",
			Code:     string(diagnostic.OpeningFileFailed),
			Message:  errors.Wrap(err, "preprocessing").Error(),
		}}}
	}

	tbl := symtab.New()
	builtins.PopulateGlobalFunctions(tbl)
	diags := diagnostic.NewDiagnosticList(pre)

	p := parser.New(pre, tbl, diags, parser.Options{
		IncludePaths:                   policy.IncludePaths,
		ToleratesUnresolvedIdentifiers: policy.ToleratesUnresolvedIdentifiers,
		ErrorLimit:                     policy.ErrorLimit,
		DefaultCoordinateSystem:        policy.DefaultCoordinateSystem,
		DefaultColorSpace:              policy.DefaultColorSpace,
	})
	root := p.Parse()

	var shaders []*Shader
	if root != nil {
		for _, compiled := range codegen.NewGenerator(diags).Generate(root) {
			shaders = append(shaders, &Shader{compiled: compiled, params: make(vm.Params)})
		}
	}

	return CompileResult{Shaders: shaders, Diagnostics: convertDiagnostics(diags.Diagnostics())}
}

func convertDiagnostics(ds []diagnostic.Diagnostic) []Diagnostic {
	out := make([]Diagnostic, len(ds))
	for i, d := range ds {
		out[i] = Diagnostic{
			Severity: d.Severity.String(),
			Code:     string(d.Code),
			Message:  d.Message,
			Line:     d.Range.Start.Line,
			Column:   d.Range.Start.Column,
		}
	}
	return out
}

// Shader is one compiled shader definition, ready to have parameters
// bound and to be run against a Grid. It is immutable and safe to call
// Shade from multiple goroutines concurrently, each against its own
// Grid — spec.md §5: "the compiled Shader object is read-only."
type Shader struct {
	compiled *codegen.Shader
	params   vm.Params
}

// Name is the shader's declared identifier.
func (s *Shader) Name() string { return s.compiled.Name }

// Kind is the shader's declared kind: "surface", "light", "volume",
// "displacement", or "imager".
func (s *Shader) Kind() string { return s.compiled.Kind.String() }

// Parameter sets a named uniform parameter prior to invocation,
// overriding its declared default for every subsequent Shade call on
// this Shader — spec.md §6's Shader.parameter(name, value). value must
// be a float32, float64, int, string, or [3]float32; a [16]float32 is
// accepted for a matrix-typed parameter. An unknown name or a value
// of the wrong shape is reported rather than panicking.
func (s *Shader) Parameter(name string, val interface{}) error {
	reg, ok := s.compiled.ParamRegisters[name]
	if !ok {
		return errors.Errorf("shade: shader %q has no parameter %q", s.compiled.Name, name)
	}
	v, err := toValue(reg.Type, val)
	if err != nil {
		return errors.Wrapf(err, "shade: parameter %q", name)
	}
	s.params[name] = v
	return nil
}

func toValue(t value.Type, val interface{}) (*value.Value, error) {
	switch t {
	case value.TypeFloat, value.TypeInteger:
		f, ok := asFloat(val)
		if !ok {
			return nil, errors.Errorf("expected a numeric value, got %T", val)
		}
		v := value.New(t, value.StorageUniform, 1)
		v.Floats()[0] = f
		return v, nil
	case value.TypeString:
		str, ok := val.(string)
		if !ok {
			return nil, errors.Errorf("expected a string value, got %T", val)
		}
		v := value.New(t, value.StorageUniform, 1)
		v.Strings()[0] = str
		return v, nil
	case value.TypeMatrix:
		m, ok := val.([16]float32)
		if !ok {
			return nil, errors.Errorf("expected a [16]float32 value, got %T", val)
		}
		v := value.New(t, value.StorageUniform, 1)
		v.Matrices()[0] = m
		return v, nil
	default: // color, point, vector, normal
		c, ok := val.([3]float32)
		if !ok {
			return nil, errors.Errorf("expected a [3]float32 value, got %T", val)
		}
		v := value.New(t, value.StorageUniform, 1)
		v.Vec3s()[0] = c
		return v, nil
	}
}

func asFloat(val interface{}) (float32, bool) {
	switch n := val.(type) {
	case float32:
		return n, true
	case float64:
		return float32(n), true
	case int:
		return float32(n), true
	default:
		return 0, false
	}
}

// Environment bundles the host-provided oracles a shading pass may
// consult: named coordinate systems, texture/environment/shadow maps,
// and the scene's light list — spec.md §6's "renderer" side of the
// Shader object API, kept as one argument so Shade's signature doesn't
// grow every time a new oracle is added.
type Environment struct {
	Spaces  vm.CoordinateSystems
	Sampler vm.TextureSampler
	Scene   vm.Scene
}

// Result reports the outcome of one Shade call. Per spec.md §7, a
// runtime error does not abort the grid — the VM writes a default
// value into the masked lanes and continues — so Result.OK is false
// only when Diagnostics contains at least one error-severity entry;
// the grid's globals are always left in a well-defined, if possibly
// incomplete, state.
type Result struct {
	OK          bool
	Diagnostics []Diagnostic
}

// Shade runs this Shader's compiled instruction stream over grid,
// reading and writing the grid's named globals in place — spec.md §6's
// Shader.shade(grid). env may be the zero Environment if the shader
// makes no transform/sampling/lighting calls.
func (s *Shader) Shade(grid *Grid, env Environment) Result {
	diags := diagnostic.NewDiagnosticList("")
	m := vm.New(s.compiled, grid.inner, env.Spaces, env.Sampler, env.Scene, diags)
	m.Run(s.params)

	ds := convertDiagnostics(diags.Diagnostics())
	ok := true
	for _, d := range ds {
		if d.Severity == "error" {
			ok = false
			break
		}
	}
	return Result{OK: ok, Diagnostics: ds}
}
