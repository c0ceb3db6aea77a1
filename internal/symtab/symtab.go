// Package symtab implements the shading-language symbol table: a
// lexically scoped mapping from identifier to Symbol, with bulk
// preloading of a shader kind's implicit globals and of the builtin
// function catalog.
package symtab

import (
	"fmt"

	"github.com/reyes-sl/shade/internal/value"
)

// Kind classifies what a Symbol represents.
type Kind uint8

const (
	KindVariable Kind = iota
	KindParameter
	KindGlobal
	KindFunction
	KindBuiltin
)

func (k Kind) String() string {
	switch k {
	case KindParameter:
		return "parameter"
	case KindGlobal:
		return "global"
	case KindFunction:
		return "function"
	case KindBuiltin:
		return "builtin"
	default:
		return "variable"
	}
}

// Parameter describes one formal parameter of a function signature,
// used for overload resolution.
type Parameter struct {
	Type    value.Type
	Storage value.Storage
}

// Signature is one overload of a function symbol.
type Signature struct {
	Params  []Parameter
	Return  value.Type
	// Builtin, if non-nil, is an opaque handle the VM's CALL_n dispatch
	// uses to find the kernel implementing this overload. Populated by
	// internal/builtins when it registers the symbol.
	Builtin interface{}
}

// Symbol is a single binding: an identifier paired with its type,
// storage class, kind, and (for functions) its overload set.
type Symbol struct {
	Name       string
	Type       value.Type
	Storage    value.Storage
	Kind       Kind
	ConstIndex int  // index into the constant pool, set for constant-folded declarations
	HasConst   bool
	Signatures []Signature // non-empty only for Kind == KindFunction/KindBuiltin
}

// scope is one level of the lexical scope stack: a flat map from name
// to Symbol, keyed case-sensitively as spec.md §9 requires.
type scope struct {
	symbols map[string]*Symbol
}

func newScope() *scope {
	return &scope{symbols: make(map[string]*Symbol)}
}

// Table is the symbol-table stack. The outermost scope (index 0) is
// pushed by New and never popped; it is where builtins and top-level
// function/shader names live.
type Table struct {
	scopes []*scope
}

// New creates a Table with a single, empty outermost scope.
func New() *Table {
	t := &Table{}
	t.scopes = append(t.scopes, newScope())
	return t
}

// PushScope opens a new, empty innermost scope.
func (t *Table) PushScope() {
	t.scopes = append(t.scopes, newScope())
}

// PopScope closes the innermost scope. Panics if called on the
// outermost scope, which is a programming error in the caller.
func (t *Table) PopScope() {
	if len(t.scopes) == 1 {
		panic("symtab: PopScope called with no scope to pop")
	}
	t.scopes = t.scopes[:len(t.scopes)-1]
}

// Depth returns the number of scopes currently on the stack,
// including the outermost one (always >= 1).
func (t *Table) Depth() int {
	return len(t.scopes)
}

// DuplicateError is returned by AddSymbol when name is already bound
// in the innermost scope.
type DuplicateError struct {
	Name string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate definition of %q", e.Name)
}

// AddSymbol creates and binds a new Symbol named name in the
// innermost scope. Returns a *DuplicateError if name is already bound
// in that scope (shadowing an outer scope's binding is allowed).
func (t *Table) AddSymbol(name string) (*Symbol, error) {
	top := t.scopes[len(t.scopes)-1]
	if _, exists := top.symbols[name]; exists {
		return nil, &DuplicateError{Name: name}
	}
	sym := &Symbol{Name: name, Kind: KindVariable}
	top.symbols[name] = sym
	return sym, nil
}

// AddGlobal binds name as a KindGlobal symbol of the given type in the
// innermost scope, overwriting any prior binding of that name in this
// same scope. Used by AddSymbols to preload shader-kind globals, which
// are unconditionally fresh when a scope is pushed.
func (t *Table) AddGlobal(name string, typ value.Type) *Symbol {
	top := t.scopes[len(t.scopes)-1]
	sym := &Symbol{Name: name, Type: typ, Storage: value.StorageVarying, Kind: KindGlobal}
	top.symbols[name] = sym
	return sym
}

// NameType pairs a name with a type, for bulk-adding globals.
type NameType struct {
	Name string
	Type value.Type
}

// AddSymbols preloads a batch of (name, type) globals into the
// innermost scope, mirroring ShaderParser::add_symbols() chaining in
// the original implementation.
func (t *Table) AddSymbols(pairs ...NameType) {
	for _, p := range pairs {
		t.AddGlobal(p.Name, p.Type)
	}
}

// AddFunction binds name as a function/builtin symbol with the given
// overload set in the outermost scope, so it is visible everywhere.
func (t *Table) AddFunction(name string, kind Kind, sigs ...Signature) *Symbol {
	outer := t.scopes[0]
	sym := &Symbol{Name: name, Kind: kind, Signatures: sigs}
	outer.symbols[name] = sym
	return sym
}

// FindSymbol searches from the innermost scope outward and returns
// the nearest binding, or nil if name is unbound anywhere.
func (t *Table) FindSymbol(name string) *Symbol {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if sym, ok := t.scopes[i].symbols[name]; ok {
			return sym
		}
	}
	return nil
}
