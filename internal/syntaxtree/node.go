// Package syntaxtree defines the single tagged-variant node that
// represents every shading-language construct: shader and function
// definitions, statements, expressions, literals, identifiers and
// lists. This mirrors spec.md's explicit data-model and design-note
// choice of a sum type with a kind tag over a family of per-construct
// Go types, grounded on the original implementation's single
// SyntaxNode class.
package syntaxtree

import (
	"strconv"

	"github.com/reyes-sl/shade/internal/symtab"
	"github.com/reyes-sl/shade/internal/value"
)

// Kind tags the construct a Node represents.
type Kind uint8

const (
	KindNull Kind = iota

	// Literals and identifiers
	KindInteger
	KindReal
	KindString
	KindTriple
	KindSixteenTuple
	KindIdentifier
	KindVariable // a declarator name inside a formal/variable list, pre-binding

	// Type tokens (used transiently while parsing typecasts/declarations)
	KindFloatType
	KindStringType
	KindColorType
	KindPointType
	KindVectorType
	KindNormalType
	KindMatrixType
	KindVoidType

	// Storage tokens
	KindUniform
	KindVarying

	// Top level
	KindList
	KindShader // Attr carries the symtab.ShaderKind
	KindFunction

	// Statements
	KindBlock
	KindReturn
	KindBreak
	KindContinue
	KindIf
	KindIfElse
	KindWhile
	KindFor
	KindVariableDefinition
	KindExprStatement
	KindAmbient
	KindSolar
	KindIlluminate
	KindIlluminance

	// Expressions
	KindAssign
	KindAddAssign
	KindSubtractAssign
	KindMultiplyAssign
	KindDivideAssign
	KindAdd
	KindSubtract
	KindMultiply
	KindDivide
	KindNegate
	KindLess
	KindLessEqual
	KindGreater
	KindGreaterEqual
	KindEqual
	KindNotEqual
	KindAnd
	KindOr
	KindNot
	KindTernary
	KindTypecast
	KindCall
	KindTexture
	KindEnvironment
	KindShadow
	KindDot
	KindCross
	KindIndex // reserved, unimplemented (spec.md §9 Open Question (a))
)

// LightBinding names the light-integration globals a solar/illuminate/
// illuminance statement's setup opcode writes into before each pass
// over its body, captured at parse time right after the statement's
// scope is pushed so codegen can target the right persistent register
// without re-deriving the implicit-global lookup itself. Unused fields
// are nil: solar and illuminate only rebind L; illuminance also rebinds
// Cl and Ol (symtab's IlluminanceGlobals vs SolarOrIlluminateGlobals).
type LightBinding struct {
	L, Cl, Ol *symtab.Symbol
}

// Node is the single struct that every construct is built from.
// Children are owned by the tree; nothing is shared between subtrees.
type Node struct {
	Kind   Kind
	Line   int
	Lexeme string
	Nodes  []*Node

	Symbol *symtab.Symbol

	// Globals maps a shader kind's implicit global names to their
	// Symbol, captured once at KindShader nodes when the shader's scope
	// is pushed. internal/codegen uses it to give internal/vm a
	// name-addressable register for binding Grid data in and out of a
	// compiled Shader without re-deriving symtab's global tables.
	Globals map[string]*symtab.Symbol

	ConstantIndex int // index into the compiled shader's constant pool; -1 if none
	HasConstant   bool

	ExpectedType value.Type
	OriginalType value.Type
	Type         value.Type

	ExpectedStorage value.Storage
	OriginalStorage value.Storage
	Storage         value.Storage

	Instruction int // selected opcode, see internal/codegen

	// Attr carries kind-specific auxiliary data that doesn't warrant
	// its own field: a symtab.ShaderKind for KindShader, a
	// value.Type for KindTypecast (the cast's target type before the
	// coordinate-space string is folded in), an operator-space string
	// for typecasts with an explicit coordinate space, etc.
	Attr interface{}
}

// New creates a bare Node of the given kind and line.
func New(kind Kind, line int) *Node {
	return &Node{Kind: kind, Line: line, ConstantIndex: -1}
}

// NewLexeme creates a Node carrying a lexeme (identifiers, literals).
func NewLexeme(kind Kind, line int, lexeme string) *Node {
	n := New(kind, line)
	n.Lexeme = lexeme
	return n
}

// AddNode appends a child.
func (n *Node) AddNode(child *Node) {
	n.Nodes = append(n.Nodes, child)
}

// AddNodeAtFront prepends a child — used to splice the implicit
// ambient() call at the head of a light shader's statement list.
func (n *Node) AddNodeAtFront(child *Node) {
	n.Nodes = append([]*Node{child}, n.Nodes...)
}

// AddNodesAtEnd appends a slice of children, flattening list nodes
// the way the original parser's add_to_list semantic action does.
func (n *Node) AddNodesAtEnd(children []*Node) {
	n.Nodes = append(n.Nodes, children...)
}

// Node returns the child at index, or nil if out of range.
func (n *Node) Node(index int) *Node {
	if index < 0 || index >= len(n.Nodes) {
		return nil
	}
	return n.Nodes[index]
}

// SetType records type as both the current and original type (the
// "before any conversion" value), mirroring SyntaxNode::set_type.
func (n *Node) SetType(t value.Type) {
	n.Type = t
	n.OriginalType = t
}

// SetTypeForConversion records an implicit-conversion target type,
// preserving the pre-conversion type in OriginalType.
func (n *Node) SetTypeForConversion(t value.Type) {
	n.OriginalType = n.Type
	n.Type = t
}

// SetStorageForPromotion records a storage promotion (uniform→varying),
// preserving the pre-promotion storage in OriginalStorage.
func (n *Node) SetStorageForPromotion(s value.Storage) {
	n.OriginalStorage = n.Storage
	n.Storage = s
}

// Real returns the literal's float64 value. Valid for KindReal and
// KindInteger nodes.
func (n *Node) Real() float64 {
	f, _ := strconv.ParseFloat(n.Lexeme, 64)
	return f
}

// Integer returns the literal's integer value. Valid for KindInteger
// nodes.
func (n *Node) Integer() int {
	i, _ := strconv.Atoi(n.Lexeme)
	return i
}

// Triple returns the three real-valued components of a KindTriple
// node's children.
func (n *Node) Triple() [3]float32 {
	return [3]float32{
		float32(n.Node(0).Real()),
		float32(n.Node(1).Real()),
		float32(n.Node(2).Real()),
	}
}

// SixteenTuple returns the sixteen real-valued components of a
// KindSixteenTuple node's children, in row-major order.
func (n *Node) SixteenTuple() [16]float32 {
	var m [16]float32
	for i := 0; i < 16; i++ {
		m[i] = float32(n.Node(i).Real())
	}
	return m
}

// Equal reports structural equality: same kind, same lexeme, and
// recursively equal children — the round-trip property spec.md §8
// tests against (parse, pretty-print, reparse).
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.Kind != other.Kind || n.Lexeme != other.Lexeme || len(n.Nodes) != len(other.Nodes) {
		return false
	}
	for i := range n.Nodes {
		if !n.Nodes[i].Equal(other.Nodes[i]) {
			return false
		}
	}
	return true
}
