package codegen

import (
	"github.com/reyes-sl/shade/internal/builtins"
	"github.com/reyes-sl/shade/internal/diagnostic"
	"github.com/reyes-sl/shade/internal/symtab"
	"github.com/reyes-sl/shade/internal/syntaxtree"
	"github.com/reyes-sl/shade/internal/value"
)

// Instruction is one step of a compiled Shader's flat instruction
// stream. Not every field is used by every Op; Dst/A/B cover the
// common one- and two-operand forms, Args covers CALL_N and the
// lighting-integration statements' variable-arity operands, Const
// indexes the owning Shader's ConstantPool, and Target is a patched
// instruction index for jumps. OpSolar/OpIlluminate reuse Dst for the
// L register their setup rebinds each pass; OpIlluminanceAxisAngle
// reuses Dst/A/B for L/Cl/Ol, the three globals it refills per light.
type Instruction struct {
	Op       Opcode
	Dispatch Dispatch
	Dst      Register
	A, B     Register
	Const    int
	Target   int
	Args     []Register
	Builtin  builtins.Eval
	Name     string
}

// Shader is one compiled shader: its instruction stream, constant
// pool, and the register-file sizing internal/vm needs to provision
// before running it.
type Shader struct {
	Kind           symtab.ShaderKind
	Name           string
	Instructions   []Instruction
	Pool           ConstantPool
	RegisterCounts map[value.Type]int
	ParamOrder     []string
	ParamRegisters map[string]Register

	// BodyStart is the instruction index where the shader's own
	// statement body begins, after the parameter-default-value
	// instructions. A caller invoking the shader with explicit
	// parameter values runs 0..BodyStart (so unspecified parameters
	// still get their defaults), overwrites ParamRegisters for the
	// parameters it supplied, then resumes at BodyStart.
	BodyStart int

	// Globals maps each of this shader kind's implicit global names
	// (Cs, P, N, Ci, Oi, Ps, alpha, ...) to the persistent register
	// codegen assigned it, so internal/vm can bind Grid data into and
	// out of a run without re-deriving symtab's global tables.
	Globals map[string]Register
}

// Generator compiles every shader definition in a parsed file. Its
// only cross-shader state is the set of user-defined function bodies,
// which are inlined at each call site rather than compiled to a
// callable instruction range — spec.md §4.4's CALL_N instruction
// names only a builtin by symbol, so there is no general call/return
// opcode for a user function to target.
type Generator struct {
	diags     *diagnostic.DiagnosticList
	functions map[*symtab.Symbol]*syntaxtree.Node
}

// NewGenerator creates a Generator reporting to diags.
func NewGenerator(diags *diagnostic.DiagnosticList) *Generator {
	return &Generator{diags: diags, functions: make(map[*symtab.Symbol]*syntaxtree.Node)}
}

// Generate compiles every KindShader definition under root (the
// parser's KindList root node) into a Shader, skipping the
// KindFunction definitions — those are only ever reached by inlining.
func (g *Generator) Generate(root *syntaxtree.Node) []*Shader {
	for _, def := range root.Nodes {
		if def.Kind == syntaxtree.KindFunction && def.Symbol != nil {
			g.functions[def.Symbol] = def
		}
	}

	var shaders []*Shader
	for _, def := range root.Nodes {
		if def.Kind == syntaxtree.KindShader {
			shaders = append(shaders, g.genShader(def))
		}
	}
	return shaders
}

// shaderGen holds the compile-time state for one shader: its register
// allocator, constant pool, in-progress instruction stream, the
// persistent register assigned to each symbol it has referenced so
// far, and the stack of enclosing loops for break/continue targeting.
type shaderGen struct {
	gen *Generator

	regs       *RegisterFile
	pool       ConstantPool
	code       []Instruction
	registerOf map[*symtab.Symbol]Register

	// maskDepth tracks the compile-time nesting depth of the runtime
	// mask stack: incremented by every GENERATE_MASK-equivalent push
	// (GENERATE_MASK itself, ternary's, and the frame each lighting
	// setup opcode pushes), decremented by every RESET. Used to
	// compute how many RESETs a break/continue must emit before its
	// jump, per spec.md §4.3's "pops n mask frames and jumps".
	maskDepth int

	loops []*loopContext
}

// loopContext accumulates the instruction indices of break/continue
// jumps emitted inside one loop (while, for, or illuminance), patched
// once the loop's exit and continuation targets are known.
type loopContext struct {
	breakJumps    []int
	continueJumps []int

	// bodyMaskDepth is sg.maskDepth as the loop's own body sees it: if
	// hasOwnMaskFrame, just after the per-iteration mask frame
	// (GENERATE_MASK or the lighting setup opcode's own restriction)
	// was pushed, else unchanged from the enclosing context. continue
	// pops back down to this depth; break pops one frame further when
	// the loop owns a frame, since it skips that frame's own RESET.
	bodyMaskDepth   int
	hasOwnMaskFrame bool
}

// pushGenerateMask emits GENERATE_MASK against a, pushing a new mask
// frame restricted to a != 0, and records the push for break/continue
// accounting.
func (sg *shaderGen) pushGenerateMask(a Register) {
	sg.emit(Instruction{Op: OpGenerateMask, A: a})
	sg.maskDepth++
}

// popResetMask emits RESET, popping the top mask frame.
func (sg *shaderGen) popResetMask() {
	sg.emit(Instruction{Op: OpResetMask})
	sg.maskDepth--
}

func (g *Generator) genShader(n *syntaxtree.Node) *Shader {
	sg := &shaderGen{
		gen:        g,
		regs:       newRegisterFile(),
		registerOf: make(map[*symtab.Symbol]Register),
	}

	kind, _ := n.Attr.(symtab.ShaderKind)
	params := n.Node(0)
	body := n.Node(1)

	var paramOrder []string
	paramRegisters := make(map[string]Register)
	for _, decl := range params.Nodes {
		reg := sg.regFor(decl.Symbol)
		paramOrder = append(paramOrder, decl.Lexeme)
		paramRegisters[decl.Lexeme] = reg
		if init := decl.Node(0); init != nil {
			sg.genStoreInto(reg, decl.Type, decl.Storage, init)
		}
	}

	bodyStart := sg.here()
	sg.genStatement(body)
	sg.emit(Instruction{Op: OpReturn})

	globals := make(map[string]Register, len(n.Globals))
	for name, sym := range n.Globals {
		if sym != nil {
			globals[name] = sg.regFor(sym)
		}
	}

	return &Shader{
		Kind:           kind,
		Name:           n.Lexeme,
		Instructions:   sg.code,
		Pool:           sg.pool,
		RegisterCounts: sg.regs.Counts(),
		ParamOrder:     paramOrder,
		ParamRegisters: paramRegisters,
		BodyStart:      bodyStart,
		Globals:        globals,
	}
}

func (sg *shaderGen) emit(ins Instruction) int {
	sg.code = append(sg.code, ins)
	return len(sg.code) - 1
}

func (sg *shaderGen) here() int {
	return len(sg.code)
}

// regFor returns sym's persistent register, allocating one the first
// time sym is referenced. Identifiers, globals and parameters all
// live for the shader's whole run, unlike the temporaries genExpr
// allocates for intermediate results.
func (sg *shaderGen) regFor(sym *symtab.Symbol) Register {
	if r, ok := sg.registerOf[sym]; ok {
		return r
	}
	r := sg.regs.Alloc(sym.Type)
	sg.registerOf[sym] = r
	return r
}

// transformOpFor returns the space-transform opcode for a typecast's
// target type, for the three vector-arity types a coordinate-space
// string can meaningfully reinterpret. Color and matrix casts keep
// their space string on the node but are not
// re-projected; there is no color-space or matrix-space transform
// opcode in this instruction set.
func transformOpFor(t value.Type) (Opcode, bool) {
	switch t {
	case value.TypePoint:
		return OpTransform, true
	case value.TypeVector:
		return OpVTransform, true
	case value.TypeNormal:
		return OpNTransform, true
	default:
		return OpNop, false
	}
}

// coerce bridges a value from its native type to a target type,
// emitting a FLOAT_TO_VEC3/FLOAT_TO_MAT4X4 instruction when a scalar
// needs to broadcast; integer/float and same-arity vec3 relabelings
// share representation and need no instruction.
func (sg *shaderGen) coerce(reg Register, temp bool, from, to value.Type) (Register, bool) {
	if from == to || from == value.TypeNull || to == value.TypeNull {
		return reg, temp
	}
	switch {
	case to.IsVec3() && !from.IsVec3():
		dst := sg.regs.Alloc(to)
		sg.emit(Instruction{Op: OpFloatToVec3, Dst: dst, A: reg})
		if temp {
			sg.regs.Release(reg)
		}
		return dst, true
	case to == value.TypeMatrix && !from.IsVec3() && from != value.TypeMatrix:
		dst := sg.regs.Alloc(to)
		sg.emit(Instruction{Op: OpFloatToMatrix, Dst: dst, A: reg})
		if temp {
			sg.regs.Release(reg)
		}
		return dst, true
	default:
		return reg, temp
	}
}

// promote overwrites reg's register in place with a varying copy of
// its current value, per spec.md §4.4's PROMOTE_* opcodes.
func (sg *shaderGen) promote(reg Register, temp bool) (Register, bool) {
	sg.emit(Instruction{Op: promoteOpFor(reg.Type), Dst: reg, A: reg})
	return reg, temp
}

func assignOpFor(t value.Type) Opcode {
	switch {
	case t == value.TypeString:
		return OpAssignString
	case t == value.TypeMatrix:
		return OpAssignMatrix
	case t.IsVec3():
		return OpAssignVec3
	default:
		return OpAssignFloat
	}
}

func promoteOpFor(t value.Type) Opcode {
	switch {
	case t == value.TypeString:
		return OpPromoteString
	case t == value.TypeMatrix:
		return OpPromoteMatrix
	case t.IsVec3():
		return OpPromoteVec3
	default:
		return OpPromoteFloat
	}
}

// compoundOpFor maps a compound-assignment node kind to the
// arithmetic opcode it combines with the destination, or reports ok
// == false for a plain assignment.
func compoundOpFor(kind syntaxtree.Kind) (Opcode, bool) {
	switch kind {
	case syntaxtree.KindAddAssign:
		return OpAdd, true
	case syntaxtree.KindSubtractAssign:
		return OpSub, true
	case syntaxtree.KindMultiplyAssign:
		return OpMul, true
	case syntaxtree.KindDivideAssign:
		return OpDiv, true
	default:
		return OpNop, false
	}
}

// genStoreInto emits the sequence of coercion, promotion and
// assignment instructions needed to store rhs's value into dst, whose
// declared type/storage are dstType/dstStorage. Shared by shader and
// function parameter defaults, local-variable initializers, and plain
// (non-compound) assignment expressions.
func (sg *shaderGen) genStoreInto(dst Register, dstType value.Type, dstStorage value.Storage, rhs *syntaxtree.Node) {
	rhsReg, rhsTemp := sg.genExpr(rhs)
	rhsReg, rhsTemp = sg.coerce(rhsReg, rhsTemp, rhs.OriginalType, rhs.Type)
	if rhs.Storage == value.StorageVarying && rhs.OriginalStorage != value.StorageVarying && rhs.OriginalStorage != value.StorageNull {
		rhsReg, rhsTemp = sg.promote(rhsReg, rhsTemp)
	}
	dispatch := SelectDispatch(dstStorage, rhs.Storage)
	sg.emit(Instruction{Op: assignOpFor(dstType), Dispatch: dispatch, Dst: dst, A: rhsReg})
	if rhsTemp {
		sg.regs.Release(rhsReg)
	}
}

func (sg *shaderGen) discard(n *syntaxtree.Node) {
	reg, temp := sg.genExpr(n)
	if temp {
		sg.regs.Release(reg)
	}
}

// ----------------------------------------------------------------------------
// Statements
// ----------------------------------------------------------------------------

func (sg *shaderGen) genStatement(n *syntaxtree.Node) {
	if n == nil || n.Kind == syntaxtree.KindNull {
		return
	}
	switch n.Kind {
	case syntaxtree.KindBlock:
		for _, stmt := range n.Nodes {
			sg.genStatement(stmt)
		}
	case syntaxtree.KindExprStatement:
		sg.discard(n.Node(0))
	case syntaxtree.KindVariableDefinition:
		sg.genLocalDecl(n)
	case syntaxtree.KindList:
		for _, decl := range n.Nodes {
			sg.genLocalDecl(decl)
		}
	case syntaxtree.KindReturn:
		if expr := n.Node(0); expr != nil {
			sg.discard(expr)
		}
		sg.emit(Instruction{Op: OpReturn})
	case syntaxtree.KindBreak:
		sg.genBreakContinue(n, true)
	case syntaxtree.KindContinue:
		sg.genBreakContinue(n, false)
	case syntaxtree.KindIf:
		sg.genIf(n)
	case syntaxtree.KindIfElse:
		sg.genIfElse(n)
	case syntaxtree.KindWhile:
		sg.genWhile(n)
	case syntaxtree.KindFor:
		sg.genFor(n)
	case syntaxtree.KindAmbient:
		sg.emit(Instruction{Op: OpAmbient})
	case syntaxtree.KindSolar:
		sg.genSolar(n)
	case syntaxtree.KindIlluminate:
		sg.genIlluminate(n)
	case syntaxtree.KindIlluminance:
		sg.genIlluminance(n)
	}
}

func (sg *shaderGen) genLocalDecl(decl *syntaxtree.Node) {
	reg := sg.regFor(decl.Symbol)
	if init := decl.Node(0); init != nil {
		sg.genStoreInto(reg, decl.Type, decl.Storage, init)
	}
}

// genBreakContinue pops back to the target loop's own mask depth
// before jumping, so a break/continue reaching out through nested
// if/ternary/lighting scopes leaves the runtime mask stack exactly as
// deep as the fallthrough path would — spec.md §4.3's "pops n mask
// frames and jumps" and §8's mask-stack-depth-balance invariant.
func (sg *shaderGen) genBreakContinue(n *syntaxtree.Node, isBreak bool) {
	depth := n.Integer()
	if depth < 1 || depth > len(sg.loops) {
		return // already reported by the parser (diagnostic.BreakDepthExceeded)
	}
	loop := sg.loops[len(sg.loops)-depth]
	target := loop.bodyMaskDepth
	if isBreak && loop.hasOwnMaskFrame {
		target--
	}
	for i := sg.maskDepth; i > target; i-- {
		sg.emit(Instruction{Op: OpResetMask})
	}
	idx := sg.emit(Instruction{Op: OpJump})
	if isBreak {
		loop.breakJumps = append(loop.breakJumps, idx)
	} else {
		loop.continueJumps = append(loop.continueJumps, idx)
	}
}

func (sg *shaderGen) genIf(n *syntaxtree.Node) {
	cond := n.Node(0)
	condReg, condTemp := sg.genExpr(cond)
	sg.pushGenerateMask(condReg)
	if condTemp {
		sg.regs.Release(condReg)
	}
	sg.genStatement(n.Node(1))
	sg.popResetMask()
}

func (sg *shaderGen) genIfElse(n *syntaxtree.Node) {
	cond := n.Node(0)
	condReg, condTemp := sg.genExpr(cond)
	sg.pushGenerateMask(condReg)
	if condTemp {
		sg.regs.Release(condReg)
	}
	sg.genStatement(n.Node(1))
	sg.emit(Instruction{Op: OpInvertMask})
	sg.genStatement(n.Node(2))
	sg.popResetMask()
}

// genWhile follows spec.md §4.3's bracket literally: each iteration
// pushes its own mask frame restricted to the condition, runs the
// body under it, and pops it again before looping, rather than
// pushing one frame for the whole loop — so a varying condition that
// goes false for some samples before others stops driving the body
// for those samples without a separate per-lane liveness mechanism.
func (sg *shaderGen) genWhile(n *syntaxtree.Node) {
	cond := n.Node(0)
	body := n.Node(1)

	loopStart := sg.here()
	condReg, condTemp := sg.genExpr(cond)
	sg.pushGenerateMask(condReg)
	if condTemp {
		sg.regs.Release(condReg)
	}
	jumpEmpty := sg.emit(Instruction{Op: OpJumpEmpty})

	loop := &loopContext{bodyMaskDepth: sg.maskDepth, hasOwnMaskFrame: true}
	sg.loops = append(sg.loops, loop)
	sg.genStatement(body)
	continueTarget := sg.here()
	sg.popResetMask()
	sg.emit(Instruction{Op: OpJump, Target: loopStart})
	sg.loops = sg.loops[:len(sg.loops)-1]

	endPos := sg.here()
	sg.code[jumpEmpty].Target = endPos
	for _, idx := range loop.breakJumps {
		sg.code[idx].Target = endPos
	}
	for _, idx := range loop.continueJumps {
		sg.code[idx].Target = continueTarget
	}
}

func (sg *shaderGen) genFor(n *syntaxtree.Node) {
	init, cond, update, body := n.Node(0), n.Node(1), n.Node(2), n.Node(3)

	if init.Kind != syntaxtree.KindNull {
		sg.discard(init)
	}

	loopStart := sg.here()
	jumpEmpty := -1
	pushedMask := false
	if cond.Kind != syntaxtree.KindNull {
		condReg, condTemp := sg.genExpr(cond)
		sg.pushGenerateMask(condReg)
		pushedMask = true
		if condTemp {
			sg.regs.Release(condReg)
		}
		jumpEmpty = sg.emit(Instruction{Op: OpJumpEmpty})
	}

	loop := &loopContext{bodyMaskDepth: sg.maskDepth, hasOwnMaskFrame: pushedMask}
	sg.loops = append(sg.loops, loop)
	sg.genStatement(body)
	continueTarget := sg.here()
	if update.Kind != syntaxtree.KindNull {
		sg.discard(update)
	}
	if pushedMask {
		sg.popResetMask()
	}
	sg.emit(Instruction{Op: OpJump, Target: loopStart})
	sg.loops = sg.loops[:len(sg.loops)-1]

	endPos := sg.here()
	if jumpEmpty >= 0 {
		sg.code[jumpEmpty].Target = endPos
	}
	for _, idx := range loop.breakJumps {
		sg.code[idx].Target = endPos
	}
	for _, idx := range loop.continueJumps {
		sg.code[idx].Target = continueTarget
	}
}

// genSolar/genIlluminate bracket their body with the setup opcode and
// a RESET, the same GENERATE_MASK/RESET bracketing if/else uses — the
// setup opcode binds L and pushes an unrestricted copy of the current
// mask frame; axis/angle apply no cone restriction, so the body runs
// under the enclosing mask. Unlike illuminance, neither loops: a light
// shader names one light, so the body runs exactly once.
func (sg *shaderGen) genSolar(n *syntaxtree.Node) {
	axis, angle, body := n.Node(0), n.Node(1), n.Node(2)
	args := sg.genOptionalArgs(axis, angle)
	binding, _ := n.Attr.(syntaxtree.LightBinding)
	ins := Instruction{Op: OpSolar, Args: args}
	if binding.L != nil {
		ins.Dst = sg.regFor(binding.L)
	}
	sg.emit(ins)
	sg.maskDepth++
	sg.genStatement(body)
	sg.popResetMask()
}

func (sg *shaderGen) genIlluminate(n *syntaxtree.Node) {
	pos, axis, angle, body := n.Node(0), n.Node(1), n.Node(2), n.Node(3)
	args := sg.genOptionalArgs(pos, axis, angle)
	binding, _ := n.Attr.(syntaxtree.LightBinding)
	ins := Instruction{Op: OpIlluminate, Args: args}
	if binding.L != nil {
		ins.Dst = sg.regFor(binding.L)
	}
	sg.emit(ins)
	sg.maskDepth++
	sg.genStatement(body)
	sg.popResetMask()
}

// genIlluminance compiles the one lighting statement that genuinely
// loops: the number of lights in the scene is a run-time quantity, so
// OpIlluminanceAxisAngle is a loop header exactly like genWhile's —
// each pass through it advances to the next light satisfying the cone
// test and falls through with L/Cl/Ol rebound, or jumps to Target once
// the scene's lights are exhausted.
func (sg *shaderGen) genIlluminance(n *syntaxtree.Node) {
	pos, axis, angle, body := n.Node(0), n.Node(1), n.Node(2), n.Node(3)
	args := sg.genOptionalArgs(pos, axis, angle)
	binding, _ := n.Attr.(syntaxtree.LightBinding)
	ins := Instruction{Op: OpIlluminanceAxisAngle, Args: args}
	if binding.L != nil {
		ins.Dst = sg.regFor(binding.L)
	}
	if binding.Cl != nil {
		ins.A = sg.regFor(binding.Cl)
	}
	if binding.Ol != nil {
		ins.B = sg.regFor(binding.Ol)
	}

	header := sg.emit(ins)
	sg.maskDepth++

	loop := &loopContext{bodyMaskDepth: sg.maskDepth, hasOwnMaskFrame: true}
	sg.loops = append(sg.loops, loop)
	sg.genStatement(body)
	sg.popResetMask()
	sg.emit(Instruction{Op: OpJump, Target: header})
	sg.loops = sg.loops[:len(sg.loops)-1]

	endPos := sg.here()
	sg.code[header].Target = endPos
	for _, idx := range loop.breakJumps {
		sg.code[idx].Target = endPos
	}
	for _, idx := range loop.continueJumps {
		sg.code[idx].Target = header
	}
}

// allLiteral reports whether every child of a KindTriple/
// KindSixteenTuple node is a bare numeric literal, the only case
// Node.Triple()/SixteenTuple() can read correctly: both call Real(),
// which silently yields 0 for a non-literal child's empty lexeme.
func allLiteral(n *syntaxtree.Node) bool {
	for _, c := range n.Nodes {
		if c.Kind != syntaxtree.KindReal && c.Kind != syntaxtree.KindInteger {
			return false
		}
	}
	return true
}

// genBuildTuple compiles a KindTriple/KindSixteenTuple node whose
// components are not all literal: each child is generated as its own
// sub-expression into a float register, then assembled lane-by-lane by
// op. n.Storage (combineStorage over the children, expr.go) already
// reflects whether any child is varying, but the build opcode itself
// inspects each arg's runtime storage rather than trusting it, so a
// mixed uniform/varying set of components still assembles correctly.
func (sg *shaderGen) genBuildTuple(n *syntaxtree.Node, op Opcode, typ value.Type) (Register, bool) {
	argRegs := make([]Register, len(n.Nodes))
	argTemp := make([]bool, len(n.Nodes))
	for i, c := range n.Nodes {
		argRegs[i], argTemp[i] = sg.genExpr(c)
	}
	dst := sg.regs.Alloc(typ)
	sg.emit(Instruction{Op: op, Dst: dst, Args: argRegs})
	for i, r := range argRegs {
		if argTemp[i] {
			sg.regs.Release(r)
		}
	}
	return dst, true
}

// genOptionalArgs evaluates each node not of KindNull (spec.md §9
// Open Question (a)'s nilSafe placeholders for omitted solar/
// illuminate/illuminance arguments) into a register, releasing
// temporaries immediately since these registers are only read once by
// the setup opcode.
func (sg *shaderGen) genOptionalArgs(nodes ...*syntaxtree.Node) []Register {
	args := make([]Register, len(nodes))
	for i, n := range nodes {
		if n == nil || n.Kind == syntaxtree.KindNull {
			continue
		}
		reg, temp := sg.genExpr(n)
		args[i] = reg
		if temp {
			sg.regs.Release(reg)
		}
	}
	return args
}

// ----------------------------------------------------------------------------
// Expressions
// ----------------------------------------------------------------------------

var binaryOps = map[syntaxtree.Kind]Opcode{
	syntaxtree.KindAdd:          OpAdd,
	syntaxtree.KindSubtract:     OpSub,
	syntaxtree.KindMultiply:     OpMul,
	syntaxtree.KindDivide:       OpDiv,
	syntaxtree.KindLess:         OpLess,
	syntaxtree.KindLessEqual:    OpLessEqual,
	syntaxtree.KindGreater:      OpGreater,
	syntaxtree.KindGreaterEqual: OpGreaterEqual,
	syntaxtree.KindEqual:        OpEqual,
	syntaxtree.KindNotEqual:     OpNotEqual,
	syntaxtree.KindAnd:          OpAnd,
	syntaxtree.KindOr:           OpOr,
}

// genExpr compiles n and returns the register holding its value and
// whether that register is a temporary the caller must Release once
// done with it (identifiers and other persistent registers are not).
func (sg *shaderGen) genExpr(n *syntaxtree.Node) (Register, bool) {
	if n == nil {
		return Register{}, false
	}

	switch n.Kind {
	case syntaxtree.KindNull:
		return Register{}, false

	case syntaxtree.KindInteger:
		idx := sg.pool.AddFloat(float32(n.Integer()))
		dst := sg.regs.Alloc(n.OriginalType)
		sg.emit(Instruction{Op: OpLoadConst, Dst: dst, Const: idx})
		return dst, true

	case syntaxtree.KindReal:
		idx := sg.pool.AddFloat(float32(n.Real()))
		dst := sg.regs.Alloc(n.OriginalType)
		sg.emit(Instruction{Op: OpLoadConst, Dst: dst, Const: idx})
		return dst, true

	case syntaxtree.KindString:
		idx := sg.pool.AddString(n.Lexeme)
		dst := sg.regs.Alloc(value.TypeString)
		sg.emit(Instruction{Op: OpLoadConst, Dst: dst, Const: idx})
		return dst, true

	case syntaxtree.KindTriple:
		if allLiteral(n) {
			idx := sg.pool.AddVec3(n.Triple())
			dst := sg.regs.Alloc(n.OriginalType)
			sg.emit(Instruction{Op: OpLoadConst, Dst: dst, Const: idx})
			return dst, true
		}
		return sg.genBuildTuple(n, OpBuildVec3, n.OriginalType)

	case syntaxtree.KindSixteenTuple:
		if allLiteral(n) {
			idx := sg.pool.AddMatrix(n.SixteenTuple())
			dst := sg.regs.Alloc(value.TypeMatrix)
			sg.emit(Instruction{Op: OpLoadConst, Dst: dst, Const: idx})
			return dst, true
		}
		return sg.genBuildTuple(n, OpBuildMatrix, value.TypeMatrix)

	case syntaxtree.KindIdentifier:
		return sg.regFor(n.Symbol), false

	case syntaxtree.KindAssign, syntaxtree.KindAddAssign, syntaxtree.KindSubtractAssign,
		syntaxtree.KindMultiplyAssign, syntaxtree.KindDivideAssign:
		return sg.genAssign(n)

	case syntaxtree.KindNegate:
		a, aTemp := sg.genExpr(n.Node(0))
		dispatch := SelectUnaryDispatch(n.Node(0).Storage)
		dst := sg.regs.Alloc(n.OriginalType)
		sg.emit(Instruction{Op: OpNeg, Dispatch: dispatch, Dst: dst, A: a})
		if aTemp {
			sg.regs.Release(a)
		}
		return dst, true

	case syntaxtree.KindNot:
		a, aTemp := sg.genExpr(n.Node(0))
		dispatch := SelectUnaryDispatch(n.Node(0).Storage)
		dst := sg.regs.Alloc(n.OriginalType)
		sg.emit(Instruction{Op: OpNot, Dispatch: dispatch, Dst: dst, A: a})
		if aTemp {
			sg.regs.Release(a)
		}
		return dst, true

	case syntaxtree.KindDot:
		return sg.genBinary(n, OpDot)

	case syntaxtree.KindCross:
		return sg.genBinary(n, OpCross)

	case syntaxtree.KindTernary:
		return sg.genTernary(n)

	case syntaxtree.KindTypecast:
		inner := n.Node(0)
		reg, temp := sg.genExpr(inner)
		reg, temp = sg.coerce(reg, temp, n.OriginalType, n.Type)
		space, _ := n.Attr.(string)
		if op, ok := transformOpFor(n.Type); ok && space != "" {
			dst := sg.regs.Alloc(n.Type)
			sg.emit(Instruction{Op: op, Dst: dst, A: reg, Name: space})
			if temp {
				sg.regs.Release(reg)
			}
			return dst, true
		}
		return reg, temp

	case syntaxtree.KindCall:
		return sg.genCall(n)

	case syntaxtree.KindTexture:
		return sg.genSampling(n, OpTexture)
	case syntaxtree.KindEnvironment:
		return sg.genSampling(n, OpEnvironment)
	case syntaxtree.KindShadow:
		return sg.genSampling(n, OpShadow)

	case syntaxtree.KindIndex:
		// spec.md §9 Open Question (a): always a hard parse error, so
		// this node is never reached when the parser reported no
		// errors; a zero-valued fallback keeps codegen total.
		dst := sg.regs.Alloc(value.TypeFloat)
		sg.emit(Instruction{Op: OpLoadConst, Dst: dst, Const: sg.pool.AddFloat(0)})
		return dst, true

	default:
		if op, ok := binaryOps[n.Kind]; ok {
			return sg.genBinary(n, op)
		}
		dst := sg.regs.Alloc(value.TypeFloat)
		sg.emit(Instruction{Op: OpLoadConst, Dst: dst, Const: sg.pool.AddFloat(0)})
		return dst, true
	}
}

func (sg *shaderGen) genAssign(n *syntaxtree.Node) (Register, bool) {
	lhs := n.Node(0)
	rhs := n.Node(1)
	lhsReg := sg.regFor(lhs.Symbol)

	if op, ok := compoundOpFor(n.Kind); ok {
		rhsReg, rhsTemp := sg.genExpr(rhs)
		rhsReg, rhsTemp = sg.coerce(rhsReg, rhsTemp, rhs.OriginalType, rhs.Type)
		if rhs.Storage == value.StorageVarying && rhs.OriginalStorage != value.StorageVarying && rhs.OriginalStorage != value.StorageNull {
			rhsReg, rhsTemp = sg.promote(rhsReg, rhsTemp)
		}
		dispatch := SelectDispatch(lhs.Storage, rhs.Storage)
		sg.emit(Instruction{Op: op, Dispatch: dispatch, Dst: lhsReg, A: lhsReg, B: rhsReg})
		if rhsTemp {
			sg.regs.Release(rhsReg)
		}
		return lhsReg, false
	}

	sg.genStoreInto(lhsReg, lhs.Type, lhs.Storage, rhs)
	return lhsReg, false
}

func (sg *shaderGen) genBinary(n *syntaxtree.Node, op Opcode) (Register, bool) {
	left, right := n.Node(0), n.Node(1)
	a, aTemp := sg.genExpr(left)
	b, bTemp := sg.genExpr(right)
	dispatch := SelectDispatch(left.Storage, right.Storage)
	dst := sg.regs.Alloc(n.OriginalType)
	sg.emit(Instruction{Op: op, Dispatch: dispatch, Dst: dst, A: a, B: b})
	if aTemp {
		sg.regs.Release(a)
	}
	if bTemp {
		sg.regs.Release(b)
	}
	return dst, true
}

func (sg *shaderGen) genTernary(n *syntaxtree.Node) (Register, bool) {
	cond, then, els := n.Node(0), n.Node(1), n.Node(2)

	condReg, condTemp := sg.genExpr(cond)
	sg.pushGenerateMask(condReg)
	if condTemp {
		sg.regs.Release(condReg)
	}

	dst := sg.regs.Alloc(n.OriginalType)

	thenReg, thenTemp := sg.genExpr(then)
	sg.emit(Instruction{Op: assignOpFor(n.OriginalType), Dst: dst, A: thenReg})
	if thenTemp {
		sg.regs.Release(thenReg)
	}

	sg.emit(Instruction{Op: OpInvertMask})

	elsReg, elsTemp := sg.genExpr(els)
	sg.emit(Instruction{Op: assignOpFor(n.OriginalType), Dst: dst, A: elsReg})
	if elsTemp {
		sg.regs.Release(elsReg)
	}

	sg.popResetMask()
	return dst, true
}

// genCall compiles a call node to either a builtin CALL_N (when the
// parser matched an overload and attached its Eval to n.Attr) or an
// inlined user-function body; a call node carrying neither (the parser
// reports every unresolved call as an error and returns no tree, so
// only a hand-built tree reaches this case) is compiled to a zero
// constant so codegen stays total.
func (sg *shaderGen) genCall(n *syntaxtree.Node) (Register, bool) {
	if eval, ok := n.Attr.(builtins.Eval); ok {
		argRegs := make([]Register, len(n.Nodes))
		argTemp := make([]bool, len(n.Nodes))
		for i, a := range n.Nodes {
			argRegs[i], argTemp[i] = sg.genExpr(a)
		}
		dst := sg.regs.Alloc(n.OriginalType)
		name := n.Lexeme
		sg.emit(Instruction{Op: OpCallN, Dst: dst, Args: argRegs, Builtin: eval, Name: name})
		for i, r := range argRegs {
			if argTemp[i] {
				sg.regs.Release(r)
			}
		}
		return dst, true
	}

	if n.Symbol != nil && n.Symbol.Kind == symtab.KindFunction {
		return sg.inlineCall(n)
	}

	dst := sg.regs.Alloc(value.TypeFloat)
	sg.emit(Instruction{Op: OpLoadConst, Dst: dst, Const: sg.pool.AddFloat(0)})
	return dst, true
}

func (sg *shaderGen) genSampling(n *syntaxtree.Node, op Opcode) (Register, bool) {
	argRegs := make([]Register, len(n.Nodes))
	argTemp := make([]bool, len(n.Nodes))
	for i, a := range n.Nodes {
		argRegs[i], argTemp[i] = sg.genExpr(a)
	}
	dst := sg.regs.Alloc(n.OriginalType)
	name := ""
	if n.Symbol != nil {
		name = n.Symbol.Name
	}
	sg.emit(Instruction{Op: op, Dst: dst, Args: argRegs, Name: name})
	for i, r := range argRegs {
		if argTemp[i] {
			sg.regs.Release(r)
		}
	}
	return dst, true
}

// inlineCall binds n's arguments into the called function's parameter
// registers and walks its body for its first top-level return
// statement, whose expression becomes the call's result. Functions in
// this corpus are bound into scope only after their own body has been
// parsed (internal/parser/parser.go's parseFunctionDefinition), so
// they can neither recurse nor forward-reference a later definition —
// inlining a non-recursive call site is always well-founded.
func (sg *shaderGen) inlineCall(n *syntaxtree.Node) (Register, bool) {
	fn := sg.gen.functions[n.Symbol]
	if fn == nil {
		dst := sg.regs.Alloc(value.TypeFloat)
		sg.emit(Instruction{Op: OpLoadConst, Dst: dst, Const: sg.pool.AddFloat(0)})
		return dst, true
	}

	params := fn.Node(0)
	for i, decl := range params.Nodes {
		if i >= len(n.Nodes) {
			break
		}
		dst := sg.regFor(decl.Symbol)
		sg.genStoreInto(dst, decl.Type, decl.Storage, n.Nodes[i])
	}

	return sg.genInlinedBody(fn.Node(1), fn.Type)
}

// genInlinedBody walks a function body's top-level statements until
// its first KindReturn, whose expression is the inlined call's
// result; statements after that return are unreachable and are not
// compiled, matching ordinary non-inlined control flow.
func (sg *shaderGen) genInlinedBody(block *syntaxtree.Node, retType value.Type) (Register, bool) {
	for _, stmt := range block.Nodes {
		if stmt.Kind == syntaxtree.KindReturn {
			if expr := stmt.Node(0); expr != nil {
				return sg.genExpr(expr)
			}
			break
		}
		sg.genStatement(stmt)
	}
	dst := sg.regs.Alloc(retType)
	sg.emit(Instruction{Op: OpLoadConst, Dst: dst, Const: sg.pool.AddFloat(0)})
	return dst, true
}
