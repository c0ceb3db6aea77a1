package vm

import (
	"github.com/reyes-sl/shade/internal/builtins"
	"github.com/reyes-sl/shade/internal/codegen"
	"github.com/reyes-sl/shade/internal/diagnostic"
	"github.com/reyes-sl/shade/internal/value"
)

// Params overrides a subset of a shader's uniform parameters by name,
// for a caller-supplied (rather than default) value — spec.md §4.5's
// parameter-default mechanism.
type Params map[string]*value.Value

// illumIter tracks one ILLUMINANCE_AXIS_ANGLE loop header's position
// in the scene's light list, keyed by the header's instruction index
// so a shader with more than one illuminance block doesn't collide.
type illumIter struct {
	lights []Light
	idx    int
}

// VM executes one compiled codegen.Shader over one value.Grid.
// Grounded on daios-ai-msg/vm.go's instruction-pointer-driven dispatch
// loop: a flat switch over the current instruction, advancing ip to
// either the next instruction or a patched jump Target.
type VM struct {
	shader   *codegen.Shader
	grid     *value.Grid
	regs     *registers
	masks    *maskStack
	gridSize int
	ctx      *vmContext
	scene    Scene
	illum    map[int]*illumIter
}

// New prepares a VM to run shader over grid. spaces and sampler may be
// nil if the shader makes no transform/sampling calls; scene may be
// nil if it has no illuminance/ambient statements; sink may be nil to
// discard runtime diagnostics.
func New(shader *codegen.Shader, grid *value.Grid, spaces CoordinateSystems, sampler TextureSampler, scene Scene, sink diagnostic.Sink) *VM {
	n := grid.Size()
	return &VM{
		shader:   shader,
		grid:     grid,
		regs:     newRegisters(shader.RegisterCounts),
		masks:    newMaskStack(n),
		gridSize: n,
		ctx:      &vmContext{spaces: spaces, sampler: sampler, sink: sink},
		scene:    scene,
		illum:    make(map[int]*illumIter),
	}
}

// Run executes the shader once over the VM's grid. It binds the
// shader's implicit globals directly onto the grid's own named Values
// (so writes are visible to the caller without a copy-out step), runs
// every parameter's default-value instructions, applies params'
// overrides, then runs the shader body.
func (vm *VM) Run(params Params) {
	for name, reg := range vm.shader.Globals {
		vm.regs.set(reg, vm.grid.Value(name, reg.Type))
	}

	code := vm.shader.Instructions
	ip := 0
	for ip < vm.shader.BodyStart {
		ip = vm.step(code, ip)
	}

	for name, v := range params {
		if reg, ok := vm.shader.ParamRegisters[name]; ok {
			vm.regs.set(reg, v)
		}
	}

	for ip < len(code) {
		ip = vm.step(code, ip)
	}
}

// step executes the instruction at ip and returns the next ip to run,
// or len(code) to signal RETURN.
func (vm *VM) step(code []codegen.Instruction, ip int) int {
	ins := code[ip]
	switch ins.Op {
	case codegen.OpReturn:
		return len(code)

	case codegen.OpJump:
		return ins.Target

	case codegen.OpJumpEmpty:
		if vm.masks.top().allInactive() {
			return ins.Target
		}
		return ip + 1

	case codegen.OpJumpNotEmpty:
		if !vm.masks.top().allInactive() {
			return ins.Target
		}
		return ip + 1

	case codegen.OpGenerateMask:
		vm.masks.generate(truthyMask(vm.regs.get(ins.A), vm.gridSize))
		return ip + 1

	case codegen.OpInvertMask:
		vm.masks.invert()
		return ip + 1

	case codegen.OpResetMask:
		vm.masks.reset()
		return ip + 1

	case codegen.OpClearMask:
		vm.masks.clear(vm.gridSize)
		return ip + 1

	case codegen.OpLoadConst:
		vm.maskedStore(ins.Dst, vm.loadConst(ins))
		return ip + 1

	case codegen.OpAssignFloat, codegen.OpAssignVec3, codegen.OpAssignMatrix, codegen.OpAssignString:
		vm.maskedStore(ins.Dst, vm.regs.get(ins.A))
		return ip + 1

	case codegen.OpPromoteFloat, codegen.OpPromoteVec3, codegen.OpPromoteMatrix, codegen.OpPromoteString:
		v := vm.regs.get(ins.A)
		if v.IsUniform() {
			v.Promote(vm.gridSize)
		}
		return ip + 1

	case codegen.OpFloatToVec3:
		vm.maskedStore(ins.Dst, vm.floatToVec3(ins))
		return ip + 1

	case codegen.OpFloatToMatrix:
		vm.maskedStore(ins.Dst, vm.floatToMatrix(ins))
		return ip + 1

	case codegen.OpBuildVec3:
		vm.maskedStore(ins.Dst, vm.buildVec3(ins))
		return ip + 1

	case codegen.OpBuildMatrix:
		vm.maskedStore(ins.Dst, vm.buildMatrix(ins))
		return ip + 1

	case codegen.OpAdd, codegen.OpSub, codegen.OpMul, codegen.OpDiv,
		codegen.OpLess, codegen.OpLessEqual, codegen.OpGreater, codegen.OpGreaterEqual,
		codegen.OpEqual, codegen.OpNotEqual, codegen.OpAnd, codegen.OpOr,
		codegen.OpDot, codegen.OpCross:
		a, b := vm.regs.get(ins.A), vm.regs.get(ins.B)
		vm.maskedStore(ins.Dst, evalBinary(ins.Op, a, b, ins.Dst.Type, vm.gridSize))
		return ip + 1

	case codegen.OpNeg, codegen.OpNot:
		a := vm.regs.get(ins.A)
		vm.maskedStore(ins.Dst, evalUnary(ins.Op, a, ins.Dst.Type, vm.gridSize))
		return ip + 1

	case codegen.OpCallN:
		args := vm.resolveArgs(ins.Args)
		vm.maskedStore(ins.Dst, ins.Builtin(vm.ctx, args, vm.gridSize))
		return ip + 1

	case codegen.OpTexture, codegen.OpEnvironment, codegen.OpShadow:
		eval := samplingEval(ins.Op)
		args := vm.resolveArgs(ins.Args)
		vm.maskedStore(ins.Dst, eval(vm.ctx, args, vm.gridSize))
		return ip + 1

	case codegen.OpTransform, codegen.OpVTransform, codegen.OpNTransform:
		vm.maskedStore(ins.Dst, vm.spaceTransform(ins))
		return ip + 1

	case codegen.OpAmbient:
		vm.execAmbient()
		return ip + 1

	case codegen.OpSolar:
		vm.execSolar(ins)
		// Push an unrestricted frame for the body; its closing RESET pops it.
		vm.masks.generate(vm.masks.top())
		return ip + 1

	case codegen.OpIlluminate:
		vm.execIlluminate(ins)
		vm.masks.generate(vm.masks.top())
		return ip + 1

	case codegen.OpIlluminanceAxisAngle:
		return vm.execIlluminance(ins, ip)

	default:
		return ip + 1
	}
}

// resolveArgs fetches the Values behind a variable-arity Args list,
// for CALL_N and the sampling opcodes.
func (vm *VM) resolveArgs(args []codegen.Register) []*value.Value {
	out := make([]*value.Value, len(args))
	for i, r := range args {
		out[i] = vm.regs.get(r)
	}
	return out
}

// optionalArg reads args[idx], or reports false for the
// value.TypeNull sentinel codegen.genOptionalArgs leaves for an
// omitted solar/illuminate/illuminance argument.
func (vm *VM) optionalArg(args []codegen.Register, idx int) (*value.Value, bool) {
	if idx >= len(args) || args[idx].Type == value.TypeNull {
		return nil, false
	}
	return vm.regs.get(args[idx]), true
}

func samplingEval(op codegen.Opcode) builtins.Eval {
	var name string
	switch op {
	case codegen.OpTexture:
		name = "texture"
	case codegen.OpEnvironment:
		name = "environment"
	default:
		name = "shadow"
	}
	return builtins.Lookup(name).Overloads[0].Eval
}

func (vm *VM) loadConst(ins codegen.Instruction) *value.Value {
	switch ins.Dst.Type {
	case value.TypeFloat, value.TypeInteger:
		return uniformFloat(vm.shader.Pool.Floats[ins.Const])
	case value.TypeString:
		v := value.New(value.TypeString, value.StorageUniform, 1)
		v.Strings()[0] = vm.shader.Pool.Strings[ins.Const]
		return v
	case value.TypeMatrix:
		v := value.New(value.TypeMatrix, value.StorageUniform, 1)
		v.Matrices()[0] = vm.shader.Pool.Matrices[ins.Const]
		return v
	default:
		return uniformVec3(ins.Dst.Type, vm.shader.Pool.Vec3s[ins.Const])
	}
}

func (vm *VM) floatToVec3(ins codegen.Instruction) *value.Value {
	src := vm.regs.get(ins.A)
	n := value.ResultSize(vm.gridSize, src)
	out := value.New(ins.Dst.Type, value.ResultStorage(src), n)
	dst := out.Vec3s()
	for i := 0; i < n; i++ {
		f := src.FloatAt(i)
		dst[i] = [3]float32{f, f, f}
	}
	return out
}

// buildVec3 assembles a color/point/vector/normal from three float
// operands, one per lane: a KindTriple node compiles to this when its
// components aren't all literal, so Node.Triple() can't read them.
func (vm *VM) buildVec3(ins codegen.Instruction) *value.Value {
	comps := vm.resolveArgs(ins.Args)
	n := value.ResultSize(vm.gridSize, comps...)
	out := value.New(ins.Dst.Type, value.ResultStorage(comps...), n)
	dst := out.Vec3s()
	for i := 0; i < n; i++ {
		dst[i] = [3]float32{comps[0].FloatAt(i), comps[1].FloatAt(i), comps[2].FloatAt(i)}
	}
	return out
}

// buildMatrix assembles a matrix from sixteen float operands, in
// row-major order, the non-literal-component counterpart to
// buildVec3.
func (vm *VM) buildMatrix(ins codegen.Instruction) *value.Value {
	comps := vm.resolveArgs(ins.Args)
	n := value.ResultSize(vm.gridSize, comps...)
	out := value.New(value.TypeMatrix, value.ResultStorage(comps...), n)
	dst := out.Matrices()
	for i := 0; i < n; i++ {
		var m [16]float32
		for j := 0; j < 16; j++ {
			m[j] = comps[j].FloatAt(i)
		}
		dst[i] = m
	}
	return out
}

func (vm *VM) floatToMatrix(ins codegen.Instruction) *value.Value {
	src := vm.regs.get(ins.A)
	n := value.ResultSize(vm.gridSize, src)
	out := value.New(value.TypeMatrix, value.ResultStorage(src), n)
	dst := out.Matrices()
	for i := 0; i < n; i++ {
		f := src.FloatAt(i)
		var m [16]float32
		for j := range m {
			m[j] = f
		}
		dst[i] = m
	}
	return out
}

func (vm *VM) spaceTransform(ins codegen.Instruction) *value.Value {
	src := vm.regs.get(ins.A)
	n := value.ResultSize(vm.gridSize, src)
	out := value.New(ins.Dst.Type, value.ResultStorage(src), n)
	dst := out.Vec3s()
	for i := 0; i < n; i++ {
		p := src.Vec3At(i)
		switch ins.Op {
		case codegen.OpTransform:
			dst[i] = vm.ctx.Transform(ins.Name, p)
		case codegen.OpVTransform:
			dst[i] = vm.ctx.VTransform(ins.Name, p)
		default:
			dst[i] = vm.ctx.NTransform(ins.Name, p)
		}
	}
	return out
}

// truthyMask decodes v's per-lane truthiness (scalarOf(v, i) != 0)
// into a plain []bool sized to the grid, the form GENERATE_MASK's
// mask.generate wants — a uniform v broadcasts via scalarOf's own
// At-accessor broadcast, so a uniform condition still yields a
// grid-sized, uniformly-true-or-false mask.
func truthyMask(v *value.Value, n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = scalarOf(v, i) != 0
	}
	return out
}

// maskedStore writes src into dst's register per spec.md §4.4: "the
// mask applies to all writes to varying registers... kernels always
// write the full length; the mask is enforced by the store step." A
// write to a still-uniform dst from a uniform src ignores the mask
// entirely, matching "gates writes to varying registers only".
func (vm *VM) maskedStore(dst codegen.Register, src *value.Value) {
	if dst.Type == value.TypeNull {
		return
	}
	dstVal := vm.regs.get(dst)
	if src.IsUniform() && dstVal.IsUniform() {
		copyLane(dstVal, src, 0, 0)
		return
	}
	n := vm.gridSize
	if dstVal.IsUniform() {
		dstVal.Promote(n)
	}
	m := vm.masks.top()
	for i := 0; i < n; i++ {
		if m[i] {
			copyLane(dstVal, src, i, i)
		}
	}
}
