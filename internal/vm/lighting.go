package vm

import (
	"github.com/chewxy/math32"

	"github.com/reyes-sl/shade/internal/codegen"
	"github.com/reyes-sl/shade/internal/value"
)

// execAmbient implements AMBIENT, spec.md §4.3 rule 3's `light
// amb(color c=1;) {}` example compiling to `ambient(Cl=c, Ol=1)`. The
// instruction carries no operand naming which parameter supplied Cl's
// value — the parser only ever inserts this opcode bare at the head
// of a light shader with no solar/illuminate/illuminance statement —
// so the VM sources Cl from the scene's own ambient term rather than
// from a shader register.
func (vm *VM) execAmbient() {
	amb := [3]float32{1, 1, 1}
	if vm.scene != nil {
		amb = vm.scene.Ambient()
	}
	if clReg, ok := vm.shader.Globals["Cl"]; ok {
		vm.maskedStore(clReg, uniformVec3(value.TypeColor, amb))
	}
	if olReg, ok := vm.shader.Globals["Ol"]; ok {
		vm.maskedStore(olReg, uniformVec3(value.TypeColor, [3]float32{1, 1, 1}))
	}
}

// execSolar implements SOLAR: a directional light, L bound from the
// optional axis argument (the direction the light travels, negated —
// L conventionally points from the surface toward the light) or, when
// omitted, (0, 0, -1): the light-space default axis (0, 0, 1),
// negated the same way. solar's optional angle
// argument is accepted syntactically but — unlike illuminance — does
// not narrow the mask here: a bare directional light has no per-sample
// varying geometry for a cone test to apply to.
func (vm *VM) execSolar(ins codegen.Instruction) {
	if ins.Dst.Type == value.TypeNull {
		return
	}
	axis, hasAxis := vm.optionalArg(ins.Args, 0)
	var l [3]float32
	if hasAxis {
		l = neg3(axis.Vec3At(0))
	} else {
		l = [3]float32{0, 0, -1}
	}
	vm.maskedStore(ins.Dst, uniformVec3(value.TypeVector, l))
}

// execIlluminate implements ILLUMINATE: L is bound from the optional
// position argument as Ps - pos (direction from the named point light
// to the surface, per RSL's illuminate(P) convention) when a position
// is given, falling back to the axis argument or the same light-space
// default SOLAR uses otherwise.
func (vm *VM) execIlluminate(ins codegen.Instruction) {
	if ins.Dst.Type == value.TypeNull {
		return
	}
	pos, hasPos := vm.optionalArg(ins.Args, 0)
	axis, hasAxis := vm.optionalArg(ins.Args, 1)

	switch {
	case hasPos:
		psReg, ok := vm.shader.Globals["Ps"]
		if !ok {
			return
		}
		ps := vm.regs.get(psReg)
		n := value.ResultSize(vm.gridSize, ps, pos)
		out := value.New(value.TypeVector, value.ResultStorage(ps, pos), n)
		dst := out.Vec3s()
		for i := 0; i < n; i++ {
			dst[i] = sub3(ps.Vec3At(i), pos.Vec3At(i))
		}
		vm.maskedStore(ins.Dst, out)
	case hasAxis:
		vm.maskedStore(ins.Dst, uniformVec3(value.TypeVector, neg3(axis.Vec3At(0))))
	default:
		vm.maskedStore(ins.Dst, uniformVec3(value.TypeVector, [3]float32{0, 0, -1}))
	}
}

// execIlluminance implements ILLUMINANCE_AXIS_ANGLE: a genuine loop
// header, one pass per light in the scene. Each pass pushes its own
// mask frame restricted to the samples whose direction to this light
// falls within the optional axis/angle cone — spec.md §4.4: "the mask
// restricted to samples whose dot(normalize(L), axis) >= cos(angle)"
// — so a sample excluded from this light's cone is simply skipped on
// this pass and still visited normally on every other light's pass.
// codegen's own RESET after the body pops that frame; this function
// only ever pushes, it never pops.
func (vm *VM) execIlluminance(ins codegen.Instruction, ip int) int {
	it, ok := vm.illum[ip]
	if !ok {
		var lights []Light
		if vm.scene != nil {
			lights = vm.scene.Lights()
		}
		it = &illumIter{lights: lights}
		vm.illum[ip] = it
	}
	if it.idx >= len(it.lights) {
		delete(vm.illum, ip)
		return ins.Target
	}
	light := it.lights[it.idx]
	it.idx++

	axisArg, hasAxis := vm.optionalArg(ins.Args, 1)
	angleArg, hasAngle := vm.optionalArg(ins.Args, 2)
	coned := hasAxis && hasAngle

	n := vm.gridSize
	var ps *value.Value
	if psReg, ok := vm.shader.Globals["Ps"]; ok {
		ps = vm.regs.get(psReg)
	}

	l := value.New(value.TypeVector, value.StorageVarying, n)
	lDst := l.Vec3s()
	cond := make([]bool, n)
	for i := 0; i < n; i++ {
		p := [3]float32{}
		if ps != nil {
			p = ps.Vec3At(i)
		}
		dir := sub3(light.Position, p)
		lDst[i] = dir
		if !coned {
			cond[i] = true
			continue
		}
		cosAngle := math32.Cos(angleArg.FloatAt(i))
		cond[i] = dot3(normalize3(dir), axisArg.Vec3At(i)) >= cosAngle
	}
	vm.masks.generate(cond)

	if ins.Dst.Type != value.TypeNull {
		vm.maskedStore(ins.Dst, l)
	}
	if ins.A.Type != value.TypeNull {
		vm.maskedStore(ins.A, uniformVec3(value.TypeColor, light.Color))
	}
	if ins.B.Type != value.TypeNull {
		vm.maskedStore(ins.B, uniformVec3(value.TypeColor, light.Opacity))
	}
	return ip + 1
}
