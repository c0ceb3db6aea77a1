package codegen

import (
	"testing"

	"github.com/reyes-sl/shade/internal/builtins"
	"github.com/reyes-sl/shade/internal/diagnostic"
	"github.com/reyes-sl/shade/internal/parser"
	"github.com/reyes-sl/shade/internal/symtab"
)

// compile parses src and compiles it, failing the test if parsing
// reported any error-level diagnostic.
func compile(t *testing.T, src string) []*Shader {
	t.Helper()
	return compileWithOptions(t, src, parser.Options{})
}

func compileWithOptions(t *testing.T, src string, opts parser.Options) []*Shader {
	t.Helper()
	tbl := symtab.New()
	builtins.PopulateGlobalFunctions(tbl)
	diags := diagnostic.NewDiagnosticList(src)
	p := parser.New(src, tbl, diags, opts)
	root := p.Parse()
	if root == nil {
		t.Fatalf("expected a tree, got nil; diagnostics: %v", diags.Diagnostics())
	}
	return NewGenerator(diags).Generate(root)
}

func count(ins []Instruction, op Opcode) int {
	n := 0
	for _, i := range ins {
		if i.Op == op {
			n++
		}
	}
	return n
}

func find(ins []Instruction, op Opcode) *Instruction {
	for i := range ins {
		if ins[i].Op == op {
			return &ins[i]
		}
	}
	return nil
}

func TestGenerateOnlyCompilesShaderDefinitions(t *testing.T) {
	shaders := compile(t, `float sq(float x) { return x * x; } surface s() { float f = sq(2); }`)
	if len(shaders) != 1 {
		t.Fatalf("expected exactly one compiled shader (the function is inlined, not compiled separately), got %d", len(shaders))
	}
	if shaders[0].Name != "s" {
		t.Fatalf("expected the surviving shader to be %q, got %q", "s", shaders[0].Name)
	}
}

func TestUserFunctionCallIsInlined(t *testing.T) {
	shaders := compile(t, `float sq(float x) { return x * x; } surface s() { float f = sq(2); }`)
	ins := shaders[0].Instructions
	if count(ins, OpCallN) != 0 {
		t.Fatalf("expected sq(2) to inline, found a CALL_N instead")
	}
	if count(ins, OpMul) != 1 {
		t.Fatalf("expected the inlined body's x * x to emit one MUL, got %d", count(ins, OpMul))
	}
}

func TestBuiltinCallEmitsCallN(t *testing.T) {
	shaders := compile(t, `surface s() { float f = sin(1); }`)
	ins := shaders[0].Instructions
	call := find(ins, OpCallN)
	if call == nil {
		t.Fatalf("expected sin(1) to emit a CALL_N instruction")
	}
	if call.Name != "sin" {
		t.Fatalf("expected CALL_N's Name to be %q, got %q", "sin", call.Name)
	}
	if call.Builtin == nil {
		t.Fatalf("expected CALL_N to carry the matched builtin's Eval")
	}
}

func TestUniformAssignmentToVaryingGlobalPromotesAndBroadcasts(t *testing.T) {
	shaders := compile(t, `surface s() { Ci = 1; }`)
	ins := shaders[0].Instructions

	if count(ins, OpFloatToVec3) != 1 {
		t.Fatalf("expected float 1 to broadcast to a vec3 for color-typed Ci, got %d FLOAT_TO_VEC3", count(ins, OpFloatToVec3))
	}
	if count(ins, OpPromoteVec3) != 1 {
		t.Fatalf("expected the constant to promote to varying before the assignment, got %d PROMOTE_VEC3", count(ins, OpPromoteVec3))
	}
	assign := find(ins, OpAssignVec3)
	if assign == nil {
		t.Fatalf("expected an ASSIGN_VEC3 into Ci")
	}
	if assign.Dispatch != DispatchVxVy {
		t.Fatalf("expected the promoted constant to dispatch as VxVy against varying Ci, got %v", assign.Dispatch)
	}
}

func TestBinaryDispatchReflectsOperandStorage(t *testing.T) {
	shaders := compile(t, `surface s() { uniform float a = 1; uniform float b = 2; uniform float c = a + b; }`)
	ins := shaders[0].Instructions
	add := find(ins, OpAdd)
	if add == nil {
		t.Fatalf("expected an ADD instruction for a + b")
	}
	if add.Dispatch != DispatchUxUy {
		t.Fatalf("expected two uniform operands to dispatch as UxUy, got %v", add.Dispatch)
	}
}

func TestWhileLoopPatchesJumpTargets(t *testing.T) {
	shaders := compile(t, `surface s() {
		uniform float i;
		i = 0;
		while (i < 3) {
			i = i + 1;
			if (i == 1) { continue; }
			if (i == 2) { break; }
		}
	}`)
	ins := shaders[0].Instructions

	if n := count(ins, OpJumpEmpty); n != 1 {
		t.Fatalf("expected exactly one JUMP_EMPTY for the loop condition, got %d", n)
	}
	// One backward jump closing the loop, plus the continue and break
	// statements' own jumps.
	if n := count(ins, OpJump); n != 3 {
		t.Fatalf("expected three JUMP instructions (loop-back, continue, break), got %d", n)
	}

	jumpEmpty := find(ins, OpJumpEmpty)
	endPos := jumpEmpty.Target

	var breakTarget, continueTarget, backTarget int
	jumps := 0
	for _, i := range ins {
		if i.Op != OpJump {
			continue
		}
		jumps++
		switch jumps {
		case 1:
			continueTarget = i.Target
		case 2:
			breakTarget = i.Target
		case 3:
			backTarget = i.Target
		}
	}

	if breakTarget != endPos {
		t.Fatalf("expected break's jump target (%d) to match the loop's exit (%d)", breakTarget, endPos)
	}
	if continueTarget == endPos {
		t.Fatalf("expected continue's jump target to re-enter the loop, not exit it")
	}
	if backTarget >= endPos {
		t.Fatalf("expected the loop-closing jump to target back inside the loop, got %d (exit is %d)", backTarget, endPos)
	}
}

func TestIlluminanceCompilesAsLoopHeader(t *testing.T) {
	shaders := compile(t, `surface s() {
		illuminance(P, N, 1.5707963) {
			Ci += Cl;
		}
	}`)
	ins := shaders[0].Instructions

	header := find(ins, OpIlluminanceAxisAngle)
	if header == nil {
		t.Fatalf("expected an ILLUMINANCE_AXIS_ANGLE loop header")
	}
	if count(ins, OpResetMask) == 0 {
		t.Fatalf("expected the illuminance body to close its per-light mask with RESET")
	}
	if header.Target <= 0 {
		t.Fatalf("expected the header's exhausted-iterator target to be patched past the loop body")
	}
}

func TestIfElseBracketsWithGenerateInvertReset(t *testing.T) {
	shaders := compile(t, `surface s() {
		uniform float k;
		if (k > 0) { Ci = 1; } else { Ci = 0; }
	}`)
	ins := shaders[0].Instructions
	if count(ins, OpGenerateMask) != 1 || count(ins, OpInvertMask) != 1 || count(ins, OpResetMask) < 1 {
		t.Fatalf("expected a GENERATE_MASK/INVERT_MASK/RESET bracket for if/else, got generate=%d invert=%d reset=%d",
			count(ins, OpGenerateMask), count(ins, OpInvertMask), count(ins, OpResetMask))
	}
}

func TestConstantPoolHoldsLiteralsFromTheShader(t *testing.T) {
	shaders := compile(t, `surface s() { float f = 42; }`)
	pool := shaders[0].Pool
	found := false
	for _, f := range pool.Floats {
		if f == 42 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the literal 42 to appear in the shader's constant pool, got %v", pool.Floats)
	}
}

func TestShaderParameterDefaultIsCompiled(t *testing.T) {
	shaders := compile(t, `surface matte(float Kd = 1;) { Ci = Kd * Cs; }`)
	sh := shaders[0]
	if _, ok := sh.ParamRegisters["Kd"]; !ok {
		t.Fatalf("expected Kd to have a register reserved for its default-value assignment")
	}
	if count(sh.Instructions, OpLoadConst) == 0 {
		t.Fatalf("expected the parameter default 1 to load a constant")
	}
}

func TestLiteralTripleUsesConstantPool(t *testing.T) {
	shaders := compile(t, `surface s() { color c = color(1, 0, 0.5); }`)
	ins := shaders[0].Instructions
	if count(ins, OpBuildVec3) != 0 {
		t.Fatalf("expected an all-literal color() to skip BUILD_VEC3, got %d", count(ins, OpBuildVec3))
	}
	load := find(ins, OpLoadConst)
	if load == nil {
		t.Fatalf("expected color(1, 0, 0.5) to load from the constant pool")
	}
	if shaders[0].Pool.Vec3s[load.Const] != [3]float32{1, 0, 0.5} {
		t.Fatalf("expected the pooled vec3 to be (1, 0, 0.5), got %v", shaders[0].Pool.Vec3s[load.Const])
	}
}

func TestNonLiteralTripleEmitsBuildVec3(t *testing.T) {
	shaders := compile(t, `surface s() { float r = 1; float g = 2; color c = color(r, g, r + g); }`)
	ins := shaders[0].Instructions
	build := find(ins, OpBuildVec3)
	if build == nil {
		t.Fatalf("expected color(r, g, r + g) to emit BUILD_VEC3 instead of zeroing the result")
	}
	if len(build.Args) != 3 {
		t.Fatalf("expected BUILD_VEC3 to carry the triple's three component registers, got %d", len(build.Args))
	}
	if count(ins, OpLoadConst) != 2 {
		t.Fatalf("expected only the two initializers' constant-pool loads and none for the non-literal triple, got %d", count(ins, OpLoadConst))
	}
}

func TestDefaultCoordinateSystemTriggersTransform(t *testing.T) {
	shaders := compileWithOptions(t, `surface s() { point p = point(0, 0, 0); }`, parser.Options{DefaultCoordinateSystem: "current"})
	ins := shaders[0].Instructions
	xform := find(ins, OpTransform)
	if xform == nil {
		t.Fatalf("expected a bare point() cast to emit TRANSFORM once a default coordinate system is configured")
	}
	if xform.Name != "current" {
		t.Fatalf("expected TRANSFORM's space to be the configured default, got %q", xform.Name)
	}
}

func TestNoDefaultCoordinateSystemSkipsTransform(t *testing.T) {
	shaders := compileWithOptions(t, `surface s() { point p = point(0, 0, 0); }`, parser.Options{})
	ins := shaders[0].Instructions
	if find(ins, OpTransform) != nil {
		t.Fatalf("expected a bare point() cast with no configured default to skip TRANSFORM, as before")
	}
}

func TestDefaultColorSpaceDoesNotEmitATransform(t *testing.T) {
	shaders := compileWithOptions(t, `surface s() { color c = color(1, 0, 0); }`, parser.Options{DefaultColorSpace: "rgb"})
	ins := shaders[0].Instructions
	for _, i := range ins {
		if i.Op == OpTransform || i.Op == OpVTransform || i.Op == OpNTransform {
			t.Fatalf("color has no transform opcode; the default color space should only annotate the cast, got %v", i.Op)
		}
	}
}

func TestVaryingComponentTripleDispatchesAsBuild(t *testing.T) {
	shaders := compile(t, `surface f() { color c = color(s, 0, 0); }`)
	ins := shaders[0].Instructions
	if count(ins, OpBuildVec3) != 1 {
		t.Fatalf("expected a triple with a varying component to emit BUILD_VEC3, got %d", count(ins, OpBuildVec3))
	}
}
