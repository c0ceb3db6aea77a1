package main

import (
	"fmt"
	"io"

	"github.com/reyes-sl/shade/internal/codegen"
	"github.com/reyes-sl/shade/internal/value"
)

// disassemble prints sh's compiled instruction stream one line per
// instruction, in the order the VM's instruction pointer walks them —
// a debugging aid only, not part of the shading core's own contract.
func disassemble(w io.Writer, sh *codegen.Shader) {
	fmt.Fprintf(w, "%s %s:\n", sh.Kind, sh.Name)
	for i, ins := range sh.Instructions {
		fmt.Fprintf(w, "%4d  %s\n", i, formatInstruction(ins))
	}
	fmt.Fprintln(w)
}

func formatInstruction(ins codegen.Instruction) string {
	switch ins.Op {
	case codegen.OpJump, codegen.OpJumpEmpty, codegen.OpJumpNotEmpty:
		return fmt.Sprintf("%-14s -> %d", ins.Op, ins.Target)
	case codegen.OpLoadConst:
		return fmt.Sprintf("%-14s %s <- pool[%d]", ins.Op, formatRegister(ins.Dst), ins.Const)
	case codegen.OpCallN:
		return fmt.Sprintf("%-14s %s <- %s(%s)", ins.Op, formatRegister(ins.Dst), ins.Name, formatRegisters(ins.Args))
	case codegen.OpBuildVec3, codegen.OpBuildMatrix:
		return fmt.Sprintf("%-14s %s <- (%s)", ins.Op, formatRegister(ins.Dst), formatRegisters(ins.Args))
	case codegen.OpTexture, codegen.OpEnvironment, codegen.OpShadow:
		return fmt.Sprintf("%-14s %s <- %q(%s)", ins.Op, formatRegister(ins.Dst), ins.Name, formatRegisters(ins.Args))
	case codegen.OpTransform, codegen.OpVTransform, codegen.OpNTransform:
		return fmt.Sprintf("%-14s %s <- %s(%q, %s)", ins.Op, formatRegister(ins.Dst), ins.Op, ins.Name, formatRegister(ins.A))
	case codegen.OpGenerateMask:
		return fmt.Sprintf("%-14s %s", ins.Op, formatRegister(ins.A))
	case codegen.OpAmbient, codegen.OpInvertMask, codegen.OpResetMask, codegen.OpClearMask, codegen.OpReturn, codegen.OpNop:
		return ins.Op.String()
	case codegen.OpSolar, codegen.OpIlluminate, codegen.OpIlluminanceAxisAngle:
		return fmt.Sprintf("%-14s L=%s Cl=%s Ol=%s args=(%s) -> %d",
			ins.Op, formatRegister(ins.Dst), formatRegister(ins.A), formatRegister(ins.B), formatRegisters(ins.Args), ins.Target)
	case codegen.OpNeg, codegen.OpNot,
		codegen.OpAssignFloat, codegen.OpAssignVec3, codegen.OpAssignMatrix, codegen.OpAssignString,
		codegen.OpPromoteFloat, codegen.OpPromoteVec3, codegen.OpPromoteMatrix, codegen.OpPromoteString,
		codegen.OpFloatToVec3, codegen.OpFloatToMatrix:
		return fmt.Sprintf("%-14s %s <- %s", ins.Op, formatRegister(ins.Dst), formatRegister(ins.A))
	default: // binary arithmetic/comparison/dot/cross
		return fmt.Sprintf("%-14s %s <- %s, %s", ins.Op, formatRegister(ins.Dst), formatRegister(ins.A), formatRegister(ins.B))
	}
}

func formatRegister(r codegen.Register) string {
	if r.Type == value.TypeNull {
		return "-"
	}
	return fmt.Sprintf("%s%d", r.Type, r.Index)
}

func formatRegisters(regs []codegen.Register) string {
	out := ""
	for i, r := range regs {
		if i > 0 {
			out += ", "
		}
		out += formatRegister(r)
	}
	return out
}
