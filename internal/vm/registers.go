package vm

import (
	"github.com/reyes-sl/shade/internal/codegen"
	"github.com/reyes-sl/shade/internal/value"
)

// registers is one shader invocation's register file: one *value.Value
// per (type, index) slot codegen.RegisterFile counted at compile
// time, lazily materialized as a uniform, size-1 Value the first time
// its slot is touched.
type registers struct {
	slots map[value.Type][]*value.Value
}

func newRegisters(counts map[value.Type]int) *registers {
	slots := make(map[value.Type][]*value.Value, len(counts))
	for t, n := range counts {
		slots[t] = make([]*value.Value, n)
	}
	return &registers{slots: slots}
}

// get returns the Value at reg, allocating a zeroed uniform Value the
// first time this slot is touched.
func (r *registers) get(reg codegen.Register) *value.Value {
	slot := r.slots[reg.Type]
	if slot[reg.Index] == nil {
		slot[reg.Index] = value.New(reg.Type, value.StorageUniform, 1)
	}
	return slot[reg.Index]
}

// set installs v directly at reg, replacing whatever was there.
func (r *registers) set(reg codegen.Register, v *value.Value) {
	r.slots[reg.Type][reg.Index] = v
}
