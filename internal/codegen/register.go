package codegen

import "github.com/reyes-sl/shade/internal/value"

// Register names a slot in the VM's register file: a (type, index)
// pair, per spec.md §4.4's "register file indexed by (type, register
// number)". The VM allocates the backing Value lazily, sized to the
// Grid, the first time a register of a given type is touched.
type Register struct {
	Type  value.Type
	Index int
}

// typeAllocator hands out register indices for a single value.Type,
// reusing an index once its prior occupant's life-range has ended —
// the "simple forward scan: reuse when prior use is past" allocator
// spec.md §4.5 asks for. Life-ranges here are stack-disciplined: a
// temporary's range ends the moment the instruction consuming it is
// emitted, so release is an explicit call from the expression
// code-generator rather than a separate liveness analysis pass.
type typeAllocator struct {
	next int
	free []int
}

func (a *typeAllocator) alloc() int {
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		return idx
	}
	idx := a.next
	a.next++
	return idx
}

func (a *typeAllocator) release(idx int) {
	a.free = append(a.free, idx)
}

// RegisterFile tracks, at compile time, how many registers of each
// type a shader needs and which indices are currently live. It does
// not hold Values — internal/vm owns those at run time, sized to the
// Grid being shaded.
type RegisterFile struct {
	allocators map[value.Type]*typeAllocator
}

func newRegisterFile() *RegisterFile {
	return &RegisterFile{allocators: make(map[value.Type]*typeAllocator)}
}

func (r *RegisterFile) allocatorFor(t value.Type) *typeAllocator {
	a, ok := r.allocators[t]
	if !ok {
		a = &typeAllocator{}
		r.allocators[t] = a
	}
	return a
}

// Alloc reserves the next free register of type t.
func (r *RegisterFile) Alloc(t value.Type) Register {
	return Register{Type: t, Index: r.allocatorFor(t).alloc()}
}

// Release returns reg's index to the free list for its type, allowing
// a later Alloc of the same type to reuse it.
func (r *RegisterFile) Release(reg Register) {
	r.allocatorFor(reg.Type).release(reg.Index)
}

// Counts returns, per type, one past the highest register index ever
// allocated — the register-file size internal/vm must provision.
func (r *RegisterFile) Counts() map[value.Type]int {
	counts := make(map[value.Type]int, len(r.allocators))
	for t, a := range r.allocators {
		counts[t] = a.next
	}
	return counts
}
