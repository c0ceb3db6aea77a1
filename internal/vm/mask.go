// Package vm executes a compiled codegen.Shader over a value.Grid: the
// grid-oriented shading virtual machine spec.md §4.4 and §4.5
// describe, grounded on daios-ai-msg/vm.go's instruction-pointer-
// driven dispatch loop.
package vm

// mask is a per-sample active/inactive buffer, sized to the Grid.
type mask []bool

func allActive(n int) mask {
	m := make(mask, n)
	for i := range m {
		m[i] = true
	}
	return m
}

func (m mask) allInactive() bool {
	for _, b := range m {
		if b {
			return false
		}
	}
	return true
}

func (m mask) and(cond []bool) mask {
	out := make(mask, len(m))
	for i := range m {
		out[i] = m[i] && cond[i]
	}
	return out
}

func (m mask) xor(other mask) mask {
	out := make(mask, len(m))
	for i := range m {
		out[i] = m[i] != other[i]
	}
	return out
}

// maskStack implements spec.md §4.4's execution-mask stack. Each frame
// already holds the cumulative active set — the intersection of every
// enclosing restriction — so GENERATE_MASK pushes a new frame rather
// than mutating the current one in place, and the top frame alone
// answers "is sample i active right now". This folds spec's literal
// CLEAR_MASK; GENERATE_MASK pair into a single push, which is why
// codegen never emits CLEAR_MASK on its own.
type maskStack struct {
	frames []mask
}

// newMaskStack starts with one frame: every sample active, the state
// a shader invocation begins in.
func newMaskStack(gridSize int) *maskStack {
	return &maskStack{frames: []mask{allActive(gridSize)}}
}

// top returns the current active set.
func (s *maskStack) top() mask {
	return s.frames[len(s.frames)-1]
}

// generate pushes a new frame restricted to cond, intersected with
// the frame it sits on top of.
func (s *maskStack) generate(cond []bool) {
	s.frames = append(s.frames, s.top().and(cond))
}

// invert replaces the top frame with the XOR of itself and its
// parent, which works out to "parent AND NOT cond" — the samples the
// preceding generate() excluded, still bounded by the enclosing mask.
// Used for if/else's else branch and ternary's second operand.
func (s *maskStack) invert() {
	top := len(s.frames) - 1
	s.frames[top] = s.frames[top].xor(s.frames[top-1])
}

// reset pops the top frame.
func (s *maskStack) reset() {
	s.frames = s.frames[:len(s.frames)-1]
}

// clear pushes a fresh all-active frame — spec's literal CLEAR_MASK.
// Dead from codegen's own output (see the package comment above) but
// kept since the opcode exists and a hand-written or future caller
// could still emit it.
func (s *maskStack) clear(gridSize int) {
	s.frames = append(s.frames, allActive(gridSize))
}
