package value

// Grid is a rectangular sheet of surface samples. Each named attribute
// on it is a Value, uniform or varying; varying Values always have
// size == Width*Height. Grids are constructed empty by the (external)
// geometry dicing step and populated with P, N, s, t and any primvars
// before being handed to the VM.
type Grid struct {
	Width, Height int
	Du, Dv        float32 // derivative steps used by the du()/dv() builtins

	names  []string // insertion order
	values map[string]*Value
}

// NewGrid creates an empty Grid of the given dimensions.
func NewGrid(width, height int) *Grid {
	return &Grid{
		Width:  width,
		Height: height,
		values: make(map[string]*Value),
	}
}

// Size returns width*height, the length every varying Value on this
// Grid must have.
func (g *Grid) Size() int {
	return g.Width * g.Height
}

// Value returns the named attribute, creating it with the given type
// and default varying storage if it does not already exist. If it
// exists with a different type, it is reallocated (re-typed) in place.
func (g *Grid) Value(name string, typ Type) *Value {
	if v, ok := g.values[name]; ok {
		if v.Type() == typ {
			return v
		}
		v.Reset(typ, StorageVarying, g.Size())
		return v
	}
	v := New(typ, StorageVarying, g.Size())
	g.values[name] = v
	g.names = append(g.names, name)
	return v
}

// FindValue returns the named attribute and true, or nil and false if
// it has not been created yet.
func (g *Grid) FindValue(name string) (*Value, bool) {
	v, ok := g.values[name]
	return v, ok
}

// SetValue installs v under name, replacing any existing attribute of
// that name, preserving insertion order for new names.
func (g *Grid) SetValue(name string, v *Value) {
	if _, ok := g.values[name]; !ok {
		g.names = append(g.names, name)
	}
	g.values[name] = v
}

// Names returns attribute names in insertion order.
func (g *Grid) Names() []string {
	return g.names
}

// Populate fills P, N, s, t with a flat, axis-aligned test grid the
// way the (external) geometry dicer would before handing the Grid to
// the VM. This exists so VM and builtin tests can exercise realistic
// shading input without a geometry package.
func (g *Grid) Populate() {
	n := g.Size()
	p := g.Value("P", TypePoint)
	nrm := g.Value("N", TypeNormal)
	s := g.Value("s", TypeFloat)
	t := g.Value("t", TypeFloat)
	ps := p.Vec3s()
	ns := nrm.Vec3s()
	sf := s.Floats()
	tf := t.Floats()
	for row := 0; row < g.Height; row++ {
		for col := 0; col < g.Width; col++ {
			i := row*g.Width + col
			u := float32(col) / float32(maxInt(g.Width-1, 1))
			v := float32(row) / float32(maxInt(g.Height-1, 1))
			ps[i] = [3]float32{u, v, 0}
			ns[i] = [3]float32{0, 0, 1}
			sf[i] = u
			tf[i] = v
			_ = n
		}
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
