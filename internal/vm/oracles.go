package vm

// CoordinateSystems resolves a named coordinate space to the matrix
// that maps a point/vector/normal from that space into the space the
// shader itself runs in — spec.md §4.4's "coordinate systems" oracle,
// the one transform/vtransform/ntransform and TRANSFORM*/VTRANSFORM/
// NTRANSFORM need.
type CoordinateSystems interface {
	Matrix(space string) (m [16]float32, ok bool)
}

// TextureSampler resolves the texture/environment/shadow calls against
// host-managed map data — spec.md §4.4's "texture sampler" oracle.
type TextureSampler interface {
	Texture(name string, s, t float32) (color [3]float32, ok bool)
	Environment(name string, dir [3]float32) (color [3]float32, ok bool)
	Shadow(name string, p [3]float32) (visibility float32, ok bool)
}

// Light is one light source contributing to an illuminance loop.
type Light struct {
	Position [3]float32
	Color    [3]float32
	Opacity  [3]float32
}

// Scene is the renderer's light list, the run-time quantity
// ILLUMINANCE_AXIS_ANGLE iterates over — spec.md §4.4: "it iterates
// over the lights registered on the renderer". solar and illuminate
// name a single light directly (the light shader's own invocation),
// so they don't consult this oracle; only illuminance does.
type Scene interface {
	Lights() []Light

	// Ambient is the light color an `ambient()` statement contributes
	// — spec.md §4.3 rule 3's worked example, `light amb(color c=1;)
	// {}` compiling to `ambient(Cl=c, Ol=1)`. The instruction carries
	// no operand naming which parameter supplied c, so the VM asks the
	// scene for the renderer's ambient term directly instead.
	Ambient() [3]float32
}
