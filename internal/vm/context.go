package vm

import (
	"fmt"

	"github.com/reyes-sl/shade/internal/builtins"
	"github.com/reyes-sl/shade/internal/diagnostic"
)

// vmContext bridges the VM's external oracles to builtins.Context, so
// CALL_N-dispatched builtins (transform/vtransform/ntransform,
// texture/environment/shadow) and this package's own dedicated
// TRANSFORM*/TEXTURE/ENVIRONMENT/SHADOW opcodes share one
// implementation of each oracle lookup.
type vmContext struct {
	spaces  CoordinateSystems
	sampler TextureSampler
	sink    diagnostic.Sink
}

var _ builtins.Context = (*vmContext)(nil)

func (c *vmContext) Transform(space string, p [3]float32) [3]float32 {
	m, ok := c.matrix(space)
	if !ok {
		return p
	}
	return applyPoint(m, p)
}

func (c *vmContext) VTransform(space string, v [3]float32) [3]float32 {
	m, ok := c.matrix(space)
	if !ok {
		return v
	}
	return applyVector(m, v)
}

func (c *vmContext) NTransform(space string, n [3]float32) [3]float32 {
	m, ok := c.matrix(space)
	if !ok {
		return n
	}
	return applyNormal(m, n)
}

func (c *vmContext) matrix(space string) ([16]float32, bool) {
	var m [16]float32
	ok := false
	if c.spaces != nil {
		m, ok = c.spaces.Matrix(space)
	}
	if !ok {
		c.ReportError(string(diagnostic.UnknownCoordinateSystem), fmt.Sprintf("unknown coordinate system %q", space))
	}
	return m, ok
}

func (c *vmContext) Texture(name string, s, t float32) [3]float32 {
	if c.sampler == nil {
		return [3]float32{}
	}
	col, ok := c.sampler.Texture(name, s, t)
	if !ok {
		c.ReportError(string(diagnostic.TextureFetchFailed), fmt.Sprintf("texture fetch failed: %q", name))
	}
	return col
}

func (c *vmContext) Environment(name string, dir [3]float32) [3]float32 {
	if c.sampler == nil {
		return [3]float32{}
	}
	col, ok := c.sampler.Environment(name, dir)
	if !ok {
		c.ReportError(string(diagnostic.TextureFetchFailed), fmt.Sprintf("environment fetch failed: %q", name))
	}
	return col
}

func (c *vmContext) Shadow(name string, p [3]float32) float32 {
	if c.sampler == nil {
		return 0
	}
	v, ok := c.sampler.Shadow(name, p)
	if !ok {
		c.ReportError(string(diagnostic.TextureFetchFailed), fmt.Sprintf("shadow fetch failed: %q", name))
	}
	return v
}

func (c *vmContext) ReportError(code, message string) {
	if c.sink == nil {
		return
	}
	c.sink.Report(diagnostic.Diagnostic{Severity: diagnostic.Error, Code: diagnostic.Code(code), Message: message})
}
