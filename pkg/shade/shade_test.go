package shade

import "testing"

func TestCompileReturnsOneShaderPerDefinition(t *testing.T) {
	result := Compile(`surface matte(float Kd = 1;) { Ci = Kd; }`, DefaultErrorPolicy())
	if result.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", result.Diagnostics)
	}
	if len(result.Shaders) != 1 {
		t.Fatalf("expected exactly one shader, got %d", len(result.Shaders))
	}
	sh := result.Shaders[0]
	if sh.Name() != "matte" || sh.Kind() != "surface" {
		t.Fatalf("expected matte/surface, got %s/%s", sh.Name(), sh.Kind())
	}
}

func TestCompileReportsSyntaxErrorsWithNoShaders(t *testing.T) {
	result := Compile(`surface matte( { Ci = 1; }`, DefaultErrorPolicy())
	if !result.HasErrors() {
		t.Fatalf("expected a syntax error to be reported")
	}
	if len(result.Shaders) != 0 {
		t.Fatalf("expected no shaders on a failed parse, got %d", len(result.Shaders))
	}
}

func TestShadeWritesCiFromOverriddenParameter(t *testing.T) {
	result := Compile(`surface matte(float Kd = 1;) { Ci = Kd; }`, DefaultErrorPolicy())
	sh := result.Shaders[0]
	if err := sh.Parameter("Kd", float32(0.5)); err != nil {
		t.Fatalf("unexpected error setting Kd: %v", err)
	}

	grid := NewGrid(1, 1)
	res := sh.Shade(grid, Environment{})
	if !res.OK {
		t.Fatalf("unexpected shading diagnostics: %v", res.Diagnostics)
	}
	ci := grid.Vec3("Ci")
	if ci[0][0] != 0.5 {
		t.Fatalf("expected Ci.r == 0.5, got %v", ci[0])
	}
}

func TestParameterRejectsUnknownName(t *testing.T) {
	result := Compile(`surface matte(float Kd = 1;) { Ci = Kd; }`, DefaultErrorPolicy())
	sh := result.Shaders[0]
	if err := sh.Parameter("NoSuchParam", float32(1)); err == nil {
		t.Fatalf("expected an error for an unknown parameter name")
	}
}

func TestShadeReportsUnknownCoordinateSystem(t *testing.T) {
	result := Compile(`surface s() {
		point p = P;
		p = point "nosuch" p;
		Ci = p;
	}`, DefaultErrorPolicy())
	sh := result.Shaders[0]

	grid := NewGrid(1, 1)
	grid.Populate()
	res := sh.Shade(grid, Environment{})
	if res.OK {
		t.Fatalf("expected an unknown-coordinate-system diagnostic")
	}
	found := false
	for _, d := range res.Diagnostics {
		if d.Code == "UNKNOWN_COORDINATE_SYSTEM" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected UNKNOWN_COORDINATE_SYSTEM, got %v", res.Diagnostics)
	}
}
