package vm

import "github.com/chewxy/math32"

// applyPoint applies m as a full affine transform, row-major with
// m[3], m[7], m[11] as the translation column.
func applyPoint(m [16]float32, p [3]float32) [3]float32 {
	return [3]float32{
		m[0]*p[0] + m[1]*p[1] + m[2]*p[2] + m[3],
		m[4]*p[0] + m[5]*p[1] + m[6]*p[2] + m[7],
		m[8]*p[0] + m[9]*p[1] + m[10]*p[2] + m[11],
	}
}

// applyVector applies only m's linear (upper-left 3x3) part, dropping
// translation — a vector has direction but no position.
func applyVector(m [16]float32, v [3]float32) [3]float32 {
	return [3]float32{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2],
		m[4]*v[0] + m[5]*v[1] + m[6]*v[2],
		m[8]*v[0] + m[9]*v[1] + m[10]*v[2],
	}
}

// applyNormal applies the inverse-transpose of m's linear part, the
// standard rule that keeps a normal perpendicular to its surface
// under non-uniform scale.
func applyNormal(m [16]float32, n [3]float32) [3]float32 {
	inv := inverseTranspose3(m)
	return [3]float32{
		inv[0]*n[0] + inv[1]*n[1] + inv[2]*n[2],
		inv[3]*n[0] + inv[4]*n[1] + inv[5]*n[2],
		inv[6]*n[0] + inv[7]*n[1] + inv[8]*n[2],
	}
}

// inverseTranspose3 returns the inverse-transpose of m's upper-left
// 3x3 block, row-major in a 9-float array. The inverse-transpose of a
// matrix is its cofactor matrix scaled by 1/det, so no separate
// transpose step is needed.
func inverseTranspose3(m [16]float32) [9]float32 {
	a, b, c := m[0], m[1], m[2]
	d, e, f := m[4], m[5], m[6]
	g, h, i := m[8], m[9], m[10]

	det := a*(e*i-f*h) - b*(d*i-f*g) + c*(d*h-e*g)
	if math32.Abs(det) < 1e-12 {
		return [9]float32{1, 0, 0, 0, 1, 0, 0, 0, 1}
	}
	invDet := 1 / det

	return [9]float32{
		(e*i - f*h) * invDet, (f*g - d*i) * invDet, (d*h - e*g) * invDet,
		(c*h - b*i) * invDet, (a*i - c*g) * invDet, (b*g - a*h) * invDet,
		(b*f - c*e) * invDet, (c*d - a*f) * invDet, (a*e - b*d) * invDet,
	}
}
