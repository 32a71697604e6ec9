// Package bezier evaluates the low order Bézier curves used to generate leg
// tip trajectories and joint interpolation profiles.
package bezier

import "github.com/golang/geo/r3"

// Quartic returns the point at parameter t on a quartic Bézier curve defined
// by five control nodes. t is expected to lie in [0,1] but is not clamped;
// trajectory generation deliberately evaluates slightly past the end of a
// curve when a swing period quantizes to an odd tick count.
func Quartic(nodes *[5]r3.Vector, t float64) r3.Vector {
	s := 1.0 - t
	p := nodes[0].Mul(s * s * s * s)
	p = p.Add(nodes[1].Mul(4.0 * s * s * s * t))
	p = p.Add(nodes[2].Mul(6.0 * s * s * t * t))
	p = p.Add(nodes[3].Mul(4.0 * s * t * t * t))
	return p.Add(nodes[4].Mul(t * t * t * t))
}

// QuarticDerivative returns the first derivative with respect to t of a
// quartic Bézier curve at parameter t. The derivative gives instantaneous tip
// velocity when scaled by the curve's per tick parameter increment.
func QuarticDerivative(nodes *[5]r3.Vector, t float64) r3.Vector {
	s := 1.0 - t
	d := nodes[1].Sub(nodes[0]).Mul(4.0 * s * s * s)
	d = d.Add(nodes[2].Sub(nodes[1]).Mul(12.0 * s * s * t))
	d = d.Add(nodes[3].Sub(nodes[2]).Mul(12.0 * s * t * t))
	return d.Add(nodes[4].Sub(nodes[3]).Mul(4.0 * t * t * t))
}

// QuarticSecondDerivative returns the second derivative with respect to t of
// a quartic Bézier curve at parameter t.
func QuarticSecondDerivative(nodes *[5]r3.Vector, t float64) r3.Vector {
	s := 1.0 - t
	a := nodes[2].Sub(nodes[1].Mul(2)).Add(nodes[0]).Mul(12.0 * s * s)
	a = a.Add(nodes[3].Sub(nodes[2].Mul(2)).Add(nodes[1]).Mul(24.0 * s * t))
	return a.Add(nodes[4].Sub(nodes[3].Mul(2)).Add(nodes[2]).Mul(12.0 * t * t))
}

// Cubic returns the point at parameter t on a cubic Bézier curve defined by
// four control nodes.
func Cubic(nodes *[4]r3.Vector, t float64) r3.Vector {
	s := 1.0 - t
	p := nodes[0].Mul(s * s * s)
	p = p.Add(nodes[1].Mul(3.0 * s * s * t))
	p = p.Add(nodes[2].Mul(3.0 * s * t * t))
	return p.Add(nodes[3].Mul(t * t * t))
}

// CubicScalar evaluates a cubic Bézier curve over scalar control nodes. Used
// for point to point joint position interpolation.
func CubicScalar(nodes *[4]float64, t float64) float64 {
	s := 1.0 - t
	return nodes[0]*s*s*s + 3.0*nodes[1]*s*s*t + 3.0*nodes[2]*s*t*t + nodes[3]*t*t*t
}

// CubicScalarDerivative returns the first derivative with respect to t of a
// scalar cubic Bézier curve at parameter t.
func CubicScalarDerivative(nodes *[4]float64, t float64) float64 {
	s := 1.0 - t
	return 3.0*(nodes[1]-nodes[0])*s*s + 6.0*(nodes[2]-nodes[1])*s*t + 3.0*(nodes[3]-nodes[2])*t*t
}
