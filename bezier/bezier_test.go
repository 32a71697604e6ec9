package bezier

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/floats"
)

var quarticNodes = [5]r3.Vector{
	{X: 0, Y: 0, Z: 0},
	{X: 0.1, Y: 0.2, Z: 0.5},
	{X: 0.5, Y: 0.1, Z: 1.0},
	{X: 0.9, Y: -0.2, Z: 0.5},
	{X: 1.0, Y: 0, Z: 0},
}

func TestQuarticEndpoints(t *testing.T) {
	start := Quartic(&quarticNodes, 0)
	end := Quartic(&quarticNodes, 1)
	test.That(t, start.Sub(quarticNodes[0]).Norm(), test.ShouldAlmostEqual, 0, 1e-12)
	test.That(t, end.Sub(quarticNodes[4]).Norm(), test.ShouldAlmostEqual, 0, 1e-12)

	// Endpoint tangents depend only on the adjacent node pair.
	dStart := QuarticDerivative(&quarticNodes, 0)
	dEnd := QuarticDerivative(&quarticNodes, 1)
	test.That(t, dStart.Sub(quarticNodes[1].Sub(quarticNodes[0]).Mul(4)).Norm(), test.ShouldAlmostEqual, 0, 1e-12)
	test.That(t, dEnd.Sub(quarticNodes[4].Sub(quarticNodes[3]).Mul(4)).Norm(), test.ShouldAlmostEqual, 0, 1e-12)
}

func TestQuarticDerivativeMatchesFiniteDifference(t *testing.T) {
	const h = 1e-6
	samples := make([]float64, 9)
	floats.Span(samples, 0.05, 0.95)
	for _, tt := range samples {
		analytic := QuarticDerivative(&quarticNodes, tt)
		numeric := Quartic(&quarticNodes, tt+h).Sub(Quartic(&quarticNodes, tt-h)).Mul(1.0 / (2.0 * h))
		test.That(t, analytic.Sub(numeric).Norm(), test.ShouldAlmostEqual, 0, 1e-5)
	}
}

func TestQuarticSecondDerivativeMatchesFiniteDifference(t *testing.T) {
	const h = 1e-4
	samples := make([]float64, 9)
	floats.Span(samples, 0.05, 0.95)
	for _, tt := range samples {
		analytic := QuarticSecondDerivative(&quarticNodes, tt)
		numeric := QuarticDerivative(&quarticNodes, tt+h).Sub(QuarticDerivative(&quarticNodes, tt-h)).Mul(1.0 / (2.0 * h))
		test.That(t, analytic.Sub(numeric).Norm(), test.ShouldAlmostEqual, 0, 1e-5)
	}
}

func TestQuarticConstantVelocityNodes(t *testing.T) {
	// Evenly spaced collinear nodes must yield a constant derivative.
	nodes := [5]r3.Vector{}
	start := r3.Vector{X: 1, Y: 2, Z: 0}
	stride := r3.Vector{X: -0.4, Y: 0.2, Z: 0}
	for i := 0; i < 5; i++ {
		nodes[i] = start.Add(stride.Mul(float64(i) / 4.0))
	}
	samples := make([]float64, 11)
	floats.Span(samples, 0, 1)
	for _, tt := range samples {
		d := QuarticDerivative(&nodes, tt)
		test.That(t, d.Sub(stride).Norm(), test.ShouldAlmostEqual, 0, 1e-9)
	}
}

func TestCubic(t *testing.T) {
	nodes := [4]r3.Vector{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 1, Z: 0},
		{X: 2, Y: 1, Z: 0},
		{X: 3, Y: 0, Z: 0},
	}
	test.That(t, Cubic(&nodes, 0).Sub(nodes[0]).Norm(), test.ShouldAlmostEqual, 0, 1e-12)
	test.That(t, Cubic(&nodes, 1).Sub(nodes[3]).Norm(), test.ShouldAlmostEqual, 0, 1e-12)
	mid := Cubic(&nodes, 0.5)
	test.That(t, mid.X, test.ShouldAlmostEqual, 1.5, 1e-12)
	test.That(t, mid.Y, test.ShouldAlmostEqual, 0.75, 1e-12)
}

func TestCubicScalar(t *testing.T) {
	nodes := [4]float64{0, 0, 1, 1}
	test.That(t, CubicScalar(&nodes, 0), test.ShouldAlmostEqual, 0, 1e-12)
	test.That(t, CubicScalar(&nodes, 1), test.ShouldAlmostEqual, 1, 1e-12)
	test.That(t, CubicScalar(&nodes, 0.5), test.ShouldAlmostEqual, 0.5, 1e-12)
	// Zero slope at both ends gives smooth joint interpolation.
	test.That(t, CubicScalarDerivative(&nodes, 0), test.ShouldAlmostEqual, 0, 1e-12)
	test.That(t, CubicScalarDerivative(&nodes, 1), test.ShouldAlmostEqual, 0, 1e-12)
}
