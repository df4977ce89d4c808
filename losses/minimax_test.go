package losses

import (
	"math"
	"testing"
)

var (
	realOutput      = []float64{-5.0, 1.4, 12.5, 2.7}
	generatedOutput = []float64{10.0, 4.4, -5.5, 3.6}
)

func TestDiscriminatorLoss(t *testing.T) {
	loss := MinimaxDiscriminatorLoss(realOutput, generatedOutput, 1, 1, DefaultSmoothing)
	expect := 6.19637
	if math.Abs(loss-expect) > 1e-3 {
		t.Error("got", loss, "expect", expect)
	}
}

func TestGeneratorLoss(t *testing.T) {
	loss := MinimaxGeneratorLoss(generatedOutput, 1, 0)
	expect := -4.82408
	if math.Abs(loss-expect) > 1e-3 {
		t.Error("got", loss, "expect", expect)
	}
}

func TestNoSmoothing(t *testing.T) {
	// with smoothing 0 and unit weights this is plain sigmoid cross entropy
	loss := MinimaxDiscriminatorLoss([]float64{0}, []float64{0}, 1, 1, 0)
	expect := 2 * math.Log(2)
	if math.Abs(loss-expect) > 1e-12 {
		t.Error("got", loss, "expect", expect)
	}
}

func TestStableVsNaive(t *testing.T) {
	naive := func(x, z float64) float64 {
		s := 1 / (1 + math.Exp(-x))
		return -z*math.Log(s) - (1-z)*math.Log(1-s)
	}
	for _, x := range []float64{-20, -5.5, -1, -0.01, 0, 0.3, 2.7, 10, 20} {
		for _, z := range []float64{0, 0.25, 0.875, 1} {
			got := WeightedSigmoidCrossEntropy(x, z, 1)
			expect := naive(x, z)
			if math.Abs(got-expect) > 1e-9 {
				t.Error("x =", x, "z =", z, "got", got, "expect", expect)
			}
		}
	}
}

func TestStableLargeLogits(t *testing.T) {
	for _, x := range []float64{-1e6, 1e6} {
		for _, z := range []float64{0, 1} {
			got := WeightedSigmoidCrossEntropy(x, z, 1)
			if math.IsNaN(got) || math.IsInf(got, 0) {
				t.Error("x =", x, "z =", z, "got", got)
			}
		}
	}
}

func TestPositiveWeighting(t *testing.T) {
	// the weight multiplies only the positive label term
	for _, x := range []float64{-3, -0.5, 0, 1.5, 8} {
		got := WeightedSigmoidCrossEntropy(x, 1, 4)
		expect := 4 * WeightedSigmoidCrossEntropy(x, 1, 1)
		if math.Abs(got-expect) > 1e-12 {
			t.Error("x =", x, "got", got, "expect", expect)
		}
		// a zero target must be unaffected by the weight
		got = WeightedSigmoidCrossEntropy(x, 0, 4)
		expect = WeightedSigmoidCrossEntropy(x, 0, 1)
		if math.Abs(got-expect) > 1e-12 {
			t.Error("x =", x, "got", got, "expect", expect)
		}
	}
}
