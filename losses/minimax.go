// Package losses provides the weighted, label-smoothed minimax GAN losses.
// Inputs are discriminator logits; no validation is applied to weights or
// smoothing values.
package losses

import "math"

// DefaultSmoothing is the positive label smoothing applied by the
// discriminator loss when training with one-sided label smoothing, as per
// `Improved Techniques for Training GANs` (https://arxiv.org/abs/1606.03498).
const DefaultSmoothing = 0.25

// WeightedSigmoidCrossEntropy computes sigmoid cross entropy of logit x
// against target z where the positive term is scaled by posWeight:
//
//	-z*posWeight*log(sigmoid(x)) - (1-z)*log(1-sigmoid(x))
//
// evaluated in the overflow-safe form
// (1-z)*x + (1+(posWeight-1)*z) * (log1p(exp(-|x|)) + max(-x, 0)).
func WeightedSigmoidCrossEntropy(x, z, posWeight float64) float64 {
	l := 1 + (posWeight-1)*z
	return (1-z)*x + l*(math.Log1p(math.Exp(-math.Abs(x)))+math.Max(-x, 0))
}

// MinimaxDiscriminatorLoss is the minimax discriminator objective
//
//	L = mean(realWeight * -log(sigmoid(D(x))))
//	  + mean(generatedWeight * -log(1 - sigmoid(D(G(z)))))
//
// where the positive target is smoothed to 1*(1-smoothing) + 0.5*smoothing.
func MinimaxDiscriminatorLoss(real, generated []float64, realWeight, generatedWeight, smoothing float64) float64 {
	target := 1*(1-smoothing) + 0.5*smoothing
	lossReal := 0.0
	for _, x := range real {
		lossReal += WeightedSigmoidCrossEntropy(x, target, realWeight)
	}
	lossGen := 0.0
	for _, x := range generated {
		lossGen += WeightedSigmoidCrossEntropy(x, 0, generatedWeight)
	}
	return lossReal/float64(len(real)) + lossGen/float64(len(generated))
}

// MinimaxGeneratorLoss negates the discriminator loss evaluated with a ones
// vector in the real logits slot and the generated logits in the generated
// slot, with the weight reused for both. This mirrors the reference
// formulation exactly, including the constant real term, even though it does
// not reduce to the usual -log(sigmoid(D(G(z)))) objective.
func MinimaxGeneratorLoss(generated []float64, weight, smoothing float64) float64 {
	ones := make([]float64, len(generated))
	for i := range ones {
		ones[i] = 1
	}
	return -MinimaxDiscriminatorLoss(ones, generated, weight, weight, smoothing)
}
