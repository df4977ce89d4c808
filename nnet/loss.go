package nnet

import (
	"math"

	"github.com/saahiluppal/generative-networks/num"
)

// SigmoidCrossEntropy computes cross entropy between the target z and
// sigmoid(x) using the log-sum-exp stable form which stays finite for
// arbitrarily large |x|.
func SigmoidCrossEntropy(x, z float64) float64 {
	return math.Max(x, 0) - x*z + math.Log1p(math.Exp(-math.Abs(x)))
}

// Sigmoid activation value.
func Sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// DiscriminatorLoss is the plain GAN objective: cross entropy of the real
// logits against target 1 plus cross entropy of the fake logits against
// target 0, each averaged over the batch. It also returns the mean-reduced
// gradients with respect to each set of logits.
func DiscriminatorLoss(real, fake *num.Array) (loss float64, dReal, dFake *num.Array) {
	lossReal, dReal := SigmoidLoss(real, 1)
	lossFake, dFake := SigmoidLoss(fake, 0)
	return lossReal + lossFake, dReal, dFake
}

// GeneratorLoss is the plain GAN generator objective: cross entropy of the
// fake logits against target 1, averaged over the batch.
func GeneratorLoss(fake *num.Array) (loss float64, dFake *num.Array) {
	return SigmoidLoss(fake, 1)
}

// SigmoidLoss returns the batch mean sigmoid cross entropy of the logits
// against a constant target along with the gradient with respect to the
// logits, reduced by the same mean.
func SigmoidLoss(logits *num.Array, target float64) (float64, *num.Array) {
	n := float64(logits.Size())
	grad := num.NewArray(logits.Dims()...)
	loss := 0.0
	for i, v := range logits.Data {
		x := float64(v)
		loss += SigmoidCrossEntropy(x, target)
		grad.Data[i] = float32((Sigmoid(x) - target) / n)
	}
	return loss / n, grad
}
