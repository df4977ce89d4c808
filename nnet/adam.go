package nnet

import (
	"math"

	"github.com/saahiluppal/generative-networks/num"
)

// Adam optimizer with adaptive first and second moment estimates per
// parameter. State spans the whole training run and is never reset.
type Adam struct {
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64
	params       []*Param
	m, v         []*num.Array
	step         int
}

// NewAdam creates an optimizer owning the given parameter set.
func NewAdam(params []*Param, learningRate float64) *Adam {
	o := &Adam{
		LearningRate: learningRate,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      1e-7,
		params:       params,
	}
	for _, p := range params {
		o.m = append(o.m, num.NewArray(p.Val.Dims()...))
		o.v = append(o.v, num.NewArray(p.Val.Dims()...))
	}
	return o
}

// Step applies one update using the accumulated gradients, then clears them.
func (o *Adam) Step() {
	o.step++
	c1 := 1 - math.Pow(o.Beta1, float64(o.step))
	c2 := 1 - math.Pow(o.Beta2, float64(o.step))
	b1, b2 := float32(o.Beta1), float32(o.Beta2)
	for i, p := range o.params {
		m, v := o.m[i], o.v[i]
		for j, g := range p.Grad.Data {
			m.Data[j] = b1*m.Data[j] + (1-b1)*g
			v.Data[j] = b2*v.Data[j] + (1-b2)*g*g
			mHat := float64(m.Data[j]) / c1
			vHat := float64(v.Data[j]) / c2
			p.Val.Data[j] -= float32(o.LearningRate * mHat / (math.Sqrt(vHat) + o.Epsilon))
		}
		p.Grad.Fill(0)
	}
}

// Steps returns the number of updates applied so far.
func (o *Adam) Steps() int { return o.step }
