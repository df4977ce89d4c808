// Package nnet contains routines for constructing and training the
// generator and discriminator networks.
package nnet

import (
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/saahiluppal/generative-networks/num"
)

// Network type represents a multilayer neural network model built from an
// ordered list of layer configuration records.
type Network struct {
	Name    string
	Layers  []Layer
	inShape []int
}

// New function creates a new network with the given layers and initialises
// the weights from rng. inShape excludes the batch dimension.
func New(name string, inShape []int, rng *rand.Rand, layers ...ConfigLayer) *Network {
	n := &Network{Name: name, inShape: append([]int{}, inShape...)}
	shape := n.inShape
	for _, cfg := range layers {
		layer := cfg.Marshal().Unmarshal()
		layer.Init(rng, shape)
		n.Layers = append(n.Layers, layer)
		shape = layer.OutShape(shape)
	}
	return n
}

// InShape returns the input shape excluding the batch dimension.
func (n *Network) InShape() []int { return n.inShape }

// OutShape returns the output shape excluding the batch dimension.
func (n *Network) OutShape() []int {
	shape := n.inShape
	for _, layer := range n.Layers {
		shape = layer.OutShape(shape)
	}
	return shape
}

// Feed forward the input through each layer in turn. The train flag enables
// dropout and batch statistics collection.
func (n *Network) Fprop(input *num.Array, train bool) *num.Array {
	pred := input
	for _, layer := range n.Layers {
		pred = layer.Fprop(pred, train)
	}
	return pred
}

// Back propagate the gradient through the layers in reverse order,
// accumulating parameter gradients, and return the input gradient.
func (n *Network) Bprop(grad *num.Array) *num.Array {
	for i := len(n.Layers) - 1; i >= 0; i-- {
		grad = n.Layers[i].Bprop(grad)
	}
	return grad
}

// Params returns the parameters from each of the layers in order.
func (n *Network) Params() []*Param {
	var params []*Param
	for _, layer := range n.Layers {
		if l, ok := layer.(ParamLayer); ok {
			params = append(params, l.Params()...)
		}
	}
	return params
}

// StatsLayer is a layer carrying running statistics which are part of the
// network state but are not trained parameters.
type StatsLayer interface {
	RunningStats() (mean, variance *num.Array)
}

// State returns every array making up the persistent network state: the
// trained parameters plus any running statistics, in layer order.
func (n *Network) State() []*num.Array {
	var state []*num.Array
	for _, layer := range n.Layers {
		if l, ok := layer.(ParamLayer); ok {
			for _, p := range l.Params() {
				state = append(state, p.Val)
			}
		}
		if l, ok := layer.(StatsLayer); ok {
			mean, variance := l.RunningStats()
			state = append(state, mean, variance)
		}
	}
	return state
}

// ZeroGrads clears the accumulated parameter gradients.
func (n *Network) ZeroGrads() {
	for _, p := range n.Params() {
		p.Grad.Fill(0)
	}
}

// Print network description
func (n *Network) String() string {
	s := make([]string, len(n.Layers))
	shape := n.inShape
	for i, layer := range n.Layers {
		shape = layer.OutShape(shape)
		s[i] = fmt.Sprintf("%2d: %-40s => %v", i, layer.ToString(), shape)
	}
	return fmt.Sprintf("== %s ==\n%s", n.Name, strings.Join(s, "\n"))
}

// Set random number seed, or seed from the clock if seed <= 0
func SetSeed(seed int64) *rand.Rand {
	if seed <= 0 {
		seed = time.Now().UTC().UnixNano()
	}
	fmt.Println("random seed =", seed)
	return rand.New(rand.NewSource(seed))
}

// Exit in case of error
func CheckErr(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
