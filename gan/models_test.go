package gan

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/saahiluppal/generative-networks/num"
)

func TestGeneratorShape(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	gen := Generator(100, rng)
	if shape := gen.OutShape(); !reflect.DeepEqual(shape, []int{28, 28, 1}) {
		t.Fatal("out shape invalid: got", shape)
	}
	noise := num.NewArray(2, 100)
	noise.Randn(rng, 1)
	out := gen.Fprop(noise, false)
	if dims := out.Dims(); !reflect.DeepEqual(dims, []int{2, 28, 28, 1}) {
		t.Fatal("output dims invalid: got", dims)
	}
	for _, v := range out.Data {
		if v < -1 || v > 1 {
			t.Fatal("pixel outside [-1,1]: got", v)
		}
	}
}

func TestGeneratorDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	gen := Generator(100, rng)
	noise := num.NewArray(2, 100)
	noise.Randn(rng, 1)
	first := gen.Fprop(noise, false).Copy()
	second := gen.Fprop(noise, false)
	if !reflect.DeepEqual(first.Data, second.Data) {
		t.Error("inference output differs between identical calls")
	}
	// a train mode pass may change statistics but never the output shape
	trained := gen.Fprop(noise, true)
	if !num.SameShape(first, trained) {
		t.Error("train mode changed output shape:", trained.Dims())
	}
}

func TestDiscriminatorShape(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	disc := Discriminator(rng)
	if shape := disc.OutShape(); !reflect.DeepEqual(shape, []int{1}) {
		t.Fatal("out shape invalid: got", shape)
	}
	images := num.NewArray(3, 28, 28, 1)
	images.Randn(rng, 1)
	out := disc.Fprop(images, false)
	if dims := out.Dims(); !reflect.DeepEqual(dims, []int{3, 1}) {
		t.Fatal("output dims invalid: got", dims)
	}
}
