package gan

import (
	"math/rand"
	"testing"

	"github.com/saahiluppal/generative-networks/nnet"
	"github.com/saahiluppal/generative-networks/num"
)

func testConfig() Config {
	conf := DefaultConfig()
	conf.BatchSize = 2
	return conf
}

func snapshotParams(net *nnet.Network) [][]float32 {
	var data [][]float32
	for _, p := range net.Params() {
		buf := make([]float32, p.Val.Size())
		copy(buf, p.Val.Data)
		data = append(data, buf)
	}
	return data
}

func paramsEqual(net *nnet.Network, snap [][]float32) bool {
	for i, p := range net.Params() {
		for j, v := range p.Val.Data {
			if v != snap[i][j] {
				return false
			}
		}
	}
	return true
}

func TestDiscriminatorStepIsolation(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	g := New(testConfig(), rng)
	real := num.NewArray(2, 28, 28, 1)
	real.Randn(rng, 0.5)

	genBefore := snapshotParams(g.Gen)
	discBefore := snapshotParams(g.Disc)
	g.TrainDiscriminator(real)
	if !paramsEqual(g.Gen, genBefore) {
		t.Error("discriminator step mutated generator parameters")
	}
	if paramsEqual(g.Disc, discBefore) {
		t.Error("discriminator step left discriminator parameters unchanged")
	}
}

func TestGeneratorStepIsolation(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	g := New(testConfig(), rng)

	genBefore := snapshotParams(g.Gen)
	discBefore := snapshotParams(g.Disc)
	g.TrainGenerator()
	if !paramsEqual(g.Disc, discBefore) {
		t.Error("generator step mutated discriminator parameters")
	}
	if paramsEqual(g.Gen, genBefore) {
		t.Error("generator step left generator parameters unchanged")
	}
}

func TestOptimizerState(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	g := New(testConfig(), rng)
	real := num.NewArray(2, 28, 28, 1)
	real.Randn(rng, 0.5)
	g.TrainDiscriminator(real)
	g.TrainDiscriminator(real)
	g.TrainGenerator()
	if steps := g.DiscOpt.Steps(); steps != 2 {
		t.Error("discriminator steps: got", steps, "expect", 2)
	}
	if steps := g.GenOpt.Steps(); steps != 1 {
		t.Error("generator steps: got", steps, "expect", 1)
	}
}
