// Package gan drives adversarial training of the generator and
// discriminator pair, exporting periodic checkpoints and sample grids.
package gan

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/saahiluppal/generative-networks/mnist"
	"github.com/saahiluppal/generative-networks/nnet"
	"github.com/saahiluppal/generative-networks/num"
)

// Training statistics for one epoch. GenLoss is the loss from the most
// recent generator step; GenValid is false until the first one has run.
type Stats struct {
	Epoch    int
	GenLoss  float64
	GenValid bool
	DiscLoss float64
	Elapsed  time.Duration
}

// Tester interface observes the stats after each epoch, returns true if
// training should stop early.
type Tester interface {
	Test(g *GAN, s Stats) bool
}

// GAN holds the generator and discriminator with their optimizers. Each
// network is updated only by its own optimizer: a discriminator step holds
// the generator frozen and vice versa.
type GAN struct {
	Conf    Config
	Gen     *nnet.Network
	Disc    *nnet.Network
	GenOpt  *nnet.Adam
	DiscOpt *nnet.Adam
	rng     *rand.Rand
	ckpt    *Checkpointer
}

// New creates the networks and their optimizer state from the config.
func New(conf Config, rng *rand.Rand) *GAN {
	g := &GAN{
		Conf: conf,
		Gen:  Generator(conf.NoiseDim, rng),
		Disc: Discriminator(rng),
		rng:  rng,
		ckpt: &Checkpointer{Dir: conf.CheckpointDir, MaxKeep: conf.MaxCheckpoints},
	}
	g.GenOpt = nnet.NewAdam(g.Gen.Params(), conf.Eta)
	g.DiscOpt = nnet.NewAdam(g.Disc.Params(), conf.Eta)
	return g
}

// Noise returns a fresh batch of standard normal noise vectors.
func (g *GAN) Noise(n int) *num.Array {
	noise := num.NewArray(n, g.Conf.NoiseDim)
	noise.Randn(g.rng, 1)
	return noise
}

// TrainDiscriminator performs one discriminator update on a batch of real
// images versus a freshly generated fake batch, and returns the loss.
// Generator parameters are left untouched.
func (g *GAN) TrainDiscriminator(real *num.Array) float64 {
	n := real.Dims()[0]
	fake := g.Gen.Fprop(g.Noise(n), false)

	g.Disc.ZeroGrads()
	realLogits := g.Disc.Fprop(real, true)
	lossReal, dReal := nnet.SigmoidLoss(realLogits, 1)
	g.Disc.Bprop(dReal)

	fakeLogits := g.Disc.Fprop(fake, true)
	lossFake, dFake := nnet.SigmoidLoss(fakeLogits, 0)
	g.Disc.Bprop(dFake)

	g.DiscOpt.Step()
	return lossReal + lossFake
}

// TrainGenerator performs one generator update: generate fakes in train
// mode, score them with the frozen discriminator and back propagate through
// it into the generator. Discriminator parameters are left untouched.
func (g *GAN) TrainGenerator() float64 {
	g.Gen.ZeroGrads()
	fake := g.Gen.Fprop(g.Noise(g.Conf.BatchSize), true)
	logits := g.Disc.Fprop(fake, false)
	loss, dLogits := nnet.GeneratorLoss(logits)
	dImages := g.Disc.Bprop(dLogits)
	g.Gen.Bprop(dImages)
	g.GenOpt.Step()
	return loss
}

// Train runs the full adversarial loop: every batch takes a discriminator
// step and every K-th batch a generator step. Sample grids and checkpoints
// are exported every SampleEvery epochs. Any error aborts the run.
func (g *GAN) Train(dset *mnist.Dataset, test Tester) error {
	for _, dir := range []string{g.Conf.ImageDir, g.Conf.CheckpointDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(err, "create output dir")
		}
	}
	s := Stats{}
	for epoch := 1; epoch <= g.Conf.Epochs; epoch++ {
		start := time.Now()
		dset.Shuffle()
		for batch := 0; batch < dset.Batches; batch++ {
			s.DiscLoss = g.TrainDiscriminator(dset.Batch(batch))
			if batch%g.Conf.K == 0 {
				s.GenLoss = g.TrainGenerator()
				s.GenValid = true
			}
		}
		s.Epoch = epoch
		s.Elapsed = time.Since(start)
		if test.Test(g, s) {
			break
		}
		if epoch%g.Conf.SampleEvery == 0 {
			if err := g.Export(epoch); err != nil {
				return err
			}
		}
	}
	return nil
}

// Export writes the sample image grid and a rotated checkpoint for epoch.
func (g *GAN) Export(epoch int) error {
	if err := SaveGrid(g.Gen, g.rng, g.Conf.ImageDir, epoch); err != nil {
		return err
	}
	if err := g.ckpt.Save(epoch, g.Gen, g.Disc); err != nil {
		return err
	}
	fmt.Println("saved checkpoint and sample grid for epoch", epoch)
	return nil
}

// Restore loads the most recent checkpoint into both networks and returns
// its epoch number, or 0 if there is none.
func (g *GAN) Restore() (int, error) {
	return g.ckpt.LoadLatest(g.Gen, g.Disc)
}

// Tester which logs one line per epoch to stdout.
type testLogger struct{}

func NewTestLogger() Tester {
	return testLogger{}
}

func (t testLogger) Test(g *GAN, s Stats) bool {
	gstr := "    -  "
	if s.GenValid {
		gstr = fmt.Sprintf("%7.4f", s.GenLoss)
	}
	fmt.Printf("epoch %4d:  g loss =%s  d loss =%7.4f  time =%s\n",
		s.Epoch, gstr, s.DiscLoss, s.Elapsed.Round(time.Millisecond))
	return false
}
