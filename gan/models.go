package gan

import (
	"math/rand"

	"github.com/saahiluppal/generative-networks/mnist"
	"github.com/saahiluppal/generative-networks/nnet"
)

// Generator builds the upsampling network mapping a noise vector to a
// 28x28x1 image with pixel values in [-1,1]. The dense projection seeds a
// 4x4x128 volume which three transposed convolutions grow to 7x7, 14x14 and
// finally 28x28 before the 1x1 projection to a single tanh channel.
func Generator(noiseDim int, rng *rand.Rand) *nnet.Network {
	return nnet.New("generator", []int{noiseDim}, rng,
		nnet.Dense{Nout: 4 * 4 * 128},
		nnet.BatchNorm{},
		nnet.LeakyRelu{},
		nnet.Reshape{Dims: []int{4, 4, 128}},
		nnet.ConvTranspose{Nfeats: 256, Size: 4, Stride: 1},
		nnet.BatchNorm{},
		nnet.LeakyRelu{},
		nnet.ConvTranspose{Nfeats: 128, Size: 5, Stride: 2, Pad: "same"},
		nnet.BatchNorm{},
		nnet.LeakyRelu{},
		nnet.ConvTranspose{Nfeats: 64, Size: 5, Stride: 2, Pad: "same"},
		nnet.BatchNorm{},
		nnet.LeakyRelu{},
		nnet.ConvTranspose{Nfeats: 1, Size: 1, Stride: 1},
		nnet.Activation{Atype: "tanh"},
	)
}

// Discriminator builds the network mapping a 28x28x1 image to a single
// unbounded real/fake logit. No final activation: the losses take logits.
func Discriminator(rng *rand.Rand) *nnet.Network {
	return nnet.New("discriminator", []int{mnist.Height, mnist.Width, mnist.Depth}, rng,
		nnet.Conv{Nfeats: 32, Size: 3},
		nnet.LeakyRelu{},
		nnet.Conv{Nfeats: 64, Size: 3, Stride: 2},
		nnet.LeakyRelu{},
		nnet.Dropout{Rate: 0.3},
		nnet.Conv{Nfeats: 128, Size: 3, Stride: 2},
		nnet.LeakyRelu{},
		nnet.Conv{Nfeats: 256, Size: 3, Stride: 2},
		nnet.LeakyRelu{},
		nnet.Flatten{},
		nnet.Dense{Nout: 1},
	)
}
