// Prints the minimax losses for a fixed set of discriminator outputs.
// Expected values: discriminator loss 6.19637, generator loss -4.82408.
package main

import (
	"fmt"

	"github.com/saahiluppal/generative-networks/losses"
)

func main() {
	real := []float64{-5.0, 1.4, 12.5, 2.7}
	generated := []float64{10.0, 4.4, -5.5, 3.6}

	dLoss := losses.MinimaxDiscriminatorLoss(real, generated, 1, 1, losses.DefaultSmoothing)
	gLoss := losses.MinimaxGeneratorLoss(generated, 1, 0)

	fmt.Printf("discriminator loss: %.5f\n", dLoss)
	fmt.Printf("generator loss:     %.5f\n", gLoss)
}
