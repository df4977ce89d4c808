package gan

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"os"
	"path"

	"github.com/pkg/errors"
	"github.com/saahiluppal/generative-networks/nnet"
	"github.com/saahiluppal/generative-networks/num"
)

// Sample grid layout: 2 rows of 5 generated digits.
const (
	gridRows = 2
	gridCols = 5
	gridPad  = 2
)

// SaveGrid draws a fresh noise batch, generates images in inference mode,
// rescales them from [-1,1] to [0,1] and writes them as a single grayscale
// PNG named {epoch}.png under dir.
func SaveGrid(gen *nnet.Network, rng *rand.Rand, dir string, epoch int) error {
	noise := num.NewArray(gridRows*gridCols, gen.InShape()[0])
	noise.Randn(rng, 1)
	images := gen.Fprop(noise, false)
	dims := images.Dims()
	h, w := dims[1], dims[2]

	grid := image.NewGray(image.Rect(0, 0, gridCols*(w+gridPad)-gridPad, gridRows*(h+gridPad)-gridPad))
	for i := 0; i < gridRows*gridCols; i++ {
		x0 := (i % gridCols) * (w + gridPad)
		y0 := (i / gridCols) * (h + gridPad)
		pix := images.Data[i*h*w : (i+1)*h*w]
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				val := 0.5*pix[y*w+x] + 0.5
				grid.SetGray(x0+x, y0+y, grayPixel(val))
			}
		}
	}

	name := path.Join(dir, fmt.Sprintf("%d.png", epoch))
	f, err := os.Create(name)
	if err != nil {
		return errors.Wrap(err, "save sample grid")
	}
	defer f.Close()
	if err = png.Encode(f, grid); err != nil {
		return errors.Wrap(err, "save sample grid")
	}
	return nil
}

func grayPixel(val float32) color.Gray {
	if val < 0 {
		val = 0
	}
	if val > 1 {
		val = 1
	}
	return color.Gray{Y: uint8(val * 255)}
}
