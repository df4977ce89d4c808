// Package mnist loads the handwritten digit corpus from idx format files
// and serves it as shuffled batches of normalised images.
package mnist

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/pkg/errors"
	"github.com/saahiluppal/generative-networks/num"
)

// Image dimensions of the corpus.
const (
	Height = 28
	Width  = 28
	Depth  = 1
)

const (
	imageMagic = 2051
	labelMagic = 2049
)

type labelHeader struct{ Magic, Num uint32 }

type imageHeader struct{ Magic, Num, Height, Width uint32 }

// Data holds the full training corpus with pixel intensities rescaled
// from [0,255] to [-1,1].
type Data struct {
	Images *num.Array
	Len    int
}

// Load reads the training images and labels from dir. Labels are only read
// to validate the corpus and are then discarded.
func Load(dir string) (*Data, error) {
	labels, err := readLabels(path.Join(dir, "train-labels-idx1-ubyte"))
	if err != nil {
		return nil, err
	}
	images, count, err := readImages(path.Join(dir, "train-images-idx3-ubyte"))
	if err != nil {
		return nil, err
	}
	if count != len(labels) {
		return nil, errors.Errorf("mnist: %d images but %d labels", count, len(labels))
	}
	return &Data{Images: images, Len: count}, nil
}

func readImages(name string) (*num.Array, int, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, 0, errors.Wrap(err, "mnist: open images")
	}
	defer f.Close()
	var head imageHeader
	if err = binary.Read(f, binary.BigEndian, &head); err != nil {
		return nil, 0, errors.Wrap(err, "mnist: read image header")
	}
	if head.Magic != imageMagic {
		return nil, 0, errors.Errorf("mnist: bad magic %d in %s", head.Magic, name)
	}
	n, h, w := int(head.Num), int(head.Height), int(head.Width)
	if h != Height || w != Width {
		return nil, 0, errors.Errorf("mnist: expect %dx%d images, got %dx%d", Height, Width, h, w)
	}
	fmt.Printf("read %d %dx%d images from %s\n", n, h, w, name)
	images := num.NewArray(n, h, w, Depth)
	pixels := make([]uint8, h*w)
	for i := 0; i < n; i++ {
		if _, err = io.ReadFull(f, pixels); err != nil {
			return nil, 0, errors.Wrap(err, "mnist: read image data")
		}
		for j, pix := range pixels {
			images.Data[i*h*w+j] = (float32(pix) - 127.5) / 127.5
		}
	}
	return images, n, nil
}

func readLabels(name string) ([]int32, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "mnist: open labels")
	}
	defer f.Close()
	var head labelHeader
	if err = binary.Read(f, binary.BigEndian, &head); err != nil {
		return nil, errors.Wrap(err, "mnist: read label header")
	}
	if head.Magic != labelMagic {
		return nil, errors.Errorf("mnist: bad magic %d in %s", head.Magic, name)
	}
	fmt.Printf("read %d labels from %s\n", head.Num, name)
	bytes := make([]byte, head.Num)
	if _, err = io.ReadFull(f, bytes); err != nil {
		return nil, errors.Wrap(err, "mnist: read label data")
	}
	labels := make([]int32, head.Num)
	for i, label := range bytes {
		labels[i] = int32(label)
	}
	return labels, nil
}
