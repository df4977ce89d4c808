package mnist

import (
	"encoding/binary"
	"math/rand"
	"os"
	"path"
	"reflect"
	"sort"
	"testing"

	"github.com/saahiluppal/generative-networks/num"
)

// write a small corpus in idx format
func writeCorpus(t *testing.T, dir string, n int) {
	t.Helper()
	f, err := os.Create(path.Join(dir, "train-images-idx3-ubyte"))
	if err != nil {
		t.Fatal(err)
	}
	head := imageHeader{Magic: imageMagic, Num: uint32(n), Height: Height, Width: Width}
	if err = binary.Write(f, binary.BigEndian, &head); err != nil {
		t.Fatal(err)
	}
	pixels := make([]uint8, Height*Width)
	for i := 0; i < n; i++ {
		for j := range pixels {
			pixels[j] = uint8((i*7 + j) % 256)
		}
		if _, err = f.Write(pixels); err != nil {
			t.Fatal(err)
		}
	}
	f.Close()

	f, err = os.Create(path.Join(dir, "train-labels-idx1-ubyte"))
	if err != nil {
		t.Fatal(err)
	}
	lhead := labelHeader{Magic: labelMagic, Num: uint32(n)}
	if err = binary.Write(f, binary.BigEndian, &lhead); err != nil {
		t.Fatal(err)
	}
	labels := make([]uint8, n)
	if _, err = f.Write(labels); err != nil {
		t.Fatal(err)
	}
	f.Close()
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeCorpus(t, dir, 10)
	data, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if data.Len != 10 {
		t.Error("corpus size: got", data.Len, "expect", 10)
	}
	if dims := data.Images.Dims(); !reflect.DeepEqual(dims, []int{10, Height, Width, Depth}) {
		t.Error("dims invalid: got", dims)
	}
	for _, v := range data.Images.Data {
		if v < -1 || v > 1 {
			t.Fatal("pixel outside [-1,1]: got", v)
		}
	}
	// pixel 0 of image 0 has raw value 0, pixel 255 has raw value 255
	if v := data.Images.Data[0]; v != -1 {
		t.Error("raw 0 should map to -1: got", v)
	}
	if v := data.Images.Data[255]; v != 1 {
		t.Error("raw 255 should map to 1: got", v)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("expected error for missing corpus")
	}
}

func TestDatasetBatches(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	data := &Data{Images: num.NewArray(10, Height, Width, Depth), Len: 10}
	dset := NewDataset(data, 4, rng)
	if dset.Batches != 3 {
		t.Fatal("batches: got", dset.Batches, "expect", 3)
	}
	sizes := []int{}
	for i := 0; i < dset.Batches; i++ {
		sizes = append(sizes, dset.Batch(i).Dims()[0])
	}
	if expect := []int{4, 4, 2}; !reflect.DeepEqual(sizes, expect) {
		t.Error("got", sizes, "expect", expect)
	}
}

func TestDatasetShuffle(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	data := &Data{Images: num.NewArray(100, Height, Width, Depth), Len: 100}
	for i := 0; i < 100; i++ {
		data.Images.Data[i*Height*Width] = float32(i)
	}
	dset := NewDataset(data, 100, rng)
	dset.Shuffle()
	batch := dset.Batch(0)
	first := make([]float32, 100)
	ordered := true
	for i := 0; i < 100; i++ {
		first[i] = batch.Data[i*Height*Width]
		if first[i] != float32(i) {
			ordered = false
		}
	}
	if ordered {
		t.Error("shuffle left samples in corpus order")
	}
	// every sample appears exactly once
	sort.Slice(first, func(i, j int) bool { return first[i] < first[j] })
	for i := 0; i < 100; i++ {
		if first[i] != float32(i) {
			t.Fatal("shuffle is not a permutation at index", i)
		}
	}
}
