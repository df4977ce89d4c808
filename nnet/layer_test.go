package nnet

import (
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/saahiluppal/generative-networks/num"
)

func newLayer(t *testing.T, cfg ConfigLayer, inShape []int) Layer {
	t.Helper()
	rng := rand.New(rand.NewSource(42))
	layer := cfg.Marshal().Unmarshal()
	return layer.Init(rng, inShape)
}

func TestDense(t *testing.T) {
	layer := newLayer(t, Dense{Nout: 2}, []int{2}).(*dense)
	copy(layer.w.Val.Data, []float32{1, 2, 3, 4})
	copy(layer.b.Val.Data, []float32{0.5, -0.5})

	in := num.NewArrayData([]float32{1, 1}, 1, 2)
	out := layer.Fprop(in, true)
	expect := []float32{4.5, 5.5}
	if !reflect.DeepEqual(out.Data, expect) {
		t.Error("fprop: got", out.Data, "expect", expect)
	}

	dsrc := layer.Bprop(num.NewArrayData([]float32{1, 1}, 1, 2))
	if expect := []float32{3, 7}; !reflect.DeepEqual(dsrc.Data, expect) {
		t.Error("bprop dsrc: got", dsrc.Data, "expect", expect)
	}
	if expect := []float32{1, 1, 1, 1}; !reflect.DeepEqual(layer.w.Grad.Data, expect) {
		t.Error("bprop dw: got", layer.w.Grad.Data, "expect", expect)
	}
	if expect := []float32{1, 1}; !reflect.DeepEqual(layer.b.Grad.Data, expect) {
		t.Error("bprop db: got", layer.b.Grad.Data, "expect", expect)
	}
}

func TestConvFprop(t *testing.T) {
	layer := newLayer(t, Conv{Nfeats: 1, Size: 2}, []int{3, 3, 1}).(*conv)
	layer.w.Val.Fill(1)
	in := num.NewArrayData([]float32{1, 2, 3, 4, 5, 6, 7, 8, 9}, 1, 3, 3, 1)
	out := layer.Fprop(in, true)
	if dims := out.Dims(); !reflect.DeepEqual(dims, []int{1, 2, 2, 1}) {
		t.Fatal("dims invalid: got", dims)
	}
	expect := []float32{12, 16, 24, 28}
	if !reflect.DeepEqual(out.Data, expect) {
		t.Error("got", out.Data, "expect", expect)
	}
}

func TestConvShapes(t *testing.T) {
	// discriminator stack: 28x28x1 down to a 1024 element vector
	shape := []int{28, 28, 1}
	for _, c := range []Conv{
		{Nfeats: 32, Size: 3, Stride: 1},
		{Nfeats: 64, Size: 3, Stride: 2},
		{Nfeats: 128, Size: 3, Stride: 2},
		{Nfeats: 256, Size: 3, Stride: 2},
	} {
		layer := c.Marshal().Unmarshal()
		shape = layer.OutShape(shape)
	}
	if expect := []int{2, 2, 256}; !reflect.DeepEqual(shape, expect) {
		t.Error("got", shape, "expect", expect)
	}
}

func TestConvTransposeShapes(t *testing.T) {
	// generator upsampling stack: 4x4 seed must grow to exactly 28x28
	shape := []int{4, 4, 128}
	for _, c := range []ConvTranspose{
		{Nfeats: 256, Size: 4, Stride: 1},
		{Nfeats: 128, Size: 5, Stride: 2, Pad: "same"},
		{Nfeats: 64, Size: 5, Stride: 2, Pad: "same"},
		{Nfeats: 1, Size: 1, Stride: 1},
	} {
		layer := c.Marshal().Unmarshal()
		shape = layer.OutShape(shape)
	}
	if expect := []int{28, 28, 1}; !reflect.DeepEqual(shape, expect) {
		t.Error("got", shape, "expect", expect)
	}
}

func TestConvTransposeFprop(t *testing.T) {
	layer := newLayer(t, ConvTranspose{Nfeats: 1, Size: 2, Stride: 2, Pad: "same"}, []int{2, 2, 1}).(*convTranspose)
	layer.w.Val.Fill(1)
	in := num.NewArrayData([]float32{1, 2, 3, 4}, 1, 2, 2, 1)
	out := layer.Fprop(in, true)
	if dims := out.Dims(); !reflect.DeepEqual(dims, []int{1, 4, 4, 1}) {
		t.Fatal("dims invalid: got", dims)
	}
	expect := []float32{
		1, 1, 2, 2,
		1, 1, 2, 2,
		3, 3, 4, 4,
		3, 3, 4, 4,
	}
	if !reflect.DeepEqual(out.Data, expect) {
		t.Error("got", out.Data, "expect", expect)
	}
}

func TestBatchNorm(t *testing.T) {
	layer := newLayer(t, BatchNorm{}, []int{1}).(*batchNorm)
	in := num.NewArrayData([]float32{1, 2, 3, 4}, 4, 1)
	out := layer.Fprop(in, true)
	expect := []float32{-1.3416, -0.4472, 0.4472, 1.3416}
	for i := range expect {
		if math.Abs(float64(out.Data[i]-expect[i])) > 1e-2 {
			t.Error("got", out.Data, "expect", expect)
			break
		}
	}
	mean, variance := layer.RunningStats()
	if math.Abs(float64(mean.Data[0])-0.025) > 1e-5 {
		t.Error("running mean: got", mean.Data[0], "expect", 0.025)
	}
	if math.Abs(float64(variance.Data[0])-(0.99+0.0125)) > 1e-5 {
		t.Error("running var: got", variance.Data[0], "expect", 0.99+0.0125)
	}
	// inference mode must use the running statistics
	out = layer.Fprop(in, false)
	meanAfter, _ := layer.RunningStats()
	if meanAfter.Data[0] != mean.Data[0] {
		t.Error("inference pass updated running stats")
	}
}

func TestDropout(t *testing.T) {
	layer := newLayer(t, Dropout{Rate: 0.3}, []int{100})
	in := num.NewArray(4, 100)
	in.Fill(1)
	out := layer.Fprop(in, false)
	if !reflect.DeepEqual(out.Data, in.Data) {
		t.Error("inference mode should be the identity")
	}
	out = layer.Fprop(in, true)
	zeros := 0
	for _, v := range out.Data {
		switch {
		case v == 0:
			zeros++
		case math.Abs(float64(v)-1/0.7) > 1e-6:
			t.Fatal("kept value not scaled by 1/(1-rate): got", v)
		}
	}
	if zeros == 0 || zeros == len(out.Data) {
		t.Error("drop count implausible: got", zeros, "of", len(out.Data))
	}
}

func TestFlatten(t *testing.T) {
	layer := newLayer(t, Flatten{}, []int{2, 2, 256})
	if shape := layer.OutShape([]int{2, 2, 256}); !reflect.DeepEqual(shape, []int{1024}) {
		t.Error("got", shape, "expect", []int{1024})
	}
	in := num.NewArray(3, 2, 2, 256)
	out := layer.Fprop(in, true)
	if dims := out.Dims(); !reflect.DeepEqual(dims, []int{3, 1024}) {
		t.Error("got", dims, "expect", []int{3, 1024})
	}
	grad := layer.Bprop(out)
	if dims := grad.Dims(); !reflect.DeepEqual(dims, []int{3, 2, 2, 256}) {
		t.Error("got", dims, "expect", []int{3, 2, 2, 256})
	}
}

func TestLayerConfigRoundTrip(t *testing.T) {
	for _, cfg := range []ConfigLayer{
		Dense{Nout: 1},
		Conv{Nfeats: 32, Size: 3, Stride: 2},
		ConvTranspose{Nfeats: 64, Size: 5, Stride: 2, Pad: "same"},
		BatchNorm{},
		LeakyRelu{},
		Activation{Atype: "tanh"},
		Dropout{Rate: 0.3},
		Reshape{Dims: []int{4, 4, 128}},
		Flatten{},
	} {
		lc := cfg.Marshal()
		if lc.Unmarshal() == nil {
			t.Error("unmarshal failed for", lc.Type)
		}
	}
}
