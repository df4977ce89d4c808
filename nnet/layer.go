package nnet

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"

	"github.com/saahiluppal/generative-networks/num"
)

// Layer interface type represents one stage of a network.
// Shapes exclude the leading batch dimension which is set per call.
type Layer interface {
	Init(rng *rand.Rand, inShape []int) Layer
	OutShape(inShape []int) []int
	Fprop(in *num.Array, train bool) *num.Array
	Bprop(grad *num.Array) *num.Array
	ToString() string
}

// ParamLayer is a layer with learned parameters.
type ParamLayer interface {
	Layer
	Params() []*Param
}

// Param holds one parameter array and its accumulated gradient.
type Param struct {
	Name string
	Val  *num.Array
	Grad *num.Array
}

func newParam(name string, dims ...int) *Param {
	return &Param{Name: name, Val: num.NewArray(dims...), Grad: num.NewArray(dims...)}
}

// Layer configuration details
type LayerConfig struct {
	Type string
	Data json.RawMessage
}

type ConfigLayer interface {
	Marshal() LayerConfig
}

// Unmarshal JSON data and construct new layer
func (l LayerConfig) Unmarshal() Layer {
	switch l.Type {
	case "dense":
		cfg := new(Dense)
		return cfg.unmarshal(l.Data)
	case "conv":
		cfg := new(Conv)
		return cfg.unmarshal(l.Data)
	case "convTranspose":
		cfg := new(ConvTranspose)
		return cfg.unmarshal(l.Data)
	case "batchNorm":
		cfg := new(BatchNorm)
		return cfg.unmarshal(l.Data)
	case "leakyRelu":
		cfg := new(LeakyRelu)
		return cfg.unmarshal(l.Data)
	case "activation":
		cfg := new(Activation)
		return cfg.unmarshal(l.Data)
	case "dropout":
		cfg := new(Dropout)
		return cfg.unmarshal(l.Data)
	case "reshape":
		cfg := new(Reshape)
		return cfg.unmarshal(l.Data)
	case "flatten":
		return &flatten{}
	default:
		panic("invalid layer type: " + l.Type)
	}
}

func (l LayerConfig) String() string {
	return l.Unmarshal().ToString()
}

// Dense fully connected layer, implements ParamLayer interface.
type Dense struct {
	Nout int
}

func (c Dense) Marshal() LayerConfig {
	return LayerConfig{Type: "dense", Data: marshal(c)}
}

func (c Dense) ToString() string {
	return fmt.Sprintf("dense %+v", c)
}

func (c *Dense) unmarshal(data json.RawMessage) Layer {
	unmarshal(data, c)
	return &dense{Dense: *c}
}

// Convolutional layer with leading channel count and square kernel.
// Pad is either "valid" (the default) or "same".
type Conv struct {
	Nfeats, Size, Stride int
	Pad                  string
}

func (c Conv) Marshal() LayerConfig {
	if c.Stride == 0 {
		c.Stride = 1
	}
	if c.Pad == "" {
		c.Pad = "valid"
	}
	return LayerConfig{Type: "conv", Data: marshal(c)}
}

func (c Conv) ToString() string {
	return fmt.Sprintf("conv %+v", c)
}

func (c *Conv) unmarshal(data json.RawMessage) Layer {
	unmarshal(data, c)
	return &conv{Conv: *c}
}

// Transposed convolutional upsampling layer.
type ConvTranspose struct {
	Nfeats, Size, Stride int
	Pad                  string
}

func (c ConvTranspose) Marshal() LayerConfig {
	if c.Stride == 0 {
		c.Stride = 1
	}
	if c.Pad == "" {
		c.Pad = "valid"
	}
	return LayerConfig{Type: "convTranspose", Data: marshal(c)}
}

func (c ConvTranspose) ToString() string {
	return fmt.Sprintf("convTranspose %+v", c)
}

func (c *ConvTranspose) unmarshal(data json.RawMessage) Layer {
	unmarshal(data, c)
	return &convTranspose{ConvTranspose: *c}
}

// Batch normalisation over the trailing channel axis with learned scale
// and shift. Running statistics are only updated on train mode forward passes.
type BatchNorm struct {
	Momentum float64
	Epsilon  float64
}

func (c BatchNorm) Marshal() LayerConfig {
	if c.Momentum == 0 {
		c.Momentum = 0.99
	}
	if c.Epsilon == 0 {
		c.Epsilon = 1e-3
	}
	return LayerConfig{Type: "batchNorm", Data: marshal(c)}
}

func (c BatchNorm) ToString() string {
	return fmt.Sprintf("batchNorm %+v", c)
}

func (c *BatchNorm) unmarshal(data json.RawMessage) Layer {
	unmarshal(data, c)
	return &batchNorm{BatchNorm: *c}
}

// LeakyRelu activation layer.
type LeakyRelu struct {
	Alpha float64
}

func (c LeakyRelu) Marshal() LayerConfig {
	if c.Alpha == 0 {
		c.Alpha = 0.3
	}
	return LayerConfig{Type: "leakyRelu", Data: marshal(c)}
}

func (c LeakyRelu) ToString() string {
	return fmt.Sprintf("leakyRelu %+v", c)
}

func (c *LeakyRelu) unmarshal(data json.RawMessage) Layer {
	unmarshal(data, c)
	return &leakyRelu{LeakyRelu: *c}
}

// Sigmoid, tanh or relu activation layer.
type Activation struct {
	Atype string
}

func (c Activation) Marshal() LayerConfig {
	return LayerConfig{Type: "activation", Data: marshal(c)}
}

func (c Activation) ToString() string {
	return fmt.Sprintf("activation %+v", c)
}

func (c *Activation) unmarshal(data json.RawMessage) Layer {
	layer := &activation{Activation: *c}
	unmarshal(data, &layer.Activation)
	switch layer.Atype {
	case "sigmoid":
		layer.activ = func(x float32) float32 { return 1 / (1 + float32(math.Exp(-float64(x)))) }
		layer.fromOut = true
		layer.deriv = func(y float32) float32 { return y * (1 - y) }
	case "tanh":
		layer.activ = func(x float32) float32 { return float32(math.Tanh(float64(x))) }
		layer.fromOut = true
		layer.deriv = func(y float32) float32 { return 1 - y*y }
	case "relu":
		layer.activ = func(x float32) float32 {
			if x > 0 {
				return x
			}
			return 0
		}
		layer.deriv = func(x float32) float32 {
			if x > 0 {
				return 1
			}
			return 0
		}
	default:
		panic(fmt.Sprintf("activation type %s invalid", layer.Atype))
	}
	return layer
}

// Dropout layer, active only in train mode.
type Dropout struct {
	Rate float64
}

func (c Dropout) Marshal() LayerConfig {
	return LayerConfig{Type: "dropout", Data: marshal(c)}
}

func (c Dropout) ToString() string {
	return fmt.Sprintf("dropout %+v", c)
}

func (c *Dropout) unmarshal(data json.RawMessage) Layer {
	unmarshal(data, c)
	return &dropout{Dropout: *c}
}

// Reshape layer converts to the given shape excluding the batch dimension.
type Reshape struct {
	Dims []int
}

func (c Reshape) Marshal() LayerConfig {
	return LayerConfig{Type: "reshape", Data: marshal(c)}
}

func (c Reshape) ToString() string {
	return fmt.Sprintf("reshape %+v", c)
}

func (c *Reshape) unmarshal(data json.RawMessage) Layer {
	unmarshal(data, c)
	return &reshape{Reshape: *c}
}

// Flatten layer reshapes the input to 2 dimensions.
type Flatten struct{}

func (c Flatten) Marshal() LayerConfig {
	return LayerConfig{Type: "flatten"}
}

// dense layer implementation
type dense struct {
	Dense
	w, b *Param
	nin  int
	src  *num.Array
}

func (l *dense) OutShape(inShape []int) []int {
	return []int{l.Nout}
}

func (l *dense) Init(rng *rand.Rand, inShape []int) Layer {
	l.nin = num.Prod(inShape)
	l.w = newParam("w", l.nin, l.Nout)
	l.b = newParam("b", l.Nout)
	l.w.Val.Uniform(rng, glorot(l.nin, l.Nout))
	return l
}

func (l *dense) Params() []*Param { return []*Param{l.w, l.b} }

func (l *dense) Fprop(in *num.Array, train bool) *num.Array {
	n := in.Dims()[0]
	l.src = in.Reshape(n, l.nin)
	dst := num.NewArray(n, l.Nout)
	for i := 0; i < n; i++ {
		copy(dst.Data[i*l.Nout:(i+1)*l.Nout], l.b.Val.Data)
	}
	num.Gemm(1, l.src, l.w.Val, dst, false, false, 1)
	return dst
}

func (l *dense) Bprop(grad *num.Array) *num.Array {
	n := grad.Dims()[0]
	num.Gemm(1, l.src, grad, l.w.Grad, true, false, 1)
	for i := 0; i < n; i++ {
		for j := 0; j < l.Nout; j++ {
			l.b.Grad.Data[j] += grad.Data[i*l.Nout+j]
		}
	}
	dsrc := num.NewArray(n, l.nin)
	num.Gemm(1, grad, l.w.Val, dsrc, false, true, 0)
	return dsrc
}

// convolution geometry shared by conv and convTranspose
type convShape struct {
	inH, inW, inC        int
	outH, outW, outC     int
	size, stride         int
	offH, offW           int
}

// conv layer implementation: input is in [batch, height, width, channel] order
// and the kernel is stored as [size, size, in channels, out channels].
type conv struct {
	Conv
	convShape
	w, b *Param
	src  *num.Array
}

func (l *conv) OutShape(inShape []int) []int {
	h, w := convOutDim(inShape[0], l.Size, l.Stride, l.Pad), convOutDim(inShape[1], l.Size, l.Stride, l.Pad)
	return []int{h, w, l.Nfeats}
}

func convOutDim(in, size, stride int, pad string) int {
	if pad == "same" {
		return (in + stride - 1) / stride
	}
	return (in-size)/stride + 1
}

func (l *conv) Init(rng *rand.Rand, inShape []int) Layer {
	if len(inShape) != 3 {
		panic("Conv: expect 3 dimensional input")
	}
	l.inH, l.inW, l.inC = inShape[0], inShape[1], inShape[2]
	out := l.OutShape(inShape)
	l.outH, l.outW, l.outC = out[0], out[1], out[2]
	l.size, l.stride = l.Size, l.Stride
	if l.Pad == "same" {
		l.offH = max((l.outH-1)*l.stride+l.size-l.inH, 0) / 2
		l.offW = max((l.outW-1)*l.stride+l.size-l.inW, 0) / 2
	}
	l.w = newParam("w", l.Size, l.Size, l.inC, l.Nfeats)
	l.b = newParam("b", l.Nfeats)
	fanIn := l.Size * l.Size * l.inC
	fanOut := l.Size * l.Size * l.Nfeats
	l.w.Val.Uniform(rng, glorot(fanIn, fanOut))
	return l
}

func (l *conv) Params() []*Param { return []*Param{l.w, l.b} }

func (l *conv) Fprop(in *num.Array, train bool) *num.Array {
	l.src = in
	n := in.Dims()[0]
	dst := num.NewArray(n, l.outH, l.outW, l.outC)
	w, b := l.w.Val.Data, l.b.Val.Data
	for img := 0; img < n; img++ {
		inBase := img * l.inH * l.inW * l.inC
		outBase := img * l.outH * l.outW * l.outC
		for oy := 0; oy < l.outH; oy++ {
			for ox := 0; ox < l.outW; ox++ {
				opos := outBase + (oy*l.outW+ox)*l.outC
				for ky := 0; ky < l.size; ky++ {
					iy := oy*l.stride + ky - l.offH
					if iy < 0 || iy >= l.inH {
						continue
					}
					for kx := 0; kx < l.size; kx++ {
						ix := ox*l.stride + kx - l.offW
						if ix < 0 || ix >= l.inW {
							continue
						}
						ipos := inBase + (iy*l.inW+ix)*l.inC
						wpos := (ky*l.size + kx) * l.inC * l.outC
						for ic := 0; ic < l.inC; ic++ {
							x := in.Data[ipos+ic]
							wrow := wpos + ic*l.outC
							for oc := 0; oc < l.outC; oc++ {
								dst.Data[opos+oc] += x * w[wrow+oc]
							}
						}
					}
				}
				for oc := 0; oc < l.outC; oc++ {
					dst.Data[opos+oc] += b[oc]
				}
			}
		}
	}
	return dst
}

func (l *conv) Bprop(grad *num.Array) *num.Array {
	n := grad.Dims()[0]
	dsrc := num.NewArray(n, l.inH, l.inW, l.inC)
	w := l.w.Val.Data
	dw, db := l.w.Grad.Data, l.b.Grad.Data
	for img := 0; img < n; img++ {
		inBase := img * l.inH * l.inW * l.inC
		outBase := img * l.outH * l.outW * l.outC
		for oy := 0; oy < l.outH; oy++ {
			for ox := 0; ox < l.outW; ox++ {
				opos := outBase + (oy*l.outW+ox)*l.outC
				for oc := 0; oc < l.outC; oc++ {
					db[oc] += grad.Data[opos+oc]
				}
				for ky := 0; ky < l.size; ky++ {
					iy := oy*l.stride + ky - l.offH
					if iy < 0 || iy >= l.inH {
						continue
					}
					for kx := 0; kx < l.size; kx++ {
						ix := ox*l.stride + kx - l.offW
						if ix < 0 || ix >= l.inW {
							continue
						}
						ipos := inBase + (iy*l.inW+ix)*l.inC
						wpos := (ky*l.size + kx) * l.inC * l.outC
						for ic := 0; ic < l.inC; ic++ {
							x := l.src.Data[ipos+ic]
							wrow := wpos + ic*l.outC
							var acc float32
							for oc := 0; oc < l.outC; oc++ {
								g := grad.Data[opos+oc]
								dw[wrow+oc] += x * g
								acc += w[wrow+oc] * g
							}
							dsrc.Data[ipos+ic] += acc
						}
					}
				}
			}
		}
	}
	return dsrc
}

// transposed convolution layer implementation: scatters each input pixel
// into the upsampled output, cropping by offH/offW for "same" padding.
type convTranspose struct {
	ConvTranspose
	convShape
	w, b *Param
	src  *num.Array
}

func (l *convTranspose) OutShape(inShape []int) []int {
	var h, w int
	if l.Pad == "same" {
		h, w = inShape[0]*l.Stride, inShape[1]*l.Stride
	} else {
		h, w = (inShape[0]-1)*l.Stride+l.Size, (inShape[1]-1)*l.Stride+l.Size
	}
	return []int{h, w, l.Nfeats}
}

func (l *convTranspose) Init(rng *rand.Rand, inShape []int) Layer {
	if len(inShape) != 3 {
		panic("ConvTranspose: expect 3 dimensional input")
	}
	l.inH, l.inW, l.inC = inShape[0], inShape[1], inShape[2]
	out := l.OutShape(inShape)
	l.outH, l.outW, l.outC = out[0], out[1], out[2]
	l.size, l.stride = l.Size, l.Stride
	if l.Pad == "same" {
		l.offH = max((l.inH-1)*l.stride+l.size-l.outH, 0) / 2
		l.offW = max((l.inW-1)*l.stride+l.size-l.outW, 0) / 2
	}
	l.w = newParam("w", l.Size, l.Size, l.inC, l.Nfeats)
	l.b = newParam("b", l.Nfeats)
	fanIn := l.Size * l.Size * l.inC
	fanOut := l.Size * l.Size * l.Nfeats
	l.w.Val.Uniform(rng, glorot(fanIn, fanOut))
	return l
}

func (l *convTranspose) Params() []*Param { return []*Param{l.w, l.b} }

func (l *convTranspose) Fprop(in *num.Array, train bool) *num.Array {
	l.src = in
	n := in.Dims()[0]
	dst := num.NewArray(n, l.outH, l.outW, l.outC)
	w, b := l.w.Val.Data, l.b.Val.Data
	for i := 0; i < n*l.outH*l.outW; i++ {
		copy(dst.Data[i*l.outC:(i+1)*l.outC], b)
	}
	for img := 0; img < n; img++ {
		inBase := img * l.inH * l.inW * l.inC
		outBase := img * l.outH * l.outW * l.outC
		for iy := 0; iy < l.inH; iy++ {
			for ix := 0; ix < l.inW; ix++ {
				ipos := inBase + (iy*l.inW+ix)*l.inC
				for ky := 0; ky < l.size; ky++ {
					oy := iy*l.stride + ky - l.offH
					if oy < 0 || oy >= l.outH {
						continue
					}
					for kx := 0; kx < l.size; kx++ {
						ox := ix*l.stride + kx - l.offW
						if ox < 0 || ox >= l.outW {
							continue
						}
						opos := outBase + (oy*l.outW+ox)*l.outC
						wpos := (ky*l.size + kx) * l.inC * l.outC
						for ic := 0; ic < l.inC; ic++ {
							x := in.Data[ipos+ic]
							wrow := wpos + ic*l.outC
							for oc := 0; oc < l.outC; oc++ {
								dst.Data[opos+oc] += x * w[wrow+oc]
							}
						}
					}
				}
			}
		}
	}
	return dst
}

func (l *convTranspose) Bprop(grad *num.Array) *num.Array {
	n := grad.Dims()[0]
	dsrc := num.NewArray(n, l.inH, l.inW, l.inC)
	w := l.w.Val.Data
	dw, db := l.w.Grad.Data, l.b.Grad.Data
	for i := 0; i < n*l.outH*l.outW; i++ {
		for oc := 0; oc < l.outC; oc++ {
			db[oc] += grad.Data[i*l.outC+oc]
		}
	}
	for img := 0; img < n; img++ {
		inBase := img * l.inH * l.inW * l.inC
		outBase := img * l.outH * l.outW * l.outC
		for iy := 0; iy < l.inH; iy++ {
			for ix := 0; ix < l.inW; ix++ {
				ipos := inBase + (iy*l.inW+ix)*l.inC
				for ky := 0; ky < l.size; ky++ {
					oy := iy*l.stride + ky - l.offH
					if oy < 0 || oy >= l.outH {
						continue
					}
					for kx := 0; kx < l.size; kx++ {
						ox := ix*l.stride + kx - l.offW
						if ox < 0 || ox >= l.outW {
							continue
						}
						opos := outBase + (oy*l.outW+ox)*l.outC
						wpos := (ky*l.size + kx) * l.inC * l.outC
						for ic := 0; ic < l.inC; ic++ {
							x := l.src.Data[ipos+ic]
							wrow := wpos + ic*l.outC
							var acc float32
							for oc := 0; oc < l.outC; oc++ {
								g := grad.Data[opos+oc]
								dw[wrow+oc] += x * g
								acc += w[wrow+oc] * g
							}
							dsrc.Data[ipos+ic] += acc
						}
					}
				}
			}
		}
	}
	return dsrc
}

// batch normalisation layer implementation
type batchNorm struct {
	BatchNorm
	gamma, beta      *Param
	runMean, runVar  *num.Array
	nchan            int
	src, xhat        *num.Array
	mean, invStd     []float32
	trained          bool
}

func (l *batchNorm) OutShape(inShape []int) []int { return inShape }

func (l *batchNorm) Init(rng *rand.Rand, inShape []int) Layer {
	l.nchan = inShape[len(inShape)-1]
	l.gamma = newParam("gamma", l.nchan)
	l.beta = newParam("beta", l.nchan)
	l.gamma.Val.Fill(1)
	l.runMean = num.NewArray(l.nchan)
	l.runVar = num.NewArray(l.nchan)
	l.runVar.Fill(1)
	return l
}

func (l *batchNorm) Params() []*Param { return []*Param{l.gamma, l.beta} }

// RunningStats returns the running mean and variance arrays.
func (l *batchNorm) RunningStats() (mean, variance *num.Array) {
	return l.runMean, l.runVar
}

func (l *batchNorm) Fprop(in *num.Array, train bool) *num.Array {
	l.src = in
	l.trained = train
	c := l.nchan
	rows := in.Size() / c
	l.mean = make([]float32, c)
	l.invStd = make([]float32, c)
	eps := float32(l.Epsilon)
	if train {
		variance := make([]float32, c)
		for i := 0; i < rows; i++ {
			for j := 0; j < c; j++ {
				l.mean[j] += in.Data[i*c+j]
			}
		}
		for j := 0; j < c; j++ {
			l.mean[j] /= float32(rows)
		}
		for i := 0; i < rows; i++ {
			for j := 0; j < c; j++ {
				d := in.Data[i*c+j] - l.mean[j]
				variance[j] += d * d
			}
		}
		mom := float32(l.Momentum)
		for j := 0; j < c; j++ {
			variance[j] /= float32(rows)
			l.invStd[j] = 1 / float32(math.Sqrt(float64(variance[j]+eps)))
			l.runMean.Data[j] = mom*l.runMean.Data[j] + (1-mom)*l.mean[j]
			l.runVar.Data[j] = mom*l.runVar.Data[j] + (1-mom)*variance[j]
		}
	} else {
		for j := 0; j < c; j++ {
			l.mean[j] = l.runMean.Data[j]
			l.invStd[j] = 1 / float32(math.Sqrt(float64(l.runVar.Data[j]+eps)))
		}
	}
	l.xhat = num.NewArray(in.Dims()...)
	dst := num.NewArray(in.Dims()...)
	for i := 0; i < rows; i++ {
		for j := 0; j < c; j++ {
			xh := (in.Data[i*c+j] - l.mean[j]) * l.invStd[j]
			l.xhat.Data[i*c+j] = xh
			dst.Data[i*c+j] = l.gamma.Val.Data[j]*xh + l.beta.Val.Data[j]
		}
	}
	return dst
}

func (l *batchNorm) Bprop(grad *num.Array) *num.Array {
	c := l.nchan
	rows := grad.Size() / c
	dsrc := num.NewArray(l.src.Dims()...)
	for i := 0; i < rows; i++ {
		for j := 0; j < c; j++ {
			g := grad.Data[i*c+j]
			l.gamma.Grad.Data[j] += g * l.xhat.Data[i*c+j]
			l.beta.Grad.Data[j] += g
		}
	}
	if !l.trained {
		// statistics are constants in inference mode
		for i := 0; i < rows; i++ {
			for j := 0; j < c; j++ {
				dsrc.Data[i*c+j] = grad.Data[i*c+j] * l.gamma.Val.Data[j] * l.invStd[j]
			}
		}
		return dsrc
	}
	m := float32(rows)
	sumG := make([]float32, c)
	sumGX := make([]float32, c)
	for i := 0; i < rows; i++ {
		for j := 0; j < c; j++ {
			g := grad.Data[i*c+j] * l.gamma.Val.Data[j]
			sumG[j] += g
			sumGX[j] += g * l.xhat.Data[i*c+j]
		}
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < c; j++ {
			g := grad.Data[i*c+j] * l.gamma.Val.Data[j]
			dsrc.Data[i*c+j] = l.invStd[j] * (g - sumG[j]/m - l.xhat.Data[i*c+j]*sumGX[j]/m)
		}
	}
	return dsrc
}

// leaky relu layer implementation
type leakyRelu struct {
	LeakyRelu
	src *num.Array
}

func (l *leakyRelu) OutShape(inShape []int) []int { return inShape }

func (l *leakyRelu) Init(rng *rand.Rand, inShape []int) Layer { return l }

func (l *leakyRelu) Fprop(in *num.Array, train bool) *num.Array {
	l.src = in
	dst := num.NewArray(in.Dims()...)
	a := float32(l.Alpha)
	for i, x := range in.Data {
		if x > 0 {
			dst.Data[i] = x
		} else {
			dst.Data[i] = a * x
		}
	}
	return dst
}

func (l *leakyRelu) Bprop(grad *num.Array) *num.Array {
	dsrc := num.NewArray(grad.Dims()...)
	a := float32(l.Alpha)
	for i, g := range grad.Data {
		if l.src.Data[i] > 0 {
			dsrc.Data[i] = g
		} else {
			dsrc.Data[i] = a * g
		}
	}
	return dsrc
}

// activation layer implementation
type activation struct {
	Activation
	activ   func(x float32) float32
	deriv   func(v float32) float32
	fromOut bool
	cache   *num.Array
}

func (l *activation) OutShape(inShape []int) []int { return inShape }

func (l *activation) Init(rng *rand.Rand, inShape []int) Layer { return l }

func (l *activation) Fprop(in *num.Array, train bool) *num.Array {
	dst := num.NewArray(in.Dims()...)
	for i, x := range in.Data {
		dst.Data[i] = l.activ(x)
	}
	if l.fromOut {
		l.cache = dst
	} else {
		l.cache = in
	}
	return dst
}

func (l *activation) Bprop(grad *num.Array) *num.Array {
	dsrc := num.NewArray(grad.Dims()...)
	for i, g := range grad.Data {
		dsrc.Data[i] = g * l.deriv(l.cache.Data[i])
	}
	return dsrc
}

// dropout layer implementation using inverted scaling
type dropout struct {
	Dropout
	rng  *rand.Rand
	mask []float32
}

func (l *dropout) OutShape(inShape []int) []int { return inShape }

func (l *dropout) Init(rng *rand.Rand, inShape []int) Layer {
	l.rng = rng
	return l
}

func (l *dropout) Fprop(in *num.Array, train bool) *num.Array {
	if !train {
		l.mask = nil
		return in
	}
	keep := float32(1 - l.Rate)
	l.mask = make([]float32, in.Size())
	dst := num.NewArray(in.Dims()...)
	for i, x := range in.Data {
		if l.rng.Float64() >= l.Rate {
			l.mask[i] = 1 / keep
			dst.Data[i] = x / keep
		}
	}
	return dst
}

func (l *dropout) Bprop(grad *num.Array) *num.Array {
	if l.mask == nil {
		return grad
	}
	dsrc := num.NewArray(grad.Dims()...)
	for i, g := range grad.Data {
		dsrc.Data[i] = g * l.mask[i]
	}
	return dsrc
}

// reshape layer implementation
type reshape struct {
	Reshape
	inShape []int
}

func (l *reshape) OutShape(inShape []int) []int { return l.Dims }

func (l *reshape) Init(rng *rand.Rand, inShape []int) Layer {
	if num.Prod(inShape) != num.Prod(l.Dims) {
		panic(fmt.Sprintf("Reshape: cannot reshape %v to %v", inShape, l.Dims))
	}
	l.inShape = inShape
	return l
}

func (l *reshape) Fprop(in *num.Array, train bool) *num.Array {
	n := in.Dims()[0]
	return in.Reshape(append([]int{n}, l.Dims...)...)
}

func (l *reshape) Bprop(grad *num.Array) *num.Array {
	n := grad.Dims()[0]
	return grad.Reshape(append([]int{n}, l.inShape...)...)
}

type flatten struct {
	inShape []int
}

func (l *flatten) ToString() string { return "flatten" }

func (l *flatten) OutShape(inShape []int) []int {
	return []int{num.Prod(inShape)}
}

func (l *flatten) Init(rng *rand.Rand, inShape []int) Layer {
	l.inShape = inShape
	return l
}

func (l *flatten) Fprop(in *num.Array, train bool) *num.Array {
	return in.Reshape(in.Dims()[0], -1)
}

func (l *flatten) Bprop(grad *num.Array) *num.Array {
	return grad.Reshape(append([]int{grad.Dims()[0]}, l.inShape...)...)
}

// glorot uniform initialisation limit
func glorot(fanIn, fanOut int) float32 {
	return float32(math.Sqrt(6 / float64(fanIn+fanOut)))
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func marshal(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}

func unmarshal(data json.RawMessage, v interface{}) {
	err := json.Unmarshal(data, v)
	if err != nil {
		panic(err)
	}
}
