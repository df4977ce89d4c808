// Package num contains the float32 array type used for network activations,
// parameters and gradients, with matrix products done via gonum blas32.
package num

import (
	"fmt"
	"math/rand"
	"strings"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
)

// Array is an n-dimensional array of float32 stored in row major order.
type Array struct {
	Data []float32
	dims []int
}

// NewArray allocates a new zeroed array with the given dimensions.
func NewArray(dims ...int) *Array {
	return &Array{Data: make([]float32, Prod(dims)), dims: append([]int{}, dims...)}
}

// NewArrayData creates an array wrapping the given backing slice.
func NewArrayData(data []float32, dims ...int) *Array {
	if len(data) != Prod(dims) {
		panic(fmt.Sprintf("num: data length %d does not match shape %v", len(data), dims))
	}
	return &Array{Data: data, dims: append([]int{}, dims...)}
}

// Dims returns the array dimensions.
func (a *Array) Dims() []int {
	return a.dims
}

// Size returns the total number of elements.
func (a *Array) Size() int {
	return len(a.Data)
}

// Reshape returns a new view on the same data with a different shape.
// At most one dimension may be -1 in which case it is inferred.
func (a *Array) Reshape(dims ...int) *Array {
	dims = append([]int{}, dims...)
	wild := -1
	size := 1
	for i, d := range dims {
		if d == -1 {
			if wild >= 0 {
				panic("num: multiple -1 dimensions in Reshape")
			}
			wild = i
		} else {
			size *= d
		}
	}
	if wild >= 0 {
		dims[wild] = len(a.Data) / size
		size *= dims[wild]
	}
	if size != len(a.Data) {
		panic(fmt.Sprintf("num: cannot reshape %v to %v", a.dims, dims))
	}
	return &Array{Data: a.Data, dims: dims}
}

// Copy returns a deep copy of the array.
func (a *Array) Copy() *Array {
	b := NewArray(a.dims...)
	copy(b.Data, a.Data)
	return b
}

// Fill sets every element to the given value.
func (a *Array) Fill(val float32) {
	for i := range a.Data {
		a.Data[i] = val
	}
}

// Randn fills the array with standard normal draws scaled by scale.
func (a *Array) Randn(rng *rand.Rand, scale float32) {
	for i := range a.Data {
		a.Data[i] = float32(rng.NormFloat64()) * scale
	}
}

// Uniform fills the array with uniform draws from [-limit, limit).
func (a *Array) Uniform(rng *rand.Rand, limit float32) {
	for i := range a.Data {
		a.Data[i] = (2*rng.Float32() - 1) * limit
	}
}

func (a *Array) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%v ", a.dims)
	n := len(a.Data)
	if n > 12 {
		fmt.Fprintf(&sb, "%.4g ...", a.Data[:12])
	} else {
		fmt.Fprintf(&sb, "%.4g", a.Data)
	}
	return sb.String()
}

// Prod returns the product of the given dimensions.
func Prod(dims []int) int {
	n := 1
	for _, d := range dims {
		n *= d
	}
	return n
}

// SameShape reports whether the two arrays have identical dimensions.
func SameShape(a, b *Array) bool {
	if len(a.dims) != len(b.dims) {
		return false
	}
	for i := range a.dims {
		if a.dims[i] != b.dims[i] {
			return false
		}
	}
	return true
}

// Gemm computes c = alpha*op(a)*op(b) + beta*c where a, b and c are
// 2 dimensional arrays and op is optional transposition.
func Gemm(alpha float32, a, b, c *Array, transA, transB bool, beta float32) {
	ga := general(a)
	gb := general(b)
	gc := general(c)
	ta, tb := blas.NoTrans, blas.NoTrans
	m, ka := ga.Rows, ga.Cols
	if transA {
		ta = blas.Trans
		m, ka = ga.Cols, ga.Rows
	}
	kb, n := gb.Rows, gb.Cols
	if transB {
		tb = blas.Trans
		kb, n = gb.Cols, gb.Rows
	}
	if ka != kb || gc.Rows != m || gc.Cols != n {
		panic(fmt.Sprintf("num: Gemm shape mismatch %v x %v -> %v", a.dims, b.dims, c.dims))
	}
	blas32.Gemm(ta, tb, alpha, ga, gb, beta, gc)
}

func general(a *Array) blas32.General {
	if len(a.dims) != 2 {
		panic(fmt.Sprintf("num: expect matrix, got shape %v", a.dims))
	}
	return blas32.General{Rows: a.dims[0], Cols: a.dims[1], Stride: a.dims[1], Data: a.Data}
}

// Axpy computes y += alpha*x elementwise.
func Axpy(alpha float32, x, y *Array) {
	if len(x.Data) != len(y.Data) {
		panic("num: Axpy size mismatch")
	}
	for i, v := range x.Data {
		y.Data[i] += alpha * v
	}
}
