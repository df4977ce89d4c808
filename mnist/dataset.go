package mnist

import (
	"math/rand"

	"github.com/saahiluppal/generative-networks/num"
)

// Dataset serves the corpus in shuffled fixed size batches. The shuffle is a
// full permutation of the corpus so every epoch is an independent ordering.
// The trailing batch of an epoch may be short; it is kept, not dropped.
type Dataset struct {
	Samples   int
	BatchSize int
	Batches   int
	data      *num.Array
	indexes   []int
	rng       *rand.Rand
}

// NewDataset wraps the given corpus for batched iteration.
func NewDataset(d *Data, batchSize int, rng *rand.Rand) *Dataset {
	set := &Dataset{Samples: d.Len, BatchSize: batchSize, data: d.Images, rng: rng}
	if batchSize <= 0 || batchSize > set.Samples {
		set.BatchSize = set.Samples
	}
	set.Batches = set.Samples / set.BatchSize
	if set.Samples%set.BatchSize != 0 {
		set.Batches++
	}
	set.indexes = make([]int, set.Samples)
	for i := range set.indexes {
		set.indexes[i] = i
	}
	return set
}

// Shuffle reshuffles the sample ordering, called at the start of each epoch.
func (d *Dataset) Shuffle() {
	d.indexes = d.rng.Perm(d.Samples)
}

// Batch copies batch number i in shuffle order into a new array of shape
// [n, height, width, depth].
func (d *Dataset) Batch(i int) *num.Array {
	start := i * d.BatchSize
	end := start + d.BatchSize
	if end > d.Samples {
		end = d.Samples
	}
	nfeat := Height * Width * Depth
	batch := num.NewArray(end-start, Height, Width, Depth)
	for j, ix := range d.indexes[start:end] {
		copy(batch.Data[j*nfeat:(j+1)*nfeat], d.data.Data[ix*nfeat:(ix+1)*nfeat])
	}
	return batch
}
