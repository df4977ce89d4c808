package gan

import (
	"math/rand"
	"os"
	"reflect"
	"testing"

	"github.com/saahiluppal/generative-networks/nnet"
)

func tinyNets(seed int64) (gen, disc *nnet.Network) {
	rng := rand.New(rand.NewSource(seed))
	gen = nnet.New("generator", []int{4}, rng, nnet.Dense{Nout: 3}, nnet.BatchNorm{})
	disc = nnet.New("discriminator", []int{3}, rng, nnet.Dense{Nout: 1})
	return gen, disc
}

func TestCheckpointRotation(t *testing.T) {
	dir := t.TempDir()
	c := &Checkpointer{Dir: dir, MaxKeep: 3}
	gen, disc := tinyNets(1)
	for _, epoch := range []int{100, 200, 300, 400, 500} {
		if err := c.Save(epoch, gen, disc); err != nil {
			t.Fatal(err)
		}
	}
	epochs, err := c.list()
	if err != nil {
		t.Fatal(err)
	}
	if expect := []int{300, 400, 500}; !reflect.DeepEqual(epochs, expect) {
		t.Error("got", epochs, "expect", expect)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Error("file count: got", len(entries), "expect", 3)
	}
}

func TestCheckpointRestore(t *testing.T) {
	dir := t.TempDir()
	c := &Checkpointer{Dir: dir, MaxKeep: 3}
	gen, disc := tinyNets(1)
	before := stateData(gen)
	if err := c.Save(42, gen, disc); err != nil {
		t.Fatal(err)
	}
	// perturb and restore
	gen2, disc2 := tinyNets(2)
	epoch, err := c.LoadLatest(gen2, disc2)
	if err != nil {
		t.Fatal(err)
	}
	if epoch != 42 {
		t.Error("epoch: got", epoch, "expect", 42)
	}
	if !reflect.DeepEqual(stateData(gen2), before) {
		t.Error("restored generator state differs from saved state")
	}
}

func TestLoadLatestEmpty(t *testing.T) {
	c := &Checkpointer{Dir: t.TempDir(), MaxKeep: 3}
	gen, disc := tinyNets(1)
	epoch, err := c.LoadLatest(gen, disc)
	if err != nil {
		t.Fatal(err)
	}
	if epoch != 0 {
		t.Error("epoch: got", epoch, "expect", 0)
	}
}
