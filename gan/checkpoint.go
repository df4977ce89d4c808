package gan

import (
	"encoding/gob"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/saahiluppal/generative-networks/nnet"
)

const ckptPrefix = "ckpt_"

// Checkpointer persists snapshots of both networks' state in gob format
// under Dir, keeping at most MaxKeep most recent files.
type Checkpointer struct {
	Dir     string
	MaxKeep int
}

type snapshot struct {
	Epoch int
	Gen   [][]float32
	Disc  [][]float32
}

func ckptName(epoch int) string {
	return fmt.Sprintf("%s%d.gob", ckptPrefix, epoch)
}

// Save writes a snapshot for epoch, then evicts the oldest checkpoints
// beyond MaxKeep. The file is written via a temp name and renamed so a
// partial write never shows up as a valid checkpoint.
func (c *Checkpointer) Save(epoch int, gen, disc *nnet.Network) error {
	snap := snapshot{Epoch: epoch, Gen: stateData(gen), Disc: stateData(disc)}
	name := path.Join(c.Dir, ckptName(epoch))
	tmp := name + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrap(err, "save checkpoint")
	}
	if err = gob.NewEncoder(f).Encode(snap); err != nil {
		f.Close()
		return errors.Wrap(err, "save checkpoint")
	}
	f.Close()
	if err = os.Rename(tmp, name); err != nil {
		return errors.Wrap(err, "save checkpoint")
	}
	return c.rotate()
}

// LoadLatest restores the most recent snapshot into the given networks and
// returns its epoch, or 0 with no error when no checkpoint exists.
func (c *Checkpointer) LoadLatest(gen, disc *nnet.Network) (int, error) {
	epochs, err := c.list()
	if err != nil || len(epochs) == 0 {
		return 0, err
	}
	latest := epochs[len(epochs)-1]
	f, err := os.Open(path.Join(c.Dir, ckptName(latest)))
	if err != nil {
		return 0, errors.Wrap(err, "load checkpoint")
	}
	defer f.Close()
	var snap snapshot
	if err = gob.NewDecoder(f).Decode(&snap); err != nil {
		return 0, errors.Wrap(err, "load checkpoint")
	}
	if err = setState(gen, snap.Gen); err != nil {
		return 0, err
	}
	if err = setState(disc, snap.Disc); err != nil {
		return 0, err
	}
	return snap.Epoch, nil
}

// list returns the checkpoint epochs under Dir in ascending order.
func (c *Checkpointer) list() ([]int, error) {
	entries, err := os.ReadDir(c.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "list checkpoints")
	}
	var epochs []int
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, ckptPrefix) || !strings.HasSuffix(name, ".gob") {
			continue
		}
		var epoch int
		if _, err := fmt.Sscanf(name, ckptPrefix+"%d.gob", &epoch); err == nil {
			epochs = append(epochs, epoch)
		}
	}
	sort.Ints(epochs)
	return epochs, nil
}

func (c *Checkpointer) rotate() error {
	epochs, err := c.list()
	if err != nil {
		return err
	}
	for len(epochs) > c.MaxKeep {
		if err := os.Remove(path.Join(c.Dir, ckptName(epochs[0]))); err != nil {
			return errors.Wrap(err, "rotate checkpoints")
		}
		epochs = epochs[1:]
	}
	return nil
}

func stateData(net *nnet.Network) [][]float32 {
	var data [][]float32
	for _, a := range net.State() {
		buf := make([]float32, a.Size())
		copy(buf, a.Data)
		data = append(data, buf)
	}
	return data
}

func setState(net *nnet.Network, data [][]float32) error {
	state := net.State()
	if len(state) != len(data) {
		return errors.Errorf("checkpoint: have %d state arrays, snapshot has %d", len(state), len(data))
	}
	for i, a := range state {
		if len(data[i]) != a.Size() {
			return errors.Errorf("checkpoint: state array %d size mismatch", i)
		}
		copy(a.Data, data[i])
	}
	return nil
}
