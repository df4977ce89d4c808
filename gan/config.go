package gan

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
)

// Training configuration settings
type Config struct {
	DataDir        string
	ImageDir       string
	CheckpointDir  string
	BufferSize     int
	BatchSize      int
	Epochs         int
	NoiseDim       int
	K              int
	Eta            float64
	SampleEvery    int
	MaxCheckpoints int
	RandSeed       int64
}

// DefaultConfig returns the standard training settings. BufferSize is the
// minimum shuffle buffer: it exceeds the corpus size so each epoch uses a
// full permutation shuffle rather than a windowed approximation.
func DefaultConfig() Config {
	return Config{
		DataDir:        "data",
		ImageDir:       "images",
		CheckpointDir:  "checkpoints",
		BufferSize:     412000,
		BatchSize:      128,
		Epochs:         1000,
		NoiseDim:       100,
		K:              2,
		Eta:            1e-4,
		SampleEvery:    100,
		MaxCheckpoints: 3,
	}
}

// Load config from JSON file
func LoadConfig(name string) (c Config, err error) {
	f, err := os.Open(name)
	if err != nil {
		return
	}
	defer f.Close()
	fmt.Println("loading config from", name)
	err = json.NewDecoder(f).Decode(&c)
	return
}

// Save config to JSON file, writing via a temp file in the same directory.
func (c Config) Save(name string) error {
	dir, base := path.Split(name)
	tmp := path.Join(dir, "."+base)
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	fmt.Println("saving config to", name)
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err = enc.Encode(c); err != nil {
		f.Close()
		return err
	}
	f.Close()
	return os.Rename(tmp, name)
}
