package main

import (
	"flag"
	"fmt"

	"github.com/saahiluppal/generative-networks/gan"
	"github.com/saahiluppal/generative-networks/mnist"
	"github.com/saahiluppal/generative-networks/nnet"
	"github.com/saahiluppal/generative-networks/web"
)

func main() {
	conf := gan.DefaultConfig()
	configFile := flag.String("config", "", "load settings from JSON file")
	httpAddr := flag.String("http", "", "address for the training monitor, e.g. :8080")
	httpAuth := flag.String("auth", "", "user:pass basic auth for the monitor")
	resume := flag.Bool("resume", false, "resume from the latest checkpoint")

	// override config settings from command line
	flag.StringVar(&conf.DataDir, "data", conf.DataDir, "directory with the mnist idx files")
	flag.StringVar(&conf.ImageDir, "images", conf.ImageDir, "directory for sample image grids")
	flag.StringVar(&conf.CheckpointDir, "checkpoints", conf.CheckpointDir, "directory for checkpoints")
	flag.IntVar(&conf.Epochs, "epochs", conf.Epochs, "number of training epochs")
	flag.IntVar(&conf.BatchSize, "batch", conf.BatchSize, "training batch size")
	flag.IntVar(&conf.K, "k", conf.K, "discriminator updates per generator update")
	flag.Float64Var(&conf.Eta, "eta", conf.Eta, "learning rate for both optimizers")
	flag.IntVar(&conf.SampleEvery, "sample", conf.SampleEvery, "epochs between checkpoint and sample export")
	flag.Int64Var(&conf.RandSeed, "seed", conf.RandSeed, "random number seed")
	flag.Parse()

	if *configFile != "" {
		var err error
		conf, err = gan.LoadConfig(*configFile)
		nnet.CheckErr(err)
	}

	rng := nnet.SetSeed(conf.RandSeed)

	data, err := mnist.Load(conf.DataDir)
	nnet.CheckErr(err)
	dset := mnist.NewDataset(data, conf.BatchSize, rng)
	fmt.Printf("dataset: %d samples in %d batches of %d\n", dset.Samples, dset.Batches, dset.BatchSize)

	g := gan.New(conf, rng)
	fmt.Println(g.Gen)
	fmt.Println(g.Disc)

	if *resume {
		epoch, err := g.Restore()
		nnet.CheckErr(err)
		fmt.Println("resumed from checkpoint at epoch", epoch)
	}

	tester := gan.NewTestLogger()
	if *httpAddr != "" {
		monitor := web.NewMonitor(conf.ImageDir, tester)
		go func() {
			nnet.CheckErr(monitor.ListenAndServe(*httpAddr, *httpAuth))
		}()
		tester = monitor
	}

	nnet.CheckErr(g.Train(dset, tester))
}
