// Command matinspect builds, loads and inspects tensor pool checkpoints.
//
//	matinspect -demo -steps 50 -save demo.pool -gif demo.gif
//	matinspect -load demo.pool -dot pool.dot -csv pool.csv
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gorgonia/matpool"
	"github.com/gorgonia/matpool/encoding/gif"
	"github.com/janpfeifer/must"
	"k8s.io/klog/v2"
)

var (
	flagDemo  = flag.Bool("demo", false, "build a small linear model and train it")
	flagSteps = flag.Int("steps", 20, "training steps for -demo")
	flagSeed  = flag.Int64("seed", 1337, "seed of the variance scaled initializer")
	flagLoad  = flag.String("load", "", "checkpoint to load")
	flagSave  = flag.String("save", "", "write a checkpoint here")
	flagDot   = flag.String("dot", "", "write the slot graph here")
	flagGIF   = flag.String("gif", "", "write weight heatmaps here")
	flagCSV   = flag.String("csv", "", "write per tensor norms here")
	flagScale = flag.Int("scale", 16, "pixels per weight in -gif")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	conf := matpool.DefaultConfig()
	conf.Name = "matinspect"
	conf.Seed = *flagSeed
	p := matpool.New(conf)

	if *flagLoad != "" {
		must.M(p.LoadFile(*flagLoad))
	}

	var enc *gif.Encoder
	var gifFile *os.File
	if *flagGIF != "" {
		gifFile = must.M1(os.Create(*flagGIF))
		defer gifFile.Close()
		enc = gif.NewEncoder(gifFile, *flagScale)
	}

	if *flagDemo {
		d, err := newDemo(p)
		if err != nil {
			klog.Fatalf("Failed to build the demo model: %+v", err)
		}
		for i := 0; i < *flagSteps; i++ {
			loss, err := d.step(0.1)
			if err != nil {
				klog.Fatalf("Step %d failed: %+v", i, err)
			}
			klog.Infof("step %d: loss %.6f", i, loss)
			if enc != nil {
				must.M(p.Record(enc, fmt.Sprintf("step %d", i), d.w))
			}
		}
	}

	if enc != nil && enc.Frames() == 0 {
		must.M(p.Record(enc, "checkpoint", p.Handles()...))
	}
	if enc != nil {
		must.M(enc.Flush())
	}
	if *flagSave != "" {
		must.M(p.SaveFile(*flagSave))
	}
	if *flagDot != "" {
		dot := must.M1(p.ToDot())
		must.M(os.WriteFile(*flagDot, []byte(dot), 0644))
	}
	if *flagCSV != "" {
		must.M(p.Dump(*flagCSV))
	}
	fmt.Println(p.Stats())
}
