// nestrace runs a ROM headless and prints one trace line per executed
// instruction, in the reference log format. It exists to diff emulator
// behavior against known-good logs:
//
//	nestrace -pc 0xC000 -n 8991 nestest.nes > got.log
package main

import (
	"bufio"
	"errors"
	"flag"
	"os"

	"github.com/golang/glog"
	"github.com/mlopes/tinynes/nes"
)

func main() {
	pc := flag.Uint("pc", 0, "force the start PC instead of the reset vector (0 keeps the vector)")
	n := flag.Int("n", 0, "number of instructions to execute (0 runs until a fault)")
	flag.Parse()
	defer glog.Flush()

	if flag.NArg() != 1 {
		glog.Exit("usage: nestrace [-pc addr] [-n count] rom.nes")
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	console, err := nes.LoadPath(flag.Arg(0), out, nil)
	if err != nil {
		glog.Exitf("unable to load %s: %v", flag.Arg(0), err)
	}
	glog.Infof("loaded %s", flag.Arg(0))

	if *pc != 0 {
		console.SetPC(uint16(*pc))
		glog.Infof("start pc forced to %04X", *pc)
	}

	for i := 0; *n == 0 || i < *n; i++ {
		if _, err := console.Step(); err != nil {
			out.Flush()

			var opErr *nes.IllegalOpcodeError
			if errors.As(err, &opErr) {
				glog.Exitf("halted after %d instructions: %v", i, err)
			}
			glog.Exitf("fault after %d instructions: %v", i, err)
		}
	}
}
