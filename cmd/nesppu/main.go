// Command nesppu loads an iNES ROM and drives it with the PPU/CPU
// core, presenting the output through ebiten.
package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/go-nes/ppucore/console"
	"github.com/go-nes/ppucore/mappers"
	"github.com/go-nes/ppucore/nesrom"
)

var (
	romPath = flag.String("nes_rom", "", "path to an iNES (.nes) ROM file to run")
	debug   = flag.Bool("debug", false, "drop into the text debugger instead of the ebiten UI, and raise glog verbosity to surface soft register/mapper diagnostics")
)

func main() {
	flag.Parse()

	if *debug {
		flag.Set("v", "1")
	}

	if *romPath == "" {
		log.Fatalf("-nes_rom is required")
	}

	rom, err := nesrom.New(*romPath)
	if err != nil {
		log.Fatalf("couldn't load ROM %q: %v", *romPath, err)
	}

	mapper, err := mappers.Get(rom)
	if err != nil {
		log.Fatalf("couldn't find mapper for ROM %q: %v", *romPath, err)
	}

	sys := console.New(mapper)

	if *debug {
		console.NewDebugger(sys).RunREPL()
		return
	}

	if err := ebiten.RunGame(sys); err != nil {
		log.Fatalf("ebiten.RunGame: %v", err)
	}
}
