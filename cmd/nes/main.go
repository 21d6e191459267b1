package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"
	"unsafe"

	"github.com/mlopes/tinynes/nes"
	"github.com/veandco/go-sdl2/sdl"
)

const zoom = 3

func init() {
	runtime.LockOSThread()
}

var keymap = map[sdl.Keycode]nes.Button{
	sdl.K_z:      nes.A,
	sdl.K_x:      nes.B,
	sdl.K_RSHIFT: nes.Select,
	sdl.K_RETURN: nes.Start,
	sdl.K_UP:     nes.Up,
	sdl.K_DOWN:   nes.Down,
	sdl.K_LEFT:   nes.Left,
	sdl.K_RIGHT:  nes.Right,
}

func run(console *nes.Console) error {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_GAMECONTROLLER); err != nil {
		return fmt.Errorf("unable to init sdl: %w", err)
	}
	defer sdl.Quit()

	window, err := sdl.CreateWindow("tinynes",
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		nes.FrameWidth*zoom, nes.FrameHeight*zoom,
		sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		return fmt.Errorf("unable to create window: %w", err)
	}
	defer window.Destroy()

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		return fmt.Errorf("unable to create renderer: %w", err)
	}
	defer renderer.Destroy()
	renderer.SetLogicalSize(nes.FrameWidth, nes.FrameHeight)

	texture, err := renderer.CreateTexture(
		sdl.PIXELFORMAT_ABGR8888, sdl.TEXTUREACCESS_STREAMING,
		nes.FrameWidth, nes.FrameHeight)
	if err != nil {
		return fmt.Errorf("unable to create texture: %w", err)
	}
	defer texture.Destroy()

	ticker := time.NewTicker(16 * time.Millisecond)
	defer ticker.Stop()

	paused := false
	for {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch evt := event.(type) {
			case *sdl.QuitEvent:
				return nil
			case *sdl.KeyboardEvent:
				if evt.Type == sdl.KEYUP && evt.Keysym.Sym == sdl.K_ESCAPE {
					return nil
				}
				if evt.Type == sdl.KEYUP && evt.Keysym.Sym == sdl.K_SPACE {
					paused = !paused
					continue
				}
				button, ok := keymap[evt.Keysym.Sym]
				if !ok {
					continue
				}
				if evt.Type == sdl.KEYDOWN {
					console.Press(0, button)
				} else if evt.Type == sdl.KEYUP {
					console.Release(0, button)
				}
			}
		}

		<-ticker.C
		if !paused {
			if err := console.StepFrame(); err != nil {
				return err
			}
		}

		pix := console.Buffer().Pix
		if err := texture.Update(nil, unsafe.Pointer(&pix[0]), nes.FrameWidth*4); err != nil {
			return err
		}
		renderer.Clear()
		renderer.Copy(texture, nil, nil)
		renderer.Present()
	}
}

func main() {
	trace := flag.Bool("trace", false, "write an execution trace to stdout")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [-trace] rom.nes\n", os.Args[0])
		os.Exit(2)
	}

	var out io.Writer
	if *trace {
		out = os.Stdout
	}

	console, err := nes.LoadPath(flag.Arg(0), out, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := run(console); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}
