package nes

import (
	"testing"
)

func TestConsoleStepFrame(t *testing.T) {
	// spin in place while the PPU runs out the frame
	c := newTestConsole([]byte{0x4C, 0x00, 0x80}) // JMP $8000

	before := c.bus.Cycles
	if err := c.StepFrame(); err != nil {
		t.Fatal(err)
	}

	// a frame is 262 x 341 dots, one CPU cycle per three dots
	got := c.bus.Cycles - before
	if got < 29770 || got > 29790 {
		t.Fatalf("frame took %d CPU cycles, want about 29781", got)
	}
}

func TestConsoleFrameCallbackCadence(t *testing.T) {
	frames := 0
	c := NewConsole(ProgramCartridge([]byte{0x4C, 0x00, 0x80}), 0, nil, func(View) {
		frames++
	})

	for i := 0; i < 3; i++ {
		if err := c.StepFrame(); err != nil {
			t.Fatal(err)
		}
	}
	if frames != 3 {
		t.Fatalf("callback fired %d times over 3 frames, want 3", frames)
	}
}

func TestConsoleNMI(t *testing.T) {
	program := []byte{
		0xA9, 0x80, // LDA #$80
		0x8D, 0x00, 0x20, // STA $2000  enable NMI on VBlank
		0x4C, 0x05, 0x80, // JMP $8005  spin
		0xA2, 0x55, // $8008: LDX #$55  NMI handler
		0x40, // RTI
	}
	cart := ProgramCartridge(program)
	cart.PRG[0x3FFA] = 0x08
	cart.PRG[0x3FFB] = 0x80

	c := NewConsole(cart, 0, nil, nil)

	// the handler must run within the first frame, and only between
	// instructions
	for i := 0; i < 20000 && c.cpu.X != 0x55; i++ {
		if _, err := c.cpu.Step(); err != nil {
			t.Fatal(err)
		}
	}
	if c.cpu.X != 0x55 {
		t.Fatalf("NMI handler never ran")
	}

	// RTI returns to the spin loop
	for i := 0; i < 4; i++ {
		if _, err := c.cpu.Step(); err != nil {
			t.Fatal(err)
		}
	}
	if pc := c.cpu.PC; pc != 0x8005 {
		t.Fatalf("PC after handler = %04X, want back in the spin loop", pc)
	}
}

func TestConsoleOAMDMARoundTrip(t *testing.T) {
	// program a DMA from page 3 and read OAM back through OAMDATA
	program := []byte{
		0xA9, 0x00, // LDA #$00
		0x8D, 0x03, 0x20, // STA $2003  OAMADDR = 0
		0xA9, 0x03, // LDA #$03
		0x8D, 0x14, 0x40, // STA $4014  DMA page 3
		0x00,
	}
	c := newTestConsole(program)
	for i := 0; i < 256; i++ {
		c.bus.Write(0x0300+uint16(i), byte(255-i))
	}

	run(t, c)

	for i := 0; i < 256; i++ {
		c.bus.Write(OAMADDR, byte(i))
		if got := c.bus.Read(OAMDATA); got != byte(255-i) {
			t.Fatalf("oam[%d] = %02X, want %02X", i, got, byte(255-i))
		}
	}
}

func TestConsolePermissivePpuRead(t *testing.T) {
	// reading the write-only PPUCTRL yields zero rather than a fault
	c := newTestConsole([]byte{0xAD, 0x00, 0x20, 0x00}) // LDA $2000

	cpu := run(t, c)
	if cpu.A != 0 {
		t.Fatalf("A = %02X, want 0 from a write-only register", cpu.A)
	}
}

func TestConsoleStrictPpuRead(t *testing.T) {
	c := newTestConsole([]byte{0xAD, 0x00, 0x20, 0x00})
	c.bus.Strict = true

	_, err := c.cpu.Step()
	accessErr, ok := err.(*InvalidPpuAccessError)
	if !ok {
		t.Fatalf("Step() error = %v, want *InvalidPpuAccessError", err)
	}
	if accessErr.PC != 0x8000 || accessErr.Address != 0x2000 {
		t.Fatalf("error = %v, want address 2000 at pc 8000", accessErr)
	}
}

func TestConsoleVRAMThroughBus(t *testing.T) {
	// the CPU programs the PPU through $2006/$2007: write $66 to $2305,
	// then read it back through the buffered protocol
	program := []byte{
		0xA9, 0x23, 0x8D, 0x06, 0x20, // LDA #$23; STA $2006
		0xA9, 0x05, 0x8D, 0x06, 0x20, // LDA #$05; STA $2006
		0xA9, 0x66, 0x8D, 0x07, 0x20, // LDA #$66; STA $2007
		0xAD, 0x02, 0x20, // LDA $2002  reset the latch
		0xA9, 0x23, 0x8D, 0x06, 0x20,
		0xA9, 0x05, 0x8D, 0x06, 0x20,
		0xAD, 0x07, 0x20, // LDA $2007  priming read
		0xAD, 0x07, 0x20, // LDA $2007  buffered byte
		0x00,
	}

	cpu := runProgram(t, program)
	if cpu.A != 0x66 {
		t.Fatalf("A = %02X, want 66 back from VRAM", cpu.A)
	}
}
