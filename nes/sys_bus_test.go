package nes

import (
	"testing"
)

func testBus() *SysBus {
	return NewSysBus(ProgramCartridge(nil), nil)
}

func TestBusRAMMirroring(t *testing.T) {
	bus := testBus()

	bus.Write(0x0000, 0x11)
	bus.Write(0x07FF, 0x22)

	for _, base := range []uint16{0x0800, 0x1000, 0x1800} {
		if got := bus.Read(base); got != 0x11 {
			t.Errorf("read(%04X) = %02X, want the byte at 0000", base, got)
		}
		if got := bus.Read(base + 0x07FF); got != 0x22 {
			t.Errorf("read(%04X) = %02X, want the byte at 07FF", base+0x07FF, got)
		}
	}

	// and writes through a mirror land in the same cell
	bus.Write(0x1FFF, 0x33)
	if got := bus.Read(0x07FF); got != 0x33 {
		t.Errorf("read(07FF) = %02X, want 33", got)
	}
}

func TestBusRAMMirrorLaw(t *testing.T) {
	bus := testBus()
	for i := uint16(0); i < ramSize; i++ {
		bus.Write(i, byte(i))
	}

	for addr := uint16(0); addr < 0x2000; addr++ {
		if bus.Read(addr) != bus.Read(addr&0x07FF) {
			t.Fatalf("read(%04X) != read(%04X)", addr, addr&0x07FF)
		}
	}
}

func TestBusPPURegisterMirrorLaw(t *testing.T) {
	bus := testBus()

	// a write through a high mirror behaves as its low register
	bus.Write(0x3FF6, 0x21) // $2006
	bus.Write(0x2FAE, 0x55) // $2006
	bus.Write(0x200F, 0x42) // $2007

	bus.PPU.ReadPort(PPUSTATUS)
	bus.Write(PPUADDR, 0x21)
	bus.Write(PPUADDR, 0x55)

	bus.Read(0x3FFF) // prime the buffer via the $2007 mirror
	if got := bus.Read(0x2007); got != 0x42 {
		t.Fatalf("mirrored PPUDATA write did not land: got %02X, want 42", got)
	}
}

func TestBusWriteOnlyReadsReturnZero(t *testing.T) {
	bus := testBus()

	for _, addr := range []uint16{0x2000, 0x2001, 0x2003, 0x2005, 0x2006, 0x4014} {
		if got := bus.Read(addr); got != 0 {
			t.Errorf("read(%04X) = %02X, want 0 for a write-only register", addr, got)
		}
	}
	if bus.fault != nil {
		t.Errorf("permissive bus latched a fault: %v", bus.fault)
	}
}

func TestBusStrictInvalidAccess(t *testing.T) {
	bus := testBus()
	bus.Strict = true

	bus.Read(0x2000)
	if _, ok := bus.takeFault().(*InvalidPpuAccessError); !ok {
		t.Errorf("strict bus should fault on a write-only read")
	}

	bus.Write(PPUSTATUS, 0x12)
	if _, ok := bus.takeFault().(*InvalidPpuAccessError); !ok {
		t.Errorf("strict bus should fault on a read-only write")
	}
}

func TestBusAPUStub(t *testing.T) {
	bus := testBus()

	for addr := uint16(0x4000); addr <= 0x4013; addr++ {
		bus.Write(addr, 0xFF)
		if got := bus.Read(addr); got != 0 {
			t.Errorf("read(%04X) = %02X, want 0 from the APU stub", addr, got)
		}
	}
	bus.Write(0x4015, 0x1F)
	if got := bus.Read(0x4015); got != 0 {
		t.Errorf("read(4015) = %02X, want 0", got)
	}
}

func TestBusUnmappedRange(t *testing.T) {
	bus := testBus()

	bus.Write(0x5000, 0xAB) // silently dropped
	if got := bus.Read(0x5000); got != 0 {
		t.Errorf("read(5000) = %02X, want 0", got)
	}
	if bus.fault != nil {
		t.Errorf("unmapped write latched a fault: %v", bus.fault)
	}
}

func TestBusROMWriteFaults(t *testing.T) {
	bus := testBus()

	bus.Write(0x8123, 0x01)
	err, ok := bus.takeFault().(*WriteToRomError)
	if !ok {
		t.Fatalf("expected a WriteToRomError")
	}
	if err.Address != 0x8123 {
		t.Fatalf("fault address = %04X, want 8123", err.Address)
	}
}

func TestBusControllers(t *testing.T) {
	bus := testBus()

	bus.Ctrl1.Press(A)
	bus.Ctrl1.Press(Start)

	// strobe, then shift out the eight buttons
	bus.Write(0x4016, 1)
	bus.Write(0x4016, 0)

	want := []byte{1, 0, 0, 1, 0, 0, 0, 0} // A, B, Select, Start, U, D, L, R
	for i, w := range want {
		if got := bus.Read(0x4016); got&1 != w {
			t.Errorf("controller bit %d = %d, want %d", i, got&1, w)
		}
	}
}

func TestBusOAMDMA(t *testing.T) {
	bus := testBus()

	page := byte(0x02)
	for i := 0; i < 256; i++ {
		bus.Write(uint16(page)<<8|uint16(i), byte(i)^0xA5)
	}
	bus.Write(OAMADDR, 0x00)

	before := bus.Cycles
	bus.Write(OAMDMA, page)

	// transfer cost: 513 cycles, 514 when started on an odd cycle
	want := uint64(513)
	if before&1 == 1 {
		want++
	}
	if got := bus.Cycles - before; got != want {
		t.Errorf("DMA advanced %d cycles, want %d", got, want)
	}

	for i := 0; i < 256; i++ {
		if got := bus.PPU.oamData[i]; got != byte(i)^0xA5 {
			t.Fatalf("oam[%d] = %02X, want %02X", i, got, byte(i)^0xA5)
		}
	}
}

func TestBusOAMDMAHonorsOAMADDR(t *testing.T) {
	bus := testBus()

	for i := 0; i < 256; i++ {
		bus.Write(uint16(i), byte(i))
	}
	bus.Write(OAMADDR, 0x80)
	bus.Write(OAMDMA, 0x00)

	// bytes land starting at OAMADDR and wrap
	if got := bus.PPU.oamData[0x80]; got != 0x00 {
		t.Errorf("oam[80] = %02X, want 00", got)
	}
	if got := bus.PPU.oamData[0x7F]; got != 0xFF {
		t.Errorf("oam[7F] = %02X, want FF", got)
	}
}

func TestBusTickDrivesPPU(t *testing.T) {
	bus := testBus()

	bus.Tick(10)
	if bus.PPU.Dot != 30 {
		t.Fatalf("ppu dot = %d after 10 CPU cycles, want 30", bus.PPU.Dot)
	}
}

func TestBusFrameCallback(t *testing.T) {
	frames := 0
	var view View
	bus := NewSysBus(ProgramCartridge(nil), func(v View) {
		frames++
		view = v
	})

	// a whole frame's worth of CPU cycles, rounded up
	bus.Tick(dotsPerLine*linesPerFrame/3 + 1)
	if frames != 1 {
		t.Fatalf("callback fired %d times, want 1", frames)
	}
	if view.Frame() == nil || len(view.Frame().Pix) != FrameWidth*FrameHeight*4 {
		t.Fatalf("callback view has no frame")
	}
	if len(view.OAM()) != 256 || len(view.Palette()) != 32 || len(view.VRAM()) != 2048 {
		t.Fatalf("callback view has wrong dimensions")
	}
}
