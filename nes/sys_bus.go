package nes

// ╔═════════════════╤═══════╤═════════════════════════╤═══════════╗
// ║ Address Range   │ Size  │ Purpose                 │ Kind      ║
// ╠═════════════════╪═══════╪═════════════════════════╪═══════════╣
// ║ 0xC000 - 0xFFFF │ 16384 │ PRG-ROM UPPER BANK      │           ║
// ╟╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌┼╌╌╌╌╌╌╌┼╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌┤  PRG ROM  ║
// ║ 0x8000 - 0xBFFF │ 16384 │ PRG-ROM LOWER BANK      │           ║
// ╠═════════════════╪═══════╪═════════════════════════╪═══════════╣
// ║ 0x4020 - 0x7FFF │ 16352 │ EXP ROM / SRAM (unused) │  Open     ║
// ╠═════════════════╪═══════╪═════════════════════════╪═══════════╣
// ║ 0x4000 - 0x401F │ 32    │ APU / I/O REGISTERS     │           ║
// ╟╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌┼╌╌╌╌╌╌╌┼╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌┤           ║
// ║ 0x2008 - 0x3FFF │ 8184  │ MIRRORS 0x2000 - 0x2007 │  I/O REG  ║
// ╟╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌┼╌╌╌╌╌╌╌┼╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌┤           ║
// ║ 0x2000 - 0x2007 │ 8     │ PPU REGISTERS           │           ║
// ╠═════════════════╪═══════╪═════════════════════════╪═══════════╣
// ║ 0x0800 - 0x1FFF │ 6144  │ MIRRORS 0x0000 - 0x07FF │           ║
// ╟╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌┼╌╌╌╌╌╌╌┼╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌┤    RAM    ║
// ║ 0x0100 - 0x01FF │ 256   │ STACK                   │           ║
// ╟╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌┼╌╌╌╌╌╌╌┼╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌╌┤           ║
// ║ 0x0000 - 0x00FF │ 256   │ ZERO PAGE               │           ║
// ╚═════════════════╧═══════╧═════════════════════════╧═══════════╝

// FrameFunc receives a read-only view of the PPU once per completed frame.
// It runs synchronously inside Tick and must not mutate CPU state.
type FrameFunc func(View)

// SysBus is the address-decoding fabric between the CPU and everything
// else. It owns the PPU's clock: the CPU reports its cycle spend through
// Tick, and the PPU advances three dots for every CPU cycle.
type SysBus struct {
	Cartridge *Cartridge
	RAM       *RAM
	APU       *APU
	PPU       *PPU
	Ctrl1     *Controller
	Ctrl2     *Controller

	// Cycles counts CPU cycles since power-on. It starts at 7, the cost of
	// the hardware reset sequence.
	Cycles uint64

	// Strict promotes invalid PPU register accesses from benign zeros and
	// dropped writes to latched faults.
	Strict bool

	onFrame FrameFunc
	fault   error
}

func NewSysBus(cartridge *Cartridge, onFrame FrameFunc) *SysBus {
	return &SysBus{
		Cartridge: cartridge,
		RAM:       NewRAM(),
		APU:       &APU{},
		PPU:       NewPPU(cartridge),
		Ctrl1:     &Controller{},
		Ctrl2:     &Controller{},
		Cycles:    7,
		onFrame:   onFrame,
	}
}

func (bus *SysBus) Read(address uint16) byte {
	switch {
	case address < 0x2000:
		return bus.RAM.Read(address)

	case address < 0x4000:
		v, ok := bus.PPU.ReadPort(address)
		if !ok && bus.Strict {
			bus.setFault(&InvalidPpuAccessError{Address: address})
		}
		return v

	case address == OAMDMA:
		// write-only
		return 0

	case address == 0x4016:
		return bus.Ctrl1.Read()

	case address == 0x4017:
		return bus.Ctrl2.Read()

	case address < 0x4020:
		return bus.APU.ReadPort(address)

	case address < 0x8000:
		// expansion ROM and SRAM are not wired on NROM
		return 0

	default:
		return bus.Cartridge.readPRG(address)
	}
}

func (bus *SysBus) Write(address uint16, v byte) {
	switch {
	case address < 0x2000:
		bus.RAM.Write(address, v)

	case address < 0x4000:
		if ok := bus.PPU.WritePort(address, v); !ok && bus.Strict {
			bus.setFault(&InvalidPpuAccessError{Address: address, Write: true})
		}

	case address == OAMDMA:
		bus.dmaTransfer(v)

	case address == 0x4016:
		bus.Ctrl1.Write(v)
		bus.Ctrl2.Write(v)

	case address < 0x4020:
		bus.APU.WritePort(address, v)

	case address < 0x8000:
		// dropped, nothing to store into

	default:
		bus.setFault(&WriteToRomError{Address: address})
	}
}

// Peek reads without side effects: PPU registers are observed through the
// PPU's peek path, so neither latches nor the PPU clock move. The
// disassembler depends on this.
func (bus *SysBus) Peek(address uint16) byte {
	switch {
	case address < 0x2000:
		return bus.RAM.Read(address)
	case address < 0x4000:
		return bus.PPU.PeekPort(address)
	case address < 0x8000:
		return 0
	default:
		return bus.Cartridge.readPRG(address)
	}
}

// ReadAddress reads a 16-bit little-endian word, used for the interrupt
// and reset vectors.
func (bus *SysBus) ReadAddress(address uint16) uint16 {
	lo := bus.Read(address)
	hi := bus.Read(address + 1)
	return uint16(hi)<<8 | uint16(lo)
}

// dmaTransfer copies CPU page $XX00-$XXFF into sprite memory, landing at
// the current OAMADDR. The transfer suspends the CPU for 513 cycles, one
// more when it starts on an odd cycle.
func (bus *SysBus) dmaTransfer(page byte) {
	cost := 513
	if bus.Cycles&1 == 1 {
		cost++
	}

	var buf [256]byte
	base := uint16(page) << 8
	for i := 0; i < 256; i++ {
		buf[i] = bus.Read(base + uint16(i))
	}
	bus.PPU.writeOAM(buf[:])

	bus.Tick(cost)
}

// Tick advances the shared clock by a CPU cycle count. The PPU runs three
// dots per CPU cycle; when it reports a completed frame, the registered
// frame callback fires with a read-only view of the PPU.
func (bus *SysBus) Tick(cpuCycles int) {
	bus.Cycles += uint64(cpuCycles)
	if bus.PPU.Tick(cpuCycles * 3) {
		if bus.onFrame != nil {
			bus.onFrame(View{p: bus.PPU})
		}
	}
}

// PollNMI reports and clears the PPU's pending NMI. The CPU samples this
// once per instruction boundary.
func (bus *SysBus) PollNMI() bool {
	return bus.PPU.PollNMI()
}

// setFault latches the first fault; the CPU surfaces it with the
// offending PC once the current instruction finishes.
func (bus *SysBus) setFault(err error) {
	if bus.fault == nil {
		bus.fault = err
	}
}

func (bus *SysBus) takeFault() error {
	err := bus.fault
	bus.fault = nil
	return err
}
