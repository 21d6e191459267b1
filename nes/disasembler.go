package nes

import (
	"fmt"
	"io"
	"strings"
)

// disassemble writes one trace line for the instruction at the current
// program counter, in the reference log format: four hex digits of PC, the
// raw instruction bytes padded to ten columns, the mnemonic, the operand
// pretty-printed with its effective address and dereferenced value, and
// the register file. Every memory access goes through the bus peek path,
// so tracing never disturbs the machine.
func disassemble(w io.Writer, c *CPU) {
	pc := c.PC
	inst := instructions[c.bus.Peek(pc)]

	var raw strings.Builder
	for i := uint16(0); i < uint16(inst.Size); i++ {
		if i > 0 {
			raw.WriteByte(' ')
		}
		fmt.Fprintf(&raw, "%02X", c.bus.Peek(pc+i))
	}

	fmt.Fprintf(w, "%04X  %-10s%s %-28sA:%02X X:%02X Y:%02X P:%02X SP:%02X\n",
		pc, raw.String(), inst.Name, c.operandString(inst, pc+1),
		c.A, c.X, c.Y, byte(c.P), c.S)
}

// operandString renders the operand field for the instruction whose
// operand bytes start at pos.
func (c *CPU) operandString(inst Instruction, pos uint16) string {
	peek := c.bus.Peek
	peek16 := func(address uint16) uint16 {
		return uint16(peek(address+1))<<8 | uint16(peek(address))
	}

	switch inst.Mode {
	case Implied:
		return ""

	case Accumulator:
		return "A"

	case Immediate:
		return fmt.Sprintf("#$%02X", peek(pos))

	case ZeroPage:
		addr := uint16(peek(pos))
		return fmt.Sprintf("$%02X = %02X", addr, peek(addr))

	case ZeroPageIndexedX:
		base := peek(pos)
		addr := base + c.X
		return fmt.Sprintf("$%02X,X @ %02X = %02X", base, addr, peek(uint16(addr)))

	case ZeroPageIndexedY:
		base := peek(pos)
		addr := base + c.Y
		return fmt.Sprintf("$%02X,Y @ %02X = %02X", base, addr, peek(uint16(addr)))

	case Absolute:
		addr := peek16(pos)
		if inst.Name == JMP || inst.Name == JSR {
			return fmt.Sprintf("$%04X", addr)
		}
		return fmt.Sprintf("$%04X = %02X", addr, peek(addr))

	case IndexedX:
		base := peek16(pos)
		addr := base + uint16(c.X)
		return fmt.Sprintf("$%04X,X @ %04X = %02X", base, addr, peek(addr))

	case IndexedY:
		base := peek16(pos)
		addr := base + uint16(c.Y)
		return fmt.Sprintf("$%04X,Y @ %04X = %02X", base, addr, peek(addr))

	case Relative:
		offset := peek(pos)
		return fmt.Sprintf("$%04X", pos+1+uint16(int8(offset)))

	case Indirect:
		pointer := peek16(pos)
		lo := peek(pointer)
		hi := peek(pointer&0xFF00 | uint16(byte(pointer)+1))
		return fmt.Sprintf("($%04X) = %04X", pointer, uint16(hi)<<8|uint16(lo))

	case PreIndexedIndirect:
		base := peek(pos)
		pointer := base + c.X
		addr := uint16(peek(uint16(pointer+1)))<<8 | uint16(peek(uint16(pointer)))
		return fmt.Sprintf("($%02X,X) @ %02X = %04X = %02X", base, pointer, addr, peek(addr))

	case PostIndexedIndirect:
		base := peek(pos)
		deref := uint16(peek(uint16(base+1)))<<8 | uint16(peek(uint16(base)))
		addr := deref + uint16(c.Y)
		return fmt.Sprintf("($%02X),Y = %04X @ %04X = %02X", base, deref, addr, peek(addr))
	}

	return ""
}
