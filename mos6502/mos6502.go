// Package mos6502 implements the MOS Technologies 6502 processor
// https://en.wikipedia.org/wiki/MOS_Technology_6502
package mos6502

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/golang/glog"
)

// Bus is the CPU's view of the full 16-bit address space: internal
// RAM, PPU registers, controller ports and cartridge space all live
// behind it. The CPU itself owns no memory.
type Bus interface {
	Read(addr uint16) uint8
	Write(addr uint16, val uint8)
}

// 6502 Interrupt Vectors
// https://en.wikipedia.org/wiki/Interrupts_in_65xx_processors
const (
	INT_IRQ   = 0xFFFE
	INT_BRK   = INT_IRQ
	INT_RESET = 0xFFFC
	INT_NMI   = 0xFFFA
)

// 6502 Processor Status Flags
// https://www.nesdev.org/obelisk-6502-guide/registers.html
const (
	STATUS_FLAG_CARRY             = 1 << 0 // C
	STATUS_FLAG_ZERO              = 1 << 1 // Z
	STATUS_FLAG_INTERRUPT_DISABLE = 1 << 2 // I
	STATUS_FLAG_DECIMAL           = 1 << 3 // D
	STATUS_FLAG_BREAK             = 1 << 4 // B
	UNUSED_STATUS_FLAG            = 1 << 5 // This is never used but is always on
	STATUS_FLAG_OVERFLOW          = 1 << 6 // V
	STATUS_FLAG_NEGATIVE          = 1 << 7 // N
)

// 6502 Addressing Modes
// https://www.nesdev.org/obelisk-6502-guide/addressing.html
const (
	IMPLICIT = iota
	ACCUMULATOR
	IMMEDIATE
	ZERO_PAGE
	ZERO_PAGE_X
	ZERO_PAGE_Y
	RELATIVE
	ABSOLUTE
	ABSOLUTE_X
	ABSOLUTE_Y
	INDIRECT
	INDIRECT_X // Indexed Indirect
	INDIRECT_Y // Indirect Indexed
)

const STACK_PAGE = 0x0100

var modenames map[uint8]string = map[uint8]string{IMPLICIT: "IMPLICIT", ACCUMULATOR: "ACCUMULATOR", IMMEDIATE: "IMMEDIATE", ZERO_PAGE: "ZERO_PAGE", ZERO_PAGE_X: "ZERO_PAGE_X", ZERO_PAGE_Y: "ZERO_PAGE_Y", RELATIVE: "RELATIVE", ABSOLUTE: "ABSOLUTE", ABSOLUTE_X: "ABSOLUTE_X", ABSOLUTE_Y: "ABSOLUTE_Y", INDIRECT: "INDIRECT", INDIRECT_X: "INDIRECT_X", INDIRECT_Y: "INDIRECT_Y"}

// 6502 Instructions
// https://www.nesdev.org/obelisk-6502-guide/instructions.html
// https://www.nesdev.org/obelisk-6502-guide/reference.html
const (
	ADC = iota // ADD with Carry
	AND        // Logical AND
	ASL        // Arithmetic Shift Left
	BCC        // Branch if Carry Clear
	BCS        // Branch if Carry Set
	BEQ        // Branch if Equal
	BIT        // Bit Test
	BMI        // Branch if Minus
	BNE        // Branch if Not Equal
	BPL        // Branch if Positive
	BRK        // Force Interrupt
	BVC        // Branch if Overflow Clear
	BVS        // Branch if Overflow Set
	CLC        // Clear Carry Flag
	CLD        // Clear Decimal Mode
	CLI        // Clear Interrupt Disable
	CLV        // Clear Overflow Flag
	CMP        // Compare
	CPX        // Compare X Register
	CPY        // compare Y Regsiter
	DEC        // Decrement Memory
	DEX        // Decrement X Register
	DEY        // Decrement Y Register
	EOR        // Exclusive OR
	INC        // Increment Memory
	INX        // Increment X Register
	INY        // Increment Y Register
	JMP        // Jump
	JSR        // Jump to Subroutine
	LDA        // Load Accumulator
	LDX        // Load X Register
	LDY        // Load Y Register
	LSR        // Logical Shift Right
	NOP        // No Operation
	ORA        // Logical Inclusive OR
	PHA        // Push Accumulator
	PHP        // Push Processor Status
	PLA        // Pull Accumulator
	PLP        // Pull Processor Status
	ROL        // Rotate Left
	ROR        // Rotate Right
	RTI        // Return from Interrupt
	RTS        // Return from Subroutine
	SBC        // Subtract With Carry
	SEC        // Set Carry Flag
	SED        // Set Decimal Flag
	SEI        // Set Interrupt Disable
	STA        // Store Accumulator
	STX        // Store X Register
	STY        // Store Y Register
	TAX        // Transfer Accumulator to X
	TAY        // Transfer Accumulator to Y
	TSX        // Transfer Stack Pointer to X
	TXA        // Transfer X to Accumulator
	TXS        // Transfer X to Stack Pointer
	TYA        // Transfer Y to Accumulator
)

type opcode struct {
	inst   uint8 // The instruction id
	name   string
	mode   uint8 // The memory addressing mode to use
	bytes  uint8 // The number of bytes the instruction occupies, opcode included
	cycles uint8 // The number of cycles consumed by the instruction
}

func (o opcode) String() string {
	return fmt.Sprintf("{%s, %s}", o.name, modenames[o.mode])
}

var opcodes map[uint8]opcode = map[uint8]opcode{
	// ADC
	0x69: opcode{ADC, "ADC", IMMEDIATE, 2, 2},
	0x65: opcode{ADC, "ADC", ZERO_PAGE, 2, 3},
	0x75: opcode{ADC, "ADC", ZERO_PAGE_X, 2, 4},
	0x6D: opcode{ADC, "ADC", ABSOLUTE, 3, 4},
	0x7D: opcode{ADC, "ADC", ABSOLUTE_X, 3, 4 /* +1 if page crossed */},
	0x79: opcode{ADC, "ADC", ABSOLUTE_Y, 3, 4 /* +1 if page crossed*/},
	0x61: opcode{ADC, "ADC", INDIRECT_X, 2, 6},
	0x71: opcode{ADC, "ADC", INDIRECT_Y, 2, 5 /* +1 if page crossed*/},
	0x29: opcode{AND, "AND", IMMEDIATE, 2, 2},
	0x25: opcode{AND, "AND", ZERO_PAGE, 2, 3},
	0x35: opcode{AND, "AND", ZERO_PAGE_X, 2, 4},
	0x2D: opcode{AND, "AND", ABSOLUTE, 3, 4},
	0x3D: opcode{AND, "AND", ABSOLUTE_X, 3, 4 /* + 1 if page crossed*/},
	0x39: opcode{AND, "AND", ABSOLUTE_Y, 3, 4 /* +1 if page crossed*/},
	0x21: opcode{AND, "AND", INDIRECT_X, 2, 6},
	0x31: opcode{AND, "AND", INDIRECT_Y, 2, 5 /* +1 if page crossed*/},
	0x0A: opcode{ASL, "ASL", ACCUMULATOR, 1, 2},
	0x06: opcode{ASL, "ASL", ZERO_PAGE, 2, 5},
	0x16: opcode{ASL, "ASL", ZERO_PAGE_X, 2, 6},
	0x0E: opcode{ASL, "ASL", ABSOLUTE, 3, 6},
	0x1E: opcode{ASL, "ASL", ABSOLUTE_X, 3, 7},
	0x90: opcode{BCC, "BCC", RELATIVE, 2, 2 /* +1 if branch succeeds +2 if to a new page */},
	0xB0: opcode{BCS, "BCS", RELATIVE, 2, 2 /* +1 if branch succeeds +2 if to a new page */},
	0xF0: opcode{BEQ, "BEQ", RELATIVE, 2, 2 /* +1 if branch succeeds +2 if to a new page */},
	0x24: opcode{BIT, "BIT", ZERO_PAGE, 2, 3},
	0x2C: opcode{BIT, "BIT", ABSOLUTE, 3, 4},
	0x30: opcode{BMI, "BMI", RELATIVE, 2, 2 /* +1 if branch succeeds +2 if to a new page */},
	0xD0: opcode{BNE, "BNE", RELATIVE, 2, 2 /* +1 if branch succeeds +2 if to a new page */},
	0x10: opcode{BPL, "BPL", RELATIVE, 2, 2 /* +1 if branch succeeds +2 if to a new page */},
	0x00: opcode{BRK, "BRK", IMPLICIT, 2, 7},
	0x50: opcode{BVC, "BVC", RELATIVE, 2, 2 /* +1 if branch succeeds +2 if to a new page */},
	0x70: opcode{BVS, "BVS", RELATIVE, 2, 2 /* +1 if branch succeeds +2 if to a new page */},
	0x18: opcode{CLC, "CLC", IMPLICIT, 1, 2},
	0xD8: opcode{CLD, "CLD", IMPLICIT, 1, 2},
	0x58: opcode{CLI, "CLI", IMPLICIT, 1, 2},
	0xB8: opcode{CLV, "CLV", IMPLICIT, 1, 2},
	0xC9: opcode{CMP, "CMP", IMMEDIATE, 2, 2},
	0xC5: opcode{CMP, "CMP", ZERO_PAGE, 2, 3},
	0xD5: opcode{CMP, "CMP", ZERO_PAGE_X, 2, 4},
	0xCD: opcode{CMP, "CMP", ABSOLUTE, 3, 4},
	0xDD: opcode{CMP, "CMP", ABSOLUTE_X, 3, 4 /* +1 if page crossed */},
	0xD9: opcode{CMP, "CMP", ABSOLUTE_Y, 3, 4 /* +1 if page crossed */},
	0xC1: opcode{CMP, "CMP", INDIRECT_X, 2, 6},
	0xD1: opcode{CMP, "CMP", INDIRECT_Y, 2, 5 /* +1 if page crossed */},
	0xE0: opcode{CPX, "CPX", IMMEDIATE, 2, 2},
	0xE4: opcode{CPX, "CPX", ZERO_PAGE, 2, 3},
	0xEC: opcode{CPX, "CPX", ABSOLUTE, 3, 4},
	0xC0: opcode{CPY, "CPY", IMMEDIATE, 2, 2},
	0xC4: opcode{CPY, "CPY", ZERO_PAGE, 2, 3},
	0xCC: opcode{CPY, "CPY", ABSOLUTE, 3, 4},
	0xC6: opcode{DEC, "DEC", ZERO_PAGE, 2, 5},
	0xD6: opcode{DEC, "DEC", ZERO_PAGE_X, 2, 6},
	0xCE: opcode{DEC, "DEC", ABSOLUTE, 3, 6},
	0xDE: opcode{DEC, "DEC", ABSOLUTE_X, 3, 7},
	0xCA: opcode{DEX, "DEX", IMPLICIT, 1, 2},
	0x88: opcode{DEY, "DEY", IMPLICIT, 1, 2},
	0x49: opcode{EOR, "EOR", IMMEDIATE, 2, 2},
	0x45: opcode{EOR, "EOR", ZERO_PAGE, 2, 3},
	0x55: opcode{EOR, "EOR", ZERO_PAGE_X, 2, 4},
	0x4D: opcode{EOR, "EOR", ABSOLUTE, 3, 4},
	0x5D: opcode{EOR, "EOR", ABSOLUTE_X, 3, 4 /* +1 if page crossed */},
	0x59: opcode{EOR, "EOR", ABSOLUTE_Y, 3, 4 /* +1 if page crossed */},
	0x41: opcode{EOR, "EOR", INDIRECT_X, 2, 6},
	0x51: opcode{EOR, "EOR", INDIRECT_Y, 2, 5 /* +1 if page crossed */},
	0xE6: opcode{INC, "INC", ZERO_PAGE, 2, 5},
	0xF6: opcode{INC, "INC", ZERO_PAGE_X, 2, 6},
	0xEE: opcode{INC, "INC", ABSOLUTE, 3, 6},
	0xFE: opcode{INC, "INC", ABSOLUTE_X, 3, 7},
	0xE8: opcode{INX, "INX", IMPLICIT, 1, 2},
	0xC8: opcode{INY, "INY", IMPLICIT, 1, 2},
	0x4C: opcode{JMP, "JMP", ABSOLUTE, 3, 3},
	0x6C: opcode{JMP, "JMP", INDIRECT, 3, 5},
	0x20: opcode{JSR, "JSR", ABSOLUTE, 3, 6},
	0xA9: opcode{LDA, "LDA", IMMEDIATE, 2, 2},
	0xA5: opcode{LDA, "LDA", ZERO_PAGE, 2, 3},
	0xB5: opcode{LDA, "LDA", ZERO_PAGE_X, 2, 4},
	0xAD: opcode{LDA, "LDA", ABSOLUTE, 3, 4},
	0xBD: opcode{LDA, "LDA", ABSOLUTE_X, 3, 4 /* +1 if page crossed */},
	0xB9: opcode{LDA, "LDA", ABSOLUTE_Y, 3, 4 /* +1 if page crossed */},
	0xA1: opcode{LDA, "LDA", INDIRECT_X, 2, 6},
	0xB1: opcode{LDA, "LDA", INDIRECT_Y, 2, 5 /* +1 if page crossed */},
	0xA2: opcode{LDX, "LDX", IMMEDIATE, 2, 2},
	0xA6: opcode{LDX, "LDX", ZERO_PAGE, 2, 3},
	0xB6: opcode{LDX, "LDX", ZERO_PAGE_Y, 2, 4},
	0xAE: opcode{LDX, "LDX", ABSOLUTE, 3, 4},
	0xBE: opcode{LDX, "LDX", ABSOLUTE_Y, 3, 4 /* +1 if page crossed */},
	0xA0: opcode{LDY, "LDY", IMMEDIATE, 2, 2},
	0xA4: opcode{LDY, "LDY", ZERO_PAGE, 2, 3},
	0xB4: opcode{LDY, "LDY", ZERO_PAGE_X, 2, 4},
	0xAC: opcode{LDY, "LDY", ABSOLUTE, 3, 4},
	0xBC: opcode{LDY, "LDY", ABSOLUTE_X, 3, 4 /* +1 if page crossed */},
	0x4A: opcode{LSR, "LSR", ACCUMULATOR, 1, 2},
	0x46: opcode{LSR, "LSR", ZERO_PAGE, 2, 5},
	0x56: opcode{LSR, "LSR", ZERO_PAGE_X, 2, 6},
	0x4E: opcode{LSR, "LSR", ABSOLUTE, 3, 6},
	0x5E: opcode{LSR, "LSR", ABSOLUTE_X, 3, 7},
	0xEA: opcode{NOP, "NOP", IMPLICIT, 1, 2},
	0x09: opcode{ORA, "ORA", IMMEDIATE, 2, 2},
	0x05: opcode{ORA, "ORA", ZERO_PAGE, 2, 3},
	0x15: opcode{ORA, "ORA", ZERO_PAGE_X, 2, 4},
	0x0D: opcode{ORA, "ORA", ABSOLUTE, 3, 4},
	0x1D: opcode{ORA, "ORA", ABSOLUTE_X, 3, 4 /* +1 if page crossed */},
	0x19: opcode{ORA, "ORA", ABSOLUTE_Y, 3, 4 /* +1 if page crossed */},
	0x01: opcode{ORA, "ORA", INDIRECT_X, 2, 6},
	0x11: opcode{ORA, "ORA", INDIRECT_Y, 2, 5 /* +1 if page crossed */},
	0x48: opcode{PHA, "PHA", IMPLICIT, 1, 3},
	0x08: opcode{PHP, "PHP", IMPLICIT, 1, 3},
	0x68: opcode{PLA, "PLA", IMPLICIT, 1, 4},
	0x28: opcode{PLP, "PLP", IMPLICIT, 1, 4},
	0x2A: opcode{ROL, "ROL", ACCUMULATOR, 1, 2},
	0x26: opcode{ROL, "ROL", ZERO_PAGE, 2, 5},
	0x36: opcode{ROL, "ROL", ZERO_PAGE_X, 2, 6},
	0x2E: opcode{ROL, "ROL", ABSOLUTE, 3, 6},
	0x3E: opcode{ROL, "ROL", ABSOLUTE_X, 3, 7},
	0x6A: opcode{ROR, "ROR", ACCUMULATOR, 1, 2},
	0x66: opcode{ROR, "ROR", ZERO_PAGE, 2, 5},
	0x76: opcode{ROR, "ROR", ZERO_PAGE_X, 2, 6},
	0x6E: opcode{ROR, "ROR", ABSOLUTE, 3, 6},
	0x7E: opcode{ROR, "ROR", ABSOLUTE_X, 3, 7},
	0x40: opcode{RTI, "RTI", IMPLICIT, 1, 6},
	0x60: opcode{RTS, "RTS", IMPLICIT, 1, 6},
	0xE9: opcode{SBC, "SBC", IMMEDIATE, 2, 2},
	0xE5: opcode{SBC, "SBC", ZERO_PAGE, 2, 3},
	0xF5: opcode{SBC, "SBC", ZERO_PAGE_X, 2, 4},
	0xED: opcode{SBC, "SBC", ABSOLUTE, 3, 4},
	0xFD: opcode{SBC, "SBC", ABSOLUTE_X, 3, 4 /* +1 if page crossed */},
	0xF9: opcode{SBC, "SBC", ABSOLUTE_Y, 3, 4 /* +1 if page crossed */},
	0xE1: opcode{SBC, "SBC", INDIRECT_X, 2, 6},
	0xF1: opcode{SBC, "SBC", INDIRECT_Y, 2, 5 /* +1 if page crossed */},
	0x38: opcode{SEC, "SEC", IMPLICIT, 1, 2},
	0xF8: opcode{SED, "SED", IMPLICIT, 1, 2},
	0x78: opcode{SEI, "SEI", IMPLICIT, 1, 2},
	0x85: opcode{STA, "STA", ZERO_PAGE, 2, 3},
	0x95: opcode{STA, "STA", ZERO_PAGE_X, 2, 4},
	0x8D: opcode{STA, "STA", ABSOLUTE, 3, 4},
	0x9D: opcode{STA, "STA", ABSOLUTE_X, 3, 5},
	0x99: opcode{STA, "STA", ABSOLUTE_Y, 3, 5},
	0x81: opcode{STA, "STA", INDIRECT_X, 2, 6},
	0x91: opcode{STA, "STA", INDIRECT_Y, 2, 6},
	0x86: opcode{STX, "STX", ZERO_PAGE, 2, 3},
	0x96: opcode{STX, "STX", ZERO_PAGE_Y, 2, 4},
	0x8E: opcode{STX, "STX", ABSOLUTE, 3, 4},
	0x84: opcode{STY, "STY", ZERO_PAGE, 2, 3},
	0x94: opcode{STY, "STY", ZERO_PAGE_X, 2, 4},
	0x8C: opcode{STY, "STY", ABSOLUTE, 3, 4},
	0xAA: opcode{TAX, "TAX", IMPLICIT, 1, 2},
	0xA8: opcode{TAY, "TAY", IMPLICIT, 1, 2},
	0xBA: opcode{TSX, "TSX", IMPLICIT, 1, 2},
	0x8A: opcode{TXA, "TXA", IMPLICIT, 1, 2},
	0x9A: opcode{TXS, "TXS", IMPLICIT, 1, 2},
	0x98: opcode{TYA, "TYA", IMPLICIT, 1, 2},
}

// How much addressable memory we have
const MEM_SIZE = 1 << 16

var flagMap map[uint8]byte = map[uint8]byte{
	STATUS_FLAG_CARRY:             'C',
	STATUS_FLAG_ZERO:              'Z',
	STATUS_FLAG_INTERRUPT_DISABLE: 'I',
	STATUS_FLAG_DECIMAL:           'D',
	STATUS_FLAG_BREAK:             'B',
	UNUSED_STATUS_FLAG:            '-',
	STATUS_FLAG_OVERFLOW:          'V',
	STATUS_FLAG_NEGATIVE:          'N',
}

func statusString(p uint8) string {
	var sb strings.Builder

	flags := []uint8{
		STATUS_FLAG_NEGATIVE,
		STATUS_FLAG_OVERFLOW,
		UNUSED_STATUS_FLAG,
		STATUS_FLAG_BREAK,
		STATUS_FLAG_DECIMAL,
		STATUS_FLAG_INTERRUPT_DISABLE,
		STATUS_FLAG_ZERO,
		STATUS_FLAG_CARRY,
	}

	for _, f := range flags {
		if p&f > 0 {
			sb.WriteByte(flagMap[f])
		} else {
			sb.WriteByte('.')
		}
	}

	return sb.String()
}

// CPU implements all of the machine state for the 6502.
type CPU struct {
	acc    uint8  // main register
	x, y   uint8  // index registers
	status uint8  // a register for storing various status bits
	sp     uint8  // stack pointer - stack is 0x0100-0x01FF so only 8 bits needed
	pc     uint16 // the program counter
	bus    Bus    // the rest of the address space
	cycles uint8  // how many cycles to wait until next instruction
	stall  uint16 // extra cycles to burn for things like OAM DMA

	nmiPending bool
}

func (c *CPU) String() string {
	return fmt.Sprintf("A,X,Y: %4d, %4d, %4d; PC: 0x%04x, SP: 0x%02x, P: %s; OP: %s", c.acc, c.x, c.y, c.pc, c.sp, statusString(c.status), opcodes[c.Read(c.pc)])
}

// New returns a CPU wired to the given bus, with its registers set to
// NES power-on state.
// https://nesdev-wiki.nes.science/wikipages/CPU_ALL.xhtml#Power_up_state
func New(b Bus) *CPU {
	c := &CPU{
		sp:     0xFD,
		bus:    b,
		status: UNUSED_STATUS_FLAG | STATUS_FLAG_BREAK | STATUS_FLAG_INTERRUPT_DISABLE,
	}
	c.pc = c.memRead16(INT_RESET)
	return c
}

// LoadMem copies data into the bus starting at addr. Intended for
// test fixtures and the debugger, not the running emulator.
func (c *CPU) LoadMem(addr uint16, data []byte) {
	for i, b := range data {
		c.Write(addr+uint16(i), b)
	}
}

// PC returns the current program counter.
func (c *CPU) PC() uint16 {
	return c.pc
}

// SetPC forces the program counter to addr.
func (c *CPU) SetPC(addr uint16) {
	c.pc = addr
}

// Read returns the byte at addr from the CPU's bus.
func (c *CPU) Read(addr uint16) uint8 {
	return c.bus.Read(addr)
}

// Write stores val at addr on the CPU's bus.
func (c *CPU) Write(addr uint16, val uint8) {
	c.bus.Write(addr, val)
}

// Read16 returns the two bytes at addr (lower byte first).
func (c *CPU) Read16(addr uint16) uint16 {
	lsb := uint16(c.Read(addr))
	msb := uint16(c.Read(addr + 1))
	return (msb << 8) | lsb
}

// Write16 stores val at addr (lower byte first).
func (c *CPU) Write16(addr, val uint16) {
	c.Write(addr, uint8(val&0x00FF))
	c.Write(addr+1, uint8(val>>8))
}

// AssertNMI latches a pending non-maskable interrupt; it is serviced
// at the start of the next Step once the in-flight instruction (if
// any) finishes.
func (c *CPU) AssertNMI() {
	c.nmiPending = true
}

// Stall burns n extra cycles before the next instruction fetch,
// mimicking the CPU suspension OAM DMA imposes on real hardware.
func (c *CPU) Stall(n uint16) {
	c.stall += n
}

// StackAddr returns the absolute address of the top of the stack.
func (c *CPU) StackAddr() uint16 {
	return c.getStackAddr()
}

// Inst disassembles the instruction currently under the program
// counter, including its operand bytes.
func (c *CPU) Inst() string {
	op := opcodes[c.Read(c.pc)]
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s ", op)
	for i := uint8(1); i < op.bytes; i++ {
		fmt.Fprintf(&sb, "0x%02x ", c.Read(c.pc+uint16(i)))
	}
	return sb.String()
}

var invalidInstruction = errors.New("invalid instruction")

func (c *CPU) getInst() (opcode, error) {
	m := c.memRead(c.pc)
	op, ok := opcodes[m]
	if !ok {
		return opcode{}, fmt.Errorf("pc: %d, inst: 0x%02x - %w", c.pc, m, invalidInstruction)
	}

	return op, nil
}

// memRead returns the byte from memory at addr
func (c *CPU) memRead(addr uint16) uint8 {
	return c.Read(addr)
}

// memRange returns a slice of memory addresses from low to
// high. Mostly useful for debugging.
func (c *CPU) memRange(low, high uint16) []uint8 {
	ret := make([]uint8, 0, high-low)
	for i := low; i <= high; i += 1 {
		ret = append(ret, c.Read(uint16(i)))
	}

	return ret
}

// memWrite writes val to memory at addr
func (c *CPU) memWrite(addr uint16, val uint8) {
	c.Write(addr, val)
}

// memRead16 returns the two bytes from memory at addr (lower byte is
// first).
func (c *CPU) memRead16(addr uint16) uint16 {
	return c.Read16(addr)
}

func (c *CPU) memWrite16(addr, val uint16) {
	c.Write16(addr, val)
}

// getOperandAddr takes a mode and returns an address for the operand
// referenced by the program counter. It assumes that the counter was
// incremented past the actual instruction itself.
func (c *CPU) getOperandAddr(mode uint8) uint16 {
	var addr uint16
	switch mode {
	case ACCUMULATOR:
		panic("ACCUMULATOR Address mode should never use this method")
	case IMPLICIT:
		panic("IMPLICIT Address mode should never use this method")
	case IMMEDIATE:
		addr = c.pc
	case ZERO_PAGE:
		addr = uint16(c.memRead(c.pc))
	case ZERO_PAGE_X:
		return uint16(c.memRead(c.pc) + c.x)
	case ZERO_PAGE_Y:
		return uint16(c.memRead(c.pc) + c.y)
	case ABSOLUTE:
		return c.memRead16(c.pc)
	case ABSOLUTE_X:
		a := c.memRead16(c.pc)
		addr = a + uint16(c.x)
		c.cycles += extraCycles(a, addr)
	case ABSOLUTE_Y:
		a := c.memRead16(c.pc)
		addr = a + uint16(c.y)
		c.cycles += extraCycles(a, addr)
	case INDIRECT:
		return c.memRead16(c.memRead16(c.pc))
	case INDIRECT_X:
		return c.memRead16(uint16(c.memRead(c.pc) + c.x))
	case INDIRECT_Y:
		a := c.memRead16(uint16(c.memRead(c.pc)))
		addr = a + uint16(c.y)
		c.cycles += extraCycles(a, addr)
	case RELATIVE:
		// Relative from PC at time of instruction
		// execution. We advance pc as soon as we eat the byte
		// from memory to decode the instruction, so we need
		// to account for that here and step over the relative
		// argument while calculating the new target address.
		addr = (c.pc + 1) + uint16(int8(c.memRead(c.pc)))
	default:
		panic("Invalid addressing mode")

	}

	return addr
}

// Reset sets the interrupt-disable and unused status flags and loads
// the program counter from the reset vector. The other registers and
// the rest of the address space are left as they are.
func (c *CPU) Reset() {
	c.flagsOn(STATUS_FLAG_INTERRUPT_DISABLE | UNUSED_STATUS_FLAG)
	c.pc = c.memRead16(INT_RESET)
}

// nmi transfers control to the NMI vector, mimicking the interrupt
// sequence a BRK would trigger but leaving the break flag clear.
// https://www.nesdev.org/wiki/CPU_interrupts
func (c *CPU) nmi() {
	c.pushAddress(c.pc)
	c.pushStack((c.status | UNUSED_STATUS_FLAG) &^ STATUS_FLAG_BREAK)
	c.flagsOn(STATUS_FLAG_INTERRUPT_DISABLE)
	c.pc = c.memRead16(INT_NMI)
	c.cycles = 7
	c.nmiPending = false
}

// Step advances the CPU by a single cycle. If an instruction is
// already in flight it simply burns one of its remaining wait
// cycles; once the instruction completes, the next call fetches and
// executes whatever comes next, servicing any pending NMI first.
func (c *CPU) Step() {
	if c.stall > 0 {
		c.stall -= 1
		return
	}

	if c.cycles > 0 {
		c.cycles -= 1
		return
	}

	if c.nmiPending {
		c.nmi()
		return
	}

	op, err := c.getInst()
	if err != nil {
		glog.Errorf("invalid instruction at 0x%04x: %v", c.pc, err)
		panic(err)
	}

	c.cycles += op.cycles
	c.pc += 1
	opc := c.pc

	v := reflect.ValueOf(c)
	v.MethodByName(op.name).Call([]reflect.Value{reflect.ValueOf(op.mode)})

	// If we didn't branch, move the PC beyond the full width of
	// the instruction. We consumed the first byte for the
	// instruction code, so only skip over the remaining argument
	// bytes.
	if c.pc == opc {
		c.pc += uint16(op.bytes) - 1
	}
}

// setNegativeAndZeroFlags sets the STATUS_FLAG_NEGATIVE and
// STATUS_FLAG_ZERO bits of the status register accordingly for the
// value specified in n.
func (c *CPU) setNegativeAndZeroFlags(n uint8) {
	if n == 0 {
		c.flagsOn(STATUS_FLAG_ZERO)
	} else {
		c.flagsOff(STATUS_FLAG_ZERO)
	}

	if n&0b1000_0000 != 0 {
		c.flagsOn(STATUS_FLAG_NEGATIVE)
	} else {
		c.flagsOff(STATUS_FLAG_NEGATIVE)
	}
}

func (c *CPU) getStackAddr() uint16 {
	return STACK_PAGE + uint16(c.sp)
}

func (c *CPU) pushStack(val uint8) {
	c.memWrite(c.getStackAddr(), val)
	c.sp -= 1
}

func (c *CPU) popStack() uint8 {
	c.sp += 1
	return c.memRead(c.getStackAddr())
}

func (c *CPU) pushAddress(addr uint16) {
	c.pushStack(uint8(addr >> 8))     // high
	c.pushStack(uint8(addr & 0x00FF)) // low
}

func (c *CPU) popAddress() uint16 {
	return uint16(c.popStack()) | (uint16(c.popStack()) << 8)
}

// flagsOn forces the flags in mask (STATUS_FLAG_XXX|STATUS_FLAG_YYY)
// on in the status register.
func (c *CPU) flagsOn(mask uint8) {
	c.status = c.status | mask
}

// flagsOff forces the flags in mask (STATUS_FLAG_XXX|STATUS_FLAG_YYY)
// off in the status register.
func (c *CPU) flagsOff(mask uint8) {
	c.status = c.status &^ mask
}

// extraCycles returns 0 if addr1 and add2 are in the same page, 1
// otherwise. This is useful for instructions that take a variable
// number of cycles, depending on whether or not a page boundary is
// crossed.
func extraCycles(addr1, addr2 uint16) uint8 {
	if addr1&0xFF00 != addr2&0xFF00 {
		return 1
	}
	return 0
}

// branch will adjust the PC conditionally based on whether the mask
// bits are set and the resulting comparison is expected to be true or
// false. This allows you to check for STATUS_FLAG being set or
// cleared by: branch(STATUS_FLAG_OVERFLOW, false) -> branch
// when OVERFLOW not set.
func (c *CPU) branch(mask uint8, predicate bool) {
	if (c.status&mask > 0) == predicate {
		a := c.getOperandAddr(RELATIVE)
		// Branching instructions take an extra cycle if they
		// cause a page break pc-1 because we increment it
		// right after reading the op, but that's where we
		// branch from so that's where we compare for page
		// break
		c.cycles += extraCycles(a, c.pc-1)
		c.cycles += 1 // successful branches take an extra cycle
		c.pc = a
	}
}

// addWithOverflow adds b to c.acc handling overflow, carry and ZN
// flag setting as appropriate.
func (c *CPU) addWithOverflow(b uint8) {
	res16 := uint16(c.acc) + uint16(b) + uint16(c.status&STATUS_FLAG_CARRY)
	res := uint8(res16)

	var mask uint8
	if (res16 & 0x100) != 0 {
		mask = mask | STATUS_FLAG_CARRY
	}
	if (c.acc^res)&(b^res)&0x80 != 0 {
		mask = mask | STATUS_FLAG_OVERFLOW
	}

	c.flagsOff(STATUS_FLAG_CARRY | STATUS_FLAG_OVERFLOW | STATUS_FLAG_NEGATIVE | STATUS_FLAG_ZERO)
	c.flagsOn(mask)

	c.acc = res
	c.setNegativeAndZeroFlags(c.acc)
}

// baseCMP does comparison operations on a and b, setting flags
// accordingly.
func (c *CPU) baseCMP(a, b uint8) {
	c.setNegativeAndZeroFlags(a - b)
	if a >= b {
		c.flagsOn(STATUS_FLAG_CARRY)
	} else {
		c.flagsOff(STATUS_FLAG_CARRY)
	}
}

// encodeBCD packs a decimal value 0-99 into packed binary-coded
// decimal (one nibble per digit).
func encodeBCD(decimal uint8) uint8 {
	return (decimal/10)<<4 | decimal%10
}

// decodeBCD unpacks a binary-coded decimal byte into its decimal
// value 0-99.
func decodeBCD(bcd uint8) uint8 {
	return (bcd>>4)*10 + bcd&0x0F
}

func (c *CPU) ADC(mode uint8) {
	m := c.memRead(c.getOperandAddr(mode))
	if c.status&STATUS_FLAG_DECIMAL != 0 {
		sum := uint16(decodeBCD(c.acc)) + uint16(decodeBCD(m)) + uint16(c.status&STATUS_FLAG_CARRY)
		c.flagsOff(STATUS_FLAG_CARRY | STATUS_FLAG_OVERFLOW)
		if sum > 99 {
			c.flagsOn(STATUS_FLAG_CARRY)
		}
		c.acc = encodeBCD(uint8(sum % 100))
		c.setNegativeAndZeroFlags(c.acc)
		return
	}
	c.addWithOverflow(m)
}

func (c *CPU) AND(mode uint8) {
	c.acc = c.acc & c.memRead(c.getOperandAddr(mode))
	c.setNegativeAndZeroFlags(c.acc)
}

func (c *CPU) ASL(mode uint8) {
	var ov, nv uint8 // old value, new value
	switch mode {
	case ACCUMULATOR:
		ov = c.acc
		c.acc = c.acc << 1
		nv = c.acc
	default:
		addr := c.getOperandAddr(mode)
		ov = c.memRead(addr)
		nv = ov << 1
		c.memWrite(addr, nv)
	}

	c.flagsOff(STATUS_FLAG_CARRY | STATUS_FLAG_NEGATIVE | STATUS_FLAG_ZERO)
	c.setNegativeAndZeroFlags(nv)
	if ov&0x80 != 0 {
		c.flagsOn(STATUS_FLAG_CARRY)
	}
}

func (c *CPU) BCC(mode uint8) {
	c.branch(STATUS_FLAG_CARRY, false)
}

func (c *CPU) BCS(mode uint8) {
	c.branch(STATUS_FLAG_CARRY, true)
}

func (c *CPU) BEQ(mode uint8) {
	c.branch(STATUS_FLAG_ZERO, true)
}

func (c *CPU) BIT(mode uint8) {
	o := c.memRead(c.getOperandAddr(mode))

	c.flagsOff(STATUS_FLAG_NEGATIVE | STATUS_FLAG_OVERFLOW | STATUS_FLAG_ZERO)
	var flags uint8
	if (o & c.acc) == 0 {
		flags = flags | STATUS_FLAG_ZERO
	}
	flags = flags | (o & (STATUS_FLAG_NEGATIVE | STATUS_FLAG_OVERFLOW))

	c.flagsOn(flags)
}

func (c *CPU) BMI(mode uint8) {
	c.branch(STATUS_FLAG_NEGATIVE, true)
}

func (c *CPU) BNE(mode uint8) {
	c.branch(STATUS_FLAG_ZERO, false)
}

func (c *CPU) BPL(mode uint8) {
	c.branch(STATUS_FLAG_NEGATIVE, false)
}

func (c *CPU) BRK(mode uint8) {
	// BRK is 2 bytes
	c.pushAddress(c.pc + 1)
	c.pushStack(c.status | STATUS_FLAG_BREAK)
	c.pc = c.memRead16(INT_BRK)
	c.flagsOn(STATUS_FLAG_INTERRUPT_DISABLE)
}

func (c *CPU) BVC(mode uint8) {
	c.branch(STATUS_FLAG_OVERFLOW, false)
}

func (c *CPU) BVS(mode uint8) {
	c.branch(STATUS_FLAG_OVERFLOW, true)
}

func (c *CPU) CLC(mode uint8) {
	c.flagsOff(STATUS_FLAG_CARRY)
}

func (c *CPU) CLD(mode uint8) {
	c.flagsOff(STATUS_FLAG_DECIMAL)
}

func (c *CPU) CLI(mode uint8) {
	c.flagsOff(STATUS_FLAG_INTERRUPT_DISABLE)
}

func (c *CPU) CLV(mode uint8) {
	c.flagsOff(STATUS_FLAG_OVERFLOW)
}

func (c *CPU) CMP(mode uint8) {
	c.baseCMP(c.acc, c.memRead(c.getOperandAddr(mode)))
}

func (c *CPU) CPX(mode uint8) {
	c.baseCMP(c.x, c.memRead(c.getOperandAddr(mode)))
}

func (c *CPU) CPY(mode uint8) {
	c.baseCMP(c.y, c.memRead(c.getOperandAddr(mode)))
}

func (c *CPU) DEC(mode uint8) {
	a := c.getOperandAddr(mode)
	c.memWrite(a, c.memRead(a)-1)
	c.setNegativeAndZeroFlags(c.memRead(a))
}

func (c *CPU) DEX(mode uint8) {
	c.x -= 1
	c.setNegativeAndZeroFlags(c.x)
}

func (c *CPU) DEY(mode uint8) {
	c.y -= 1
	c.setNegativeAndZeroFlags(c.y)
}

func (c *CPU) EOR(mode uint8) {
	c.acc = c.acc ^ c.memRead(c.getOperandAddr(mode))
	c.setNegativeAndZeroFlags(c.acc)
}

func (c *CPU) INC(mode uint8) {
	a := c.getOperandAddr(mode)
	c.memWrite(a, c.memRead(a)+1)
	c.setNegativeAndZeroFlags(c.memRead(a))
}

func (c *CPU) INX(mode uint8) {
	c.x += 1
	c.setNegativeAndZeroFlags(c.x)
}

func (c *CPU) INY(mode uint8) {
	c.y += 1
	c.setNegativeAndZeroFlags(c.y)
}

func (c *CPU) JMP(mode uint8) {
	c.pc = c.getOperandAddr(mode)
}

func (c *CPU) JSR(mode uint8) {
	c.pushAddress(c.pc + 1) // this is the second byte of the JSR argument
	c.pc = c.getOperandAddr(mode)
}

func (c *CPU) LDA(mode uint8) {
	c.acc = c.memRead(c.getOperandAddr(mode))
	c.setNegativeAndZeroFlags(c.acc)
}

func (c *CPU) LDX(mode uint8) {
	c.x = c.memRead(c.getOperandAddr(mode))
	c.setNegativeAndZeroFlags(c.x)
}

func (c *CPU) LDY(mode uint8) {
	c.y = c.memRead(c.getOperandAddr(mode))
	c.setNegativeAndZeroFlags(c.y)
}

func (c *CPU) LSR(mode uint8) {
	var ov, nv uint8
	switch mode {
	case ACCUMULATOR:
		ov = c.acc
		c.acc = c.acc >> 1
		nv = c.acc
	default:
		addr := c.getOperandAddr(mode)
		ov = c.memRead(addr)
		nv = ov >> 1
		c.memWrite(addr, nv)
	}

	c.flagsOff(STATUS_FLAG_CARRY | STATUS_FLAG_NEGATIVE | STATUS_FLAG_ZERO)
	c.setNegativeAndZeroFlags(nv)
	if ov&STATUS_FLAG_CARRY != 0 {
		c.flagsOn(STATUS_FLAG_CARRY)
	}

}

func (c *CPU) NOP(mode uint8) {
	return
}

func (c *CPU) ORA(mode uint8) {
	c.acc = c.acc | c.memRead(c.getOperandAddr(mode))
	c.setNegativeAndZeroFlags(c.acc)
}

func (c *CPU) PHA(mode uint8) {
	c.pushStack(c.acc)
}

func (c *CPU) PHP(mode uint8) {
	// 6502 always sets BREAK when pushing the status register to
	// the stack
	c.pushStack(c.status | STATUS_FLAG_BREAK)
}

func (c *CPU) PLA(mode uint8) {
	c.acc = c.popStack()
	c.setNegativeAndZeroFlags(c.acc)
}

func (c *CPU) PLP(mode uint8) {
	c.status = (c.popStack() &^ STATUS_FLAG_BREAK) | UNUSED_STATUS_FLAG
}

func (c *CPU) ROL(mode uint8) {
	var ov, nv uint8 // old value, new value
	switch mode {
	case ACCUMULATOR:
		ov = c.acc
		c.acc = (ov << 1) | (c.status & STATUS_FLAG_CARRY)
		nv = c.acc
	default:
		addr := c.getOperandAddr(mode)
		ov = c.memRead(addr)
		c.memWrite(addr, (ov<<1)|(c.status&STATUS_FLAG_CARRY))
		nv = c.memRead(addr)
	}

	c.flagsOff(STATUS_FLAG_CARRY | STATUS_FLAG_NEGATIVE | STATUS_FLAG_ZERO)
	c.setNegativeAndZeroFlags(nv)
	if ov&0x80 != 0 {
		c.flagsOn(STATUS_FLAG_CARRY)
	}
}

func (c *CPU) ROR(mode uint8) {
	var ov, nv uint8 // old value, new value
	switch mode {
	case ACCUMULATOR:
		ov = c.acc
		c.acc = (ov >> 1) | ((c.status & STATUS_FLAG_CARRY) << 7)
		nv = c.acc
	default:
		addr := c.getOperandAddr(mode)
		ov = c.memRead(addr)
		c.memWrite(addr, (ov>>1)|((c.status&STATUS_FLAG_CARRY)<<7))
		nv = c.memRead(addr)
	}

	c.flagsOff(STATUS_FLAG_CARRY | STATUS_FLAG_NEGATIVE | STATUS_FLAG_ZERO)
	c.setNegativeAndZeroFlags(nv)
	if ov&STATUS_FLAG_CARRY != 0 { // was carry bit set in the old _value_?
		c.flagsOn(STATUS_FLAG_CARRY)
	}
}

func (c *CPU) RTI(mode uint8) {
	c.status = c.popStack()
	c.pc = c.popAddress()
}

func (c *CPU) RTS(mode uint8) {
	c.pc = c.popAddress() + 1
}

func (c *CPU) SBC(mode uint8) {
	m := c.memRead(c.getOperandAddr(mode))
	if c.status&STATUS_FLAG_DECIMAL != 0 {
		diff := int(decodeBCD(c.acc)) - int(decodeBCD(m)) - 1 + int(c.status&STATUS_FLAG_CARRY)
		c.flagsOff(STATUS_FLAG_CARRY | STATUS_FLAG_OVERFLOW)
		if diff >= 0 {
			c.flagsOn(STATUS_FLAG_CARRY)
		} else {
			diff += 100
		}
		c.acc = encodeBCD(uint8(diff))
		c.setNegativeAndZeroFlags(c.acc)
		return
	}
	c.addWithOverflow(^m)
}

func (c *CPU) SEC(mode uint8) {
	c.flagsOn(STATUS_FLAG_CARRY)
}

func (c *CPU) SED(mode uint8) {
	c.flagsOn(STATUS_FLAG_DECIMAL)
}

func (c *CPU) SEI(mode uint8) {
	c.flagsOn(STATUS_FLAG_INTERRUPT_DISABLE)
}

func (c *CPU) STA(mode uint8) {
	c.memWrite(c.getOperandAddr(mode), c.acc)
}

func (c *CPU) STX(mode uint8) {
	c.memWrite(c.getOperandAddr(mode), c.x)
}

func (c *CPU) STY(mode uint8) {
	c.memWrite(c.getOperandAddr(mode), c.y)
}

func (c *CPU) TAX(mode uint8) {
	c.x = c.acc
	c.setNegativeAndZeroFlags(c.x)
}

func (c *CPU) TAY(mode uint8) {
	c.y = c.acc
	c.setNegativeAndZeroFlags(c.y)
}

func (c *CPU) TSX(mode uint8) {
	c.x = c.sp
	c.setNegativeAndZeroFlags(c.x)
}

func (c *CPU) TXA(mode uint8) {
	c.acc = c.x
	c.setNegativeAndZeroFlags(c.acc)
}

func (c *CPU) TXS(mode uint8) {
	c.sp = c.x
}

func (c *CPU) TYA(mode uint8) {
	c.acc = c.y
	c.setNegativeAndZeroFlags(c.acc)
}
