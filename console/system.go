// Package console ties the CPU, PPU, controller ports and cartridge
// mapper into a single addressable machine and drives it as an ebiten
// game.
package console

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/go-nes/ppucore/mappers"
	"github.com/go-nes/ppucore/mos6502"
	"github.com/go-nes/ppucore/ppu"
)

// CPU memory map boundaries. Internal RAM is 2KiB, mirrored up to
// $1FFF; PPU registers are 8 bytes, mirrored up to $3FFF.
const (
	RAM_MIRROR_MASK = 0x07FF
	MAX_RAM_MIRROR  = 0x1FFF
	PPU_REG_MASK    = 0x2007
	MAX_PPU_MIRROR  = 0x3FFF
	APU_IO_START    = 0x4000
	CONTROLLER1     = 0x4016
	CONTROLLER2     = 0x4017
	CART_SPACE      = 0x4020
	SAVE_RAM_START  = 0x6000
	SAVE_RAM_END    = 0x8000

	// On real hardware OAM DMA suspends the CPU for 513 cycles, or
	// 514 when it starts on an odd CPU cycle.
	DMA_CYCLES             = 513
	DMA_ODD_CYCLES         = 514
	PPU_DOTS_PER_CPU_CYCLE = 3
)

// System wires a CPU, PPU, cartridge mapper and pair of controllers
// into the full NES address space and exposes it as an ebiten.Game.
type System struct {
	cpu    *mos6502.CPU
	ppu    *ppu.PPU
	mapper mappers.Mapper

	ram [0x0800]uint8

	pad1, pad2 controller

	cpuCycles uint64
}

// New returns a System ready to run the cartridge backed by m.
func New(m mappers.Mapper) *System {
	s := &System{mapper: m}
	s.cpu = mos6502.New(s)
	s.ppu = ppu.New(s, s)
	s.cpu.Reset()

	w, h := s.ppu.GetResolution()
	ebiten.SetWindowSize(w*3, h*3)
	ebiten.SetWindowTitle(fmt.Sprintf("nesppu - %s", m.Name()))
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	return s
}

// Read implements mos6502.Bus.
func (s *System) Read(addr uint16) uint8 {
	switch {
	case addr <= MAX_RAM_MIRROR:
		return s.ram[addr&RAM_MIRROR_MASK]
	case addr <= MAX_PPU_MIRROR:
		return s.ppu.CPURead(addr & PPU_REG_MASK)
	case addr == CONTROLLER1:
		return s.pad1.read()
	case addr == CONTROLLER2:
		return s.pad2.read()
	case addr < CART_SPACE:
		// APU and remaining I/O registers are unimplemented.
		return 0
	case addr < SAVE_RAM_END:
		return s.mapper.ReadBaseRAM((addr - SAVE_RAM_START) % mappers.NES_BASE_MEMORY)
	default:
		return s.mapper.PrgRead(addr)
	}
}

// Write implements mos6502.Bus.
func (s *System) Write(addr uint16, val uint8) {
	switch {
	case addr <= MAX_RAM_MIRROR:
		s.ram[addr&RAM_MIRROR_MASK] = val
	case addr <= MAX_PPU_MIRROR:
		s.ppu.CPUWrite(addr&PPU_REG_MASK, val)
	case addr == ppu.OAMDMA:
		s.doOAMDMA(val)
	case addr == CONTROLLER1:
		// The strobe line at $4016 latches both pads at once; only
		// $4016 is ever written, $4017 read-only returns pad 2.
		s.pad1.write(val)
		s.pad2.write(val)
	case addr < CART_SPACE:
	case addr < SAVE_RAM_END:
		s.mapper.WriteBaseRAM((addr-SAVE_RAM_START)%mappers.NES_BASE_MEMORY, val)
	default:
		s.mapper.PrgWrite(addr, val)
	}
}

// doOAMDMA copies the 256-byte page starting at page<<8 into OAM and
// stalls the CPU for the cycles real hardware loses servicing it.
func (s *System) doOAMDMA(page uint8) {
	var buf [256]uint8
	base := uint16(page) << 8
	for i := range buf {
		buf[i] = s.Read(base + uint16(i))
	}
	s.ppu.DMA(buf)

	cycles := uint16(DMA_CYCLES)
	if s.cpuCycles%2 != 0 {
		cycles = DMA_ODD_CYCLES
	}
	s.cpu.Stall(cycles)
}

// ReadCHR implements ppu.Bus.
func (s *System) ReadCHR(addr uint16) uint8 {
	return s.mapper.ChrRead(addr)
}

// WriteCHR implements ppu.Bus.
func (s *System) WriteCHR(addr uint16, val uint8) {
	s.mapper.ChrWrite(addr, val)
}

// MirroringMode implements ppu.Bus.
func (s *System) MirroringMode() uint8 {
	return s.mapper.MirroringMode()
}

// AssertNMI implements ppu.CPUSignal.
func (s *System) AssertNMI() {
	s.cpu.AssertNMI()
}

// ReadByte implements ppu.CPUSignal, letting the PPU read back the
// CPU's page for OAM DMA bookkeeping without its own Read alias.
func (s *System) ReadByte(addr uint16) uint8 {
	return s.Read(addr)
}

// Tick advances the whole machine by one CPU cycle, ticking the PPU
// three dots for every CPU cycle as real NTSC hardware does.
func (s *System) Tick() {
	for i := 0; i < PPU_DOTS_PER_CPU_CYCLE; i++ {
		s.ppu.Step()
	}
	s.cpu.Step()
	s.cpuCycles += 1
}

// Layout implements ebiten.Game.
func (s *System) Layout(outsideWidth, outsideHeight int) (int, int) {
	return s.ppu.GetResolution()
}

// Update implements ebiten.Game, running the machine for one
// rendered frame's worth of CPU cycles.
func (s *System) Update() error {
	frame := s.ppu.FrameCount()
	for s.ppu.FrameCount() == frame {
		s.Tick()
	}
	return nil
}

// Draw implements ebiten.Game, blitting the PPU's most recent
// framebuffer onto the ebiten screen.
func (s *System) Draw(screen *ebiten.Image) {
	img := s.ppu.Image()
	bounds := img.Bounds()
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			screen.Set(x, y, img.At(x, y))
		}
	}
}

func (s *System) String() string {
	return fmt.Sprintf("%s\nPPU: %s", s.cpu, s.ppu)
}
