package console

import (
	"strings"
	"testing"

	"github.com/go-nes/ppucore/mappers"
	"github.com/go-nes/ppucore/ppu"
)

func TestSystemRAMMirroring(t *testing.T) {
	s := New(mappers.Dummy)

	s.Write(0x0000, 0x42)
	for _, addr := range []uint16{0x0000, 0x0800, 0x1000, 0x1800} {
		if got := s.Read(addr); got != 0x42 {
			t.Errorf("Read(0x%04x) = 0x%02x, wanted 0x42 (RAM mirror of $0000)", addr, got)
		}
	}
}

func TestSystemPPURegisterMirroring(t *testing.T) {
	s := New(mappers.Dummy)

	s.Write(ppu.PPUCTRL, ppu.CTRL_GENERATE_NMI)
	s.Write(ppu.PPUADDR, 0x23)
	s.Write(ppu.PPUADDR, 0x05)
	if got := s.ppu.CPURead(ppu.PPUSTATUS); got&ppu.STATUS_VERTICAL_BLANK != 0 {
		t.Errorf("unexpected VBlank set immediately after reset")
	}

	// $2006 mirrored at $200E should hit the same register as $2006.
	s.Write(0x200E, 0x01)
	s.Write(0x200E, 0x23)
	if got := s.ppu.String(); !strings.Contains(got, "v=0x0123") {
		t.Errorf("after writing 0x01, 0x23 to $200E: PPU state %q, wanted v=0x0123", got)
	}
}

func TestSystemControllerStrobeAndRead(t *testing.T) {
	s := New(mappers.Dummy)

	s.pad1.buttons = 0b10101010
	s.Write(CONTROLLER1, 1) // strobe high: latch idx to 0
	s.Write(CONTROLLER1, 0) // strobe low: poll() overwrites buttons from real input

	// poll() just re-reads ebiten's key state (all unpressed in a
	// test process), so buttons ends up 0 and every bit reads 0.
	for i := 0; i < 8; i++ {
		if got := s.Read(CONTROLLER1); got != 0 {
			t.Errorf("bit %d: Read(CONTROLLER1) = %d, wanted 0", i, got)
		}
	}
	// Reads past the 8th bit return 1 on real hardware.
	if got := s.Read(CONTROLLER1); got != 1 {
		t.Errorf("Read(CONTROLLER1) past bit 8 = %d, wanted 1", got)
	}
}

func TestSystemOAMDMAStallsCPU(t *testing.T) {
	s := New(mappers.Dummy)

	s.ram[0x0300] = 0xAA
	pc := s.cpu.PC()
	s.Write(pc, 0xEA) // NOP, so the first instruction after the stall moves PC by one
	s.Write(ppu.OAMDMA, 0x03)

	for i := 0; i < DMA_CYCLES; i++ {
		s.Tick()
	}
	if got := s.cpu.PC(); got != pc {
		t.Errorf("PC moved to 0x%04x during the %d-cycle DMA stall, wanted 0x%04x", got, DMA_CYCLES, pc)
	}
	s.Tick()
	if got := s.cpu.PC(); got != pc+1 {
		t.Errorf("PC after the stall = 0x%04x, wanted 0x%04x", got, pc+1)
	}

	if s.ppu.CPURead(ppu.OAMDATA) != 0xAA {
		t.Errorf("OAM byte 0 after DMA from page 3 = 0x%02x, wanted 0xAA", s.ppu.CPURead(ppu.OAMDATA))
	}
	if s.cpu.String() == "" {
		t.Fatalf("expected CPU to still be addressable after DMA stall")
	}
}

func TestSystemCartridgeSpaceDelegatesToMapper(t *testing.T) {
	s := New(mappers.Dummy)

	s.Write(0x8000, 0x99)
	if got := s.Read(0x8000); got != 0x99 {
		t.Errorf("Read(0x8000) = 0x%02x, wanted 0x99", got)
	}
}

func TestSystemTickAdvancesPPUThreeDotsPerCPUCycle(t *testing.T) {
	s := New(mappers.Dummy)

	before := s.ppu.FrameCount()
	for i := 0; i < 100; i++ {
		s.Tick()
	}
	if s.cpuCycles != 100 {
		t.Errorf("cpuCycles = %d, wanted 100", s.cpuCycles)
	}
	// 300 dots on from reset (scanline 240, dot 340) is scanline 241, dot 299.
	if got := s.ppu.String(); !strings.Contains(got, "scanline=241 dot=299") {
		t.Errorf("after 100 ticks PPU state %q, wanted scanline=241 dot=299", got)
	}
	if s.ppu.FrameCount() != before {
		t.Errorf("100 ticks shouldn't complete a frame, got frame=%d", s.ppu.FrameCount())
	}
}
