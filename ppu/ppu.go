// Package ppu implements the NES Picture Processing Unit: the
// cycle-driven coprocessor that composes background tiles and
// sprites into a 256x240 framebuffer in lockstep with the CPU.
package ppu

import (
	"fmt"
	"image"
	stdcolor "image/color"

	"github.com/golang/glog"
)

const (
	OAM_SIZE     = 256
	PALETTE_SIZE = 32
)

// Display constants
const (
	NES_RES_WIDTH  = 256
	NES_RES_HEIGHT = 240
)

const (
	DOTS_PER_SCANLINE = 341
	SCANLINES_PER_FRAME = 262
)

// Special Registers, as mapped into CPU address space.
const (
	PPUCTRL   = 0x2000
	PPUMASK   = 0x2001
	PPUSTATUS = 0x2002
	OAMADDR   = 0x2003
	OAMDATA   = 0x2004
	PPUSCROLL = 0x2005
	PPUADDR   = 0x2006
	PPUDATA   = 0x2007
	OAMDMA    = 0x4014
)

// PPUCTRL bit flags
// 7  bit  0
// ---- ----
// VPHB SINN
// |||| ||||
// |||| ||++- Base nametable address
// |||| ||    (0 = $2000; 1 = $2400; 2 = $2800; 3 = $2C00)
// |||| |+--- VRAM address increment per CPU read/write of PPUDATA
// |||| |     (0: add 1, going across; 1: add 32, going down)
// |||| +---- Sprite pattern table address for 8x8 sprites
// ||||       (0: $0000; 1: $1000; ignored in 8x16 mode)
// |||+------ Background pattern table address (0: $0000; 1: $1000)
// ||+------- Sprite size (0: 8x8 pixels; 1: 8x16 pixels)
// |+-------- PPU master/slave select
// +--------- Generate an NMI at the start of vertical blank
const (
	CTRL_NAMETABLE1             = 1
	CTRL_NAMETABLE2             = 1 << 1
	CTRL_VRAM_ADD_INCREMENT     = 1 << 2
	CTRL_SPRITE_PATTERN_ADDR    = 1 << 3
	CTRL_BACKROUND_PATTERN_ADDR = 1 << 4
	CTRL_SPRITE_SIZE            = 1 << 5
	CTRL_MASTER_SLAVE_SELECT    = 1 << 6
	CTRL_GENERATE_NMI           = 1 << 7
)

// PPUMASK bit flags
const (
	MASK_GRAYSCALE        = 1
	MASK_SHOW_BG_LEFT     = 1 << 1
	MASK_SHOW_SPRITE_LEFT = 1 << 2
	MASK_SHOW_BG          = 1 << 3
	MASK_SHOW_SPRITES     = 1 << 4
	MASK_EMPHASIZE_RED    = 1 << 5
	MASK_EMPHASIZE_GREEN  = 1 << 6
	MASK_EMPHASIZE_BLUE   = 1 << 7
)

// PPUSTATUS bit flags
const (
	STATUS_SPRITE_OVERFLOW = 1 << 5
	STATUS_SPRITE_0_HIT    = 1 << 6
	STATUS_VERTICAL_BLANK  = 1 << 7
)

// Mirroring modes, matching nesrom's header-derived values.
const (
	MIRROR_HORIZONTAL = iota
	MIRROR_VERTICAL
	MIRROR_FOUR_SCREEN
)

// Bus is the PPU's view of the cartridge: pattern-table (CHR) access
// and the nametable mirroring mode the cartridge wires up.
type Bus interface {
	ReadCHR(addr uint16) uint8
	WriteCHR(addr uint16, val uint8)
	MirroringMode() uint8
}

// CPUSignal lets the PPU reach back into the CPU: asserting NMI at
// VBlank, and reading a CPU page for OAM DMA.
type CPUSignal interface {
	AssertNMI()
	ReadByte(addr uint16) uint8
}

// PPU implements the NES picture processing unit.
type PPU struct {
	bus Bus
	cpu CPUSignal

	ctrl, mask, status uint8
	oamAddr            uint8
	oamData            [OAM_SIZE]uint8
	paletteRAM         [PALETTE_SIZE]uint8
	nametables         [2048]uint8

	v, t loopy
	x    uint8 // fine X scroll, 3 bits
	w    uint8 // write toggle for $2005/$2006, 1 bit

	dot      int
	scanline int
	frame    uint64

	ntByte, atByte, loTile, hiTile uint8
	tileData                       uint64

	sprites []spriteSlot

	bufferData uint8 // latched buffer for sub-$3F00 PPUDATA reads

	fb framebuffer
}

// New returns a PPU wired to the given cartridge bus and CPU
// signalling collaborator, initialised to its post-reset state.
func New(bus Bus, cpu CPUSignal) *PPU {
	p := &PPU{bus: bus, cpu: cpu}
	p.Reset()
	return p
}

// Reset restores the PPU to its documented power-on/reset state:
// parked one dot before the end of the post-render scanline, with an
// all-white framebuffer and frame counter zeroed.
func (p *PPU) Reset() {
	p.dot = 340
	p.scanline = 240
	p.frame = 0
	p.status = 0
	p.w = 0
	p.fb.reset()
}

// GetResolution returns the fixed NES display resolution.
func (p *PPU) GetResolution() (int, int) {
	return NES_RES_WIDTH, NES_RES_HEIGHT
}

// Framebuffer returns the most recently rendered frame as packed RGB
// triples, row-major, origin top-left.
func (p *PPU) Framebuffer() []uint8 {
	return p.fb.Bytes()
}

// Image renders the framebuffer as an *image.RGBA, suitable for
// handing to a display collaborator such as ebiten.
func (p *PPU) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, NES_RES_WIDTH, NES_RES_HEIGHT))
	pix := p.fb.Bytes()
	for y := 0; y < NES_RES_HEIGHT; y++ {
		for x := 0; x < NES_RES_WIDTH; x++ {
			i := (y*NES_RES_WIDTH + x) * 3
			img.Set(x, y, stdcolor.RGBA{pix[i], pix[i+1], pix[i+2], 0xFF})
		}
	}
	return img
}

// FrameCount returns the number of frames fully ticked since reset.
func (p *PPU) FrameCount() uint64 {
	return p.frame
}

func (p *PPU) String() string {
	return fmt.Sprintf("scanline=%d dot=%d frame=%d ctrl=0x%02x mask=0x%02x status=0x%02x v=0x%04x t=0x%04x",
		p.scanline, p.dot, p.frame, p.ctrl, p.mask, p.status, p.v.get(), p.t.get())
}

// tick advances the dot/scanline/frame odometer by exactly one dot.
func (p *PPU) tick() {
	p.dot += 1
	if p.dot >= DOTS_PER_SCANLINE {
		p.dot = 0
		p.scanline += 1
		if p.scanline >= SCANLINES_PER_FRAME {
			p.scanline = 0
			p.frame += 1
		}
	}
}

// Step advances the PPU by a single dot: the clock tick followed by
// whatever phase actions that dot triggers.
func (p *PPU) Step() {
	p.tick()
	p.handlePhase()
}

func (p *PPU) bgVisible() bool {
	return p.mask&MASK_SHOW_BG != 0
}

func (p *PPU) spritesVisible() bool {
	return p.mask&MASK_SHOW_SPRITES != 0
}

func (p *PPU) renderingEnabled() bool {
	return p.bgVisible() || p.spritesVisible()
}

func (p *PPU) handlePhase() {
	s, d := p.scanline, p.dot

	preLine := s == 261
	visibleLine := s < 240
	renderLine := preLine || visibleLine
	visibleDot := d >= 1 && d <= 256
	preFetchDot := d >= 321 && d <= 336
	fetchDot := visibleDot || preFetchDot

	if p.renderingEnabled() {
		if visibleLine && visibleDot {
			p.renderPixel(d-1, s)
		}
		if renderLine && fetchDot {
			p.fetchStep(d)
		}
		if preLine && d >= 280 && d <= 304 {
			p.v.copyY(&p.t)
		}
		if (preLine || visibleLine) && (preFetchDot || visibleDot) && d%8 == 0 {
			p.v.incrementX()
		}
		if (preLine || visibleLine) && d == 256 {
			p.v.incrementY()
		}
		if (preLine || visibleLine) && d == 257 {
			p.v.copyX(&p.t)
		}
		if visibleLine && d == 257 {
			p.evaluateSprites(s)
		}
	}

	if s == 241 && d == 1 {
		p.status |= STATUS_VERTICAL_BLANK
		if p.ctrl&CTRL_GENERATE_NMI != 0 {
			p.cpu.AssertNMI()
		}
	}
	if preLine && d == 1 {
		p.status &^= STATUS_VERTICAL_BLANK | STATUS_SPRITE_0_HIT
	}
}

func (p *PPU) bgPatternBase() uint16 {
	if p.ctrl&CTRL_BACKROUND_PATTERN_ADDR != 0 {
		return 0x1000
	}
	return 0x0000
}

// fetchStep runs the 8-cycle background fetch group keyed by d mod 8,
// shifting the pipeline's tile-data register by one pixel slot on
// every fetch dot.
func (p *PPU) fetchStep(d int) {
	p.tileData <<= 4

	switch d % 8 {
	case 1:
		p.ntByte = p.readVRAM(0x2000 | (p.v.get() & 0x0FFF))
	case 3:
		addr := 0x23C0 | (p.v.get() & 0x0C00) | ((p.v.get() >> 4) & 0x38) | ((p.v.get() >> 2) & 0x07)
		at := p.readVRAM(addr)
		shift := ((p.v.get() >> 4) & 4) | (p.v.get() & 2)
		p.atByte = ((at >> shift) & 3) << 2
	case 5:
		p.loTile = p.bus.ReadCHR(p.bgPatternBase() + uint16(p.ntByte)*16 + p.v.fineY())
	case 7:
		p.hiTile = p.bus.ReadCHR(p.bgPatternBase() + uint16(p.ntByte)*16 + p.v.fineY() + 8)
	case 0:
		p.storeTileData()
	}
}

// storeTileData packs the fetched tile row into a 32-bit value (8
// pixels x 4 bits, MSB first) and ORs it into the low half of the
// 64-bit shift register.
func (p *PPU) storeTileData() {
	var data uint32
	for i := 0; i < 8; i++ {
		p1 := (uint32(p.loTile<<uint(i)) & 0x80) >> 7
		p2 := (uint32(p.hiTile<<uint(i)) & 0x80) >> 6
		nibble := uint32(p.atByte) | p1 | p2
		data = (data << 4) | nibble
	}
	p.tileData |= uint64(data)
}

func (p *PPU) bgPixel() uint8 {
	shift := (7 - uint(p.x&0x07)) * 4
	return uint8((p.tileData >> (32 + shift)) & 0x0F)
}

// spritePixel returns the first non-transparent sprite pixel
// overlapping display column x, in OAM-order priority.
func (p *PPU) spritePixel(x int) (pixel, oamIndex, priority uint8, found bool) {
	for _, s := range p.sprites {
		offset := x - int(s.x)
		if offset < 0 || offset > 7 {
			continue
		}
		shift := uint(7-offset) * 4
		nib := uint8((s.pattern >> shift) & 0x0F)
		if nib&0x03 != 0 {
			return nib, s.oamIndex, s.priority, true
		}
	}
	return 0, 0, 0, false
}

// renderPixel composes the background and sprite pixels for (x, y),
// resolves sprite-zero-hit, and writes the chosen color into the
// framebuffer.
func (p *PPU) renderPixel(x, y int) {
	bg := p.bgPixel()
	spPixel, spIndex, spPriority, spFound := p.spritePixel(x)

	bgOpaque := bg&0x03 != 0
	spOpaque := spFound && spPixel&0x03 != 0

	var chosen uint8
	switch {
	case !bgOpaque && !spOpaque:
		chosen = 0
	case !bgOpaque && spOpaque:
		chosen = spPixel | 0x10
	case bgOpaque && !spOpaque:
		chosen = bg
	default:
		if spIndex == 0 && x < 255 {
			p.status |= STATUS_SPRITE_0_HIT
		}
		if spPriority == 0 {
			chosen = spPixel | 0x10
		} else {
			chosen = bg
		}
	}

	idx := paletteMirror(chosen)
	p.fb.set(x, y, SYSTEM_PALETTE[p.paletteRAM[idx]%64])
}

// evaluateSprites scans OAM for the up to 8 sprites intersecting
// scanline s and decodes their pattern data, replacing the previous
// scanline's sprite slot.
func (p *PPU) evaluateSprites(s int) {
	tall := p.ctrl&CTRL_SPRITE_SIZE != 0
	height := 8
	if tall {
		height = 16
	}

	spriteBase := uint16(0x0000)
	if p.ctrl&CTRL_SPRITE_PATTERN_ADDR != 0 {
		spriteBase = 0x1000
	}

	slot := make([]spriteSlot, 0, 8)
	for i := 0; i < 64; i++ {
		base := i * 4
		o := OAMFromBytes(p.oamData[base : base+4])
		row := s - int(o.y)
		if row < 0 || row >= height {
			continue
		}

		attr := o.attributes()
		addr := spritePatternAddr(o.tileId, attr, row, tall, spriteBase)
		lo := p.bus.ReadCHR(addr)
		hi := p.bus.ReadCHR(addr + 8)

		slot = append(slot, spriteSlot{
			oamIndex: uint8(i),
			x:        o.x,
			y:        o.y,
			tile:     o.tileId,
			attr:     attr,
			pattern:  decodeSpritePattern(lo, hi, attr),
			priority: uint8(o.renderP),
		})

		if len(slot) == 8 {
			break
		}
	}
	p.sprites = slot
}

// nametableAddr folds an offset from $2000 (reduced mod $1000 here,
// so $3000-$3EFF mirror $2000-$2EFF) down to a physical offset in the
// 2KiB nametable RAM, honoring the cartridge's mirroring mode.
func (p *PPU) nametableAddr(addr uint16) uint16 {
	a := addr % 0x1000
	switch p.bus.MirroringMode() {
	case MIRROR_VERTICAL:
		return a % 0x800
	case MIRROR_HORIZONTAL:
		if a >= 0x800 {
			return 0x400 + (a-0x800)%0x400
		}
		return a % 0x400
	default:
		glog.Fatalf("ppu: four-screen mirroring requires dedicated cartridge VRAM, which is not modelled")
		return 0
	}
}

// readVRAM dispatches a PPU-bus read across pattern tables,
// nametable RAM and palette RAM.
func (p *PPU) readVRAM(addr uint16) uint8 {
	addr &= 0x3FFF
	switch {
	case addr < 0x2000:
		return p.bus.ReadCHR(addr)
	case addr < 0x3F00:
		return p.nametables[p.nametableAddr(addr-0x2000)]
	default:
		return p.paletteRAM[paletteMirror(uint8(addr&0x1F))]
	}
}

func (p *PPU) writeVRAM(addr uint16, val uint8) {
	addr &= 0x3FFF
	switch {
	case addr < 0x2000:
		p.bus.WriteCHR(addr, val)
	case addr < 0x3F00:
		p.nametables[p.nametableAddr(addr-0x2000)] = val
	default:
		p.paletteRAM[paletteMirror(uint8(addr&0x1F))] = val
	}
}

func (p *PPU) incrementV() {
	inc := uint16(1)
	if p.ctrl&CTRL_VRAM_ADD_INCREMENT != 0 {
		inc = 32
	}
	p.v.set(p.v.get() + inc)
}

// CPURead implements a CPU-mapped register read at $2000-$2007
// (already reduced mod 8 by the caller's mirroring).
func (p *PPU) CPURead(addr uint16) uint8 {
	switch addr % 8 {
	case 2: // PPUSTATUS
		v := p.status & 0xE0
		p.status &^= STATUS_VERTICAL_BLANK
		p.w = 0
		return v
	case 4: // OAMDATA
		return p.oamData[p.oamAddr]
	case 7: // PPUDATA
		return p.readData()
	default:
		glog.V(1).Infof("ppu: read from write-only register 0x%04x", addr)
		return 0
	}
}

func (p *PPU) readData() uint8 {
	addr := p.v.get() & 0x3FFF
	var result uint8
	if addr < 0x3F00 {
		result = p.bufferData
		p.bufferData = p.readVRAM(addr)
	} else {
		result = p.readVRAM(addr)
	}
	p.incrementV()
	return result
}

// CPUWrite implements a CPU-mapped register write at $2000-$2007
// (already reduced mod 8 by the caller's mirroring).
func (p *PPU) CPUWrite(addr uint16, val uint8) {
	switch addr % 8 {
	case 0: // PPUCTRL
		p.ctrl = val
		p.t.data = (p.t.data &^ 0x0C00) | (uint16(val&0x03) << 10)
	case 1: // PPUMASK
		p.mask = val
	case 3: // OAMADDR
		p.oamAddr = val
	case 4: // OAMDATA
		p.oamData[p.oamAddr] = val
		p.oamAddr += 1
	case 5: // PPUSCROLL
		if p.w == 0 {
			p.x = val & 0x07
			p.t.setCoarseX(uint16(val) >> 3)
			p.w = 1
		} else {
			p.t.setFineY(uint16(val))
			p.t.setCoarseY(uint16(val) >> 3)
			p.w = 0
		}
	case 6: // PPUADDR
		if p.w == 0 {
			p.t.set((p.t.get() & 0x80FF) | (uint16(val&0x3F) << 8))
			p.w = 1
		} else {
			p.t.set((p.t.get() & 0xFF00) | uint16(val))
			p.v.set(p.t.get())
			p.w = 0
		}
	case 7: // PPUDATA
		p.writeVRAM(p.v.get()&0x3FFF, val)
		p.incrementV()
	default:
		glog.V(1).Infof("ppu: write 0x%02x to read-only register 0x%04x", val, addr)
	}
}

// DMA copies a 256-byte CPU page into OAM starting at the current
// OAM address, wrapping on overflow. The CPU core is responsible for
// fetching the page and for its own stall cycles.
func (p *PPU) DMA(page [256]uint8) {
	for _, b := range page {
		p.oamData[p.oamAddr] = b
		p.oamAddr += 1
	}
}
