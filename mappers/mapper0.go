package mappers

func init() {
	RegisterMapper(0, &mapper0{
		baseMapper: newBaseMapper(0, "NROM"),
	})
}

// mapper0 implements NROM: no bank switching, CHR is treated as ROM
// (writes are ignored; CHR-RAM is not modelled), and 16KiB PRG images
// are mirrored across both $8000-$BFFF and $C000-$FFFF.
type mapper0 struct {
	*baseMapper
}

func (m *mapper0) PrgRead(addr uint16) uint8 {
	a := addr - 0x8000
	if m.rom.NumPrgBlocks() == 1 {
		a %= 0x4000
	}
	return m.rom.PrgRead(a)
}

func (m *mapper0) PrgWrite(addr uint16, val uint8) {
	// NROM PRG is ROM; cartridges with battery-backed SRAM expose it
	// at $6000-$7FFF via ReadBaseRAM/WriteBaseRAM instead.
}

func (m *mapper0) ChrRead(addr uint16) uint8 {
	return m.rom.ChrRead(addr)
}

func (m *mapper0) ChrWrite(addr uint16, val uint8) {
	// CHR is ROM on NROM boards; writes have no effect.
}
