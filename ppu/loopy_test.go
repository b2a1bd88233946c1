package ppu

import (
	"testing"
)

func TestLoopyGet(t *testing.T) {
	cases := []struct {
		data                           uint16
		wantCoarseX, wantCoarseY       uint16
		wantNameTableX, wantNameTableY uint16
		wantFineY                      uint16
	}{
		{0b0000_0000_0000_0000, 0, 0, 0, 0, 0},
		{0b0111_1011_1001_1000, 0b11000, 0b11100, 0, 1, 0b111},
		{0b0011_0111_1001_0111, 0b10111, 0b11100, 1, 0, 0b011},
		{0b0011_1111_1001_0111, 0b10111, 0b11100, 1, 1, 0b011},
		{0b0011_0011_1011_0111, 0b10111, 0b11101, 0, 0, 0b011},
		{0b0011_0000_0001_0111, 0b10111, 0, 0, 0, 0b011},
	}

	for i, tc := range cases {
		l := &loopy{tc.data}

		cx, cy, ntx, nty, fy := l.coarseX(), l.coarseY(), l.nametableX(), l.nametableY(), l.fineY()
		if cx != tc.wantCoarseX || cy != tc.wantCoarseY || ntx != tc.wantNameTableX || nty != tc.wantNameTableY || fy != tc.wantFineY {
			t.Errorf("%d: Got %016b, %016b, %016b, %016b, %016b, wanted %016b, %016b, %016b, %016b, %016b", i, cx, cy, ntx, nty, fy, tc.wantCoarseX, tc.wantCoarseY, tc.wantNameTableX, tc.wantNameTableY, tc.wantFineY)
		}
	}
}

func TestLoopySetCoarseX(t *testing.T) {
	cases := []struct {
		data     uint16
		ocx, ncx uint16
	}{
		{0b0000_0000_0000_0000, 0, 0},
		{0b0111_1011_1001_1000, 0b11000, 0b11100},
		{0b0011_0111_1001_0111, 0b10111, 0b11100},
		{0b0011_1111_1001_0111, 0b10111, 0b10000},
		{0b0011_0011_1011_0111, 0b10111, 0b11101},
		{0b0011_0000_0001_0111, 0b10111, 0b00100},
	}

	for i, tc := range cases {
		l := &loopy{tc.data}

		ocx := l.coarseX()
		l.setCoarseX(tc.ncx)
		if got := l.coarseX(); ocx != tc.ocx || got != tc.ncx {
			t.Errorf("%d: Got ocx = %05b, ncx = %05b, wanted %05b, %05b", i, ocx, got, tc.ocx, tc.ncx)

		}
	}
}

func TestLoopySetCoarseY(t *testing.T) {
	cases := []struct {
		data     uint16
		ocy, ncy uint16
	}{
		{0b0000_0000_0000_0000, 0, 0},
		{0b0111_1011_1001_1000, 0b11100, 0b11100},
		{0b0011_0111_1011_0111, 0b11101, 0b10000},
		{0b0011_1111_1111_0111, 0b11111, 0b00000},
		{0b0011_0001_0101_0111, 0b01010, 0b10101},
	}

	for i, tc := range cases {
		l := &loopy{tc.data}

		ocy := l.coarseY()
		l.setCoarseY(tc.ncy)
		if got := l.coarseY(); ocy != tc.ocy || got != tc.ncy {
			t.Errorf("%d: Got ocy = %05b, ncy = %05b, wanted %05b, %05b", i, ocy, got, tc.ocy, tc.ncy)

		}
	}
}

func TestLoopyToggleNametableX(t *testing.T) {
	cases := []struct {
		data     uint16
		ox, nx   uint16
		wantData uint16
	}{
		{0b0000_0000_0000_0000, 0, 1, 0b0000_0100_0000_0000},
		{0b0000_0100_0000_0000, 1, 0, 0b0000_0000_0000_0000},
	}

	for i, tc := range cases {
		l := &loopy{tc.data}

		ox := l.nametableX()
		l.toggleNametableX()
		if got := l.nametableX(); ox != tc.ox || got != tc.nx || l.data != tc.wantData {
			t.Errorf("%d: Got ox = %01b, nx = %01b (%016b), wanted %01b, %01b (%016b)", i, ox, got, l.data, tc.ox, tc.nx, tc.wantData)

		}
	}
}

func TestLoopyToggleNametableY(t *testing.T) {
	cases := []struct {
		data     uint16
		oy, ny   uint16
		wantData uint16
	}{
		{0b0000_0000_0000_0000, 0, 1, 0b0000_1000_0000_0000},
		{0b0000_1000_0000_0000, 1, 0, 0b0000_0000_0000_0000},
	}

	for i, tc := range cases {
		l := &loopy{tc.data}

		oy := l.nametableY()
		l.toggleNametableY()
		if got := l.nametableY(); oy != tc.oy || got != tc.ny || l.data != tc.wantData {
			t.Errorf("%d: Got oy = %01b, ny = %01b (%016b), wanted %01b, %01b (%016b)", i, oy, got, l.data, tc.oy, tc.ny, tc.wantData)

		}
	}
}

func TestLoopySetFineY(t *testing.T) {
	cases := []struct {
		data     uint16
		ofy, nfy uint16
	}{
		{0b0000_0000_0000_0000, 0, 0},
		{0b0111_1011_1001_1000, 0b111, 0b101},
		{0b0011_0111_1011_0111, 0b011, 0},
		{0b0111_1111_1111_0111, 0b111, 0b010},
	}

	for i, tc := range cases {
		l := &loopy{tc.data}

		ofy := l.fineY()
		l.setFineY(tc.nfy)
		if got := l.fineY(); ofy != tc.ofy || got != tc.nfy {
			t.Errorf("%d: Got ofy = %03b, nfy = %03b, wanted %03b, %03b", i, ofy, got, tc.ofy, tc.nfy)

		}
	}
}

// TestIncrementXWrap is concrete scenario 3: coarse-X wraps at 31 and
// toggles the horizontal nametable bit.
func TestIncrementXWrap(t *testing.T) {
	l := &loopy{0x001F}
	l.incrementX()
	if l.data != 0x0400 {
		t.Errorf("Got v = 0x%04x, wanted 0x0400", l.data)
	}

	l = &loopy{0x041F}
	l.incrementX()
	if l.data != 0x0000 {
		t.Errorf("Got v = 0x%04x, wanted 0x0000", l.data)
	}
}

func TestIncrementXNoWrap(t *testing.T) {
	l := &loopy{0b0111_1011_1001_1000}
	before := l.coarseX()
	l.incrementX()
	if got := l.coarseX(); got != before+1 {
		t.Errorf("Got coarseX = %05b, wanted %05b", got, before+1)
	}
}

// TestIncrementYWrapRow29 is concrete scenario 4: fine-Y rolls over
// at coarse-Y 29, the last visible nametable row, toggling the
// vertical nametable bit.
func TestIncrementYWrapRow29(t *testing.T) {
	l := &loopy{0x73A0}
	l.incrementY()
	if l.data != 0x0800 {
		t.Errorf("Got v = 0x%04x, wanted 0x0800", l.data)
	}
	if l.fineY() != 0 || l.coarseY() != 0 || l.nametableY() != 1 {
		t.Errorf("Got fineY=%d coarseY=%d nametableY=%d, wanted 0,0,1", l.fineY(), l.coarseY(), l.nametableY())
	}
}

func TestIncrementYWrapRow31(t *testing.T) {
	l := &loopy{}
	l.setFineY(7)
	l.setCoarseY(31)
	before := l.nametableY()
	l.incrementY()
	if l.coarseY() != 0 || l.nametableY() != before {
		t.Errorf("Got coarseY=%d nametableY=%d, wanted 0,%d", l.coarseY(), l.nametableY(), before)
	}
}

func TestIncrementYNoFineWrap(t *testing.T) {
	l := &loopy{}
	l.setFineY(3)
	l.incrementY()
	if l.fineY() != 4 {
		t.Errorf("Got fineY=%d, wanted 4", l.fineY())
	}
}

func TestCopyX(t *testing.T) {
	v := &loopy{0xFFFF}
	tr := &loopy{0x0000}
	v.copyX(tr)
	if v.data != 0xFFFF&0xFBE0 {
		t.Errorf("Got v = 0x%04x, wanted 0x%04x", v.data, uint16(0xFFFF)&0xFBE0)
	}
}

func TestCopyY(t *testing.T) {
	v := &loopy{0xFFFF}
	tr := &loopy{0x0000}
	v.copyY(tr)
	if v.data != 0xFFFF&0x841F {
		t.Errorf("Got v = 0x%04x, wanted 0x%04x", v.data, uint16(0xFFFF)&0x841F)
	}
}
