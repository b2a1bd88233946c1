package ppu

import (
	"testing"
)

func TestSpritePatternAddr8x8(t *testing.T) {
	cases := []struct {
		tile, attr uint8
		row        int
		spriteBase uint16
		want       uint16
	}{
		{0x10, 0x00, 3, 0x0000, 0x0103},
		{0x10, 0x80, 3, 0x0000, 0x0104}, // vertical flip: row = 7-3 = 4
		{0x10, 0x00, 3, 0x1000, 0x1103},
	}

	for i, tc := range cases {
		if got := spritePatternAddr(tc.tile, tc.attr, tc.row, false, tc.spriteBase); got != tc.want {
			t.Errorf("%d: Got 0x%04x, wanted 0x%04x", i, got, tc.want)
		}
	}
}

func TestSpritePatternAddr8x16(t *testing.T) {
	cases := []struct {
		tile, attr uint8
		row        int
		want       uint16
	}{
		{0x10, 0x00, 3, 0x0000 + 0x10*16 + 3},       // even tile, table 0, top half
		{0x11, 0x00, 3, 0x1000 + 0x10*16 + 3},       // odd tile -> table 1, tile&0xFE
		{0x10, 0x00, 9, 0x0000 + 0x11*16 + 1},       // row>7 -> next tile, row-8
		{0x10, 0x80, 3, 0x0000 + 0x11*16 + 4},       // vertical flip: row=15-3=12 -> tile+1,row-8=4
	}

	for i, tc := range cases {
		if got := spritePatternAddr(tc.tile, tc.attr, tc.row, true, 0x0000); got != tc.want {
			t.Errorf("%d: Got 0x%04x, wanted 0x%04x", i, got, tc.want)
		}
	}
}

func TestDecodeSpritePattern(t *testing.T) {
	// lo=0x80 (bit7 set), hi=0x00 -> leftmost pixel has p1=1,p2=0 -> nibble 0b01
	pattern := decodeSpritePattern(0x80, 0x00, 0x00)
	if got := (pattern >> 28) & 0x0F; got != 0x01 {
		t.Errorf("Got leftmost nibble %01x, wanted 0x1", got)
	}

	// With horizontal flip, bit0 of lo/hi becomes the leftmost pixel.
	flipped := decodeSpritePattern(0x01, 0x00, 0x40)
	if got := (flipped >> 28) & 0x0F; got != 0x01 {
		t.Errorf("Got leftmost nibble %01x, wanted 0x1 with hflip", got)
	}

	// Palette bits (attr & 0x03) land in bits 2-3 of every nibble.
	withPalette := decodeSpritePattern(0x80, 0x00, 0x02)
	if got := (withPalette >> 28) & 0x0F; got != 0b1001 {
		t.Errorf("Got leftmost nibble %04b, wanted 1001", got)
	}
}

func TestOAMAttributes(t *testing.T) {
	cases := []struct {
		attrib         uint8
		wantPa         uint8
		wantPr         priority
		wantFH, wantFV bool
	}{
		{0b11111111, 0x03, BACK, true, true},
		{0b01111111, 0x03, BACK, true, false},
		{0b00111111, 0x03, BACK, false, false},
		{0b00111101, 0x01, BACK, false, false},
		{0b00011101, 0x01, FRONT, false, false},
		{0b10011101, 0x01, FRONT, false, true},
		{0b10011110, 0x02, FRONT, false, true},
	}

	for i, tc := range cases {
		o := OAMFromBytes([]uint8{0, 0, tc.attrib, 0})

		if o.palette != tc.wantPa || o.renderP != tc.wantPr || o.flipH != tc.wantFH || o.flipV != tc.wantFV {
			t.Errorf("%d: %02x, %d, %t, %t; wanted %02x, %d, %t, %t", i, o.palette, o.renderP, o.flipH, o.flipV, tc.wantPa, tc.wantPr, tc.wantFH, tc.wantFV)
		}
	}
}
