package nes

import "image/color"

const (
	// FrameWidth and FrameHeight are the visible picture dimensions.
	FrameWidth  = 256
	FrameHeight = 240
)

// systemPalette is the NTSC master palette: the 64 colors the PPU can
// actually emit. Palette RAM holds indexes into this table.
var systemPalette = [64]color.RGBA{
	{0x7C, 0x7C, 0x7C, 0xFF}, {0x00, 0x00, 0xFC, 0xFF},
	{0x00, 0x00, 0xBC, 0xFF}, {0x44, 0x28, 0xBC, 0xFF},
	{0x94, 0x00, 0x84, 0xFF}, {0xA8, 0x00, 0x20, 0xFF},
	{0xA8, 0x10, 0x00, 0xFF}, {0x88, 0x14, 0x00, 0xFF},
	{0x50, 0x30, 0x00, 0xFF}, {0x00, 0x78, 0x00, 0xFF},
	{0x00, 0x68, 0x00, 0xFF}, {0x00, 0x58, 0x00, 0xFF},
	{0x00, 0x40, 0x58, 0xFF}, {0x00, 0x00, 0x00, 0xFF},
	{0x00, 0x00, 0x00, 0xFF}, {0x00, 0x00, 0x00, 0xFF},
	{0xBC, 0xBC, 0xBC, 0xFF}, {0x00, 0x78, 0xF8, 0xFF},
	{0x00, 0x58, 0xF8, 0xFF}, {0x68, 0x44, 0xFC, 0xFF},
	{0xD8, 0x00, 0xCC, 0xFF}, {0xE4, 0x00, 0x58, 0xFF},
	{0xF8, 0x38, 0x00, 0xFF}, {0xE4, 0x5C, 0x10, 0xFF},
	{0xAC, 0x7C, 0x00, 0xFF}, {0x00, 0xB8, 0x00, 0xFF},
	{0x00, 0xA8, 0x00, 0xFF}, {0x00, 0xA8, 0x44, 0xFF},
	{0x00, 0x88, 0x88, 0xFF}, {0x00, 0x00, 0x00, 0xFF},
	{0x00, 0x00, 0x00, 0xFF}, {0x00, 0x00, 0x00, 0xFF},
	{0xF8, 0xF8, 0xF8, 0xFF}, {0x3C, 0xBC, 0xFC, 0xFF},
	{0x68, 0x88, 0xFC, 0xFF}, {0x98, 0x78, 0xF8, 0xFF},
	{0xF8, 0x78, 0xF8, 0xFF}, {0xF8, 0x58, 0x98, 0xFF},
	{0xF8, 0x78, 0x58, 0xFF}, {0xFC, 0xA0, 0x44, 0xFF},
	{0xF8, 0xB8, 0x00, 0xFF}, {0xB8, 0xF8, 0x18, 0xFF},
	{0x58, 0xD8, 0x54, 0xFF}, {0x58, 0xF8, 0x98, 0xFF},
	{0x00, 0xE8, 0xD8, 0xFF}, {0x78, 0x78, 0x78, 0xFF},
	{0x00, 0x00, 0x00, 0xFF}, {0x00, 0x00, 0x00, 0xFF},
	{0xFC, 0xFC, 0xFC, 0xFF}, {0xA4, 0xE4, 0xFC, 0xFF},
	{0xB8, 0xB8, 0xF8, 0xFF}, {0xD8, 0xB8, 0xF8, 0xFF},
	{0xF8, 0xB8, 0xF8, 0xFF}, {0xF8, 0xA4, 0xC0, 0xFF},
	{0xF0, 0xD0, 0xB0, 0xFF}, {0xFC, 0xE0, 0xA8, 0xFF},
	{0xF8, 0xD8, 0x78, 0xFF}, {0xD8, 0xF8, 0x78, 0xFF},
	{0xB8, 0xF8, 0xB8, 0xFF}, {0xB8, 0xF8, 0xD8, 0xFF},
	{0x00, 0xFC, 0xFC, 0xFF}, {0xF8, 0xD8, 0xF8, 0xFF},
	{0x00, 0x00, 0x00, 0xFF}, {0x00, 0x00, 0x00, 0xFF},
}

// Frame is a finished 256x240 picture in RGBA order, ready to upload into
// a streaming texture.
type Frame struct {
	Pix []byte

	// opaque marks pixels where the background drew a non-backdrop color,
	// which is what behind-background sprites test against.
	opaque []bool
}

func NewFrame() *Frame {
	return &Frame{
		Pix:    make([]byte, FrameWidth*FrameHeight*4),
		opaque: make([]bool, FrameWidth*FrameHeight),
	}
}

func (f *Frame) SetPixel(x, y int, c color.RGBA) {
	if x < 0 || x >= FrameWidth || y < 0 || y >= FrameHeight {
		return
	}
	base := (y*FrameWidth + x) * 4
	f.Pix[base] = c.R
	f.Pix[base+1] = c.G
	f.Pix[base+2] = c.B
	f.Pix[base+3] = c.A
}

// drawNametables renders the four logical nametables into a 512x480 RGBA
// buffer, resolving mirroring the same way the address bus does. Debug
// aid for inspecting scrolling layouts.
func (p *PPU) drawNametables(buf []byte) {
	const w = FrameWidth * 2

	setPixel := func(x, y int, c [4]byte) {
		base := (y*w + x) * 4
		if base+3 < len(buf) {
			copy(buf[base:], c[:])
		}
	}

	bank := p.backgroundTable()
	for table := uint16(0); table < 4; table++ {
		nametable := 0x2000 + 0x400*table
		originX := int(table%2) * FrameWidth
		originY := int(table/2) * FrameHeight

		for i := uint16(0); i < 0x03C0; i++ {
			tile := uint16(p.vram[p.mirrorVRAM(nametable+i)])
			tileX := int(i % 32)
			tileY := int(i / 32)
			colors := p.backgroundPalette(nametable, tileX, tileY)

			for row := uint16(0); row < 8; row++ {
				lo := p.Cartridge.readCHR(bank + tile*16 + row)
				hi := p.Cartridge.readCHR(bank + tile*16 + row + 8)

				for col := 7; col >= 0; col-- {
					pixel := (hi&1)<<1 | lo&1
					hi >>= 1
					lo >>= 1

					rgba := systemPalette[colors[pixel]&0x3F]
					setPixel(originX+tileX*8+col, originY+tileY*8+int(row),
						[4]byte{rgba.R, rgba.G, rgba.B, rgba.A})
				}
			}
		}
	}
}

// drawPatternTables renders both pattern tables side by side, 16x16 tiles
// each, through the chosen background palette. Debug aid for inspecting
// CHR contents.
func (p *PPU) drawPatternTables(f *Frame, palette byte) {
	start := 1 + palette%4*4
	colors := [4]byte{
		p.paletteData[0],
		p.paletteData[start],
		p.paletteData[start+1],
		p.paletteData[start+2],
	}

	for bank := uint16(0); bank < 2; bank++ {
		for tile := uint16(0); tile < 256; tile++ {
			tileX := int(bank)*128 + int(tile%16)*8
			tileY := int(tile / 16 * 8)

			for row := uint16(0); row < 8; row++ {
				lo := p.Cartridge.readCHR(bank*0x1000 + tile*16 + row)
				hi := p.Cartridge.readCHR(bank*0x1000 + tile*16 + row + 8)

				for col := 7; col >= 0; col-- {
					pixel := (hi&1)<<1 | lo&1
					hi >>= 1
					lo >>= 1
					f.SetPixel(tileX+col, tileY+int(row), systemPalette[colors[pixel]&0x3F])
				}
			}
		}
	}
}

// render produces the frame for the just-finished picture: the whole
// background layer from the selected nametable, then the sprite layer on
// top of it. It runs once per frame, at the 261 -> 0 scanline wrap.
func (p *PPU) render() {
	f := p.buffer

	backdrop := systemPalette[p.paletteData[0]&0x3F]
	for i := range f.opaque {
		f.opaque[i] = false
	}
	for y := 0; y < FrameHeight; y++ {
		for x := 0; x < FrameWidth; x++ {
			f.SetPixel(x, y, backdrop)
		}
	}

	if p.Mask&ShowBackground > 0 {
		p.renderBackground(f)
	}
	if p.Mask&ShowSprites > 0 {
		p.renderSprites(f)
	}
}

func (p *PPU) backgroundTable() uint16 {
	if p.Ctrl&BackgroundPatternTableAddress > 0 {
		return 0x1000
	}
	return 0
}

func (p *PPU) spriteTable() uint16 {
	if p.Ctrl&SpritePatternTableAddress > 0 {
		return 0x1000
	}
	return 0
}

// renderBackground walks the 32x30 grid of the nametable selected by
// PPUCTRL. Each cell names an 8x8 tile in the background pattern table;
// the attribute table supplies the upper two bits of the palette index
// for every 2x2 tile quadrant.
func (p *PPU) renderBackground(f *Frame) {
	nametable := 0x2000 + 0x400*uint16(p.Ctrl&NametableAddress)
	bank := p.backgroundTable()

	for i := uint16(0); i < 0x03C0; i++ {
		tile := uint16(p.vram[p.mirrorVRAM(nametable+i)])
		tileX := int(i % 32)
		tileY := int(i / 32)
		colors := p.backgroundPalette(nametable, tileX, tileY)

		for row := uint16(0); row < 8; row++ {
			lo := p.Cartridge.readCHR(bank + tile*16 + row)
			hi := p.Cartridge.readCHR(bank + tile*16 + row + 8)

			for col := 7; col >= 0; col-- {
				pixel := (hi&1)<<1 | lo&1
				hi >>= 1
				lo >>= 1

				if pixel == 0 {
					continue
				}
				x := tileX*8 + col
				y := tileY*8 + int(row)
				f.SetPixel(x, y, systemPalette[colors[pixel]&0x3F])
				f.opaque[y*FrameWidth+x] = true
			}
		}
	}
}

// backgroundPalette picks the 4-entry palette for a tile. One attribute
// byte covers a 4x4 tile group, two bits per 2x2 quadrant.
func (p *PPU) backgroundPalette(nametable uint16, tileX, tileY int) [4]byte {
	attr := p.vram[p.mirrorVRAM(nametable+0x3C0+uint16(tileY/4*8+tileX/4))]

	shift := byte(tileX%4/2*2 + tileY%4/2*4)
	idx := attr >> shift & 0x03

	start := 1 + idx*4
	return [4]byte{
		p.paletteData[0],
		p.paletteData[start],
		p.paletteData[start+1],
		p.paletteData[start+2],
	}
}

// renderSprites draws the 64 OAM entries back to front so that lower OAM
// indexes win overlaps. Sprites with the behind-background attribute only
// show where the background left the backdrop color.
func (p *PPU) renderSprites(f *Frame) {
	height := 8
	if p.Ctrl&SpriteSize > 0 {
		height = 16
	}

	for i := 63; i >= 0; i-- {
		spriteY := int(p.oamData[i*4]) + 1
		tile := uint16(p.oamData[i*4+1])
		attr := p.oamData[i*4+2]
		spriteX := int(p.oamData[i*4+3])

		start := 0x11 + attr&0x03*4
		behind := attr&0x20 > 0
		flipH := attr&0x40 > 0
		flipV := attr&0x80 > 0

		bank := p.spriteTable()
		if height == 16 {
			// 8x16 sprites pick their bank from bit 0 of the tile index
			bank = 0x1000 * (tile & 1)
			tile &= 0xFE
		}

		for row := 0; row < height; row++ {
			y := row
			if flipV {
				y = height - 1 - row
			}

			half := uint16(y / 8)
			line := uint16(y % 8)
			lo := p.Cartridge.readCHR(bank + (tile+half)*16 + line)
			hi := p.Cartridge.readCHR(bank + (tile+half)*16 + line + 8)

			for col := 7; col >= 0; col-- {
				pixel := (hi&1)<<1 | lo&1
				hi >>= 1
				lo >>= 1

				if pixel == 0 {
					continue
				}

				x := col
				if flipH {
					x = 7 - col
				}
				outX := spriteX + x
				outY := spriteY + row
				if outX >= FrameWidth || outY >= FrameHeight {
					continue
				}
				if behind && f.opaque[outY*FrameWidth+outX] {
					continue
				}

				c := p.paletteData[start+pixel-1]
				f.SetPixel(outX, outY, systemPalette[c&0x3F])
			}
		}
	}
}
