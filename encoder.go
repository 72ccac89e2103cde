// Package gifenc encodes a sequence of truecolor (RGBA) frames into a
// compliant, animated GIF89a byte stream: it trains a NeuQuant palette
// per frame, nearest-color maps pixels onto it, LZW-compresses the
// indexed pixels, and frames everything with the GIF89a structural
// bytes (header, logical screen descriptor, optional NETSCAPE loop
// extension, and per-frame graphic control/image descriptor/local color
// table).
package gifenc

import (
	"image/color"
	"io"
	"math"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// encoderState tracks the encode lifecycle; the state checks in
// AddFrame/Finish reject any call after Finish.
type encoderState int

const (
	stateFresh encoderState = iota
	stateStarted
	stateFinished
)

// Encoder owns the full encode lifecycle for one animated GIF. It is not
// safe for concurrent use: train/map/compress all run to completion
// inside the caller's AddFrame call, and the only yield point is the
// flush of the scratch buffer to the sink.
type Encoder struct {
	width, height int
	sink          io.Writer
	out           *ByteBuffer
	state         encoderState

	transparent *color.RGBA
	transIndex  int

	repeat            int // -1 = play once, 0 = infinite, 1..65535 = count
	delay             int // hundredths of a second
	disposalOverride  int // -1 = no override, else 0..7
	sample            int // NeuQuant sample factor, 1..30
	ditherMethod      DitherMethod
	serpentine        bool
	saturationBoost   float64
	contrastBoost     float64
	globalPalette     []byte

	frameCount int // frames actually encoded, independent of Start's state transition

	pixels        []byte // scratch RGB buffer, w*h*3
	alpha         []byte // scratch alpha buffer, w*h, one byte per pixel
	indexedPixels []byte
	palette       []byte
	quantizer     *Quantizer
	usedEntry     [256]bool

	logger zerolog.Logger
}

// NewEncoder constructs an Encoder for width x height frames, writing its
// GIF89a byte stream to sink as frames are added. Width and height
// outside [1, 65535] are the caller's responsibility (per the format's
// 16-bit fields) and are not validated here.
func NewEncoder(sink io.Writer, width, height int) *Encoder {
	return &Encoder{
		width:            width,
		height:           height,
		sink:             sink,
		out:              NewByteBuffer(),
		repeat:           -1,
		disposalOverride: -1,
		sample:           10,
		ditherMethod:     DitherNone,
		saturationBoost:  1.0,
		contrastBoost:    1.0,
		logger:           zerolog.Nop(),
	}
}

// SetDelay sets the delay between frames, in milliseconds.
func (e *Encoder) SetDelay(milliseconds int) {
	e.delay = roundDiv(milliseconds, 10)
}

// SetFrameRate sets the delay via a frames-per-second rate.
func (e *Encoder) SetFrameRate(fps int) {
	e.delay = roundDiv(100, fps)
}

func roundDiv(num, den int) int {
	return int(math.Round(float64(num) / float64(den)))
}

// SetDispose sets the per-frame disposal code (0..7). Negative values
// leave the encoder's automatic choice (2 when transparency is set, 0
// otherwise) in place.
func (e *Encoder) SetDispose(disposalCode int) {
	if disposalCode >= 0 {
		e.disposalOverride = disposalCode
	}
}

// SetRepeat sets the animation loop count: -1 plays once (no NETSCAPE
// extension emitted), 0 loops forever, 1..65535 repeats that many times.
func (e *Encoder) SetRepeat(repeat int) {
	e.repeat = repeat
}

// SetTransparent marks c as the transparent color. Pixels whose source
// alpha byte is zero are rewritten to the palette index closest to c.
func (e *Encoder) SetTransparent(c *color.RGBA) {
	e.transparent = c
}

// SetQuality sets the NeuQuant sample factor (1..30; lower samples more
// pixels and produces a better, slower palette). Values below 1 are
// silently clamped to 1.
func (e *Encoder) SetQuality(quality int) {
	if quality < 1 {
		e.logger.Warn().Int("requested", quality).Msg("gifenc: quality clamped to 1")
		quality = 1
	}
	e.sample = quality
}

// SetGlobalPalette installs a fixed 768-byte palette shared by every
// frame, skipping per-frame NeuQuant training and the per-frame local
// color table. Opt-in; the default (no global palette) trains a fresh
// palette per frame.
func (e *Encoder) SetGlobalPalette(palette []byte) {
	e.globalPalette = palette
}

// GetGlobalPalette returns a copy of the palette set by SetGlobalPalette,
// or nil if none was set.
func (e *Encoder) GetGlobalPalette() []byte {
	if len(e.globalPalette) == 0 {
		return nil
	}
	out := make([]byte, len(e.globalPalette))
	copy(out, e.globalPalette)
	return out
}

// Start writes the GIF89a header and transitions Fresh -> Started. It is
// optional: AddFrame self-repairs by calling Start automatically on the
// first frame if the encoder is still Fresh.
func (e *Encoder) Start() error {
	if e.state == stateFinished {
		return errors.WithStack(ErrEncoderFinished)
	}
	if e.state != stateFresh {
		return nil
	}
	e.out.Write([]byte("GIF89a"))
	e.state = stateStarted
	return nil
}

// AddFrame encodes one RGBA frame: it is extracted to RGB, quantized (or
// mapped against the global palette), LZW-compressed, and the resulting
// structural bytes are flushed to the sink before returning.
func (e *Encoder) AddFrame(rgba []byte) error {
	if e.state == stateFinished {
		return errors.WithStack(ErrEncoderFinished)
	}
	want := 4 * e.width * e.height
	if len(rgba) != want {
		return errors.Wrapf(ErrFrameSizeMismatch, "got %d bytes, want %d for %dx%d", len(rgba), want, e.width, e.height)
	}

	firstFrame := e.frameCount == 0
	if e.state == stateFresh {
		if err := e.Start(); err != nil {
			return err
		}
	}
	e.frameCount++

	e.extractRGB(rgba)
	e.analyzePixels()

	if firstFrame {
		e.writeLSD()
		e.writePalette(e.palette)
		if e.repeat >= 0 {
			e.writeNetscapeExt()
		}
	}

	e.writeGraphicControlExt()
	e.writeImageDescriptor(firstFrame)

	if !firstFrame && e.globalPalette == nil {
		e.writePalette(e.palette)
	}

	e.writePixels()

	if err := e.flush(); err != nil {
		return err
	}
	return nil
}

// Finish writes the GIF trailer byte, flushes it to the sink, closes the
// sink if it implements io.Closer, and transitions Started -> Finished.
func (e *Encoder) Finish() error {
	if e.state == stateFinished {
		return errors.WithStack(ErrEncoderFinished)
	}
	e.out.WriteByte(0x3b)
	if err := e.flush(); err != nil {
		return err
	}
	e.state = stateFinished
	if c, ok := e.sink.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return errors.Wrap(err, "gifenc: closing sink")
		}
	}
	return nil
}

func (e *Encoder) flush() error {
	if _, err := e.sink.Write(e.out.View()); err != nil {
		return errors.Wrap(err, "gifenc: sink write failed")
	}
	e.out.Reset()
	return nil
}

// extractRGB drops the alpha channel, filling e.pixels with w*h*3 bytes
// in row-major R,G,B order and e.alpha with each pixel's source alpha
// byte (consumed later by analyzePixels to rewrite transparent pixels).
// The channel order handed to the quantizer and to LookupRGB is R,G,B
// on both ends.
func (e *Encoder) extractRGB(rgba []byte) {
	n := e.width * e.height
	if cap(e.pixels) < n*3 {
		e.pixels = make([]byte, n*3)
	} else {
		e.pixels = e.pixels[:n*3]
	}
	if cap(e.alpha) < n {
		e.alpha = make([]byte, n)
	} else {
		e.alpha = e.alpha[:n]
	}
	for i := 0; i < n; i++ {
		e.pixels[i*3] = rgba[i*4]
		e.pixels[i*3+1] = rgba[i*4+1]
		e.pixels[i*3+2] = rgba[i*4+2]
		e.alpha[i] = rgba[i*4+3]
	}
	e.applyColorEnhancement()
}

// analyzePixels trains (or reuses) the palette, maps every pixel to a
// palette index, resolves the transparent index if one is wanted, and
// rewrites every indexed pixel whose source alpha was 0 to that index.
func (e *Encoder) analyzePixels() {
	for i := range e.usedEntry {
		e.usedEntry[i] = false
	}

	if e.globalPalette != nil {
		e.palette = e.globalPalette
		e.quantizer = nil
	} else {
		if len(e.pixels) < minPictureBytes {
			e.logger.Debug().Int("bytes", len(e.pixels)).Msg("gifenc: frame too small, forcing sample factor 1")
		}
		e.quantizer = NewQuantizer(e.pixels, e.sample)
		e.palette = e.quantizer.ColorMap()
	}

	if e.ditherMethod != DitherNone {
		e.ditherPixels(e.ditherMethod, e.serpentine)
	} else {
		e.indexPixels()
	}

	if e.transparent != nil {
		e.transIndex = e.findClosestTransparent(*e.transparent)
		for i, a := range e.alpha {
			if a == 0 {
				e.indexedPixels[i] = byte(e.transIndex)
				e.usedEntry[e.transIndex] = true
			}
		}
	}
}

// indexPixels performs the nearest-color mapping: every RGB
// triple is looked up against the current palette and the match is
// recorded both in indexedPixels and in usedEntry.
func (e *Encoder) indexPixels() {
	n := len(e.pixels) / 3
	if cap(e.indexedPixels) < n {
		e.indexedPixels = make([]byte, n)
	} else {
		e.indexedPixels = e.indexedPixels[:n]
	}
	for j := 0; j < n; j++ {
		k := j * 3
		idx := e.lookup(e.pixels[k], e.pixels[k+1], e.pixels[k+2])
		e.usedEntry[idx] = true
		e.indexedPixels[j] = byte(idx)
	}
}

// lookup resolves one RGB triple to a palette index, using the
// quantizer's fast nearest-color search when a quantizer trained this
// frame's palette, or a linear squared-distance scan over an externally
// supplied palette (global or empty) otherwise.
func (e *Encoder) lookup(r, g, b byte) int {
	if e.quantizer != nil {
		return e.quantizer.LookupRGB(r, g, b)
	}
	return nearestPaletteEntry(e.palette, r, g, b, nil)
}

// nearestPaletteEntry does an exhaustive squared-Euclidean-distance scan
// over pal (a tightly packed RGB-triple byte slice), optionally
// restricted to indices where filter[i] is true.
func nearestPaletteEntry(pal []byte, r, g, b byte, filter []bool) int {
	best := -1
	bestDist := math.MaxInt32
	n := len(pal) / 3
	for i := 0; i < n; i++ {
		if filter != nil && !filter[i] {
			continue
		}
		dr := int(r) - int(pal[i*3])
		dg := int(g) - int(pal[i*3+1])
		db := int(b) - int(pal[i*3+2])
		d := dr*dr + dg*dg + db*db
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	if best < 0 {
		best = 0
	}
	return best
}

// findClosestTransparent resolves the transparent color to the nearest
// *used* palette entry by squared Euclidean distance. Narrower than the
// general nearest-color lookup, which searches every entry regardless
// of use.
func (e *Encoder) findClosestTransparent(c color.RGBA) int {
	return nearestPaletteEntry(e.palette, c.R, c.G, c.B, e.usedEntry[:])
}

func (e *Encoder) writeLSD() {
	e.writeShort(e.width)
	e.writeShort(e.height)
	e.out.WriteByte(0xf7) // GCT flag=1, color resolution=7, sort=0, size=7 (256 entries)
	e.out.WriteByte(0)    // background color index
	e.out.WriteByte(0)    // pixel aspect ratio
}

func (e *Encoder) writeNetscapeExt() {
	e.out.Write([]byte{0x21, 0xff, 0x0b})
	e.out.Write([]byte("NETSCAPE2.0"))
	e.out.Write([]byte{0x03, 0x01})
	e.writeShort(e.repeat)
	e.out.WriteByte(0)
}

func (e *Encoder) writeGraphicControlExt() {
	e.out.Write([]byte{0x21, 0xf9, 0x04})

	transparencyFlag := 0
	disposal := 0
	if e.transparent != nil {
		transparencyFlag = 1
		disposal = 2
	}
	if e.disposalOverride >= 0 {
		disposal = e.disposalOverride & 7
	}

	packed := byte(disposal<<2) | byte(transparencyFlag)
	e.out.WriteByte(packed)
	e.writeShort(e.delay)
	e.out.WriteByte(byte(e.transIndex))
	e.out.WriteByte(0)
}

func (e *Encoder) writeImageDescriptor(firstFrame bool) {
	e.out.WriteByte(0x2c)
	e.writeShort(0)
	e.writeShort(0)
	e.writeShort(e.width)
	e.writeShort(e.height)

	if firstFrame || e.globalPalette != nil {
		e.out.WriteByte(0x00) // no LCT: use GCT
	} else {
		e.out.WriteByte(0x87) // LCT flag=1, size=7 (256 entries)
	}
}

// writePalette writes pal followed by zero padding out to a full
// 256-entry (768 byte) color table, matching the size-7 field in the
// GCT/LCT packed byte.
func (e *Encoder) writePalette(pal []byte) {
	e.out.Write(pal)
	pad := 3*256 - len(pal)
	if pad > 0 {
		e.out.WriteRepeated(0, pad)
	}
}

func (e *Encoder) writeShort(v int) {
	e.out.WriteByte(byte(v & 0xff))
	e.out.WriteByte(byte((v >> 8) & 0xff))
}

func (e *Encoder) writePixels() {
	enc := newLZWEncoder(e.width, e.height, e.indexedPixels, 8, e.logger)
	enc.encode(e.out)
}
