package gifenc

import (
	"bytes"
	"errors"
	"image/color"
	"testing"
)

func solidFrame(w, h int, r, g, b, a byte) []byte {
	buf := make([]byte, w*h*4)
	for i := 0; i < w*h; i++ {
		buf[i*4] = r
		buf[i*4+1] = g
		buf[i*4+2] = b
		buf[i*4+3] = a
	}
	return buf
}

func checkerFrame(w, h int) []byte {
	buf := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			if (x+y)%2 == 0 {
				buf[i], buf[i+1], buf[i+2], buf[i+3] = 255, 0, 0, 255
			} else {
				buf[i], buf[i+1], buf[i+2], buf[i+3] = 0, 0, 255, 255
			}
		}
	}
	return buf
}

// imageDescriptorOffsets walks the GIF block structure (header, LSD, GCT,
// extensions, image descriptors with their color tables and LZW
// sub-blocks, trailer) and returns the offset of every image separator
// byte. Unlike a raw byte scan, this cannot be fooled by 0x2c bytes that
// happen to appear inside palette or compressed data.
func imageDescriptorOffsets(t *testing.T, data []byte) []int {
	t.Helper()

	skipSubBlocks := func(pos int) int {
		for {
			n := int(data[pos])
			pos++
			if n == 0 {
				return pos
			}
			pos += n
		}
	}

	pos := 6 // header
	packed := data[10]
	pos += 7 // LSD
	if packed&0x80 != 0 {
		pos += 3 * (2 << (packed & 0x07)) // GCT
	}

	var offsets []int
	for {
		switch data[pos] {
		case 0x21: // extension: label byte then sub-blocks
			pos = skipSubBlocks(pos + 2)
		case 0x2c:
			offsets = append(offsets, pos)
			idPacked := data[pos+9]
			pos += 10
			if idPacked&0x80 != 0 {
				pos += 3 * (2 << (idPacked & 0x07)) // LCT
			}
			pos++ // LZW min code size
			pos = skipSubBlocks(pos)
		case 0x3b:
			return offsets
		default:
			t.Fatalf("unexpected block byte %#x at offset %d", data[pos], pos)
		}
	}
}

// TestSingleFrameStructure covers scenario S1: header, trailer, LSD
// dimensions, the GCT flag and 256-entry size field, a zero-length
// sub-block terminator, and the NETSCAPE loop extension.
func TestSingleFrameStructure(t *testing.T) {
	var out bytes.Buffer
	enc := NewEncoder(&out, 4, 4)
	enc.SetRepeat(0)

	if err := enc.AddFrame(solidFrame(4, 4, 10, 20, 30, 255)); err != nil {
		t.Fatalf("AddFrame: %v", err)
	}
	if err := enc.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	data := out.Bytes()
	if !bytes.HasPrefix(data, []byte("GIF89a")) {
		t.Fatalf("expected GIF89a header, got %q", data[:6])
	}
	if data[len(data)-1] != 0x3b {
		t.Fatalf("expected trailer byte 0x3b, got %#x", data[len(data)-1])
	}
	if data[len(data)-2] != 0x00 {
		t.Fatalf("expected zero-length sub-block terminator before the trailer, got %#x", data[len(data)-2])
	}

	width := int(data[6]) | int(data[7])<<8
	height := int(data[8]) | int(data[9])<<8
	if width != 4 || height != 4 {
		t.Fatalf("LSD dimensions = %dx%d, want 4x4", width, height)
	}

	packed := data[10]
	if packed&0x80 == 0 {
		t.Fatalf("expected GCT flag set in LSD packed byte, got %#x", packed)
	}
	if size := packed & 0x07; size != 7 {
		t.Fatalf("expected GCT size field 7 (256 entries), got %d", size)
	}

	// NETSCAPE loop extension must be present since SetRepeat(0) >= 0.
	if !bytes.Contains(data, []byte("NETSCAPE2.0")) {
		t.Fatal("expected NETSCAPE2.0 application extension")
	}
}

// TestRepeatNegativeOmitsNetscapeExtension covers the -1 "play once" case.
func TestRepeatNegativeOmitsNetscapeExtension(t *testing.T) {
	var out bytes.Buffer
	enc := NewEncoder(&out, 2, 2)
	enc.SetRepeat(-1)

	if err := enc.AddFrame(solidFrame(2, 2, 1, 2, 3, 255)); err != nil {
		t.Fatalf("AddFrame: %v", err)
	}
	if err := enc.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	if bytes.Contains(out.Bytes(), []byte("NETSCAPE2.0")) {
		t.Fatal("did not expect NETSCAPE2.0 extension when repeat is -1")
	}
}

// TestTwoFrameUsesLocalColorTable covers scenario S4: the second frame
// must carry an image descriptor with an LCT flag and size-7 field.
func TestTwoFrameUsesLocalColorTable(t *testing.T) {
	var out bytes.Buffer
	enc := NewEncoder(&out, 4, 4)
	enc.SetRepeat(0)

	if err := enc.AddFrame(solidFrame(4, 4, 255, 0, 0, 255)); err != nil {
		t.Fatalf("AddFrame 1: %v", err)
	}
	if err := enc.AddFrame(checkerFrame(4, 4)); err != nil {
		t.Fatalf("AddFrame 2: %v", err)
	}
	if err := enc.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	data := out.Bytes()
	descriptors := imageDescriptorOffsets(t, data)
	if len(descriptors) != 2 {
		t.Fatalf("expected 2 image descriptors, found %d", len(descriptors))
	}
	packedOffset := descriptors[1] + 9
	if got := data[packedOffset]; got != 0x87 {
		t.Fatalf("expected second frame's image descriptor packed byte 0x87, got %#x", got)
	}
}

// TestGlobalPaletteSkipsLocalColorTable verifies the opt-in shared
// palette suppresses per-frame LCTs entirely.
func TestGlobalPaletteSkipsLocalColorTable(t *testing.T) {
	var out bytes.Buffer
	enc := NewEncoder(&out, 2, 2)
	enc.SetRepeat(0)

	palette := make([]byte, 768)
	for i := range palette {
		palette[i] = byte(i % 256)
	}
	enc.SetGlobalPalette(palette)

	if err := enc.AddFrame(solidFrame(2, 2, 1, 1, 1, 255)); err != nil {
		t.Fatalf("AddFrame 1: %v", err)
	}
	if err := enc.AddFrame(solidFrame(2, 2, 2, 2, 2, 255)); err != nil {
		t.Fatalf("AddFrame 2: %v", err)
	}
	if err := enc.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	if got := enc.GetGlobalPalette(); len(got) != 768 {
		t.Fatalf("expected GetGlobalPalette to return 768 bytes, got %d", len(got))
	}

	data := out.Bytes()
	if !bytes.Equal(data[13:13+768], palette) {
		t.Fatal("global color table does not match the supplied palette")
	}

	descriptors := imageDescriptorOffsets(t, data)
	if len(descriptors) != 2 {
		t.Fatalf("expected 2 image descriptors, found %d", len(descriptors))
	}
	for _, off := range descriptors {
		packed := data[off+9]
		if packed != 0x00 {
			t.Fatalf("expected no LCT with a global palette, got packed byte %#x", packed)
		}
	}
}

// TestTransparencyGCEPacking covers scenario S3: setting a transparent
// color must set the GCE's transparency bit and disposal 2.
func TestTransparencyGCEPacking(t *testing.T) {
	var out bytes.Buffer
	enc := NewEncoder(&out, 2, 2)
	enc.SetTransparent(&color.RGBA{R: 0, G: 0, B: 0, A: 255})

	if err := enc.AddFrame(solidFrame(2, 2, 10, 10, 10, 255)); err != nil {
		t.Fatalf("AddFrame: %v", err)
	}
	if err := enc.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	data := out.Bytes()
	idx := 6 + 7 + 768 // header + LSD + GCT; no NETSCAPE since repeat defaults to -1
	if !bytes.Equal(data[idx:idx+3], []byte{0x21, 0xf9, 0x04}) {
		t.Fatalf("expected a graphic control extension at offset %d, got % x", idx, data[idx:idx+3])
	}
	packed := data[idx+3]
	if packed&0x01 == 0 {
		t.Fatalf("expected transparency flag set, packed byte %#x", packed)
	}
	if disposal := (packed >> 2) & 0x07; disposal != 2 {
		t.Fatalf("expected disposal method 2, got %d", disposal)
	}
}

// TestTransparentAlphaRewritesIndexedPixels is scenario S3's pixel-level
// assertion: every indexed pixel whose source alpha byte was 0 must be
// overwritten with transIndex, not just reflected in the GCE header.
func TestTransparentAlphaRewritesIndexedPixels(t *testing.T) {
	var out bytes.Buffer
	enc := NewEncoder(&out, 4, 1)
	enc.SetTransparent(&color.RGBA{R: 0, G: 0xff, B: 0, A: 255})

	frame := []byte{
		200, 0, 0, 255,
		0, 200, 0, 0,
		0, 0, 200, 255,
		10, 10, 10, 0,
	}
	if err := enc.AddFrame(frame); err != nil {
		t.Fatalf("AddFrame: %v", err)
	}
	if err := enc.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	if len(enc.indexedPixels) != 4 {
		t.Fatalf("expected 4 indexed pixels, got %d", len(enc.indexedPixels))
	}
	if enc.indexedPixels[1] != byte(enc.transIndex) {
		t.Fatalf("indexedPixels[1] = %d, want transIndex %d", enc.indexedPixels[1], enc.transIndex)
	}
	if enc.indexedPixels[3] != byte(enc.transIndex) {
		t.Fatalf("indexedPixels[3] = %d, want transIndex %d", enc.indexedPixels[3], enc.transIndex)
	}
	if enc.indexedPixels[0] == byte(enc.transIndex) {
		t.Fatalf("indexedPixels[0] unexpectedly rewritten to transIndex %d", enc.transIndex)
	}
	if enc.indexedPixels[2] == byte(enc.transIndex) {
		t.Fatalf("indexedPixels[2] unexpectedly rewritten to transIndex %d", enc.transIndex)
	}
	if !enc.usedEntry[enc.transIndex] {
		t.Fatalf("transIndex %d must be marked used once rewritten into indexedPixels", enc.transIndex)
	}
}

func TestSetDelayRoundsToNearestHundredth(t *testing.T) {
	enc := NewEncoder(&bytes.Buffer{}, 1, 1)
	enc.SetDelay(100)
	if enc.delay != 10 {
		t.Fatalf("SetDelay(100): expected 10, got %d", enc.delay)
	}
	enc.SetDelay(45)
	if enc.delay != 5 { // round(4.5) == 5 per math.Round half-away-from-zero
		t.Fatalf("SetDelay(45): expected 5, got %d", enc.delay)
	}
}

func TestSetFrameRateMapsToDelay(t *testing.T) {
	enc := NewEncoder(&bytes.Buffer{}, 1, 1)
	enc.SetFrameRate(25)
	if enc.delay != 4 {
		t.Fatalf("SetFrameRate(25): expected delay 4, got %d", enc.delay)
	}
}

func TestSetQualityClampsBelowOne(t *testing.T) {
	enc := NewEncoder(&bytes.Buffer{}, 1, 1)
	enc.SetQuality(-5)
	if enc.sample != 1 {
		t.Fatalf("expected sample clamped to 1, got %d", enc.sample)
	}
}

func TestAddFrameRejectsWrongSize(t *testing.T) {
	enc := NewEncoder(&bytes.Buffer{}, 4, 4)
	err := enc.AddFrame(make([]byte, 10))
	if !errors.Is(err, ErrFrameSizeMismatch) {
		t.Fatalf("expected ErrFrameSizeMismatch, got %v", err)
	}
}

func TestLifecycleErrorsAfterFinish(t *testing.T) {
	var out bytes.Buffer
	enc := NewEncoder(&out, 2, 2)
	if err := enc.AddFrame(solidFrame(2, 2, 1, 1, 1, 255)); err != nil {
		t.Fatalf("AddFrame: %v", err)
	}
	if err := enc.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	if err := enc.AddFrame(solidFrame(2, 2, 1, 1, 1, 255)); !errors.Is(err, ErrEncoderFinished) {
		t.Fatalf("expected ErrEncoderFinished from AddFrame after Finish, got %v", err)
	}
	if err := enc.Finish(); !errors.Is(err, ErrEncoderFinished) {
		t.Fatalf("expected ErrEncoderFinished from second Finish, got %v", err)
	}
}

func TestStartIsIdempotentAndOptional(t *testing.T) {
	var out bytes.Buffer
	enc := NewEncoder(&out, 2, 2)
	if err := enc.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := enc.Start(); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if err := enc.AddFrame(solidFrame(2, 2, 1, 1, 1, 255)); err != nil {
		t.Fatalf("AddFrame: %v", err)
	}
	if err := enc.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if !bytes.HasPrefix(out.Bytes(), []byte("GIF89a")) {
		t.Fatal("expected single GIF89a header despite repeated Start calls")
	}
	if bytes.HasPrefix(out.Bytes()[6:], []byte("GIF89a")) {
		t.Fatal("GIF89a header written twice by repeated Start calls")
	}
}

func TestEveryPaletteIndexUsedInIndexedPixelsIsMarkedUsed(t *testing.T) {
	var out bytes.Buffer
	enc := NewEncoder(&out, 8, 8)
	if err := enc.AddFrame(checkerFrame(8, 8)); err != nil {
		t.Fatalf("AddFrame: %v", err)
	}
	for _, idx := range enc.indexedPixels {
		if !enc.usedEntry[idx] {
			t.Fatalf("index %d present in indexedPixels but not marked used", idx)
		}
	}
}
