package gifenc

import (
	"image"
	"io"

	"github.com/pkg/errors"
)

// EncodeOptions bundles the Encoder's method-by-method configuration
// into one value for the EncodeGIFWithOptions entry point.
type EncodeOptions struct {
	Width, Height int // 0 means "use the first frame's bounds"

	Repeat  int // -1 = once, 0 = forever, >0 = count; 0 is also the zero value default
	Quality int // 1..30, 0 means "use the default of 10"

	Dither     DitherMethod
	Serpentine bool

	GlobalPalette []byte
	Delays        []int // milliseconds per frame; short frames fall back to 100ms

	SaturationBoost float64 // 0..2, 0 means "use the default of 1.0"
	ContrastBoost   float64 // 0..2, 0 means "use the default of 1.0"
}

// EncodeGIF is a convenience function that encodes images (each the same
// size) into an infinitely looping animated GIF written to w.
func EncodeGIF(w io.Writer, images []image.Image, delays []int) error {
	if len(images) == 0 {
		return errors.New("gifenc: no images provided")
	}

	bounds := images[0].Bounds()
	enc := NewEncoder(w, bounds.Dx(), bounds.Dy())
	enc.SetRepeat(0)
	enc.SetQuality(10)

	for i, img := range images {
		if i < len(delays) {
			enc.SetDelay(delays[i])
		} else {
			enc.SetDelay(100)
		}
		if err := enc.AddFrame(imageToRGBA(img, enc.width, enc.height)); err != nil {
			return err
		}
	}

	return enc.Finish()
}

// EncodeGIFWithOptions encodes images with full control over repeat,
// quality, dithering, color enhancement, and an optional shared palette.
func EncodeGIFWithOptions(w io.Writer, images []image.Image, opts EncodeOptions) error {
	if len(images) == 0 {
		return errors.New("gifenc: no images provided")
	}

	width, height := opts.Width, opts.Height
	if width == 0 || height == 0 {
		bounds := images[0].Bounds()
		width, height = bounds.Dx(), bounds.Dy()
	}

	enc := NewEncoder(w, width, height)

	enc.SetRepeat(opts.Repeat)

	quality := opts.Quality
	if quality == 0 {
		quality = 10
	}
	enc.SetQuality(quality)

	if opts.Dither != "" {
		enc.SetDither(opts.Dither, opts.Serpentine)
	}

	saturation, contrast := opts.SaturationBoost, opts.ContrastBoost
	if saturation == 0 {
		saturation = 1.0
	}
	if contrast == 0 {
		contrast = 1.0
	}
	enc.SetColorEnhancement(saturation, contrast)

	if len(opts.GlobalPalette) > 0 {
		enc.SetGlobalPalette(opts.GlobalPalette)
	}

	for i, img := range images {
		delay := 100
		if i < len(opts.Delays) && opts.Delays[i] > 0 {
			delay = opts.Delays[i]
		}
		enc.SetDelay(delay)

		if err := enc.AddFrame(imageToRGBA(img, width, height)); err != nil {
			return err
		}
	}

	return enc.Finish()
}

// imageToRGBA extracts a width*height*4 RGBA byte sequence from img,
// clamping to the smaller of img's bounds and the requested dimensions
// and zero-filling (all four bytes zero, so alpha 0) past whatever img
// actually covers.
func imageToRGBA(img image.Image, width, height int) []byte {
	pixels := make([]byte, width*height*4)

	bounds := img.Bounds()
	availWidth := bounds.Dx()
	availHeight := bounds.Dy()
	w, h := width, height
	if availWidth < w {
		w = availWidth
	}
	if availHeight < h {
		h = availHeight
	}

	for y := 0; y < h; y++ {
		rowStart := y * width * 4
		for x := 0; x < w; x++ {
			r, g, b, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			idx := rowStart + x*4
			pixels[idx] = byte(r >> 8)
			pixels[idx+1] = byte(g >> 8)
			pixels[idx+2] = byte(b >> 8)
			pixels[idx+3] = byte(a >> 8)
		}
	}
	return pixels
}
