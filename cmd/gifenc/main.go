// Command gifenc decodes a sequence of still-image files and encodes
// them as one animated GIF. It handles the frame acquisition the core
// encoder leaves to its caller, using every decoder the module's
// dependency stack can reach.
package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	gifenc "github.com/skyra-project/gifenc-go"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "gifenc:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("gifenc", flag.ContinueOnError)
	out := fs.String("out", "out.gif", "output GIF path")
	delay := fs.Int("delay", 100, "per-frame delay in milliseconds")
	repeat := fs.Int("repeat", 0, "loop count: -1 plays once, 0 loops forever")
	quality := fs.Int("quality", 10, "NeuQuant sample factor, 1 (best) to 30 (fastest)")
	dither := fs.String("dither", "", "dither method: none, FloydSteinberg, FalseFloydSteinberg, Stucki, Atkinson")
	serpentine := fs.Bool("serpentine", false, "use serpentine scanning when dithering")
	if err := fs.Parse(args); err != nil {
		return err
	}

	inputs := fs.Args()
	if len(inputs) == 0 {
		return fmt.Errorf("usage: gifenc [flags] frame1.png frame2.png ...")
	}

	frames := make([]image.Image, 0, len(inputs))
	for _, path := range inputs {
		img, err := decodeFrame(path)
		if err != nil {
			return fmt.Errorf("decoding %s: %w", path, err)
		}
		frames = append(frames, img)
	}

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", *out, err)
	}
	defer f.Close()

	delays := make([]int, len(frames))
	for i := range delays {
		delays[i] = *delay
	}

	opts := gifenc.EncodeOptions{
		Repeat:     *repeat,
		Quality:    *quality,
		Dither:     gifenc.DitherMethod(*dither),
		Serpentine: *serpentine,
		Delays:     delays,
	}

	if err := gifenc.EncodeGIFWithOptions(f, frames, opts); err != nil {
		return fmt.Errorf("encoding: %w", err)
	}

	fmt.Printf("wrote %d frame(s) to %s\n", len(frames), *out)
	return nil
}

func decodeFrame(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}
