package main

import (
	"fmt"
	"image"
	"image/color"
	"os"

	gifenc "github.com/skyra-project/gifenc-go"
)

func main() {
	fmt.Println("GIF Encoder Examples")
	fmt.Println("====================")

	fmt.Println("\n1. Creating simple animation...")
	if err := simpleAnimation(); err != nil {
		fmt.Printf("Error: %v\n", err)
	} else {
		fmt.Println("Created animation.gif")
	}

	fmt.Println("\n2. Creating gradient animation...")
	if err := gradientAnimation(); err != nil {
		fmt.Printf("Error: %v\n", err)
	} else {
		fmt.Println("Created gradient.gif")
	}

	fmt.Println("\n3. Creating with custom options...")
	if err := customOptions(); err != nil {
		fmt.Printf("Error: %v\n", err)
	} else {
		fmt.Println("Created custom.gif")
	}

	fmt.Println("\nAll done!")
}

// simpleAnimation creates a simple moving circle animation.
func simpleAnimation() error {
	width, height := 200, 200
	frames := make([]image.Image, 0, 10)

	for i := 0; i < 10; i++ {
		img := image.NewRGBA(image.Rect(0, 0, width, height))

		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				img.Set(x, y, color.White)
			}
		}

		centerX := 50 + i*15
		centerY := 100
		radius := 30

		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				dx := x - centerX
				dy := y - centerY
				if dx*dx+dy*dy <= radius*radius {
					img.Set(x, y, color.RGBA{255, 0, 0, 255})
				}
			}
		}

		frames = append(frames, img)
	}

	delays := make([]int, len(frames))
	for i := range delays {
		delays[i] = 100
	}

	f, err := os.Create("animation.gif")
	if err != nil {
		return err
	}
	defer f.Close()

	return gifenc.EncodeGIF(f, frames, delays)
}

// gradientAnimation creates a color gradient animation.
func gradientAnimation() error {
	width, height := 200, 200
	frames := make([]image.Image, 20)

	for frame := 0; frame < 20; frame++ {
		img := image.NewRGBA(image.Rect(0, 0, width, height))

		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				r := uint8((x + frame*10) % 256)
				g := uint8((y + frame*10) % 256)
				img.Set(x, y, color.RGBA{r, g, 200, 255})
			}
		}

		frames[frame] = img
	}

	delays := make([]int, len(frames))
	for i := range delays {
		delays[i] = 50
	}

	f, err := os.Create("gradient.gif")
	if err != nil {
		return err
	}
	defer f.Close()

	return gifenc.EncodeGIF(f, frames, delays)
}

// customOptions demonstrates dithering, quality, and repeat configuration.
func customOptions() error {
	width, height := 150, 150
	frames := make([]image.Image, 15)

	for frame := 0; frame < 15; frame++ {
		img := image.NewRGBA(image.Rect(0, 0, width, height))

		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				img.Set(x, y, color.RGBA{20, 20, 40, 255})
			}
		}

		size := 50
		offsetX, offsetY := 50, 50
		hue := float64(frame) / 15.0
		r, g, b := hsvToRGB(hue, 1.0, 1.0)

		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				img.Set(offsetX+x, offsetY+y, color.RGBA{r, g, b, 255})
			}
		}

		frames[frame] = img
	}

	delays := make([]int, 15)
	for i := range delays {
		delays[i] = 80
	}

	opts := gifenc.EncodeOptions{
		Width:   width,
		Height:  height,
		Repeat:  0,
		Quality: 5,
		Dither:  gifenc.DitherFloydSteinberg,
		Delays:  delays,
	}

	f, err := os.Create("custom.gif")
	if err != nil {
		return err
	}
	defer f.Close()

	return gifenc.EncodeGIFWithOptions(f, frames, opts)
}

// hsvToRGB converts HSV color to RGB (h, s, v each in 0..1).
func hsvToRGB(h, s, v float64) (uint8, uint8, uint8) {
	if s == 0 {
		val := uint8(v * 255)
		return val, val, val
	}

	h = h * 6
	i := int(h)
	f := h - float64(i)
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	var r, g, b float64
	switch i {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}

	return uint8(r * 255), uint8(g * 255), uint8(b * 255)
}
