package gifenc

// DitherMethod selects an error-diffusion kernel applied while mapping a
// frame's RGB pixels onto its palette. DitherNone (the Encoder's
// default) is a plain nearest-color mapping; every other value trades
// banding for diffused quantization error.
type DitherMethod string

const (
	DitherNone                DitherMethod = "none"
	DitherFloydSteinberg      DitherMethod = "FloydSteinberg"
	DitherFalseFloydSteinberg DitherMethod = "FalseFloydSteinberg"
	DitherStucki              DitherMethod = "Stucki"
	DitherAtkinson            DitherMethod = "Atkinson"
)

// ditherTap is one (weight, dx, dy) entry of an error-diffusion kernel.
type ditherTap struct {
	weight float64
	dx, dy int
}

var (
	floydSteinbergKernel = []ditherTap{
		{7.0 / 16.0, 1, 0},
		{3.0 / 16.0, -1, 1},
		{5.0 / 16.0, 0, 1},
		{1.0 / 16.0, 1, 1},
	}
	falseFloydSteinbergKernel = []ditherTap{
		{3.0 / 8.0, 1, 0},
		{3.0 / 8.0, 0, 1},
		{2.0 / 8.0, 1, 1},
	}
	stuckiKernel = []ditherTap{
		{8.0 / 42.0, 1, 0}, {4.0 / 42.0, 2, 0},
		{2.0 / 42.0, -2, 1}, {4.0 / 42.0, -1, 1}, {8.0 / 42.0, 0, 1}, {4.0 / 42.0, 1, 1}, {2.0 / 42.0, 2, 1},
		{1.0 / 42.0, -2, 2}, {2.0 / 42.0, -1, 2}, {4.0 / 42.0, 0, 2}, {2.0 / 42.0, 1, 2}, {1.0 / 42.0, 2, 2},
	}
	atkinsonKernel = []ditherTap{
		{1.0 / 8.0, 1, 0}, {1.0 / 8.0, 2, 0},
		{1.0 / 8.0, -1, 1}, {1.0 / 8.0, 0, 1}, {1.0 / 8.0, 1, 1},
		{1.0 / 8.0, 0, 2},
	}
)

// SetDither selects the error-diffusion kernel used to map pixels onto
// the palette, and whether scanning alternates direction each row
// (serpentine) to spread diffusion bias evenly.
func (e *Encoder) SetDither(method DitherMethod, serpentine bool) {
	e.ditherMethod = method
	e.serpentine = serpentine
}

// ditherPixels maps e.pixels onto e.palette using the named kernel,
// diffusing each pixel's quantization error to its unvisited neighbors.
func (e *Encoder) ditherPixels(method DitherMethod, serpentine bool) {
	var kernel []ditherTap
	switch method {
	case DitherFloydSteinberg:
		kernel = floydSteinbergKernel
	case DitherFalseFloydSteinberg:
		kernel = falseFloydSteinbergKernel
	case DitherStucki:
		kernel = stuckiKernel
	case DitherAtkinson:
		kernel = atkinsonKernel
	default:
		e.indexPixels()
		return
	}

	width, height := e.width, e.height
	data := e.pixels
	direction := 1

	n := width * height
	if cap(e.indexedPixels) < n {
		e.indexedPixels = make([]byte, n)
	} else {
		e.indexedPixels = e.indexedPixels[:n]
	}

	for y := 0; y < height; y++ {
		if serpentine {
			direction = -direction
		}

		x, xEnd := 0, width
		if direction < 0 {
			x, xEnd = width-1, -1
		}

		for x != xEnd {
			idx := y*width + x
			k := idx * 3
			r1, g1, b1 := int(data[k]), int(data[k+1]), int(data[k+2])

			colorIdx := e.lookup(byte(r1), byte(g1), byte(b1))
			e.usedEntry[colorIdx] = true
			e.indexedPixels[idx] = byte(colorIdx)

			pk := colorIdx * 3
			r2, g2, b2 := int(e.palette[pk]), int(e.palette[pk+1]), int(e.palette[pk+2])
			er, eg, eb := r1-r2, g1-g2, b1-b2

			for _, tap := range kernel {
				dx, dy := tap.dx, tap.dy
				if direction < 0 {
					dx = -dx
				}
				nx, ny := x+dx, y+dy
				if nx < 0 || nx >= width || ny < 0 || ny >= height {
					continue
				}
				nk := (ny*width + nx) * 3
				data[nk] = clampByte(int(data[nk]) + int(float64(er)*tap.weight))
				data[nk+1] = clampByte(int(data[nk+1]) + int(float64(eg)*tap.weight))
				data[nk+2] = clampByte(int(data[nk+2]) + int(float64(eb)*tap.weight))
			}

			x += direction
		}
	}
}

func clampByte(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
