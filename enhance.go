package gifenc

// SetColorEnhancement rescales each pixel's HSL saturation and contrast
// before quantization. Both boosts are in [0, 2]; 1.0 means unchanged,
// values are clamped into range. Leaving both at the default 1.0 (or
// never calling this method) leaves the RGB buffer untouched.
func (e *Encoder) SetColorEnhancement(saturationBoost, contrastBoost float64) {
	e.saturationBoost = clampFloat01to2(saturationBoost)
	e.contrastBoost = clampFloat01to2(contrastBoost)
}

func clampFloat01to2(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 2 {
		return 2
	}
	return v
}

// applyColorEnhancement rewrites e.pixels in place. It is a no-op unless
// either boost differs from identity, so the common case costs nothing
// beyond the comparison.
func (e *Encoder) applyColorEnhancement() {
	if e.saturationBoost == 1.0 && e.contrastBoost == 1.0 {
		return
	}
	for i := 0; i+2 < len(e.pixels); i += 3 {
		r, g, b := e.pixels[i], e.pixels[i+1], e.pixels[i+2]
		r, g, b = adjustSaturation(r, g, b, e.saturationBoost)
		r, g, b = adjustContrast(r, g, b, e.contrastBoost)
		e.pixels[i], e.pixels[i+1], e.pixels[i+2] = r, g, b
	}
}

func adjustSaturation(r, g, b byte, boost float64) (byte, byte, byte) {
	if boost == 1.0 {
		return r, g, b
	}
	h, s, l := rgbToHSL(r, g, b)
	s *= boost
	if s > 1 {
		s = 1
	}
	nr, ng, nb := hslToRGB(h, s, l)
	return clampFloat(nr * 255), clampFloat(ng * 255), clampFloat(nb * 255)
}

func adjustContrast(r, g, b byte, boost float64) (byte, byte, byte) {
	if boost == 1.0 {
		return r, g, b
	}
	adjust := func(c byte) byte {
		v := (float64(c)/255.0-0.5)*boost + 0.5
		return clampFloat(v * 255)
	}
	return adjust(r), adjust(g), adjust(b)
}

func rgbToHSL(r, g, b byte) (h, s, l float64) {
	rf, gf, bf := float64(r)/255, float64(g)/255, float64(b)/255
	max := maxOf3(rf, gf, bf)
	min := minOf3(rf, gf, bf)
	l = (max + min) / 2

	if max == min {
		return 0, 0, l
	}

	d := max - min
	if l > 0.5 {
		s = d / (2 - max - min)
	} else {
		s = d / (max + min)
	}

	switch max {
	case rf:
		h = (gf - bf) / d
		if gf < bf {
			h += 6
		}
	case gf:
		h = (bf-rf)/d + 2
	default:
		h = (rf-gf)/d + 4
	}
	h /= 6
	return h, s, l
}

// hslToRGB converts an HSL triple (each in [0, 1]) back to RGB floats in
// [0, 1], using the standard hue2rgb construction.
func hslToRGB(h, s, l float64) (float64, float64, float64) {
	if s == 0 {
		return l, l, l
	}

	hue2rgb := func(p, q, t float64) float64 {
		if t < 0 {
			t += 1
		}
		if t > 1 {
			t -= 1
		}
		switch {
		case t < 1.0/6.0:
			return p + (q-p)*6.0*t
		case t < 1.0/2.0:
			return q
		case t < 2.0/3.0:
			return p + (q-p)*(2.0/3.0-t)*6.0
		default:
			return p
		}
	}

	var q float64
	if l < 0.5 {
		q = l * (1.0 + s)
	} else {
		q = l + s - l*s
	}
	p := 2.0*l - q

	r := hue2rgb(p, q, h+1.0/3.0)
	g := hue2rgb(p, q, h)
	b := hue2rgb(p, q, h-1.0/3.0)
	return r, g, b
}

func clampFloat(v float64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

func maxOf3(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

func minOf3(a, b, c float64) float64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
