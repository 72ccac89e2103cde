package gifenc

/*
NeuQuant Neural-Net Quantization Algorithm
------------------------------------------

Copyright (c) 1994 Anthony Dekker

NEUQUANT Neural-Net quantization algorithm by Anthony Dekker, 1994.
See "Kohonen neural networks for optimal colour quantization"
in "Network: Computation in Neural Systems" Vol. 5 (1994) pp 351-367.
for a discussion of the algorithm.
See also http://members.ozemail.com.au/~dekker/NEUQUANT.HTML

Any party obtaining a copy of these files from the author, directly or
indirectly, is granted, free of charge, a full and unrestricted irrevocable,
world-wide, paid up, royalty-free, nonexclusive right and license to deal
in this software and documentation files (the "Software"), including without
limitation the rights to use, copy, modify, merge, publish, distribute, sublicense,
and/or sell copies of the Software, and to permit persons who receive
copies from any such party to do so, with the only requirement being
that this copyright notice remain intact.

(Go port 2024)
*/

const (
	numCycles       = 100 // number of learning cycles
	netSize         = 256 // number of neurons == final palette size
	maxNetPos       = netSize - 1
	netBiasShift    = 4  // bias for color values during training
	intBiasShift    = 16 // bias for fractions
	intBias         = 1 << intBiasShift
	gammaShift      = 10
	betaShift       = 10
	beta            = intBias >> betaShift // beta = 1/1024
	betaGamma       = intBias << (gammaShift - betaShift)
	initRadiusCells = netSize >> 3 // for 256 colors, radius starts at 32 cells
	radiusBiasShift = 6
	radiusBias      = 1 << radiusBiasShift
	initRadius      = initRadiusCells * radiusBias
	radiusDecay     = 30 // radius shrinks by 1/30th per cycle
	alphaBiasShift  = 10 // alpha starts at 1.0
	initAlpha       = 1 << alphaBiasShift
	radBiasShift    = 8
	radBias         = 1 << radBiasShift
	alphaRadBias    = 1 << (alphaBiasShift + radBiasShift)
	prime1          = 499
	prime2          = 491
	prime3          = 487
	prime4          = 503
	minPictureBytes = 3 * prime4
)

// neuron is one node of the self-organizing map: three signed, bias-
// shifted color coordinates plus the original (pre-sort) index, which
// survives the palette sort as the neuron's palette "tag".
type neuron struct {
	c0, c1, c2 int32
	tag        int32
}

// Quantizer trains a 256-neuron Kohonen network on an RGB pixel stream
// and exposes the trained palette plus a fast nearest-color lookup.
// Construction performs the full init/learn/unbias/index-build pipeline
// synchronously; a Quantizer has no further mutating operations.
type Quantizer struct {
	network   [netSize]neuron
	netIndex  [256]int32
	bias      [netSize]int32
	freq      [netSize]int32
	radPower  [initRadiusCells]int32
	pixels    []byte // RGB triples, consumed during learning then dropped
	sampleFac int
}

// NewQuantizer trains a quantizer over pixels (RGB byte triples) with the
// given sample factor (1..30, lower means higher quality and slower
// training; values outside the range are clamped).
func NewQuantizer(pixels []byte, sampleFactor int) *Quantizer {
	if sampleFactor < 1 {
		sampleFactor = 1
	}
	if sampleFactor > 30 {
		sampleFactor = 30
	}
	q := &Quantizer{pixels: pixels, sampleFac: sampleFactor}
	q.init()
	q.learn()
	q.pixels = nil
	q.unbias()
	q.buildIndex()
	return q
}

func (q *Quantizer) init() {
	for i := 0; i < netSize; i++ {
		v := int32((i << (netBiasShift + 8)) / netSize)
		q.network[i] = neuron{c0: v, c1: v, c2: v, tag: 0}
		q.freq[i] = intBias / netSize
		q.bias[i] = 0
	}
}

// ColorMap returns the trained palette as 768 bytes (256 RGB triples).
// Entry i is the neuron whose tag is i, so entries are indexed the same
// way LookupRGB reports them; they are in tag order, not sorted by any
// color coordinate.
func (q *Quantizer) ColorMap() []byte {
	colormap := make([]byte, netSize*3)
	indexByTag := make([]int, netSize)
	for i := 0; i < netSize; i++ {
		indexByTag[q.network[i].tag] = i
	}
	k := 0
	for i := 0; i < netSize; i++ {
		n := q.network[indexByTag[i]]
		colormap[k] = byte(n.c0)
		colormap[k+1] = byte(n.c1)
		colormap[k+2] = byte(n.c2)
		k += 3
	}
	return colormap
}

// LookupRGB returns the palette index whose color minimizes the L1
// distance to (r, g, b).
func (q *Quantizer) LookupRGB(r, g, b byte) int {
	return q.search(int32(r), int32(g), int32(b))
}

func (q *Quantizer) unbias() {
	for i := 0; i < netSize; i++ {
		n := &q.network[i]
		n.c0 >>= netBiasShift
		n.c1 >>= netBiasShift
		n.c2 >>= netBiasShift
		n.tag = int32(i)
	}
}

// alterSingle moves neuron i towards the bias-shifted (r, g, b) target by
// factor alpha.
func (q *Quantizer) alterSingle(alpha, i int32, r, g, b int32) {
	n := &q.network[i]
	n.c0 -= (alpha * (n.c0 - r)) / initAlpha
	n.c1 -= (alpha * (n.c1 - g)) / initAlpha
	n.c2 -= (alpha * (n.c2 - b)) / initAlpha
}

// alterNeighbors moves neurons within radius cells of i towards the
// target, weighted by the precomputed radPower falloff.
func (q *Quantizer) alterNeighbors(radius int, i int, r, g, b int32) {
	lo := absInt(i - radius)
	hi := i + radius
	if hi > netSize {
		hi = netSize
	}

	j := i + 1
	k := i - 1
	m := 1

	for j < hi || k > lo {
		a := q.radPower[m]
		m++

		if j < hi {
			n := &q.network[j]
			n.c0 -= (a * (n.c0 - r)) / alphaRadBias
			n.c1 -= (a * (n.c1 - g)) / alphaRadBias
			n.c2 -= (a * (n.c2 - b)) / alphaRadBias
			j++
		}
		if k > lo {
			n := &q.network[k]
			n.c0 -= (a * (n.c0 - r)) / alphaRadBias
			n.c1 -= (a * (n.c1 - g)) / alphaRadBias
			n.c2 -= (a * (n.c2 - b)) / alphaRadBias
			k--
		}
	}
}

// contest ages every neuron's frequency/bias contest entry, boosts the
// closest neuron (L1 distance), and returns the best-bias neuron index —
// the one the caller should actually move towards the sample.
func (q *Quantizer) contest(r, g, b int32) int {
	bestDist := int32(1 << 30)
	bestBiasDist := bestDist
	best := -1
	bestBias := -1

	for i := 0; i < netSize; i++ {
		n := &q.network[i]
		dist := abs32(n.c0-r) + abs32(n.c1-g) + abs32(n.c2-b)
		if dist < bestDist {
			bestDist = dist
			best = i
		}

		biasDist := dist - (q.bias[i] >> (intBiasShift - netBiasShift))
		if biasDist < bestBiasDist {
			bestBiasDist = biasDist
			bestBias = i
		}

		betaFreq := q.freq[i] >> betaShift
		q.freq[i] -= betaFreq
		q.bias[i] += betaFreq << gammaShift
	}

	q.freq[best] += beta
	q.bias[best] -= betaGamma

	return bestBias
}

func (q *Quantizer) learn() {
	lengthCount := len(q.pixels)
	if lengthCount < minPictureBytes {
		q.sampleFac = 1
	}
	alphaDec := int32(30 + (q.sampleFac-1)/3)
	samplePixels := lengthCount / (3 * q.sampleFac)
	delta := samplePixels / numCycles
	if delta == 0 {
		delta = 1
	}

	alpha := int32(initAlpha)
	radius := int32(initRadius)

	rad := int(radius >> radiusBiasShift)
	if rad <= 1 {
		rad = 0
	}
	for i := 0; i < rad; i++ {
		q.radPower[i] = alpha * ((int32(rad*rad-i*i) * radBias) / int32(rad*rad))
	}

	var step int
	switch {
	case lengthCount < minPictureBytes:
		step = 3
	case lengthCount%prime1 != 0:
		step = 3 * prime1
	case lengthCount%prime2 != 0:
		step = 3 * prime2
	case lengthCount%prime3 != 0:
		step = 3 * prime3
	default:
		step = 3 * prime4
	}

	pix := 0
	for i := 0; i < samplePixels; i++ {
		r := (int32(q.pixels[pix]) & 0xff) << netBiasShift
		g := (int32(q.pixels[pix+1]) & 0xff) << netBiasShift
		b := (int32(q.pixels[pix+2]) & 0xff) << netBiasShift

		j := q.contest(r, g, b)

		q.alterSingle(alpha, int32(j), r, g, b)
		if rad != 0 {
			q.alterNeighbors(rad, j, r, g, b)
		}

		pix += step
		if pix >= lengthCount {
			pix -= lengthCount
		}

		if (i+1)%delta == 0 {
			alpha -= alpha / alphaDec
			radius -= radius / radiusDecay
			rad = int(radius >> radiusBiasShift)
			if rad <= 1 {
				rad = 0
			}
			for j := 0; j < rad; j++ {
				q.radPower[j] = alpha * ((int32(rad*rad-j*j) * radBias) / int32(rad*rad))
			}
		}
	}
}

// buildIndex selection-sorts the network ascending by green coordinate
// and records, for every possible green value, where a lookup should
// start scanning.
func (q *Quantizer) buildIndex() {
	previousCol := int32(0)
	startPos := 0

	for i := 0; i < netSize; i++ {
		smallPos := i
		smallVal := q.network[i].c1

		for j := i + 1; j < netSize; j++ {
			if q.network[j].c1 < smallVal {
				smallPos = j
				smallVal = q.network[j].c1
			}
		}

		if i != smallPos {
			q.network[i], q.network[smallPos] = q.network[smallPos], q.network[i]
		}

		if smallVal != previousCol {
			q.netIndex[previousCol] = int32(startPos+i) >> 1
			for j := previousCol + 1; j < smallVal; j++ {
				q.netIndex[j] = int32(i)
			}
			previousCol = smallVal
			startPos = i
		}
	}

	q.netIndex[previousCol] = int32(startPos+maxNetPos) >> 1
	for j := previousCol + 1; j < 256; j++ {
		q.netIndex[j] = maxNetPos
	}
}

// search walks the green-sorted network outward from netIndex[g],
// tracking the best L1-distance match, and returns its tag (original
// palette index).
func (q *Quantizer) search(r, g, b int32) int {
	bestDist := int32(1000) // worst possible is 255*3 = 765
	best := -1

	i := int(q.netIndex[g])
	j := i - 1

	for i < netSize || j >= 0 {
		if i < netSize {
			n := &q.network[i]
			dist := n.c1 - g
			if dist >= bestDist {
				i = netSize
			} else {
				i++
				dist = abs32(dist)
				dist += abs32(n.c0 - r)
				if dist < bestDist {
					dist += abs32(n.c2 - b)
					if dist < bestDist {
						bestDist = dist
						best = int(n.tag)
					}
				}
			}
		}

		if j >= 0 {
			n := &q.network[j]
			dist := g - n.c1
			if dist >= bestDist {
				j = -1
			} else {
				j--
				dist = abs32(dist)
				dist += abs32(n.c0 - r)
				if dist < bestDist {
					dist += abs32(n.c2 - b)
					if dist < bestDist {
						bestDist = dist
						best = int(n.tag)
					}
				}
			}
		}
	}

	return best
}

func abs32(x int32) int32 {
	if x < 0 {
		return -x
	}
	return x
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
