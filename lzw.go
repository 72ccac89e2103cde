package gifenc

import "github.com/rs/zerolog"

/*
lzw.go — GIF-flavored LZW compressor.

Authors
Kevin Weiner (original Java version - kweiner@fmsware.com)
Thibault Imbert (AS3 version - bytearray.org)
Johan Nordberg (JS version - code@johan-nordberg.com)

Acknowledgements
GIFCOMPR.C - GIF Image compression routines
Lempel-Ziv compression based on 'compress'. GIF modifications by
David Rowley (mgardi@watdcsu.waterloo.edu)
GIF Image compression - modified 'compress'
Based on: compress.c - File compression ala IEEE Computer, June 1984.
By Authors: Spencer W. Thomas, Jim McKie, Steve Davies, Ken Turkowski,
James A. Woods, Joe Orost.

(Go port 2024)
*/

const (
	lzwEOF      = -1
	lzwMaxBits  = 12   // hard cap: codes never exceed 12 bits
	lzwHashSize = 5003 // prime, ~80% occupancy of the open-addressed table
)

var lzwBitMasks = [...]int{
	0x0000, 0x0001, 0x0003, 0x0007, 0x000F, 0x001F,
	0x003F, 0x007F, 0x00FF, 0x01FF, 0x03FF, 0x07FF,
	0x0FFF, 0x1FFF, 0x3FFF, 0x7FFF, 0xFFFF,
}

// lzwEncoder encodes one frame's indexed pixel stream into the GIF LZW
// wire format: an init-code-size byte, a sequence of 1..255-byte data
// sub-blocks, and a zero-length terminator.
type lzwEncoder struct {
	pixels       []byte
	initCodeSize int
	remaining    int
	curPixel     int
	logger       zerolog.Logger
}

// newLZWEncoder prepares an encoder for width*height pixels at the given
// color depth (bits per indexed pixel; this encoder always uses 8).
// logger receives a Debug event whenever the dictionary fills and a
// mid-stream clear-code reset is emitted; pass zerolog.Nop() for silence.
func newLZWEncoder(width, height int, pixels []byte, colorDepth int, logger zerolog.Logger) *lzwEncoder {
	initCodeSize := colorDepth
	if initCodeSize < 2 {
		initCodeSize = 2
	}
	return &lzwEncoder{
		pixels:       pixels,
		initCodeSize: initCodeSize,
		remaining:    width * height,
		logger:       logger,
	}
}

// encode writes the full LZW block (init-code-size byte, sub-blocks,
// terminator) to out.
func (e *lzwEncoder) encode(out *ByteBuffer) {
	out.WriteByte(byte(e.initCodeSize))
	e.compress(e.initCodeSize+1, out)
	out.WriteByte(0)
}

func (e *lzwEncoder) nextPixel() int {
	if e.remaining == 0 {
		return lzwEOF
	}
	e.remaining--
	p := e.pixels[e.curPixel]
	e.curPixel++
	return int(p) & 0xff
}

func lzwMaxCode(nBits int) int {
	return (1 << nBits) - 1
}

// compress implements the variable-width LZW loop: open-addressed,
// XOR-hashed dictionary lookups; adaptive code width growth; a
// mid-stream clear-code reset when the dictionary fills; and bit-packing
// into GIF data sub-blocks via the closures below.
func (e *lzwEncoder) compress(initBits int, out *ByteBuffer) {
	gInitBits := initBits
	clearFlag := false
	nBits := gInitBits
	maxcode := lzwMaxCode(nBits)

	clearCode := 1 << (initBits - 1)
	eofCode := clearCode + 1
	freeEnt := clearCode + 2

	pktLen := 0
	curAccum := 0
	curBits := 0

	pkt := make([]byte, 256)
	hashes := make([]int, lzwHashSize)
	codes := make([]int, lzwHashSize)

	flushPacket := func() {
		if pktLen > 0 {
			out.WriteByte(byte(pktLen))
			out.WriteBytes(pkt, 0, pktLen)
			pktLen = 0
		}
	}

	packetOut := func(c byte) {
		pkt[pktLen] = c
		pktLen++
		if pktLen >= 254 {
			flushPacket()
		}
	}

	clearHash := func(size int) {
		for i := 0; i < size; i++ {
			hashes[i] = -1
		}
	}

	var output func(code int)
	output = func(code int) {
		curAccum &= lzwBitMasks[curBits]
		if curBits > 0 {
			curAccum |= code << curBits
		} else {
			curAccum = code
		}
		curBits += nBits

		for curBits >= 8 {
			packetOut(byte(curAccum & 0xff))
			curAccum >>= 8
			curBits -= 8
		}

		if freeEnt > maxcode || clearFlag {
			if clearFlag {
				nBits = gInitBits
				maxcode = lzwMaxCode(nBits)
				clearFlag = false
			} else {
				nBits++
				if nBits == lzwMaxBits {
					maxcode = 1 << lzwMaxBits
				} else {
					maxcode = lzwMaxCode(nBits)
				}
			}
		}

		if code == eofCode {
			for curBits > 0 {
				packetOut(byte(curAccum & 0xff))
				curAccum >>= 8
				curBits -= 8
			}
			flushPacket()
		}
	}

	clearBlock := func() {
		e.logger.Debug().Msg("gifenc: LZW dictionary full, emitting mid-stream clear code")
		clearHash(lzwHashSize)
		freeEnt = clearCode + 2
		clearFlag = true
		output(clearCode)
	}

	ent := e.nextPixel()

	hshift := 0
	for fc := lzwHashSize; fc < 65536; fc *= 2 {
		hshift++
	}
	hshift = 8 - hshift

	clearHash(lzwHashSize)
	output(clearCode)

outer:
	for {
		c := e.nextPixel()
		if c == lzwEOF {
			break
		}

		fcode := (c << lzwMaxBits) + ent
		i := (c << hshift) ^ ent // XOR hashing, initial probe

		if hashes[i] == fcode {
			ent = codes[i]
			continue
		} else if hashes[i] >= 0 { // non-empty miss: secondary probe
			disp := lzwHashSize - i
			if i == 0 {
				disp = 1
			}
			for {
				i -= disp
				if i < 0 {
					i += lzwHashSize
				}
				if hashes[i] == fcode {
					ent = codes[i]
					continue outer
				}
				if hashes[i] < 0 {
					break
				}
			}
		}

		output(ent)
		ent = c

		if freeEnt < (1 << lzwMaxBits) {
			codes[i] = freeEnt
			freeEnt++
			hashes[i] = fcode
		} else {
			clearBlock()
		}
	}

	output(ent)
	output(eofCode)
}
