package gifenc

// ByteBuffer is a growable, in-memory byte sink with amortized O(1)
// appends. It is the encoder's only scratch accumulator: one frame's
// structural bytes and LZW data are written here before a single flush
// to the caller-supplied sink.
//
// ByteBuffer implements io.Writer and io.ByteWriter so it composes with
// the rest of the standard library, though the encoder itself only ever
// appends and never wraps it in another io.Writer.
type ByteBuffer struct {
	buf []byte
	n   int
}

const byteBufferInitialCap = 512

// NewByteBuffer returns an empty, ready-to-use ByteBuffer.
func NewByteBuffer() *ByteBuffer {
	return &ByteBuffer{buf: make([]byte, byteBufferInitialCap)}
}

// grow ensures the backing array can hold n additional bytes beyond the
// current length, reallocating to the next power of two at or above
// len+n, with the existing capacity's double as a floor.
func (b *ByteBuffer) grow(n int) {
	need := b.n + n
	if need <= cap(b.buf) {
		return
	}
	newCap := nextPowerOfTwo(need)
	if doubled := cap(b.buf) * 2; doubled > newCap {
		newCap = doubled
	}
	nb := make([]byte, newCap)
	copy(nb, b.buf[:b.n])
	b.buf = nb
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Write appends p and satisfies io.Writer. It never returns an error.
func (b *ByteBuffer) Write(p []byte) (int, error) {
	b.grow(len(p))
	copy(b.buf[b.n:], p)
	b.n += len(p)
	return len(p), nil
}

// WriteByte appends a single byte and satisfies io.ByteWriter.
func (b *ByteBuffer) WriteByte(c byte) error {
	b.grow(1)
	b.buf[b.n] = c
	b.n++
	return nil
}

// WriteBytes appends src[start:end].
func (b *ByteBuffer) WriteBytes(src []byte, start, end int) {
	b.Write(src[start:end])
}

// WriteRepeated appends b exactly n copies of c.
func (b *ByteBuffer) WriteRepeated(c byte, n int) {
	if n <= 0 {
		return
	}
	b.grow(n)
	for i := 0; i < n; i++ {
		b.buf[b.n+i] = c
	}
	b.n += n
}

// Fill overwrites the already-written range [start, end) with c. It does
// not change the buffer's logical length and panics if the range falls
// outside what has already been written.
func (b *ByteBuffer) Fill(c byte, start, end int) {
	if start < 0 || end > b.n || start > end {
		panic("gifenc: ByteBuffer.Fill out of range")
	}
	for i := start; i < end; i++ {
		b.buf[i] = c
	}
}

// View returns a contiguous view of everything written so far. The
// returned slice aliases the buffer's backing array and is only valid
// until the next mutating call.
func (b *ByteBuffer) View() []byte {
	return b.buf[:b.n]
}

// Len reports the number of bytes written so far.
func (b *ByteBuffer) Len() int {
	return b.n
}

// Reset sets the logical length to zero without releasing the backing
// array, so the next frame's writes reuse the allocation.
func (b *ByteBuffer) Reset() {
	b.n = 0
}
