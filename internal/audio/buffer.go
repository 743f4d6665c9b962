package audio

// Buffer is a front-trimming PCM sample buffer. Samples are appended as they
// arrive and the buffer is capped to a maximum length; once the cap is
// exceeded the oldest samples are dropped.
type Buffer struct {
	samples []float32
	cap     int
}

// NewBuffer creates a Buffer capped at sampleRate*bufferSeconds samples.
func NewBuffer(sampleRate, bufferSeconds int) *Buffer {
	return &Buffer{cap: sampleRate * bufferSeconds}
}

// Add appends PCM bytes (little-endian int16) to the buffer, trimming the
// oldest samples if the cap is exceeded.
func (b *Buffer) Add(pcm []byte) {
	b.samples = append(b.samples, DecodePCM16LE(pcm)...)
	if len(b.samples) > b.cap {
		b.samples = b.samples[len(b.samples)-b.cap:]
	}
}

// Samples returns the current buffered samples.
func (b *Buffer) Samples() []float32 {
	return b.samples
}

// Len returns the number of buffered samples.
func (b *Buffer) Len() int {
	return len(b.samples)
}

// TrimFront drops the first n samples, clamping n to the buffer length.
func (b *Buffer) TrimFront(n int) {
	if n <= 0 {
		return
	}
	if n > len(b.samples) {
		n = len(b.samples)
	}
	b.samples = b.samples[n:]
}

// Reset empties the buffer.
func (b *Buffer) Reset() {
	b.samples = nil
}

// Resize changes the buffer's cap, immediately trimming from the front if
// the existing contents now exceed it.
func (b *Buffer) Resize(newCap int) {
	b.cap = newCap
	if len(b.samples) > b.cap {
		b.samples = b.samples[len(b.samples)-b.cap:]
	}
}
