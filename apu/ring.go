package apu

import (
	"sync"

	"github.com/go-audio/audio"
)

// RingBuffer accumulates interleaved stereo PCM samples produced by the
// resampler and hands them to the frontend as a go-audio IntBuffer. It
// follows the same Lock/Unlock-bracketed, retain-the-allocation contract
// as mailbox.Mailbox's Clear: the frontend calls Lock, reads Data, then
// Drain to empty the buffer for the next frame without releasing the
// underlying slice, then Unlock.
type RingBuffer struct {
	mu   sync.Mutex
	data []int
	fmt  audio.Format
}

// NewRingBuffer creates an empty ring buffer at the given host sample
// rate, stereo.
func NewRingBuffer(sampleRate int) *RingBuffer {
	return &RingBuffer{fmt: audio.Format{NumChannels: 2, SampleRate: sampleRate}}
}

// push appends one interleaved stereo frame. Called only from the
// resampler's own scheduler callback, never concurrently with itself, but
// still taking the lock since a frontend goroutine may be mid-Lock.
func (r *RingBuffer) push(left, right int) {
	r.mu.Lock()
	r.data = append(r.data, left, right)
	r.mu.Unlock()
}

// Lock acquires the buffer and returns an IntBuffer view over its
// currently accumulated samples. The caller must call Unlock when done;
// the returned buffer's Data slice aliases internal storage and is only
// valid until the next Drain.
func (r *RingBuffer) Lock() *audio.IntBuffer {
	r.mu.Lock()
	return &audio.IntBuffer{Format: &r.fmt, Data: r.data, SourceBitDepth: 16}
}

// Unlock releases the lock taken by Lock.
func (r *RingBuffer) Unlock() { r.mu.Unlock() }

// Drain empties the buffer, retaining the underlying allocation. Must be
// called with the lock held (i.e. between Lock and Unlock).
func (r *RingBuffer) Drain() {
	r.data = r.data[:0]
}
