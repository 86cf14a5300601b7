// Package digest produces deterministic cryptographic hashes of a rendered
// frame or a chunk of PCM audio, for use in regression tests. Comparing two
// digests is cheaper and gives more readable failures than comparing raw
// buffers.
//
// Note the use of SHA-1 is fine here; this is not a cryptographic task.
package digest

import (
	"crypto/sha1"
	"fmt"

	"github.com/go-audio/audio"
)

// Video returns a hash of a single RGBA framebuffer.
func Video(framebuffer []byte) string {
	sum := sha1.Sum(framebuffer)
	return fmt.Sprintf("%x", sum)
}

// Audio returns a hash of a stereo PCM chunk.
func Audio(buf *audio.IntBuffer) string {
	if buf == nil || len(buf.Data) == 0 {
		sum := sha1.Sum(nil)
		return fmt.Sprintf("%x", sum)
	}

	raw := make([]byte, len(buf.Data)*4)
	for i, v := range buf.Data {
		raw[i*4] = byte(v)
		raw[i*4+1] = byte(v >> 8)
		raw[i*4+2] = byte(v >> 16)
		raw[i*4+3] = byte(v >> 24)
	}
	sum := sha1.Sum(raw)
	return fmt.Sprintf("%x", sum)
}

// Chain folds a previous digest into new data before hashing, so that a
// sequence of frames/chunks produces a digest dependent on everything that
// came before it -- useful for whole-run regression digests.
func Chain(previous string, data []byte) string {
	h := sha1.New()
	h.Write([]byte(previous))
	h.Write(data)
	return fmt.Sprintf("%x", h.Sum(nil))
}
