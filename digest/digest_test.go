package digest_test

import (
	"testing"

	"github.com/go-audio/audio"
	"github.com/hades-go/goba/digest"
	"github.com/hades-go/goba/test"
)

func TestVideoDeterministic(t *testing.T) {
	fb := make([]byte, 64)
	for i := range fb {
		fb[i] = byte(i)
	}
	a := digest.Video(fb)
	b := digest.Video(fb)
	test.ExpectEquality(t, a, b)
}

func TestVideoDiffers(t *testing.T) {
	fb1 := make([]byte, 64)
	fb2 := make([]byte, 64)
	fb2[0] = 1
	test.ExpectInequality(t, digest.Video(fb1), digest.Video(fb2))
}

func TestAudioDeterministic(t *testing.T) {
	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: 2, SampleRate: 32768},
		Data:   []int{1, -1, 2, -2, 3, -3},
	}
	a := digest.Audio(buf)
	b := digest.Audio(buf)
	test.ExpectEquality(t, a, b)
}

func TestChain(t *testing.T) {
	a := digest.Chain("", []byte("frame1"))
	b := digest.Chain(a, []byte("frame2"))
	test.ExpectInequality(t, a, b)
}
