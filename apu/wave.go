package apu

import "github.com/hades-go/goba/ioregs"

// waveChannel implements GBA sound channel 3: an arbitrary 32-sample 4-bit
// waveform played back from WAVE_RAM. This models the single 32-sample
// bank the original Game Boy hardware provides; the GBA's extension to a
// 64-sample two-bank waveform is not modelled, a deliberate simplification
// in the same spirit as the PPU's skipped affine sprites. SOUND3CNT_L's
// bank bits are ignored: software always writes the same 16 bytes of
// WAVE_RAM, and playback reads those bytes at the moment each sample is
// taken.
type waveChannel struct {
	io *ioregs.Registers

	enabled    bool
	dacEnabled bool

	freq      uint16
	period    uint64
	phase     uint64
	sampleIdx int

	volumeShift int // 0 = mute, 1 = 100%, 2 = 50%, 3 = 25%
	force75     bool

	lengthEnabled bool
	lengthCounter int
}

func (c *waveChannel) reset() { *c = waveChannel{io: c.io} }

// writeBankEnable decodes SOUND3CNT_L: only the DAC-enable bit matters to
// this simplified single-bank model.
func (c *waveChannel) writeBankEnable(v uint16) {
	c.dacEnabled = v&(1<<7) != 0
	if !c.dacEnabled {
		c.enabled = false
	}
}

// writeLenVol decodes SOUND3CNT_H: length load and output level, including
// the GBA-specific forced-75%-volume bit.
func (c *waveChannel) writeLenVol(v uint16) {
	c.lengthCounter = 256 - int(v&0xFF)
	level := (v >> 13) & 0x3
	c.volumeShift = int(level)
	c.force75 = v&(1<<15) != 0
}

// writeFreqTrigger decodes SOUND3CNT_X.
func (c *waveChannel) writeFreqTrigger(v uint16) {
	c.freq = v & 0x7FF
	c.lengthEnabled = v&(1<<14) != 0
	if v&(1<<15) != 0 {
		c.trigger()
	}
}

func (c *waveChannel) trigger() {
	c.enabled = c.dacEnabled
	if c.lengthCounter == 0 {
		c.lengthCounter = 256
	}
	c.period = wavePeriod(c.freq)
	c.phase = 0
	c.sampleIdx = 0
}

func wavePeriod(freq uint16) uint64 {
	return uint64(2048-freq) * waveClockDivider
}

func (c *waveChannel) clockLength() {
	if c.lengthEnabled && c.lengthCounter > 0 {
		c.lengthCounter--
		if c.lengthCounter == 0 {
			c.enabled = false
		}
	}
}

// sample advances the waveform phase by elapsed cycles and returns the
// channel's current output, 0..15.
func (c *waveChannel) sample(elapsed uint64) uint8 {
	if c.period > 0 {
		c.phase += elapsed
		for c.phase >= c.period {
			c.phase -= c.period
			c.sampleIdx = (c.sampleIdx + 1) % 32
		}
	}
	if !c.enabled {
		return 0
	}

	raw := c.io.Read8(uint32(ioregs.WAVE_RAM0 + c.sampleIdx/2))
	var nibble uint8
	if c.sampleIdx%2 == 0 {
		nibble = raw >> 4
	} else {
		nibble = raw & 0xF
	}

	switch {
	case c.force75:
		return nibble * 3 / 4
	case c.volumeShift == 0:
		return 0
	default:
		return nibble >> uint(c.volumeShift-1)
	}
}
