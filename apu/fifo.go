package apu

// fifoCapacity is the real hardware's FIFO A/B depth: 32 bytes, refilled
// four bytes at a time by a DMA word write.
const fifoCapacity = 32

// dmaFIFO is one of the two DMA-fed digital audio channels (FIFO A/B): a
// byte queue drained one sample per matching timer overflow and refilled
// by DMA whenever it runs low, grounded on timer.Bank's fifoTick hook and
// dma.Controller's IsFIFO/ScheduleFor pair.
type dmaFIFO struct {
	buf     []int8
	current int8

	fullVolume  bool
	enableLeft  bool
	enableRight bool
	timerIndex  int
}

func (f *dmaFIFO) reset() {
	f.buf = f.buf[:0]
	f.current = 0
}

// push appends up to four new signed samples, dropping the oldest bytes
// if the queue would exceed fifoCapacity -- a buggy game overrunning the
// FIFO loses old samples rather than new ones, matching real hardware's
// fixed-depth queue.
func (f *dmaFIFO) push(samples []int8) {
	f.buf = append(f.buf, samples...)
	if over := len(f.buf) - fifoCapacity; over > 0 {
		f.buf = f.buf[over:]
	}
}

// pop consumes the next queued sample into current, returning false (and
// leaving current unchanged) when the queue is empty.
func (f *dmaFIFO) pop() bool {
	if len(f.buf) == 0 {
		return false
	}
	f.current = f.buf[0]
	f.buf = f.buf[1:]
	return true
}

// needsRefill reports whether the queue has drained to the point real
// hardware requests a DMA refill (at or below half capacity).
func (f *dmaFIFO) needsRefill() bool {
	return len(f.buf) <= fifoCapacity/2
}

// sample returns the FIFO's current output, scaled by its volume bit.
func (f *dmaFIFO) sample() int {
	if f.fullVolume {
		return int(f.current) * 2
	}
	return int(f.current)
}
