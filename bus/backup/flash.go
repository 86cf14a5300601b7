package backup

const (
	flash64KSize  = 64 * 1024
	flash128KSize = 128 * 1024
	bankSize      = 64 * 1024
	sectorSize    = 4 * 1024
)

// flashState is the chip's command-latch state, following the standard
// SST/Macronix/Panasonic flash command protocol used by GBA cartridges.
type flashState int

const (
	flashIdle flashState = iota
	flashCmd1            // 0xAA written to 0x5555
	flashCmd2            // 0x55 written to 0x2AAA
	flashErasePending
	flashErasePending2
)

const (
	manufacturerPanasonic = 0x32
	deviceFlash64K        = 0x1B
	manufacturerSanyo     = 0x62
	deviceFlash128K       = 0x13
)

type flash struct {
	data     []byte
	banked   bool
	bank     uint32
	chipID   bool
	state    flashState
	eraseSeq flashState
	dirty    bool
}

func newFlash(data []byte, size int, banked bool) *flash {
	f := &flash{data: make([]byte, size), banked: banked}
	copy(f.data, data)
	return f
}

func (f *flash) offset(addr uint32) uint32 {
	off := addr & 0xFFFF
	if f.banked {
		off += f.bank * bankSize
	}
	return off
}

func (f *flash) Read8(addr uint32) uint8 {
	a := addr & 0xFFFF
	if f.chipID {
		switch a {
		case 0x0000:
			if f.banked {
				return manufacturerSanyo
			}
			return manufacturerPanasonic
		case 0x0001:
			if f.banked {
				return deviceFlash128K
			}
			return deviceFlash64K
		}
	}
	return f.data[f.offset(addr)]
}

func (f *flash) Write8(addr uint32, v uint8) {
	a := addr & 0xFFFF

	// Bank-select writes (128K variant only) are taken at offset 0 only
	// once the bank-select command (0xB0) has latched flashCmd2Select, the
	// one extra command this variant layers on top of the standard protocol.
	if f.banked && a == 0x0000 && f.state == flashCmd2Select {
		f.bank = uint32(v) & 1
		f.state = flashIdle
		return
	}

	switch f.state {
	case flashIdle:
		if a == 0x5555 && v == 0xAA {
			f.state = flashCmd1
		}
	case flashCmd1:
		if a == 0x2AAA && v == 0x55 {
			f.state = flashCmd2
		} else {
			f.state = flashIdle
		}
	case flashCmd2:
		switch v {
		case 0x90:
			f.chipID = true
			f.state = flashIdle
		case 0xF0:
			f.chipID = false
			f.state = flashIdle
		case 0x80:
			f.state = flashErasePending
		case 0xA0:
			f.state = flashWriteByte
		case 0xB0:
			f.state = flashCmd2Select
		default:
			f.state = flashIdle
		}
	case flashWriteByte:
		f.data[f.offset(addr)] = v
		f.dirty = true
		f.state = flashIdle
	case flashErasePending:
		if a == 0x5555 && v == 0xAA {
			f.state = flashErasePending2
		} else {
			f.state = flashIdle
		}
	case flashErasePending2:
		switch {
		case a == 0x2AAA && v == 0x55:
			f.eraseSeq = flashErasePending2
		case v == 0x10 && f.eraseSeq == flashErasePending2:
			for i := range f.data {
				f.data[i] = 0xFF
			}
			f.dirty = true
			f.state = flashIdle
			f.eraseSeq = flashIdle
		case v == 0x30:
			base := f.offset(addr) &^ (sectorSize - 1)
			for i := 0; i < sectorSize; i++ {
				f.data[base+uint32(i)] = 0xFF
			}
			f.dirty = true
			f.state = flashIdle
			f.eraseSeq = flashIdle
		default:
			f.state = flashIdle
			f.eraseSeq = flashIdle
		}
	}
}

// flashCmd2Select and flashWriteByte are extra latch states layered onto
// the core flashState enum above (bank-select and byte-program completion).
const (
	flashCmd2Select flashState = iota + 10
	flashWriteByte
)

func (f *flash) Dirty() bool { return f.dirty }

func (f *flash) Save() []byte {
	f.dirty = false
	out := make([]byte, len(f.data))
	copy(out, f.data)
	return out
}
