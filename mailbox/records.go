package mailbox

import (
	"encoding/binary"

	"github.com/hades-go/goba/errors"
)

// MessageKind identifies a record pushed to the frontend->engine mailbox.
type MessageKind int32

const (
	MessageExit MessageKind = iota
	MessageReset
	MessageRun
	MessagePause
	MessageKey
)

func (k MessageKind) String() string {
	switch k {
	case MessageExit:
		return "EXIT"
	case MessageReset:
		return "RESET"
	case MessageRun:
		return "RUN"
	case MessagePause:
		return "PAUSE"
	case MessageKey:
		return "KEY"
	default:
		return "UNKNOWN"
	}
}

// NotificationKind identifies a record pushed to the engine->frontend
// mailbox.
type NotificationKind int32

const (
	NotificationRun NotificationKind = iota
	NotificationPause
	NotificationReset
)

func (k NotificationKind) String() string {
	switch k {
	case NotificationRun:
		return "RUN"
	case NotificationPause:
		return "PAUSE"
	case NotificationReset:
		return "RESET"
	default:
		return "UNKNOWN"
	}
}

// Key enumerates the ten logical keypad buttons the frontend can report.
type Key int32

const (
	KeyA Key = iota
	KeyB
	KeyL
	KeyR
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyStart
	KeySelect
)

// BackupType tags the cartridge backup storage variant carried by a RESET
// message.
type BackupType int32

const (
	BackupNone BackupType = iota
	BackupSRAM
	BackupFlash64K
	BackupFlash128K
	BackupEEPROM4K
	BackupEEPROM64K
)

// ResetConfig is the payload of a RESET message: everything the engine
// needs to fully re-initialise a run.
type ResetConfig struct {
	ROM            []byte
	BIOS           []byte
	SkipBIOS       bool
	AudioFrequency uint32
	RTC            bool
	BackupType     BackupType
	Backup         []byte
}

// PushExit appends an EXIT message. Must be called with the lock held.
func (m *Mailbox) PushExit() error {
	return m.Push(int32(MessageExit), nil)
}

// PushRun appends a RUN message. Must be called with the lock held.
func (m *Mailbox) PushRun() error {
	return m.Push(int32(MessageRun), nil)
}

// PushPause appends a PAUSE message. Must be called with the lock held.
func (m *Mailbox) PushPause() error {
	return m.Push(int32(MessagePause), nil)
}

// PushKey appends a KEY message. Must be called with the lock held.
func (m *Mailbox) PushKey(key Key, pressed bool) error {
	payload := make([]byte, 8)
	binary.LittleEndian.PutUint32(payload[0:4], uint32(key))
	if pressed {
		payload[4] = 1
	}
	return m.Push(int32(MessageKey), payload)
}

// DecodeKey unpacks a KEY message's payload.
func DecodeKey(payload []byte) (key Key, pressed bool, err error) {
	if len(payload) < 8 {
		return 0, false, errors.Errorf(errors.SnapshotTruncated, "key payload")
	}
	key = Key(binary.LittleEndian.Uint32(payload[0:4]))
	pressed = payload[4] != 0
	return key, pressed, nil
}

// PushReset appends a RESET message. Must be called with the lock held.
func (m *Mailbox) PushReset(cfg ResetConfig) error {
	return m.Push(int32(MessageReset), encodeResetConfig(cfg))
}

// DecodeReset unpacks a RESET message's payload.
func DecodeReset(payload []byte) (ResetConfig, error) {
	return decodeResetConfig(payload)
}

// PushNotification appends a bare notification record. Must be called with
// the lock held.
func (m *Mailbox) PushNotification(kind NotificationKind) error {
	return m.Push(int32(kind), nil)
}

// encodeResetConfig lays out a ResetConfig as:
//
//	u8 skip_bios, u8 rtc, u8 _pad[2], u32 audio_frequency, i32 backup_type,
//	u8 _pad[4], u32 rom_size, rom bytes, u32 bios_size, bios bytes,
//	u32 backup_size, backup bytes
func encodeResetConfig(cfg ResetConfig) []byte {
	header := make([]byte, 16)
	if cfg.SkipBIOS {
		header[0] = 1
	}
	if cfg.RTC {
		header[1] = 1
	}
	binary.LittleEndian.PutUint32(header[4:8], cfg.AudioFrequency)
	binary.LittleEndian.PutUint32(header[8:12], uint32(int32(cfg.BackupType)))

	buf := header
	buf = appendBlock(buf, cfg.ROM)
	buf = appendBlock(buf, cfg.BIOS)
	buf = appendBlock(buf, cfg.Backup)
	return buf
}

func decodeResetConfig(payload []byte) (ResetConfig, error) {
	var cfg ResetConfig

	if len(payload) < 16 {
		return cfg, errors.Errorf(errors.SnapshotTruncated, "reset config header")
	}
	cfg.SkipBIOS = payload[0] != 0
	cfg.RTC = payload[1] != 0
	cfg.AudioFrequency = binary.LittleEndian.Uint32(payload[4:8])
	cfg.BackupType = BackupType(int32(binary.LittleEndian.Uint32(payload[8:12])))

	rest := payload[16:]

	rom, rest, err := readBlock(rest)
	if err != nil {
		return cfg, err
	}
	bios, rest, err := readBlock(rest)
	if err != nil {
		return cfg, err
	}
	backup, _, err := readBlock(rest)
	if err != nil {
		return cfg, err
	}

	cfg.ROM = rom
	cfg.BIOS = bios
	cfg.Backup = backup
	return cfg, nil
}

func appendBlock(buf []byte, data []byte) []byte {
	size := make([]byte, 4)
	binary.LittleEndian.PutUint32(size, uint32(len(data)))
	buf = append(buf, size...)
	buf = append(buf, data...)
	return buf
}

func readBlock(buf []byte) (data []byte, rest []byte, err error) {
	if len(buf) < 4 {
		return nil, nil, errors.Errorf(errors.SnapshotTruncated, "block length")
	}
	size := int(binary.LittleEndian.Uint32(buf[0:4]))
	buf = buf[4:]
	if len(buf) < size {
		return nil, nil, errors.Errorf(errors.SnapshotTruncated, "block body")
	}
	return buf[:size], buf[size:], nil
}
