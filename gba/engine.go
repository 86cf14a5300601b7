// Package gba is the engine's single owning record: the worker-thread loop
// that drains the frontend->engine mailbox, dispatches each message to the
// subsystem it configures, and steps the scheduler one frame at a time.
// Every other package in this module (scheduler, bus, cpu, dma, timer, ppu,
// apu, ioregs, mailbox) is wired together here, the way the teacher's
// top-level hardware.VCS struct aggregates CPU, Mem, TIA, RIOT and TV.
package gba

import (
	"sync/atomic"

	"github.com/go-audio/audio"

	"github.com/hades-go/goba/apu"
	"github.com/hades-go/goba/bus"
	"github.com/hades-go/goba/bus/backup"
	"github.com/hades-go/goba/cpu"
	"github.com/hades-go/goba/dma"
	"github.com/hades-go/goba/errors"
	"github.com/hades-go/goba/ioregs"
	"github.com/hades-go/goba/logger"
	"github.com/hades-go/goba/mailbox"
	"github.com/hades-go/goba/ppu"
	"github.com/hades-go/goba/scheduler"
	"github.com/hades-go/goba/timer"
)

// runState is the engine loop's own RUN/PAUSE state, distinct from
// cpu.RunState (the CPU's HALT/STOP states, which operate underneath it).
type runState int

const (
	statePause runState = iota
	stateRun
)

// Engine is the single record owning every engine-thread-local subsystem
// plus the two mailboxes a frontend communicates through. Run executes the
// message-drain/scheduler loop on the calling goroutine -- the frontend is
// expected to call it from a goroutine of its own, exactly as spec.md's
// "the engine runs in exactly one worker thread" describes.
type Engine struct {
	sched  *scheduler.Scheduler
	io     *ioregs.Registers
	bus    *bus.Bus
	cpu    *cpu.CPU
	dma    *dma.Controller
	timers *timer.Bank
	ppu    *ppu.PPU
	apu    *apu.APU

	// Messages carries frontend->engine records; Notifications carries the
	// matching engine->frontend acknowledgements. Exported so a frontend
	// can Lock/Push*/Unlock them directly, per mailbox's own contract.
	Messages      *mailbox.Mailbox
	Notifications *mailbox.Mailbox

	state        runState
	exiting      bool
	requestPause atomic.Bool
}

// New constructs an engine with every subsystem wired together but no ROM
// loaded; the engine stays paused until a RESET message brings in a
// cartridge. Corresponds to spec.md §6's create().
func New() *Engine {
	e := &Engine{
		sched:         scheduler.New(),
		io:            ioregs.New(),
		Messages:      mailbox.New(),
		Notifications: mailbox.New(),
		state:         statePause,
	}
	e.bus = bus.New(e.sched, e.io)
	e.cpu = cpu.New(e.bus, e.sched)
	e.cpu.SetEngine(e)
	e.wireSubsystems()
	return e
}

// wireSubsystems (re)builds dma, timers, ppu and apu against the engine's
// stable scheduler/bus/io, and rewires the bus's FIFO/sound-register hooks
// to the new apu. Called once by New and again by reset, since all four
// hold per-cartridge state that RESET must wipe clean and none of their
// packages expose an in-place Reset of their own.
func (e *Engine) wireSubsystems() {
	raiseDMA := func(ch int) { e.io.RaiseInterrupt(uint(ioregs.IRQDMA0 + ch)) }
	raiseTimer := func(idx int) { e.io.RaiseInterrupt(uint(ioregs.IRQTimer0 + idx)) }
	raisePPU := func(irq uint) { e.io.RaiseInterrupt(irq) }
	vcount := func() uint16 { return e.io.GetVCount() }
	fifoTick := func(idx int) { e.apu.TickFIFO(idx) }

	e.dma = dma.New(e.sched, e.bus, e.io, vcount, raiseDMA)
	e.timers = timer.New(e.sched, raiseTimer, fifoTick)
	e.ppu = ppu.New(e.sched, e.bus, e.io, e.dma, raisePPU)
	e.ppu.SetEngine(e)
	e.ppu.Init()
	e.apu = apu.New(e.sched, e.io, e.dma)

	e.bus.SetFIFOWriteHook(e.apu.PushFIFO)
	e.bus.SetSoundWriteHook(e.apu.WriteRegister)
	e.bus.SetDMAWriteHook(e.dma.WriteRegister)
	e.bus.SetTimerWriteHook(e.timers.WriteRegister)
}

// Run drains and processes messages, stepping the scheduler one frame at a
// time, until an EXIT message is processed. It implements spec.md §4.8's
// loop verbatim: lock, drain, clear, suspend on PAUSE, consume the pending-
// pause latch, then run one frame if RUN.
func (e *Engine) Run() {
	for {
		e.Messages.Lock()
		var rec *mailbox.Record
		for rec = e.Messages.Next(nil); rec != nil; rec = e.Messages.Next(rec) {
			e.processMessage(rec)
		}
		e.Messages.Clear()

		if e.exiting {
			e.Messages.Unlock()
			return
		}
		if e.state == statePause {
			e.Messages.Wait()
		}
		e.Messages.Unlock()

		if e.requestPause.CompareAndSwap(true, false) {
			e.processMessage(&mailbox.Record{Kind: int32(mailbox.MessagePause)})
		}

		if e.state == stateRun {
			e.sched.RunFor(e.cpu, ppu.CyclesPerFrame, nil)
		}
	}
}

// RequestPause sets the async-safe latch the loop observes at the next
// frame boundary, per spec.md §5's "signal-safe latch" description. Safe
// to call from any goroutine.
func (e *Engine) RequestPause() { e.requestPause.Store(true) }

// LockFramebuffer locks and returns the most recently completed frame as
// RGBA pixels (red in bits 0-7, green 8-15, blue 16-23, alpha 24-31); the
// caller must call UnlockFramebuffer when done.
func (e *Engine) LockFramebuffer() []uint32 { return e.ppu.LockFrontend() }

// UnlockFramebuffer releases the lock taken by LockFramebuffer.
func (e *Engine) UnlockFramebuffer() { e.ppu.UnlockFrontend() }

// LockAudio locks and returns the audio samples accumulated since the last
// UnlockAudio, in go-audio IntBuffer form; the caller must call UnlockAudio
// when done.
func (e *Engine) LockAudio() *audio.IntBuffer { return e.apu.LockAudio() }

// UnlockAudio drains the audio ring buffer and releases the lock taken by
// LockAudio.
func (e *Engine) UnlockAudio() { e.apu.ReleaseAudio() }

// processMessage dispatches one record, per spec.md §4.8's table: drained
// records from the Run loop, and the internal PAUSE record synthesised
// from the request_pause latch.
func (e *Engine) processMessage(rec *mailbox.Record) {
	switch mailbox.MessageKind(rec.Kind) {
	case mailbox.MessageExit:
		e.exiting = true

	case mailbox.MessageReset:
		cfg, err := mailbox.DecodeReset(rec.Payload)
		if err != nil {
			logger.Logf("gba", "dropping malformed RESET message: %v", err)
			return
		}
		e.reset(cfg)
		e.Notifications.Lock()
		e.Notifications.PushNotification(mailbox.NotificationReset)
		e.Notifications.Unlock()

	case mailbox.MessageRun:
		e.state = stateRun
		e.Notifications.Lock()
		e.Notifications.PushNotification(mailbox.NotificationRun)
		e.Notifications.Unlock()

	case mailbox.MessagePause:
		e.state = statePause
		e.Notifications.Lock()
		e.Notifications.PushNotification(mailbox.NotificationPause)
		e.Notifications.Unlock()

	case mailbox.MessageKey:
		key, pressed, err := mailbox.DecodeKey(rec.Payload)
		if err != nil {
			logger.Logf("gba", "dropping malformed KEY message: %v", err)
			return
		}
		if int(key) < 0 || int(key) >= len(keyBit) {
			return
		}
		e.io.SetKey(keyBit[key], pressed)
		if e.io.KeypadIRQCondition() {
			e.io.RaiseInterrupt(ioregs.IRQKeypad)
		}
	}
}

// romSizeLimit mirrors bus.RomMax; reset clamps to it itself, but the
// engine logs the configuration warning spec.md §7 requires before that
// silent clamp happens.
const romSizeLimit = bus.RomMax

// reset fully re-initialises every subsystem from cfg, per spec.md §4.8's
// RESET effect and §7's configuration-error handling (clamp, don't fail).
func (e *Engine) reset(cfg mailbox.ResetConfig) {
	if len(cfg.ROM) > romSizeLimit {
		logger.Logf("gba", errors.ConfigROMTooLarge, len(cfg.ROM), romSizeLimit)
	}

	backupType := backup.Type(cfg.BackupType)
	if backupType < backup.None || backupType > backup.EEPROM64K {
		logger.Logf("gba", errors.ConfigUnknownBackup, cfg.BackupType)
		backupType = backup.None
	}

	e.sched.Reset()
	e.io.Reset()
	e.bus.Reset(cfg.ROM, cfg.BIOS, backupType, cfg.Backup, cfg.RTC)
	e.wireSubsystems()
	e.apu.Reset(cfg.AudioFrequency)
	e.cpu.Reset()

	if cfg.SkipBIOS {
		e.cpu.SkipBIOS()
	}

	e.state = statePause
}
