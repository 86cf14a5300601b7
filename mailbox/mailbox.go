// Package mailbox implements the two byte-stream channels that couple the
// engine's single worker goroutine to an out-of-core frontend: one carrying
// messages from the frontend into the engine, the other carrying
// notifications back out. Both directions share the same underlying type --
// a contiguous, growable byte buffer of variable-size records guarded by a
// mutex and a condition variable -- so that heterogeneous record kinds
// (Exit, Reset, Run, Pause, Key ...) can be appended and drained without a
// Go channel's fixed element type getting in the way.
//
// Every exported method requires the caller to be holding the mailbox's
// lock, mirroring the original engine's channel_lock/channel_push/
// channel_wait/channel_next/channel_clear contract: Lock, do the work,
// Unlock.
package mailbox

import (
	"encoding/binary"
	"sync"

	"github.com/hades-go/goba/errors"
)

// headerSize is the width, in bytes, of the {kind, size} record header that
// precedes every record's payload.
const headerSize = 8

// Mailbox is a mutex-and-condition-variable guarded record buffer.
type Mailbox struct {
	mu     sync.Mutex
	cond   *sync.Cond
	events []byte
	length int
}

// New creates an empty mailbox ready for use.
func New() *Mailbox {
	m := &Mailbox{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Lock acquires the mailbox for exclusive access.
func (m *Mailbox) Lock() { m.mu.Lock() }

// Unlock releases the mailbox.
func (m *Mailbox) Unlock() { m.mu.Unlock() }

// Length returns the number of records currently buffered. Must be called
// with the lock held.
func (m *Mailbox) Length() int { return m.length }

// Size returns the number of bytes currently buffered, header included.
// Must be called with the lock held.
func (m *Mailbox) Size() int { return len(m.events) }

// Push appends a new record of the given kind and payload to the end of the
// buffer and wakes any goroutine blocked in Wait. Must be called with the
// lock held.
func (m *Mailbox) Push(kind int32, payload []byte) error {
	size := headerSize + len(payload)
	if size < headerSize {
		return errors.Errorf(errors.MailboxAllocFailure, "record size overflow")
	}

	rec := make([]byte, size)
	binary.LittleEndian.PutUint32(rec[0:4], uint32(kind))
	binary.LittleEndian.PutUint32(rec[4:8], uint32(size))
	copy(rec[headerSize:], payload)

	m.events = append(m.events, rec...)
	m.length++
	m.cond.Broadcast()
	return nil
}

// Wait blocks until Push is called on this mailbox. Must be called with the
// lock held; the lock is released while blocked and re-acquired before
// returning, per sync.Cond's usual contract.
func (m *Mailbox) Wait() {
	m.cond.Wait()
}

// Clear empties the mailbox. The underlying allocation is retained so that
// a busy mailbox does not repeatedly reallocate. Must be called with the
// lock held.
func (m *Mailbox) Clear() {
	m.events = m.events[:0]
	m.length = 0
}

// Record is a read-only view of one buffered record.
type Record struct {
	Kind    int32
	Payload []byte

	offset int
	size   int
}

// Next returns the record following prev, or the first record when prev is
// nil. It returns nil once the end of the buffer is reached. Must be called
// with the lock held; the returned Record's Payload slice aliases the
// mailbox's internal buffer and is only valid until the next Push or Clear.
func (m *Mailbox) Next(prev *Record) *Record {
	offset := 0
	if prev != nil {
		offset = prev.offset + prev.size
	}
	if offset >= len(m.events) {
		return nil
	}

	kind := int32(binary.LittleEndian.Uint32(m.events[offset : offset+4]))
	size := int(binary.LittleEndian.Uint32(m.events[offset+4 : offset+8]))

	return &Record{
		Kind:    kind,
		Payload: m.events[offset+headerSize : offset+size],
		offset:  offset,
		size:    size,
	}
}
