package mailbox_test

import (
	"testing"

	"github.com/hades-go/goba/mailbox"
	"github.com/hades-go/goba/test"
)

func TestPushAndNext(t *testing.T) {
	m := mailbox.New()

	m.Lock()
	test.ExpectSuccess(t, m.PushRun())
	test.ExpectSuccess(t, m.PushPause())
	test.Equate(t, m.Length(), 2)

	rec := m.Next(nil)
	if rec == nil {
		t.Fatal("expected a record, got nil")
	}
	test.Equate(t, rec.Kind, int32(mailbox.MessageRun))

	rec = m.Next(rec)
	if rec == nil {
		t.Fatal("expected a second record, got nil")
	}
	test.Equate(t, rec.Kind, int32(mailbox.MessagePause))

	rec = m.Next(rec)
	if rec != nil {
		t.Fatalf("expected nil at end of buffer, got %v", rec)
	}
	m.Unlock()
}

func TestClearRetainsAllocation(t *testing.T) {
	m := mailbox.New()

	m.Lock()
	test.ExpectSuccess(t, m.PushRun())
	sizeBefore := m.Size()
	m.Clear()
	test.Equate(t, m.Length(), 0)
	test.Equate(t, m.Size(), 0)

	test.ExpectSuccess(t, m.PushRun())
	if m.Size() != sizeBefore {
		t.Fatalf("expected reused capacity to produce the same record size, got %d want %d", m.Size(), sizeBefore)
	}
	m.Unlock()
}

func TestKeyRoundTrip(t *testing.T) {
	m := mailbox.New()

	m.Lock()
	test.ExpectSuccess(t, m.PushKey(mailbox.KeyA, true))
	rec := m.Next(nil)
	m.Unlock()

	if rec == nil {
		t.Fatal("expected a KEY record")
	}
	test.Equate(t, rec.Kind, int32(mailbox.MessageKey))

	key, pressed, err := mailbox.DecodeKey(rec.Payload)
	test.ExpectSuccess(t, err)
	test.Equate(t, key, mailbox.KeyA)
	test.Equate(t, pressed, true)
}

func TestResetConfigRoundTrip(t *testing.T) {
	cfg := mailbox.ResetConfig{
		ROM:            []byte{0xDE, 0xAD, 0xBE, 0xEF},
		BIOS:           []byte{0x01, 0x02},
		SkipBIOS:       true,
		AudioFrequency: 32768,
		RTC:            true,
		BackupType:     mailbox.BackupFlash128K,
		Backup:         []byte{0xAA, 0xBB, 0xCC},
	}

	m := mailbox.New()
	m.Lock()
	test.ExpectSuccess(t, m.PushReset(cfg))
	rec := m.Next(nil)
	m.Unlock()

	if rec == nil {
		t.Fatal("expected a RESET record")
	}

	got, err := mailbox.DecodeReset(rec.Payload)
	test.ExpectSuccess(t, err)
	test.Equate(t, got.ROM, cfg.ROM)
	test.Equate(t, got.BIOS, cfg.BIOS)
	test.Equate(t, got.Backup, cfg.Backup)
	test.Equate(t, got.SkipBIOS, cfg.SkipBIOS)
	test.Equate(t, got.RTC, cfg.RTC)
	test.Equate(t, got.AudioFrequency, cfg.AudioFrequency)
	test.Equate(t, got.BackupType, cfg.BackupType)
}

func TestWaitWakesOnPush(t *testing.T) {
	m := mailbox.New()
	done := make(chan struct{})

	go func() {
		m.Lock()
		for m.Length() == 0 {
			m.Wait()
		}
		m.Unlock()
		close(done)
	}()

	m.Lock()
	test.ExpectSuccess(t, m.PushRun())
	m.Unlock()

	<-done
}
