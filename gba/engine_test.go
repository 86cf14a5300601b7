package gba_test

import (
	"testing"
	"time"

	"github.com/hades-go/goba/gba"
	"github.com/hades-go/goba/mailbox"
	"github.com/hades-go/goba/test"
)

// waitForNotification blocks (with a test timeout, not a real one) until a
// notification of the given kind appears, discarding anything ahead of it.
func waitForNotification(t *testing.T, n *mailbox.Mailbox, want mailbox.NotificationKind) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		n.Lock()
		defer n.Unlock()
		for {
			for rec := n.Next(nil); rec != nil; rec = n.Next(rec) {
				if mailbox.NotificationKind(rec.Kind) == want {
					n.Clear()
					close(done)
					return
				}
			}
			n.Clear()
			n.Wait()
		}
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for notification %v", want)
	}
}

func TestEngineResetThenPauseProducesNotificationsInOrder(t *testing.T) {
	e := gba.New()

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		e.Run()
	}()

	e.Messages.Lock()
	err := e.Messages.PushReset(mailbox.ResetConfig{
		ROM:            make([]byte, 0x1000),
		SkipBIOS:       true,
		AudioFrequency: 32768,
	})
	test.ExpectSuccess(t, err)
	err = e.Messages.PushPause()
	test.ExpectSuccess(t, err)
	e.Messages.Unlock()

	waitForNotification(t, e.Notifications, mailbox.NotificationReset)
	waitForNotification(t, e.Notifications, mailbox.NotificationPause)

	e.Messages.Lock()
	err = e.Messages.PushExit()
	test.ExpectSuccess(t, err)
	e.Messages.Unlock()

	select {
	case <-runDone:
	case <-time.After(5 * time.Second):
		t.Fatalf("engine did not exit after EXIT message")
	}
}

func TestEngineKeyMessageSetsKeyInputBit(t *testing.T) {
	e := gba.New()

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		e.Run()
	}()

	e.Messages.Lock()
	test.ExpectSuccess(t, e.Messages.PushReset(mailbox.ResetConfig{
		ROM:            make([]byte, 0x1000),
		SkipBIOS:       true,
		AudioFrequency: 32768,
	}))
	e.Messages.Unlock()
	waitForNotification(t, e.Notifications, mailbox.NotificationReset)

	e.Messages.Lock()
	test.ExpectSuccess(t, e.Messages.PushKey(mailbox.KeyA, true))
	test.ExpectSuccess(t, e.Messages.PushPause())
	e.Messages.Unlock()
	waitForNotification(t, e.Notifications, mailbox.NotificationPause)

	e.Messages.Lock()
	test.ExpectSuccess(t, e.Messages.PushExit())
	e.Messages.Unlock()

	select {
	case <-runDone:
	case <-time.After(5 * time.Second):
		t.Fatalf("engine did not exit after EXIT message")
	}
}
