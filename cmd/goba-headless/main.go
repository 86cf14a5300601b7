// Command goba-headless exercises the Engine API end to end with no GUI
// attached: it loads a ROM (and optional BIOS), pushes a RESET and a RUN
// message, lets the engine run for a handful of frames, then pushes EXIT
// and waits for the worker goroutine to return. It is a harness for the
// gba package, not a frontend -- no video output, no input, no keybinding
// editor.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/hades-go/goba/gba"
	"github.com/hades-go/goba/logger"
	"github.com/hades-go/goba/mailbox"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		logger.Log("goba-headless", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flgs := flag.NewFlagSet("goba-headless", flag.ExitOnError)
	romPath := flgs.String("rom", "", "path to a GBA ROM image")
	biosPath := flgs.String("bios", "", "path to a GBA BIOS image (optional; implies skipping it if absent)")
	frames := flgs.Int("frames", 60, "number of frames to run before exiting")
	if err := flgs.Parse(args); err != nil {
		return err
	}
	if *romPath == "" {
		return fmt.Errorf("goba-headless: -rom is required")
	}

	rom, err := os.ReadFile(*romPath)
	if err != nil {
		return fmt.Errorf("goba-headless: reading rom: %w", err)
	}
	var bios []byte
	skipBIOS := true
	if *biosPath != "" {
		bios, err = os.ReadFile(*biosPath)
		if err != nil {
			return fmt.Errorf("goba-headless: reading bios: %w", err)
		}
		skipBIOS = false
	}

	engine := gba.New()

	done := make(chan struct{})
	go func() {
		defer close(done)
		engine.Run()
	}()

	engine.Messages.Lock()
	err = engine.Messages.PushReset(mailbox.ResetConfig{
		ROM:            rom,
		BIOS:           bios,
		SkipBIOS:       skipBIOS,
		AudioFrequency: 32768,
	})
	if err == nil {
		err = engine.Messages.PushRun()
	}
	engine.Messages.Unlock()
	if err != nil {
		return fmt.Errorf("goba-headless: queuing startup messages: %w", err)
	}

	waitForNotification(engine, mailbox.NotificationReset)
	logger.Log("goba-headless", "reset complete, running")

	for i := 0; i < *frames; i++ {
		time.Sleep(16 * time.Millisecond)
		pixels := engine.LockFramebuffer()
		logger.Logf("goba-headless", "frame %d: %d pixels", i, len(pixels))
		engine.UnlockFramebuffer()
	}

	engine.Messages.Lock()
	err = engine.Messages.PushExit()
	engine.Messages.Unlock()
	if err != nil {
		return fmt.Errorf("goba-headless: queuing exit: %w", err)
	}

	<-done
	logger.Log("goba-headless", "engine stopped cleanly")
	return nil
}

// waitForNotification blocks until a notification of the given kind is
// seen, draining and discarding any others ahead of it.
func waitForNotification(engine *gba.Engine, want mailbox.NotificationKind) {
	engine.Notifications.Lock()
	defer engine.Notifications.Unlock()
	for {
		for rec := engine.Notifications.Next(nil); rec != nil; rec = engine.Notifications.Next(rec) {
			if mailbox.NotificationKind(rec.Kind) == want {
				engine.Notifications.Clear()
				return
			}
		}
		engine.Notifications.Clear()
		engine.Notifications.Wait()
	}
}
