package gba

import "github.com/hades-go/goba/mailbox"

// keyBit maps a mailbox.Key to its KEYINPUT bit index, in the order the
// real hardware register uses: A, B, Select, Start, Right, Left, Up, Down,
// R, L -- distinct from mailbox.Key's own enumeration order, which groups
// buttons the way a frontend's keybinding UI would rather than the way the
// silicon does.
var keyBit = [...]uint{
	mailbox.KeyA:      0,
	mailbox.KeyB:      1,
	mailbox.KeySelect: 2,
	mailbox.KeyStart:  3,
	mailbox.KeyRight:  4,
	mailbox.KeyLeft:   5,
	mailbox.KeyUp:     6,
	mailbox.KeyDown:   7,
	mailbox.KeyR:      8,
	mailbox.KeyL:      9,
}
