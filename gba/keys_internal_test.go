package gba

import (
	"testing"

	"github.com/hades-go/goba/mailbox"
	"github.com/hades-go/goba/test"
)

func TestKeyBitCoversEveryMailboxKey(t *testing.T) {
	seen := map[uint]bool{}
	for key := mailbox.KeyA; key <= mailbox.KeySelect; key++ {
		bit := keyBit[key]
		if seen[bit] {
			t.Fatalf("bit %d assigned to more than one key", bit)
		}
		seen[bit] = true
	}
	test.Equate(t, len(seen), 10)
}

func TestKeyBitMatchesKeypadRegisterLayout(t *testing.T) {
	test.Equate(t, keyBit[mailbox.KeyA], uint(0))
	test.Equate(t, keyBit[mailbox.KeyB], uint(1))
	test.Equate(t, keyBit[mailbox.KeySelect], uint(2))
	test.Equate(t, keyBit[mailbox.KeyStart], uint(3))
	test.Equate(t, keyBit[mailbox.KeyL], uint(9))
	test.Equate(t, keyBit[mailbox.KeyR], uint(8))
}
