package prefs_test

import (
	"testing"

	"github.com/hades-go/goba/prefs"
	"github.com/hades-go/goba/test"
)

func TestBool(t *testing.T) {
	var b prefs.Bool

	test.ExpectSuccess(t, b.Set(true))
	test.Equate(t, b.Get(), true)

	test.ExpectSuccess(t, b.Set("false"))
	test.Equate(t, b.Get(), false)

	test.ExpectFailure(t, b.Set("not-a-bool"))
	test.ExpectFailure(t, b.Set(42))
}

func TestInt(t *testing.T) {
	var n prefs.Int

	test.ExpectSuccess(t, n.Set(44100))
	test.Equate(t, n.Get(), 44100)

	test.ExpectSuccess(t, n.Set("32768"))
	test.Equate(t, n.Get(), 32768)

	test.ExpectFailure(t, n.Set("not-an-int"))
	test.ExpectFailure(t, n.Set(3.14))
}

func TestFloat(t *testing.T) {
	var f prefs.Float

	test.ExpectSuccess(t, f.Set(2.2))
	test.Equate(t, f.Get(), 2.2)

	test.ExpectSuccess(t, f.Set("1.8"))
	test.Equate(t, f.Get(), 1.8)

	test.ExpectFailure(t, f.Set("not-a-float"))
}

func TestString(t *testing.T) {
	var s prefs.String

	test.ExpectSuccess(t, s.Set("hello"))
	test.Equate(t, s.Get(), "hello")
	test.Equate(t, s.String(), "hello")

	test.ExpectSuccess(t, s.Set(123))
	test.Equate(t, s.Get(), "123")
}

func TestStringMaxLen(t *testing.T) {
	var s prefs.String

	s.SetMaxLen(3)
	test.ExpectSuccess(t, s.Set("abcdef"))
	test.Equate(t, s.Get(), "abc")

	test.ExpectSuccess(t, s.Set("x"))
	test.Equate(t, s.Get(), "x")

	s.SetMaxLen(0)
	test.ExpectSuccess(t, s.Set("abcdef"))
	test.Equate(t, s.Get(), "abcdef")
}

func TestStringMaxLenCropsExistingValue(t *testing.T) {
	var s prefs.String

	test.ExpectSuccess(t, s.Set("abcdef"))
	s.SetMaxLen(3)
	test.Equate(t, s.Get(), "abc")
}

func TestGeneric(t *testing.T) {
	var backing bool

	g := prefs.NewGeneric(
		func(v prefs.Value) error {
			backing = v.(bool)
			return nil
		},
		func() prefs.Value {
			return backing
		},
	)

	test.ExpectSuccess(t, g.Set(true))
	test.Equate(t, backing, true)
	test.Equate(t, g.Get(), true)
}

func TestGenericImplementsPref(t *testing.T) {
	var backing int
	var p prefs.Pref = prefs.NewGeneric(
		func(v prefs.Value) error {
			backing = v.(int)
			return nil
		},
		func() prefs.Value {
			return backing
		},
	)

	test.ExpectSuccess(t, p.Set(7))
	test.Equate(t, p.Get(), 7)
}
