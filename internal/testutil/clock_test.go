// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"testing"
	"time"
)

func TestFakeClock_Now(t *testing.T) {
	t.Parallel()

	initial := time.Date(2023, 6, 15, 12, 0, 0, 0, time.UTC)
	clock := NewFakeClock(initial)
	if got := clock.Now(); !got.Equal(initial) {
		t.Errorf("Now() = %v, want %v", got, initial)
	}
	if NewFakeClock(time.Time{}).Now().IsZero() {
		t.Error("NewFakeClock(zero).Now() is zero, want reference time")
	}
}

func TestFakeClock_AfterFiresOnAdvance(t *testing.T) {
	t.Parallel()

	clock := NewFakeClock(time.Time{})
	start := clock.Now()
	ch := clock.After(time.Second)
	if clock.Waiters() != 1 {
		t.Fatalf("Waiters() = %d, want 1", clock.Waiters())
	}

	clock.Advance(500 * time.Millisecond)
	select {
	case <-ch:
		t.Fatal("After(1s) fired after 500ms")
	default:
	}

	clock.Advance(500 * time.Millisecond)
	select {
	case got := <-ch:
		if want := start.Add(time.Second); !got.Equal(want) {
			t.Errorf("After fired with %v, want %v", got, want)
		}
	default:
		t.Fatal("After(1s) did not fire after 1s")
	}
	if clock.Waiters() != 0 {
		t.Errorf("Waiters() = %d after firing, want 0", clock.Waiters())
	}
	if got := clock.Since(start); got != time.Second {
		t.Errorf("Since() = %v, want 1s", got)
	}
}

func TestFakeClock_AfterNonPositive(t *testing.T) {
	t.Parallel()

	clock := NewFakeClock(time.Time{})
	select {
	case <-clock.After(0):
	default:
		t.Error("After(0) did not fire immediately")
	}
}

func TestFakeClock_Set(t *testing.T) {
	t.Parallel()

	clock := NewFakeClock(time.Time{})
	ch := clock.After(time.Hour)
	target := clock.Now().Add(2 * time.Hour)
	clock.Set(target)

	select {
	case <-ch:
	default:
		t.Error("Set past the target did not fire After")
	}
	if !clock.Now().Equal(target) {
		t.Errorf("Now() = %v, want %v", clock.Now(), target)
	}
}
