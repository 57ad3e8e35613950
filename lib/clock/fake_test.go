// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeNowOnlyMovesOnAdvance(t *testing.T) {
	c := Fake(epoch)
	if !c.Now().Equal(epoch) {
		t.Fatalf("Now() = %v, want %v", c.Now(), epoch)
	}
	c.Advance(90 * time.Second)
	if want := epoch.Add(90 * time.Second); !c.Now().Equal(want) {
		t.Fatalf("Now() after Advance = %v, want %v", c.Now(), want)
	}
}

func TestFakeTimerFiresAtDeadline(t *testing.T) {
	c := Fake(epoch)
	timer := c.NewTimer(time.Minute)

	c.Advance(59 * time.Second)
	select {
	case <-timer.C:
		t.Fatal("timer fired before its deadline")
	default:
	}

	c.Advance(time.Second)
	select {
	case fired := <-timer.C:
		if want := epoch.Add(time.Minute); !fired.Equal(want) {
			t.Errorf("fired at %v, want %v", fired, want)
		}
	default:
		t.Fatal("timer did not fire at its deadline")
	}
	if c.Pending() != 0 {
		t.Errorf("Pending() = %d after firing, want 0", c.Pending())
	}
}

func TestFakeTimerNonPositiveFiresImmediately(t *testing.T) {
	c := Fake(epoch)
	timer := c.NewTimer(0)
	select {
	case <-timer.C:
	default:
		t.Fatal("zero-duration timer did not fire")
	}
	if timer.Stop() {
		t.Error("Stop() on a fired timer returned true")
	}
}

func TestFakeTimerStop(t *testing.T) {
	c := Fake(epoch)
	timer := c.NewTimer(time.Second)
	if !timer.Stop() {
		t.Fatal("Stop() on an active timer returned false")
	}
	if timer.Stop() {
		t.Error("second Stop() returned true")
	}
	if c.Pending() != 0 {
		t.Fatalf("Pending() = %d after Stop, want 0", c.Pending())
	}
	c.Advance(time.Hour)
	select {
	case <-timer.C:
		t.Fatal("stopped timer fired")
	default:
	}
}

func TestFakeWaitForTimers(t *testing.T) {
	c := Fake(epoch)
	armed := make(chan *Timer)
	go func() {
		armed <- c.NewTimer(time.Second)
	}()
	c.WaitForTimers(1)
	timer := <-armed
	c.Advance(time.Second)
	<-timer.C
}

func TestClocksImplementInterface(t *testing.T) {
	var _ Clock = Real()
	var _ Clock = Fake(epoch)
}
