// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"testing"
	"time"
)

func TestFakeClock_DefaultsToReferenceTime(t *testing.T) {
	clock := NewFakeClock(time.Time{})

	want := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := clock.Now(); !got.Equal(want) {
		t.Errorf("Now() = %v, want %v", got, want)
	}
}

func TestFakeClock_UsesInitialTime(t *testing.T) {
	initial := time.Date(2026, 3, 15, 12, 30, 0, 0, time.UTC)
	clock := NewFakeClock(initial)

	if got := clock.Now(); !got.Equal(initial) {
		t.Errorf("Now() = %v, want %v", got, initial)
	}
}

func TestFakeClock_NowIsStable(t *testing.T) {
	clock := NewFakeClock(time.Time{})

	first := clock.Now()
	second := clock.Now()
	if !first.Equal(second) {
		t.Errorf("Now() moved from %v to %v without Advance", first, second)
	}
}

func TestFakeClock_Advance(t *testing.T) {
	clock := NewFakeClock(time.Time{})
	start := clock.Now()

	clock.Advance(90 * time.Minute)

	if got, want := clock.Now(), start.Add(90*time.Minute); !got.Equal(want) {
		t.Errorf("Now() after Advance = %v, want %v", got, want)
	}
}

func TestFakeClock_SetMovesBackwards(t *testing.T) {
	clock := NewFakeClock(time.Time{})
	past := clock.Now().Add(-24 * time.Hour)

	clock.Set(past)

	if got := clock.Now(); !got.Equal(past) {
		t.Errorf("Now() after Set = %v, want %v", got, past)
	}
}
