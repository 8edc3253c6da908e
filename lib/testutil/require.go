// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"time"
)

// Fataler is the subset of testing.TB the channel helpers need.
type Fataler interface {
	Helper()
	Fatalf(format string, args ...any)
}

// deadline returns a channel that fires after timeout and a function
// that releases the timer.
func deadline(timeout time.Duration) (<-chan time.Time, func()) {
	timer := time.NewTimer(timeout)
	return timer.C, func() { timer.Stop() }
}

// RequireReceive returns the next value from ch, failing the test if
// none arrives within timeout or ch is closed.
//
//	item := testutil.RequireReceive(t, results, 5*time.Second, "task %d result", index)
func RequireReceive[T any](t Fataler, ch <-chan T, timeout time.Duration, msgAndArgs ...any) T {
	t.Helper()
	expired, stop := deadline(timeout)
	defer stop()
	select {
	case value, ok := <-ch:
		if !ok {
			t.Fatalf("%s: channel closed before a value arrived", describe(msgAndArgs))
		}
		return value
	case <-expired:
		t.Fatalf("%s: nothing received within %v", describe(msgAndArgs), timeout)
	}
	panic("unreachable")
}

// RequireSend delivers value on ch, failing the test if no receiver
// takes it within timeout.
func RequireSend[T any](t Fataler, ch chan<- T, value T, timeout time.Duration, msgAndArgs ...any) {
	t.Helper()
	expired, stop := deadline(timeout)
	defer stop()
	select {
	case ch <- value:
	case <-expired:
		t.Fatalf("%s: send not taken within %v", describe(msgAndArgs), timeout)
	}
}

// RequireClosed waits for a signal channel such as a server's Ready
// channel to close.
func RequireClosed(t Fataler, ch <-chan struct{}, timeout time.Duration, msgAndArgs ...any) {
	t.Helper()
	expired, stop := deadline(timeout)
	defer stop()
	select {
	case <-ch:
	case <-expired:
		t.Fatalf("%s: channel still open after %v", describe(msgAndArgs), timeout)
	}
}

// RequireNoReceive fails the test if ch yields anything, including a
// close, during window. Bounded-concurrency tests use it to show a task
// has not started.
func RequireNoReceive[T any](t Fataler, ch <-chan T, window time.Duration, msgAndArgs ...any) {
	t.Helper()
	quiet, stop := deadline(window)
	defer stop()
	select {
	case value, ok := <-ch:
		if !ok {
			t.Fatalf("%s: channel closed during quiet period", describe(msgAndArgs))
		}
		t.Fatalf("%s: received %v during quiet period", describe(msgAndArgs), value)
	case <-quiet:
	}
}

// describe renders the optional message: a plain value, or a format
// string and its arguments.
func describe(msgAndArgs []any) string {
	switch {
	case len(msgAndArgs) == 0:
		return "channel wait"
	case len(msgAndArgs) == 1:
		return fmt.Sprint(msgAndArgs[0])
	}
	if format, ok := msgAndArgs[0].(string); ok {
		return fmt.Sprintf(format, msgAndArgs[1:]...)
	}
	return fmt.Sprint(msgAndArgs...)
}
