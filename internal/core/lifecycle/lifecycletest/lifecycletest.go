// Package lifecycletest provides deterministic clocks and handles for
// exercising the polling engine without real sleeps.
package lifecycletest

import (
	"context"
	"sync"
	"time"

	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
)

// FakeClock advances only when Sleep is called. Sleep returns immediately
// unless ctx is already done.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	slept  []time.Duration
	onWake func(now time.Time)
}

func NewFakeClock() *FakeClock {
	return &FakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.slept = append(c.slept, d)
	hook, now := c.onWake, c.now
	c.mu.Unlock()
	if hook != nil {
		hook(now)
	}
	return ctx.Err()
}

// Advance moves the clock forward without recording a sleep.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// OnWake registers fn to run after every Sleep, e.g. to cancel a context
// part way through a wait.
func (c *FakeClock) OnWake(fn func(now time.Time)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onWake = fn
}

func (c *FakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.slept...)
}

// Step is one scripted refresh outcome.
type Step[S comparable] struct {
	State S
	Err   error
}

// ScriptedHandle replays a fixed sequence of refresh outcomes. Once the
// script is exhausted the last step repeats. A failed step leaves the
// cached state untouched, like a real handle.
type ScriptedHandle[S comparable] struct {
	kind      domain.ResourceKind
	id        string
	state     S
	script    []Step[S]
	Refreshes int
}

func NewScriptedHandle[S comparable](kind domain.ResourceKind, id string, initial S, script ...Step[S]) *ScriptedHandle[S] {
	return &ScriptedHandle[S]{kind: kind, id: id, state: initial, script: script}
}

// States builds a script of successful refreshes.
func States[S comparable](states ...S) []Step[S] {
	out := make([]Step[S], len(states))
	for i, s := range states {
		out[i] = Step[S]{State: s}
	}
	return out
}

func (h *ScriptedHandle[S]) Kind() domain.ResourceKind { return h.kind }
func (h *ScriptedHandle[S]) ID() string                { return h.id }
func (h *ScriptedHandle[S]) State() S                  { return h.state }

func (h *ScriptedHandle[S]) Refresh(context.Context) (S, error) {
	h.Refreshes++
	if len(h.script) == 0 {
		return h.state, nil
	}
	idx := h.Refreshes - 1
	if idx >= len(h.script) {
		idx = len(h.script) - 1
	}
	step := h.script[idx]
	if step.Err != nil {
		return h.state, step.Err
	}
	h.state = step.State
	return h.state, nil
}

// Fetcher returns a fetch function replaying script in the same way, for
// building a Tracker.
func Fetcher[S comparable](script ...Step[S]) (fetch func(ctx context.Context, id string) (S, error), calls *int) {
	n := 0
	return func(context.Context, string) (S, error) {
		n++
		idx := n - 1
		if idx >= len(script) {
			idx = len(script) - 1
		}
		return script[idx].State, script[idx].Err
	}, &n
}
