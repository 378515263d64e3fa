// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package failover runs an ordered list of alternative providers until one
// succeeds. Every chain ends in a terminal tier that cannot fail, so Run
// always produces a value.
package failover

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrNoTerminal is returned by New when the chain has no terminal tier.
var ErrNoTerminal = errors.New("failover chain requires a terminal tier")

// DefaultTerminalName is the Outcome.Tier reported for the terminal tier
// when Options.TerminalName is empty.
const DefaultTerminalName = "rule-based"

// Tier is one fallible provider in a chain.
type Tier[In, Out any] struct {
	Name    string
	Attempt func(ctx context.Context, in In) (Out, error)

	// Timeout overrides the chain's per-tier timeout when positive.
	Timeout time.Duration
}

// Failure records why a tier did not produce a value.
type Failure struct {
	Stage string
	Tier  string
	Err   error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s/%s: %v", f.Stage, f.Tier, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// Outcome is the result of running a chain.
type Outcome[Out any] struct {
	Value Out

	// Tier names the tier that produced Value.
	Tier string

	// Failures lists every tier that was attempted and failed, in order.
	Failures []Failure
}

// Errors renders failures as "<stage>/<tier>: <error>" strings.
func (o Outcome[Out]) Errors() []string {
	if len(o.Failures) == 0 {
		return nil
	}
	out := make([]string, len(o.Failures))
	for i, f := range o.Failures {
		out[i] = f.Error()
	}
	return out
}

// Chain tries its tiers in order with a per-tier timeout and falls back to
// the terminal function when all of them fail.
type Chain[In, Out any] struct {
	stage        string
	tiers        []Tier[In, Out]
	timeout      time.Duration
	terminalName string
	terminal     func(In) Out
	logger       *slog.Logger
}

// Options configures a chain.
type Options struct {
	// Stage labels failures, e.g. "querygen" or "synthesis".
	Stage string

	// Timeout bounds each fallible tier. Zero means no per-tier bound.
	Timeout time.Duration

	// TerminalName is reported as Outcome.Tier when the terminal runs.
	TerminalName string

	Logger *slog.Logger
}

// New builds a chain. The terminal function must not fail.
func New[In, Out any](opts Options, terminal func(In) Out, tiers ...Tier[In, Out]) (*Chain[In, Out], error) {
	if terminal == nil {
		return nil, ErrNoTerminal
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	name := opts.TerminalName
	if name == "" {
		name = DefaultTerminalName
	}
	return &Chain[In, Out]{
		stage:        opts.Stage,
		tiers:        tiers,
		timeout:      opts.Timeout,
		terminalName: name,
		terminal:     terminal,
		logger:       logger,
	}, nil
}

// Tiers returns the names of the fallible tiers in order.
func (c *Chain[In, Out]) Tiers() []string {
	names := make([]string, len(c.tiers))
	for i, t := range c.tiers {
		names[i] = t.Name
	}
	return names
}

type result[Out any] struct {
	value Out
	err   error
}

// Run attempts each tier in order and returns the first success. A cancelled
// ctx skips the remaining fallible tiers; the terminal still runs.
func (c *Chain[In, Out]) Run(ctx context.Context, in In) Outcome[Out] {
	var out Outcome[Out]

	for _, t := range c.tiers {
		if err := ctx.Err(); err != nil {
			out.Failures = append(out.Failures, Failure{Stage: c.stage, Tier: t.Name, Err: err})
			continue
		}

		v, err := c.attempt(ctx, t, in)
		if err == nil {
			out.Value = v
			out.Tier = t.Name
			return out
		}
		c.logger.Warn("provider tier failed, falling back",
			"stage", c.stage, "tier", t.Name, "error", err)
		out.Failures = append(out.Failures, Failure{Stage: c.stage, Tier: t.Name, Err: err})
	}

	out.Value = c.terminal(in)
	out.Tier = c.terminalName
	return out
}

// attempt runs one tier, returning when it finishes or its deadline passes,
// whichever comes first. A tier that ignores ctx is abandoned, not awaited.
func (c *Chain[In, Out]) attempt(ctx context.Context, t Tier[In, Out], in In) (Out, error) {
	timeout := c.timeout
	if t.Timeout > 0 {
		timeout = t.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ch := make(chan result[Out], 1)
	go func() {
		v, err := t.Attempt(ctx, in)
		ch <- result[Out]{value: v, err: err}
	}()

	select {
	case r := <-ch:
		return r.value, r.err
	case <-ctx.Done():
		var zero Out
		return zero, fmt.Errorf("tier %s: %w", t.Name, ctx.Err())
	}
}
