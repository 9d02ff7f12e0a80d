package scanning

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultTimeout bounds a single provider call
const DefaultTimeout = 60 * time.Second

// FanOut runs every recognizer against the image in parallel, each under its own
// timeout. It always returns one payload per recognizer, in input order. A
// provider that errors, panics or times out yields a payload with OK unset and
// Error filled in; it never affects the others.
func FanOut(ctx context.Context, recognizers []Recognizer, img Image, timeout time.Duration) []Payload {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	payloads := make([]Payload, len(recognizers))
	var g errgroup.Group
	for i, r := range recognizers {
		g.Go(func() error {
			payloads[i] = recognizeOne(ctx, r, img, timeout)
			return nil
		})
	}
	// goroutines never return an error
	_ = g.Wait()

	return payloads
}

func recognizeOne(ctx context.Context, r Recognizer, img Image, timeout time.Duration) (p Payload) {
	name := r.Name()
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	defer func() {
		p.Duration = time.Since(start)
		if p.OK {
			slog.Debug("ocr provider finished", "source", name, "duration", p.Duration, "chars", len(p.Text))
		} else {
			slog.Warn("ocr provider failed", "source", name, "duration", p.Duration, "error", p.Error)
		}
	}()

	type result struct {
		p   Payload
		err error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- result{err: fmt.Errorf("panic: %v", rec)}
			}
		}()
		p, err := r.Recognize(ctx, img)
		done <- result{p: p, err: err}
	}()

	// providers that ignore ctx are abandoned at the deadline
	select {
	case <-ctx.Done():
		return failed(name, fmt.Errorf("timed out after %s: %w", timeout, ctx.Err()))
	case res := <-done:
		if res.err != nil {
			return failed(name, res.err)
		}
		res.p.Source = name
		res.p.OK = true
		res.p.Error = ""
		return res.p
	}
}

func failed(source string, err error) Payload {
	return Payload{
		Source: source,
		OK:     false,
		Error:  err.Error(),
	}
}
