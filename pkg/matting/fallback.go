package matting

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Attempt records one failed construction.
type Attempt struct {
	Device Device
	Err    error
}

// InitError is returned when no construction attempt succeeded.
type InitError struct {
	Backend  string
	Attempts []Attempt
}

func (e *InitError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Device, a.Err))
	}
	return fmt.Sprintf("matting service %q init failed (%s)", e.Backend, strings.Join(parts, "; "))
}

// Unwrap returns the error of the last attempt.
func (e *InitError) Unwrap() error {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Attempts[len(e.Attempts)-1].Err
}

// OpenWithFallback constructs a Service on the requested device. If that fails and the
// requested device was accelerated, it logs a warning and makes exactly one more attempt
// on the fallback device. It returns the device actually in use.
// open defaults to Open and log may be nil.
func OpenWithFallback(ctx context.Context, opts Options, open Opener, log *slog.Logger) (Service, Device, error) {
	if open == nil {
		open = Open
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	opts = opts.withDefaults()

	svc, err := open(ctx, opts)
	if err == nil {
		return svc, opts.Device, nil
	}
	initErr := &InitError{Backend: opts.Backend, Attempts: []Attempt{{Device: opts.Device, Err: err}}}
	if opts.Device != DeviceAccelerated || ctx.Err() != nil {
		return nil, "", initErr
	}

	log.Warn("accelerated matting unavailable, switching to fallback device (slower)",
		"backend", opts.Backend, "error", err)

	fallback := opts
	fallback.Device = DeviceFallback
	svc, err = open(ctx, fallback)
	if err != nil {
		initErr.Attempts = append(initErr.Attempts, Attempt{Device: DeviceFallback, Err: err})
		return nil, "", initErr
	}
	return svc, DeviceFallback, nil
}
