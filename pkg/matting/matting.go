// Package matting is the boundary to the background-removal model.
//
// The model itself is external. A Service is constructed once per run with a quality
// mode and a device preference, then called synchronously for one image at a time:
// opaque RGB in, RGBA with a transparent background out. Three backends are provided:
//
//   - http: a matting sidecar server (GET /health, POST /remove)
//   - exec: a local command reading PNG on stdin and writing PNG on stdout
//   - opaque: no model, returns the input with a solid alpha channel
//
// OpenWithFallback implements the device downgrade policy: an accelerated backend that
// fails to construct is retried once on the fallback device.
package matting

import (
	"context"
	"fmt"
	"image"
	"strings"
	"time"
)

// Device is the requested execution mode of the model.
type Device string

const (
	DeviceAccelerated Device = "accelerated"
	DeviceFallback    Device = "fallback"
)

// ParseDevice parses "accelerated" or "fallback" (case-insensitive).
func ParseDevice(s string) (Device, error) {
	switch Device(strings.ToLower(strings.TrimSpace(s))) {
	case DeviceAccelerated:
		return DeviceAccelerated, nil
	case DeviceFallback:
		return DeviceFallback, nil
	default:
		return "", fmt.Errorf("unknown device mode %q (use %q or %q)", s, DeviceAccelerated, DeviceFallback)
	}
}

// Backend names accepted by Open.
const (
	BackendHTTP   = "http"
	BackendExec   = "exec"
	BackendOpaque = "opaque"
)

// Backends lists the supported backend names.
func Backends() []string {
	return []string{BackendHTTP, BackendExec, BackendOpaque}
}

const (
	// DefaultMode is the high-accuracy model mode.
	DefaultMode = "base"
	// OutputRGBA is the output-format tag requesting an RGBA result.
	OutputRGBA = "rgba"
)

// Service removes the background from one image at a time.
//
// Process must not retain img. An error for one image must leave the service usable for
// the next call.
type Service interface {
	Process(ctx context.Context, img *image.RGBA) (*image.NRGBA, error)
	Close() error
}

// HTTPOptions configures the http backend.
type HTTPOptions struct {
	URL string
}

// ExecOptions configures the exec backend. Args may contain {mode} and {device}
// placeholders, expanded to the quality mode and device name. Commands with their own
// model vocabulary, such as rembg, should name the model literally.
type ExecOptions struct {
	Command          string
	Args             []string
	AcceleratedProbe []string
	AcceleratedEnv   []string
	FallbackEnv      []string
}

// Options holds construction parameters for a Service.
type Options struct {
	Backend string
	Mode    string
	Device  Device
	Output  string
	// RequestTimeout bounds a single Process call; 0 means no backend-level limit.
	RequestTimeout time.Duration

	HTTP HTTPOptions
	Exec ExecOptions
}

func (o Options) withDefaults() Options {
	if o.Mode == "" {
		o.Mode = DefaultMode
	}
	if o.Device == "" {
		o.Device = DeviceAccelerated
	}
	if o.Output == "" {
		o.Output = OutputRGBA
	}
	return o
}

// Opener constructs a Service. Open is the default; tests substitute their own.
type Opener func(ctx context.Context, opts Options) (Service, error)

// Open constructs the backend named in opts.Backend for opts.Device.
func Open(ctx context.Context, opts Options) (Service, error) {
	opts = opts.withDefaults()
	switch strings.ToLower(opts.Backend) {
	case BackendHTTP:
		return NewHTTPService(ctx, opts)
	case BackendExec:
		return NewExecService(ctx, opts)
	case BackendOpaque:
		return NewOpaqueService(), nil
	default:
		return nil, fmt.Errorf("unknown matting backend %q (use %s)", opts.Backend, strings.Join(Backends(), ", "))
	}
}
