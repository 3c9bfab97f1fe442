package matting

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"strings"
	"time"
)

const stderrTailLines = 5

// ExecService runs a local matting command per image. The command reads a PNG on stdin
// and writes the RGBA result to stdout.
type ExecService struct {
	path    string
	args    []string
	env     []string
	timeout time.Duration
}

// NewExecService resolves the command and, for the accelerated device, runs the
// accelerated probe. A failing probe means acceleration is unavailable.
func NewExecService(ctx context.Context, opts Options) (*ExecService, error) {
	opts = opts.withDefaults()
	command := strings.TrimSpace(opts.Exec.Command)
	if command == "" {
		return nil, fmt.Errorf("exec backend: command is required")
	}
	path, err := exec.LookPath(command)
	if err != nil {
		return nil, fmt.Errorf("exec backend: %w", err)
	}

	env := os.Environ()
	switch opts.Device {
	case DeviceAccelerated:
		if probe := opts.Exec.AcceleratedProbe; len(probe) > 0 {
			if err := runProbe(ctx, probe); err != nil {
				return nil, err
			}
		}
		env = append(env, opts.Exec.AcceleratedEnv...)
	case DeviceFallback:
		env = append(env, opts.Exec.FallbackEnv...)
	}

	return &ExecService{
		path:    path,
		args:    expandArgs(opts.Exec.Args, opts.Mode, opts.Device),
		env:     env,
		timeout: opts.RequestTimeout,
	}, nil
}

func runProbe(ctx context.Context, probe []string) error {
	cmd := exec.CommandContext(ctx, probe[0], probe[1:]...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("accelerated probe %q: %w%s", strings.Join(probe, " "), err, stderrTail(stderr.String()))
	}
	return nil
}

func expandArgs(args []string, mode string, device Device) []string {
	r := strings.NewReplacer("{mode}", mode, "{device}", string(device))
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = r.Replace(a)
	}
	return out
}

// Process pipes img through the command.
func (s *ExecService) Process(ctx context.Context, img *image.RGBA) (*image.NRGBA, error) {
	data, err := encodeInput(img)
	if err != nil {
		return nil, err
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, s.path, s.args...)
	cmd.Env = s.env
	cmd.Stdin = bytes.NewReader(data)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s: %w", s.path, ctx.Err())
		}
		return nil, fmt.Errorf("%s: %w%s", s.path, err, stderrTail(stderr.String()))
	}
	return decodeResult(stdout.Bytes(), img.Bounds())
}

// Close is a no-op; each call runs its own process.
func (s *ExecService) Close() error { return nil }

func stderrTail(stderr string) string {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return ""
	}
	lines := strings.Split(stderr, "\n")
	if len(lines) > stderrTailLines {
		lines = lines[len(lines)-stderrTailLines:]
	}
	return ": " + strings.Join(lines, " | ")
}
