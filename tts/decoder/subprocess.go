// Package decoder provides frame decoder implementations bridging the
// synthesis pipeline to an external neural vocoder.
package decoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Subprocess decodes token windows by invoking a vocoder helper binary once
// per window. The window's token IDs are written space-separated on stdin
// and the accepted-token count is appended as the final argument; the
// helper answers with raw PCM samples on stdout. Empty output means the
// window does not decode to audio yet.
type Subprocess struct {
	binary  string
	args    []string
	timeout time.Duration

	// mu serializes invocations; the vocoder holds model state and
	// does not support concurrent calls.
	mu sync.Mutex
}

// SubprocessConfig holds settings for the vocoder helper.
type SubprocessConfig struct {
	// Binary is the helper executable. Required.
	Binary string

	// Args are passed before the per-call count argument.
	Args []string

	// Timeout bounds one decode call. Defaults to 30s.
	Timeout time.Duration
}

// NewSubprocess creates a subprocess-backed frame decoder.
func NewSubprocess(cfg SubprocessConfig) (*Subprocess, error) {
	if cfg.Binary == "" {
		return nil, errors.New("decoder binary not set")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Subprocess{
		binary:  cfg.Binary,
		args:    cfg.Args,
		timeout: cfg.Timeout,
	}, nil
}

// Decode runs the helper for one window. Stdin is attached before the
// process starts to avoid a write race.
func (d *Subprocess) Decode(ctx context.Context, window []int, count int) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	fields := make([]string, len(window))
	for i, id := range window {
		fields[i] = strconv.Itoa(id)
	}
	input := strings.Join(fields, " ") + "\n"

	args := append(append([]string{}, d.args...), strconv.Itoa(count))
	cmd := exec.CommandContext(ctx, d.binary, args...)
	cmd.Stdin = strings.NewReader(input)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("decoder timed out after %v", d.timeout)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("decoder failed: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("decoder failed: %w", err)
	}
	return stdout.Bytes(), nil
}
