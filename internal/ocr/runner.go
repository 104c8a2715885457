package ocr

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// Command is one external program invocation.
type Command struct {
	Name string
	Args []string
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Output is what a finished command wrote.
type Output struct {
	Stdout   []byte
	Stderr   []byte
	Duration time.Duration
}

// Runner executes external commands; tests substitute a stub.
type Runner interface {
	Run(ctx context.Context, c Command) (Output, error)
}

// only the end of stderr is kept; tesseract prints the actual error last
const stderrTail = 8 << 10

type execRunner struct {
	logger *slog.Logger
}

func (r execRunner) Run(ctx context.Context, c Command) (Output, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	var stdout bytes.Buffer
	stderr := &tailBuffer{max: stderrTail}
	cmd.Stdout = &stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	out := Output{Stdout: stdout.Bytes(), Stderr: stderr.buf, Duration: time.Since(start)}
	if err != nil && ctx.Err() != nil {
		err = errors.Join(ctx.Err(), err)
	}

	if err != nil {
		r.logger.Error("ocr.exec.failed",
			"cmd", c.String(),
			"elapsed_ms", out.Duration.Milliseconds(),
			"error", err,
			"stderr", string(out.Stderr),
		)
	} else {
		r.logger.Debug("ocr.exec.ok",
			"cmd", c.Name,
			"elapsed_ms", out.Duration.Milliseconds(),
			"stdout_bytes", len(out.Stdout),
		)
	}
	return out, err
}

type tailBuffer struct {
	buf []byte
	max int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}
