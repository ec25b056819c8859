package rsync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Options configure a transfer invocation.
type Options struct {
	// RemoveSource deletes the source file after a successful transfer.
	RemoveSource bool
	// Preallocate asks rsync to preallocate destination space up front.
	Preallocate bool
	// WholeFile disables rsync's delta-diff algorithm.
	WholeFile bool
	// BandwidthLimit caps transfer rate in KiB/s. Zero means unlimited.
	BandwidthLimit int
	// IOPriority selects an ionice scheduling class (idle, best-effort,
	// realtime). Empty runs rsync without ionice.
	IOPriority string
}

// Result captures the outcome of a single rsync invocation. A non-zero
// ExitCode is a transfer failure, not a Go error; errors are reserved for
// invocations that could not run at all.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Succeeded reports whether rsync exited zero.
func (r Result) Succeeded() bool {
	return r.ExitCode == 0
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) (exitCode int, stdout, stderr string, err error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client invokes rsync.
type Client struct {
	binary        string
	preflightFile string
	exec          Executor
}

// New constructs an rsync client. preflightFile is the small known-good
// file transferred by Preflight to prove a destination is reachable.
func New(binary, preflightFile string) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("rsync binary required")
	}
	if strings.TrimSpace(preflightFile) == "" {
		return nil, errors.New("preflight reference file required")
	}
	return &Client{binary: binary, preflightFile: preflightFile, exec: commandExecutor{}}, nil
}

// NewWithOptions constructs a client and applies options.
func NewWithOptions(binary, preflightFile string, opts ...Option) (*Client, error) {
	client, err := New(binary, preflightFile)
	if err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Transfer moves source to destination with the given options and reports
// exit status, captured output, and elapsed time.
func (c *Client) Transfer(ctx context.Context, source, destination string, opts Options) (Result, error) {
	if strings.TrimSpace(source) == "" {
		return Result{}, errors.New("source path required")
	}
	if strings.TrimSpace(destination) == "" {
		return Result{}, errors.New("destination required")
	}

	binary, args := c.command(source, destination, opts)

	started := time.Now()
	exitCode, stdout, stderr, err := c.exec.Run(ctx, binary, args)
	elapsed := time.Since(started)
	if err != nil {
		return Result{}, fmt.Errorf("run rsync: %w", err)
	}
	return Result{ExitCode: exitCode, Stdout: stdout, Stderr: stderr, Duration: elapsed}, nil
}

// Preflight copies the reference file to the destination to prove basic
// connectivity before committing to a large transfer. The reference copy is
// never removed from its source.
func (c *Client) Preflight(ctx context.Context, destination string) (Result, error) {
	return c.Transfer(ctx, c.preflightFile, destination, Options{WholeFile: true})
}

func (c *Client) command(source, destination string, opts Options) (string, []string) {
	args := make([]string, 0, 8)

	binary := c.binary
	if class, ok := ioniceClass(opts.IOPriority); ok {
		args = append(args, "-c", class, c.binary)
		binary = "ionice"
	}

	if opts.RemoveSource {
		args = append(args, "--remove-source-files")
	}
	if opts.Preallocate {
		args = append(args, "--preallocate")
	}
	if opts.WholeFile {
		args = append(args, "--whole-file")
	}
	if opts.BandwidthLimit > 0 {
		args = append(args, "--bwlimit="+strconv.Itoa(opts.BandwidthLimit))
	}
	args = append(args, source, destination)
	return binary, args
}

func ioniceClass(priority string) (string, bool) {
	switch strings.TrimSpace(priority) {
	case "realtime":
		return "1", true
	case "best-effort":
		return "2", true
	case "idle":
		return "3", true
	default:
		return "", false
	}
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) (int, string, string, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), stdout.String(), stderr.String(), nil
		}
		return -1, stdout.String(), stderr.String(), err
	}
	return 0, stdout.String(), stderr.String(), nil
}
