package cliexec

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"time"

	"mpm/pkg/logger"
)

// Result is what LaunchOneshot returns: the full stdout/stderr captured and
// the process exit code. A timeout yields whatever was captured before the
// kill, with ExitCode -1.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// LaunchOptions configures Launch beyond BuildArgv's Options.
type LaunchOptions struct {
	Options
	Input    string
	UseStdin bool
	Env      map[string]string
	Dir      string
	Stdout   io.Writer
	Stderr   io.Writer
}

// Launch starts the CLI under the given mode and returns the running
// *exec.Cmd; when the input is sent via stdin it is attached to the
// command's Stdin before start. The caller owns waiting on the command.
func (l *Launcher) Launch(ctx context.Context, mode Mode, opts LaunchOptions) (*exec.Cmd, error) {
	argv := l.BuildArgv(mode, opts.Options)

	sendViaStdin := opts.UseStdin
	if mode == ModePrint && opts.Input != "" && !sendViaStdin {
		argv = append(argv, opts.Input)
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = opts.Dir
	cmd.Env = buildEnv(opts.Env)

	cmd.Stdout = opts.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = opts.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	if sendViaStdin && opts.Input != "" {
		cmd.Stdin = bytesReader(opts.Input)
	}

	logger.Infof("launching claude CLI in %s mode", mode)

	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return cmd, nil
}

func buildEnv(overrides map[string]string) []string {
	env := os.Environ()
	for k, v := range overrides {
		env = append(env, k+"="+v)
	}
	return env
}

func bytesReader(s string) io.Reader {
	return bytes.NewReader([]byte(s))
}

// LaunchOneshot runs the CLI in print mode, blocks for the response, and
// returns it. On timeout the child is killed and whatever was captured is
// returned with ExitCode -1, per §4.1.
func (l *Launcher) LaunchOneshot(message string, opts Options, useStdin bool, timeout time.Duration) (Result, error) {
	ctx := context.Background()
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	argv := l.BuildArgv(ModePrint, opts)
	if !useStdin && message != "" {
		argv = append(argv, message)
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if useStdin && message != "" {
		cmd.Stdin = bytesReader(message)
	}

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return Result{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: -1}, nil
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return Result{}, err
		}
	}

	return Result{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: exitCode}, nil
}
