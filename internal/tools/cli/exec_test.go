package cli

import (
	"context"
	"strings"
	"testing"
	"time"

	"noesis/internal/config"
)

func newTestExecutor(t *testing.T) *ExecutorImpl {
	t.Helper()
	return NewExecutor(config.SandboxConfig{
		BlockBinaries:     []string{"rm"},
		MaxCommandSeconds: 5,
	}, t.TempDir())
}

func TestRun_CapturesStdoutAndExitCode(t *testing.T) {
	e := newTestExecutor(t)
	res, err := e.Run(context.Background(), ExecRequest{Command: "echo", Args: []string{"hello"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.OK || res.ExitCode != 0 {
		t.Fatalf("expected OK exit, got %+v", res)
	}
	if strings.TrimSpace(res.Stdout) != "hello" {
		t.Fatalf("Stdout = %q, want %q", res.Stdout, "hello")
	}
}

func TestRun_NonZeroExitIsNotAnError(t *testing.T) {
	e := newTestExecutor(t)
	res, err := e.Run(context.Background(), ExecRequest{Command: "false"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.OK {
		t.Fatalf("expected OK=false for a failing command")
	}
	if res.ExitCode == 0 {
		t.Fatalf("expected non-zero exit code")
	}
}

func TestRun_BlockedBinaryRejected(t *testing.T) {
	e := newTestExecutor(t)
	_, err := e.Run(context.Background(), ExecRequest{Command: "rm", Args: []string{"-rf", "/"}})
	if err == nil {
		t.Fatalf("expected blocked binary to be rejected")
	}
}

func TestRun_EmptyCommandRejected(t *testing.T) {
	e := newTestExecutor(t)
	_, err := e.Run(context.Background(), ExecRequest{})
	if err == nil {
		t.Fatalf("expected empty command to be rejected")
	}
}

func TestRun_TimeoutKillsLongRunningCommand(t *testing.T) {
	e := newTestExecutor(t)
	res, err := e.Run(context.Background(), ExecRequest{
		Command: "sleep",
		Args:    []string{"30"},
		Timeout: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.OK {
		t.Fatalf("expected timeout to surface as a failed run")
	}
	if res.ExitCode != 124 {
		t.Fatalf("ExitCode = %d, want 124 (timeout)", res.ExitCode)
	}
}

func TestRun_TruncatesOversizedOutput(t *testing.T) {
	e := newTestExecutor(t)
	e.outLimit = 4
	res, err := e.Run(context.Background(), ExecRequest{Command: "echo", Args: []string{"hello world"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Truncated {
		t.Fatalf("expected output to be marked truncated")
	}
	if !strings.HasSuffix(res.Stdout, "[TRUNCATED]") {
		t.Fatalf("Stdout = %q, expected truncation marker", res.Stdout)
	}
}

func TestTool_NameIsRunCli(t *testing.T) {
	tool := NewTool(newTestExecutor(t))
	if tool.Name() != "run_cli" {
		t.Fatalf("Name() = %q, want run_cli", tool.Name())
	}
}
