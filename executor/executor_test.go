package executor

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestShellSuccess(t *testing.T) {
	ok, errMsg := Shell{}.Execute(context.Background(), "true", time.Second)
	if !ok {
		t.Fatalf("expected success, got errMsg=%q", errMsg)
	}
	if errMsg != "" {
		t.Fatalf("expected empty errMsg on success, got %q", errMsg)
	}
}

func TestShellNonZeroExit(t *testing.T) {
	ok, errMsg := Shell{}.Execute(context.Background(), "exit 7", time.Second)
	if ok {
		t.Fatal("expected failure")
	}
	if !strings.Contains(errMsg, "Exit code 7") {
		t.Fatalf("expected exit code in message, got %q", errMsg)
	}
}

func TestShellStderrCaptured(t *testing.T) {
	ok, errMsg := Shell{}.Execute(context.Background(), "echo boom 1>&2; exit 1", time.Second)
	if ok {
		t.Fatal("expected failure")
	}
	if !strings.Contains(errMsg, "boom") {
		t.Fatalf("expected stderr text in message, got %q", errMsg)
	}
}

func TestShellTimeout(t *testing.T) {
	ok, errMsg := Shell{}.Execute(context.Background(), "sleep 5", 50*time.Millisecond)
	if ok {
		t.Fatal("expected timeout failure")
	}
	if !strings.Contains(errMsg, "timeout") {
		t.Fatalf("expected timeout message, got %q", errMsg)
	}
}

func TestShellCommandNotFound(t *testing.T) {
	ok, errMsg := Shell{}.Execute(context.Background(), "this-binary-does-not-exist-xyz", time.Second)
	if ok {
		t.Fatal("expected failure for nonexistent binary")
	}
	if !strings.Contains(errMsg, "127") && !strings.Contains(errMsg, "not found") {
		t.Fatalf("expected shell 'not found' exit or message, got %q", errMsg)
	}
}
