package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeScript drops an executable shell script into a temp dir and returns
// its path. The gateway runs a single binary with no arguments, so tests do
// the same.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "puzzle.sh")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

// startTestChild spawns a script on a fresh pty and closes the tty right
// after, the way the controller does.
func startTestChild(t *testing.T, body string) *Child {
	t.Helper()
	_, tty := newTestPTY(t)
	child, err := startChild(writeScript(t, body), tty)
	if err != nil {
		t.Fatalf("start child: %v", err)
	}
	tty.Close()
	return child
}

func TestChildExitCode(t *testing.T) {
	child := startTestChild(t, "exit 7")
	if code := child.Wait(); code != 7 {
		t.Fatalf("exit code = %d, want 7", code)
	}
	if !child.Exited() {
		t.Fatal("Exited() = false after Wait")
	}
}

func TestChildExitCodeZero(t *testing.T) {
	child := startTestChild(t, "exit 0")
	if code := child.Wait(); code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
}

func TestTerminateGraceful(t *testing.T) {
	child := startTestChild(t, "sleep 30")

	start := time.Now()
	child.Terminate(3 * time.Second)
	elapsed := time.Since(start)

	if !child.Exited() {
		t.Fatal("child still running after Terminate")
	}
	// sleep dies on SIGTERM well inside the grace window.
	if elapsed > 2*time.Second {
		t.Fatalf("graceful terminate took %v, child should have died on SIGTERM", elapsed)
	}
	if code := child.ExitCode(); code != 128+15 {
		t.Fatalf("exit code = %d, want %d (SIGTERM)", code, 128+15)
	}
}

func TestTerminateForcesStubbornChild(t *testing.T) {
	child := startTestChild(t, "trap '' TERM\nwhile :; do sleep 1; done")

	start := time.Now()
	child.Terminate(300 * time.Millisecond)
	elapsed := time.Since(start)

	if !child.Exited() {
		t.Fatal("child still running after forced terminate")
	}
	if elapsed < 300*time.Millisecond {
		t.Fatalf("terminate returned after %v, before the grace window elapsed", elapsed)
	}
	if code := child.ExitCode(); code != 128+9 {
		t.Fatalf("exit code = %d, want %d (SIGKILL)", code, 128+9)
	}
}

func TestTerminateIdempotent(t *testing.T) {
	child := startTestChild(t, "exit 0")
	child.Wait()

	// Both calls must return immediately without signaling anything.
	done := make(chan struct{})
	go func() {
		child.Terminate(3 * time.Second)
		child.Terminate(3 * time.Second)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Terminate on an exited child did not return promptly")
	}
	if code := child.ExitCode(); code != 0 {
		t.Fatalf("exit code changed to %d after redundant Terminate", code)
	}
}

func TestTerminateConcurrent(t *testing.T) {
	child := startTestChild(t, "sleep 30")

	done := make(chan struct{}, 2)
	for i := 0; i < 2; i++ {
		go func() {
			child.Terminate(3 * time.Second)
			done <- struct{}{}
		}()
	}

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("concurrent Terminate did not return")
		}
	}
	if !child.Exited() {
		t.Fatal("child still running")
	}
}

func TestStartChildMissingBinary(t *testing.T) {
	_, tty := newTestPTY(t)
	if _, err := startChild(filepath.Join(t.TempDir(), "no-such-binary"), tty); err == nil {
		t.Fatal("expected error for missing binary")
	}
}
