package session

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// DefaultGraceTimeout is how long a child gets to exit after SIGTERM before
// it is killed.
const DefaultGraceTimeout = 3 * time.Second

// Child is the one backing process of a session. It is spawned exactly once
// and never restarted.
type Child struct {
	cmd  *exec.Cmd
	done chan struct{}

	mu       sync.Mutex
	exitCode int
}

// startChild launches the puzzle binary with stdin, stdout and stderr all
// bound to the slave side of the session's terminal. The child runs in its
// own session with the tty as its controlling terminal, so signals aimed at
// the gateway process do not reach it implicitly.
func startChild(path string, tty *os.File) (*Child, error) {
	cmd := exec.Command(path)
	cmd.Stdin = tty
	cmd.Stdout = tty
	cmd.Stderr = tty
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid:  true,
		Setctty: true, // fd 0 in the child is the tty
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", path, err)
	}

	c := &Child{cmd: cmd, done: make(chan struct{})}
	go c.reap()
	return c, nil
}

// reap waits for the process and records its exit status before closing done.
func (c *Child) reap() {
	err := c.cmd.Wait()

	code := 0
	if state := c.cmd.ProcessState; state != nil {
		code = state.ExitCode()
		if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			// Shell convention for signal deaths.
			code = 128 + int(ws.Signal())
		}
	} else if err != nil {
		code = 1
	}

	c.mu.Lock()
	c.exitCode = code
	c.mu.Unlock()
	close(c.done)
}

// Done is closed once the child has exited and been reaped.
func (c *Child) Done() <-chan struct{} { return c.done }

// Exited reports whether the child has already exited.
func (c *Child) Exited() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// ExitCode returns the child's exit status. Only meaningful after Done.
func (c *Child) ExitCode() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exitCode
}

// Wait blocks until the child exits and returns its exit code.
func (c *Child) Wait() int {
	<-c.done
	return c.ExitCode()
}

// Terminate asks the child to exit with SIGTERM and escalates to SIGKILL if
// it is still running after grace. It returns only once the child has
// actually exited. Calling it on an exited child is a no-op, and concurrent
// calls are safe.
func (c *Child) Terminate(grace time.Duration) {
	if c.Exited() {
		return
	}
	if grace <= 0 {
		grace = DefaultGraceTimeout
	}

	// The process may exit between the check above and the signal; a
	// delivery error against a gone process is harmless.
	c.cmd.Process.Signal(syscall.SIGTERM)

	select {
	case <-c.done:
	case <-time.After(grace):
		c.cmd.Process.Kill()
		<-c.done
	}
}
