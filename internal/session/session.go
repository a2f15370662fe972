// Package session implements the per-connection pseudo-terminal bridge: one
// puzzle process bound to a pty pair, two relay loops between the pty master
// and the client's channel, and exactly-once teardown regardless of which
// side disappears first.
//
// A session owns its resources exclusively. The tty (slave) is closed right
// after the child inherits it; the master and the transport are each closed
// exactly once during teardown; the child is never respawned. Nothing here is
// shared across sessions.
package session

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle phase of a session.
type State int

const (
	StateActive State = iota
	StateClosing
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateTerminated:
		return "terminated"
	}
	return "unknown"
}

// Transport is the duplex terminal channel the gateway lends a session. The
// session reads client input from it, writes child output to it, learns about
// client disconnects from Done, forwards the child's exit status through
// Exit, and closes it exactly once during teardown.
type Transport interface {
	io.Reader
	io.Writer
	// Done is closed when the client connection is gone.
	Done() <-chan struct{}
	// Exit forwards the child's exit status to the client. Only useful
	// before Close.
	Exit(code int) error
	// Close shuts the channel down.
	Close() error
}

// closeReason records which event won the Active → Closing race.
type closeReason int

const (
	reasonChildExit closeReason = iota
	reasonClientGone
	reasonTransportEOF
	reasonPTYEOF
	reasonCancelled
)

// Config carries the per-session knobs fixed at construction time.
type Config struct {
	// BinaryPath is the puzzle executable. Required.
	BinaryPath string
	// Cols and Rows are the client-reported terminal size. Zero means the
	// client reported nothing usable and the default applies.
	Cols uint16
	Rows uint16
	// GraceTimeout bounds how long the child gets after SIGTERM before
	// SIGKILL. Zero means DefaultGraceTimeout.
	GraceTimeout time.Duration
}

// Session owns one client connection's backing process and terminal pair.
type Session struct {
	// ID correlates log lines for one session.
	ID string

	transport Transport
	cfg       Config

	mu     sync.Mutex
	state  State
	master *os.File // nil once teardown has taken it

	child *Child

	closing   sync.Once
	reason    closeReason
	triggered chan struct{}

	wg sync.WaitGroup
}

// New builds a session controller for one accepted channel. The binary path
// and dimensions are fixed here; Run does the rest.
func New(transport Transport, cfg Config) *Session {
	if cfg.GraceTimeout <= 0 {
		cfg.GraceTimeout = DefaultGraceTimeout
	}
	return &Session{
		ID:        uuid.New().String(),
		transport: transport,
		cfg:       cfg,
		triggered: make(chan struct{}),
	}
}

// State returns the session's current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Run drives the session to completion: allocate the terminal pair, spawn the
// child, relay bytes both ways, and tear everything down once after the first
// of {child exit, client disconnect, relay end, ctx cancelled}. It returns
// only after every goroutine it started has finished. Setup failures come
// back as *Error; I/O failures during an established session are expected
// connection churn and are absorbed.
func (s *Session) Run(ctx context.Context) error {
	master, tty, err := openPTY()
	if err != nil {
		s.transport.Close()
		s.setState(StateTerminated)
		return &Error{Kind: KindPTY, Op: "allocate", Err: err}
	}

	// Size the terminal before the child can look at it. Best effort: a
	// session with the wrong size is still usable.
	applySize(tty, clampDimensions(s.cfg.Cols, s.cfg.Rows))

	child, err := startChild(s.cfg.BinaryPath, tty)

	// The child holds its own copy of the tty; ours is done either way.
	tty.Close()

	if err != nil {
		master.Close()
		s.transport.Close()
		s.setState(StateTerminated)
		return &Error{Kind: KindChild, Op: "spawn", Err: err}
	}

	s.mu.Lock()
	s.master = master
	s.child = child
	s.state = StateActive
	s.mu.Unlock()

	// transport → pty master
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		relayToPTY(s.transport, master)
		s.trigger(reasonTransportEOF)
	}()

	// pty master → transport
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		relayFromPTY(master, s.transport)
		s.trigger(reasonPTYEOF)
	}()

	// child exit watcher
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		select {
		case <-child.Done():
			s.trigger(reasonChildExit)
		case <-s.triggered:
		}
	}()

	// client disconnect watcher
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		select {
		case <-s.transport.Done():
			s.trigger(reasonClientGone)
		case <-s.triggered:
		}
	}()

	select {
	case <-s.triggered:
	case <-ctx.Done():
		s.trigger(reasonCancelled)
	}

	s.teardown()
	s.wg.Wait()
	s.setState(StateTerminated)
	return nil
}

// trigger records why the session is closing. The first caller wins the
// single Active → Closing transition; later calls are valid no-ops.
func (s *Session) trigger(reason closeReason) {
	s.closing.Do(func() {
		s.reason = reason
		close(s.triggered)
	})
}

// teardown runs exactly once, after the Closing transition. Order matters:
// reap the child first so its exit status is known, forward the status while
// the channel may still be up, then drop both descriptors, which also
// unblocks any relay loop still parked in a read.
func (s *Session) teardown() {
	s.setState(StateClosing)

	// No-op when the child already exited; otherwise SIGTERM, grace wait,
	// SIGKILL. Either way the child has been reaped when this returns.
	s.child.Terminate(s.cfg.GraceTimeout)

	// A client that disconnected sees nothing; anyone still connected gets
	// the child's real exit status before the channel closes.
	if s.reason != reasonClientGone {
		s.transport.Exit(s.child.ExitCode())
	}

	s.mu.Lock()
	master := s.master
	s.master = nil
	s.mu.Unlock()
	if master != nil {
		master.Close()
	}
	s.transport.Close()
}

// Resize applies a new client-reported terminal size to the running session.
// It is a no-op once teardown has begun, and failures are ignored: resizing
// is cosmetic and never worth ending a session over.
func (s *Session) Resize(cols, rows uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive || s.master == nil {
		return
	}
	applySize(s.master, clampDimensions(cols, rows))
}
