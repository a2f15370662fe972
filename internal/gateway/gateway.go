// Package gateway accepts SSH connections and gives each one a session
// controller. The gateway is deliberately credentialless: the puzzle binary
// is the point, not the transport, so the server accepts the SSH "none"
// authentication and every connection gets a session unconditionally.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/net/netutil"

	"github.com/Boa-Ai/BoaAI-Puzzle/internal/logutil"
	"github.com/Boa-Ai/BoaAI-Puzzle/internal/session"
)

// Config holds the gateway's immutable wiring.
type Config struct {
	// Addr is the host:port to listen on.
	Addr string
	// Backlog caps concurrently serviced connections. Zero means no cap.
	Backlog int
	// HostKey is the server's identity.
	HostKey ssh.Signer
	// BinaryPath is the puzzle executable every session runs.
	BinaryPath string
	// GraceTimeout is passed through to each session's child supervisor.
	// Zero means the session default.
	GraceTimeout time.Duration
}

// Gateway is the listener: it turns accepted SSH session channels into
// session controllers, one per connection, with no state shared between them.
type Gateway struct {
	cfg       Config
	sshConfig *ssh.ServerConfig

	mu sync.Mutex
	ln net.Listener
}

// New prepares a gateway. The SSH server side runs with client authentication
// disabled; that is the whole point of the deployment and a policy decision
// made outside this package.
func New(cfg Config) *Gateway {
	sshConfig := &ssh.ServerConfig{
		NoClientAuth:  true,
		ServerVersion: "SSH-2.0-BoaAI-Puzzle",
	}
	sshConfig.AddHostKey(cfg.HostKey)
	return &Gateway{cfg: cfg, sshConfig: sshConfig}
}

// ListenAndServe binds the configured address and serves until Shutdown
// closes the listener or the accept loop fails.
func (g *Gateway) ListenAndServe() error {
	ln, err := net.Listen("tcp", g.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", g.cfg.Addr, err)
	}
	return g.Serve(ln)
}

// Serve accepts connections on ln, one handler goroutine per connection.
// The configured backlog is enforced as a cap on concurrently serviced
// connections.
func (g *Gateway) Serve(ln net.Listener) error {
	if g.cfg.Backlog > 0 {
		ln = netutil.LimitListener(ln, g.cfg.Backlog)
	}

	g.mu.Lock()
	g.ln = ln
	g.mu.Unlock()

	log.Printf("gateway: listening on %s (auth disabled, binary %s)", ln.Addr(), g.cfg.BinaryPath)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		go g.handleConn(conn)
	}
}

// Addr returns the bound listener address, or nil before Serve.
func (g *Gateway) Addr() net.Addr {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ln == nil {
		return nil
	}
	return g.ln.Addr()
}

// Shutdown stops accepting new connections. Sessions already in flight run to
// their own completion.
func (g *Gateway) Shutdown() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ln == nil {
		return nil
	}
	return g.ln.Close()
}

// handleConn performs the SSH handshake and services the connection's channel
// stream. Nothing that goes wrong here may affect other connections, so every
// exit path just drops this connection.
func (g *Gateway) handleConn(netConn net.Conn) {
	defer netConn.Close()

	sshConn, chans, reqs, err := ssh.NewServerConn(netConn, g.sshConfig)
	if err != nil {
		// Scanners and protocol probes land here constantly on an open
		// port; not worth operator attention.
		return
	}
	defer sshConn.Close()

	go ssh.DiscardRequests(reqs)

	// Connection-level teardown signal for each session's disconnect
	// watcher.
	disconnected := make(chan struct{})
	go func() {
		sshConn.Wait()
		close(disconnected)
	}()

	log.Printf("gateway: connection from %s (%s)", sshConn.RemoteAddr(),
		logutil.SanitizeForLog(string(sshConn.ClientVersion())))

	accepted := false
	for newChan := range chans {
		if newChan.ChannelType() != "session" {
			newChan.Reject(ssh.UnknownChannelType, "only session channels are supported")
			continue
		}
		// One controller per connection.
		if accepted {
			newChan.Reject(ssh.Prohibited, "one session per connection")
			continue
		}
		accepted = true

		ch, requests, err := newChan.Accept()
		if err != nil {
			continue
		}
		go g.handleSession(ch, requests, disconnected, sshConn.RemoteAddr())
	}
}

// ptyRequest is the RFC 4254 pty-req payload.
type ptyRequest struct {
	Term     string
	Cols     uint32
	Rows     uint32
	WidthPx  uint32
	HeightPx uint32
	Modes    string
}

// windowChange is the RFC 4254 window-change payload.
type windowChange struct {
	Cols     uint32
	Rows     uint32
	WidthPx  uint32
	HeightPx uint32
}

// handleSession services the request stream of one session channel: pty-req
// records the requested dimensions, shell/exec starts the controller, and
// window-change is forwarded to the running session. The request stream ends
// when the channel closes, which the session's own teardown takes care of.
func (g *Gateway) handleSession(ch ssh.Channel, requests <-chan *ssh.Request, disconnected <-chan struct{}, remote net.Addr) {
	transport := newChannelTransport(ch, disconnected)

	var (
		cols, rows uint16
		ctrl       *session.Session
	)

	for req := range requests {
		switch req.Type {
		case "pty-req":
			var p ptyRequest
			if err := ssh.Unmarshal(req.Payload, &p); err == nil {
				cols, rows = uint16(p.Cols), uint16(p.Rows)
			}
			if req.WantReply {
				req.Reply(true, nil)
			}

		case "shell", "exec":
			// The backing binary is fixed; an exec command line is
			// accepted and ignored.
			if ctrl != nil {
				if req.WantReply {
					req.Reply(false, nil)
				}
				continue
			}
			ctrl = session.New(transport, session.Config{
				BinaryPath:   g.cfg.BinaryPath,
				Cols:         cols,
				Rows:         rows,
				GraceTimeout: g.cfg.GraceTimeout,
			})
			if req.WantReply {
				req.Reply(true, nil)
			}
			go func(c *session.Session) {
				log.Printf("gateway: session %s started for %s", c.ID, remote)
				if err := c.Run(context.Background()); err != nil {
					log.Printf("gateway: session %s setup failed: %v", c.ID, err)
					return
				}
				log.Printf("gateway: session %s ended", c.ID)
			}(ctrl)

		case "window-change":
			var wc windowChange
			if err := ssh.Unmarshal(req.Payload, &wc); err == nil && ctrl != nil {
				ctrl.Resize(uint16(wc.Cols), uint16(wc.Rows))
			}
			if req.WantReply {
				req.Reply(true, nil)
			}

		default:
			if req.WantReply {
				req.Reply(false, nil)
			}
		}
	}

	// The client tore the channel down without ever starting a shell.
	if ctrl == nil {
		transport.Close()
	}
}
