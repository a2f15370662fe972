package gateway

import (
	"sync"

	"golang.org/x/crypto/ssh"
)

// exitStatusMsg is the RFC 4254 exit-status request payload.
type exitStatusMsg struct {
	Status uint32
}

// channelTransport adapts an ssh.Channel to the session.Transport contract.
// Disconnect is a connection-level event (the ssh.ServerConn dying), not a
// channel-level one, so the signal is injected by the connection handler.
type channelTransport struct {
	ch           ssh.Channel
	disconnected <-chan struct{}

	closeOnce sync.Once
	closeErr  error
}

func newChannelTransport(ch ssh.Channel, disconnected <-chan struct{}) *channelTransport {
	return &channelTransport{ch: ch, disconnected: disconnected}
}

func (t *channelTransport) Read(p []byte) (int, error)  { return t.ch.Read(p) }
func (t *channelTransport) Write(p []byte) (int, error) { return t.ch.Write(p) }

// Done is closed when the underlying SSH connection is gone.
func (t *channelTransport) Done() <-chan struct{} { return t.disconnected }

// Exit forwards the child's exit status. Must precede Close to reach the
// client.
func (t *channelTransport) Exit(code int) error {
	payload := ssh.Marshal(exitStatusMsg{Status: uint32(code)})
	_, err := t.ch.SendRequest("exit-status", false, payload)
	return err
}

func (t *channelTransport) Close() error {
	t.closeOnce.Do(func() {
		t.closeErr = t.ch.Close()
	})
	return t.closeErr
}
