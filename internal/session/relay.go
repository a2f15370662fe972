package session

import (
	"errors"
	"io"
	"os"
	"syscall"
)

// relayBufferSize bounds a single relay chunk in either direction.
const relayBufferSize = 8 * 1024

// relayToPTY copies client input from the transport into the pty master until
// the transport reaches end of stream or either side errors. Normal close and
// error are not distinguished here: both simply end the loop.
func relayToPTY(transport io.Reader, master io.Writer) {
	buf := make([]byte, relayBufferSize)
	for {
		n, err := transport.Read(buf)
		if n > 0 {
			if werr := writeAll(master, buf[:n]); werr != nil {
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// relayFromPTY copies child output from the pty master to the transport. EIO
// from the master read means every descriptor on the slave side is gone (the
// child's terminal closed) and is treated as a normal end of stream, as is a
// read against a master we already closed during teardown. Any other read
// error is returned. A transport write failure means the channel closed from
// the far side and ends the loop quietly.
func relayFromPTY(master io.Reader, transport io.Writer) error {
	buf := make([]byte, relayBufferSize)
	for {
		n, err := master.Read(buf)
		if n > 0 {
			if _, werr := transport.Write(buf[:n]); werr != nil {
				return nil
			}
		}
		if err != nil {
			if err == io.EOF || isSlaveClosed(err) || errors.Is(err, os.ErrClosed) {
				return nil
			}
			return err
		}
	}
}

// isSlaveClosed reports whether err is the EIO a pty master read returns once
// the slave side has closed.
func isSlaveClosed(err error) bool {
	return errors.Is(err, syscall.EIO)
}

// writeAll flushes p to w in full, retrying short writes. Terminal and socket
// writes may land partially under pressure.
func writeAll(w io.Writer, p []byte) error {
	for len(p) > 0 {
		n, err := w.Write(p)
		if err != nil {
			return err
		}
		if n <= 0 {
			return io.ErrShortWrite
		}
		p = p[n:]
	}
	return nil
}
