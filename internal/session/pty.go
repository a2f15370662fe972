package session

import (
	"os"

	"github.com/creack/pty"
)

// Terminal dimension bounds. Clients may report arbitrary sizes; anything
// below the minimum renders the puzzle unreadable, so requests are floored.
const (
	MinCols uint16 = 20
	MinRows uint16 = 10

	// Defaults used when the client reports no usable size at all.
	DefaultCols uint16 = 120
	DefaultRows uint16 = 40
)

// Dimensions is a terminal size in character cells.
type Dimensions struct {
	Cols uint16
	Rows uint16
}

// clampDimensions normalizes a client-reported terminal size. Zero on either
// axis means the client did not report a size, so the default applies;
// otherwise each axis is floored to the minimum.
func clampDimensions(cols, rows uint16) Dimensions {
	if cols == 0 || rows == 0 {
		return Dimensions{Cols: DefaultCols, Rows: DefaultRows}
	}
	if cols < MinCols {
		cols = MinCols
	}
	if rows < MinRows {
		rows = MinRows
	}
	return Dimensions{Cols: cols, Rows: rows}
}

// openPTY allocates a connected master/slave terminal pair. Bytes written to
// the master appear as terminal input on the slave side and vice versa.
func openPTY() (master, tty *os.File, err error) {
	return pty.Open()
}

// applySize sets the terminal size behind f. The TIOCSWINSZ ioctl also
// delivers SIGWINCH to the foreground process group attached to the slave.
func applySize(f *os.File, dims Dimensions) error {
	return pty.Setsize(f, &pty.Winsize{Cols: dims.Cols, Rows: dims.Rows})
}
