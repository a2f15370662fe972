package session

import (
	"os"
	"testing"

	"github.com/creack/pty"
)

func TestClampDimensions(t *testing.T) {
	cases := []struct {
		name       string
		cols, rows uint16
		want       Dimensions
	}{
		{"zero both falls back to default", 0, 0, Dimensions{120, 40}},
		{"zero cols falls back to default", 0, 24, Dimensions{120, 40}},
		{"zero rows falls back to default", 80, 0, Dimensions{120, 40}},
		{"tiny clamps to minimum", 5, 5, Dimensions{20, 10}},
		{"cols below minimum", 12, 50, Dimensions{20, 50}},
		{"rows below minimum", 200, 3, Dimensions{200, 10}},
		{"reasonable size passes through", 80, 24, Dimensions{80, 24}},
		{"exact minimum passes through", 20, 10, Dimensions{20, 10}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := clampDimensions(tc.cols, tc.rows)
			if got != tc.want {
				t.Fatalf("clampDimensions(%d, %d) = %+v, want %+v", tc.cols, tc.rows, got, tc.want)
			}
		})
	}
}

// newTestPTY allocates a real pty pair and cleans both halves up with the
// test. Tests that hand the tty to a child close it themselves, mirroring
// what the session controller does.
func newTestPTY(t *testing.T) (master, tty *os.File) {
	t.Helper()
	master, tty, err := openPTY()
	if err != nil {
		t.Fatalf("open pty: %v", err)
	}
	t.Cleanup(func() {
		master.Close()
		tty.Close()
	})
	return master, tty
}

func TestApplySizeClamped(t *testing.T) {
	master, _ := newTestPTY(t)

	if err := applySize(master, clampDimensions(5, 5)); err != nil {
		t.Fatalf("applySize: %v", err)
	}

	ws, err := pty.GetsizeFull(master)
	if err != nil {
		t.Fatalf("get size: %v", err)
	}
	if ws.Cols != 20 || ws.Rows != 10 {
		t.Fatalf("size after clamped resize = %dx%d, want 20x10", ws.Cols, ws.Rows)
	}
}

func TestApplySizeDefault(t *testing.T) {
	master, _ := newTestPTY(t)

	if err := applySize(master, clampDimensions(0, 0)); err != nil {
		t.Fatalf("applySize: %v", err)
	}

	ws, err := pty.GetsizeFull(master)
	if err != nil {
		t.Fatalf("get size: %v", err)
	}
	if ws.Cols != 120 || ws.Rows != 40 {
		t.Fatalf("size after default resize = %dx%d, want 120x40", ws.Cols, ws.Rows)
	}
}
