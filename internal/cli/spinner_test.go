package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/brickwall/pkg/brick"
)

// syncBuffer is a bytes.Buffer safe for the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinnerDrawsMessage(t *testing.T) {
	var out syncBuffer
	s := newSpinner(context.Background(), &out, "probing images")
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.Update("probing %d images", 7)
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	got := out.String()
	if !strings.Contains(got, "probing images") {
		t.Errorf("output %q missing initial message", got)
	}
	if !strings.Contains(got, "probing 7 images") {
		t.Errorf("output %q missing updated message", got)
	}
}

func TestSpinnerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var out syncBuffer
	s := newSpinner(ctx, &out, "waiting")
	s.Start()
	cancel()

	select {
	case <-s.stopped:
	case <-time.After(time.Second):
		t.Fatal("spinner did not stop after cancel")
	}
	s.Stop()
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	var out syncBuffer
	s := newSpinner(context.Background(), &out, "rendering")
	s.Start()
	s.Stop()
	s.Stop()
}

func TestRowProgress(t *testing.T) {
	var out syncBuffer
	s := newSpinner(context.Background(), &out, "Rendering")
	onRow := rowProgress(s, "Rendering")

	onRow(brick.Row{Start: 0, Sizes: []brick.Size{{Width: 3, Height: 2}, {Width: 2, Height: 3}}})
	onRow(brick.Row{Start: 2, Sizes: []brick.Size{{Width: 4, Height: 1}}})

	s.mu.Lock()
	got := s.message
	s.mu.Unlock()
	if want := "Rendering: 2 rows ready (3 images)"; got != want {
		t.Errorf("message = %q, want %q", got, want)
	}
}
