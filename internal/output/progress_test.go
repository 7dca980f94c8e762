package output

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer is a bytes.Buffer safe for the spinner goroutine
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

func TestProgressIndicator(t *testing.T) {
	t.Run("renders message immediately", func(t *testing.T) {
		var buf syncBuffer
		printer := NewPrinterWithWriters(&buf, &buf, true)

		progress := printer.StartProgress("Waiting for run...")
		defer progress.Stop()

		if !strings.Contains(buf.String(), "Waiting for run...") {
			t.Errorf("expected output to contain progress message, got: %s", buf.String())
		}
	})

	t.Run("shows spinner animation", func(t *testing.T) {
		var buf syncBuffer
		printer := NewPrinterWithWriters(&buf, &buf, true)

		progress := printer.StartProgress("Loading...")
		time.Sleep(250 * time.Millisecond)
		progress.Stop()

		output := buf.String()
		frames := 0
		for _, char := range spinnerChars {
			if strings.Contains(output, char) {
				frames++
			}
		}
		if frames < 2 {
			t.Errorf("expected at least two spinner frames, got: %q", output)
		}
	})

	t.Run("shows latest status", func(t *testing.T) {
		var buf syncBuffer
		printer := NewPrinterWithWriters(&buf, &buf, false)

		progress := printer.StartProgress("Waiting for project p run r")
		progress.SetStatus("PENDING")
		progress.SetStatus("RUNNING")
		progress.Stop()

		output := buf.String()
		if !strings.Contains(output, "Waiting for project p run r (RUNNING) [") {
			t.Errorf("expected status in output, got: %q", output)
		}
	})

	t.Run("updates message", func(t *testing.T) {
		var buf syncBuffer
		printer := NewPrinterWithWriters(&buf, &buf, false)

		progress := printer.StartProgress("Triggering...")
		progress.UpdateMessage("Waiting...")
		progress.Stop()

		if !strings.Contains(buf.String(), "Waiting...") {
			t.Errorf("expected output to contain updated message, got: %q", buf.String())
		}
	})

	t.Run("stop clears the line and is idempotent", func(t *testing.T) {
		var buf syncBuffer
		printer := NewPrinterWithWriters(&buf, &buf, false)

		progress := printer.StartProgress("Working...")
		progress.Stop()
		progress.Stop()
		after := buf.String()

		if !strings.HasSuffix(after, "\r\033[K") {
			t.Errorf("expected output to end with a line clear, got: %q", after)
		}

		progress.SetStatus("COMPLETED")
		if buf.String() != after {
			t.Error("a stopped progress indicator should not render")
		}
	})
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Millisecond, "0.5s"},
		{0, "0.0s"},
		{5 * time.Second, "5s"},
		{90 * time.Second, "90s"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%s) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
