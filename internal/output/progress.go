package output

import (
	"fmt"
	"sync"
	"time"
)

// Progress is a spinner shown while waiting for a run
type Progress struct {
	printer      *Printer
	message      string
	status       string
	startTime    time.Time
	done         chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
	mu           sync.Mutex
	spinnerIndex int
}

var spinnerChars = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// StartProgress creates and starts a new progress indicator
func (p *Printer) StartProgress(message string) *Progress {
	progress := &Progress{
		printer:   p,
		message:   message,
		startTime: time.Now(),
		done:      make(chan struct{}),
	}

	progress.render()
	progress.wg.Add(1)
	go progress.animate()

	return progress
}

// UpdateMessage replaces the progress message
func (p *Progress) UpdateMessage(message string) {
	p.mu.Lock()
	p.message = message
	p.mu.Unlock()
	p.render()
}

// SetStatus shows the last observed run status next to the message
func (p *Progress) SetStatus(status string) {
	p.mu.Lock()
	p.status = status
	p.mu.Unlock()
	p.render()
}

// Stop stops the progress indicator and clears the line. It is safe to call
// more than once.
func (p *Progress) Stop() {
	p.stopOnce.Do(func() {
		close(p.done)
		p.wg.Wait()
		p.printer.write(p.printer.out, "\r\033[K")
	})
}

func (p *Progress) animate() {
	defer p.wg.Done()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			p.mu.Lock()
			p.spinnerIndex++
			p.mu.Unlock()
			p.render()
		}
	}
}

func (p *Progress) render() {
	select {
	case <-p.done:
		return
	default:
	}

	p.mu.Lock()
	message := p.message
	status := p.status
	spinner := spinnerChars[p.spinnerIndex%len(spinnerChars)]
	p.mu.Unlock()

	elapsed := formatDuration(time.Since(p.startTime))
	if status != "" {
		message = fmt.Sprintf("%s (%s)", message, status)
	}

	if p.printer.useColor {
		p.printer.write(p.printer.out, "\r%s%s%s %s %s[%s]%s\033[K",
			colorBold, colorCyan, spinner, message, colorGray, elapsed, colorReset)
	} else {
		p.printer.write(p.printer.out, "\r%s %s [%s]\033[K", spinner, message, elapsed)
	}
}

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%.0fs", d.Seconds())
}
