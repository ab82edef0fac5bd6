package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/forcelayout/pkg/layout"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner is a progress line for long layout runs. Between frames it shows
// the latest step count and average displacement reported through Update.
type Spinner struct {
	message string
	out     io.Writer
	ctx     context.Context

	mu       sync.Mutex
	progress layout.Progress
	reported bool
	width    int

	stop     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

// newSpinnerWithContext creates a spinner on stderr that stops drawing when
// ctx is cancelled.
func newSpinnerWithContext(ctx context.Context, message string) *Spinner {
	return &Spinner{
		message: message,
		out:     os.Stderr,
		ctx:     ctx,
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Update records the progress of the running layout. It is safe to call
// from the goroutine doing the work.
func (s *Spinner) Update(p layout.Progress) {
	s.mu.Lock()
	s.progress = p
	s.reported = true
	s.mu.Unlock()
}

// Start begins drawing frames.
func (s *Spinner) Start() {
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-s.stop:
				return
			case <-ticker.C:
				s.draw(spinnerFrames[i%len(spinnerFrames)])
			}
		}
	}()
}

// Stop stops the spinner and clears its line. Calling it again is a no-op.
func (s *Spinner) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		<-s.stopped
		s.clearLine()
	})
}

// StopWithError stops the spinner and shows an error message.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}

// status is the progress suffix, empty until the first Update.
func (s *Spinner) status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.reported {
		return ""
	}
	return fmt.Sprintf("step %d · avg %.4f", s.progress.Steps, s.progress.Avg)
}

func (s *Spinner) draw(frame string) {
	plain := s.message
	if st := s.status(); st != "" {
		plain += "  " + st
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = max(s.width, len([]rune(plain))+2)
	fmt.Fprintf(s.out, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(plain))
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width == 0 {
		return
	}
	fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", s.width))
}
