package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/matzehuels/orrery/pkg/observability"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a status line while a layout runs. It implements
// observability.LayoutHooks, so the engine drives its text through phases
// and layers. On a non-terminal writer nothing is animated.
type Spinner struct {
	ctx     context.Context
	cancel  context.CancelFunc
	out     io.Writer
	animate bool
	done    chan struct{}
	stopped chan struct{}
	started atomic.Bool
	once    sync.Once

	mu        sync.Mutex
	message   string
	width     int // widest line drawn so far
	layers    int // layers finished
	converged int // of which converged before the budget
}

// newSpinnerWithContext creates a spinner on stderr that stops with ctx.
func newSpinnerWithContext(ctx context.Context, message string) *Spinner {
	return newSpinnerTo(ctx, os.Stderr, isatty.IsTerminal(os.Stderr.Fd()), message)
}

func newSpinnerTo(ctx context.Context, w io.Writer, animate bool, message string) *Spinner {
	spinnerCtx, cancel := context.WithCancel(ctx)
	return &Spinner{
		ctx:     spinnerCtx,
		cancel:  cancel,
		out:     w,
		animate: animate,
		message: message,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start begins the animation.
func (s *Spinner) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	if !s.animate {
		close(s.stopped)
		return
	}
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-s.done:
				return
			case <-ticker.C:
				s.draw(spinnerFrames[i%len(spinnerFrames)])
			}
		}
	}()
}

func (s *Spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = max(s.width, len(s.message)+4)
	fmt.Fprintf(s.out, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.message))
}

// SetMessage replaces the status text. Shorter text is padded so that the
// previous line is overwritten.
func (s *Spinner) SetMessage(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	s.mu.Lock()
	defer s.mu.Unlock()
	if pad := len(s.message) - len(msg); pad > 0 {
		msg += strings.Repeat(" ", pad)
	}
	s.message = msg
}

// Message returns the current status text.
func (s *Spinner) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.TrimRight(s.message, " ")
}

// Stop ends the animation and clears the line. Calling it again is a no-op.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		close(s.done)
		if s.started.Load() {
			<-s.stopped
		}
		s.cancel()
		if s.animate {
			s.clearLine()
		}
	})
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", max(s.width, len(s.message)+4)))
}

// StopWithError stops the spinner and prints an error line.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}

// Cancelled reports whether the parent context ended before Stop.
func (s *Spinner) Cancelled() bool {
	select {
	case <-s.done:
		return false
	default:
		return s.ctx.Err() != nil
	}
}

// Layers returns how many layers finished and how many of them converged.
func (s *Spinner) Layers() (finished, converged int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layers, s.converged
}

func (s *Spinner) OnRunStart(_ context.Context, _ string, vertices int) {
	s.SetMessage("Laying out %d vertices...", vertices)
}

func (s *Spinner) OnPhase(_ context.Context, _ string, phase string, layer int) {
	s.SetMessage("%s layer %d...", phase, layer)
}

func (s *Spinner) OnLayerComplete(_ context.Context, _ string, layer, supersteps int, converged bool) {
	s.mu.Lock()
	s.layers++
	if converged {
		s.converged++
	}
	s.mu.Unlock()
	s.SetMessage("Layer %d done after %d supersteps", layer, supersteps)
}

func (s *Spinner) OnRunComplete(_ context.Context, _ string, _ int, elapsed time.Duration, err error) {
	if err != nil {
		s.SetMessage("Layout failed after %s", elapsed.Round(time.Millisecond))
		return
	}
	s.SetMessage("Layout finished in %s", elapsed.Round(time.Millisecond))
}

var _ observability.LayoutHooks = (*Spinner)(nil)
