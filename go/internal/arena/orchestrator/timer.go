package orchestrator

import (
	"fmt"
	"sync"
	"time"

	"github.com/mcdev12/arena/go/internal/models"
)

// TimerTickInterval is how often the live readout refreshes while an agent thinks.
const TimerTickInterval = 100 * time.Millisecond

// TimerSlot receives the live readout of a running TimerSession.
type TimerSlot interface {
	SetTimerText(text string)
}

// TimerSlotFunc adapts a function to TimerSlot.
type TimerSlotFunc func(text string)

func (f TimerSlotFunc) SetTimerText(text string) { f(text) }

// FormatElapsed renders elapsed time with one decimal and a seconds suffix ("3.4s").
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// TimerSession drives the transient "thinking" readout for the agent whose turn it is.
// It is purely visual: the server-reported durations in the next snapshot are what
// populate the permanent timing fields. At most one session ticks at a time.
type TimerSession struct {
	clock Clock

	mu        sync.Mutex
	stop      chan struct{}
	done      chan struct{}
	startedAt time.Time
}

func NewTimerSession(clock Clock) *TimerSession {
	return &TimerSession{clock: clock}
}

// Start stops any running session, resets slot to zero and begins refreshing it
// every TimerTickInterval.
func (t *TimerSession) Start(slot TimerSlot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()

	t.startedAt = t.clock.Now()
	slot.SetTimerText(models.TimerZero)

	ticker := t.clock.NewTicker(TimerTickInterval)
	stop := make(chan struct{})
	done := make(chan struct{})
	t.stop, t.done = stop, done

	go func(startedAt time.Time) {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.Chan():
				// a pending stop wins over a tick that raced with it
				select {
				case <-stop:
					return
				default:
				}
				slot.SetTimerText(FormatElapsed(t.clock.Since(startedAt)))
			}
		}
	}(t.startedAt)
}

// Stop cancels the refresh and waits for the tick goroutine to exit, so no write
// reaches the slot after Stop returns. The last readout stays displayed. Calling Stop
// with nothing running is a no-op.
func (t *TimerSession) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

// Ticking reports whether a session is active.
func (t *TimerSession) Ticking() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop != nil
}

func (t *TimerSession) stopLocked() {
	if t.stop == nil {
		return
	}
	close(t.stop)
	<-t.done
	t.stop, t.done = nil, nil
}
