package limiter

import (
	"context"
	"runtime"
	"time"
)

// workSlice is how long a caller may run between throttle sleeps.
const workSlice = 10 * time.Millisecond

// CPULimiter keeps a long filesystem walk near maxPercent of one core by
// sleeping in proportion to the time spent working since the last pause.
type CPULimiter struct {
	maxPercent float64
	lastSleep  time.Time

	now   func() time.Time
	sleep func(context.Context, time.Duration)
}

// NewCPULimiter returns a limiter. Values outside (0, 100) disable it.
func NewCPULimiter(maxPercent float64) *CPULimiter {
	return &CPULimiter{
		maxPercent: maxPercent,
		lastSleep:  time.Now(),
		now:        time.Now,
		sleep:      sleepContext,
	}
}

// Enabled reports whether Throttle can ever pause.
func (l *CPULimiter) Enabled() bool {
	return l != nil && l.maxPercent > 0 && l.maxPercent < 100
}

// Throttle is called once per unit of work. It pauses once the current work
// slice is used up; a cancelled ctx cuts the pause short.
func (l *CPULimiter) Throttle(ctx context.Context) {
	if !l.Enabled() {
		return
	}

	worked := l.now().Sub(l.lastSleep)
	if worked > workSlice {
		pause := time.Duration(float64(worked) * (100 - l.maxPercent) / l.maxPercent)
		l.sleep(ctx, pause)
		l.lastSleep = l.now()
	}

	runtime.Gosched()
}

// SetMaxPercent updates the maximum CPU percentage
func (l *CPULimiter) SetMaxPercent(maxPercent float64) {
	l.maxPercent = maxPercent
}

func sleepContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
