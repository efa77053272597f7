package world

import "time"

// TimeSource provides the monotonic time the LogicTimer accumulates.
type TimeSource interface {
	Now() time.Time
}

type systemTime struct{}

func (systemTime) Now() time.Time {
	return time.Now()
}

// SystemTime is the wall clock with a monotonic reading.
var SystemTime TimeSource = systemTime{}

// LogicTimer runs action at a fixed rate, independent of how often Update is
// called. Update drains whole fixed steps only; the leftover is exposed as
// LerpAlpha for blending between the last two simulated states.
type LogicTimer struct {
	step        time.Duration
	accumulator time.Duration
	last        time.Time
	running     bool
	clock       TimeSource
	action      func()
}

func NewLogicTimer(step time.Duration, clock TimeSource, action func()) *LogicTimer {
	if clock == nil {
		clock = SystemTime
	}
	return &LogicTimer{
		step:   step,
		clock:  clock,
		action: action,
	}
}

// FixedDelta is the fixed step in seconds.
func (l *LogicTimer) FixedDelta() float32 {
	return float32(l.step.Seconds())
}

func (l *LogicTimer) Step() time.Duration {
	return l.step
}

func (l *LogicTimer) Running() bool {
	return l.running
}

func (l *LogicTimer) Start() {
	l.accumulator = 0
	l.last = l.clock.Now()
	l.running = true
}

// Stop halts the timer. A tick that is already executing completes, nothing
// further runs until Start.
func (l *LogicTimer) Stop() {
	l.accumulator = 0
	l.running = false
}

// Update accumulates the time since the previous call and runs one action per
// whole fixed step. It returns the number of steps executed.
func (l *LogicTimer) Update() int {
	if !l.running {
		return 0
	}
	now := l.clock.Now()
	l.accumulator += now.Sub(l.last)
	l.last = now

	ticks := 0
	for l.accumulator >= l.step {
		l.action()
		ticks++
		if !l.running {
			return ticks
		}
		l.accumulator -= l.step
	}
	return ticks
}

// LerpAlpha is accumulator / step, in [0, 1).
func (l *LogicTimer) LerpAlpha() float32 {
	if l.step <= 0 {
		return 0
	}
	return float32(l.accumulator) / float32(l.step)
}
