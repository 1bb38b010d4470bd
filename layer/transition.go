package layer

import "fmt"

// Kind identifies what a transition drives.
type Kind int

const (
	// Fade ramps the channel volume.
	Fade Kind = iota
	// FilterSweep moves the low-pass cutoff toward an engage target.
	FilterSweep
	// FilterReset moves the low-pass cutoff back to DefaultCutoffHz.
	FilterReset
)

// String returns the kind name used in log records.
func (k Kind) String() string {
	switch k {
	case Fade:
		return "fade"
	case FilterSweep:
		return "filter-sweep"
	case FilterReset:
		return "filter-reset"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Slot is the effect slot a kind occupies. Kinds sharing a slot replace each
// other.
type Slot int

const (
	// SlotFade holds the volume fade of a channel.
	SlotFade Slot = iota
	// SlotFilter holds the low-pass transition; sweeps and resets share it.
	SlotFilter
)

// Slot returns the slot k runs in.
func (k Kind) Slot() Slot {
	if k == Fade {
		return SlotFade
	}
	return SlotFilter
}

// completion tolerance on elapsed/duration so that accumulated float
// deltas still land on the target.
const completeEps = 1e-9

type taskState int

const (
	taskPending taskState = iota
	taskRunning
	taskDone
	taskCancelled
)

// Task is a linear ramp from start to target over duration seconds, applied
// through a callback once per tick.
type Task struct {
	kind     Kind
	start    float64
	target   float64
	duration float64
	elapsed  float64
	value    float64
	apply    func(float64)
	state    taskState
}

// NewTask creates a pending task. apply may be nil.
func NewTask(kind Kind, start, target, duration float64, apply func(float64)) *Task {
	return &Task{
		kind:     kind,
		start:    start,
		target:   target,
		duration: duration,
		value:    start,
		apply:    apply,
	}
}

// Begin applies the start value. A non-positive duration applies the target
// instead and finishes the task.
func (t *Task) Begin() {
	if t.state != taskPending {
		return
	}
	if t.duration <= 0 {
		t.set(t.target)
		t.state = taskDone
		return
	}
	t.state = taskRunning
	t.set(t.start)
}

// Step advances the task by dt seconds and reports whether it is terminal.
func (t *Task) Step(dt float64) bool {
	if t.state == taskPending {
		t.Begin()
	}
	if t.state != taskRunning {
		return true
	}
	if dt > 0 {
		t.elapsed += dt
	}
	p := t.elapsed / t.duration
	if p >= 1-completeEps {
		t.set(t.target)
		t.state = taskDone
		return true
	}
	t.set(t.start + (t.target-t.start)*p)
	return false
}

// Cancel stops the task. The last applied value stays in place.
func (t *Task) Cancel() {
	if t.state == taskPending || t.state == taskRunning {
		t.state = taskCancelled
	}
}

func (t *Task) set(v float64) {
	t.value = v
	if t.apply != nil {
		t.apply(v)
	}
}

// Kind returns what the task drives.
func (t *Task) Kind() Kind { return t.kind }

// Value returns the last value applied.
func (t *Task) Value() float64 { return t.value }

// Elapsed returns the time advanced so far, in seconds.
func (t *Task) Elapsed() float64 { return t.elapsed }

// Duration returns the ramp length in seconds.
func (t *Task) Duration() float64 { return t.duration }

// Target returns the value the ramp ends on.
func (t *Task) Target() float64 { return t.target }

// Done reports whether the task reached its target.
func (t *Task) Done() bool { return t.state == taskDone }

// Cancelled reports whether the task was cancelled before finishing.
func (t *Task) Cancelled() bool { return t.state == taskCancelled }

// Terminal reports whether the task is done or cancelled.
func (t *Task) Terminal() bool { return t.state == taskDone || t.state == taskCancelled }
