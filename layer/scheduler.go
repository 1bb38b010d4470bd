package layer

// Key addresses one effect slot of one channel.
type Key struct {
	Channel string
	Slot    Slot
}

// Scheduler polls transition tasks once per tick. Each key holds at most one
// live task; starting another on the same key cancels the previous one.
type Scheduler struct {
	tasks map[Key]*Task
}

// NewScheduler returns an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{tasks: make(map[Key]*Task)}
}

// Start begins t for channel, replacing whatever ran in the same slot. Tasks
// that finish on Begin are not retained.
func (s *Scheduler) Start(channel string, t *Task) *Task {
	key := Key{Channel: channel, Slot: t.Kind().Slot()}
	if prev, ok := s.tasks[key]; ok {
		prev.Cancel()
		delete(s.tasks, key)
	}
	t.Begin()
	if !t.Terminal() {
		s.tasks[key] = t
	}
	return t
}

// Cancel stops the task in the given slot. It reports whether one was live.
func (s *Scheduler) Cancel(channel string, slot Slot) bool {
	key := Key{Channel: channel, Slot: slot}
	t, ok := s.tasks[key]
	if !ok {
		return false
	}
	t.Cancel()
	delete(s.tasks, key)
	return true
}

// CancelChannel stops every task of channel.
func (s *Scheduler) CancelChannel(channel string) {
	for key, t := range s.tasks {
		if key.Channel == channel {
			t.Cancel()
			delete(s.tasks, key)
		}
	}
}

// Active returns the live task in a slot, or nil.
func (s *Scheduler) Active(channel string, slot Slot) *Task {
	return s.tasks[Key{Channel: channel, Slot: slot}]
}

// Len returns the number of live tasks.
func (s *Scheduler) Len() int { return len(s.tasks) }

// Tick advances every live task by dt seconds and drops finished ones.
func (s *Scheduler) Tick(dt float64) {
	for key, t := range s.tasks {
		if t.Step(dt) && s.tasks[key] == t {
			delete(s.tasks, key)
		}
	}
}
