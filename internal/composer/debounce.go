package composer

import "time"

// task is a scheduled call that can be cancelled before it runs.
// *time.Timer satisfies it.
type task interface {
	Stop() bool
}

// scheduleFunc runs f once after d. Tests swap in a manual scheduler.
type scheduleFunc func(d time.Duration, f func()) task

func afterFunc(d time.Duration, f func()) task {
	return time.AfterFunc(d, f)
}

// debouncer holds at most one pending task. Every trigger stops the pending
// task before scheduling a new one, so of a rapid burst only the last call
// survives the quiet period.
//
// debouncer is not safe for concurrent use; Composer guards it with its mutex.
type debouncer struct {
	delay    time.Duration
	schedule scheduleFunc
	pending  task
}

func newDebouncer(delay time.Duration, schedule scheduleFunc) *debouncer {
	if schedule == nil {
		schedule = afterFunc
	}
	return &debouncer{delay: delay, schedule: schedule}
}

func (d *debouncer) trigger(f func()) {
	d.cancel()
	d.pending = d.schedule(d.delay, f)
}

// cancel stops the pending task, if any. A task whose timer already fired
// may still run; callers pair the debouncer with a generation check.
func (d *debouncer) cancel() {
	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
}

// fired forgets the pending task once it has started running.
func (d *debouncer) fired() {
	d.pending = nil
}
