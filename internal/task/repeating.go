package task

import (
	"sync"
	"time"
)

// RepeatingTask executes a function in a fixed interval on its own goroutine
type RepeatingTask struct {
	task     func()
	interval time.Duration

	mtx  sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewRepeating creates a new repeating asynchronous task
func NewRepeating(task func(), interval time.Duration) *RepeatingTask {
	return &RepeatingTask{
		task:     task,
		interval: interval,
	}
}

// Running reports whether the task is currently scheduled
func (task *RepeatingTask) Running() bool {
	task.mtx.Lock()
	defer task.mtx.Unlock()
	return task.stop != nil
}

// Start starts the repeating task.
// If the task is already running, this is a no-op.
func (task *RepeatingTask) Start() {
	task.mtx.Lock()
	defer task.mtx.Unlock()
	if task.stop != nil {
		return
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	task.stop, task.done = stop, done

	go func() {
		defer close(done)
		ticker := time.NewTicker(task.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				task.task()
			case <-stop:
				return
			}
		}
	}()
}

// Stop stops the repeating task and waits for a possibly running execution to finish.
// If the task is not running, this is a no-op.
// forceExec defines whether to execute the task one last time just before Stop returns.
func (task *RepeatingTask) Stop(forceExec bool) {
	task.mtx.Lock()
	stop, done := task.stop, task.done
	task.stop, task.done = nil, nil
	task.mtx.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
	if forceExec {
		task.task()
	}
}
