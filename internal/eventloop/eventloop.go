// Package eventloop runs tasks one at a time, in submission order, on a
// single dedicated goroutine.
package eventloop

import (
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/rs/zerolog/log"
)

// Loop is a FIFO task queue with one worker goroutine.
type Loop struct {
	mu      sync.Mutex
	cond    *sync.Cond
	tasks   []func()
	stop    bool
	done    chan struct{}
	closeMu sync.Once
}

// New starts a loop. Call Close to stop it.
func New() *Loop {
	l := &Loop{done: make(chan struct{})}
	l.cond = sync.NewCond(&l.mu)
	go l.work()
	return l
}

// Run enqueues task and returns immediately. A task may call Run; the new
// task runs after everything already queued.
func (l *Loop) Run(task func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stop {
		log.Warn().Msg("eventloop: task submitted after close, dropping")
		return
	}
	l.tasks = append(l.tasks, task)
	l.cond.Signal()
}

// Close requests a stop and waits for the worker to run every pending task
// and exit. Safe to call more than once. Must not be called from a task.
func (l *Loop) Close() {
	l.closeMu.Do(func() {
		l.mu.Lock()
		l.stop = true
		l.cond.Signal()
		l.mu.Unlock()
	})
	<-l.done
}

// Done is closed once the worker has exited.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) work() {
	defer close(l.done)

	for {
		batch, ok := l.next()
		if !ok {
			return
		}
		for _, task := range batch {
			l.runTask(task)
		}
	}
}

// next blocks until tasks are queued or a stop is requested. Tasks queued
// before the stop are still handed out; false means nothing is left.
func (l *Loop) next() ([]func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for len(l.tasks) == 0 && !l.stop {
		l.cond.Wait()
	}
	if len(l.tasks) == 0 {
		return nil, false
	}
	batch := l.tasks
	l.tasks = nil
	return batch, true
}

func (l *Loop) runTask(task func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("panic", fmt.Sprint(r)).
				Bytes("stack", debug.Stack()).
				Msg("eventloop: task panicked")
		}
	}()
	task()
}
