// Copyright 2025 RPKI-viz Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package periodic provides a mechanism to run tasks periodically.
package periodic

import (
	"context"
	"time"

	"github.com/Arjun4522/RPKI-viz/pkg/log"
)

// Ticker interface to improve testability of this periodic task code.
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

type defaultTicker struct {
	*time.Ticker
}

func (t *defaultTicker) Chan() <-chan time.Time {
	return t.C
}

// NewTicker returns a new Ticker with time.Ticker as implementation.
func NewTicker(d time.Duration) Ticker {
	return &defaultTicker{
		Ticker: time.NewTicker(d),
	}
}

// Task is a task that has to be executed periodically.
type Task interface {
	// Run executes the task once, it should return within the context's
	// timeout.
	Run(context.Context)
	// Name returns the tasks name, used for logging.
	Name() string
}

// Func is a convenience wrapper to implement a Task with a function.
type Func struct {
	Task     func(context.Context)
	TaskName string
}

// Run executes the wrapped function.
func (f Func) Run(ctx context.Context) {
	f.Task(ctx)
}

// Name returns the name of the task.
func (f Func) Name() string {
	return f.TaskName
}

// Runner runs a task periodically. All tasks of one Runner execute on a
// single goroutine, so at most one run is in flight at any time.
type Runner struct {
	task         Task
	ticker       Ticker
	timeout      time.Duration
	stop         chan struct{}
	loopFinished chan struct{}
	ctx          context.Context
	cancelF      context.CancelFunc
	trigger      chan struct{}
}

// Start creates and starts a new Runner to run the given task periodically.
// The timeout is used for the context timeout of the task. The timeout can be
// larger than the period. That means if a task takes a long time it will be
// immediately retriggered on the next tick.
func Start(task Task, period, timeout time.Duration) *Runner {
	return StartWithTicker(task, NewTicker(period), timeout)
}

// StartWithTicker is like Start, with the ticker regulating the periodicity
// supplied by the caller.
func StartWithTicker(task Task, ticker Ticker, timeout time.Duration) *Runner {
	ctx, cancelF := context.WithCancel(context.Background())
	ctx = log.CtxWith(ctx, log.New("task", task.Name()))
	runner := &Runner{
		task:         task,
		ticker:       ticker,
		timeout:      timeout,
		stop:         make(chan struct{}),
		loopFinished: make(chan struct{}),
		ctx:          ctx,
		cancelF:      cancelF,
		trigger:      make(chan struct{}, 1),
	}
	go func() {
		defer log.HandlePanic()
		runner.runLoop()
	}()
	return runner
}

// Stop stops the periodic execution of the Runner.
// If the task is currently running this method will block until it is done.
func (r *Runner) Stop() {
	r.ticker.Stop()
	close(r.stop)
	<-r.loopFinished
}

// Kill is like Stop but it also cancels the context of the currently running
// task.
func (r *Runner) Kill() {
	if r == nil {
		return
	}
	r.ticker.Stop()
	close(r.stop)
	r.cancelF()
	<-r.loopFinished
}

// TriggerRun triggers the task to run now. This does not impact the normal
// periodicity of this task. That means if the period is 5m and TriggerRun is
// called after 2 minutes, the next regular execution happens 3 minutes later.
//
// The method blocks until either the triggered run was started or the runner
// was stopped, in which case the triggered run will not be executed. Triggers
// arriving while a run is in flight coalesce into a single subsequent run.
func (r *Runner) TriggerRun() {
	select {
	// Either we were stopped or we can put something in the trigger channel.
	case <-r.stop:
	case r.trigger <- struct{}{}:
	}
}

// TryTriggerRun is like TriggerRun, but never blocks. If a triggered run is
// already pending, the request coalesces with it instead of queueing another
// run. It reports whether a new run was scheduled.
func (r *Runner) TryTriggerRun() bool {
	select {
	case <-r.stop:
		return false
	case r.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

func (r *Runner) runLoop() {
	defer close(r.loopFinished)
	defer r.cancelF()
	for {
		select {
		case <-r.stop:
			return
		case <-r.ticker.Chan():
			r.onTick()
		case <-r.trigger:
			r.onTick()
		}
	}
}

func (r *Runner) onTick() {
	select {
	// Make sure that the stop case is evaluated first, so that when we kill
	// and both channels are ready we always go into stop first.
	case <-r.stop:
		return
	default:
		ctx, cancelF := context.WithTimeout(r.ctx, r.timeout)
		r.task.Run(ctx)
		cancelF()
	}
}
