package jos

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/exocorn/exocorn/go/kernel/env"
	"github.com/exocorn/exocorn/go/logging"
	"github.com/exocorn/exocorn/go/models"
)

// ErrIdle is returned by Run when environments remain but none can run.
var ErrIdle = errors.New("all environments are blocked")

// unwinds the current environment after it destroyed itself
type envExit struct{}

// unwinds a parked environment that was destroyed by someone else
type envKilled struct{}

// thread is the goroutine backing one environment. At most one thread runs
// at a time: the scheduler wakes it and waits on handback.
type thread struct {
	wake chan struct{}
	kill chan struct{}
	done chan struct{}
}

// Run schedules environments round robin until none are left, all remaining
// ones are blocked, or ctx is cancelled.
func (k *Kernel) Run(ctx context.Context) error {
	if k.running {
		return errors.New("kernel already running")
	}
	k.running = true
	defer func() {
		k.running = false
		k.cur = nil
	}()
	var prev *env.Env
	for {
		k.reap()
		if err := ctx.Err(); err != nil {
			return err
		}
		next := k.Envs.Next(prev)
		if next == nil {
			if k.Envs.Blocked() {
				return ErrIdle
			}
			return nil
		}
		k.switchTo(next)
		prev = next
	}
}

func (k *Kernel) switchTo(e *env.Env) {
	e.Status = models.ENV_RUNNING
	e.Runs++
	k.cur = e
	k.Metrics.Switches.Inc()
	if th, ok := k.threads[e.ID]; ok {
		th.wake <- struct{}{}
	} else {
		th = &thread{
			wake: make(chan struct{}),
			kill: make(chan struct{}),
			done: make(chan struct{}),
		}
		k.threads[e.ID] = th
		go k.exec(e, th)
	}
	<-k.handback
	k.cur = nil
	if e.Status == models.ENV_RUNNING {
		e.Status = models.ENV_RUNNABLE
	}
}

// exec is the body of an environment's goroutine.
func (k *Kernel) exec(e *env.Env, th *thread) {
	defer close(th.done)
	defer func() {
		switch r := recover().(type) {
		case nil, envExit:
		case envKilled:
			return
		default:
			k.printf("[%s] user panic: %v\n", e.ID, r)
			k.Log.Error("user code panicked", logging.Env(e.ID), zap.Any("panic", r), zap.Stack("stack"))
			k.markDying(e)
		}
		k.handback <- struct{}{}
	}()
	entry, ok := k.Text.Lookup(e.Tf.EIP)
	if !ok {
		k.printf("[%s] bad eip %08x\n", e.ID, e.Tf.EIP)
		k.destroy(e)
		return
	}
	entry(k.Handle(e))
	// falling off the end of an entry is an exit
	k.destroy(e)
}

// yield parks the current environment's thread until the scheduler picks it
// again. It reports false in direct mode, where there is no scheduler.
func (k *Kernel) yield() bool {
	if !k.running || k.cur == nil {
		return false
	}
	th := k.threads[k.cur.ID]
	if th == nil {
		return false
	}
	k.handback <- struct{}{}
	select {
	case <-th.wake:
		return true
	case <-th.kill:
		panic(envKilled{})
	}
}

func (k *Kernel) markDying(e *env.Env) {
	if e.Status == models.ENV_FREE || e.Status == models.ENV_DYING {
		return
	}
	e.Status = models.ENV_DYING
	e.IPC.Recving = false
}

// destroy marks e dying. The current environment unwinds immediately when it
// runs on its own thread, other environments are freed by the next reap.
func (k *Kernel) destroy(e *env.Env) {
	k.markDying(e)
	if k.running && e == k.cur {
		panic(envExit{})
	}
	if !k.running {
		k.reap()
	}
}

// reap frees dying environments and tears down their threads.
func (k *Kernel) reap() {
	k.Envs.Each(func(e *env.Env) {
		if e.Status != models.ENV_DYING {
			return
		}
		if th, ok := k.threads[e.ID]; ok {
			delete(k.threads, e.ID)
			close(th.kill)
			<-th.done
		}
		delete(k.users, e.ID)
		for _, t := range k.tracers {
			if xt, ok := t.(ExitTracer); ok {
				xt.EnvExit(e.ID)
			}
		}
		k.Log.Debug("freed", logging.Env(e.ID), zap.Int("runs", e.Runs), zap.Int("faults", e.PageFaults))
		k.Envs.Free(e)
	})
}

// Shutdown destroys every environment. It must not be called while Run is active.
func (k *Kernel) Shutdown() {
	k.Envs.Each(k.markDying)
	k.reap()
}
