// Package lib is the user-space runtime linked into every environment:
// typed syscall stubs, console output, copy-on-write fork and IPC.
package lib

import (
	"bytes"
	"fmt"

	"github.com/exocorn/exocorn/go/models"
)

// Main is the body of a user program.
type Main func(rt *Runtime)

// Handler is a user page fault handler.
type Handler func(rt *Runtime, utf *models.UTrapframe)

// Runtime holds an environment's user globals (thisenv and the fault handler).
type Runtime struct {
	u   models.User
	Env models.EnvID

	handler   Handler
	upcallSet bool
}

// UserPanic is raised after a user panic if destroying the environment did
// not unwind it, which only happens outside the scheduler.
type UserPanic struct {
	Env models.EnvID
	Msg string
}

func (p UserPanic) Error() string { return fmt.Sprintf("[%s] user panic: %s", p.Env, p.Msg) }

// Attach binds a fresh runtime to u.
func Attach(u models.User) *Runtime {
	rt := &Runtime{u: u}
	rt.Env = rt.SysGetenvid()
	u.SetLocal(rt)
	return rt
}

// Current returns the runtime bound to u, attaching one if needed.
func Current(u models.User) *Runtime {
	if rt, ok := u.Local().(*Runtime); ok {
		return rt
	}
	return Attach(u)
}

// Program wraps main as a text entry: bind the runtime, run, exit.
func Program(main Main) models.Entry {
	return func(u models.User) {
		rt := Attach(u)
		main(rt)
		rt.Exit()
	}
}

// clone is the child's copy of the runtime after fork. Globals are inherited.
func (rt *Runtime) clone(u models.User) *Runtime {
	c := &Runtime{u: u, handler: rt.handler, upcallSet: rt.upcallSet}
	c.Env = c.SysGetenvid()
	u.SetLocal(c)
	return c
}

func (rt *Runtime) User() models.User { return rt.u }

// ThisEnv is the read-only kernel record for the calling environment.
func (rt *Runtime) ThisEnv() models.EnvInfo {
	return rt.u.EnvAt(rt.Env.Slot())
}

// ReadString reads at most n bytes at va, stopping at the first NUL.
func (rt *Runtime) ReadString(va uint32, n int) (string, error) {
	p := make([]byte, n)
	if err := rt.u.Read(va, p); err != nil {
		return "", err
	}
	if i := bytes.IndexByte(p, 0); i >= 0 {
		p = p[:i]
	}
	return string(p), nil
}

// WriteString stores s and a terminating NUL at va.
func (rt *Runtime) WriteString(va uint32, s string) error {
	return rt.u.Write(va, append([]byte(s), 0))
}

// printf scratch space on the user stack page
const (
	printBuf  = models.USTACKTOP - 512
	printSize = 256
)

func (rt *Runtime) Printf(format string, a ...interface{}) {
	rt.Puts(fmt.Sprintf(format, a...))
}

// Puts stages s in user memory in chunks and writes it with cputs.
func (rt *Runtime) Puts(s string) {
	p := []byte(s)
	for len(p) > 0 {
		n := len(p)
		if n > printSize {
			n = printSize
		}
		if err := rt.u.Write(printBuf, p[:n]); err != nil {
			return
		}
		rt.SysCputs(printBuf, uint32(n))
		p = p[n:]
	}
}

func (rt *Runtime) Exit() {
	rt.SysEnvDestroy(0)
}

// Panic reports a fatal user error and destroys the environment.
func (rt *Runtime) Panic(format string, a ...interface{}) {
	msg := fmt.Sprintf(format, a...)
	rt.Printf("[%s] user panic: %s\n", rt.Env, msg)
	rt.Exit()
	panic(UserPanic{Env: rt.Env, Msg: msg})
}
