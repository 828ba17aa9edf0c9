package jos

import (
	"github.com/exocorn/exocorn/go/kernel/common"
	"github.com/exocorn/exocorn/go/kernel/env"
	"github.com/exocorn/exocorn/go/models"
	"github.com/exocorn/exocorn/go/models/mem"
)

// User is an environment's view of the machine. It is only valid while the
// environment it was made for is alive.
type User struct {
	k     *Kernel
	env   *env.Env
	id    models.EnvID
	local interface{}
}

var _ models.User = (*User)(nil)

// Handle returns the user handle for e, creating it on first use.
func (k *Kernel) Handle(e *env.Env) *User {
	if u, ok := k.users[e.ID]; ok {
		return u
	}
	u := &User{k: k, env: e, id: e.ID}
	k.users[e.ID] = u
	return u
}

func (u *User) alive() bool {
	return u.env.ID == u.id && u.env.Status != models.ENV_FREE && u.env.Pgdir != nil
}

func (u *User) Env() *env.Env { return u.env }

func (u *User) Syscall(num uint32, a1, a2, a3, a4, a5 uint32) int32 {
	if !u.alive() {
		return models.E_BAD_ENV.Ret()
	}
	k, e := u.k, u.env
	if !k.running {
		k.cur = e
	}
	common.SetTrapArgs(&e.Tf, num, a1, a2, a3, a4, a5)
	_, args := common.TrapArgs(&e.Tf)
	ret := k.dispatch(e, num, args)
	e.Tf.Regs.EAX = uint32(ret)
	return int32(e.Tf.Regs.EAX)
}

// access performs a user-mode load or store, taking page faults like the MMU.
func (u *User) access(va uint32, p []byte, write bool) error {
	for i := 0; ; i++ {
		if !u.alive() {
			return &mem.Fault{Addr: va, Size: len(p)}
		}
		var err error
		if write {
			err = u.env.Pgdir.UserWrite(va, p)
		} else {
			err = u.env.Pgdir.UserRead(va, p)
		}
		f, ok := err.(*mem.Fault)
		if !ok {
			return err
		}
		if i >= u.k.Config.FaultRetries {
			u.k.printf("[%s] fault loop at va %08x\n", u.id, f.Addr)
			u.k.destroy(u.env)
			return f
		}
		if !u.k.pageFault(u.env, f) {
			return f
		}
	}
}

func (u *User) Read(va uint32, p []byte) error  { return u.access(va, p, false) }
func (u *User) Write(va uint32, p []byte) error { return u.access(va, p, true) }

func (u *User) PDE(va uint32) models.PTE {
	if !u.alive() {
		return 0
	}
	return u.env.Pgdir.PDE(va)
}

func (u *User) PTE(va uint32) models.PTE {
	if !u.alive() {
		return 0
	}
	return u.env.Pgdir.PTE(va)
}

func (u *User) EnvAt(slot int) models.EnvInfo {
	if e := u.k.Envs.Get(slot); e != nil {
		return e.Info()
	}
	return models.EnvInfo{}
}

func (u *User) PC() uint32      { return u.env.Tf.EIP }
func (u *User) SetPC(pc uint32) { u.env.Tf.EIP = pc }
func (u *User) SP() uint32      { return u.env.Tf.ESP }
func (u *User) Ret() int32      { return int32(u.env.Tf.Regs.EAX) }

// Restore resumes from a fault record, as the upcall trampoline's final ret does.
func (u *User) Restore(utf *models.UTrapframe) {
	tf := &u.env.Tf
	tf.Regs = utf.Regs
	tf.EIP = utf.EIP
	tf.EFlags = utf.EFlags
	tf.ESP = utf.ESP
}

func (u *User) Local() interface{}     { return u.local }
func (u *User) SetLocal(v interface{}) { u.local = v }

func (u *User) Symbol(name string, fn models.Entry) uint32 { return u.k.Text.Symbol(name, fn) }
func (u *User) Anon(fn models.Entry) uint32                { return u.k.Text.Anon(fn) }
func (u *User) Drop(va uint32)                             { u.k.Text.Drop(va) }
