package jos

import (
	"github.com/exocorn/exocorn/go/kernel/common"
	"github.com/exocorn/exocorn/go/logging"
	"github.com/exocorn/exocorn/go/models"
)

func (k *Kernel) Cputs(s common.Buf, n common.Len) int32 {
	r, ok := k.userMemAssert(k.cur, s.Addr, uint32(n), 0)
	if !ok {
		return models.E_FAULT.Ret()
	}
	k.Console.Write(r.Bytes())
	return 0
}

func (k *Kernel) Cgetc() int32 {
	c, ok := k.Console.ReadChar()
	if !ok {
		return 0
	}
	return int32(c)
}

func (k *Kernel) Getenvid() int32 {
	return int32(k.cur.ID)
}

func (k *Kernel) EnvDestroy(id models.EnvID) int32 {
	e, err := k.Envs.Resolve(id, k.cur, true)
	if err != nil {
		return ret(err)
	}
	if e == k.cur {
		k.printf("[%s] exiting gracefully\n", e.ID)
	} else {
		k.printf("[%s] destroying %s\n", k.cur.ID, e.ID)
	}
	k.Log.Info("destroy", logging.Env(e.ID))
	k.destroy(e)
	return 0
}

func (k *Kernel) Yield() int32 {
	k.yield()
	return 0
}

func (k *Kernel) Exofork() int32 {
	parent := k.cur
	child, err := k.Envs.Alloc(parent.ID)
	if err != nil {
		return ret(err)
	}
	child.Status = models.ENV_NOT_RUNNABLE
	child.Type = parent.Type
	child.Name = parent.Name
	child.Tf = parent.Tf
	child.Tf.Regs.EAX = 0
	return int32(child.ID)
}

func (k *Kernel) EnvSetStatus(id models.EnvID, status models.Status) int32 {
	if status != models.ENV_RUNNABLE && status != models.ENV_NOT_RUNNABLE {
		return models.E_INVAL.Ret()
	}
	e, err := k.Envs.Resolve(id, k.cur, true)
	if err != nil {
		return ret(err)
	}
	if e.Status == models.ENV_DYING {
		return models.E_BAD_ENV.Ret()
	}
	e.Status = status
	return 0
}

func (k *Kernel) EnvSetTrapframe(id models.EnvID, tfva common.VA) int32 {
	e, err := k.Envs.Resolve(id, k.cur, true)
	if err != nil {
		return ret(err)
	}
	r, ok := k.userMemAssert(k.cur, uint32(tfva), models.TrapframeSize, 0)
	if !ok {
		return models.E_FAULT.Ret()
	}
	var tf models.Trapframe
	if err := tf.Unpack(r.Bytes()); err != nil {
		return models.E_INVAL.Ret()
	}
	tf.EFlags |= models.FL_IF
	tf.EFlags &^= models.FL_IOPL_MASK
	tf.CS |= 3
	e.Tf = tf
	return 0
}

func (k *Kernel) EnvSetPgfaultUpcall(id models.EnvID, fn uint32) int32 {
	e, err := k.Envs.Resolve(id, k.cur, true)
	if err != nil {
		return ret(err)
	}
	e.PgfaultUpcall = fn
	return 0
}
