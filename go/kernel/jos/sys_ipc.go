package jos

import (
	"github.com/exocorn/exocorn/go/kernel/common"
	"github.com/exocorn/exocorn/go/models"
	"github.com/exocorn/exocorn/go/models/mem"
)

// IpcTrySend delivers value, and optionally the page at srcva, to a blocked
// receiver. Nothing in the receiver changes unless every check and the page
// mapping succeed.
func (k *Kernel) IpcTrySend(id models.EnvID, value uint32, srcva common.VA, perm models.Perm) int32 {
	cur := k.cur
	dst, err := k.Envs.Resolve(id, cur, false)
	if err != nil {
		return ret(err)
	}
	if !dst.IPC.Recving {
		return models.E_IPC_NOT_RECV.Ret()
	}
	var pg *mem.Page
	if uint32(srcva) < models.UTOP {
		if models.PGOFF(uint32(srcva)) != 0 || !perm.Legal() {
			return models.E_INVAL.Ret()
		}
		p, pte, ok := cur.Pgdir.Lookup(uint32(srcva))
		if !ok {
			return models.E_INVAL.Ret()
		}
		if perm&models.PTE_W != 0 && pte.Perm()&models.PTE_W == 0 {
			return models.E_INVAL.Ret()
		}
		pg = p
	}
	var moved models.Perm
	if pg != nil && dst.IPC.DstVA < models.UTOP {
		// receiver stays blocked if this fails
		if err := dst.Pgdir.Insert(pg, dst.IPC.DstVA, perm); err != nil {
			return ret(err)
		}
		moved = perm
	}
	dst.IPC.Recving = false
	dst.IPC.From = cur.ID
	dst.IPC.Value = value
	dst.IPC.Perm = moved
	dst.Status = models.ENV_RUNNABLE
	dst.Tf.Regs.EAX = 0
	return 0
}

// IpcRecv blocks until a sender delivers. The result is whatever the sender
// left in eax, which is always 0.
func (k *Kernel) IpcRecv(dstva common.VA) int32 {
	e := k.cur
	if uint32(dstva) < models.UTOP && models.PGOFF(uint32(dstva)) != 0 {
		return models.E_INVAL.Ret()
	}
	e.IPC.Recving = true
	e.IPC.DstVA = uint32(dstva)
	e.Status = models.ENV_NOT_RUNNABLE
	if k.yield() {
		return int32(e.Tf.Regs.EAX)
	}
	return 0
}
