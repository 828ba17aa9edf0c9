package lib

import (
	"github.com/exocorn/exocorn/go/models"
)

// NoPage tells Send and Recv that no page should move.
const NoPage = models.UTOP

// Recv waits for a message. A page sent by the peer is mapped at pg unless
// pg is NoPage. On error from and perm are zero.
func (rt *Runtime) Recv(pg uint32) (value uint32, from models.EnvID, perm models.Perm, err error) {
	if err := rt.SysIpcRecv(pg); err != nil {
		return 0, 0, 0, err
	}
	info := rt.ThisEnv()
	return info.IpcValue, info.IpcFrom, info.IpcPerm, nil
}

// Send delivers val, and the page at pg unless pg is NoPage, retrying until
// the target is receiving. Any other failure is fatal.
func (rt *Runtime) Send(to models.EnvID, val uint32, pg uint32, perm models.Perm) {
	for {
		err := rt.SysIpcTrySend(to, val, pg, perm)
		if err == nil {
			return
		}
		if err != models.E_IPC_NOT_RECV {
			rt.Panic("ipc_send: %v", err)
		}
		rt.SysYield()
	}
}

// FindEnv returns the first live environment of the given type, or 0.
func (rt *Runtime) FindEnv(typ models.EnvType) models.EnvID {
	for i := 0; i < models.NENV; i++ {
		info := rt.u.EnvAt(i)
		if info.Status != models.ENV_FREE && info.Type == typ {
			return info.ID
		}
	}
	return 0
}
