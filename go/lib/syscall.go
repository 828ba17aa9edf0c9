package lib

import (
	"github.com/exocorn/exocorn/go/models"
)

func (rt *Runtime) syscall(num uint32, a1, a2, a3, a4, a5 uint32) int32 {
	return rt.u.Syscall(num, a1, a2, a3, a4, a5)
}

func (rt *Runtime) syscallErr(num uint32, a1, a2, a3, a4, a5 uint32) error {
	return models.ErrnoFromRet(rt.syscall(num, a1, a2, a3, a4, a5))
}

func (rt *Runtime) SysCputs(va, n uint32) {
	rt.syscall(models.SYS_cputs, va, n, 0, 0, 0)
}

func (rt *Runtime) SysCgetc() int {
	return int(rt.syscall(models.SYS_cgetc, 0, 0, 0, 0, 0))
}

func (rt *Runtime) SysGetenvid() models.EnvID {
	return models.EnvID(rt.syscall(models.SYS_getenvid, 0, 0, 0, 0, 0))
}

func (rt *Runtime) SysEnvDestroy(id models.EnvID) error {
	return rt.syscallErr(models.SYS_env_destroy, uint32(id), 0, 0, 0, 0)
}

func (rt *Runtime) SysYield() {
	rt.syscall(models.SYS_yield, 0, 0, 0, 0, 0)
}

func (rt *Runtime) SysPageAlloc(id models.EnvID, va uint32, perm models.Perm) error {
	return rt.syscallErr(models.SYS_page_alloc, uint32(id), va, uint32(perm), 0, 0)
}

func (rt *Runtime) SysPageMap(src models.EnvID, srcva uint32, dst models.EnvID, dstva uint32, perm models.Perm) error {
	return rt.syscallErr(models.SYS_page_map, uint32(src), srcva, uint32(dst), dstva, uint32(perm))
}

func (rt *Runtime) SysPageUnmap(id models.EnvID, va uint32) error {
	return rt.syscallErr(models.SYS_page_unmap, uint32(id), va, 0, 0, 0)
}

// SysExofork returns the child id in the parent. The child observes 0 in eax
// when it first runs.
func (rt *Runtime) SysExofork() (models.EnvID, error) {
	r := rt.syscall(models.SYS_exofork, 0, 0, 0, 0, 0)
	if r < 0 {
		return 0, models.Errno(-r)
	}
	return models.EnvID(r), nil
}

func (rt *Runtime) SysEnvSetStatus(id models.EnvID, status models.Status) error {
	return rt.syscallErr(models.SYS_env_set_status, uint32(id), uint32(status), 0, 0, 0)
}

func (rt *Runtime) SysEnvSetTrapframe(id models.EnvID, tfva uint32) error {
	return rt.syscallErr(models.SYS_env_set_trapframe, uint32(id), tfva, 0, 0, 0)
}

func (rt *Runtime) SysEnvSetPgfaultUpcall(id models.EnvID, upcall uint32) error {
	return rt.syscallErr(models.SYS_env_set_pgfault_upcall, uint32(id), upcall, 0, 0, 0)
}

func (rt *Runtime) SysIpcTrySend(id models.EnvID, value, srcva uint32, perm models.Perm) error {
	return rt.syscallErr(models.SYS_ipc_try_send, uint32(id), value, srcva, uint32(perm), 0)
}

func (rt *Runtime) SysIpcRecv(dstva uint32) error {
	return rt.syscallErr(models.SYS_ipc_recv, dstva, 0, 0, 0, 0)
}
