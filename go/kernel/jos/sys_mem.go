package jos

import (
	"github.com/exocorn/exocorn/go/kernel/common"
	"github.com/exocorn/exocorn/go/models"
)

func (k *Kernel) PageAlloc(id models.EnvID, va common.VA, perm models.Perm) int32 {
	e, err := k.Envs.Resolve(id, k.cur, true)
	if err != nil {
		return ret(err)
	}
	if !checkVA(va) || !perm.Legal() {
		return models.E_INVAL.Ret()
	}
	pg, err := k.Mem.Alloc(true)
	if err != nil {
		return ret(err)
	}
	if err := e.Pgdir.Insert(pg, uint32(va), perm); err != nil {
		k.Mem.Free(pg)
		return ret(err)
	}
	return 0
}

func (k *Kernel) PageMap(srcid models.EnvID, srcva common.VA, dstid models.EnvID, dstva common.VA, perm models.Perm) int32 {
	src, err := k.Envs.Resolve(srcid, k.cur, true)
	if err != nil {
		return ret(err)
	}
	dst, err := k.Envs.Resolve(dstid, k.cur, true)
	if err != nil {
		return ret(err)
	}
	if !checkVA(srcva) || !checkVA(dstva) || !perm.Legal() {
		return models.E_INVAL.Ret()
	}
	pg, pte, ok := src.Pgdir.Lookup(uint32(srcva))
	if !ok {
		return models.E_INVAL.Ret()
	}
	if perm&models.PTE_W != 0 && pte.Perm()&models.PTE_W == 0 {
		return models.E_INVAL.Ret()
	}
	return ret(dst.Pgdir.Insert(pg, uint32(dstva), perm))
}

func (k *Kernel) PageUnmap(id models.EnvID, va common.VA) int32 {
	e, err := k.Envs.Resolve(id, k.cur, true)
	if err != nil {
		return ret(err)
	}
	if !checkVA(va) {
		return models.E_INVAL.Ret()
	}
	e.Pgdir.Remove(uint32(va))
	return 0
}
