package env

import (
	"fmt"

	"github.com/exocorn/exocorn/go/models"
	"github.com/exocorn/exocorn/go/models/mem"
)

// IPC is the rendezvous channel embedded in every environment.
type IPC struct {
	Recving bool
	DstVA   uint32
	Value   uint32
	From    models.EnvID
	Perm    models.Perm
}

type Env struct {
	ID       models.EnvID
	ParentID models.EnvID
	Type     models.EnvType
	Status   models.Status
	Runs     int
	Name     string

	Tf    models.Trapframe
	Pgdir *mem.Pgdir

	// 0 means no handler, faults destroy the environment
	PgfaultUpcall uint32
	IPC           IPC

	PageFaults int
}

func (e *Env) String() string {
	return fmt.Sprintf("[%s] %s %s", e.ID, e.Name, e.Status)
}

// Live reports whether the slot holds an environment that may still run.
func (e *Env) Live() bool {
	return e.Status != models.ENV_FREE && e.Status != models.ENV_DYING
}

func (e *Env) Info() models.EnvInfo {
	return models.EnvInfo{
		ID:         e.ID,
		ParentID:   e.ParentID,
		Type:       e.Type,
		Status:     e.Status,
		Runs:       e.Runs,
		IpcRecving: e.IPC.Recving,
		IpcDstVA:   e.IPC.DstVA,
		IpcValue:   e.IPC.Value,
		IpcFrom:    e.IPC.From,
		IpcPerm:    e.IPC.Perm,
	}
}
