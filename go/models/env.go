package models

import "fmt"

const (
	LOG2NENV    = 10
	NENV        = 1 << LOG2NENV
	ENVGENSHIFT = 12
)

// EnvID is (generation << ENVGENSHIFT) | slot. Zero always means the caller.
type EnvID int32

func (id EnvID) Slot() int { return ENVX(id) }

func (id EnvID) String() string { return fmt.Sprintf("%08x", uint32(id)) }

func ENVX(id EnvID) int { return int(id) & (NENV - 1) }

type Status uint32

const (
	ENV_FREE Status = iota
	ENV_DYING
	ENV_RUNNABLE
	ENV_RUNNING
	ENV_NOT_RUNNABLE
)

func (s Status) String() string {
	switch s {
	case ENV_FREE:
		return "free"
	case ENV_DYING:
		return "dying"
	case ENV_RUNNABLE:
		return "runnable"
	case ENV_RUNNING:
		return "running"
	case ENV_NOT_RUNNABLE:
		return "not-runnable"
	}
	return fmt.Sprintf("status(%d)", uint32(s))
}

// EnvType marks special environments so user code can find them by role.
type EnvType uint32

const (
	ENV_TYPE_USER EnvType = iota
	ENV_TYPE_FS
	ENV_TYPE_NS
)

func (t EnvType) String() string {
	switch t {
	case ENV_TYPE_USER:
		return "user"
	case ENV_TYPE_FS:
		return "fs"
	case ENV_TYPE_NS:
		return "ns"
	}
	return fmt.Sprintf("type(%d)", uint32(t))
}

// EnvInfo is the read-only view of an environment that is visible to user code (UENVS).
type EnvInfo struct {
	ID       EnvID
	ParentID EnvID
	Type     EnvType
	Status   Status
	Runs     int

	IpcRecving bool
	IpcDstVA   uint32
	IpcValue   uint32
	IpcFrom    EnvID
	IpcPerm    Perm
}
