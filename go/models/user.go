package models

// Entry is a unit of user code. Text addresses resolve to entries.
type Entry func(u User)

// User is everything an unprivileged environment can touch: the syscall
// gate, its own memory through the MMU, and the read-only kernel views.
type User interface {
	Syscall(num uint32, a1, a2, a3, a4, a5 uint32) int32

	// memory access through the environment's page tables.
	// misses raise page faults and may run the fault upcall.
	Read(va uint32, p []byte) error
	Write(va uint32, p []byte) error

	// uvpd / uvpt
	PDE(va uint32) PTE
	PTE(va uint32) PTE
	// envs[] (UENVS)
	EnvAt(slot int) EnvInfo

	// register state
	PC() uint32
	SetPC(pc uint32)
	SP() uint32
	Ret() int32
	Restore(utf *UTrapframe)

	// user globals
	Local() interface{}
	SetLocal(v interface{})

	// text segment
	Symbol(name string, fn Entry) uint32
	Anon(fn Entry) uint32
	Drop(va uint32)
}

// Console is the character device behind cputs/cgetc.
type Console interface {
	ReadChar() (byte, bool)
	Write(p []byte)
}
