package models

// memory layout, mirrors the JOS memlayout.h constants user programs are built against
const (
	PGSHIFT    = 12
	PGSIZE     = 1 << PGSHIFT
	PTXSHIFT   = 12
	PDXSHIFT   = 22
	NPDENTRIES = 1024
	NPTENTRIES = 1024
	PTSIZE     = PGSIZE * NPTENTRIES

	// user/kernel split: nothing at or above UTOP is mutable by a syscall
	UTOP       = 0xEEC00000
	UENVS      = UTOP
	UXSTACKTOP = UTOP
	USTACKTOP  = UTOP - 2*PGSIZE

	UTEXT  = 2 * PTSIZE
	UTEMP  = PTSIZE
	PFTEMP = UTEMP + PTSIZE - PGSIZE
)

// page table entry bits
const (
	PTE_P     = 0x001
	PTE_W     = 0x002
	PTE_U     = 0x004
	PTE_PWT   = 0x008
	PTE_PCD   = 0x010
	PTE_A     = 0x020
	PTE_D     = 0x040
	PTE_PS    = 0x080
	PTE_G     = 0x100
	PTE_AVAIL = 0xE00
	PTE_SHARE = 0x400
	PTE_COW   = 0x800

	// the only bits a caller may pass in a permission argument
	PTE_SYSCALL = PTE_P | PTE_W | PTE_U | PTE_COW | PTE_SHARE
)

// page fault error code bits
const (
	FEC_PR = 0x1
	FEC_WR = 0x2
	FEC_U  = 0x4
)

// eflags / segment selectors forced onto user trap frames
const (
	FL_IF        = 0x00000200
	FL_IOPL_MASK = 0x00003000

	GD_UT = 0x18
	GD_UD = 0x20
)

// syscall numbers, must not be renumbered
const (
	SYS_cputs = iota
	SYS_cgetc
	SYS_getenvid
	SYS_env_destroy
	SYS_page_alloc
	SYS_page_map
	SYS_page_unmap
	SYS_exofork
	SYS_env_set_status
	SYS_env_set_trapframe
	SYS_env_set_pgfault_upcall
	SYS_yield
	SYS_ipc_try_send
	SYS_ipc_recv
	NSYSCALLS
)

// SyscallNames is indexed by syscall number.
var SyscallNames = [NSYSCALLS]string{
	"cputs",
	"cgetc",
	"getenvid",
	"env_destroy",
	"page_alloc",
	"page_map",
	"page_unmap",
	"exofork",
	"env_set_status",
	"env_set_trapframe",
	"env_set_pgfault_upcall",
	"yield",
	"ipc_try_send",
	"ipc_recv",
}

func PGNUM(va uint32) uint32  { return va >> PTXSHIFT }
func PDX(va uint32) uint32    { return (va >> PDXSHIFT) & 0x3FF }
func PTX(va uint32) uint32    { return (va >> PTXSHIFT) & 0x3FF }
func PGOFF(va uint32) uint32  { return va & 0xFFF }
func PGADDR(pn uint32) uint32 { return pn << PTXSHIFT }

func RoundDown(va, n uint32) uint32 { return va - va%n }
func RoundUp(va, n uint32) uint32   { return RoundDown(va+n-1, n) }
