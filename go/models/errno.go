package models

import "fmt"

// Errno is a kernel error code. Syscalls return it negated.
type Errno int32

const (
	E_UNSPECIFIED  Errno = 1
	E_BAD_ENV      Errno = 2
	E_INVAL        Errno = 3
	E_NO_MEM       Errno = 4
	E_NO_FREE_ENV  Errno = 5
	E_FAULT        Errno = 6
	E_IPC_NOT_RECV Errno = 7
)

var errnoNames = map[Errno]string{
	E_UNSPECIFIED:  "unspecified or unknown problem",
	E_BAD_ENV:      "bad environment",
	E_INVAL:        "invalid parameter",
	E_NO_MEM:       "out of memory",
	E_NO_FREE_ENV:  "out of environments",
	E_FAULT:        "segmentation fault",
	E_IPC_NOT_RECV: "env is not recving",
}

var errnoSyms = map[Errno]string{
	E_UNSPECIFIED:  "E_UNSPECIFIED",
	E_BAD_ENV:      "E_BAD_ENV",
	E_INVAL:        "E_INVAL",
	E_NO_MEM:       "E_NO_MEM",
	E_NO_FREE_ENV:  "E_NO_FREE_ENV",
	E_FAULT:        "E_FAULT",
	E_IPC_NOT_RECV: "E_IPC_NOT_RECV",
}

func (e Errno) Error() string {
	if s, ok := errnoNames[e]; ok {
		return s
	}
	return fmt.Sprintf("error %d", int32(e))
}

// Sym returns the constant name, used by the syscall tracer.
func (e Errno) Sym() string {
	if s, ok := errnoSyms[e]; ok {
		return s
	}
	return fmt.Sprintf("E_%d", int32(e))
}

// Ret is the value a syscall hands back for this error.
func (e Errno) Ret() int32 {
	return -int32(e)
}

// ErrnoFromRet converts a raw syscall result into an error, or nil if it is not negative.
func ErrnoFromRet(ret int32) error {
	if ret < 0 {
		return Errno(-ret)
	}
	return nil
}

// Ret converts an error from a kernel handler into a syscall result.
// Errors that are not an Errno report E_UNSPECIFIED.
func Ret(err error) int32 {
	if err == nil {
		return 0
	}
	if e, ok := err.(Errno); ok {
		return e.Ret()
	}
	return E_UNSPECIFIED.Ret()
}
