package trace

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/exocorn/exocorn/go/models"
)

var order = binary.LittleEndian

const (
	OP_NOP     = 0
	OP_SPAWN   = 1
	OP_SYSCALL = 2
	OP_FAULT   = 3
	OP_EXIT    = 4
)

// Op is one trace record. Pack writes exactly Sizeof bytes, the first of
// which is the op number.
type Op interface {
	Sizeof() int
	Pack(p []byte)
	Unpack(r io.Reader) (int, error)
	String() string
}

func Unpack(r io.Reader) (Op, int, error) {
	var tmp [1]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return nil, 0, err
	}
	var op Op
	switch tmp[0] {
	case OP_NOP:
		op = &OpNop{}
	case OP_SPAWN:
		op = &OpSpawn{}
	case OP_SYSCALL:
		op = &OpSyscall{}
	case OP_FAULT:
		op = &OpFault{}
	case OP_EXIT:
		op = &OpExit{}
	default:
		return nil, 1, errors.Errorf("Unknown op: %d", tmp[0])
	}
	n, err := op.Unpack(r)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return op, n + 1, err
}

type OpNop struct{}

func (o *OpNop) Sizeof() int                     { return 1 }
func (o *OpNop) Pack(p []byte)                   { p[0] = OP_NOP }
func (o *OpNop) Unpack(r io.Reader) (int, error) { return 0, nil }
func (o *OpNop) String() string                  { return "nop" }

type OpSpawn struct {
	Env  models.EnvID
	Type models.EnvType
	Name string
}

func (o *OpSpawn) Sizeof() int { return 1 + 4 + 4 + 2 + len(o.Name) }
func (o *OpSpawn) Pack(p []byte) {
	p[0] = OP_SPAWN
	order.PutUint32(p[1:], uint32(o.Env))
	order.PutUint32(p[5:], uint32(o.Type))
	order.PutUint16(p[9:], uint16(len(o.Name)))
	copy(p[11:], o.Name)
}

func (o *OpSpawn) Unpack(r io.Reader) (int, error) {
	var tmp [4 + 4 + 2]byte
	total, err := io.ReadFull(r, tmp[:])
	if err != nil {
		return total, err
	}
	o.Env = models.EnvID(order.Uint32(tmp[:]))
	o.Type = models.EnvType(order.Uint32(tmp[4:]))
	name := make([]byte, order.Uint16(tmp[8:]))
	n, err := io.ReadFull(r, name)
	o.Name = string(name[:n])
	return total + n, err
}

func (o *OpSpawn) String() string {
	return fmt.Sprintf("[%s] spawn %s (%s)", o.Env, o.Name, o.Type)
}

type OpSyscall struct {
	Env  models.EnvID
	Num  uint32
	Ret  int32
	Args []uint32
}

func (o *OpSyscall) Sizeof() int { return 1 + 4 + 4 + 4 + 1 + len(o.Args)*4 }
func (o *OpSyscall) Pack(p []byte) {
	p[0] = OP_SYSCALL
	order.PutUint32(p[1:], uint32(o.Env))
	order.PutUint32(p[5:], o.Num)
	order.PutUint32(p[9:], uint32(o.Ret))
	p[13] = uint8(len(o.Args))
	for i, v := range o.Args {
		order.PutUint32(p[14+i*4:], v)
	}
}

func (o *OpSyscall) Unpack(r io.Reader) (int, error) {
	var tmp [4 + 4 + 4 + 1]byte
	total, err := io.ReadFull(r, tmp[:])
	if err != nil {
		return total, err
	}
	o.Env = models.EnvID(order.Uint32(tmp[:]))
	o.Num = order.Uint32(tmp[4:])
	o.Ret = int32(order.Uint32(tmp[8:]))
	args := make([]byte, int(tmp[12])*4)
	n, err := io.ReadFull(r, args)
	total += n
	if err != nil {
		return total, err
	}
	o.Args = make([]uint32, tmp[12])
	for i := range o.Args {
		o.Args[i] = order.Uint32(args[i*4:])
	}
	return total, nil
}

func (o *OpSyscall) Name() string {
	if o.Num < models.NSYSCALLS {
		return models.SyscallNames[o.Num]
	}
	return fmt.Sprintf("syscall_%d", o.Num)
}

func (o *OpSyscall) String() string {
	args := make([]string, len(o.Args))
	for i, v := range o.Args {
		args[i] = fmt.Sprintf("%#x", v)
	}
	ret := fmt.Sprintf("%#x", o.Ret)
	if o.Ret < 0 {
		ret = "-" + models.Errno(-o.Ret).Sym()
	}
	return fmt.Sprintf("[%s] %s(%s) = %s", o.Env, o.Name(), strings.Join(args, ", "), ret)
}

type OpFault struct {
	Env  models.EnvID
	Addr uint32
	Code uint32
}

func (o *OpFault) Sizeof() int { return 1 + 4 + 4 + 4 }
func (o *OpFault) Pack(p []byte) {
	p[0] = OP_FAULT
	order.PutUint32(p[1:], uint32(o.Env))
	order.PutUint32(p[5:], o.Addr)
	order.PutUint32(p[9:], o.Code)
}

func (o *OpFault) Unpack(r io.Reader) (int, error) {
	var tmp [4 + 4 + 4]byte
	n, err := io.ReadFull(r, tmp[:])
	if err == nil {
		o.Env = models.EnvID(order.Uint32(tmp[:]))
		o.Addr = order.Uint32(tmp[4:])
		o.Code = order.Uint32(tmp[8:])
	}
	return n, err
}

func (o *OpFault) String() string {
	kind := "read"
	if o.Code&models.FEC_WR != 0 {
		kind = "write"
	}
	return fmt.Sprintf("[%s] page fault %s va %08x err %x", o.Env, kind, o.Addr, o.Code)
}

type OpExit struct {
	Env models.EnvID
}

func (o *OpExit) Sizeof() int { return 1 + 4 }
func (o *OpExit) Pack(p []byte) {
	p[0] = OP_EXIT
	order.PutUint32(p[1:], uint32(o.Env))
}

func (o *OpExit) Unpack(r io.Reader) (int, error) {
	var tmp [4]byte
	n, err := io.ReadFull(r, tmp[:])
	if err == nil {
		o.Env = models.EnvID(order.Uint32(tmp[:]))
	}
	return n, err
}

func (o *OpExit) String() string { return fmt.Sprintf("[%s] exit", o.Env) }
