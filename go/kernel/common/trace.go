package common

import (
	"fmt"
	"strings"

	"github.com/exocorn/exocorn/go/models"
)

func hex(a interface{}) string {
	tmp := fmt.Sprintf("0x%x", a)
	if strings.HasPrefix(tmp, "0x-") {
		tmp = "-0x" + tmp[3:]
	}
	return tmp
}

func (s Syscall) traceArg(args ...interface{}) string {
	switch arg := args[0].(type) {
	case Buf:
		if len(args) > 1 {
			if length, ok := args[1].(Len); ok {
				if mem, err := arg.Peek(length); err == nil {
					return models.Repr(mem, s.Kernel.Strsize)
				}
			}
		}
		return hex(arg.Addr)
	case VA:
		return hex(uint32(arg))
	case Len:
		return fmt.Sprintf("%d", uint32(arg))
	case models.EnvID:
		return arg.String()
	case models.Perm:
		return arg.String()
	case models.Status:
		return arg.String()
	case uint32:
		return hex(arg)
	default:
		return fmt.Sprintf("%v", arg)
	}
}

func (s Syscall) traceArgs(regs []uint64) string {
	if len(regs) < len(s.In) {
		return "?"
	}
	inRef, err := s.Kernel.Argjoy.Convert(s.In, false, regs[:len(s.In)])
	if err != nil {
		return err.Error()
	}
	in := make([]interface{}, len(inRef))
	for i, val := range inRef {
		in[i] = val.Interface()
	}
	ret := make([]string, len(in))
	for i := range in {
		ret[i] = s.traceArg(in[i:]...)
	}
	return strings.Join(ret, ", ")
}

func (s Syscall) Trace(regs []uint64) string {
	return fmt.Sprintf("%s(%s)", s.Name, s.traceArgs(regs))
}

// TraceRet formats a result: errors by name, ids in env form, the rest in hex.
func (s Syscall) TraceRet(ret int32) string {
	switch {
	case ret < 0:
		return " = -" + models.Errno(-ret).Sym()
	case s.Name == "exofork" || s.Name == "getenvid":
		return " = " + models.EnvID(ret).String()
	case s.Name == "cgetc" && ret >= 0x20 && ret < 0x7f:
		return fmt.Sprintf(" = %q", rune(ret))
	}
	return " = " + hex(ret)
}
