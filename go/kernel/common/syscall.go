package common

import (
	"fmt"
	"reflect"
)

type Syscall struct {
	Num      uint32
	Name     string
	Kernel   *KernelBase
	Instance reflect.Value
	Method   reflect.Method
	In       []reflect.Type
	Out      []reflect.Type
}

var uint64Type = reflect.TypeOf(uint64(0))

// Call a syscall from the dispatch table. Will panic() if anything goes terribly wrong.
// Registers past the handler's parameter count are ignored.
func (sys Syscall) Call(args []uint64) uint64 {
	if len(args) < len(sys.In) {
		panic(fmt.Sprintf("not enough arguments to syscall '%s': wanted %d, got %d", sys.Name, len(sys.In), len(args)))
	}
	in := make([]reflect.Value, len(sys.In)+1)
	in[0] = sys.Instance
	converted, err := sys.Kernel.Argjoy.Convert(sys.In, false, args[:len(sys.In)])
	if err != nil {
		msg := fmt.Sprintf("calling %T.%s(): %s", sys.Instance.Interface(), sys.Method.Name, err)
		panic(msg)
	}
	copy(in[1:], converted)
	out := sys.Method.Func.Call(in)
	// return output if first return of function is representable as an int type
	if len(out) > 0 && out[0].Type().ConvertibleTo(uint64Type) {
		return out[0].Convert(uint64Type).Uint()
	}
	return 0
}
