package common

import (
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lunixbochs/argjoy"
	"github.com/pkg/errors"
)

type KernelBase struct {
	Syscalls map[string]Syscall
	// syscall names indexed by number
	Numbers []string
	Argjoy  argjoy.Argjoy

	// Peek reads the current environment's memory for trace output. It must not fault.
	Peek    func(addr, n uint32) ([]byte, error)
	Strsize int

	byNum []*Syscall
}

func (k *KernelBase) ExoKernel() *KernelBase {
	return k
}

type Kernel interface {
	ExoKernel() *KernelBase
}

func camelToSnakeCase(name string) string {
	var words []string
	last := 0
	for i, c := range name {
		if unicode.IsUpper(c) {
			if i > 0 {
				words = append(words, name[last:i])
			}
			last = i
		}
	}
	words = append(words, name[last:])
	return strings.ToLower(strings.Join(words, "_"))
}

// Init builds the dispatch table from kf's exported methods. Only methods
// whose snake_case name appears in numbers become syscalls, so helpers on the
// kernel type are never reachable from user code.
func Init(kf Kernel, numbers []string) error {
	k := kf.ExoKernel()
	k.Numbers = numbers
	k.Syscalls = make(map[string]Syscall)
	wanted := make(map[string]bool, len(numbers))
	for _, name := range numbers {
		wanted[name] = true
	}
	instance := reflect.ValueOf(kf)
	typ := instance.Type()
	for i := 0; i < typ.NumMethod(); i++ {
		method := typ.Method(i)
		if r, size := utf8.DecodeRuneInString(method.Name); size <= 0 || !unicode.IsUpper(r) {
			continue
		}
		name := camelToSnakeCase(method.Name)
		if !wanted[name] {
			continue
		}
		in := make([]reflect.Type, method.Type.NumIn()-1)
		for j := 1; j < method.Type.NumIn(); j++ {
			in[j-1] = method.Type.In(j)
		}
		out := make([]reflect.Type, method.Type.NumOut())
		for j := 0; j < method.Type.NumOut(); j++ {
			out[j] = method.Type.Out(j)
		}
		k.Syscalls[name] = Syscall{
			Name:     name,
			Kernel:   k,
			Instance: instance,
			Method:   method,
			In:       in,
			Out:      out,
		}
	}
	k.byNum = make([]*Syscall, len(numbers))
	for num, name := range numbers {
		sys, ok := k.Syscalls[name]
		if !ok {
			return errors.Wrap(NoHandler, name)
		}
		sys.Num = uint32(num)
		k.Syscalls[name] = sys
		k.byNum[num] = &sys
	}
	k.Argjoy.Register(k.commonArgCodec)
	k.Argjoy.Register(argjoy.IntToInt)
	return nil
}

// Lookup returns the syscall for a number, or nil for unknown numbers.
func (k *KernelBase) Lookup(num uint32) *Syscall {
	if int(num) >= len(k.byNum) {
		return nil
	}
	return k.byNum[num]
}

func (k *KernelBase) LookupName(name string) *Syscall {
	if sys, ok := k.Syscalls[name]; ok {
		return &sys
	}
	return nil
}
