package trace

import (
	"encoding/json"
	"fmt"
)

func bprintf(f string, args ...interface{}) []byte {
	return []byte(fmt.Sprintf(f, args...))
}

func (o *OpNop) MarshalJSON() ([]byte, error) {
	return bprintf(`{"op":%d}`, OP_NOP), nil
}

func (o *OpSpawn) MarshalJSON() ([]byte, error) {
	name, err := json.Marshal(o.Name)
	if err != nil {
		return nil, err
	}
	return bprintf(`{"op":%d,"env":%d,"type":%d,"name":%s}`, OP_SPAWN, o.Env, o.Type, name), nil
}

func (o *OpSyscall) MarshalJSON() ([]byte, error) {
	args, err := json.Marshal(o.Args)
	if err != nil {
		return nil, err
	}
	if o.Args == nil {
		args = []byte("[]")
	}
	return bprintf(`{"op":%d,"env":%d,"num":%d,"name":%q,"ret":%d,"args":%s}`, OP_SYSCALL, o.Env, o.Num, o.Name(), o.Ret, args), nil
}

func (o *OpFault) MarshalJSON() ([]byte, error) {
	return bprintf(`{"op":%d,"env":%d,"addr":%d,"code":%d}`, OP_FAULT, o.Env, o.Addr, o.Code), nil
}

func (o *OpExit) MarshalJSON() ([]byte, error) {
	return bprintf(`{"op":%d,"env":%d}`, OP_EXIT, o.Env), nil
}
