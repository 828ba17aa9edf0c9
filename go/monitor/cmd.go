// Package monitor is an interactive kernel monitor for inspecting and
// steering a machine between runs.
package monitor

import (
	"fmt"
	"reflect"

	"github.com/lunixbochs/argjoy"
	"github.com/mattn/go-shellwords"
	"github.com/pkg/errors"
)

type Command struct {
	Name  string
	Usage string
	Desc  string
	Run   interface{}
}

var Commands = make(map[string]*Command)

func cmd(c *Command) *Command {
	fn := reflect.ValueOf(c.Run)
	if !fn.IsValid() || fn.Kind() != reflect.Func {
		panic(fmt.Sprintf("Command.Run must be a func: got (%T) %#v\n", c.Run, c.Run))
	}
	Commands[c.Name] = c
	return c
}

// ErrContinue is returned by Exec when the user asks to resume the machine.
var ErrContinue = errors.New("continue")

var aj argjoy.Argjoy

func init() {
	aj.Register(numCodec)
	aj.Register(argjoy.IntToInt)
}

// Exec parses and runs one command line. Command errors are printed, only
// ErrContinue is returned.
func Exec(c *Context, line string) error {
	args, err := shellwords.Parse(line)
	if err != nil {
		c.Printf("parse error: %v\n", err)
		return nil
	}
	if len(args) == 0 {
		return nil
	}
	name, args := args[0], args[1:]
	cmd, ok := Commands[name]
	if !ok {
		c.Printf("command not found.\n")
		return nil
	}
	err = call(cmd, c, args)
	if err == ErrContinue {
		return err
	} else if err != nil {
		c.Printf("error: %v\n", err)
	}
	return nil
}

func call(cmd *Command, c *Context, args []string) error {
	fn := reflect.ValueOf(cmd.Run)
	typ := fn.Type()
	in := []reflect.Value{reflect.ValueOf(c)}
	if typ.IsVariadic() {
		for _, a := range args {
			in = append(in, reflect.ValueOf(a))
		}
	} else {
		if len(args) != typ.NumIn()-1 {
			return errors.Errorf("usage: %s %s", cmd.Name, cmd.Usage)
		}
		types := make([]reflect.Type, typ.NumIn()-1)
		for i := range types {
			types[i] = typ.In(i + 1)
		}
		converted, err := aj.Convert(types, false, args)
		if err != nil {
			return errors.Wrapf(err, "usage: %s %s", cmd.Name, cmd.Usage)
		}
		in = append(in, converted...)
	}
	out := fn.Call(in)
	if len(out) > 0 {
		if err, ok := out[0].Interface().(error); ok {
			return err
		}
	}
	return nil
}
