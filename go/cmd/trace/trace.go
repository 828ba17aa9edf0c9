package trace

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/exocorn/exocorn/go/cmd"
	"github.com/exocorn/exocorn/go/models/trace"
)

func PrintJson(w io.Writer, tf *trace.TraceReader) error {
	out, err := json.Marshal(&tf.Header)
	if err != nil {
		return errors.Wrap(err, "error printing header")
	}
	fmt.Fprintf(w, "%s\n", out)
	for {
		op, err := tf.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			return errors.Wrap(err, "error reading next trace operation")
		}
		out, err := json.Marshal(op)
		if err != nil {
			return errors.Wrapf(err, "error encoding %T", op)
		}
		fmt.Fprintf(w, "%s\n", out)
	}
	return nil
}

// PrintPretty writes one line per op along with per-env syscall and fault totals.
func PrintPretty(w io.Writer, tf *trace.TraceReader) error {
	h := tf.Header
	fmt.Fprintf(w, "trace v%d: %d pages, %d envs\n", h.Version, h.PhysPages, h.MaxEnvs)
	var syscalls, faults, envs int
	for {
		op, err := tf.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			return errors.Wrap(err, "error reading next trace operation")
		}
		switch op.(type) {
		case *trace.OpSyscall:
			syscalls++
		case *trace.OpFault:
			faults++
		case *trace.OpSpawn:
			envs++
		}
		fmt.Fprintln(w, op)
	}
	fmt.Fprintf(w, "%d spawns, %d syscalls, %d faults\n", envs, syscalls, faults)
	return nil
}

func Main(args []string) {
	fs := flag.NewFlagSet("args", flag.ExitOnError)
	jsonFlag := fs.Bool("json", false, "output trace as line-delimited JSON objects")
	fs.Usage = func() {
		fmt.Printf("Usage: %s [options] <tracefile>\n", args[0])
		fs.PrintDefaults()
	}

	fs.Parse(args[1:])
	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(1)
	}
	args = fs.Args()

	f, err := os.Open(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open: %s %v\n", args[0], err)
		os.Exit(1)
	}
	tf, err := trace.NewReader(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening trace file: %v\n", err)
		os.Exit(1)
	}
	defer tf.Close()
	if *jsonFlag {
		err = PrintJson(os.Stdout, tf)
	} else {
		err = PrintPretty(os.Stdout, tf)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error printing trace: %v\n", err)
		os.Exit(1)
	}
}

func init() { cmd.Register("trace", "dump a saved trace file", Main) }
