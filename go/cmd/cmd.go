package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime/pprof"
	"strings"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	exocorn "github.com/exocorn/exocorn/go"
	"github.com/exocorn/exocorn/go/models"
	"github.com/exocorn/exocorn/go/monitor"
	"github.com/exocorn/exocorn/go/progs"
)

type ExoCmd struct {
	Config *models.Config
	Flags  *flag.FlagSet

	// console input and output
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	Machine *exocorn.Machine
}

func NewExoCmd() *ExoCmd {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	return &ExoCmd{Flags: fs, Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

func (c *ExoCmd) PrintError(err error) {
	// print an error, and a stacktrace if available
	w := c.Stderr
	fmt.Fprintf(w, "%s\n", strings.Repeat("-", 40))
	fmt.Fprintf(w, "Error: %s\n", err)
	if err, ok := errors.Cause(err).(stackTracer); ok {
		var frames [][]string
		for _, f := range err.StackTrace() {
			method := fmt.Sprintf("%n", f)
			frames = append(frames, []string{fmt.Sprintf("%s:%d", f, f), method})
			if method == "main" {
				break
			}
		}
		width := 0
		for _, f := range frames {
			if len(f[0]) > width {
				width = len(f[0])
			}
		}
		for _, f := range frames {
			fmt.Fprintf(w, "%s%s | %s()\n", f[0], strings.Repeat(" ", width-len(f[0])), f[1])
		}
	}
}

// Run boots the named programs and returns a process exit code.
func (c *ExoCmd) Run(argv []string) int {
	fs := c.Flags
	fs.SetOutput(c.Stderr)
	configPath := fs.String("config", "", "config file (default: config.toml in the user config dir)")
	strace := fs.Bool("strace", false, "trace syscalls")
	tracefile := fs.String("to", "", "binary trace output file")
	strsize := fs.Int("strsize", 30, "limit -strace'd strings to length (0 disables)")
	color := fs.Bool("color", false, "colorize -strace output")
	pages := fs.Int("pages", 0, "physical memory size in pages")
	envs := fs.Int("envs", 0, "environment table size")
	metrics := fs.String("metrics", "", "serve prometheus metrics on this address")
	mon := fs.Bool("monitor", false, "enter the kernel monitor before and after the run")
	verbose := fs.Bool("v", false, "verbose output")
	outfile := fs.String("o", "", "redirect debugging output to file (default stderr)")
	cpuprofile := fs.String("cpuprofile", "", "write cpu profile to <file>")

	fs.Usage = func() {
		fmt.Fprintf(c.Stderr, "Usage: %s [options] <program> [program...]\n\nOptions:\n", argv[0])
		var flags []*flag.Flag
		fs.VisitAll(func(f *flag.Flag) { flags = append(flags, f) })
		printFlags(c.Stderr, flags)
		fmt.Fprintf(c.Stderr, "\nPrograms:\n")
		for _, p := range progs.All() {
			fmt.Fprintf(c.Stderr, "  %-12s %s\n", p.Name, p.Desc)
		}
	}
	if err := fs.Parse(argv[1:]); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return 1
	}
	var boot []*progs.Prog
	for _, name := range fs.Args() {
		p, ok := progs.Lookup(name)
		if !ok {
			fmt.Fprintf(c.Stderr, "unknown program %q\n", name)
			return 1
		}
		boot = append(boot, p)
	}

	config, err := models.LoadConfig(*configPath)
	if err != nil {
		c.PrintError(err)
		return 1
	}
	// explicit flags override the config file
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "strace":
			config.TraceSys = *strace
		case "to":
			config.TraceFile = *tracefile
		case "strsize":
			config.Strsize = *strsize
		case "color":
			config.Color = *color
		case "pages":
			config.PhysPages = *pages
		case "envs":
			config.MaxEnvs = *envs
		case "metrics":
			config.MetricsAddr = *metrics
		case "v":
			config.Verbose = *verbose
		}
	})
	if err := config.Validate(); err != nil {
		c.PrintError(err)
		return 1
	}
	if *outfile != "" {
		out, err := os.OpenFile(*outfile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			c.PrintError(err)
			return 1
		}
		defer out.Close()
		config.Output = out
	}
	c.Config = config

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			c.PrintError(err)
			return 1
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	m, err := exocorn.NewMachine(config, c.Stdout)
	if err != nil {
		c.PrintError(err)
		return 1
	}
	c.Machine = m
	defer m.Close()

	if config.MetricsAddr != "" {
		srv := &http.Server{
			Addr:    config.MetricsAddr,
			Handler: promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}),
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				m.Log.Error("metrics server", zap.Error(err))
			}
		}()
		defer srv.Close()
	}

	for _, p := range boot {
		if _, err := m.Spawn(p.Name, p.Type, p.Main); err != nil {
			c.PrintError(err)
			return 1
		}
	}

	var mn *monitor.Monitor
	if *mon {
		if mn, err = monitor.New(m.Kernel); err != nil {
			c.PrintError(err)
			return 1
		}
		defer mn.Close()
		if !mn.Run() {
			return 0
		}
	} else {
		go m.Console.Pump(c.Stdin)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	err = m.Run(ctx)
	if mn != nil {
		mn.Run()
	}
	if err != nil && errors.Cause(err) != context.Canceled {
		c.PrintError(err)
		return 1
	}
	return 0
}
