package cons

import (
	"bufio"
	"io"
	"strings"
	"sync"

	"github.com/lunixbochs/vtclean"
	"github.com/pkg/errors"
)

// Console is the machine's character device. Output goes straight to a host
// writer, input is queued by the host and drained by cgetc without blocking.
type Console struct {
	mu    sync.Mutex
	in    []byte
	out   io.Writer
	clean bool
}

// New returns a console writing to out. With clean set, terminal escape
// sequences in user output are stripped.
func New(out io.Writer, clean bool) *Console {
	if out == nil {
		out = io.Discard
	}
	return &Console{out: out, clean: clean}
}

func (c *Console) ReadChar() (byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.in) == 0 {
		return 0, false
	}
	b := c.in[0]
	c.in = c.in[1:]
	return b, true
}

func (c *Console) Write(p []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.clean {
		lines := strings.Split(string(p), "\n")
		for i, line := range lines {
			lines[i] = vtclean.Clean(line, false)
		}
		p = []byte(strings.Join(lines, "\n"))
	}
	c.out.Write(p)
}

// Feed queues input for cgetc.
func (c *Console) Feed(p []byte) {
	c.mu.Lock()
	c.in = append(c.in, p...)
	c.mu.Unlock()
}

// Pending reports how many input bytes are queued.
func (c *Console) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.in)
}

// Pump feeds r into the input queue until EOF.
func (c *Console) Pump(r io.Reader) error {
	br := bufio.NewReader(r)
	buf := make([]byte, 256)
	for {
		n, err := br.Read(buf)
		if n > 0 {
			c.Feed(buf[:n])
		}
		if err == io.EOF {
			return nil
		} else if err != nil {
			return errors.Wrap(err, "console input")
		}
	}
}
