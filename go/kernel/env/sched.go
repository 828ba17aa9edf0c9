package env

import (
	"github.com/exocorn/exocorn/go/models"
)

// Next picks the first runnable environment after prev in slot order,
// wrapping around and considering prev itself last. A nil prev starts at slot 0.
func (t *Table) Next(prev *Env) *Env {
	n := len(t.envs)
	start := 0
	if prev != nil {
		start = models.ENVX(prev.ID) + 1
	}
	for i := 0; i < n; i++ {
		e := &t.envs[(start+i)%n]
		if e.Status == models.ENV_RUNNABLE {
			return e
		}
	}
	return nil
}

// Blocked reports whether every live environment is waiting on something.
func (t *Table) Blocked() bool {
	blocked := false
	for i := range t.envs {
		switch t.envs[i].Status {
		case models.ENV_RUNNABLE, models.ENV_RUNNING:
			return false
		case models.ENV_NOT_RUNNABLE:
			blocked = true
		}
	}
	return blocked
}
