package ui

import (
	"fmt"

	"anisync/internal/confirm"
	"anisync/internal/shared"
)

// decision is the operator's answer to one pending operation.
type decision int

const (
	decisionApply decision = iota
	decisionSkip
	decisionForce
	decisionAbort
)

// decisionRequest carries a pending operation from the engine goroutine into
// the TUI event loop; reply carries the operator's answer back.
type decisionRequest struct {
	op    confirm.Op
	reply chan decision
}

// Confirmer implements [confirm.Confirmer] by routing major operations
// through the TUI and blocking the engine until the operator answers. Minor
// operations apply without a prompt, and "apply all" stops prompting for the
// rest of the run.
type Confirmer struct {
	requests chan decisionRequest
	forceAll bool
}

func newConfirmer() *Confirmer {
	return &Confirmer{requests: make(chan decisionRequest)}
}

// Confirm blocks until the TUI replies. Called from the engine goroutine.
func (c *Confirmer) Confirm(op confirm.Op) (bool, error) {
	if !op.IsMajor() || c.forceAll {
		return true, nil
	}

	reply := make(chan decision, 1)
	c.requests <- decisionRequest{op: op, reply: reply}

	switch <-reply {
	case decisionApply:
		return true, nil
	case decisionSkip:
		return false, nil
	case decisionForce:
		c.forceAll = true
		return true, nil
	default:
		return false, fmt.Errorf("%w: declined %s for media %d", shared.ErrUserAbort, op.Kind(), op.MediaID())
	}
}
