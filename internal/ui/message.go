package ui

import (
	"anisync/internal/sync"
)

// progressMsg wraps one engine progress update.
type progressMsg sync.ProgressUpdate

// decisionMsg surfaces a pending operation awaiting the operator's answer.
type decisionMsg decisionRequest

// syncDoneMsg reports the completed run.
type syncDoneMsg struct {
	summary *sync.Summary
	err     error
}
