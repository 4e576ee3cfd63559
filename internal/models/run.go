package models

// RunStatus is the server-side status of an assistant run
type RunStatus string

// Known run statuses. The service may add more; any value that is not
// pending is treated as terminal.
const (
	RunStatusQueued         RunStatus = "queued"
	RunStatusInProgress     RunStatus = "in_progress"
	RunStatusCompleted      RunStatus = "completed"
	RunStatusFailed         RunStatus = "failed"
	RunStatusCancelling     RunStatus = "cancelling"
	RunStatusCancelled      RunStatus = "cancelled"
	RunStatusExpired        RunStatus = "expired"
	RunStatusIncomplete     RunStatus = "incomplete"
	RunStatusRequiresAction RunStatus = "requires_action"
)

// IsPending reports whether the poller should keep waiting on this status
func (s RunStatus) IsPending() bool {
	return s == RunStatusQueued || s == RunStatusInProgress
}

// IsTerminal reports whether no further polling is needed
func (s RunStatus) IsTerminal() bool {
	return !s.IsPending()
}

// IsCompleted reports terminal success
func (s RunStatus) IsCompleted() bool {
	return s == RunStatusCompleted
}

// Run is a snapshot of one in-flight assistant turn
type Run struct {
	ID       string
	ThreadID string
	Status   RunStatus
	// LastError is the service's explanation for a failed run, if any
	LastError string
}
