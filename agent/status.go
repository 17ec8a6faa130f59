package agent

// Status is the lifecycle state of an agent instance.
type Status string

const (
	// StatusIdle is the state of a freshly created agent, and the state
	// Resume restores from StatusSuspended. A finished execution leaves the
	// agent in StatusCompleted or StatusFailed.
	StatusIdle Status = "IDLE"

	// StatusRunning is set for the duration of an Execute call.
	StatusRunning Status = "RUNNING"

	// StatusCompleted is set when Run returns successfully.
	StatusCompleted Status = "COMPLETED"

	// StatusFailed is set when Run raises a failure.
	StatusFailed Status = "FAILED"

	// StatusSuspended is forced by Suspend from any state, and can only be
	// left by Resume.
	StatusSuspended Status = "SUSPENDED"
)
