package models

// TaskState is the position of an upload task in its pipeline:
// Pending -> Transferring -> Committing -> Done, or Failed from any of them.
type TaskState string

const (
	TaskPending      TaskState = "pending"
	TaskTransferring TaskState = "transferring"
	TaskCommitting   TaskState = "committing"
	TaskDone         TaskState = "done"
	TaskFailed       TaskState = "failed"
)

// Terminal reports whether no further transitions follow.
func (s TaskState) Terminal() bool {
	return s == TaskDone || s == TaskFailed
}

// UploadTask is the ephemeral, UI-facing view of one file being uploaded.
// It is never persisted.
type UploadTask struct {
	ID        string    `json:"id"`
	FileName  string    `json:"name"`
	SizeBytes int64     `json:"size"`
	Progress  int       `json:"progress"`
	State     TaskState `json:"state"`
	Strategy  string    `json:"strategy,omitempty"`
}
