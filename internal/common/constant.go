// Package common contains shared constants and sentinel errors used across
// SkyDrive components.
package common

import "time"

// Bucket is the object-store bucket holding every user's files.
const Bucket = "files"

// DefaultContentType is used when a local file carries no MIME type.
const DefaultContentType = "application/octet-stream"

const (
	// ResumableThreshold is the largest size still sent single-shot (20 MiB).
	ResumableThreshold int64 = 20 * 1024 * 1024

	// ChunkSize is the resumable transfer unit (6 MiB).
	ChunkSize int64 = 6 * 1024 * 1024

	// StorageQuota is the per-user allocation reported next to usage (5 GiB).
	StorageQuota int64 = 5 * 1024 * 1024 * 1024
)

const (
	StandardTimeout = 120 * time.Second
	ProgressTick    = 1200 * time.Millisecond
	TaskLinger      = 500 * time.Millisecond
	SignedURLTTL    = time.Hour
)

// ResumableRetryDelays is the wait before each automatic retry of a failed
// resumable chunk. Its length is the retry budget.
var ResumableRetryDelays = []time.Duration{
	0,
	3 * time.Second,
	5 * time.Second,
	10 * time.Second,
	20 * time.Second,
}
