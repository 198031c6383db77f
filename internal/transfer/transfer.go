// Package transfer moves one file's bytes into the object store. It picks a
// strategy by size and runs either the single-shot or the resumable driver.
package transfer

import (
	"context"
	"io"
	"time"
)

type Strategy string

const (
	Standard  Strategy = "standard"
	Resumable Strategy = "resumable"
)

// Select returns Standard for size <= threshold and Resumable above it.
func Select(size, threshold int64) Strategy {
	if size <= threshold {
		return Standard
	}
	return Resumable
}

// Source describes the local file being sent.
type Source struct {
	Name        string
	ContentType string
	Size        int64
	ModTime     time.Time
	Content     io.ReaderAt
}

// Request is one transfer. Progress, when set, receives percentages in
// [0,100]; sends never block, so slow readers miss intermediate values.
type Request struct {
	Source
	StoragePath string
	Progress    chan<- int
}

// Result reports where the bytes landed. StoragePath differs from the
// requested one only when a previous resumable session was continued.
type Result struct {
	StoragePath string
}

type Driver interface {
	Transfer(ctx context.Context, req Request) (Result, error)
}

func report(ch chan<- int, percent int) {
	if ch == nil {
		return
	}
	select {
	case ch <- percent:
	default:
	}
}
