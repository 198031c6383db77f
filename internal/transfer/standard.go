package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/skydrive/internal/common"
	"github.com/dmitrijs2005/skydrive/internal/logging"
)

const (
	standardStartPercent = 10
	standardStepPercent  = 5
	standardCapPercent   = 85
)

// Putter is the part of the object store the standard driver needs.
type Putter interface {
	Put(ctx context.Context, path string, body io.Reader, size int64, contentType string) error
}

// StandardDriver sends the whole file in one non-overwriting write while
// ticking synthetic progress. The write is bounded by Timeout; on expiry the
// request context is cancelled, though the remote write may still have
// landed.
type StandardDriver struct {
	store   Putter
	timeout time.Duration
	tick    time.Duration
	log     logging.Logger
}

// NewStandardDriver falls back to common.StandardTimeout and
// common.ProgressTick for non-positive durations.
func NewStandardDriver(store Putter, timeout, tick time.Duration, log logging.Logger) *StandardDriver {
	if timeout <= 0 {
		timeout = common.StandardTimeout
	}
	if tick <= 0 {
		tick = common.ProgressTick
	}
	return &StandardDriver{
		store:   store,
		timeout: timeout,
		tick:    tick,
		log:     log.With("module", "transfer", "strategy", string(Standard)),
	}
}

func (d *StandardDriver) Transfer(ctx context.Context, req Request) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		body := io.NewSectionReader(req.Content, 0, req.Size)
		done <- d.store.Put(ctx, req.StoragePath, body, req.Size, req.ContentType)
	}()

	ticker := time.NewTicker(d.tick)
	defer ticker.Stop()

	progress := standardStartPercent
	for {
		select {
		case err := <-done:
			if err != nil {
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					return Result{}, d.timedOut(ctx, req)
				}
				return Result{}, fmt.Errorf("upload %s: %w", req.Name, err)
			}
			return Result{StoragePath: req.StoragePath}, nil

		case <-ticker.C:
			if progress < standardCapPercent {
				progress = min(progress+standardStepPercent, standardCapPercent)
				report(req.Progress, progress)
			}

		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return Result{}, d.timedOut(ctx, req)
			}
			return Result{}, ctx.Err()
		}
	}
}

func (d *StandardDriver) timedOut(ctx context.Context, req Request) error {
	d.log.Warn(ctx, "standard upload timed out", "file", req.Name, "path", req.StoragePath, "timeout", d.timeout.String())
	return fmt.Errorf("upload %s after %s: %w", req.Name, d.timeout, common.ErrorTimeout)
}
