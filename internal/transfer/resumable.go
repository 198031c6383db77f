package transfer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/skydrive/internal/common"
	"github.com/dmitrijs2005/skydrive/internal/logging"
	"github.com/dmitrijs2005/skydrive/internal/transfer/fingerprints"
	"github.com/dmitrijs2005/skydrive/internal/transfer/tus"
)

// Session is the resumable protocol as the driver uses it.
type Session interface {
	Create(ctx context.Context, auth tus.Auth, length int64, meta tus.Metadata) (string, error)
	Offset(ctx context.Context, auth tus.Auth, uploadURL string) (int64, error)
	Patch(ctx context.Context, auth tus.Auth, uploadURL string, offset int64, body io.Reader, size int64) (int64, error)
}

// FingerprintStore remembers unfinished sessions between runs.
type FingerprintStore interface {
	Find(ctx context.Context, fingerprint string) ([]fingerprints.Record, error)
	Save(ctx context.Context, r fingerprints.Record) error
	Remove(ctx context.Context, fingerprint string) error
	RemoveURL(ctx context.Context, uploadURL string) error
}

// TokenSource mints a bearer credential on every call.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// ResumableOptions configures a ResumableDriver.
type ResumableOptions struct {
	Endpoint   string
	ServiceKey string
	Bucket     string
	ChunkSize  int64
	// RetryDelays is the wait before each retry of a failed step.
	RetryDelays []time.Duration
}

// ResumableDriver sends a file in sequential chunks over the resumable
// protocol, continuing a prior session for the same file when one exists.
type ResumableDriver struct {
	session Session
	tokens  TokenSource
	records FingerprintStore
	opts    ResumableOptions
	log     logging.Logger
}

func NewResumableDriver(session Session, tokens TokenSource, records FingerprintStore, opts ResumableOptions, log logging.Logger) *ResumableDriver {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = common.ChunkSize
	}
	if opts.RetryDelays == nil {
		opts.RetryDelays = common.ResumableRetryDelays
	}
	return &ResumableDriver{
		session: session,
		tokens:  tokens,
		records: records,
		opts:    opts,
		log:     log.With("module", "transfer", "strategy", string(Resumable)),
	}
}

// Fingerprint identifies a local file for session discovery.
func Fingerprint(src Source, endpoint string) string {
	key := strings.Join([]string{
		"tus-br",
		src.Name,
		src.ContentType,
		strconv.FormatInt(src.Size, 10),
		strconv.FormatInt(src.ModTime.UnixMilli(), 10),
		endpoint,
	}, "-")
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// ChunkCount returns how many PATCH requests a file of size needs.
func ChunkCount(size, chunk int64) int64 {
	if size <= 0 {
		return 0
	}
	return (size + chunk - 1) / chunk
}

func (d *ResumableDriver) backoff() retry.Backoff {
	delays := d.opts.RetryDelays
	i := 0
	return retry.BackoffFunc(func() (time.Duration, bool) {
		if i >= len(delays) {
			return 0, true
		}
		next := delays[i]
		i++
		return next, false
	})
}

// transient reports whether err deserves another attempt.
func transient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *tus.StatusError
	if !errors.As(err, &se) {
		return true
	}
	switch se.Code {
	case http.StatusConflict, http.StatusLocked, http.StatusTooManyRequests:
		return true
	}
	return se.Code >= 500
}

type upload struct {
	url    string
	path   string
	offset int64
}

func (d *ResumableDriver) Transfer(ctx context.Context, req Request) (Result, error) {
	if d.opts.ServiceKey == "" {
		return Result{}, fmt.Errorf("resumable upload: %w: service key is not configured", common.ErrorPrecondition)
	}
	token, err := d.tokens.AccessToken(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("resumable upload: %w: bearer token: %w", common.ErrorPrecondition, err)
	}
	if token == "" {
		return Result{}, fmt.Errorf("resumable upload: %w: empty bearer token", common.ErrorPrecondition)
	}
	auth := tus.Auth{Bearer: token, APIKey: d.opts.ServiceKey}
	fp := Fingerprint(req.Source, d.opts.Endpoint)

	up, ok := d.resume(ctx, auth, fp, req)
	if !ok {
		up, err = d.create(ctx, auth, fp, req)
		if err != nil {
			return Result{}, err
		}
	}

	report(req.Progress, percent(up.offset, req.Size))

	for up.offset < req.Size {
		if err := d.sendChunk(ctx, auth, &up, req); err != nil {
			return Result{}, d.failed(ctx, req, "send chunk", err)
		}
		report(req.Progress, percent(up.offset, req.Size))
	}

	if err := d.records.Remove(ctx, fp); err != nil {
		d.log.Warn(ctx, "failed to clear fingerprint", "file", req.Name, "error", err)
	}
	return Result{StoragePath: up.path}, nil
}

// resume picks the most recent stored session and reads its offset.
// Sessions the server no longer knows are discarded.
func (d *ResumableDriver) resume(ctx context.Context, auth tus.Auth, fp string, req Request) (upload, bool) {
	records, err := d.records.Find(ctx, fp)
	if err != nil {
		d.log.Warn(ctx, "fingerprint lookup failed", "file", req.Name, "error", err)
		return upload{}, false
	}

	for _, r := range records {
		var offset int64
		err := retry.Do(ctx, d.backoff(), func(ctx context.Context) error {
			var err error
			offset, err = d.session.Offset(ctx, auth, r.UploadURL)
			if err != nil && transient(err) {
				return retry.RetryableError(err)
			}
			return err
		})
		if err == nil && offset <= req.Size {
			d.log.Info(ctx, "resuming upload", "file", req.Name, "path", r.ObjectPath, "offset", offset)
			return upload{url: r.UploadURL, path: r.ObjectPath, offset: offset}, true
		}

		d.log.Info(ctx, "discarding stale session", "file", req.Name, "url", r.UploadURL, "error", err)
		if err := d.records.RemoveURL(ctx, r.UploadURL); err != nil {
			d.log.Warn(ctx, "failed to discard session", "url", r.UploadURL, "error", err)
		}
	}
	return upload{}, false
}

func (d *ResumableDriver) create(ctx context.Context, auth tus.Auth, fp string, req Request) (upload, error) {
	contentType := req.ContentType
	if contentType == "" {
		contentType = common.DefaultContentType
	}
	meta := tus.Metadata{
		"bucketName":   d.opts.Bucket,
		"objectName":   req.StoragePath,
		"contentType":  contentType,
		"cacheControl": "3600",
	}

	var url string
	err := retry.Do(ctx, d.backoff(), func(ctx context.Context) error {
		var err error
		url, err = d.session.Create(ctx, auth, req.Size, meta)
		if err != nil && transient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return upload{}, d.failed(ctx, req, "create session", err)
	}

	if err := d.records.Save(ctx, fingerprints.Record{
		Fingerprint: fp,
		UploadURL:   url,
		ObjectPath:  req.StoragePath,
		Size:        req.Size,
	}); err != nil {
		d.log.Warn(ctx, "failed to store fingerprint", "file", req.Name, "error", err)
	}
	return upload{url: url, path: req.StoragePath}, nil
}

// sendChunk sends the chunk at up.offset. After a transient failure the
// server offset is re-read so the retry starts where the server stands.
func (d *ResumableDriver) sendChunk(ctx context.Context, auth tus.Auth, up *upload, req Request) error {
	return retry.Do(ctx, d.backoff(), func(ctx context.Context) error {
		if up.offset >= req.Size {
			return nil
		}
		n := min(d.opts.ChunkSize, req.Size-up.offset)
		body := io.NewSectionReader(req.Content, up.offset, n)

		next, err := d.session.Patch(ctx, auth, up.url, up.offset, body, n)
		if err == nil {
			if next <= up.offset || next > req.Size {
				return fmt.Errorf("server acknowledged offset %d after %d", next, up.offset)
			}
			up.offset = next
			return nil
		}
		if !transient(err) {
			return err
		}

		d.log.Debug(ctx, "chunk failed, retrying", "file", req.Name, "offset", up.offset, "error", err)
		if off, herr := d.session.Offset(ctx, auth, up.url); herr == nil && off <= req.Size {
			up.offset = off
		}
		return retry.RetryableError(err)
	})
}

func (d *ResumableDriver) failed(ctx context.Context, req Request, step string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	d.log.Error(ctx, "resumable upload failed", "file", req.Name, "step", step, "error", err)
	return fmt.Errorf("upload %s: %s: %w: %w", req.Name, step, common.ErrorTransferFailed, err)
}

func percent(done, total int64) int {
	if total <= 0 {
		return 100
	}
	return int(done * 100 / total)
}
