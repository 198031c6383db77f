// Package upload fans a batch of local files into independent upload tasks.
// Each task moves through Pending, Transferring, Committing and ends Done or
// Failed; its progress flows over a channel owned by that task alone.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/skydrive/internal/common"
	"github.com/dmitrijs2005/skydrive/internal/logging"
	"github.com/dmitrijs2005/skydrive/internal/models"
	"github.com/dmitrijs2005/skydrive/internal/notify"
	"github.com/dmitrijs2005/skydrive/internal/state"
	"github.com/dmitrijs2005/skydrive/internal/transfer"
)

// LocalFile is one file picked for upload. Content is closed after the task
// ends when it implements io.Closer.
type LocalFile struct {
	Name        string
	Size        int64
	ContentType string
	ModTime     time.Time
	Content     io.ReaderAt
}

// SessionSource yields the signed-in user.
type SessionSource interface {
	Session() (models.Session, bool)
}

// RecordWriter is the metadata store commit point.
type RecordWriter interface {
	Insert(ctx context.Context, f models.NewFile) (*models.File, error)
}

// PublicURLs builds thumbnail links.
type PublicURLs interface {
	PublicURL(path string) string
}

// Options tunes a Coordinator. Zero values take the package defaults.
type Options struct {
	Threshold  int64
	TaskLinger time.Duration
}

type Coordinator struct {
	sessions  SessionSource
	standard  transfer.Driver
	resumable transfer.Driver
	records   RecordWriter
	urls      PublicURLs
	files     *state.FileStore
	tasks     *state.TaskStore
	notifier  notify.Notifier
	opts      Options
	log       logging.Logger

	now   func() time.Time
	newID func() string

	wg sync.WaitGroup
}

func NewCoordinator(
	sessions SessionSource,
	standard, resumable transfer.Driver,
	records RecordWriter,
	urls PublicURLs,
	files *state.FileStore,
	tasks *state.TaskStore,
	notifier notify.Notifier,
	opts Options,
	log logging.Logger,
) *Coordinator {
	if opts.Threshold <= 0 {
		opts.Threshold = common.ResumableThreshold
	}
	if opts.TaskLinger <= 0 {
		opts.TaskLinger = common.TaskLinger
	}
	return &Coordinator{
		sessions:  sessions,
		standard:  standard,
		resumable: resumable,
		records:   records,
		urls:      urls,
		files:     files,
		tasks:     tasks,
		notifier:  notifier,
		opts:      opts,
		log:       log.With("module", "upload"),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// StoragePath allocates "{owner}/{unixMillis}_{uuid}{.ext}" with the
// original extension lowercased.
func StoragePath(ownerID, fileName string, at time.Time, unique string) string {
	return fmt.Sprintf("%s/%d_%s%s", ownerID, at.UnixMilli(), unique, strings.ToLower(filepath.Ext(fileName)))
}

// contentTypeOf falls back to the extension, then to octet-stream.
func contentTypeOf(f LocalFile) string {
	if f.ContentType != "" {
		return f.ContentType
	}
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(f.Name))); t != "" {
		if mt, _, err := mime.ParseMediaType(t); err == nil {
			return mt
		}
		return t
	}
	return common.DefaultContentType
}

// SubmitBatch registers one task per file and starts them concurrently.
// It returns once the tasks are registered; outcomes show up in the file
// list, the task collection and notifications. Cancelling ctx aborts the
// transfers still running.
func (c *Coordinator) SubmitBatch(ctx context.Context, files []LocalFile) {
	session, ok := c.sessions.Session()
	if !ok {
		for _, f := range files {
			closeContent(f)
		}
		notify.Error(ctx, c.notifier, "Sign in to upload files", common.Kind(common.ErrorUnauthorized))
		return
	}
	if len(files) == 0 {
		return
	}

	batch := make([]models.UploadTask, 0, len(files))
	for _, f := range files {
		batch = append(batch, models.UploadTask{
			ID:        c.newID(),
			FileName:  f.Name,
			SizeBytes: f.Size,
			State:     models.TaskPending,
			Strategy:  string(transfer.Select(f.Size, c.opts.Threshold)),
		})
	}
	c.tasks.Update(func(l state.TaskList) state.TaskList { return state.AddTasks(l, batch...) })

	for i, f := range files {
		c.wg.Add(1)
		go c.run(ctx, session.UserID, batch[i], f)
	}
}

// Wait blocks until every submitted task has finished its pipeline.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

func (c *Coordinator) run(ctx context.Context, ownerID string, task models.UploadTask, f LocalFile) {
	defer c.wg.Done()
	defer closeContent(f)

	log := c.log.With("task", task.ID, "file", f.Name)
	contentType := contentTypeOf(f)
	path := StoragePath(ownerID, f.Name, c.now(), c.newID())

	driver := c.standard
	if transfer.Strategy(task.Strategy) == transfer.Resumable {
		driver = c.resumable
	}

	progress := make(chan int, 16)
	forwarded := make(chan struct{})
	go func() {
		defer close(forwarded)
		for p := range progress {
			c.advance(task.ID, p)
		}
	}()

	c.setState(task.ID, models.TaskTransferring, 10)
	log.Debug(ctx, "transfer started", "strategy", task.Strategy, "path", path, "size", f.Size)

	res, err := driver.Transfer(ctx, transfer.Request{
		Source: transfer.Source{
			Name:        f.Name,
			ContentType: contentType,
			Size:        f.Size,
			ModTime:     f.ModTime,
			Content:     f.Content,
		},
		StoragePath: path,
		Progress:    progress,
	})
	close(progress)
	<-forwarded

	if err != nil {
		c.fail(ctx, log, task, err)
		return
	}

	c.setState(task.ID, models.TaskCommitting, 70)

	var thumbnail string
	if models.IsImageType(contentType) {
		thumbnail = c.urls.PublicURL(res.StoragePath)
	}

	rec, err := c.records.Insert(ctx, models.NewFile{
		OwnerID:      ownerID,
		DisplayName:  f.Name,
		StoragePath:  res.StoragePath,
		SizeBytes:    f.Size,
		MIMEType:     contentType,
		ThumbnailURL: thumbnail,
	})
	if err != nil {
		// the object stays unreferenced; no collector reclaims it
		log.Warn(ctx, "metadata write failed, object orphaned", "path", res.StoragePath, "error", err)
		if !errors.Is(err, common.ErrorStoreWriteFailed) {
			err = fmt.Errorf("%w: %w", common.ErrorStoreWriteFailed, err)
		}
		c.fail(ctx, log, task, err)
		return
	}

	// the list belongs to whoever is signed in now
	if session, ok := c.sessions.Session(); ok && session.UserID == ownerID {
		c.files.Update(func(l state.FileList) state.FileList { return state.Prepend(l, *rec) })
	} else {
		log.Info(ctx, "session changed during upload, record not listed", "id", rec.ID, "owner", ownerID)
	}
	c.setState(task.ID, models.TaskDone, 100)
	log.Info(ctx, "upload complete", "id", rec.ID, "path", rec.StoragePath)

	time.AfterFunc(c.opts.TaskLinger, func() {
		c.tasks.Update(func(l state.TaskList) state.TaskList { return state.RemoveTask(l, task.ID) })
	})
}

func (c *Coordinator) fail(ctx context.Context, log logging.Logger, task models.UploadTask, err error) {
	c.tasks.Update(func(l state.TaskList) state.TaskList { return state.RemoveTask(l, task.ID) })
	log.Error(ctx, "upload failed", "kind", common.Kind(err), "error", err)
	notify.Error(ctx, c.notifier, fmt.Sprintf("Failed to upload %s: %v", task.FileName, err), common.Kind(err))
}

// advance raises progress while transferring; it never moves it backwards.
func (c *Coordinator) advance(id string, percent int) {
	percent = max(0, min(100, percent))
	c.tasks.Update(func(l state.TaskList) state.TaskList {
		t, ok := state.FindTask(l, id)
		if !ok || t.State != models.TaskTransferring || percent <= t.Progress {
			return l
		}
		return state.ModifyTask(l, id, func(t *models.UploadTask) { t.Progress = percent })
	})
}

// setState moves the task and lifts its progress to at least percent.
func (c *Coordinator) setState(id string, s models.TaskState, percent int) {
	c.tasks.Update(func(l state.TaskList) state.TaskList {
		return state.ModifyTask(l, id, func(t *models.UploadTask) {
			t.State = s
			t.Progress = max(t.Progress, percent)
		})
	})
}

func closeContent(f LocalFile) {
	if cl, ok := f.Content.(io.Closer); ok {
		_ = cl.Close()
	}
}
