// Package lifecycle applies trash, restore, delete and share transitions to
// file records. Every transition writes the metadata store first and mirrors
// the result into the shared file list only after the write is confirmed.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrijs2005/skydrive/internal/auth"
	"github.com/dmitrijs2005/skydrive/internal/common"
	"github.com/dmitrijs2005/skydrive/internal/logging"
	"github.com/dmitrijs2005/skydrive/internal/metastore"
	"github.com/dmitrijs2005/skydrive/internal/models"
	"github.com/dmitrijs2005/skydrive/internal/notify"
	"github.com/dmitrijs2005/skydrive/internal/state"
	"github.com/dmitrijs2005/skydrive/internal/urlcache"
)

// Objects is the part of the object store the machine needs.
type Objects interface {
	Remove(ctx context.Context, paths []string) error
	SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)
}

// Sessions is the part of the auth provider the machine needs.
type Sessions interface {
	Session() (models.Session, bool)
	Subscribe(fn func(auth.Event)) (unsubscribe func())
}

type Options struct {
	// Origin prefixes share links: Origin + "/share/" + id.
	Origin       string
	SignedURLTTL time.Duration
}

type Machine struct {
	repo     metastore.Repository
	objects  Objects
	urls     urlcache.Cache
	sessions Sessions
	files    *state.FileStore
	tasks    *state.TaskStore
	notifier notify.Notifier
	opts     Options
	log      logging.Logger

	signing singleflight.Group
	now     func() time.Time
}

func NewMachine(
	repo metastore.Repository,
	objects Objects,
	urls urlcache.Cache,
	sessions Sessions,
	files *state.FileStore,
	tasks *state.TaskStore,
	notifier notify.Notifier,
	opts Options,
	log logging.Logger,
) *Machine {
	if opts.SignedURLTTL <= 0 {
		opts.SignedURLTTL = common.SignedURLTTL
	}
	return &Machine{
		repo:     repo,
		objects:  objects,
		urls:     urls,
		sessions: sessions,
		files:    files,
		tasks:    tasks,
		notifier: notifier,
		opts:     opts,
		log:      log.With("module", "lifecycle"),
		now:      time.Now,
	}
}

// ShareURL is the public link of record id under origin.
func ShareURL(origin, id string) string {
	return origin + "/share/" + id
}

func (m *Machine) find(id string) (models.File, bool) {
	return state.Find(m.files.Snapshot().Value, id)
}

// owner returns the signed-in user every write on f is scoped to. A record
// of anyone else is reported as missing.
func (m *Machine) owner(op string, f models.File) (string, error) {
	session, ok := m.sessions.Session()
	if !ok {
		return "", fmt.Errorf("%s %s: %w", op, f.ID, common.ErrorUnauthorized)
	}
	if f.OwnerID != session.UserID {
		return "", fmt.Errorf("%s %s: %w", op, f.ID, common.ErrorNotFound)
	}
	return session.UserID, nil
}

// Trash moves an active record to the trash. Unknown ids and records already
// trashed are left alone.
func (m *Machine) Trash(ctx context.Context, id string) error {
	f, ok := m.find(id)
	if !ok || f.IsTrashed {
		m.log.Debug(ctx, "trash skipped", "id", id, "known", ok)
		return nil
	}
	owner, err := m.owner("trash", f)
	if err != nil {
		return err
	}

	at := m.now().UTC()
	if err := m.repo.UpdateTrash(ctx, owner, id, true, &at); err != nil {
		m.log.Error(ctx, "trash failed", "id", id, "error", err)
		notify.Error(ctx, m.notifier, "Failed to move to trash", common.Kind(err))
		return fmt.Errorf("trash %s: %w", id, err)
	}

	m.files.Update(func(l state.FileList) state.FileList {
		return state.Modify(l, id, func(f *models.File) {
			f.IsTrashed = true
			f.TrashedAt = &at
		})
	})
	notify.Success(ctx, m.notifier, "Moved to trash")
	return nil
}

// Restore brings a trashed record back. Active records are left alone.
func (m *Machine) Restore(ctx context.Context, id string) error {
	f, ok := m.find(id)
	if !ok || !f.IsTrashed {
		m.log.Debug(ctx, "restore skipped", "id", id, "known", ok)
		return nil
	}
	owner, err := m.owner("restore", f)
	if err != nil {
		return err
	}

	if err := m.repo.UpdateTrash(ctx, owner, id, false, nil); err != nil {
		m.log.Error(ctx, "restore failed", "id", id, "error", err)
		notify.Error(ctx, m.notifier, "Failed to restore file", common.Kind(err))
		return fmt.Errorf("restore %s: %w", id, err)
	}

	m.files.Update(func(l state.FileList) state.FileList {
		return state.Modify(l, id, func(f *models.File) {
			f.IsTrashed = false
			f.TrashedAt = nil
		})
	})
	notify.Success(ctx, m.notifier, "File restored")
	return nil
}

// PermanentDelete removes the object and then its record. Object removal is
// best-effort; the record delete decides the outcome. Storage goes first so
// an interruption leaves a dangling row rather than an unreachable object.
func (m *Machine) PermanentDelete(ctx context.Context, id string) error {
	f, ok := m.find(id)
	if !ok {
		return fmt.Errorf("delete %s: %w", id, common.ErrorNotFound)
	}
	owner, err := m.owner("delete", f)
	if err != nil {
		return err
	}

	if err := m.objects.Remove(ctx, []string{f.StoragePath}); err != nil {
		m.log.Warn(ctx, "object removal failed", "id", id, "path", f.StoragePath, "error", err)
	}
	m.forgetURL(ctx, f.StoragePath)

	err = m.repo.Delete(ctx, owner, id)
	switch {
	case err == nil:
	case errors.Is(err, common.ErrorNotFound):
		// a concurrent delete got there first
		m.files.Update(func(l state.FileList) state.FileList { return state.Remove(l, id) })
		m.log.Info(ctx, "record already deleted", "id", id)
		return fmt.Errorf("delete %s: %w", id, err)
	default:
		m.log.Error(ctx, "record delete failed", "id", id, "error", err)
		notify.Error(ctx, m.notifier, "Failed to delete metadata", common.Kind(err))
		return fmt.Errorf("delete %s: %w", id, err)
	}

	m.files.Update(func(l state.FileList) state.FileList { return state.Remove(l, id) })
	notify.Success(ctx, m.notifier, "File permanently deleted")
	return nil
}

// EmptyTrash deletes every trashed record of the signed-in user in two bulk
// calls and returns how many records left the list.
func (m *Machine) EmptyTrash(ctx context.Context) (int, error) {
	session, ok := m.sessions.Session()
	if !ok {
		return 0, fmt.Errorf("empty trash: %w", common.ErrorUnauthorized)
	}

	trashed := state.Trash(m.files.Snapshot().Value)
	paths := make([]string, 0, len(trashed))
	for _, f := range trashed {
		paths = append(paths, f.StoragePath)
	}

	if len(paths) > 0 {
		if err := m.objects.Remove(ctx, paths); err != nil {
			m.log.Warn(ctx, "trash object removal incomplete", "count", len(paths), "error", err)
		}
		for _, p := range paths {
			m.forgetURL(ctx, p)
		}
	}

	rows, err := m.repo.DeleteTrashed(ctx, session.UserID)
	if err != nil {
		m.log.Error(ctx, "empty trash failed", "error", err)
		notify.Error(ctx, m.notifier, "Failed to empty trash", common.Kind(err))
		return 0, fmt.Errorf("empty trash: %w", err)
	}
	if rows != int64(len(trashed)) {
		m.log.Info(ctx, "trash rows differ from list", "rows", rows, "listed", len(trashed))
	}

	m.files.Update(func(l state.FileList) state.FileList {
		return state.RemoveWhere(l, func(f models.File) bool { return f.IsTrashed })
	})
	notify.Success(ctx, m.notifier, fmt.Sprintf("Cleared %d items from trash", len(trashed)))
	return len(trashed), nil
}

// ToggleShare flips sharing with one metadata write. The list changes only
// after the write succeeds.
func (m *Machine) ToggleShare(ctx context.Context, id string) error {
	f, ok := m.find(id)
	if !ok {
		return fmt.Errorf("share %s: %w", id, common.ErrorNotFound)
	}
	owner, err := m.owner("share", f)
	if err != nil {
		return err
	}

	shared := !f.IsShared
	var link string
	if shared {
		link = ShareURL(m.opts.Origin, id)
	}

	if err := m.repo.UpdateShare(ctx, owner, id, shared, link); err != nil {
		m.log.Error(ctx, "share update failed", "id", id, "error", err)
		notify.Error(ctx, m.notifier, "Failed to update share status", common.Kind(err))
		return fmt.Errorf("share %s: %w", id, err)
	}

	m.files.Update(func(l state.FileList) state.FileList {
		return state.Modify(l, id, func(f *models.File) {
			f.IsShared = shared
			f.ShareURL = link
		})
	})
	if shared {
		notify.Success(ctx, m.notifier, "Sharing enabled")
	} else {
		notify.Success(ctx, m.notifier, "Sharing disabled")
	}
	return nil
}

// Rename changes the display name. The storage path never changes.
func (m *Machine) Rename(ctx context.Context, id, name string) error {
	f, ok := m.find(id)
	if !ok {
		return fmt.Errorf("rename %s: %w", id, common.ErrorNotFound)
	}
	if name == "" {
		return fmt.Errorf("rename %s: %w: empty name", id, common.ErrorPrecondition)
	}
	if name == f.DisplayName {
		return nil
	}
	owner, err := m.owner("rename", f)
	if err != nil {
		return err
	}

	if err := m.repo.UpdateName(ctx, owner, id, name); err != nil {
		m.log.Error(ctx, "rename failed", "id", id, "error", err)
		notify.Error(ctx, m.notifier, "Failed to rename file", common.Kind(err))
		return fmt.Errorf("rename %s: %w", id, err)
	}

	m.files.Update(func(l state.FileList) state.FileList {
		return state.Modify(l, id, func(f *models.File) { f.DisplayName = name })
	})
	notify.Success(ctx, m.notifier, "File renamed")
	return nil
}

// Refresh reloads the signed-in user's records from the metadata store.
func (m *Machine) Refresh(ctx context.Context) error {
	if err := m.sync(ctx); err != nil {
		return err
	}
	if _, ok := m.sessions.Session(); ok {
		notify.Success(ctx, m.notifier, "Synced with SkyDrive")
	}
	return nil
}

func (m *Machine) sync(ctx context.Context) error {
	session, ok := m.sessions.Session()
	if !ok {
		m.files.Set(state.FileList{})
		return nil
	}

	rows, err := m.repo.ListByOwner(ctx, session.UserID)
	if err != nil {
		m.log.Error(ctx, "load files failed", "user", session.UserID, "error", err)
		notify.Error(ctx, m.notifier, "Failed to load files", common.Kind(err))
		return fmt.Errorf("sync: %w", err)
	}

	list := make(state.FileList, 0, len(rows))
	for _, r := range rows {
		list = append(list, *r)
	}
	m.files.Set(list)
	m.log.Debug(ctx, "files loaded", "user", session.UserID, "count", len(list))
	return nil
}

// Watch follows session changes: sign-in loads the user's files, sign-out
// clears the file list and the task collection.
func (m *Machine) Watch(ctx context.Context) (stop func()) {
	return m.sessions.Subscribe(func(ev auth.Event) {
		switch ev.Kind {
		case auth.SignedIn:
			m.log.Info(ctx, "session started", "user", ev.Session.UserID)
			_ = m.sync(ctx)
		case auth.SignedOut:
			m.log.Info(ctx, "session ended")
			m.files.Set(state.FileList{})
			m.tasks.Set(state.TaskList{})
		}
	})
}
