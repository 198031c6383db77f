package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/dmitrijs2005/skydrive/internal/common"
	"github.com/dmitrijs2005/skydrive/internal/lifecycle"
	"github.com/dmitrijs2005/skydrive/internal/models"
	"github.com/dmitrijs2005/skydrive/internal/state"
	"github.com/dmitrijs2005/skydrive/internal/upload"
)

// Uploader queues local files.
type Uploader interface {
	SubmitBatch(ctx context.Context, files []upload.LocalFile)
}

// Lifecycle is the record-level surface the CLI drives.
type Lifecycle interface {
	Trash(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
	PermanentDelete(ctx context.Context, id string) error
	EmptyTrash(ctx context.Context) (int, error)
	ToggleShare(ctx context.Context, id string) error
	Rename(ctx context.Context, id, name string) error
	Refresh(ctx context.Context) error
	SignedURL(ctx context.Context, path string) (string, error)
	Files(q lifecycle.Query) state.FileList
	Usage(quota int64) lifecycle.Usage
}

// Sessions signs the configured identity in and out.
type Sessions interface {
	Session() (models.Session, bool)
	SignIn(ctx context.Context, s models.Session) error
	SignOut(ctx context.Context)
}

type App struct {
	uploader Uploader
	life     Lifecycle
	files    *state.FileStore
	tasks    *state.TaskStore
	sessions Sessions
	identity models.Session
	quota    int64
	out      io.Writer
}

func NewApp(uploader Uploader, life Lifecycle, files *state.FileStore, tasks *state.TaskStore,
	sessions Sessions, identity models.Session, quota int64, out io.Writer) *App {
	return &App{
		uploader: uploader,
		life:     life,
		files:    files,
		tasks:    tasks,
		sessions: sessions,
		identity: identity,
		quota:    quota,
		out:      out,
	}
}

func (a *App) isLoggedIn() bool {
	_, ok := a.sessions.Session()
	return ok
}

func (a *App) getStatus() string {
	s, ok := a.sessions.Session()
	if !ok {
		return ""
	}
	name := s.Email
	if name == "" {
		name = s.UserID
	}
	if n := len(a.tasks.Snapshot().Value); n > 0 {
		return fmt.Sprintf("(%s, %d uploading)", name, n)
	}
	return fmt.Sprintf("(%s)", name)
}

// Root signs in the configured identity and runs the REPL on in.
func (a *App) Root(ctx context.Context, in io.Reader) {
	fmt.Fprintln(a.out, "Welcome to SkyDrive CLI (type 'help' for commands)")
	_ = a.Login(ctx, nil)
	runREPL(ctx, a, a.getStatus, bufio.NewScanner(in))
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// Login signs in as the configured user, or as the email given.
func (a *App) Login(ctx context.Context, args []string) error {
	s := a.identity
	if len(args) > 0 {
		s.Email = args[0]
	}
	if err := a.sessions.SignIn(ctx, s); err != nil {
		a.printf("Login failed: %v\n", err)
		return err
	}
	a.printf("Logged in as %s\n", fallback(s.Email, s.UserID))
	return nil
}

func (a *App) Logout(ctx context.Context, _ []string) error {
	a.sessions.SignOut(ctx)
	a.printf("Logged out\n")
	return nil
}

// Upload queues every path as one batch. Paths that cannot be opened are
// reported and skipped.
func (a *App) Upload(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.printf("Usage: upload <path>...\n")
		return common.ErrorPrecondition
	}

	batch := make([]upload.LocalFile, 0, len(args))
	for _, p := range args {
		f, err := openLocal(p)
		if err != nil {
			a.printf("Skipping %s: %v\n", p, err)
			continue
		}
		batch = append(batch, f)
	}
	if len(batch) == 0 {
		return common.ErrorPrecondition
	}

	a.uploader.SubmitBatch(ctx, batch)
	a.printf("Queued %d file(s); type 'tasks' to follow progress\n", len(batch))
	return nil
}

func openLocal(path string) (upload.LocalFile, error) {
	fh, err := os.Open(path)
	if err != nil {
		return upload.LocalFile{}, err
	}
	st, err := fh.Stat()
	if err != nil {
		_ = fh.Close()
		return upload.LocalFile{}, err
	}
	if st.IsDir() {
		_ = fh.Close()
		return upload.LocalFile{}, fmt.Errorf("%s is a directory", path)
	}
	return upload.LocalFile{
		Name:    st.Name(),
		Size:    st.Size(),
		ModTime: st.ModTime(),
		Content: fh,
	}, nil
}

// List prints a view: ls [view] [search...].
func (a *App) List(_ context.Context, args []string) error {
	var q lifecycle.Query
	if len(args) > 0 {
		sec, err := lifecycle.ParseSection(args[0])
		if err != nil {
			a.printf("Unknown view %q\n", args[0])
			return err
		}
		q.Section = sec
		q.Search = strings.Join(args[1:], " ")
	}

	list := a.life.Files(q)
	if len(list) == 0 {
		a.printf("No files\n")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSIZE\tTYPE\tUPLOADED\tFLAGS")
	for _, f := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(f.ID), f.DisplayName, humanize.IBytes(uint64(f.SizeBytes)),
			f.Category(), f.UploadedAt.Local().Format("2006-01-02 15:04"), flags(f))
	}
	return tw.Flush()
}

func flags(f models.File) string {
	var out []string
	if f.IsShared {
		out = append(out, "shared")
	}
	if f.IsTrashed {
		if f.TrashedAt != nil {
			out = append(out, "trashed "+humanize.Time(*f.TrashedAt))
		} else {
			out = append(out, "trashed")
		}
	}
	return strings.Join(out, ",")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (a *App) Tasks(_ context.Context, _ []string) error {
	list := a.tasks.Snapshot().Value
	if len(list) == 0 {
		a.printf("No uploads in progress\n")
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSIZE\tSTRATEGY\tSTATE\tPROGRESS")
	for _, t := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d%%\n",
			t.FileName, humanize.IBytes(uint64(t.SizeBytes)), t.Strategy, t.State, t.Progress)
	}
	return tw.Flush()
}

// resolve finds the record whose id equals or uniquely starts with prefix.
func (a *App) resolve(args []string) (models.File, error) {
	if len(args) == 0 || args[0] == "" {
		return models.File{}, fmt.Errorf("missing file id: %w", common.ErrorPrecondition)
	}
	prefix := args[0]

	var found []models.File
	for _, f := range a.files.Snapshot().Value {
		if f.ID == prefix {
			return f, nil
		}
		if strings.HasPrefix(f.ID, prefix) {
			found = append(found, f)
		}
	}
	switch len(found) {
	case 0:
		return models.File{}, fmt.Errorf("no file matches %q: %w", prefix, common.ErrorNotFound)
	case 1:
		return found[0], nil
	default:
		return models.File{}, fmt.Errorf("%q matches %d files: %w", prefix, len(found), common.ErrorPrecondition)
	}
}

// withFile resolves the id argument and runs fn on the record.
func (a *App) withFile(args []string, usage string, fn func(f models.File) error) error {
	f, err := a.resolve(args)
	if err != nil {
		if errors.Is(err, common.ErrorPrecondition) && len(args) == 0 {
			a.printf("Usage: %s\n", usage)
		} else {
			a.printf("%v\n", err)
		}
		return err
	}
	return fn(f)
}

func (a *App) Trash(ctx context.Context, args []string) error {
	return a.withFile(args, "trash <id>", func(f models.File) error {
		if f.IsTrashed {
			a.printf("%s is already in the trash\n", f.DisplayName)
			return nil
		}
		if err := a.life.Trash(ctx, f.ID); err != nil {
			return err
		}
		a.printf("Undo with: restore %s\n", shortID(f.ID))
		return nil
	})
}

func (a *App) Restore(ctx context.Context, args []string) error {
	return a.withFile(args, "restore <id>", func(f models.File) error {
		return a.life.Restore(ctx, f.ID)
	})
}

func (a *App) Remove(ctx context.Context, args []string) error {
	return a.withFile(args, "rm <id>", func(f models.File) error {
		return a.life.PermanentDelete(ctx, f.ID)
	})
}

func (a *App) EmptyTrash(ctx context.Context, _ []string) error {
	_, err := a.life.EmptyTrash(ctx)
	return err
}

func (a *App) Share(ctx context.Context, args []string) error {
	return a.withFile(args, "share <id>", func(f models.File) error {
		if err := a.life.ToggleShare(ctx, f.ID); err != nil {
			return err
		}
		if !f.IsShared {
			if now, ok := state.Find(a.files.Snapshot().Value, f.ID); ok {
				a.printf("Share link: %s\n", now.ShareURL)
			}
		}
		return nil
	})
}

func (a *App) Rename(ctx context.Context, args []string) error {
	if len(args) < 2 {
		a.printf("Usage: rename <id> <name>\n")
		return common.ErrorPrecondition
	}
	return a.withFile(args, "rename <id> <name>", func(f models.File) error {
		return a.life.Rename(ctx, f.ID, strings.Join(args[1:], " "))
	})
}

func (a *App) URL(ctx context.Context, args []string) error {
	return a.withFile(args, "url <id>", func(f models.File) error {
		u, err := a.life.SignedURL(ctx, f.StoragePath)
		if err != nil {
			a.printf("Could not create link: %v\n", err)
			return err
		}
		a.printf("%s\n", u)
		return nil
	})
}

func (a *App) Sync(ctx context.Context, _ []string) error {
	return a.life.Refresh(ctx)
}

func (a *App) Usage(_ context.Context, _ []string) error {
	u := a.life.Usage(a.quota)
	a.printf("%s of %s used (%.1f%%)\n", humanize.IBytes(uint64(u.Used)), humanize.IBytes(uint64(u.Quota)), u.Percent())
	return nil
}

func fallback(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
