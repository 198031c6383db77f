// Package app wires the SkyDrive client: stores, transfer drivers, the upload
// coordinator, the lifecycle machine, the HTTP surface and the REPL. It
// handles signals and drains in-flight uploads on exit.
package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/skydrive/internal/auth"
	"github.com/dmitrijs2005/skydrive/internal/cli"
	"github.com/dmitrijs2005/skydrive/internal/config"
	"github.com/dmitrijs2005/skydrive/internal/httpapi"
	"github.com/dmitrijs2005/skydrive/internal/lifecycle"
	"github.com/dmitrijs2005/skydrive/internal/logging"
	"github.com/dmitrijs2005/skydrive/internal/metastore"
	"github.com/dmitrijs2005/skydrive/internal/models"
	"github.com/dmitrijs2005/skydrive/internal/notify"
	"github.com/dmitrijs2005/skydrive/internal/objectstore"
	"github.com/dmitrijs2005/skydrive/internal/state"
	"github.com/dmitrijs2005/skydrive/internal/transfer"
	"github.com/dmitrijs2005/skydrive/internal/transfer/fingerprints"
	"github.com/dmitrijs2005/skydrive/internal/transfer/tus"
	"github.com/dmitrijs2005/skydrive/internal/upload"
	"github.com/dmitrijs2005/skydrive/internal/urlcache"
)

// Seams for tests.
var (
	openMetadata     = metastore.OpenPostgres
	openFingerprints = fingerprints.Open
	newObjectStore   = func(ctx context.Context, o objectstore.Options) (objectstore.Store, error) {
		return objectstore.NewS3Store(ctx, o)
	}
	newRedisCache = func(ctx context.Context, addr string) (urlcache.Cache, error) {
		return urlcache.NewRedisCache(ctx, addr)
	}
)

type App struct {
	config *config.Config
	logger logging.Logger

	provider    *auth.LocalProvider
	coordinator *upload.Coordinator
	machine     *lifecycle.Machine
	server      *httpapi.Server
	console     *cli.App

	in      io.Reader
	closers []func() error
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stderr, c.LogLevel)
	app := &App{config: c, logger: logger, in: os.Stdin}

	db, err := openMetadata(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("metadata store init error: %w", err)
	}
	app.closers = append(app.closers, db.Close)
	repo := metastore.NewPostgresRepository(db)

	objects, err := newObjectStore(ctx, objectstore.Options{
		Region:        c.S3Region,
		AccessKey:     c.S3RootUser,
		SecretKey:     c.S3RootPassword,
		BaseEndpoint:  c.S3BaseEndpoint,
		Bucket:        c.S3Bucket,
		PublicBaseURL: c.PublicBaseURL,
	})
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("object store init error: %w", err)
	}

	var cache urlcache.Cache = urlcache.NewMemoryCache()
	if c.RedisAddr != "" {
		if cache, err = newRedisCache(ctx, c.RedisAddr); err != nil {
			app.Close()
			return nil, fmt.Errorf("url cache init error: %w", err)
		}
	}
	app.closers = append(app.closers, cache.Close)

	fpDB, err := openFingerprints(ctx, c.LocalDBPath)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("fingerprint store init error: %w", err)
	}
	app.closers = append(app.closers, fpDB.Close)

	session, err := tus.NewClient(c.ResumableEndpoint, &http.Client{})
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("resumable endpoint: %w", err)
	}

	app.provider = auth.NewLocalProvider(c.SecretKey, c.AccessTokenValidityDuration)
	files := state.NewFileStore()
	tasks := state.NewTaskStore()
	hub := httpapi.NewHub()
	notifier := notify.Fanout{cli.NewConsoleNotifier(os.Stdout), hub, notify.NewLogNotifier(logger)}

	standard := transfer.NewStandardDriver(objects, c.StandardTimeout, c.ProgressTick, logger)
	resumable := transfer.NewResumableDriver(session, app.provider, fingerprints.NewSQLiteStore(fpDB), transfer.ResumableOptions{
		Endpoint:   c.ResumableEndpoint,
		ServiceKey: c.ServiceKey,
		Bucket:     c.S3Bucket,
		ChunkSize:  c.ChunkSize,
	}, logger)

	app.coordinator = upload.NewCoordinator(app.provider, standard, resumable, repo, objects, files, tasks, notifier,
		upload.Options{Threshold: c.ResumableThreshold, TaskLinger: c.TaskLinger}, logger)
	app.machine = lifecycle.NewMachine(repo, objects, cache, app.provider, files, tasks, notifier,
		lifecycle.Options{Origin: c.SiteOrigin, SignedURLTTL: c.SignedURLTTL}, logger)

	if c.HTTPAddr != "" {
		app.server = httpapi.NewServer(c.HTTPAddr, logger, app.machine, files, tasks, hub, c.SecretKey, c.SiteOrigin)
	}

	app.console = cli.NewApp(app.coordinator, app.machine, files, tasks, app.provider,
		models.Session{UserID: c.UserID, Email: c.UserEmail}, c.StorageQuota, os.Stdout)

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until the REPL exits or a signal arrives. Leaving the REPL lets
// running uploads finish; a signal aborts them.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	stopWatch := app.machine.Watch(ctx)
	defer stopWatch()

	var wg sync.WaitGroup
	if app.server != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startHTTPServer(ctx, cancelFunc)
		}()
	}

	replDone := make(chan struct{})
	go func() {
		defer close(replDone)
		app.console.Root(ctx, app.in)
	}()

	select {
	case <-replDone:
		app.logger.Info(ctx, "Waiting for uploads to finish...")
		app.coordinator.Wait()
	case <-ctx.Done():
		app.coordinator.Wait()
	}
	cancelFunc()
	wg.Wait()

	app.Close()
	app.logger.Info(context.Background(), "Stopped")
}

// Close releases stores in reverse order of opening.
func (app *App) Close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			app.logger.Warn(context.Background(), "close failed", "error", err)
		}
	}
	app.closers = nil
}
