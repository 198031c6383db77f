// Package httpapi exposes the HTTP surface used by browser clients: public
// share link resolution and a websocket stream of file list, upload task and
// notification updates.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/skydrive/internal/logging"
	"github.com/dmitrijs2005/skydrive/internal/state"
)

// ShareResolver turns a share id into a download link.
type ShareResolver interface {
	ResolveShare(ctx context.Context, id string) (string, error)
}

type Server struct {
	address  string
	shares   ShareResolver
	files    *state.FileStore
	tasks    *state.TaskStore
	hub      *Hub
	secret   []byte
	origin   string
	logger   logging.Logger
	shutdown time.Duration
}

func NewServer(address string, l logging.Logger, shares ShareResolver, files *state.FileStore, tasks *state.TaskStore, hub *Hub, secretKey, origin string) *Server {
	return &Server{
		address:  address,
		shares:   shares,
		files:    files,
		tasks:    tasks,
		hub:      hub,
		secret:   []byte(secretKey),
		origin:   origin,
		logger:   l.With("module", "http_server"),
		shutdown: 5 * time.Second,
	}
}

// Handler routes the public endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /share/{id}", s.handleShare)
	mux.Handle("GET /events", s.accessToken(http.HandlerFunc(s.handleEvents)))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

// Run serves until ctx is cancelled, then drains open requests.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		s.hub.Close()
		sctx, cancel := context.WithTimeout(context.Background(), s.shutdown)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
