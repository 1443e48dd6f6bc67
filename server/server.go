// Package server exposes the wiki over HTTP: document pages, the staged
// approval-sync workflow, the purge action, and a small JSON/WebSocket API
// around the fallback job queue.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/walkwithdeath/SMWApprovedRevsDataSync/config"
	"github.com/walkwithdeath/SMWApprovedRevsDataSync/jobs"
	"github.com/walkwithdeath/SMWApprovedRevsDataSync/rendercache"
	"github.com/walkwithdeath/SMWApprovedRevsDataSync/semantic"
	"github.com/walkwithdeath/SMWApprovedRevsDataSync/truthsync"
	"github.com/walkwithdeath/SMWApprovedRevsDataSync/wiki"
)

// Server wires the content store, semantic index, sync engine, and fallback
// worker pool behind one HTTP surface.
type Server struct {
	cfg      *config.Config
	db       *sql.DB
	store    *wiki.SQLStore
	index    *semantic.SQLIndex
	deriver  *semantic.Deriver
	cache    *rendercache.Cache
	engine   *truthsync.Engine
	queue    *jobs.Queue
	daemon   *jobs.WorkerPool
	sessions *SessionLocks
	logger   *zap.SugaredLogger

	httpServer *http.Server
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// New builds a server over an opened (and migrated) database
func New(cfg *config.Config, database *sql.DB, logger *zap.SugaredLogger) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	store := wiki.NewSQLStore(database, logger)
	index := semantic.NewSQLIndex(database, logger)
	cache := rendercache.New()
	engine := truthsync.NewEngine(store, store, index, cache, cfg.Sync.Enabled, logger)

	queue := jobs.NewQueue(database)
	daemon := jobs.NewWorkerPoolWithContext(ctx, queue, jobs.WorkerPoolConfig{
		Workers:       cfg.Jobs.Workers,
		PollInterval:  time.Duration(cfg.Jobs.PollIntervalSeconds) * time.Second,
		RatePerMinute: cfg.Jobs.RatePerMinute,
		MaxRetries:    cfg.Jobs.MaxRetries,
	}, logger)
	daemon.Registry().Register(truthsync.NewReconcileHandler(engine))

	s := &Server{
		cfg:      cfg,
		db:       database,
		store:    store,
		index:    index,
		deriver:  semantic.NewDeriver(),
		cache:    cache,
		engine:   engine,
		queue:    queue,
		daemon:   daemon,
		sessions: NewSessionLocks(),
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	return s
}

// Start launches the worker pool and serves HTTP until Shutdown
func (s *Server) Start() error {
	s.daemon.Start()

	s.logger.Infow("Server listening",
		"addr", s.httpServer.Addr,
		"sync_enabled", s.cfg.Sync.Enabled,
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server and the worker pool gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()

	err := s.httpServer.Shutdown(ctx)

	s.daemon.Stop()
	s.wg.Wait()

	s.logger.Infow("Server shut down")
	return err
}

// Queue exposes the job queue (used by CLI commands and tests)
func (s *Server) Queue() *jobs.Queue {
	return s.queue
}

// Engine exposes the sync engine (used by CLI commands and tests)
func (s *Server) Engine() *truthsync.Engine {
	return s.engine
}
