package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/yangwenmai/laosrs/internal/activity"
	"github.com/yangwenmai/laosrs/internal/api"
	"github.com/yangwenmai/laosrs/internal/backup"
	"github.com/yangwenmai/laosrs/internal/config"
	"github.com/yangwenmai/laosrs/internal/progress"
	"github.com/yangwenmai/laosrs/internal/scheduler"
	"github.com/yangwenmai/laosrs/internal/store"
)

func main() {
	setupLogging()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load config")
	}
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.WithError(err).Fatal("resolve timezone")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv, closeKV, err := openBackend(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("open store")
	}
	defer closeKV()

	ps := progress.New(kv, progress.WithLocation(loc))
	ps.Load(ctx)
	if err := ps.Err(); err != nil {
		log.WithError(err).Warn("started from defaults")
	}

	var schedOpts []scheduler.Option
	difficulties, err := cfg.Difficulties()
	if err != nil {
		log.WithError(err).Fatal("load difficulties")
	}
	if difficulties != nil {
		schedOpts = append(schedOpts, scheduler.WithDifficulties(difficulties))
		log.WithField("items", len(difficulties)).Info("using explicit item difficulties")
	}
	sched := scheduler.New(ps, schedOpts...)
	bridge := activity.New(ps)

	if cfg.BackupEnabled {
		runner, err := backup.New(ps, backup.Config{
			Dir:      cfg.BackupDir,
			Keep:     cfg.BackupKeep,
			Schedule: cfg.BackupSchedule,
			Location: loc,
		})
		if err != nil {
			log.WithError(err).Fatal("configure backups")
		}
		if err := runner.Start(ctx); err != nil {
			log.WithError(err).Fatal("start backups")
		}
		defer runner.Stop()
	}

	srv := api.New(api.Deps{
		Progress:   ps,
		Scheduler:  sched,
		Bridge:     bridge,
		CORSOrigin: cfg.CORSOrigin,
		Location:   loc,
	})
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		log.WithField("signal", sig.String()).Info("shutting down")
		cancel()
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("shutdown")
		}
	}()

	log.WithFields(log.Fields{
		"port":    cfg.Port,
		"backend": cfg.StoreBackend,
	}).Info("laosrs server listening")
	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("server error")
	}
}

// openBackend returns the configured key-value store and a func releasing it.
func openBackend(ctx context.Context, cfg *config.Config) (store.KV, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pg, err := store.NewPostgres(ctx, cfg.PostgresDSN, cfg.DBMaxConns)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg.Close, nil

	case config.BackendMemory:
		log.Warn("memory backend: progress is lost on exit")
		return store.NewMemory(), func() {}, nil

	default:
		db, err := store.OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		kv, err := store.NewSQLite(db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		if entries, err := kv.Entries(ctx); err == nil {
			for _, e := range entries {
				log.WithFields(log.Fields{
					"key":        e.Key,
					"bytes":      e.Size,
					"updated_at": e.UpdatedAt,
				}).Debug("stored document")
			}
		}
		return kv, func() { db.Close() }, nil
	}
}

func setupLogging() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)
}
