// Package backup periodically snapshots the progress document to disk.
package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

const (
	filePrefix = "progress-"
	fileSuffix = ".json"
	timeLayout = "20060102-150405.000"
)

// Exporter produces the serialised progress document.
type Exporter interface {
	ExportProgress() (string, error)
}

// Config controls where and how often backups are written.
type Config struct {
	Dir      string
	Keep     int    // newest files kept; <= 0 keeps everything
	Schedule string // standard five-field cron spec
	Location *time.Location
}

// Runner writes backups on a cron schedule.
type Runner struct {
	exp  Exporter
	cfg  Config
	cron *cron.Cron
	now  func() time.Time
	log  log.FieldLogger
}

// New validates cfg and returns a Runner. Nothing runs until Start.
func New(exp Exporter, cfg Config) (*Runner, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("backup: empty directory")
	}
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return nil, fmt.Errorf("backup: schedule %q: %w", cfg.Schedule, err)
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Runner{
		exp:  exp,
		cfg:  cfg,
		cron: cron.New(cron.WithLocation(cfg.Location)),
		now:  time.Now,
		log:  log.WithField("component", "backup"),
	}, nil
}

// Start schedules the backup job and returns immediately.
func (r *Runner) Start(ctx context.Context) error {
	_, err := r.cron.AddFunc(r.cfg.Schedule, func() {
		if _, err := r.RunOnce(ctx); err != nil {
			r.log.WithError(err).Error("backup failed")
		}
	})
	if err != nil {
		return fmt.Errorf("backup: schedule job: %w", err)
	}
	r.cron.Start()
	r.log.WithFields(log.Fields{
		"schedule": r.cfg.Schedule,
		"dir":      r.cfg.Dir,
		"keep":     r.cfg.Keep,
	}).Info("backup scheduler started")
	return nil
}

// Stop halts the schedule and waits for a running backup to finish.
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.log.Info("backup scheduler stopped")
}

// RunOnce writes one backup file, prunes old ones and returns the new path.
func (r *Runner) RunOnce(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	doc, err := r.exp.ExportProgress()
	if err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	if err := os.MkdirAll(r.cfg.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	name, err := r.freeName(r.now().In(r.cfg.Location))
	if err != nil {
		return "", fmt.Errorf("name backup: %w", err)
	}
	path := filepath.Join(r.cfg.Dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(doc), 0o644); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("write backup: %w", err)
	}

	removed, err := r.prune()
	if err != nil {
		r.log.WithError(err).Warn("prune backups")
	}
	r.log.WithFields(log.Fields{
		"file":    name,
		"bytes":   len(doc),
		"removed": removed,
	}).Info("backup written")
	return path, nil
}

// freeName returns a backup file name for t that is not taken yet. A taken
// name moves forward one millisecond at a time so names keep sorting in
// write order.
func (r *Runner) freeName(t time.Time) (string, error) {
	for {
		name := filePrefix + t.Format(timeLayout) + fileSuffix
		_, err := os.Stat(filepath.Join(r.cfg.Dir, name))
		if os.IsNotExist(err) {
			return name, nil
		}
		if err != nil {
			return "", err
		}
		r.log.WithField("file", name).Debug("backup name taken")
		t = t.Add(time.Millisecond)
	}
}

// List returns the backup file names in the directory, oldest first.
func (r *Runner) List() ([]string, error) {
	entries, err := os.ReadDir(r.cfg.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		n := e.Name()
		if !e.IsDir() && strings.HasPrefix(n, filePrefix) && strings.HasSuffix(n, fileSuffix) {
			names = append(names, n)
		}
	}
	// The timestamp layout sorts lexically in time order.
	sort.Strings(names)
	return names, nil
}

func (r *Runner) prune() (int, error) {
	if r.cfg.Keep <= 0 {
		return 0, nil
	}
	names, err := r.List()
	if err != nil {
		return 0, err
	}
	removed := 0
	for len(names) > r.cfg.Keep {
		if err := os.Remove(filepath.Join(r.cfg.Dir, names[0])); err != nil {
			return removed, err
		}
		names = names[1:]
		removed++
	}
	return removed, nil
}
