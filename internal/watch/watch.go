// Package watch reruns the rename pipeline whenever the input directory changes.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// RunFunc performs one full pass over the input directory.
type RunFunc func(ctx context.Context) error

type Options struct {
	InputDir  string
	OutputDir string
	Debounce  time.Duration
	// IsOutput matches base names of files the run itself writes.
	IsOutput func(base string) bool
}

type Service struct {
	opts Options
	run  RunFunc
	log  *zap.Logger
}

func NewService(opts Options, run RunFunc, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}
	return &Service{opts: opts, run: run, log: log}
}

// Run does an initial pass, then one more pass per burst of changes until ctx
// is done. A failed pass is logged and does not stop the loop.
func (s *Service) Run(ctx context.Context) error {
	if err := os.MkdirAll(s.opts.InputDir, 0o755); err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(s.opts.InputDir); err != nil {
		return err
	}
	s.log.Info("watching input directory", zap.String("dir", s.opts.InputDir), zap.Duration("debounce", s.opts.Debounce))

	s.cycle(ctx)

	timer := time.NewTimer(s.opts.Debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !s.relevant(event) {
				continue
			}
			s.log.Debug("input changed", zap.String("file", event.Name), zap.String("op", event.Op.String()))
			timer.Reset(s.opts.Debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("watcher error", zap.Error(err))

		case <-timer.C:
			s.cycle(ctx)
		}
	}
}

func (s *Service) cycle(ctx context.Context) {
	if err := s.run(ctx); err != nil && ctx.Err() == nil {
		s.log.Error("run failed", zap.Error(err))
	}
}

// relevant drops chmod-only events, dot files (atomic write temps included)
// and our own outputs, so a pass never retriggers itself.
func (s *Service) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	out := filepath.Clean(s.opts.OutputDir)
	name := filepath.Clean(event.Name)
	if out == filepath.Clean(s.opts.InputDir) {
		return s.opts.IsOutput == nil || !s.opts.IsOutput(base)
	}
	return name != out && !strings.HasPrefix(name, out+string(filepath.Separator))
}
