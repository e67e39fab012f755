package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"binary-mm-go/infrastructure/logger"
)

// WatchConfig controls config file watching.
type WatchConfig struct {
	Enabled      bool
	CooldownTime time.Duration // minimum gap between reloads
}

// DefaultWatchConfig returns watching enabled with a 5s cooldown.
func DefaultWatchConfig() WatchConfig {
	return WatchConfig{
		Enabled:      true,
		CooldownTime: 5 * time.Second,
	}
}

// Watcher reloads the config file when it changes on disk. Long grid
// searches pick up quoter parameter edits between trials this way.
type Watcher struct {
	config     WatchConfig
	configPath string
	watcher    *fsnotify.Watcher
	log        *logger.Logger

	mu         sync.Mutex
	lastReload time.Time
	onReload   func(AppConfig) error

	stopChan chan struct{}
	doneChan chan struct{}
}

// NewWatcher creates a watcher for the config file at configPath.
func NewWatcher(configPath string, cfg WatchConfig, log *logger.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if log == nil {
		log = logger.Nop()
	}

	return &Watcher{
		config:     cfg,
		configPath: configPath,
		watcher:    fsWatcher,
		log:        log,
		stopChan:   make(chan struct{}),
		doneChan:   make(chan struct{}),
	}, nil
}

// OnReload sets the handler invoked with each successfully reloaded
// config.
func (w *Watcher) OnReload(handler func(AppConfig) error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReload = handler
}

// Start begins watching. Returns immediately; events are handled on a
// background goroutine until Stop or ctx cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	if !w.config.Enabled {
		return nil
	}

	if err := w.watcher.Add(w.configPath); err != nil {
		return fmt.Errorf("watch config file: %w", err)
	}

	go w.watch(ctx)

	return nil
}

// Stop ends watching and releases the underlying fsnotify watcher.
func (w *Watcher) Stop() error {
	if !w.config.Enabled {
		if w.watcher != nil {
			return w.watcher.Close()
		}
		return nil
	}

	select {
	case <-w.stopChan:
	default:
		close(w.stopChan)
	}

	select {
	case <-w.doneChan:
	case <-time.After(1 * time.Second):
		// watch goroutine may never have started
	}

	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}

func (w *Watcher) watch(ctx context.Context) {
	defer close(w.doneChan)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create {
				w.handleChange()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("config watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleChange() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if time.Since(w.lastReload) < w.config.CooldownTime {
		return
	}

	cfg, err := Load(w.configPath)
	if err != nil {
		w.log.Warn("config reload failed, keeping previous config", zap.Error(err))
		return
	}

	if w.onReload != nil {
		if err := w.onReload(cfg); err != nil {
			w.log.Warn("config reload handler rejected new config", zap.Error(err))
			return
		}
	}

	w.lastReload = time.Now()
	w.log.Info("config reloaded", zap.String("path", w.configPath))
}
