package server

import (
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/chatterlyco/relay/pkg/logger"
)

// WatchConfig watches the config file and retunes the log level when the
// file changes. Only LogLevel and Debug take effect at runtime; everything
// else requires a restart. The returned function stops the watcher.
func WatchConfig(path string, atom zap.AtomicLevel, log *zap.Logger) (func() error, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := LoadConfig(path)
				if err != nil {
					log.Warn("config reload failed", zap.Error(err))
					continue
				}
				level := logger.ParseLevel(cfg.LogLevel, cfg.Debug)
				if atom.Level() != level {
					atom.SetLevel(level)
					log.Info("log level changed", zap.Stringer("level", level))
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("config watch error", zap.Error(err))
			}
		}
	}()

	return watcher.Close, nil
}
