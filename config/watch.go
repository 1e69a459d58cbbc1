package config

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher 基于 fsnotify 监听配置文件，变更后重新加载并回调。
// 编辑器常以 rename+create 方式写文件，因此重命名事件也会触发重载，
// 且带冷却时间避免连续触发。
type Watcher struct {
	Path     string
	Cooldown time.Duration

	watcher *fsnotify.Watcher
}

func NewWatcher(path string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(path); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch config file: %w", err)
	}
	return &Watcher{
		Path:     path,
		Cooldown: 2 * time.Second,
		watcher:  fw,
	}, nil
}

// Start blocks until ctx is canceled; onUpdate receives each successfully
// re-loaded config. Files that fail to parse or validate are skipped and
// reported through onError (which may be nil).
func (w *Watcher) Start(ctx context.Context, onUpdate func(AppConfig), onError func(error)) error {
	defer w.watcher.Close()
	var lastReload time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if time.Since(lastReload) < w.Cooldown {
				continue
			}
			// rename+create 后需要重新挂监听
			if event.Op&fsnotify.Rename != 0 {
				_ = w.watcher.Add(w.Path)
			}
			cfg, err := LoadWithEnvOverrides(w.Path)
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			lastReload = time.Now()
			if onUpdate != nil {
				onUpdate(cfg)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			if onError != nil {
				onError(err)
			}
		}
	}
}
