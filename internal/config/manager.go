package config

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/voxinv/voxinv/internal/logging"
)

// Manager holds the current configuration and reloads it when the file
// changes on disk. Readers always get a copy, so a reload never mutates a
// config snapshot already handed out.
type Manager struct {
	mu      sync.RWMutex
	config  *Config
	path    string
	watcher *fsnotify.Watcher
	wg      sync.WaitGroup
	log     *logging.Logger
}

func NewManager(log *logging.Logger) (*Manager, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return NewManagerWithPath(configPath, log)
}

func NewManagerWithPath(configPath string, log *logging.Logger) (*Manager, error) {
	config, err := LoadFile(configPath)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		config: config,
		path:   configPath,
		log:    log.WithComponent("config"),
	}

	if err := config.Validate(); err != nil {
		m.log.WithError(err).Warn("initial configuration is incomplete")
	}

	return m, nil
}

func (m *Manager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	configCopy := *m.config
	return &configCopy
}

func (m *Manager) StartWatching(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	m.watcher = watcher

	if err := watcher.Add(filepath.Dir(m.path)); err != nil {
		watcher.Close()
		return err
	}

	m.wg.Add(1)
	go m.watchLoop(ctx)

	m.log.WithField("path", m.path).Info("watching configuration for changes")
	return nil
}

func (m *Manager) Stop() {
	if m.watcher != nil {
		m.watcher.Close()
	}
	m.wg.Wait()
}

func (m *Manager) watchLoop(ctx context.Context) {
	defer m.wg.Done()
	configFileName := filepath.Base(m.path)

	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != configFileName {
				continue
			}

			// Write and Create only; editors produce Chmod/Rename noise.
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				m.log.Info("configuration file changed, reloading")
				m.reloadConfig()
			}

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.log.WithError(err).Warn("configuration watcher error")

		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) reloadConfig() {
	newConfig, err := LoadFile(m.path)
	if err != nil {
		m.log.WithError(err).Error("failed to reload configuration, keeping previous one")
		return
	}

	if err := newConfig.Validate(); err != nil {
		m.log.WithError(err).Error("invalid configuration after reload, keeping previous one")
		return
	}

	m.mu.Lock()
	m.config = newConfig
	m.mu.Unlock()

	m.log.Info("configuration reloaded")
}
