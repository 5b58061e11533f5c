// Copyright 2026 The pureflashblade-mcp Authors

package config

import (
	"sync"

	"github.com/spf13/pflag"

	log "github.com/pureflashblade/pureflashblade-mcp/logger"
	"github.com/pureflashblade/pureflashblade-mcp/util"
)

// Store holds the live configuration and replaces it when the configuration file changes
type Store struct {
	mutex    sync.RWMutex
	cfg      *Config
	file     string
	flags    *pflag.FlagSet
	watcher  *util.FileWatch
	onReload []func(*Config)
}

// NewStore loads the configuration once and returns a Store serving it
func NewStore(file string, flags *pflag.FlagSet) (*Store, error) {
	cfg, err := Load(file, flags)
	if err != nil {
		return nil, err
	}
	return &Store{cfg: cfg, file: file, flags: flags}, nil
}

// StaticStore wraps an already resolved configuration. Reload and Watch are no-ops.
func StaticStore(cfg *Config) *Store {
	if cfg.Arrays == nil {
		cfg.Arrays = map[string]ArrayProfile{}
	}
	return &Store{cfg: cfg}
}

// Get returns the current configuration. Callers must not modify it.
func (s *Store) Get() *Config {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.cfg
}

// OnReload registers fn to run with the new configuration after every successful reload
func (s *Store) OnReload(fn func(*Config)) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.onReload = append(s.onReload, fn)
}

// Reload reads the configuration again. On failure the previous configuration stays in place.
func (s *Store) Reload() error {
	log.Trace(">>>>> Reload")
	defer log.Trace("<<<<< Reload")

	if s.file == "" {
		return nil
	}
	cfg, err := Load(s.file, s.flags)
	if err != nil {
		log.Errorf("keeping previous configuration, reload of %s failed: %v", s.file, err)
		return err
	}

	s.mutex.Lock()
	s.cfg = cfg
	callbacks := append([]func(*Config){}, s.onReload...)
	s.mutex.Unlock()

	log.Infof("configuration reloaded from %s", s.file)
	for _, fn := range callbacks {
		fn(cfg)
	}
	return nil
}

// Watch reloads the configuration whenever the file changes, until Close is called
func (s *Store) Watch() error {
	if s.file == "" {
		return nil
	}
	watcher, err := util.InitializeWatcher(func() { _ = s.Reload() }, util.DefaultWatchDebounce)
	if err != nil {
		return err
	}
	if err := watcher.AddWatchList([]string{s.file}); err != nil {
		return err
	}

	s.mutex.Lock()
	s.watcher = watcher
	s.mutex.Unlock()
	go watcher.StartWatcher()
	return nil
}

// Close stops watching the configuration file
func (s *Store) Close() {
	s.mutex.Lock()
	watcher := s.watcher
	s.watcher = nil
	s.mutex.Unlock()
	if watcher != nil {
		watcher.StopWatcher()
	}
}
