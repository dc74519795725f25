package lsp

import (
	"fmt"
	"maps"
	"slices"

	"bennypowers.dev/cpls/internal/config"
	"bennypowers.dev/cpls/internal/log"
)

// Config returns a snapshot of the current configuration
func (s *Server) Config() config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// SetClientSettings stores the cssCustomProperties section sent by the
// client; LoadConfig applies it
func (s *Server) SetClientSettings(settings map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clientSettings = maps.Clone(settings)
}

// LoadConfig layers, lowest first: defaults, the base configuration,
// package.json's cssCustomProperties section, then client settings.
// It reports whether the file patterns changed. A broken package.json is
// reported but does not block the other layers.
func (s *Server) LoadConfig() (bool, error) {
	s.mu.RLock()
	root := s.rootPath
	base := s.base
	client := s.clientSettings
	s.mu.RUnlock()

	var loadErr error
	pkg, err := config.ReadPackageJSON(s.fs, root)
	if err != nil {
		loadErr = err
		pkg = nil
	}

	cfg, err := config.Layered(base, pkg, client)
	if err != nil {
		return false, fmt.Errorf("loading configuration: %w", err)
	}
	log.SetLevel(cfg.Level())

	s.mu.Lock()
	previous := s.config
	s.config = cfg
	s.mu.Unlock()

	if !cfg.Equal(previous) {
		log.Info("Configuration: files=%v languages=%v logLevel=%s", cfg.Files, cfg.Languages, cfg.LogLevel)
	}
	return !slices.Equal(cfg.Files, previous.Files), loadErr
}
