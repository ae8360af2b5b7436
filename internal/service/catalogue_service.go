package service

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"cybersafe_backend/internal/model"
	"cybersafe_backend/pkg/logger"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const defaultPassThreshold = 0.7

// CatalogueService loads and caches the training content catalogue from
// YAML files: one file per module plus badges.yaml. The catalogue is
// read-only; the progress engine only consumes its identifiers.
type CatalogueService struct {
	rootDir string

	mu      sync.RWMutex
	modules map[string]model.CatalogueModule
	badges  []model.CatalogueBadge
}

func NewCatalogueService(rootDir string) (*CatalogueService, error) {
	s := &CatalogueService{
		rootDir: rootDir,
		modules: make(map[string]model.CatalogueModule),
	}

	if err := s.loadAll(); err != nil {
		return nil, fmt.Errorf("loading catalogue: %w", err)
	}

	logger.Log.Info("content catalogue loaded",
		zap.Int("modules", len(s.modules)), zap.Int("badges", len(s.badges)))
	return s, nil
}

func (s *CatalogueService) loadAll() error {
	return filepath.Walk(s.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml") {
			return nil
		}
		if filepath.Base(path) == "badges.yaml" || filepath.Base(path) == "badges.yml" {
			return s.loadBadges(path)
		}
		return s.loadModule(path)
	})
}

func (s *CatalogueService) loadModule(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var mod model.CatalogueModule
	if err := yaml.Unmarshal(data, &mod); err != nil {
		logger.Log.Warn("skipping invalid module YAML", zap.String("path", path), zap.Error(err))
		return nil
	}
	if mod.ID == "" {
		return nil // not a module file
	}
	if mod.PassThreshold <= 0 {
		mod.PassThreshold = defaultPassThreshold
	}

	s.mu.Lock()
	s.modules[mod.ID] = mod
	s.mu.Unlock()
	return nil
}

func (s *CatalogueService) loadBadges(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var badges []model.CatalogueBadge
	if err := yaml.Unmarshal(data, &badges); err != nil {
		logger.Log.Warn("skipping invalid badges YAML", zap.String("path", path), zap.Error(err))
		return nil
	}

	s.mu.Lock()
	s.badges = badges
	s.mu.Unlock()
	return nil
}

// Module returns a module by ID.
func (s *CatalogueService) Module(id string) (model.CatalogueModule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.modules[id]
	return m, ok
}

// AllModules returns the catalogue ordered by module order.
func (s *CatalogueService) AllModules() []model.CatalogueModule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mods := make([]model.CatalogueModule, 0, len(s.modules))
	for _, m := range s.modules {
		mods = append(mods, m)
	}
	sort.Slice(mods, func(i, j int) bool { return mods[i].Order < mods[j].Order })
	return mods
}

// AllBadges returns the badge catalogue.
func (s *CatalogueService) AllBadges() []model.CatalogueBadge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.CatalogueBadge{}, s.badges...)
}

// BadgeForModule returns the badge awarded for completing a module.
func (s *CatalogueService) BadgeForModule(moduleID string) (model.CatalogueBadge, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.badges {
		if b.ModuleID == moduleID {
			return b, true
		}
	}
	return model.CatalogueBadge{}, false
}
