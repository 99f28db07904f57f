package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/lychee-technology/filterform"
	"go.uber.org/zap"
)

// Catalog subdirectory layout: built-in definitions ship with the control
// plane, custom ones are user-provided and hot-reloadable.
const (
	builtInSubdir = "built-in"
	customSubdir  = "custom"
)

// FileCatalog is a FilterTypeRegistry that loads filter type definitions from
// schema files on disk. Built-in definitions are loaded once at startup;
// the custom directory can be watched for changes and reloaded live.
type FileCatalog struct {
	mu     sync.RWMutex
	dir    string
	logger *zap.SugaredLogger

	builtIn map[string]filterform.FilterTypeInfo
	custom  map[string]filterform.FilterTypeInfo

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewFileCatalog loads the catalog under cfg.Dir and, when cfg.WatchCustom is
// set, starts watching the custom subdirectory for hot reload.
func NewFileCatalog(cfg filterform.CatalogConfig) (*FileCatalog, error) {
	catalog := &FileCatalog{
		dir:     cfg.Dir,
		logger:  zap.S().With("component", "filter_catalog"),
		builtIn: make(map[string]filterform.FilterTypeInfo),
		custom:  make(map[string]filterform.FilterTypeInfo),
	}

	builtIn, err := loadDefinitionDir(filepath.Join(cfg.Dir, builtInSubdir), filterform.SchemaSourceBuiltIn, catalog.logger)
	if err != nil {
		return nil, err
	}
	if len(builtIn) == 0 {
		return nil, filterform.NewCatalogUnavailableError(
			fmt.Sprintf("no built-in filter definitions found under %s", cfg.Dir), nil)
	}
	catalog.builtIn = builtIn

	// The custom directory is optional.
	custom, err := loadDefinitionDir(filepath.Join(cfg.Dir, customSubdir), filterform.SchemaSourceCustom, catalog.logger)
	if err == nil {
		catalog.custom = custom
	} else if !filterform.IsNotFound(err) {
		return nil, err
	}

	if cfg.WatchCustom {
		if err := catalog.watchCustom(); err != nil {
			// A missing watch is a degraded mode, not a startup failure.
			catalog.logger.Warnw("custom schema watch unavailable", "err", err)
		}
	}
	return catalog, nil
}

// GetFilterType retrieves one filter type by name. Built-in definitions win
// over custom ones of the same name.
func (c *FileCatalog) GetFilterType(name string) (filterform.FilterTypeInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if info, ok := c.builtIn[name]; ok {
		return info, nil
	}
	if info, ok := c.custom[name]; ok {
		return info, nil
	}
	return filterform.FilterTypeInfo{}, filterform.NewFilterTypeNotFoundError(name)
}

// ListFilterTypes returns all registered filter types in name order.
func (c *FileCatalog) ListFilterTypes() []filterform.FilterTypeInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	types := make([]filterform.FilterTypeInfo, 0, len(c.builtIn)+len(c.custom))
	for _, info := range c.builtIn {
		types = append(types, info)
	}
	for name, info := range c.custom {
		if _, shadowed := c.builtIn[name]; !shadowed {
			types = append(types, info)
		}
	}
	sort.Slice(types, func(i, j int) bool { return types[i].Name < types[j].Name })
	return types
}

// MergeCustom registers additional custom definitions, used by remote catalog
// sources. Definitions shadowed by built-in names are rejected.
func (c *FileCatalog) MergeCustom(types []filterform.FilterTypeInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, info := range types {
		if _, conflict := c.builtIn[info.Name]; conflict {
			c.logger.Warnw("custom definition shadows a built-in filter type, skipped",
				"filter_type", info.Name)
			continue
		}
		info.Source = filterform.SchemaSourceCustom
		c.custom[info.Name] = info
	}
}

// ReloadCustom rescans the custom subdirectory, replacing the previous custom
// set wholesale so deletions take effect.
func (c *FileCatalog) ReloadCustom() error {
	custom, err := loadDefinitionDir(filepath.Join(c.dir, customSubdir), filterform.SchemaSourceCustom, c.logger)
	if err != nil {
		if filterform.IsNotFound(err) {
			custom = make(map[string]filterform.FilterTypeInfo)
		} else {
			return err
		}
	}

	c.mu.Lock()
	c.custom = custom
	c.mu.Unlock()
	c.logger.Infow("custom filter definitions reloaded", "count", len(custom))
	return nil
}

// Close stops the custom directory watcher. Safe to call more than once.
func (c *FileCatalog) Close() error {
	c.mu.Lock()
	watcher, done := c.watcher, c.done
	c.watcher, c.done = nil, nil
	c.mu.Unlock()

	if watcher == nil {
		return nil
	}
	close(done)
	return watcher.Close()
}

func (c *FileCatalog) watchCustom() error {
	customDir := filepath.Join(c.dir, customSubdir)
	if _, err := os.Stat(customDir); err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(customDir); err != nil {
		watcher.Close()
		return err
	}

	done := make(chan struct{})
	c.watcher = watcher
	c.done = done
	go func() {
		for {
			select {
			case <-done:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !isDefinitionFile(event.Name) {
					continue
				}
				if err := c.ReloadCustom(); err != nil {
					c.logger.Errorw("failed to reload custom filter definitions", "err", err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				c.logger.Warnw("schema watch error", "err", err)
			}
		}
	}()
	return nil
}

// loadDefinitionDir parses every definition file in one directory. A broken
// definition is logged and skipped rather than failing the whole catalog.
func loadDefinitionDir(dir string, source filterform.SchemaSource, logger *zap.SugaredLogger) (map[string]filterform.FilterTypeInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, filterform.NewFilterFormError(filterform.ErrorTypeNotFound,
				filterform.ErrCodeCatalogUnavailable,
				fmt.Sprintf("definition directory %s does not exist", dir))
		}
		return nil, filterform.NewCatalogUnavailableError(
			fmt.Sprintf("failed to read definition directory %s", dir), err)
	}

	types := make(map[string]filterform.FilterTypeInfo)
	for _, entry := range entries {
		if entry.IsDir() || !isDefinitionFile(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warnw("failed to read definition file, skipped", "path", path, "err", err)
			continue
		}
		info, err := ParseDefinition(data, entry.Name(), source)
		if err != nil {
			logger.Warnw("invalid filter definition, skipped", "path", path, "err", err)
			continue
		}
		if _, duplicate := types[info.Name]; duplicate {
			logger.Warnw("duplicate filter definition name, later file skipped",
				"path", path, "filter_type", info.Name)
			continue
		}
		types[info.Name] = info
	}
	return types, nil
}

func isDefinitionFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}
