package configstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kbukum/coordkit/clock"
	"github.com/kbukum/coordkit/errors"
	"github.com/kbukum/coordkit/logger"
	"github.com/kbukum/coordkit/observability"
)

// metadataKey is the reserved top-level key stamped into every saved
// document.
const metadataKey = "_metadata"

const backupTimeLayout = "20060102_150405"

var searchExts = []string{"json", "yaml", "yml"}

// Store is a file-backed configuration manager with an in-memory cache.
// Safe for concurrent use.
type Store struct {
	dir           string
	defaultFormat Format
	backups       bool
	cache         *lruCache
	clock         clock.Clock
	log           *logger.Logger

	mu sync.RWMutex // serializes filesystem mutations

	watchMu sync.Mutex
	watcher *dirWatcher
}

// New creates a Store rooted at cfg.Dir, creating the directory if needed.
func New(cfg Config, log *logger.Logger) (*Store, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, errors.IO("create_config_dir", err)
	}

	format, _ := ParseFormat(cfg.DefaultFormat)
	return &Store{
		dir:           cfg.Dir,
		defaultFormat: format,
		backups:       !cfg.DisableBackups,
		cache:         newLRUCache(cfg.CacheTTL, cfg.CacheMaxEntries, cfg.Clock),
		clock:         cfg.Clock,
		log:           log,
	}, nil
}

// Dir returns the directory holding configuration files.
func (s *Store) Dir() string { return s.dir }

// Save writes a configuration document and returns the file path. A
// _metadata section with creation time, version and format is stamped
// onto a copy of data; the caller's map is never mutated. An empty
// format means the store default.
func (s *Store) Save(_ context.Context, name string, data map[string]any, format Format) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	if format == "" {
		format = s.defaultFormat
	}

	doc := copyDocument(data)
	meta := make(map[string]any)
	if prev, ok := doc[metadataKey].(map[string]any); ok {
		for k, v := range prev {
			meta[k] = v
		}
	}
	meta["created"] = s.clock.Now().Format(time.RFC3339)
	meta["version"] = "1.0"
	meta["format"] = string(format)
	doc[metadataKey] = meta

	encoded, err := encode(doc, format)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, name+"."+format.Ext())
	if err := os.WriteFile(path, encoded, 0o640); err != nil {
		return "", errors.IO("save_config", err).WithDetail("config", name)
	}
	s.cache.put(name, doc)

	s.log.Debug("config saved", map[string]any{"config": name, "format": string(format), "path": path})
	return path, nil
}

// Load reads a configuration document, serving from cache when the cached
// copy is still fresh. Returns NotFound when no file exists for name.
func (s *Store) Load(_ context.Context, name string) (map[string]any, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if cached, ok := s.cache.get(name); ok {
		return copyDocument(cached), nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	path, found := s.findFile(name)
	if !found {
		return nil, errors.NotFound("config", name)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IO("load_config", err).WithDetail("config", name)
	}
	doc, err := decode(raw, formatForPath(path))
	if err != nil {
		return nil, err
	}
	s.cache.put(name, doc)
	return copyDocument(doc), nil
}

// Update applies a shallow merge of updates onto the stored document and
// saves the result, stamping _metadata.updated. A missing document starts
// empty. The previous content is backed up first unless backups are
// disabled.
func (s *Store) Update(ctx context.Context, name string, updates map[string]any) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}

	current, err := s.Load(ctx, name)
	if err != nil {
		if !errors.IsNotFound(err) {
			return "", err
		}
		current = make(map[string]any)
	}

	if s.backups && len(current) > 0 {
		backupName := fmt.Sprintf("%s_backup_%s", name, s.clock.Now().Format(backupTimeLayout))
		if _, err := s.Save(ctx, backupName, current, ""); err != nil {
			return "", err
		}
	}

	for k, v := range updates {
		current[k] = v
	}
	meta := make(map[string]any)
	if prev, ok := current[metadataKey].(map[string]any); ok {
		for k, v := range prev {
			meta[k] = v
		}
	}
	meta["updated"] = s.clock.Now().Format(time.RFC3339)
	current[metadataKey] = meta

	return s.Save(ctx, name, current, "")
}

// Delete removes a configuration document and reports whether one
// existed. The content is backed up first unless backups are disabled.
func (s *Store) Delete(ctx context.Context, name string) (bool, error) {
	if err := validateName(name); err != nil {
		return false, err
	}

	if s.backups {
		if current, err := s.Load(ctx, name); err == nil {
			backupName := fmt.Sprintf("%s_deleted_%s", name, s.clock.Now().Format(backupTimeLayout))
			if _, err := s.Save(ctx, backupName, current, ""); err != nil {
				return false, err
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path, found := s.findFile(name)
	if !found {
		return false, nil
	}
	if err := os.Remove(path); err != nil {
		return false, errors.IO("delete_config", err).WithDetail("config", name)
	}
	s.cache.invalidate(name)

	s.log.Debug("config deleted", map[string]any{"config": name})
	return true, nil
}

// List returns the names of every stored configuration, sorted.
func (s *Store) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.IO("list_configs", err)
	}

	seen := make(map[string]bool)
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.TrimPrefix(filepath.Ext(entry.Name()), ".")
		if !isConfigExt(ext) {
			continue
		}
		stem := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		if !seen[stem] {
			seen[stem] = true
			names = append(names, stem)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Info describes a stored configuration document.
type Info struct {
	Name       string         `json:"name"`
	Path       string         `json:"path"`
	Size       int64          `json:"size"`
	ModifiedAt time.Time      `json:"modified_at"`
	Metadata   map[string]any `json:"metadata"`
	Keys       []string       `json:"keys"`
}

// GetInfo returns file-level and content-level information about a
// configuration.
func (s *Store) GetInfo(ctx context.Context, name string) (*Info, error) {
	doc, err := s.Load(ctx, name)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	path, found := s.findFile(name)
	s.mu.RUnlock()
	if !found {
		return nil, errors.NotFound("config", name)
	}

	st, err := os.Stat(path)
	if err != nil {
		return nil, errors.IO("stat_config", err).WithDetail("config", name)
	}

	meta, _ := doc[metadataKey].(map[string]any)
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return &Info{
		Name:       name,
		Path:       path,
		Size:       st.Size(),
		ModifiedAt: st.ModTime(),
		Metadata:   meta,
		Keys:       keys,
	}, nil
}

// MergeConfigs loads the named configurations in order and merges them,
// later names winning. With deep=true, nested mappings are merged
// recursively instead of replaced.
func (s *Store) MergeConfigs(ctx context.Context, names []string, deep bool) (map[string]any, error) {
	merged := make(map[string]any)
	for _, name := range names {
		loaded, err := s.Load(ctx, name)
		if err != nil {
			return nil, err
		}
		doc := deepCopyDocument(loaded)
		delete(doc, metadataKey)
		if deep {
			deepMerge(merged, doc)
		} else {
			for k, v := range doc {
				merged[k] = v
			}
		}
	}
	return merged, nil
}

// ExportAll writes every stored configuration into a single JSON file.
func (s *Store) ExportAll(ctx context.Context, path string) error {
	names, err := s.List(ctx)
	if err != nil {
		return err
	}

	all := make(map[string]any, len(names))
	for _, name := range names {
		doc, err := s.Load(ctx, name)
		if err != nil {
			return err
		}
		all[name] = doc
	}

	encoded, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return errors.Internal(err)
	}
	if err := os.WriteFile(path, encoded, 0o640); err != nil {
		return errors.IO("export_configs", err)
	}
	return nil
}

// ClearCache drops every cached document.
func (s *Store) ClearCache() {
	s.cache.clear()
}

// CacheStats returns cache effectiveness counters.
func (s *Store) CacheStats() CacheStats {
	return s.cache.stats()
}

// CheckHealth reports whether the backing directory is reachable.
func (s *Store) CheckHealth(_ context.Context) observability.Health {
	h := observability.Health{Name: "configstore", Status: observability.HealthStatusUp}
	if _, err := os.Stat(s.dir); err != nil {
		h.Status = observability.HealthStatusDown
		h.Message = err.Error()
	}
	return h
}

// --- internal helpers ---

// findFile locates the document for name trying known extensions.
// Caller must hold at least the read lock.
func (s *Store) findFile(name string) (string, bool) {
	for _, ext := range searchExts {
		path := filepath.Join(s.dir, name+"."+ext)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.MissingField("name")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return errors.InvalidInput("name", "must not contain path separators")
	}
	return nil
}

func isConfigExt(ext string) bool {
	for _, e := range searchExts {
		if ext == e {
			return true
		}
	}
	return false
}

func formatForPath(path string) Format {
	switch strings.TrimPrefix(filepath.Ext(path), ".") {
	case "yaml", "yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

func encode(doc map[string]any, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		out, err := yaml.Marshal(doc)
		if err != nil {
			return nil, errors.Internal(err)
		}
		return out, nil
	default:
		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, errors.Internal(err)
		}
		return out, nil
	}
}

func decode(raw []byte, format Format) (map[string]any, error) {
	doc := make(map[string]any)
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, errors.InvalidFormat("config", "valid YAML").WithCause(err)
		}
	default:
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, errors.InvalidFormat("config", "valid JSON").WithCause(err)
		}
	}
	return doc, nil
}

// copyDocument makes a top-level copy so cache internals never leak to
// callers. Nested values are shared; documents are treated as read-only
// by convention.
func copyDocument(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// deepCopyDocument copies a document including nested mappings, so merge
// results never alias cached values.
func deepCopyDocument(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		if nested, ok := v.(map[string]any); ok {
			dst[k] = deepCopyDocument(nested)
			continue
		}
		dst[k] = v
	}
	return dst
}

// deepMerge merges update into base recursively for nested mappings.
func deepMerge(base, update map[string]any) {
	for k, v := range update {
		if uv, ok := v.(map[string]any); ok {
			if bv, ok := base[k].(map[string]any); ok {
				deepMerge(bv, uv)
				continue
			}
		}
		base[k] = v
	}
}
