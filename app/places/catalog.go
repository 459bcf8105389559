package places

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yml
var defaultCatalog []byte

type catalogFile struct {
	Tracked   map[string][]string `yaml:"tracked"`
	Aliases   map[string]string   `yaml:"aliases"`
	Gazetteer []string            `yaml:"gazetteer"`
}

// Catalog holds the tracked place set and the extractor built from it.
// It is safe for concurrent use; Reload swaps both atomically.
type Catalog struct {
	path string

	mu        sync.RWMutex
	regions   map[string][]string
	tracked   map[string]string // normalized -> display name
	extractor *Extractor
}

// NewCatalog loads the catalog from path, or the built-in catalog when path is empty.
func NewCatalog(path string) (*Catalog, error) {
	c := &Catalog{path: path}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the catalog source. On failure the current catalog stays in place.
func (c *Catalog) Reload() error {
	data := defaultCatalog
	if c.path != "" {
		var err error
		data, err = os.ReadFile(c.path)
		if err != nil {
			return fmt.Errorf("failed to read place catalog: %w", err)
		}
	}

	regions, tracked, extractor, err := parseCatalog(data)
	if err != nil {
		return fmt.Errorf("invalid place catalog %s: %w", c.source(), err)
	}

	c.mu.Lock()
	c.regions = regions
	c.tracked = tracked
	c.extractor = extractor
	c.mu.Unlock()

	slog.Debug("Place catalog loaded", "source", c.source(), "tracked", len(tracked))

	return nil
}

func (c *Catalog) source() string {
	if c.path == "" {
		return "built-in"
	}
	return c.path
}

func parseCatalog(data []byte) (map[string][]string, map[string]string, *Extractor, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if len(file.Tracked) == 0 {
		return nil, nil, nil, fmt.Errorf("no tracked places defined")
	}

	regions := make(map[string][]string, len(file.Tracked))
	tracked := make(map[string]string)
	surfaces := make(map[string]string)

	for region, names := range file.Tracked {
		for _, name := range names {
			display := DisplayName(name)
			if display == "" {
				return nil, nil, nil, fmt.Errorf("empty place name in region %s", region)
			}
			regions[region] = append(regions[region], display)
			tracked[Normalize(name)] = display
			surfaces[name] = name
		}
	}

	for alias, target := range file.Aliases {
		if _, ok := tracked[Normalize(target)]; !ok {
			return nil, nil, nil, fmt.Errorf("alias %q points to untracked place %q", alias, target)
		}
		surfaces[alias] = target
	}

	for _, name := range file.Gazetteer {
		if _, ok := surfaces[name]; !ok {
			surfaces[name] = name
		}
	}

	return regions, tracked, NewExtractor(surfaces), nil
}

// Extract returns the places mentioned in text, tracked or not.
func (c *Catalog) Extract(text string) []string {
	c.mu.RLock()
	extractor := c.extractor
	c.mu.RUnlock()

	return extractor.Extract(text)
}

// Tracked reports whether name is in the tracked set, ignoring case,
// separators and diacritics.
func (c *Catalog) Tracked(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.tracked[Normalize(name)]
	return ok
}

// Regions returns a copy of the tracked places grouped by region.
func (c *Catalog) Regions() map[string][]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	regions := make(map[string][]string, len(c.regions))
	for region, names := range c.regions {
		regions[region] = append([]string(nil), names...)
	}
	return regions
}

// Names returns all tracked display names, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.tracked))
	for _, display := range c.tracked {
		names = append(names, display)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of tracked places.
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tracked)
}
