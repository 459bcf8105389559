package config

import (
	"bufio"
	"bytes"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and validation of the feed source list
type Loader struct {
	path string
}

// NewLoader creates a new source list loader
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load reads the whole source list. Any unreadable file or invalid entry fails the load.
func (l *Loader) Load() ([]Source, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source list: %w", err)
	}

	var sources []Source
	switch strings.ToLower(filepath.Ext(l.path)) {
	case ".yml", ".yaml":
		sources, err = l.parseYAML(data)
	default:
		sources, err = l.parseText(data)
	}
	if err != nil {
		return nil, err
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("source list %s is empty", l.path)
	}

	seen := make(map[string]bool, len(sources))
	unique := sources[:0]
	for i, source := range sources {
		if err := l.validate(source); err != nil {
			return nil, fmt.Errorf("invalid source at index %d: %w", i, err)
		}
		if seen[source.URL] {
			slog.Debug("Duplicate source skipped", "url", source.URL)
			continue
		}
		seen[source.URL] = true
		unique = append(unique, source)
	}

	slog.Debug("Source list loaded", "path", l.path, "count", len(unique))

	return unique, nil
}

// parseText reads one URL per line; blank lines and # comments are ignored
func (l *Loader) parseText(data []byte) ([]Source, error) {
	var sources []Source

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sources = append(sources, Source{URL: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read source list: %w", err)
	}

	return sources, nil
}

func (l *Loader) parseYAML(data []byte) ([]Source, error) {
	var list SourceList
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i := range list.Sources {
		list.Sources[i].URL = strings.TrimSpace(list.Sources[i].URL)
		list.Sources[i].Name = strings.TrimSpace(list.Sources[i].Name)
	}

	return list.Sources, nil
}

func (l *Loader) validate(source Source) error {
	if source.URL == "" {
		return fmt.Errorf("source URL is required")
	}

	u, err := url.Parse(source.URL)
	if err != nil {
		return fmt.Errorf("malformed URL %q: %w", source.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme %q in %s", u.Scheme, source.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("URL %s has no host", source.URL)
	}

	return nil
}
