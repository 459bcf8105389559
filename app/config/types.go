package config

// SourceList is the YAML form of the feed source list
type SourceList struct {
	Sources []Source `yaml:"sources"`
}

// Source is a single remote feed endpoint
type Source struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"` // optional; the feed title is used when empty
}
