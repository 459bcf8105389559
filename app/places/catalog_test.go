package places

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestDefaultCatalog(t *testing.T) {
	catalog, err := NewCatalog("")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if catalog.Count() != 100 {
		t.Errorf("Expected 100 tracked places, got %d", catalog.Count())
	}

	regions := catalog.Regions()
	if len(regions) != 3 {
		t.Errorf("Expected 3 regions, got %d", len(regions))
	}
}

func TestTracked(t *testing.T) {
	catalog, err := NewCatalog("")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		expected bool
	}{
		{"Paris", true},
		{"paris", true},
		{"New York City", true},
		{"New_York_City", true},
		{"new york  city", true},
		{"São Paulo", true},
		{"Sao Paulo", true},
		{"Bogota", true},
		{"Washington, D.C.", true},
		{"Kyiv", false},
		{"Springfield", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := catalog.Tracked(tt.name); got != tt.expected {
				t.Errorf("Tracked(%q) = %v, expected %v", tt.name, got, tt.expected)
			}
		})
	}
}

func TestExtract(t *testing.T) {
	catalog, err := NewCatalog("")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "multiple places in order",
			text:     "Leaders from London met counterparts in Paris and Kyiv",
			expected: []string{"London", "Paris", "Kyiv"},
		},
		{
			name:     "longest match wins",
			text:     "Flooding hit New York City overnight",
			expected: []string{"New York City"},
		},
		{
			name:     "alias resolves to tracked name",
			text:     "Protests spread across New York and Bengaluru",
			expected: []string{"New York City", "Bangalore"},
		},
		{
			name:     "diacritics ignored",
			text:     "Markets in Sao Paulo and Bogotá rallied",
			expected: []string{"São Paulo", "Bogotá"},
		},
		{
			name:     "word boundaries respected",
			text:     "The Parisian cafe near Limassol",
			expected: nil,
		},
		{
			name:     "duplicates reported once",
			text:     "Tokyo, Tokyo and again Tokyo",
			expected: []string{"Tokyo"},
		},
		{
			name:     "lowercase is not a proper noun",
			text:     "the phoenix rose again",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := catalog.Extract(tt.text)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Extract(%q) = %v, expected %v", tt.text, got, tt.expected)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	if Normalize("São_Paulo") != Normalize("sao paulo") {
		t.Errorf("Expected normalized forms to match: %q vs %q", Normalize("São_Paulo"), Normalize("sao paulo"))
	}
	if DisplayName("Ho_Chi_Minh_City") != "Ho Chi Minh City" {
		t.Errorf("Unexpected display name: %q", DisplayName("Ho_Chi_Minh_City"))
	}
}

func TestCatalogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "places.yml")
	content := `
tracked:
  europe:
    - Lisbon
    - Porto
gazetteer:
  - Madrid
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	catalog, err := NewCatalog(path)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if catalog.Count() != 2 {
		t.Errorf("Expected 2 tracked places, got %d", catalog.Count())
	}
	if catalog.Tracked("Madrid") {
		t.Error("Gazetteer entries must not be tracked")
	}

	got := catalog.Extract("From Madrid to Lisbon")
	if !reflect.DeepEqual(got, []string{"Madrid", "Lisbon"}) {
		t.Errorf("Unexpected extraction: %v", got)
	}
}

func TestReloadFailureKeepsCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "places.yml")
	if err := os.WriteFile(path, []byte("tracked:\n  europe:\n    - Lisbon\n"), 0644); err != nil {
		t.Fatal(err)
	}

	catalog, err := NewCatalog(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("tracked: [broken"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := catalog.Reload(); err == nil {
		t.Error("Expected reload error for invalid YAML")
	}
	if !catalog.Tracked("Lisbon") {
		t.Error("Expected previous catalog to remain after failed reload")
	}
}

func TestInvalidAlias(t *testing.T) {
	path := filepath.Join(t.TempDir(), "places.yml")
	content := "tracked:\n  europe:\n    - Lisbon\naliases:\n  Lisboa: Porto\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewCatalog(path); err == nil {
		t.Error("Expected error for alias pointing to untracked place")
	}
}

func TestWatchReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "places.yml")
	if err := os.WriteFile(path, []byte("tracked:\n  europe:\n    - Lisbon\n"), 0644); err != nil {
		t.Fatal(err)
	}

	catalog, err := NewCatalog(path)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := catalog.Watch(ctx); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if err := os.WriteFile(path, []byte("tracked:\n  europe:\n    - Lisbon\n    - Porto\n"), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if catalog.Tracked("Porto") {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Error("Expected catalog to pick up Porto after file change")
}
