package feed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestConfigCacheLoadValidConfig(t *testing.T) {
	tempDir := t.TempDir()

	writeConfig(t, tempDir, "techwire.yml", `
type: rss
url: "https://example.com/feed.xml"
category: tech

settings:
  enabled: true
  max_items: 25
  timeout: 15

filters:
  - field: "title"
    excludes:
      - "sponsored"
`)

	configCache := NewConfigCache(tempDir)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	if configCache.GetConfigCount() != 1 {
		t.Errorf("Expected 1 config, got %d", configCache.GetConfigCount())
	}

	sourceConfig, err := configCache.GetConfig("techwire")
	if err != nil {
		t.Fatal(err)
	}

	if sourceConfig.Name != "techwire" {
		t.Errorf("Expected name 'techwire', got '%s'", sourceConfig.Name)
	}
	if sourceConfig.Type != SourceTypeRSS || sourceConfig.Category != "tech" {
		t.Errorf("Expected rss/tech, got %s/%s", sourceConfig.Type, sourceConfig.Category)
	}
	if sourceConfig.Settings.Timeout != 15 || sourceConfig.Settings.MaxItems != 25 {
		t.Errorf("Expected timeout 15 and max items 25, got %d and %d", sourceConfig.Settings.Timeout, sourceConfig.Settings.MaxItems)
	}
	if len(sourceConfig.Filters) != 1 {
		t.Errorf("Expected 1 filter, got %d", len(sourceConfig.Filters))
	}
}

func TestConfigCacheDefaults(t *testing.T) {
	tempDir := t.TempDir()

	writeConfig(t, tempDir, "minimal.yml", `
url: "https://example.com/feed.xml"
settings:
  enabled: true
`)

	configCache := NewConfigCache(tempDir)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	sourceConfig, err := configCache.GetConfig("minimal")
	if err != nil {
		t.Fatal(err)
	}

	if sourceConfig.Type != SourceTypeRSS {
		t.Errorf("Expected default type rss, got %s", sourceConfig.Type)
	}
	if sourceConfig.Category != "global" {
		t.Errorf("Expected default category global, got %s", sourceConfig.Category)
	}
	if sourceConfig.Settings.Timeout != 30 || sourceConfig.Settings.MaxItems != 100 {
		t.Errorf("Expected default timeout 30 and max items 100, got %d and %d", sourceConfig.Settings.Timeout, sourceConfig.Settings.MaxItems)
	}
}

func TestConfigCacheNewsAPIWithoutURL(t *testing.T) {
	tempDir := t.TempDir()

	writeConfig(t, tempDir, "headlines.yml", `
type: newsapi
category: entertainment
settings:
  enabled: true
`)

	configCache := NewConfigCache(tempDir)
	if err := configCache.Run(); err != nil {
		t.Fatalf("Expected newsapi source without URL to be valid, got: %v", err)
	}
}

func TestConfigCacheInvalidConfigs(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"rss without url", "type: rss\nsettings:\n  enabled: true\n"},
		{"unknown type", "type: atom\nurl: https://example.com\n"},
		{"unknown category", "url: https://example.com\ncategory: sports\n"},
		{"negative timeout", "url: https://example.com\nsettings:\n  timeout: -1\n"},
		{"bad filter field", "url: https://example.com\nfilters:\n  - field: body\n    excludes: [x]\n"},
		{"empty filter", "url: https://example.com\nfilters:\n  - field: title\n"},
		{"not yaml mapping", "invalid yaml content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			writeConfig(t, tempDir, "broken.yml", tt.content)

			if err := NewConfigCache(tempDir).Run(); err == nil {
				t.Error("Expected error for invalid config")
			}
		})
	}
}

func TestConfigCacheMissingDirectory(t *testing.T) {
	configCache := NewConfigCache(filepath.Join(t.TempDir(), "missing"))
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}
	if configCache.GetConfigCount() != 0 {
		t.Errorf("Expected 0 configs, got %d", configCache.GetConfigCount())
	}
}

func TestConfigCacheReloadConfig(t *testing.T) {
	tempDir := t.TempDir()
	writeConfig(t, tempDir, "test.yml", "url: \"https://example.com/feed.xml\"\nsettings:\n  enabled: true\n")

	configCache := NewConfigCache(tempDir)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	writeConfig(t, tempDir, "test.yml", "url: \"https://example.com/new-feed.xml\"\nsettings:\n  enabled: false\n")

	reloadedConfig, err := configCache.LoadConfig("test")
	if err != nil {
		t.Fatal(err)
	}
	if reloadedConfig.URL != "https://example.com/new-feed.xml" {
		t.Errorf("Expected updated URL, got '%s'", reloadedConfig.URL)
	}
	if reloadedConfig.Settings.Enabled {
		t.Error("Expected source to be disabled after reload")
	}

	if _, err := configCache.LoadConfig("nonexistent"); err == nil {
		t.Error("Expected error for non-existent config")
	}
}

func TestConfigCacheGetConfigs(t *testing.T) {
	tempDir := t.TempDir()
	writeConfig(t, tempDir, "feed1.yml", "url: https://example.com/feed1.xml\nsettings:\n  enabled: true\n")
	writeConfig(t, tempDir, "feed2.yml", "url: https://example.com/feed2.xml\nsettings:\n  enabled: false\n")

	configCache := NewConfigCache(tempDir)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	allConfigs := configCache.GetConfigs()
	if len(allConfigs) != 2 {
		t.Errorf("Expected 2 configs, got %d", len(allConfigs))
	}

	delete(allConfigs, "feed1")
	if configCache.GetConfigCount() != 2 {
		t.Error("Modifying returned configs map affected the cache")
	}

	enabled := configCache.GetEnabledConfigs()
	if len(enabled) != 1 || enabled["feed1"] == nil {
		t.Errorf("Expected only feed1 to be enabled, got %v", enabled)
	}

	_, err := configCache.GetConfig("FEED1")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("Expected case-sensitive not found error, got: %v", err)
	}
}
