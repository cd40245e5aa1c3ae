package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	// Test loading with no config file (should use defaults)
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(oldWd)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error loading defaults, got %v", err)
	}

	if cfg == nil {
		t.Fatal("expected config to be non-nil")
	}

	// Check defaults
	if cfg.Manifest != "entities.yml" {
		t.Errorf("expected default manifest 'entities.yml', got %s", cfg.Manifest)
	}

	if cfg.Database.Driver != "pgx" {
		t.Errorf("expected default driver 'pgx', got %s", cfg.Database.Driver)
	}
}

func TestLoadWithConfigFile(t *testing.T) {
	// Create temporary directory with config file
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(oldWd)

	// Write config file
	configContent := `
manifest: schema/entities.yml
database:
  driver: sqlite3
  url: file:app.db
`
	os.WriteFile("cascade.yml", []byte(configContent), 0644)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error loading config, got %v", err)
	}

	if cfg.Manifest != "schema/entities.yml" {
		t.Errorf("expected manifest 'schema/entities.yml', got %s", cfg.Manifest)
	}

	if cfg.Database.Driver != "sqlite3" {
		t.Errorf("expected driver 'sqlite3', got %s", cfg.Database.Driver)
	}

	if cfg.Database.URL != "file:app.db" {
		t.Errorf("expected database URL 'file:app.db', got %s", cfg.Database.URL)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(oldWd)

	os.Setenv("CASCADE_DATABASE_DRIVER", "sqlite3")
	defer os.Unsetenv("CASCADE_DATABASE_DRIVER")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.Database.Driver != "sqlite3" {
		t.Errorf("expected driver from environment, got %s", cfg.Database.Driver)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(oldWd)

	configContent := `
database:
  driver: oracle
`
	os.WriteFile("cascade.yml", []byte(configContent), 0644)

	if _, err := Load(); err == nil {
		t.Error("expected error for unsupported driver, got nil")
	}
}

func TestGetDatabaseURL(t *testing.T) {
	// Test with environment variable
	os.Setenv("DATABASE_URL", "postgresql://env/testdb")
	defer os.Unsetenv("DATABASE_URL")

	url := GetDatabaseURL()
	if url != "postgresql://env/testdb" {
		t.Errorf("expected DATABASE_URL from environment, got %s", url)
	}
}

func TestGetDatabaseURLFromConfig(t *testing.T) {
	// Create temporary directory with config file
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(oldWd)

	// Ensure no environment variable
	os.Unsetenv("DATABASE_URL")

	// Write config file
	configContent := `
database:
  url: postgresql://config/testdb
`
	os.WriteFile("cascade.yml", []byte(configContent), 0644)

	url := GetDatabaseURL()
	if url != "postgresql://config/testdb" {
		t.Errorf("expected DATABASE_URL from config, got %s", url)
	}
}

func TestFindManifest(t *testing.T) {
	// Create nested directory structure with the manifest at the root
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd)

	os.WriteFile(filepath.Join(tmpDir, "entities.yml"), []byte("entities: []"), 0644)

	subDir := filepath.Join(tmpDir, "src", "deep", "nested")
	os.MkdirAll(subDir, 0755)
	os.Chdir(subDir)

	path, err := FindManifest(&Config{Manifest: "entities.yml"})
	if err != nil {
		t.Fatalf("expected to find manifest, got error: %v", err)
	}

	// On macOS, /tmp is symlinked to /private/tmp, so resolve both paths
	resolvedPath, _ := filepath.EvalSymlinks(path)
	resolvedWant, _ := filepath.EvalSymlinks(filepath.Join(tmpDir, "entities.yml"))

	if resolvedPath != resolvedWant {
		t.Errorf("expected manifest at %s, got %s", resolvedWant, resolvedPath)
	}
}

func TestFindManifestAbsolutePath(t *testing.T) {
	tmpDir := t.TempDir()
	manifest := filepath.Join(tmpDir, "entities.yml")
	os.WriteFile(manifest, []byte("entities: []"), 0644)

	path, err := FindManifest(&Config{Manifest: manifest})
	if err != nil {
		t.Fatalf("expected to find manifest, got error: %v", err)
	}

	if path != manifest {
		t.Errorf("expected %s, got %s", manifest, path)
	}
}

func TestFindManifestMissing(t *testing.T) {
	// Walk from a directory tree with no manifest anywhere
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(oldWd)

	_, err := FindManifest(&Config{Manifest: "no-such-manifest.yml"})
	if err == nil {
		t.Error("expected error when manifest is missing, got nil")
	}
}
