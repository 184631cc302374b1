package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("expected non-nil config")
	}

	if cfg.Account.Port != DefaultIMAPPort {
		t.Errorf("Account.Port = %d, want %d", cfg.Account.Port, DefaultIMAPPort)
	}
	if cfg.Discover.Folder != DefaultFolder {
		t.Errorf("Discover.Folder = %q, want %q", cfg.Discover.Folder, DefaultFolder)
	}
	if cfg.Discover.Limit != DefaultScanLimit {
		t.Errorf("Discover.Limit = %d, want %d", cfg.Discover.Limit, DefaultScanLimit)
	}
	if cfg.Rules.MergeCase {
		t.Error("Rules.MergeCase should default to false")
	}
}

func TestConfigDir(t *testing.T) {
	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error = %v", err)
	}

	if dir == "" {
		t.Error("expected non-empty config directory")
	}

	if filepath.Base(dir) != AppName {
		t.Errorf("config dir should end with %q, got %q", AppName, filepath.Base(dir))
	}
}

func TestConfigPath(t *testing.T) {
	path, err := ConfigPath()
	if err != nil {
		t.Fatalf("ConfigPath() error = %v", err)
	}

	if filepath.Base(path) != "config.yaml" {
		t.Errorf("config path should end with %q, got %q", "config.yaml", filepath.Base(path))
	}
}

func TestLoadAndSave(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Account.Host = "mail.example.com"
	cfg.Account.Email = "test@example.com"
	cfg.Rules.File = "/home/test/msgFilterRules.dat"
	cfg.Rules.TargetRoot = "Archive"
	cfg.Rules.MergeCase = true
	cfg.Discover.Identities = []string{"alias@example.com"}

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("config file was not created")
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if loaded.Account.Host != cfg.Account.Host {
		t.Errorf("Account.Host = %q, want %q", loaded.Account.Host, cfg.Account.Host)
	}
	if loaded.Account.Email != cfg.Account.Email {
		t.Errorf("Account.Email = %q, want %q", loaded.Account.Email, cfg.Account.Email)
	}
	if loaded.Rules.File != cfg.Rules.File {
		t.Errorf("Rules.File = %q, want %q", loaded.Rules.File, cfg.Rules.File)
	}
	if loaded.Rules.TargetRoot != cfg.Rules.TargetRoot {
		t.Errorf("Rules.TargetRoot = %q, want %q", loaded.Rules.TargetRoot, cfg.Rules.TargetRoot)
	}
	if !loaded.Rules.MergeCase {
		t.Error("Rules.MergeCase = false, want true")
	}
	if !reflect.DeepEqual(loaded.Discover.Identities, cfg.Discover.Identities) {
		t.Errorf("Discover.Identities = %v, want %v", loaded.Discover.Identities, cfg.Discover.Identities)
	}
	// Defaults survive a file that does not mention them.
	if loaded.Account.Port != DefaultIMAPPort {
		t.Errorf("Account.Port = %d, want default %d", loaded.Account.Port, DefaultIMAPPort)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("account: [not a map"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid yaml")
	}
}

func TestIdentities(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Account.Email = "me@example.com"
	cfg.Discover.Identities = []string{"alias@example.com", "other@sample.org"}

	got := cfg.Identities()
	want := []string{"me@example.com", "alias@example.com", "other@sample.org"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Identities = %v, want %v", got, want)
	}
}

func TestStateDBPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Discover.StateDB = "/tmp/custom.db"
	path, err := cfg.StateDBPath()
	if err != nil {
		t.Fatalf("StateDBPath() error = %v", err)
	}
	if path != "/tmp/custom.db" {
		t.Errorf("StateDBPath = %q, want configured path", path)
	}

	cfg.Discover.StateDB = ""
	path, err = cfg.StateDBPath()
	if err != nil {
		t.Fatalf("StateDBPath() error = %v", err)
	}
	if filepath.Base(path) != "seen.db" {
		t.Errorf("StateDBPath = %q, want a seen.db default", path)
	}
}

func TestSetPasswordRequiresEmail(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.SetPassword("secret"); err == nil {
		t.Error("SetPassword should fail without an email configured")
	}
}

func TestGetPasswordRequiresEmail(t *testing.T) {
	cfg := DefaultConfig()
	if _, err := cfg.GetPassword(); err == nil {
		t.Error("GetPassword should fail without an email configured")
	}
}
