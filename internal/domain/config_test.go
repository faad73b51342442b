package domain

import (
	"strings"
	"testing"
)

func TestRepoDir(t *testing.T) {
	got := RepoDir("/home/user/project")
	want := "/home/user/project/.planreview"
	if got != want {
		t.Errorf("RepoDir() = %q, want %q", got, want)
	}
}

func TestRepoConfigPath(t *testing.T) {
	got := RepoConfigPath("/home/user/project")
	want := "/home/user/project/.planreview/config.toml"
	if got != want {
		t.Errorf("RepoConfigPath() = %q, want %q", got, want)
	}
}

func TestGlobalConfigPath(t *testing.T) {
	got := GlobalConfigPath("/home/user/.config")
	want := "/home/user/.config/planreview/config.toml"
	if got != want {
		t.Errorf("GlobalConfigPath() = %q, want %q", got, want)
	}
}

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	if cfg.Store.Backend != BackendJSON {
		t.Errorf("Store.Backend = %q, want %q", cfg.Store.Backend, BackendJSON)
	}
	if cfg.Store.Namespace != DefaultNamespace {
		t.Errorf("Store.Namespace = %q, want %q", cfg.Store.Namespace, DefaultNamespace)
	}
	if cfg.Review.Actor != DefaultActor {
		t.Errorf("Review.Actor = %q, want %q", cfg.Review.Actor, DefaultActor)
	}
	if cfg.Log.Level != DefaultLogLevel {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, DefaultLogLevel)
	}
}

func TestStoreBackend_IsValid(t *testing.T) {
	for _, b := range AllBackends() {
		if !b.IsValid() {
			t.Errorf("%q should be valid", b)
		}
	}
	if StoreBackend("s3").IsValid() {
		t.Error("s3 should not be valid")
	}
}

func TestConfig_StorePath(t *testing.T) {
	tests := []struct {
		name    string
		backend StoreBackend
		path    string
		want    string
	}{
		{"json default", BackendJSON, "", "/proj/.planreview/state.json"},
		{"sqlite default", BackendSQLite, "", "/proj/.planreview/state.db"},
		{"git default", BackendGit, "", "/proj"},
		{"relative", BackendJSON, "data/plan.json", "/proj/data/plan.json"},
		{"absolute", BackendSQLite, "/var/lib/plan.db", "/var/lib/plan.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			cfg.Store.Backend = tt.backend
			cfg.Store.Path = tt.path
			if got := cfg.StorePath("/proj"); got != tt.want {
				t.Errorf("StorePath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderConfigTemplate(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Review.Actor = "Release Manager"

	got := RenderConfigTemplate(cfg)

	for _, want := range []string{
		"[store]",
		`backend = "json"`,
		`namespace = "planreview"`,
		`actor = "Release Manager"`,
		`level = "info"`,
		"json git sqlite",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("template missing %q:\n%s", want, got)
		}
	}
}
