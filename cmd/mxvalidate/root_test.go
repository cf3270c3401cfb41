package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/deixis/mxvalidate/internal/config"
	"github.com/deixis/mxvalidate/internal/mlflow"
	"github.com/deixis/mxvalidate/internal/runner"
)

func useWorkspace(t *testing.T) {
	t.Helper()
	viper.Set("workspace", t.TempDir())
	viper.Set("store_dir", t.TempDir())
	t.Cleanup(func() {
		viper.Set("workspace", "")
		viper.Set("store_dir", "")
	})
}

func TestCompileFilters(t *testing.T) {
	res, err := compileFilters([]string{"^Accuracy", "img/s$"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 2 || !res[0].MatchString("Accuracy: 0.9") {
		t.Errorf("filters = %v", res)
	}
	if _, err := compileFilters([]string{"("}); err == nil {
		t.Error("expected error for invalid pattern")
	}
}

func TestNewEngine_Config(t *testing.T) {
	dir := t.TempDir()
	cfg := "timeout: 30m\nsuites: [mnist-mlp]\necho:\n  patterns: ['^Accuracy']\n"
	if err := os.WriteFile(filepath.Join(dir, ".mxvalidate"), []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	viper.Set("workspace", dir)
	viper.Set("store_dir", t.TempDir())
	t.Cleanup(func() {
		viper.Set("workspace", "")
		viper.Set("store_dir", "")
	})

	eng, err := newEngine(engineOptions{timeout: time.Minute})
	if err != nil {
		t.Fatal(err)
	}
	r, ok := eng.Runner.(*runner.Runner)
	if !ok {
		t.Fatalf("Runner is %T", eng.Runner)
	}
	if r.Timeout != time.Minute {
		t.Errorf("Timeout = %v, want the override", r.Timeout)
	}
	if len(r.Filters) != 1 {
		t.Errorf("Filters = %v", r.Filters)
	}
	if r.Workspace != eng.RepoRoot {
		t.Errorf("Workspace = %q, RepoRoot = %q", r.Workspace, eng.RepoRoot)
	}
	if len(eng.Config.Suites) != 1 || eng.Config.Suites[0] != "mnist-mlp" {
		t.Errorf("Suites = %v", eng.Config.Suites)
	}
	if eng.Tracker != nil {
		t.Error("tracker connected without publish")
	}
}

func TestNewEngine_SetOverridesEnv(t *testing.T) {
	t.Setenv(config.FakeRunVar, "")
	useWorkspace(t)

	eng, err := newEngine(engineOptions{set: map[string]string{config.FakeRunVar: "1"}})
	if err != nil {
		t.Fatal(err)
	}
	if !eng.Env.FakeRun() {
		t.Error("FakeRun() = false, want the --set override")
	}
}

func TestNewEngine_AutoPublish(t *testing.T) {
	t.Setenv(mlflow.TrackingURIVar, "")
	t.Setenv(mlflow.ExperimentIDVar, "")
	useWorkspace(t)

	eng, err := newEngine(engineOptions{autoPublish: true})
	if err != nil {
		t.Fatalf("unconfigured MLflow: %v", err)
	}
	if eng.Tracker != nil {
		t.Error("tracker connected without MLflow configuration")
	}

	if _, err := newEngine(engineOptions{publish: true}); err == nil {
		t.Error("expected error when publishing is required without MLflow configuration")
	}
}
