package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"regexp"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/deixis/mxvalidate/internal/config"
	"github.com/deixis/mxvalidate/internal/hostinfo"
	"github.com/deixis/mxvalidate/internal/mlflow"
	"github.com/deixis/mxvalidate/internal/report"
	"github.com/deixis/mxvalidate/internal/runner"
	"github.com/deixis/mxvalidate/internal/workflow"
)

var rootCmd = &cobra.Command{
	Use:   "mxvalidate",
	Short: "Validation test harness for MXNet with nGraph",
	Long: `Runs the MXNet/nGraph validation suites: example training and benchmark
scripts launched one at a time, with accuracy and timing extracted from their logs.

Suites are configured through TEST_* environment variables and the optional
.mxvalidate file at the repository root.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("workspace", "", "directory to search upward for .mxvalidate (default: current directory)")
	rootCmd.PersistentFlags().String("store-dir", "", "directory holding stored runs (default: user cache)")
	viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	viper.BindPFlag("store_dir", rootCmd.PersistentFlags().Lookup("store-dir"))
}

func initConfig() {
	viper.SetEnvPrefix("MXVALIDATE")
	viper.AutomaticEnv()
}

// engineOptions select where output goes and what the engine is wired to.
type engineOptions struct {
	timeout time.Duration // 0 keeps the configured timeout
	echo    io.Writer     // captured subprocess lines; nil discards
	out     io.Writer     // summaries
	publish bool          // connect the MLflow tracker
	store   report.Store  // nil uses the disk store

	// autoPublish connects the tracker only when MLflow is configured.
	autoPublish bool
	// set overrides environment variables for this engine.
	set map[string]string

	trackingURI, experimentID string // override MLFLOW_* when set
}

func newEngine(opts engineOptions) (*workflow.Engine, error) {
	workspace := viper.GetString("workspace")
	if workspace == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("determining workspace: %w", err)
		}
		workspace = wd
	}

	loaded, err := config.Load(workspace)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	cfg := loaded.Config
	env := config.NewEnv(cfg.Env)
	for k, v := range opts.set {
		env.Set(k, v)
	}

	filters, err := compileFilters(cfg.Echo.Patterns)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout()
	if opts.timeout > 0 {
		timeout = opts.timeout
	}

	store := opts.store
	if store == nil {
		store = newDiskStore()
	}

	eng := &workflow.Engine{
		Config: cfg,
		Env:    env,
		Runner: &runner.Runner{
			Workspace: loaded.RepoRoot,
			Timeout:   timeout,
			MaxOutput: cfg.MaxOutputBytes(),
			Echo:      opts.echo,
			Filters:   filters,
		},
		Out:      opts.out,
		Store:    store,
		Host:     hostinfo.Detect(),
		RepoRoot: loaded.RepoRoot,
	}

	if !opts.publish && !opts.autoPublish {
		return eng, nil
	}
	mcfg := mlflow.ConfigFrom(env, cfg.MLflow)
	if opts.trackingURI != "" {
		mcfg.TrackingURI = opts.trackingURI
	}
	if opts.experimentID != "" {
		mcfg.ExperimentID = opts.experimentID
	}
	if !opts.publish && !mcfg.Enabled() {
		log.Printf("MLflow is not configured (%s, %s), publishing disabled", mlflow.TrackingURIVar, mlflow.ExperimentIDVar)
		return eng, nil
	}
	tracker, err := mlflow.New(mcfg)
	if err != nil {
		return nil, err
	}
	eng.Tracker = tracker
	return eng, nil
}

func newDiskStore() *report.DiskStore {
	dir := viper.GetString("store_dir")
	if dir == "" {
		dir, _ = report.DefaultDir()
	}
	return report.NewDiskStore(dir)
}

func compileFilters(patterns []string) ([]*regexp.Regexp, error) {
	var out []*regexp.Regexp
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("echo pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}
