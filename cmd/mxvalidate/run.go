package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/deixis/mxvalidate/internal/config"
	"github.com/deixis/mxvalidate/internal/report"
	"github.com/deixis/mxvalidate/internal/workflow"
)

var runCmd = &cobra.Command{
	Use:   "run [suites...]",
	Short: "Run validation suites",
	Long: `Run the named suites in order, one at a time. Without arguments the suites
listed in .mxvalidate run, or every suite when none are configured.

Exits with status 1 unless every suite passed.`,
	RunE: runSuites,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("fake", false, "sleep and return a canned log for fakeable suites (as MX_NG_DO_NOT_RUN)")
	runCmd.Flags().Bool("fail-fast", false, "skip remaining suites after the first one that does not pass")
	runCmd.Flags().String("junit-xml", "", "write a JUnit XML report to this path")
	runCmd.Flags().String("junit-prefix", "", "prefix for JUnit test class names")
	runCmd.Flags().Duration("timeout", 0, "override the configured per-suite timeout (e.g. 12h)")
	runCmd.Flags().Bool("json", false, "print the run result as JSON")
	runCmd.Flags().Bool("publish", false, "publish each suite to MLflow (MLFLOW_TRACKING_URI, MLFLOW_EXPERIMENT_ID)")
	runCmd.Flags().String("tracking-uri", "", "MLflow tracking URI (overrides MLFLOW_TRACKING_URI)")
	runCmd.Flags().String("experiment-id", "", "MLflow experiment ID (overrides MLFLOW_EXPERIMENT_ID)")
	runCmd.Flags().BoolP("quiet", "q", false, "do not echo subprocess output")
	runCmd.Flags().StringToString("set", nil, "override suite variables (e.g. --set TEST_MX_NG_RESNET_NUM_EPOCHS=2)")
}

func runSuites(cmd *cobra.Command, args []string) error {
	fake, _ := cmd.Flags().GetBool("fake")
	failFast, _ := cmd.Flags().GetBool("fail-fast")
	junitPath, _ := cmd.Flags().GetString("junit-xml")
	junitPrefix, _ := cmd.Flags().GetString("junit-prefix")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	asJSON, _ := cmd.Flags().GetBool("json")
	publish, _ := cmd.Flags().GetBool("publish")
	trackingURI, _ := cmd.Flags().GetString("tracking-uri")
	experimentID, _ := cmd.Flags().GetString("experiment-id")
	quiet, _ := cmd.Flags().GetBool("quiet")
	set, _ := cmd.Flags().GetStringToString("set")
	if fake {
		if set == nil {
			set = map[string]string{}
		}
		set[config.FakeRunVar] = "1"
	}

	// Keep stdout clean for JSON.
	var out io.Writer = os.Stdout
	if asJSON {
		out = os.Stderr
	}
	var echo io.Writer = out
	if quiet {
		echo = nil
	}

	eng, err := newEngine(engineOptions{
		timeout:      timeout,
		echo:         echo,
		out:          out,
		publish:      publish,
		trackingURI:  trackingURI,
		experimentID: experimentID,
		set:          set,
	})
	if err != nil {
		return err
	}

	names := args
	if len(names) == 0 {
		names = eng.Config.Suites
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	run, err := eng.Validate(ctx, names, workflow.Options{
		FailFast: failFast,
		Publish:  publish,
	})
	if err != nil {
		return err
	}

	if junitPath != "" {
		if err := report.WriteJUnitFile(junitPath, run, junitPrefix); err != nil {
			return err
		}
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(run); err != nil {
			return err
		}
	} else {
		fmt.Println()
		fmt.Print(workflow.FormatRun(run))
	}

	if !run.Passed() {
		return fmt.Errorf("not every suite passed: %s", run.CountLine())
	}
	return nil
}
