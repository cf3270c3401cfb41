package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deixis/mxvalidate/internal/suite"
	"github.com/deixis/mxvalidate/internal/workflow"
)

var listCmd = &cobra.Command{
	Use:   "list [suites...]",
	Short: "List suites, or show how the named suites resolve",
	Long: `Without arguments, list every validation suite. With suite names, show the
script, directories, parameters and command each one would run in the
current environment, without running anything.`,
	RunE: listSuites,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func listSuites(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		fmt.Print(workflow.FormatSuites(suite.All()))
		return nil
	}

	eng, err := newEngine(engineOptions{})
	if err != nil {
		return err
	}
	for i, name := range args {
		plan, err := eng.Plan(name)
		if err != nil {
			return err
		}
		if i > 0 {
			fmt.Println()
		}
		fmt.Print(workflow.FormatPlan(plan))
	}
	return nil
}
