package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deixis/mxvalidate/internal/report"
	"github.com/deixis/mxvalidate/internal/workflow"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [run-id [suite [field]]]",
	Short: "Show stored runs",
	Long: `Without arguments, list stored runs, newest first. With a run ID (or a
unique prefix), show the run; add a suite for its full record, and a field
such as accuracy, wallclock or status for a single value.`,
	Args: cobra.MaximumNArgs(3),
	RunE: inspectRun,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func inspectRun(cmd *cobra.Command, args []string) error {
	store := newDiskStore()
	if len(args) == 0 {
		ids, err := store.List()
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	}

	run, err := store.Load(args[0])
	if err != nil {
		return err
	}
	switch len(args) {
	case 1:
		fmt.Print(workflow.FormatRun(run))
	case 2:
		rec, err := report.BySuite(run, args[1])
		if err != nil {
			return err
		}
		fmt.Print(workflow.FormatSuite(run.ID, rec))
	default:
		v, err := report.Field(run, args[1], args[2])
		if err != nil {
			return err
		}
		fmt.Println(v)
	}
	return nil
}
