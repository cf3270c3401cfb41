package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deixis/mxvalidate/internal/workflow"
)

var extractCmd = &cobra.Command{
	Use:   "extract <logfile>",
	Short: "Extract results from a stored run log",
	Long: `Re-process a run log written by a previous run (e.g. test_mlp_mnist_cpu_ngraph.log)
and print the values extracted from it. --suite applies that suite's rules; the
default rules extract the command, accuracy and wallclock.`,
	Args: cobra.ExactArgs(1),
	RunE: extractLog,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().String("suite", "", "suite whose extraction rules to apply")
	extractCmd.Flags().Bool("json", false, "print results as JSON")
}

func extractLog(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("suite")
	asJSON, _ := cmd.Flags().GetBool("json")

	res, err := workflow.ExtractLog(args[0], name)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	for _, k := range res.Keys() {
		fmt.Printf("%s: %s\n", k, res.Value(k))
	}
	for _, s := range res.Throughput {
		fmt.Printf("%s: %.2f img/s\n", s.Name(), s.ImagesSec)
	}
	return nil
}
