package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	mxmcp "github.com/deixis/mxvalidate/internal/mcp"
	"github.com/deixis/mxvalidate/internal/report"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Serve the mx_suites, mx_validate and mx_inspect tools over stdio, or over
streamable HTTP with --http. Subprocess output and summaries go to stderr.`,
	Args: cobra.NoArgs,
	RunE: mcpServe,
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().Bool("instructions", false, "print model instructions and exit")
	mcpCmd.Flags().String("http", "", "start HTTP server on address (e.g. :9090)")
	mcpCmd.Flags().Bool("publish", false, "require the MLflow tracker (default: connect when MLFLOW_TRACKING_URI and MLFLOW_EXPERIMENT_ID are set)")
}

func mcpServe(cmd *cobra.Command, args []string) error {
	instructions, _ := cmd.Flags().GetBool("instructions")
	httpAddr, _ := cmd.Flags().GetString("http")
	publish, _ := cmd.Flags().GetBool("publish")

	if instructions {
		fmt.Print(mxmcp.Instructions)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store := report.NewLRUStore(5, newDiskStore())
	eng, err := newEngine(engineOptions{
		echo:        os.Stderr,
		out:         os.Stderr,
		publish:     publish,
		autoPublish: true,
		store:       store,
	})
	if err != nil {
		return err
	}

	server := mxmcp.NewServer(eng, store)
	if httpAddr != "" {
		return serveHTTP(ctx, server, httpAddr)
	}
	return server.Run(ctx, &mcpsdk.StdioTransport{})
}

func serveHTTP(ctx context.Context, server *mcpsdk.Server, addr string) error {
	handler := mcpsdk.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcpsdk.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		_ = httpServer.Close()
	}()

	log.Printf("listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
