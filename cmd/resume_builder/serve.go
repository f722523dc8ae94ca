package main

import (
	"cmp"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonathan/resume-builder/internal/llm"
	"github.com/jonathan/resume-builder/internal/server"
	"github.com/spf13/cobra"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Serve ATS scoring, keyword extraction and live scoring sessions over HTTP until
interrupted. Open session streams are closed before the server exits.

Report history needs DATABASE_URL and JWT_SECRET; keyword extraction with use_llm needs GEMINI_API_KEY.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	srv, err := server.New(server.Config{
		Port:        servePort,
		DatabaseURL: cmp.Or(appConfig.DatabaseURL, os.Getenv("DATABASE_URL")),
		APIKey:      cmp.Or(appConfig.APIKey, llm.APIKeyFromEnv()),
		Policy:      appConfig.Policy,
		Timing:      appConfig.Timing.Options(),
		UseBrowser:  appConfig.UseBrowser,
		Logger:      slog.Default(),
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}
