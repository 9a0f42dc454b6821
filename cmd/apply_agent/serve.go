package main

import (
	"fmt"

	"github.com/jonathan/intern-autoapply/internal/server"
	"github.com/spf13/cobra"
)

var (
	servePort        int
	serveMaxUploadMB int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP server exposing /analyze-resume, /scrape-jobs, /auto-apply and friends.

The apply endpoints need a bearer token from POST /auth/token, which checks the password
against OPERATOR_PASSWORD_HASH. JWT_SECRET must be set.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().IntVar(&serveMaxUploadMB, "max-upload-mb", 10, "Largest accepted resume upload in MiB")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	service, _, err := newService(cmd)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		Port:           servePort,
		MaxUploadBytes: int64(serveMaxUploadMB) << 20,
	}, service)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
