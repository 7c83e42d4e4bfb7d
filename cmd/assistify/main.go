// Command assistify runs the assistant as an HTTP API or as a terminal chat.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"assistify-backend/internal/app"
	"assistify-backend/internal/config"
	"assistify-backend/internal/logging"
	"assistify-backend/internal/server"
)

var (
	version  = "0.1.0"
	logLevel string
	port     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "assistify",
		Short: "Assistify - chat, search and summarize from one assistant",
		Long: `Assistify answers small talk, keeps a task list, does arithmetic,
searches Wikipedia, the web and YouTube, and summarizes documents.

Start the API server:   assistify serve
Chat in the terminal:   assistify chat`,
		SilenceUsage:      true,
		PersistentPreRunE: initLogging,
		RunE:              runServe,
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); defaults to LOG_LEVEL")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&port, "port", "", "listen port; defaults to PORT")
	rootCmd.AddCommand(serveCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "chat",
		Short: "Chat with the assistant in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			a, err := app.New(ctx, config.Load())
			if err != nil {
				return err
			}
			defer a.Close()
			return runChat(ctx, a, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("Assistify v%s\n", version)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initLogging(cmd *cobra.Command, args []string) error {
	level := logLevel
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	logging.Setup(level, os.Stderr)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	if port != "" {
		cfg.Port = port
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.NewServer(a).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("assistify server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
