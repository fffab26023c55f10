package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/claimstream/internal/eventlog"
	"github.com/ppiankov/claimstream/internal/logging"
	"github.com/ppiankov/claimstream/internal/pipeline"
	"github.com/ppiankov/claimstream/internal/relay"
	"github.com/ppiankov/claimstream/internal/store"
)

var (
	serveAddr     string
	serveDB       string
	serveLLM      string
	serveLLMModel string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the relay server",
	Long: `Serve starts the HTTP relay: run submission, live server-sent event
streaming and replay of completed runs.

Example:
  claimstream serve
  claimstream serve --addr :9000 --db /var/lib/claimstream/runs.db
  claimstream serve --llm openai --llm-model gpt-4o-mini`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().StringVar(&serveDB, "db", "", "SQLite result store path")
	serveCmd.Flags().StringVar(&serveLLM, "llm", "", "LLM verifier provider (openai, anthropic, ollama)")
	serveCmd.Flags().StringVar(&serveLLMModel, "llm-model", "", "LLM model name")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if serveDB != "" {
		cfg.Store.Path = serveDB
	}
	if serveLLM != "" {
		cfg.LLM.Provider = serveLLM
		resolveAPIKey(cfg)
	}
	if serveLLMModel != "" {
		cfg.LLM.Model = serveLLMModel
	}

	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = st.Close() }()

	log := eventlog.New(cfg.EventLog.TTL, cfg.EventLog.CleanupInterval)
	runner := pipeline.NewRunner(log, st, cfg)
	srv := relay.NewServer(log, st, runner, cfg.Server, cfg.EventLog.PollInterval)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logging.Info("Shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
