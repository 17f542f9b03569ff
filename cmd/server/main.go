// Command normalize-bot serves the message normalizer over HTTP and can
// normalize a single message from the command line.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mrericsingh-eng/normalize/internal/app"
	"github.com/mrericsingh-eng/normalize/internal/config"
	"github.com/mrericsingh-eng/normalize/internal/logging"
	"github.com/mrericsingh-eng/normalize/internal/processing"
)

var (
	configPath string
	verbose    bool

	messageID string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "normalize-bot",
	Short: "Normalize inbound traveler messages",
	Long: `normalize-bot turns free-form traveler messages into structured records:
a category, contact details, mentioned places and venues, local emergency
numbers and likely typos. A language model is used when configured; regex
heuristics take over otherwise.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logger, err = logging.New(cfg.LogLevel, verbose)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

var normalizeCmd = &cobra.Command{
	Use:   "normalize [text...]",
	Short: "Normalize one message and print the JSON record",
	Long:  "Normalize the message given as arguments, or read it from stdin when no arguments are given.",
	RunE:  runNormalize,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "normalize.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	normalizeCmd.Flags().StringVar(&messageID, "id", "", "Message ID (random when empty)")

	rootCmd.AddCommand(serveCmd, normalizeCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}

	serveErr := a.Serve(ctx, 10*time.Second)
	if err := a.Close(); err != nil {
		logger.Warn("close", zap.Error(err))
	}
	if serveErr != nil {
		return serveErr
	}
	logger.Info("shutdown complete")
	return nil
}

func runNormalize(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	if text == "" {
		b, err := io.ReadAll(bufio.NewReader(cmd.InOrStdin()))
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(b)
	}
	if strings.TrimSpace(text) == "" {
		return errors.New("no message text given")
	}
	if messageID == "" {
		messageID = uuid.NewString()
	}

	ctx := cmd.Context()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	out, err := a.Processor.Normalize(ctx, processing.NormalizeIn{MessageID: messageID, Text: text})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
