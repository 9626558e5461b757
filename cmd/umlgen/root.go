package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aiuml/api/internal/analysis"
	"github.com/aiuml/api/internal/config"
	"github.com/aiuml/api/internal/document"
	"github.com/aiuml/api/internal/gemini"
	"github.com/aiuml/api/internal/logger"
	"github.com/aiuml/api/internal/prompt"
)

var (
	// Command line flags
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "umlgen",
	Short: "Generate UML diagram text from requirements or source code",
	Long: `umlgen runs the diagram and pattern pipelines locally against Gemini,
without the HTTP server or any storage. Input is read from a file argument,
or from stdin when the argument is "-" or missing.`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn",
		"Set the logging level (debug, info, warn, error)")
}

// pipeline builds the analysis service from the same environment the
// server reads.
func pipeline() (*analysis.Service, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(logLevel, "development")
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}

	gen, err := gemini.New(gemini.Config{
		APIKey:     cfg.GeminiAPIKey,
		BaseURL:    cfg.GeminiBaseURL,
		Candidates: cfg.Candidates,
		Timeout:    cfg.GenerationTimeout,
	}, gemini.WithLogger(log))
	if err != nil {
		return nil, nil, err
	}
	if err := gen.Configured(); err != nil {
		log.Warn("generation backend is not configured", zap.Error(err))
	}

	return analysis.NewService(gen, prompt.ParseNotation(cfg.DiagramNotation), log, nil), cfg, nil
}

// readInput returns the text of the file named by args, or stdin.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return "", err
	}

	text, err := document.Extract(data)
	if err != nil {
		return "", err
	}
	return text.Content, nil
}
