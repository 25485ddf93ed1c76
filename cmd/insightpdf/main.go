// Package main provides the InsightPDF command line interface for one-shot
// local extraction without running the API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/insightpdf/insightpdf/internal/config"
	"github.com/insightpdf/insightpdf/internal/observability"
)

const version = "0.1.0"

var (
	cfgFile string
	verbose bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:     "insightpdf",
	Short:   "Extract application problems from scanned PDF textbooks",
	Version: version,
	Long: `InsightPDF sends scanned textbook pages to a multimodal LLM,
classifies the recognized application problems and exports them as
CSV or Excel spreadsheets.

Credentials are read from the environment (OPENAI_API_KEY, QWEN_API_KEY)
or a .env file in the working directory.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return nil
	},
}

func newLogger() observability.LogConfig {
	level := "warn"
	if verbose {
		level = "debug"
	}
	return observability.LogConfig{
		Level:   level,
		Format:  "console",
		Service: "insightpdf",
	}
}

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	rootCmd.AddCommand(newExtractCmd())
	rootCmd.AddCommand(newModelsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
