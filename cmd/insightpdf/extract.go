package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/insightpdf/insightpdf/internal/domain"
	"github.com/insightpdf/insightpdf/internal/export"
	"github.com/insightpdf/insightpdf/internal/llm"
	"github.com/insightpdf/insightpdf/internal/normalize"
	"github.com/insightpdf/insightpdf/internal/observability"
	"github.com/insightpdf/insightpdf/internal/pdf"
	"github.com/insightpdf/insightpdf/internal/pipeline"
)

func newExtractCmd() *cobra.Command {
	var (
		output   string
		format   string
		provider string
		model    string
		prompt   string
	)

	cmd := &cobra.Command{
		Use:   "extract <pdf-file>",
		Short: "Extract application problems from a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pdfPath := args[0]
			if err := pdf.ValidateFilename(pdfPath); err != nil {
				return err
			}

			raw, err := os.ReadFile(pdfPath)
			if err != nil {
				return fmt.Errorf("read %s: %w", pdfPath, err)
			}

			if provider == "" {
				provider = cfg.DefaultModel
			}
			modelCfg, err := cfg.ModelConfigFor(provider)
			if err != nil {
				return err
			}
			if model != "" {
				modelCfg.Model = model
			}

			logger := observability.NewLogger(newLogger())
			extractor := pdf.NewExtractor(cfg.Pipeline.ImageQuality)
			client := llm.NewClient(logger)
			normalizer := normalize.NewNormalizer(logger)
			pipe := pipeline.New(extractor, client, normalizer, logger)

			document := filepath.Base(pdfPath)
			color.Cyan("Processing %s with %s/%s", document, modelCfg.Provider, modelCfg.Model)

			var bar *progressbar.ProgressBar
			progress := func(p pipeline.Progress) {
				if p.Phase != pipeline.PhaseInvoking {
					return
				}
				if bar == nil {
					bar = progressbar.NewOptions(p.TotalPages,
						progressbar.OptionSetDescription("pages"),
						progressbar.OptionShowCount(),
					)
				}
				_ = bar.Set(p.PageIndex - 1)
			}

			result, err := pipe.Run(cmd.Context(), raw, document, modelCfg, prompt, progress)
			if err != nil {
				return err
			}
			if bar != nil {
				_ = bar.Finish()
				fmt.Println()
			}

			printSummary(result)

			if output == "" {
				base := strings.TrimSuffix(document, filepath.Ext(document))
				output = fmt.Sprintf("%s-questions.%s", base, format)
			}
			payload, err := renderOutput(result, format)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, payload, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}

			color.Green("Wrote %d questions to %s", len(result.Records), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file path (default <input>-questions.<format>)")
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "output format: csv, xlsx or json")
	cmd.Flags().StringVarP(&provider, "provider", "p", "", "model provider (default from config)")
	cmd.Flags().StringVarP(&model, "model", "m", "", "override the provider's default model")
	cmd.Flags().StringVar(&prompt, "prompt", "", "custom extraction prompt")

	return cmd
}

func renderOutput(result *domain.ProcessingResult, format string) ([]byte, error) {
	if format == "json" {
		return json.MarshalIndent(result, "", "  ")
	}
	exporter, err := export.ForFormat(format)
	if err != nil {
		return nil, err
	}
	return exporter.Export(result)
}

func printSummary(result *domain.ProcessingResult) {
	stats := result.Stats()
	fmt.Printf("Outcome: %s, %d questions from %d/%d pages in %s\n",
		result.Outcome, stats.TotalQuestions, stats.ProcessedPages,
		stats.TotalPages, result.Elapsed.Round(time.Millisecond))

	for _, f := range result.Failures {
		color.Yellow("  page %d failed: %s (%s)", f.PageIndex, f.Reason, f.Detail)
	}
}
