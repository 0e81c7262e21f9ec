package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/veritaslab/veritas/internal/pipeline"
)

var (
	analyzeText    string
	analyzeTimeout time.Duration
	analyzeOut     string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [url]",
	Short: "Analyze a YouTube video and print the fact-check report",
	Long: `Analyze runs the full pipeline for one video: transcript acquisition,
claim extraction, web-grounded verification, manipulation analysis, and
scoring. The report is printed as JSON.

When no transcript can be obtained automatically, rerun with --text and
paste the transcript yourself.

Example:
  veritas analyze https://www.youtube.com/watch?v=dQw4w9WgXcQ
  veritas analyze --text "transcript text..."
  veritas analyze https://youtu.be/dQw4w9WgXcQ --out report.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeText, "text", "", "analyze this transcript text instead of fetching one")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 10*time.Minute, "overall analysis timeout")
	analyzeCmd.Flags().StringVar(&analyzeOut, "out", "", "write the JSON report to this path instead of stdout")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	var url string
	if len(args) == 1 {
		url = args[0]
	}
	if url == "" && analyzeText == "" {
		return fmt.Errorf("provide a video URL or --text")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	p, err := buildPipeline(cfg, log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Analyzing: %s\n", url)
	}

	report, err := p.Analyze(ctx, pipeline.Input{URL: url, Text: analyzeText})
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	if analyzeOut != "" {
		if err := os.WriteFile(analyzeOut, append(out, '\n'), 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Report written to %s\n", analyzeOut)
		}
		return nil
	}

	fmt.Println(string(out))
	return nil
}
