package batch

import (
	"fmt"
	"os"
	"time"

	"github.com/ruspass-tech/ruspass/internal/pipeline"
)

// Config holds all configuration for batch processing.
type Config struct {
	// Recognition settings
	CloudAPIKey  string
	LocalOCR     bool
	Preprocess   bool
	Vertical     bool
	RulesPath    string
	MaxFileBytes int64

	// Grouping: treat files sharing a parent directory as pages of one
	// document.
	GroupByDir bool

	// Output settings
	Format     string // "xlsx" or "json"
	OutputFile string

	// Parallel processing settings
	Workers int

	// File discovery settings
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// Progress settings
	ShowProgress     bool
	Quiet            bool
	ProgressInterval time.Duration
}

// DefaultConfig returns batch defaults.
func DefaultConfig() *Config {
	return &Config{
		LocalOCR:         true,
		Preprocess:       true,
		Vertical:         true,
		GroupByDir:       true,
		Format:           "xlsx",
		Workers:          4,
		Recursive:        true,
		ShowProgress:     true,
		ProgressInterval: 100 * time.Millisecond,
	}
}

// Result holds the outcome of batch processing.
type Result struct {
	Results     []*pipeline.Result
	Groups      [][]string
	Duration    time.Duration
	WorkerCount int
}

// SaveResults writes the formatted output to a file or stdout.
func (r *Result) SaveResults(format, outputFile string, quiet bool) error {
	output, err := formatResults(r.Results, format)
	if err != nil {
		return fmt.Errorf("failed to format results: %w", err)
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, output, 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if !quiet {
			_, _ = fmt.Fprintf(os.Stdout, "Results written to %s\n", outputFile)
		}
	} else {
		_, _ = os.Stdout.Write(output)
	}

	return nil
}

// PrintStats prints processing statistics.
func (r *Result) PrintStats(quiet bool) {
	if quiet {
		return
	}
	processed, failed := 0, 0
	for _, res := range r.Results {
		if res != nil && len(res.Record.Errors) == 0 {
			processed++
		} else {
			failed++
		}
	}
	_, _ = fmt.Fprintf(os.Stdout, "\nProcessing Statistics:\n")
	_, _ = fmt.Fprintf(os.Stdout, "  Total documents: %d\n", len(r.Results))
	_, _ = fmt.Fprintf(os.Stdout, "  Clean: %d\n", processed)
	_, _ = fmt.Fprintf(os.Stdout, "  With errors: %d\n", failed)
	_, _ = fmt.Fprintf(os.Stdout, "  Workers: %d\n", r.WorkerCount)
	_, _ = fmt.Fprintf(os.Stdout, "  Duration: %v\n", r.Duration.Round(time.Millisecond))
}
