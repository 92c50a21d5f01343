// Package batch processes directories of passport scans into one output
// table. Files sharing a parent directory are treated as pages of the
// same document.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ruspass-tech/ruspass/internal/pipeline"
)

// ProcessBatch discovers files under paths and extracts a record per
// document group.
func ProcessBatch(ctx context.Context, paths []string, config *Config) (*Result, error) {
	files, err := discoverInputFiles(paths, config.Recursive, config.IncludePatterns, config.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to discover input files: %w", err)
	}
	if len(files) == 0 {
		return nil, errors.New("no input files found")
	}

	groups := groupFiles(files, config.GroupByDir)

	pl, err := buildPipeline(config)
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}

	startTime := time.Now()
	results, err := pl.ProcessGroupsParallel(ctx, groups, pipeline.ParallelConfig{
		MaxWorkers:       config.Workers,
		ProgressCallback: progressCallback(config),
	})
	if err != nil {
		return nil, fmt.Errorf("batch processing failed: %w", err)
	}

	return &Result{
		Results:     results,
		Groups:      groups,
		Duration:    time.Since(startTime),
		WorkerCount: config.Workers,
	}, nil
}

// progressCallback picks the progress reporter: a console bar when one
// was asked for, structured log lines otherwise. Quiet suppresses both.
func progressCallback(config *Config) pipeline.ProgressCallback {
	if config.Quiet {
		return nil
	}
	if config.ShowProgress {
		return pipeline.NewConsoleProgressCallback(os.Stdout, "Processing: ")
	}
	return pipeline.NewLogProgressCallback(nil, slog.LevelInfo, "batch: ")
}

// buildPipeline assembles the extraction pipeline from batch config.
func buildPipeline(config *Config) (*pipeline.Pipeline, error) {
	builder := pipeline.NewBuilder().
		WithCloudAPIKey(config.CloudAPIKey).
		WithLocalOCR(config.LocalOCR).
		WithPreprocess(config.Preprocess).
		WithVerticalDetection(config.Vertical).
		WithRulesPath(config.RulesPath).
		WithParallelWorkers(config.Workers)
	if config.MaxFileBytes > 0 {
		builder = builder.WithMaxFileBytes(config.MaxFileBytes)
	}
	return builder.Build()
}
