package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ruspass-tech/ruspass/internal/batch"
)

// batchCmd represents the batch command.
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Process directories of passport scans into one output table",
	Long: `Discover scan files under the given paths and extract a record per
document. Files sharing a parent directory are treated as pages of the
same passport.

Examples:
  ruspass batch ./scans --output passports.xlsx
  ruspass batch ./scans --format json --workers 8
  ruspass batch ./scans --no-group`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return errors.New("no input paths provided")
		}

		cfg := GetConfig()

		noGroup, _ := cmd.Flags().GetBool("no-group")
		quiet, _ := cmd.Flags().GetBool("quiet")
		stats, _ := cmd.Flags().GetBool("stats")
		include, _ := cmd.Flags().GetStringSlice("include")
		exclude, _ := cmd.Flags().GetStringSlice("exclude")

		format, outputFile := batchOutputOptions(cmd)

		batchConfig := batch.DefaultConfig()
		batchConfig.CloudAPIKey = cfg.OCR.CloudAPIKey
		batchConfig.LocalOCR = cfg.OCR.Local
		batchConfig.Preprocess = cfg.OCR.Preprocess
		batchConfig.Vertical = cfg.OCR.Vertical
		batchConfig.RulesPath = cfg.Parse.RulesPath
		batchConfig.MaxFileBytes = cfg.MaxFileBytes()
		batchConfig.GroupByDir = cfg.Batch.GroupByDir && !noGroup
		batchConfig.Format = format
		batchConfig.OutputFile = outputFile
		batchConfig.Workers = cfg.Batch.Workers
		batchConfig.Recursive = cfg.Batch.Recursive
		batchConfig.IncludePatterns = include
		batchConfig.ExcludePatterns = exclude
		batchConfig.Quiet = quiet

		result, err := batch.ProcessBatch(cmd.Context(), args, batchConfig)
		if err != nil {
			return fmt.Errorf("batch processing failed: %w", err)
		}

		if err := result.SaveResults(batchConfig.Format, batchConfig.OutputFile, quiet); err != nil {
			return err
		}
		if stats {
			result.PrintStats(quiet)
		}
		return nil
	},
}

// batchOutputOptions resolves the output format and file for the batch
// command. The output.* viper keys are bound to the image command's
// flags, so batch reads its own flags directly.
func batchOutputOptions(cmd *cobra.Command) (format, outputFile string) {
	format, _ = cmd.Flags().GetString("format")
	outputFile, _ = cmd.Flags().GetString("output")
	return format, outputFile
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().String("format", "xlsx", "output format (xlsx, json)")
	batchCmd.Flags().StringP("output", "o", "", "output file (default stdout)")
	batchCmd.Flags().Int("workers", 4, "number of parallel workers")
	batchCmd.Flags().Bool("recursive", true, "recurse into subdirectories")
	batchCmd.Flags().Bool("no-group", false, "treat every file as a separate document")
	batchCmd.Flags().StringSlice("include", nil, "glob patterns of files to include")
	batchCmd.Flags().StringSlice("exclude", nil, "glob patterns of files to exclude")
	batchCmd.Flags().Bool("quiet", false, "suppress progress output")
	batchCmd.Flags().Bool("stats", false, "print processing statistics")

	_ = viper.BindPFlag("batch.workers", batchCmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("batch.recursive", batchCmd.Flags().Lookup("recursive"))
}
