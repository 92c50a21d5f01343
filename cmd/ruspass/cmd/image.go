package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ruspass-tech/ruspass/internal/config"
	"github.com/ruspass-tech/ruspass/internal/document"
	"github.com/ruspass-tech/ruspass/internal/export"
	"github.com/ruspass-tech/ruspass/internal/parse"
	"github.com/ruspass-tech/ruspass/internal/pipeline"
)

const (
	outputFormatJSON = "json"
	outputFormatXLSX = "xlsx"
)

// imageCmd represents the image command.
var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "Extract passport fields from one or more scans",
	Long: `Process scan files and extract structured passport fields.

Multiple files are treated as pages of the same passport (for example the
main spread plus the registration page) and produce a single record.

Supported formats: JPEG, PNG, BMP, TIFF, PDF

Examples:
  ruspass image scan.jpg
  ruspass image main.jpg registration.jpg
  ruspass image scan.pdf --format json --output result.json`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return errors.New("no input files provided")
		}

		cfg := GetConfig()

		format := cfg.Output.Format
		if format != outputFormatJSON && format != outputFormatXLSX {
			return fmt.Errorf("invalid output format: %s (must be json or xlsx)", format)
		}

		pl, err := buildPipelineFromConfig(cfg)
		if err != nil {
			return fmt.Errorf("failed to build pipeline: %w", err)
		}

		ctx := cmd.Context()
		var res *pipeline.Result
		if len(args) == 1 {
			res = pl.ProcessFile(ctx, args[0])
		} else {
			res = pl.ProcessGroup(ctx, args)
		}

		var output []byte
		switch format {
		case outputFormatXLSX:
			inn := parse.ExtractINN(res.Text)
			output, err = export.WriteXLSX([]export.Row{export.RecordToRow(res.Record, 1, inn, res.Text)})
		default:
			output, err = export.WriteJSON([]*document.Record{res.Record})
		}
		if err != nil {
			return fmt.Errorf("failed to format result: %w", err)
		}

		if cfg.Output.File != "" {
			if err := os.WriteFile(cfg.Output.File, output, 0o600); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			return nil
		}
		_, err = cmd.OutOrStdout().Write(output)
		return err
	},
}

// buildPipelineFromConfig wires the resolved configuration into a pipeline.
func buildPipelineFromConfig(cfg *config.Config) (*pipeline.Pipeline, error) {
	return pipeline.NewBuilder().
		WithCloudAPIKey(cfg.OCR.CloudAPIKey).
		WithCloudURL(cfg.OCR.CloudURL).
		WithLocalOCR(cfg.OCR.Local).
		WithPreprocess(cfg.OCR.Preprocess).
		WithVerticalDetection(cfg.OCR.Vertical).
		WithRulesPath(cfg.Parse.RulesPath).
		WithMaxFileBytes(cfg.MaxFileBytes()).
		Build()
}

func init() {
	rootCmd.AddCommand(imageCmd)

	imageCmd.Flags().String("format", "json", "output format (json, xlsx)")
	imageCmd.Flags().StringP("output", "o", "", "output file (default stdout)")

	_ = viper.BindPFlag("output.format", imageCmd.Flags().Lookup("format"))
	_ = viper.BindPFlag("output.file", imageCmd.Flags().Lookup("output"))
}
