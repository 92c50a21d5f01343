package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ruspass-tech/ruspass/internal/config"
)

var (
	// Global configuration loader.
	configLoader *config.Loader
	// Global configuration.
	globalConfig *config.Config
	// Configuration file path.
	cfgFile string

	versionLine = "ruspass version dev"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ruspass",
	Short: "Structured field extraction from Russian passport scans",
	Long: `Extract structured, confidence-scored fields from scans of Russian
internal passports.

This tool provides:
- Cloud and local (Tesseract) text recognition with fallback
- Label-anchored field extraction with validation
- Vertical red-digit band detection for series and number
- MRZ fallback for machine-readable zones
- Batch processing of directories into XLSX or JSON

Examples:
  ruspass image scan.jpg
  ruspass image page1.jpg page2.jpg --format json
  ruspass batch ./scans --output passports.xlsx`,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, _ := cmd.PersistentFlags().GetBool("version")
		if v {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionLine)
			return nil
		}
		return cmd.Help()
	},
}

// SetVersionInfo records build metadata injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	versionLine = fmt.Sprintf("ruspass version %s (commit: %s, built: %s)", version, commit, date)
	rootCmd.Version = version
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetRootCommand returns the root command for testing purposes.
func GetRootCommand() *cobra.Command {
	return rootCmd
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is search in ., $HOME, $HOME/.config/ruspass, /etc/ruspass)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("cloud-api-key", "",
		"cloud vision API key (can also be set via RUSPASS_OCR_CLOUD_API_KEY)")
	rootCmd.PersistentFlags().Bool("local-ocr", true, "enable the local Tesseract backend")
	rootCmd.PersistentFlags().Bool("preprocess", true, "enable image preprocessing")
	rootCmd.PersistentFlags().String("rules", "", "YAML file overriding the built-in parsing rules")
	rootCmd.PersistentFlags().Bool("version", false, "print version information and exit")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("ocr.cloud_api_key", rootCmd.PersistentFlags().Lookup("cloud-api-key"))
	_ = viper.BindPFlag("ocr.local", rootCmd.PersistentFlags().Lookup("local-ocr"))
	_ = viper.BindPFlag("ocr.preprocess", rootCmd.PersistentFlags().Lookup("preprocess"))
	_ = viper.BindPFlag("parse.rules_path", rootCmd.PersistentFlags().Lookup("rules"))

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if globalConfig == nil {
			initConfig()
		}

		var logLevel slog.Level
		if globalConfig.Verbose {
			logLevel = slog.LevelDebug
		} else {
			switch globalConfig.LogLevel {
			case "debug":
				logLevel = slog.LevelDebug
			case "info":
				logLevel = slog.LevelInfo
			case "warn":
				logLevel = slog.LevelWarn
			case "error":
				logLevel = slog.LevelError
			default:
				logLevel = slog.LevelInfo
			}
		}

		logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		}))
		slog.SetDefault(logger)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	configLoader = config.NewLoader()

	var err error
	if cfgFile != "" {
		globalConfig, err = configLoader.LoadWithFile(cfgFile)
	} else {
		globalConfig, err = configLoader.Load()
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
}

// GetConfig returns the global configuration with CLI flag values applied.
func GetConfig() *config.Config {
	if globalConfig == nil {
		initConfig()
	}

	// Reload so flag bindings done after the initial load are included.
	loader := GetConfigLoader()
	var cfg config.Config
	if err := loader.GetViper().Unmarshal(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error unmarshaling updated configuration: %v\n", err)
		return globalConfig
	}

	return &cfg
}

// GetConfigLoader returns the global configuration loader.
func GetConfigLoader() *config.Loader {
	if configLoader == nil {
		configLoader = config.NewLoader()
	}
	return configLoader
}
