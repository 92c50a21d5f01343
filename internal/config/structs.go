package config

// Config represents the complete configuration for the ruspass
// application. It covers the image and batch commands and loads from
// configuration files, environment variables, and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Recognition configuration
	OCR OCRConfig `mapstructure:"ocr" yaml:"ocr" json:"ocr"`

	// Field extraction configuration
	Parse ParseConfig `mapstructure:"parse" yaml:"parse" json:"parse"`

	// Input handling
	Ingest IngestConfig `mapstructure:"ingest" yaml:"ingest" json:"ingest"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Batch processing configuration
	Batch BatchConfig `mapstructure:"batch" yaml:"batch" json:"batch"`
}

// OCRConfig contains recognition backend settings.
type OCRConfig struct {
	// CloudAPIKey enables the cloud backend when set. Usually supplied
	// via RUSPASS_OCR_CLOUD_API_KEY rather than a file.
	CloudAPIKey string `mapstructure:"cloud_api_key" yaml:"cloud_api_key" json:"-"`
	CloudURL    string `mapstructure:"cloud_url" yaml:"cloud_url" json:"cloud_url"`
	Local       bool   `mapstructure:"local" yaml:"local" json:"local"`
	Preprocess  bool   `mapstructure:"preprocess" yaml:"preprocess" json:"preprocess"`
	Vertical    bool   `mapstructure:"vertical" yaml:"vertical" json:"vertical"`
}

// ParseConfig contains field extraction settings.
type ParseConfig struct {
	// RulesPath points to a YAML file overriding the built-in locale
	// rules (labels, denylist, patronymic suffixes).
	RulesPath string `mapstructure:"rules_path" yaml:"rules_path" json:"rules_path"`
}

// IngestConfig contains input file settings.
type IngestConfig struct {
	MaxFileMB int64 `mapstructure:"max_file_mb" yaml:"max_file_mb" json:"max_file_mb"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
	File   string `mapstructure:"file" yaml:"file" json:"file"`
}

// BatchConfig contains batch processing settings.
type BatchConfig struct {
	Workers    int  `mapstructure:"workers" yaml:"workers" json:"workers"`
	GroupByDir bool `mapstructure:"group_by_dir" yaml:"group_by_dir" json:"group_by_dir"`
	Recursive  bool `mapstructure:"recursive" yaml:"recursive" json:"recursive"`
}
