// Package pipeline wires ingestion, preprocessing, recognition and field
// extraction into one linear flow. Every stage failure ends up as an
// error string inside the record; nothing escapes the pipeline boundary.
package pipeline

import (
	"errors"

	"github.com/ruspass-tech/ruspass/internal/classify"
	"github.com/ruspass-tech/ruspass/internal/ingest"
	"github.com/ruspass-tech/ruspass/internal/ocr"
	"github.com/ruspass-tech/ruspass/internal/parse"
	"github.com/ruspass-tech/ruspass/internal/preprocess"
	"github.com/ruspass-tech/ruspass/internal/validate"
	"github.com/ruspass-tech/ruspass/internal/vertical"
)

// Config holds configuration for the extraction pipeline and its stages.
type Config struct {
	CloudAPIKey     string
	CloudURL        string
	LocalOCR        bool
	PreprocessOn    bool
	Preprocess      preprocess.Config
	Ingest          ingest.Config
	RulesPath       string
	VerticalEnabled bool

	Parallel ParallelConfig
}

// DefaultConfig returns a pipeline config with stage defaults.
func DefaultConfig() Config {
	return Config{
		CloudURL:        ocr.DefaultCloudURL,
		LocalOCR:        true,
		PreprocessOn:    true,
		Preprocess:      preprocess.DefaultConfig(),
		Ingest:          ingest.DefaultConfig(),
		VerticalEnabled: true,
		Parallel:        DefaultParallelConfig(),
	}
}

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	cfg Config
	// injected stand-ins for tests
	backends []ocr.Backend
	reader   vertical.DigitReader
}

// NewBuilder creates a pipeline builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithCloudAPIKey enables the cloud backend with the given key.
func (b *Builder) WithCloudAPIKey(key string) *Builder {
	b.cfg.CloudAPIKey = key
	return b
}

// WithCloudURL overrides the cloud endpoint.
func (b *Builder) WithCloudURL(url string) *Builder {
	if url != "" {
		b.cfg.CloudURL = url
	}
	return b
}

// WithLocalOCR toggles the local Tesseract backend.
func (b *Builder) WithLocalOCR(enabled bool) *Builder {
	b.cfg.LocalOCR = enabled
	return b
}

// WithPreprocess toggles image preprocessing.
func (b *Builder) WithPreprocess(enabled bool) *Builder {
	b.cfg.PreprocessOn = enabled
	return b
}

// WithRulesPath loads parser locale rules from a YAML file.
func (b *Builder) WithRulesPath(path string) *Builder {
	b.cfg.RulesPath = path
	return b
}

// WithMaxFileBytes sets the input size ceiling.
func (b *Builder) WithMaxFileBytes(n int64) *Builder {
	if n > 0 {
		b.cfg.Ingest.MaxFileBytes = n
	}
	return b
}

// WithVerticalDetection toggles the vertical digit band detector.
func (b *Builder) WithVerticalDetection(enabled bool) *Builder {
	b.cfg.VerticalEnabled = enabled
	return b
}

// WithParallelWorkers sets the worker count for batch processing.
func (b *Builder) WithParallelWorkers(workers int) *Builder {
	if workers > 0 {
		b.cfg.Parallel.MaxWorkers = workers
	}
	return b
}

// WithProgressCallback sets the progress callback for batch processing.
func (b *Builder) WithProgressCallback(callback ProgressCallback) *Builder {
	b.cfg.Parallel.ProgressCallback = callback
	return b
}

// WithBackends replaces the recognition backends. Intended for tests.
func (b *Builder) WithBackends(backends ...ocr.Backend) *Builder {
	b.backends = backends
	return b
}

// WithDigitReader replaces the vertical digit reader. Intended for tests.
func (b *Builder) WithDigitReader(reader vertical.DigitReader) *Builder {
	b.reader = reader
	return b
}

// Config returns a copy of the current config.
func (b *Builder) Config() Config { return b.cfg }

// Pipeline runs the extraction stages over page scans.
type Pipeline struct {
	cfg        Config
	backends   []ocr.Backend
	parser     *parse.Parser
	classifier *classify.Classifier
	validator  *validate.Validator
	detector   *vertical.Detector
}

// Build initializes the pipeline stages.
func (b *Builder) Build() (*Pipeline, error) {
	var rules *parse.Rules
	if b.cfg.RulesPath != "" {
		loaded, err := parse.LoadRules(b.cfg.RulesPath)
		if err != nil {
			return nil, err
		}
		rules = loaded
	}

	backends := b.backends
	if backends == nil {
		var cloud *ocr.CloudBackend
		if b.cfg.CloudAPIKey != "" {
			cloud = ocr.NewCloudBackend(b.cfg.CloudAPIKey)
			cloud.URL = b.cfg.CloudURL
		}
		var local *ocr.LocalBackend
		if b.cfg.LocalOCR {
			local = ocr.NewLocalBackend()
		}
		backends = ocr.Backends(cloud, local)
	}
	if len(backends) == 0 {
		return nil, errors.New("no recognition backend configured")
	}

	p := &Pipeline{
		cfg:        b.cfg,
		backends:   backends,
		parser:     parse.NewParser(rules),
		classifier: classify.New(classify.Keywords{}),
		validator:  validate.New(),
	}

	if b.cfg.VerticalEnabled {
		reader := b.reader
		if reader == nil {
			reader = ocr.NewTesseractDigitReader()
		}
		p.detector = vertical.NewDetector(reader, rules)
	}
	return p, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }
