// Package document defines the structured extraction result types shared by
// the parser, validator and pipeline: per-field values with confidence and
// provenance, the closed passport field set, validation checks and the
// top-level extraction record.
package document

import (
	"encoding/json"
)

// DocType identifies the document family this extractor handles.
const DocType = "passport_rf_internal"

// Source tags identify which subsystem produced a field value.
const (
	SourceOCR      = "ocr"
	SourceMRZ      = "mrz"
	SourceVertical = "vertical-digits"
)

// PageType classifies which physical page of the passport an image shows.
type PageType string

const (
	PageMain         PageType = "main_spread"
	PageRegistration PageType = "registration"
	PageUnknown      PageType = "unknown"
)

// FieldValue is one extracted datum. An empty Value always carries
// confidence 0 and serializes as JSON null.
type FieldValue struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
}

// NewFieldValue constructs a field value, enforcing the empty-value invariant.
func NewFieldValue(value string, confidence float64, source string) FieldValue {
	if value == "" {
		return FieldValue{Source: source}
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return FieldValue{Value: value, Confidence: confidence, Source: source}
}

// Empty reports whether no value was extracted.
func (f FieldValue) Empty() bool { return f.Value == "" }

// MarshalJSON emits null for an absent value so consumers can distinguish
// "not found" from an empty string.
func (f FieldValue) MarshalJSON() ([]byte, error) {
	var v *string
	if f.Value != "" {
		v = &f.Value
	}
	return json.Marshal(struct {
		Value      *string `json:"value"`
		Confidence float64 `json:"confidence"`
		Source     string  `json:"source"`
	}{v, f.Confidence, f.Source})
}

// UnmarshalJSON accepts the null-value wire form.
func (f *FieldValue) UnmarshalJSON(data []byte) error {
	var aux struct {
		Value      *string `json:"value"`
		Confidence float64 `json:"confidence"`
		Source     string  `json:"source"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	f.Confidence = aux.Confidence
	f.Source = aux.Source
	if aux.Value != nil {
		f.Value = *aux.Value
	} else {
		f.Value = ""
		f.Confidence = 0
	}
	return nil
}

// Field keys of the passport field set. The set is closed; keys are never
// extended at runtime.
const (
	FieldSurname             = "surname"
	FieldName                = "name"
	FieldPatronymic          = "patronymic"
	FieldGender              = "gender"
	FieldBirthDate           = "birth_date"
	FieldBirthPlace          = "birth_place"
	FieldPassportSeries      = "passport_series"
	FieldPassportNumber      = "passport_number"
	FieldIssueDate           = "issue_date"
	FieldIssuePlace          = "issue_place"
	FieldAuthorityCode       = "authority_code"
	FieldRegistrationAddress = "registration_address"
	FieldMRZ                 = "mrz"
)

// FieldKeys lists every field key in canonical order.
var FieldKeys = []string{
	FieldSurname,
	FieldName,
	FieldPatronymic,
	FieldGender,
	FieldBirthDate,
	FieldBirthPlace,
	FieldPassportSeries,
	FieldPassportNumber,
	FieldIssueDate,
	FieldIssuePlace,
	FieldAuthorityCode,
	FieldRegistrationAddress,
	FieldMRZ,
}

// FieldSet maps the fixed field keys to extracted values.
type FieldSet map[string]FieldValue

// NewFieldSet returns an all-empty field set with every key present.
func NewFieldSet() FieldSet {
	fs := make(FieldSet, len(FieldKeys))
	for _, k := range FieldKeys {
		src := SourceOCR
		if k == FieldMRZ {
			src = SourceMRZ
		}
		fs[k] = FieldValue{Source: src}
	}
	return fs
}

// Get returns the value for key, or an empty value for unknown keys.
func (fs FieldSet) Get(key string) FieldValue { return fs[key] }

// Set stores a value for a known key. Unknown keys are ignored to keep the
// set closed.
func (fs FieldSet) Set(key string, v FieldValue) {
	if _, ok := fs[key]; ok {
		fs[key] = v
	}
}

// SetIfBetter stores the candidate only when it is non-empty and at least as
// confident as the current value. An already-confident value is never
// replaced by a less confident one.
func (fs FieldSet) SetIfBetter(key string, candidate FieldValue) {
	if candidate.Empty() {
		return
	}
	cur, ok := fs[key]
	if !ok {
		return
	}
	if cur.Empty() || candidate.Confidence > cur.Confidence {
		fs[key] = candidate
	}
}

// HasValues reports whether at least one field was extracted.
func (fs FieldSet) HasValues() bool {
	for _, v := range fs {
		if !v.Empty() {
			return true
		}
	}
	return false
}

// Clone returns an independent copy of the field set.
func (fs FieldSet) Clone() FieldSet {
	out := make(FieldSet, len(fs))
	for k, v := range fs {
		out[k] = v
	}
	return out
}

// Checks holds per-category validation flags. They are derived data,
// recomputed fresh on every validation pass.
type Checks struct {
	DateFormatsOK      bool  `json:"date_formats_ok"`
	SeriesNumberValid  bool  `json:"series_number_valid"`
	AuthorityCodeValid bool  `json:"authority_code_valid"`
	MRZChecksumOK      *bool `json:"mrz_checksum_ok,omitempty"`
}

// NewChecks returns the all-passing initial state.
func NewChecks() Checks {
	return Checks{DateFormatsOK: true, SeriesNumberValid: true, AuthorityCodeValid: true}
}

// DebugInfo carries stage timings and processing metadata. It must never
// contain recognized text: records are logged, text is personal data.
type DebugInfo struct {
	PipelineVersion string             `json:"pipeline_version"`
	TimingsMS       map[string]float64 `json:"timings_ms"`
	OCREngine       string             `json:"ocr_engine"`
	Preprocess      map[string]bool    `json:"preprocess"`
}

// NewDebugInfo returns an initialized debug block.
func NewDebugInfo() DebugInfo {
	return DebugInfo{
		PipelineVersion: "v1",
		TimingsMS:       make(map[string]float64),
		Preprocess:      make(map[string]bool),
	}
}

// Record is the top-level extraction result for one image or one
// aggregated person group. Records are request-scoped and never persisted.
type Record struct {
	DocType  string    `json:"doc_type"`
	PageType PageType  `json:"page_type"`
	Fields   FieldSet  `json:"fields"`
	Checks   Checks    `json:"checks"`
	Errors   []string  `json:"errors"`
	Debug    DebugInfo `json:"debug"`
}

// NewRecord returns a record with empty fields and passing checks.
func NewRecord() *Record {
	return &Record{
		DocType:  DocType,
		PageType: PageUnknown,
		Fields:   NewFieldSet(),
		Checks:   NewChecks(),
		Errors:   []string{},
		Debug:    NewDebugInfo(),
	}
}
