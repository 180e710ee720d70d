package models

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// AnalysisResult is the payload returned by the analysis webhook. Every field
// is optional; a field that is missing or has the wrong shape is left nil.
type AnalysisResult struct {
	Image  *string       `json:"image,omitempty"`
	Text   *string       `json:"text,omitempty"`
	Errors []ErrorRecord `json:"errors,omitempty"`
}

// ErrorRecord is one finding reported by the workflow.
type ErrorRecord struct {
	ErrorID          string  `json:"error_id"`
	FoundText        string  `json:"found_text"`
	ErrorType        string  `json:"error_type"`
	IssueDescription string  `json:"issue_description"`
	CorrectedText    string  `json:"corrected_text"`
	LocationHint     *string `json:"location_hint,omitempty"`
}

// ErrorCategory drives the colour of the Type column and nothing else.
type ErrorCategory string

const (
	CategorySpelling    ErrorCategory = "Spelling"
	CategoryGrammar     ErrorCategory = "Grammar"
	CategoryConsistency ErrorCategory = "Consistency"
	CategoryOther       ErrorCategory = "Other"
)

// Category maps the raw error_type onto a known category. Matching is exact.
func (r ErrorRecord) Category() ErrorCategory {
	switch ErrorCategory(r.ErrorType) {
	case CategorySpelling, CategoryGrammar, CategoryConsistency:
		return ErrorCategory(r.ErrorType)
	default:
		return CategoryOther
	}
}

func (r *AnalysisResult) HasImage() bool {
	return r != nil && r.Image != nil && *r.Image != ""
}

func (r *AnalysisResult) HasText() bool {
	return r != nil && r.Text != nil && *r.Text != ""
}

func (r *AnalysisResult) HasErrors() bool {
	return r != nil && len(r.Errors) > 0
}

// DecodeAnalysisResult parses a webhook body. Only a body that is not a JSON
// object is an error.
func DecodeAnalysisResult(data []byte) (*AnalysisResult, error) {
	var result AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *AnalysisResult) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return fmt.Errorf("analysis result must be a JSON object")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return err
	}

	*r = AnalysisResult{}

	if image, ok := stringField(fields["image"]); ok && isBase64(image) {
		r.Image = &image
	}
	if text, ok := stringField(fields["text"]); ok {
		r.Text = &text
	}

	var entries []json.RawMessage
	if raw, ok := fields["errors"]; ok && json.Unmarshal(raw, &entries) == nil {
		for _, entry := range entries {
			if record, ok := decodeErrorRecord(entry); ok {
				r.Errors = append(r.Errors, record)
			}
		}
	}

	return nil
}

func decodeErrorRecord(raw json.RawMessage) (ErrorRecord, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return ErrorRecord{}, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return ErrorRecord{}, false
	}

	record := ErrorRecord{}
	record.ErrorID, _ = scalarField(fields["error_id"])
	record.FoundText, _ = scalarField(fields["found_text"])
	record.ErrorType, _ = scalarField(fields["error_type"])
	record.IssueDescription, _ = scalarField(fields["issue_description"])
	record.CorrectedText, _ = scalarField(fields["corrected_text"])

	if hint, ok := scalarField(fields["location_hint"]); ok {
		record.LocationHint = &hint
	}

	return record, true
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func stringField(raw json.RawMessage) (string, bool) {
	if isNull(raw) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// scalarField renders strings, numbers and booleans as text. Numbers keep
// their literal form so an error_id of 7 stays "7".
func scalarField(raw json.RawMessage) (string, bool) {
	if isNull(raw) {
		return "", false
	}
	if s, ok := stringField(raw); ok {
		return s, true
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}

	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return fmt.Sprint(b), true
	}

	return "", false
}

func isBase64(s string) bool {
	_, err := base64.StdEncoding.DecodeString(s)
	return err == nil
}
