package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAnalysisResult_TextOnly(t *testing.T) {
	result, err := DecodeAnalysisResult([]byte(`{"text": "Hello"}`))
	require.NoError(t, err)

	assert.True(t, result.HasText())
	assert.Equal(t, "Hello", *result.Text)
	assert.False(t, result.HasImage())
	assert.False(t, result.HasErrors())
}

func TestDecodeAnalysisResult_SingleError(t *testing.T) {
	body := `{"errors": [{"error_id": 1, "found_text": "teh", "error_type": "Spelling", "issue_description": "typo", "corrected_text": "the"}]}`

	result, err := DecodeAnalysisResult([]byte(body))
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)

	record := result.Errors[0]
	assert.Equal(t, "1", record.ErrorID)
	assert.Equal(t, "teh", record.FoundText)
	assert.Equal(t, CategorySpelling, record.Category())
	assert.Equal(t, "typo", record.IssueDescription)
	assert.Equal(t, "the", record.CorrectedText)
	assert.Nil(t, record.LocationHint)
	assert.False(t, result.HasText())
	assert.False(t, result.HasImage())
}

func TestDecodeAnalysisResult_Image(t *testing.T) {
	result, err := DecodeAnalysisResult([]byte(`{"image": "iVBORw0KGgo="}`))
	require.NoError(t, err)
	assert.True(t, result.HasImage())

	result, err = DecodeAnalysisResult([]byte(`{"image": "%%% not base64 %%%"}`))
	require.NoError(t, err)
	assert.False(t, result.HasImage())
}

func TestDecodeAnalysisResult_MalformedFieldsAreAbsent(t *testing.T) {
	body := `{
		"image": 42,
		"text": {"nested": true},
		"errors": [
			"not an object",
			null,
			{"error_id": "E-7", "error_type": "Grammar", "location_hint": "line 2"},
			{"error_id": null, "found_text": ["x"], "error_type": "Style", "location_hint": null}
		],
		"unknown": "ignored"
	}`

	result, err := DecodeAnalysisResult([]byte(body))
	require.NoError(t, err)

	assert.Nil(t, result.Image)
	assert.Nil(t, result.Text)
	require.Len(t, result.Errors, 2)

	assert.Equal(t, "E-7", result.Errors[0].ErrorID)
	assert.Equal(t, CategoryGrammar, result.Errors[0].Category())
	require.NotNil(t, result.Errors[0].LocationHint)
	assert.Equal(t, "line 2", *result.Errors[0].LocationHint)

	assert.Equal(t, "", result.Errors[1].ErrorID)
	assert.Equal(t, "", result.Errors[1].FoundText)
	assert.Equal(t, CategoryOther, result.Errors[1].Category())
	assert.Nil(t, result.Errors[1].LocationHint)
}

func TestDecodeAnalysisResult_ErrorsNotAnArray(t *testing.T) {
	result, err := DecodeAnalysisResult([]byte(`{"errors": "none", "text": "ok"}`))
	require.NoError(t, err)
	assert.False(t, result.HasErrors())
	assert.True(t, result.HasText())
}

func TestDecodeAnalysisResult_EmptyObject(t *testing.T) {
	result, err := DecodeAnalysisResult([]byte(`{}`))
	require.NoError(t, err)
	assert.False(t, result.HasImage())
	assert.False(t, result.HasText())
	assert.False(t, result.HasErrors())
}

func TestDecodeAnalysisResult_NotAnObject(t *testing.T) {
	bodies := []string{
		"",
		"<html>Workflow was started</html>",
		"null",
		"[]",
		`"text"`,
		`{"text": "unterminated`,
	}

	for _, body := range bodies {
		_, err := DecodeAnalysisResult([]byte(body))
		assert.Error(t, err, "body %q", body)
	}
}

func TestCategory(t *testing.T) {
	tests := map[string]ErrorCategory{
		"Spelling":    CategorySpelling,
		"Grammar":     CategoryGrammar,
		"Consistency": CategoryConsistency,
		"spelling":    CategoryOther,
		"Punctuation": CategoryOther,
		"":            CategoryOther,
	}

	for errorType, want := range tests {
		assert.Equal(t, want, ErrorRecord{ErrorType: errorType}.Category(), errorType)
	}
}

func TestAnalysisResult_MarshalOmitsAbsentFields(t *testing.T) {
	text := "Hello"
	data, err := json.Marshal(AnalysisResult{Text: &text})
	require.NoError(t, err)
	assert.JSONEq(t, `{"text": "Hello"}`, string(data))
}

func TestHasHelpersOnNil(t *testing.T) {
	var result *AnalysisResult
	assert.False(t, result.HasImage())
	assert.False(t, result.HasText())
	assert.False(t, result.HasErrors())
}
