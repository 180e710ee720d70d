package render

import (
	"bytes"
	"strings"
	"testing"

	"go-image-error-detector/internal/widget"
	"go-image-error-detector/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderPage(t *testing.T, page Page) string {
	t.Helper()

	r, err := New()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, page))
	return buf.String()
}

func decode(t *testing.T, body string) *models.AnalysisResult {
	t.Helper()
	result, err := models.DecodeAnalysisResult([]byte(body))
	require.NoError(t, err)
	return result
}

func TestRender_Idle(t *testing.T) {
	html := renderPage(t, Page{})

	assert.Contains(t, html, `accept="image/*"`)
	assert.Contains(t, html, `name="file"`)
	assert.Contains(t, html, `action="/analyze"`)
	assert.Contains(t, html, "Upload &amp; Analyze</button>")
	assert.NotContains(t, html, `type="submit" disabled`)
	assert.NotContains(t, html, `role="alert"`)
	assert.NotContains(t, html, `class="result"`)
}

func TestRender_InFlight(t *testing.T) {
	html := renderPage(t, Page{State: models.FormState{Loading: true, HasFile: true}})

	assert.Contains(t, html, `type="submit" disabled>Processing...</button>`)
}

func TestRender_ErrorMessage(t *testing.T) {
	html := renderPage(t, Page{State: models.FormState{ErrorMessage: widget.GenericErrorMessage}})

	assert.Contains(t, html, `<p class="alert" role="alert">Failed to process image. Please try again later.</p>`)
	assert.NotContains(t, html, `class="result"`)
}

func TestRender_TextOnly(t *testing.T) {
	html := renderPage(t, Page{State: models.FormState{Result: decode(t, `{"text": "Hello\n  world"}`)}})

	assert.Contains(t, html, "Extracted Text")
	assert.Contains(t, html, "<pre>Hello\n  world</pre>")
	assert.NotContains(t, html, "<img")
	assert.NotContains(t, html, "<table")
}

func TestRender_SingleErrorRow(t *testing.T) {
	body := `{"errors": [{"error_id": 1, "found_text": "teh", "error_type": "Spelling", "issue_description": "typo", "corrected_text": "the"}]}`
	html := renderPage(t, Page{State: models.FormState{Result: decode(t, body)}})

	assert.Equal(t, 1, strings.Count(html, "<tr data-error-id="))
	assert.Contains(t, html, `<td class="error-type" style="color: red">Spelling</td>`)
	assert.Contains(t, html, "<td>"+LocationPlaceholder+"</td>")
	assert.Contains(t, html, `<td class="error-id">1</td>`)
	assert.NotContains(t, html, "Extracted Text")
	assert.NotContains(t, html, "<img")

	headers := []string{"ID", "Found Text", "Type", "Description", "Corrected Text", "Location Hint"}
	last := -1
	for _, h := range headers {
		idx := strings.Index(html, "<th>"+h+"</th>")
		require.Greater(t, idx, last, "column %q out of order", h)
		last = idx
	}
}

func TestRender_EmptyErrorsHidesTable(t *testing.T) {
	html := renderPage(t, Page{State: models.FormState{Result: decode(t, `{"errors": []}`)}})
	assert.NotContains(t, html, "<table")
}

func TestRender_Image(t *testing.T) {
	html := renderPage(t, Page{State: models.FormState{Result: decode(t, `{"image": "iVBORw0KGgo="}`)}})

	assert.Contains(t, html, `<img src="data:image/png;base64,iVBORw0KGgo=" alt="Processed Result">`)
	assert.NotContains(t, html, "Extracted Text")
}

func TestRender_EscapesPayload(t *testing.T) {
	body := `{"text": "<script>x()</script>", "errors": [{"error_id": "a\"b", "found_text": "<b>", "error_type": "Grammar", "location_hint": "top"}]}`
	html := renderPage(t, Page{State: models.FormState{Result: decode(t, body)}})

	assert.NotContains(t, html, "<script>x()</script>")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.Contains(t, html, "<td>&lt;b&gt;</td>")
	assert.Contains(t, html, `style="color: blue"`)
	assert.Contains(t, html, "<td>top</td>")
}

func TestRender_Notice(t *testing.T) {
	alert := `alert("Please select an image first!");`

	// the client-side guard is always present
	assert.Equal(t, 1, strings.Count(renderPage(t, Page{}), alert))
	assert.Equal(t, 2, strings.Count(renderPage(t, Page{Notice: widget.NoFileNotice}), alert))
}

func TestTypeColor(t *testing.T) {
	tests := map[string]string{
		"Spelling":    "red",
		"Grammar":     "blue",
		"Consistency": "purple",
		"Style":       "black",
		"":            "black",
	}
	for errorType, want := range tests {
		assert.Equal(t, want, TypeColor(errorType), errorType)
	}
}

func TestLocationHint(t *testing.T) {
	empty := ""
	hint := "paragraph 3"

	assert.Equal(t, LocationPlaceholder, LocationHint(nil))
	assert.Equal(t, LocationPlaceholder, LocationHint(&empty))
	assert.Equal(t, "paragraph 3", LocationHint(&hint))
}
