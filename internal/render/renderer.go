package render

import (
	"embed"
	"html/template"
	"io"

	"go-image-error-detector/internal/widget"
	"go-image-error-detector/pkg/models"
)

const (
	SubmitLabel     = "Upload & Analyze"
	ProcessingLabel = "Processing..."

	// LocationPlaceholder is shown when an error record has no location hint.
	LocationPlaceholder = "—"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Page is everything the form page needs to render one frame.
type Page struct {
	Action string
	State  models.FormState

	// Notice is a blocking notification, rendered as alert().
	Notice string
}

type Renderer struct {
	tmpl *template.Template
}

func New() (*Renderer, error) {
	tmpl, err := template.New("index.html.tmpl").Funcs(template.FuncMap{
		"submitLabel":  submitLabel,
		"typeColor":    TypeColor,
		"locationHint": LocationHint,
		"imageSrc":     imageSrc,
		"deref":        deref,
	}).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, err
	}

	return &Renderer{tmpl: tmpl}, nil
}

func (r *Renderer) Render(w io.Writer, page Page) error {
	if page.Action == "" {
		page.Action = "/analyze"
	}

	data := struct {
		Page
		NoFileNotice    string
		ProcessingLabel string
	}{
		Page:            page,
		NoFileNotice:    widget.NoFileNotice,
		ProcessingLabel: ProcessingLabel,
	}

	return r.tmpl.ExecuteTemplate(w, "index.html.tmpl", data)
}

// TypeColor maps an error_type to the text colour of the Type column.
func TypeColor(errorType string) string {
	switch (models.ErrorRecord{ErrorType: errorType}).Category() {
	case models.CategorySpelling:
		return "red"
	case models.CategoryGrammar:
		return "blue"
	case models.CategoryConsistency:
		return "purple"
	default:
		return "black"
	}
}

func LocationHint(hint *string) string {
	if hint == nil || *hint == "" {
		return LocationPlaceholder
	}
	return *hint
}

func submitLabel(loading bool) string {
	if loading {
		return ProcessingLabel
	}
	return SubmitLabel
}

// The payload is checked to be base64 during decoding, so the data URI only
// ever contains the base64 alphabet.
func imageSrc(image *string) template.URL {
	return template.URL("data:image/png;base64," + deref(image))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
