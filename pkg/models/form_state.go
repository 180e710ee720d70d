package models

// Status is the request lifecycle of the upload form, derived from FormState.
type Status string

const (
	StatusIdle           Status = "idle"
	StatusInFlight       Status = "in_flight"
	StatusSettledSuccess Status = "settled_success"
	StatusSettledError   Status = "settled_error"
)

// FormState is a copy of the upload form's fields at one point in time.
type FormState struct {
	Filename     string          `json:"filename,omitempty"`
	HasFile      bool            `json:"has_file"`
	Loading      bool            `json:"loading"`
	Result       *AnalysisResult `json:"result,omitempty"`
	ErrorMessage string          `json:"error,omitempty"`
}

func (s FormState) Status() Status {
	switch {
	case s.Loading:
		return StatusInFlight
	case s.ErrorMessage != "":
		return StatusSettledError
	case s.Result != nil:
		return StatusSettledSuccess
	default:
		return StatusIdle
	}
}
