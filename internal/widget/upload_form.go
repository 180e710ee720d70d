// Package widget holds the upload form's state and the transitions between
// idle, in-flight and settled. A form is not safe for concurrent use; each
// page interaction gets its own form.
package widget

import (
	"context"
	"time"

	apperrors "go-image-error-detector/internal/errors"
	"go-image-error-detector/internal/observer"
	"go-image-error-detector/pkg/models"

	"github.com/google/uuid"
)

const (
	// GenericErrorMessage is the only failure text the user ever sees.
	GenericErrorMessage = "Failed to process image. Please try again later."

	// NoFileNotice is shown as a blocking notification when submitting without a file.
	NoFileNotice = "Please select an image first!"
)

// ErrNoFileSelected is returned by Submit when no file has been selected.
var ErrNoFileSelected = apperrors.NewValidationError(NoFileNotice, nil)

// Submitter sends the selected image to the analysis workflow.
type Submitter interface {
	Submit(ctx context.Context, upload models.Upload) (*models.AnalysisResult, error)
}

type UploadForm struct {
	submitter Submitter
	events    observer.Subject

	file         *models.Upload
	result       *models.AnalysisResult
	errorMessage string
	loading      bool
}

func NewUploadForm(submitter Submitter, events observer.Subject) *UploadForm {
	if events == nil {
		events = observer.NewEventPublisher()
	}
	return &UploadForm{
		submitter: submitter,
		events:    events,
	}
}

// Snapshot returns a copy of the current state.
func (f *UploadForm) Snapshot() models.FormState {
	state := models.FormState{
		Loading:      f.loading,
		Result:       f.result,
		ErrorMessage: f.errorMessage,
	}
	if f.file != nil {
		state.HasFile = true
		state.Filename = f.file.Filename
	}
	return state
}

func (f *UploadForm) Status() models.Status {
	return f.Snapshot().Status()
}

// SelectFile replaces the selected file and clears any previous outcome.
func (f *UploadForm) SelectFile(ctx context.Context, upload models.Upload) {
	f.file = &upload
	f.setResult(ctx, nil)
	f.setError(ctx, "")

	f.publish(ctx, observer.FormEvent{
		EventType: observer.FileSelected,
		Filename:  upload.Filename,
		FileSize:  upload.Size(),
	})
}

// Submit forwards the selected file. Without a file it returns
// ErrNoFileSelected and leaves the state untouched. Any other returned error
// is the diagnostic cause of a failure; the state only ever carries
// GenericErrorMessage.
func (f *UploadForm) Submit(ctx context.Context) error {
	if f.file == nil {
		f.publish(ctx, observer.FormEvent{
			EventType: observer.SubmitRejected,
			Err:       ErrNoFileSelected,
			ErrorType: string(apperrors.ErrorTypeValidation),
		})
		return ErrNoFileSelected
	}

	upload := *f.file
	submissionID := uuid.NewString()
	startTime := time.Now()

	f.setLoading(ctx, true)
	defer f.setLoading(ctx, false)

	f.setError(ctx, "")
	f.setResult(ctx, nil)

	f.publish(ctx, observer.FormEvent{
		EventType:    observer.SubmitStarted,
		SubmissionID: submissionID,
		Filename:     upload.Filename,
		FileSize:     upload.Size(),
	})

	result, err := f.submitter.Submit(ctx, upload)
	if err == nil && result == nil {
		err = apperrors.NewDecodeError("webhook returned no payload", nil)
	}

	if err != nil {
		f.setError(ctx, GenericErrorMessage)
		f.publish(ctx, observer.FormEvent{
			EventType:    observer.SubmitFailed,
			SubmissionID: submissionID,
			Filename:     upload.Filename,
			Duration:     time.Since(startTime),
			Err:          err,
			ErrorType:    string(apperrors.TypeOf(err)),
		})
		return err
	}

	f.setResult(ctx, result)
	f.publish(ctx, observer.FormEvent{
		EventType:    observer.SubmitSucceeded,
		SubmissionID: submissionID,
		Filename:     upload.Filename,
		Duration:     time.Since(startTime),
	})
	return nil
}

func (f *UploadForm) setLoading(ctx context.Context, loading bool) {
	f.loading = loading
	f.stateChanged(ctx)
}

func (f *UploadForm) setResult(ctx context.Context, result *models.AnalysisResult) {
	f.result = result
	f.stateChanged(ctx)
}

func (f *UploadForm) setError(ctx context.Context, message string) {
	f.errorMessage = message
	f.stateChanged(ctx)
}

func (f *UploadForm) stateChanged(ctx context.Context) {
	f.publish(ctx, observer.FormEvent{EventType: observer.StateChanged})
}

func (f *UploadForm) publish(ctx context.Context, event observer.FormEvent) {
	event.State = f.Snapshot()
	f.events.NotifyObservers(ctx, event)
}
