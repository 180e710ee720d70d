package observer

import (
	"context"
	"sync"
	"time"

	"go-image-error-detector/pkg/models"

	"github.com/sirupsen/logrus"
)

// FormEvent is published by the upload form on every interaction and state change.
type FormEvent struct {
	EventType    EventType        `json:"event_type"`
	Timestamp    time.Time        `json:"timestamp"`
	SubmissionID string           `json:"submission_id,omitempty"`
	Filename     string           `json:"filename,omitempty"`
	FileSize     int              `json:"file_size,omitempty"`
	Duration     time.Duration    `json:"duration,omitempty"`
	Err          error            `json:"-"`
	ErrorType    string           `json:"error_type,omitempty"`
	State        models.FormState `json:"state"`
}

// EventType represents the type of form event
type EventType string

const (
	// FileSelected when the user picks a new file
	FileSelected EventType = "file_selected"
	// SubmitStarted when the webhook call begins
	SubmitStarted EventType = "submit_started"
	// SubmitSucceeded when the webhook returned a usable payload
	SubmitSucceeded EventType = "submit_succeeded"
	// SubmitFailed covers transport, status and decode failures
	SubmitFailed EventType = "submit_failed"
	// SubmitRejected when submit is attempted without a file
	SubmitRejected EventType = "submit_rejected"
	// StateChanged after every setter on the form
	StateChanged EventType = "state_changed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event FormEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event FormEvent)
}

// LoggingObserver logs form events. Failure causes only ever reach the log.
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles form events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event FormEvent) {
	fields := logrus.Fields{
		"event_type": event.EventType,
		"status":     event.State.Status(),
	}

	if event.SubmissionID != "" {
		fields["submission_id"] = event.SubmissionID
	}
	if event.Filename != "" {
		fields["filename"] = event.Filename
		fields["file_size"] = event.FileSize
	}
	if event.Duration > 0 {
		fields["processing_time_ms"] = event.Duration.Milliseconds()
	}
	if event.ErrorType != "" {
		fields["error_type"] = event.ErrorType
	}

	entry := o.logger.WithFields(fields)
	if event.Err != nil {
		entry = entry.WithError(event.Err)
	}

	switch event.EventType {
	case FileSelected:
		entry.Debug("Image selected")
	case SubmitStarted:
		entry.Info("Submitting image to analysis webhook")
	case SubmitSucceeded:
		result := event.State.Result
		entry.WithFields(logrus.Fields{
			"has_image":   result.HasImage(),
			"has_text":    result.HasText(),
			"error_count": len(errorsOf(result)),
		}).Info("Image analysis completed")
	case SubmitFailed:
		entry.Error("Image analysis failed")
	case SubmitRejected:
		entry.Warn("Submit attempted without a selected image")
	case StateChanged:
		entry.Debug("Form state changed")
	default:
		entry.Info("Form event occurred")
	}
}

func errorsOf(result *models.AnalysisResult) []models.ErrorRecord {
	if result == nil {
		return nil
	}
	return result.Errors
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver collects submission counters, shared by all forms.
type MetricsObserver struct {
	mu                    sync.RWMutex
	totalSubmissions      int64
	successfulSubmissions int64
	failedSubmissions     int64
	rejectedSubmissions   int64
	failuresByType        map[string]int64
	totalProcessingTime   time.Duration
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{
		failuresByType: make(map[string]int64),
	}
}

// OnEvent handles form events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event FormEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case SubmitStarted:
		o.totalSubmissions++
	case SubmitSucceeded:
		o.successfulSubmissions++
		o.totalProcessingTime += event.Duration
	case SubmitFailed:
		o.failedSubmissions++
		o.failuresByType[event.ErrorType]++
	case SubmitRejected:
		o.rejectedSubmissions++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current metrics
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avgProcessingTime := time.Duration(0)
	if o.successfulSubmissions > 0 {
		avgProcessingTime = o.totalProcessingTime / time.Duration(o.successfulSubmissions)
	}

	failures := make(map[string]int64, len(o.failuresByType))
	for k, v := range o.failuresByType {
		failures[k] = v
	}

	return map[string]interface{}{
		"total_submissions":      o.totalSubmissions,
		"successful_submissions": o.successfulSubmissions,
		"failed_submissions":     o.failedSubmissions,
		"rejected_submissions":   o.rejectedSubmissions,
		"failures_by_type":       failures,
		"avg_processing_time_ms": avgProcessingTime.Milliseconds(),
	}
}

// StateRecorder keeps every state published with a StateChanged event.
type StateRecorder struct {
	mu     sync.Mutex
	states []models.FormState
}

func NewStateRecorder() *StateRecorder {
	return &StateRecorder{}
}

func (r *StateRecorder) OnEvent(ctx context.Context, event FormEvent) {
	if event.EventType != StateChanged {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, event.State)
}

func (r *StateRecorder) GetObserverName() string {
	return "state_recorder"
}

func (r *StateRecorder) States() []models.FormState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.FormState(nil), r.states...)
}

// EventPublisher implements the Subject interface. Observers are called
// synchronously in subscription order.
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(observers ...Observer) *EventPublisher {
	return &EventPublisher{
		observers: append(make([]Observer, 0, len(observers)), observers...),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers notifies all observers of an event
func (p *EventPublisher) NotifyObservers(ctx context.Context, event FormEvent) {
	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	for _, obs := range observers {
		notify(ctx, obs, event)
	}
}

func notify(ctx context.Context, obs Observer, event FormEvent) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("observer", obs.GetObserverName()).
				WithField("panic", r).
				Error("Observer panicked while handling event")
		}
	}()
	obs.OnEvent(ctx, event)
}
