package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"go-image-error-detector/internal/config"
	apperrors "go-image-error-detector/internal/errors"
	"go-image-error-detector/internal/logger"
	"go-image-error-detector/internal/observer"
	"go-image-error-detector/internal/render"
	"go-image-error-detector/internal/webhook"
	"go-image-error-detector/internal/widget"
	"go-image-error-detector/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const requestIDHeader = "X-Request-ID"

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Dependencies are shared by every request; forms themselves are per request.
type Dependencies struct {
	Submitter widget.Submitter
	Renderer  *render.Renderer
	Metrics   *observer.MetricsObserver
	Observers []observer.Observer
}

func NewHandler(deps Dependencies, cfg *config.Config) http.Handler {
	r := gin.New()

	// Add middleware
	r.Use(
		gin.Recovery(),
		requestID(),
		requestLogger(),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/", showForm(deps))
	r.POST("/analyze", analyzeForm(deps))
	r.POST("/api/analyze", analyzeAPI(deps))
	r.GET("/health", healthCheck)
	r.GET("/metrics", metrics(deps.Metrics))

	return r
}

func newForm(deps Dependencies) *widget.UploadForm {
	observers := make([]observer.Observer, 0, len(deps.Observers)+1)
	observers = append(observers, deps.Observers...)
	if deps.Metrics != nil {
		observers = append(observers, deps.Metrics)
	}
	return widget.NewUploadForm(deps.Submitter, observer.NewEventPublisher(observers...))
}

func showForm(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		form := newForm(deps)
		renderPage(c, deps.Renderer, http.StatusOK, render.Page{State: form.Snapshot()})
	}
}

// analyzeForm runs one select-and-submit round trip of the page.
func analyzeForm(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		form := newForm(deps)

		upload, err := readUpload(c)
		switch {
		case errors.Is(err, errNoUpload):
			// Submit without a selection only produces the notice
			err = form.Submit(ctx)
			renderPage(c, deps.Renderer, apperrors.GetStatusCode(err), render.Page{
				State:  form.Snapshot(),
				Notice: widget.NoFileNotice,
			})
			return
		case err != nil:
			logFailure(c, err, "Failed to read uploaded image")
			renderPage(c, deps.Renderer, apperrors.GetStatusCode(err), render.Page{
				State: models.FormState{ErrorMessage: widget.GenericErrorMessage},
			})
			return
		}

		form.SelectFile(ctx, *upload)

		status := http.StatusOK
		if err := form.Submit(ctx); err != nil {
			status = apperrors.GetStatusCode(err)
		}

		renderPage(c, deps.Renderer, status, render.Page{State: form.Snapshot()})
	}
}

// analyzeAPI is the JSON flavour of analyzeForm for scripted clients.
func analyzeAPI(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx := c.Request.Context()
		form := newForm(deps)

		upload, err := readUpload(c)
		switch {
		case errors.Is(err, errNoUpload):
			err = form.Submit(ctx)
			respondError(c, apperrors.GetStatusCode(err), widget.NoFileNotice, err)
			return
		case err != nil:
			respondError(c, apperrors.GetStatusCode(err), widget.GenericErrorMessage, err)
			return
		}

		form.SelectFile(ctx, *upload)
		if err := form.Submit(ctx); err != nil {
			respondError(c, apperrors.GetStatusCode(err), form.Snapshot().ErrorMessage, err)
			return
		}

		logger.WithFields(logrus.Fields{
			"request_id":         c.GetString(requestIDKey),
			"filename":           upload.Filename,
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}).Debug("API analysis completed")

		c.JSON(http.StatusOK, form.Snapshot().Result)
	}
}

var errNoUpload = errors.New("no file uploaded")

func readUpload(c *gin.Context) (*models.Upload, error) {
	header, err := c.FormFile(webhook.FileField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, errNoUpload
		}

		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			appErr := apperrors.NewValidationError("uploaded file too large", err)
			appErr.StatusCode = http.StatusRequestEntityTooLarge
			return nil, appErr
		}
		return nil, apperrors.NewValidationError("invalid multipart form", err)
	}

	file, err := header.Open()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to open uploaded file", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to read uploaded file", err)
	}

	return &models.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     content,
	}, nil
}

func renderPage(c *gin.Context, renderer *render.Renderer, status int, page render.Page) {
	var buf bytes.Buffer
	if err := renderer.Render(&buf, page); err != nil {
		logFailure(c, err, "Failed to render page")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func metrics(m *observer.MetricsObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.JSON(http.StatusOK, gin.H{})
			return
		}
		c.JSON(http.StatusOK, m.GetMetrics())
	}
}

// Middleware and helper functions

const requestIDKey = "request_id"

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()

		logger.WithFields(logrus.Fields{
			"request_id":  c.GetString(requestIDKey),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status_code": c.Writer.Status(),
			"duration_ms": time.Since(startTime).Milliseconds(),
			"ip":          c.ClientIP(),
		}).Info("Request handled")
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last().Err
			respondError(c, determineStatusCode(err), widget.GenericErrorMessage, err)
		}
	}
}

func determineStatusCode(err error) int {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func logFailure(c *gin.Context, err error, message string) {
	logger.WithError(err).WithFields(logrus.Fields{
		"request_id": c.GetString(requestIDKey),
		"error_type": apperrors.TypeOf(err),
		"path":       c.Request.URL.Path,
		"ip":         c.ClientIP(),
	}).Error(message)
}

// respondError never puts the cause in the body; it goes to the log.
func respondError(c *gin.Context, code int, message string, err error) {
	logger.WithError(err).WithFields(logrus.Fields{
		"request_id":  c.GetString(requestIDKey),
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, ErrorResponse{
		Error:   http.StatusText(code),
		Message: message,
	})
}
