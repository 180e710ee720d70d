package webhook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	apperrors "go-image-error-detector/internal/errors"
	"go-image-error-detector/pkg/models"

	"golang.org/x/time/rate"
)

// FileField is the multipart part name the workflow reads the image from.
const FileField = "file"

// Client posts uploads to a single webhook URL. It never retries.
type Client struct {
	client  *http.Client
	limiter *rate.Limiter

	url             string
	maxResponseSize int64
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// WithLimiter paces outbound submissions; nil disables pacing.
func WithLimiter(limiter *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = limiter
	}
}

func WithMaxResponseSize(n int64) Option {
	return func(c *Client) {
		c.maxResponseSize = n
	}
}

func New(url string, options ...Option) (*Client, error) {
	if strings.TrimSpace(url) == "" {
		return nil, apperrors.NewValidationError("webhook URL is required", nil)
	}

	c := &Client{
		client: NewHTTPClient(0),

		url:             url,
		maxResponseSize: 64 << 20,
	}

	for _, option := range options {
		option(c)
	}

	return c, nil
}

// NewHTTPClient returns the client used for webhook calls. A zero timeout
// leaves the request bound only to its context.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

func (c *Client) URL() string {
	return c.url
}

func (c *Client) Submit(ctx context.Context, upload models.Upload) (*models.AnalysisResult, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, apperrors.NewTimeoutError("webhook rate limit wait aborted", err)
		}
	}

	body, contentType, err := encodeUpload(upload)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to encode upload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to create webhook request", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.NewTimeoutError("webhook request timed out", err)
		}
		return nil, apperrors.NewNetworkError("webhook request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseSize+1))
	if err != nil {
		return nil, apperrors.NewNetworkError("failed to read webhook response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, convertError(resp.StatusCode, data)
	}

	if int64(len(data)) > c.maxResponseSize {
		return nil, apperrors.NewDecodeError("webhook response too large",
			fmt.Errorf("response exceeds %d bytes", c.maxResponseSize))
	}

	result, err := models.DecodeAnalysisResult(data)
	if err != nil {
		return nil, apperrors.NewDecodeError("webhook response is not a JSON object", err)
	}

	return result, nil
}

func encodeUpload(upload models.Upload) (io.Reader, string, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, FileField, escapeQuotes(upload.Filename)))
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}

	if _, err := part.Write(upload.Content); err != nil {
		return nil, "", err
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return &b, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

func convertError(status int, data []byte) error {
	text := strings.TrimSpace(string(data))
	if len(text) > 512 {
		text = text[:512]
	}

	if text == "" {
		text = http.StatusText(status)
	}

	return apperrors.NewNetworkError(fmt.Sprintf("webhook returned status %d", status), errors.New(text))
}
