package container

import (
	"fmt"
	"net/http"

	"go-image-error-detector/internal/config"
	"go-image-error-detector/internal/logger"
	"go-image-error-detector/internal/observer"
	"go-image-error-detector/internal/render"
	"go-image-error-detector/internal/transport"
	"go-image-error-detector/internal/webhook"

	"golang.org/x/time/rate"
)

// Container holds all application dependencies
type Container struct {
	config   *config.Config
	webhook  *webhook.Client
	renderer *render.Renderer
	metrics  *observer.MetricsObserver
	handler  http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	// Build dependency graph
	options := []webhook.Option{webhook.WithHTTPClient(webhook.NewHTTPClient(cfg.WebhookTimeout))}
	if cfg.WebhookRateLimit > 0 {
		options = append(options, webhook.WithLimiter(rate.NewLimiter(rate.Limit(cfg.WebhookRateLimit), 1)))
	}

	client, err := webhook.New(cfg.WebhookURL, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook client: %w", err)
	}

	renderer, err := render.New()
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	metrics := observer.NewMetricsObserver()
	handler := transport.NewHandler(transport.Dependencies{
		Submitter: client,
		Renderer:  renderer,
		Metrics:   metrics,
		Observers: []observer.Observer{observer.NewLoggingObserver(logger.Logger)},
	}, cfg)

	return &Container{
		config:   cfg,
		webhook:  client,
		renderer: renderer,
		metrics:  metrics,
		handler:  handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Webhook returns the client that forwards uploads to the analysis workflow
func (c *Container) Webhook() *webhook.Client {
	return c.webhook
}

// Metrics returns the submission counters shared by all requests
func (c *Container) Metrics() *observer.MetricsObserver {
	return c.metrics
}
