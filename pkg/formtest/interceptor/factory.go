package interceptor

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/charmbracelet/log"
)

// Option configures an Interceptor.
type Option func(*Interceptor) error

// WithFormDataURL sets the endpoint receiving the JSON submission.
// Default: config.DefaultFormWebhookURL
func WithFormDataURL(raw string) Option {
	return func(i *Interceptor) error {
		u, err := parseEndpoint(raw)
		if err != nil {
			return err
		}
		i.formURL = u
		return nil
	}
}

// WithFileUploadURL sets the endpoint receiving multipart documents.
// Default: config.DefaultFileWebhookURL
func WithFileUploadURL(raw string) Option {
	return func(i *Interceptor) error {
		u, err := parseEndpoint(raw)
		if err != nil {
			return err
		}
		i.fileURL = u
		return nil
	}
}

// WithStatus sets the HTTP status of the canned webhook response, for
// exercising the application's failure path.
// Default: 200
func WithStatus(status int) Option {
	return func(i *Interceptor) error {
		if status < 200 || status > 599 {
			return fmt.Errorf("invalid status %d", status)
		}
		i.status = status
		return nil
	}
}

// WithLogger sets the logger for interception events.
func WithLogger(l *log.Logger) Option {
	return func(i *Interceptor) error {
		if l == nil {
			return errors.New("nil logger")
		}
		i.logger = l
		return nil
	}
}

// WithOnCapture registers a callback invoked for each recorded request.
// It runs on the hijack goroutine.
func WithOnCapture(fn func(Capture)) Option {
	return func(i *Interceptor) error {
		i.onCapture = fn
		return nil
	}
}

func parseEndpoint(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse webhook url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("webhook url %q has no host", raw)
	}
	return u, nil
}
