// Package sink delivers the final answers of a submitted session to an
// external consumer: a writer, an HTTP endpoint, a callback, or several of
// them in order.
package sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/goliatone/go-formflow/pkg/model"
)

// Sink consumes a submission. Returning an error keeps the session open.
type Sink interface {
	Submit(ctx context.Context, answers model.Answers) error
}

// Func adapts a function to Sink.
type Func func(ctx context.Context, answers model.Answers) error

// Submit implements Sink.
func (f Func) Submit(ctx context.Context, answers model.Answers) error {
	return f(ctx, answers)
}

// Transformer mutates answers before they reach a sink.
type Transformer func(model.Answers) (model.Answers, error)

// Transform wraps next so every submission passes through fn first.
func Transform(next Sink, fn Transformer) Sink {
	if fn == nil {
		return next
	}
	return Func(func(ctx context.Context, answers model.Answers) error {
		out, err := fn(answers.Clone())
		if err != nil {
			return fmt.Errorf("sink: transform: %w", err)
		}
		return next.Submit(ctx, out)
	})
}

// WriterSink serializes submissions onto an io.Writer.
type WriterSink struct {
	mu     sync.Mutex
	w      io.Writer
	format Format
}

// Writer returns a sink that writes each submission to w in format,
// followed by a newline for non-pretty formats.
func Writer(w io.Writer, format Format) *WriterSink {
	if format == "" {
		format = FormatJSON
	}
	return &WriterSink{w: w, format: format}
}

// Submit implements Sink.
func (s *WriterSink) Submit(_ context.Context, answers model.Answers) error {
	data, err := Encode(answers, s.format)
	if err != nil {
		return err
	}
	if s.format != FormatPretty {
		data = append(data, '\n')
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(data); err != nil {
		return fmt.Errorf("sink: write: %w", err)
	}
	return nil
}

// StatusError reports a non-2xx response from an HTTP sink.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sink: %s responded with status %d", e.URL, e.StatusCode)
}

// HTTPSink posts submissions to an endpoint.
type HTTPSink struct {
	client  *http.Client
	url     string
	method  string
	format  Format
	headers map[string]string
}

// HTTPOption configures an HTTPSink.
type HTTPOption func(*HTTPSink)

// WithMethod overrides the request method (POST by default).
func WithMethod(method string) HTTPOption {
	return func(s *HTTPSink) {
		if method != "" {
			s.method = method
		}
	}
}

// WithFormat selects the request body encoding (JSON by default).
func WithFormat(format Format) HTTPOption {
	return func(s *HTTPSink) {
		if format != "" {
			s.format = format
		}
	}
}

// WithHeader adds a request header.
func WithHeader(key, value string) HTTPOption {
	return func(s *HTTPSink) {
		if key != "" {
			s.headers[key] = value
		}
	}
}

// HTTP returns a sink posting submissions to url. A nil client uses a client
// with a 15 second timeout.
func HTTP(client *http.Client, url string, opts ...HTTPOption) *HTTPSink {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	s := &HTTPSink{
		client:  client,
		url:     url,
		method:  http.MethodPost,
		format:  FormatJSON,
		headers: make(map[string]string),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Submit implements Sink.
func (s *HTTPSink) Submit(ctx context.Context, answers model.Answers) error {
	body, err := Encode(answers, s.format)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, s.method, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("sink: build request: %w", err)
	}
	req.Header.Set("Content-Type", s.format.ContentType())
	for key, value := range s.headers {
		req.Header.Set(key, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sink: post %s: %w", s.url, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusMultipleChoices {
		return &StatusError{StatusCode: resp.StatusCode, URL: s.url}
	}
	return nil
}

// Multi fans a submission out to every sink in order and joins their errors.
// Every sink runs even when an earlier one fails.
func Multi(sinks ...Sink) Sink {
	return Func(func(ctx context.Context, answers model.Answers) error {
		var errs []error
		for _, s := range sinks {
			if s == nil {
				continue
			}
			if err := s.Submit(ctx, answers.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

// Discard accepts every submission.
var Discard Sink = Func(func(context.Context, model.Answers) error { return nil })
