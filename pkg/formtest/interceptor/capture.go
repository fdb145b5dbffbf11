package interceptor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"strings"
	"sync"
	"time"

	"github.com/thesyncim/leadflow/pkg/formtest"
)

// ErrNoCapture is wrapped when an awaited webhook call never arrived.
var ErrNoCapture = errors.New("webhook call not captured")

// Endpoint classifies an intercepted request.
type Endpoint string

const (
	EndpointFormData   Endpoint = "form-data"
	EndpointFileUpload Endpoint = "file-upload"
	EndpointUnknown    Endpoint = "unknown"
)

// Capture is one intercepted webhook request.
type Capture struct {
	ID          string
	Endpoint    Endpoint
	Method      string
	URL         string
	ContentType string
	Body        []byte
	// Fields lists multipart part names in the order they were sent.
	Fields []string
	// Values holds non-file multipart values.
	Values map[string]string
	// Files maps multipart file parts to their file names.
	Files map[string]string
	At    time.Time
}

// Submission decodes a form-data capture's JSON body.
func (c Capture) Submission() (formtest.SubmissionPayload, error) {
	if c.Endpoint != EndpointFormData {
		return formtest.SubmissionPayload{}, fmt.Errorf("capture %s is %s, not form data", c.ID, c.Endpoint)
	}
	return formtest.DecodeSubmission(c.Body)
}

// HasField reports whether a multipart part with the given name was sent.
func (c Capture) HasField(name string) bool {
	for _, f := range c.Fields {
		if f == name {
			return true
		}
	}
	return false
}

// parseMultipart fills Fields, Values and Files from a multipart body.
func (c *Capture) parseMultipart() error {
	mediaType, params, err := mime.ParseMediaType(c.ContentType)
	if err != nil {
		return fmt.Errorf("parse content type: %w", err)
	}
	if !strings.HasPrefix(mediaType, "multipart/") {
		return fmt.Errorf("content type %q is not multipart", mediaType)
	}
	c.Values = map[string]string{}
	c.Files = map[string]string{}

	r := multipart.NewReader(bytes.NewReader(c.Body), params["boundary"])
	for {
		part, err := r.NextPart()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read multipart: %w", err)
		}
		name := part.FormName()
		c.Fields = append(c.Fields, name)
		if fn := part.FileName(); fn != "" {
			c.Files[name] = fn
		} else {
			v, err := io.ReadAll(part)
			if err != nil {
				return fmt.Errorf("read part %s: %w", name, err)
			}
			c.Values[name] = string(v)
		}
		part.Close()
	}
}

// Recorder stores captures in arrival order.
type Recorder struct {
	mu       sync.Mutex
	captures []Capture
	notify   chan struct{}
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{notify: make(chan struct{})}
}

// Record appends c and wakes any Wait.
func (r *Recorder) Record(c Capture) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.captures = append(r.captures, c)
	close(r.notify)
	r.notify = make(chan struct{})
}

// Captures returns a copy of everything recorded so far.
func (r *Recorder) Captures() []Capture {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Capture(nil), r.captures...)
}

// ByEndpoint returns the captures for one endpoint, in arrival order.
func (r *Recorder) ByEndpoint(e Endpoint) []Capture {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter(e)
}

func (r *Recorder) filter(e Endpoint) []Capture {
	var out []Capture
	for _, c := range r.captures {
		if c.Endpoint == e {
			out = append(out, c)
		}
	}
	return out
}

// Wait blocks until at least n captures for e exist or timeout elapses, and
// returns the first n. On timeout the error wraps ErrNoCapture.
func (r *Recorder) Wait(e Endpoint, n int, timeout time.Duration) ([]Capture, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		r.mu.Lock()
		got := r.filter(e)
		ch := r.notify
		r.mu.Unlock()

		if len(got) >= n {
			return got[:n], nil
		}
		select {
		case <-ch:
		case <-timer.C:
			return got, fmt.Errorf("%d of %d %s calls after %v: %w", len(got), n, e, timeout, ErrNoCapture)
		}
	}
}

// Reset forgets all captures.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.captures = nil
}
