package interceptor

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-rod/rod"
	"github.com/google/uuid"

	"github.com/thesyncim/leadflow/pkg/formtest/config"
	"github.com/thesyncim/leadflow/pkg/formtest/logging"
)

// Request is the transport-independent view of an intercepted call.
type Request struct {
	Method      string
	URL         string
	ContentType string
	Body        []byte
}

// Response is what the browser receives instead of the real webhook reply.
type Response struct {
	Status int
	Header map[string]string
	Body   []byte
}

// webhookReply mirrors the automation platform's acknowledgement.
type webhookReply struct {
	Attempt   string `json:"attempt"`
	ID        string `json:"id"`
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Methods": "POST, OPTIONS",
	"Access-Control-Allow-Headers": "Content-Type",
}

// Interceptor answers webhook calls locally and records them.
type Interceptor struct {
	formURL   *url.URL
	fileURL   *url.URL
	status    int
	logger    *log.Logger
	onCapture func(Capture)
	rec       *Recorder

	mu     sync.Mutex
	router *rod.HijackRouter
}

// New creates an Interceptor for the default webhook endpoints.
func New(opts ...Option) (*Interceptor, error) {
	i := &Interceptor{
		status: http.StatusOK,
		logger: logging.Discard(),
		rec:    NewRecorder(),
	}
	defaults := []Option{
		WithFormDataURL(config.DefaultFormWebhookURL),
		WithFileUploadURL(config.DefaultFileWebhookURL),
	}
	for _, opt := range append(defaults, opts...) {
		if err := opt(i); err != nil {
			return nil, err
		}
	}
	return i, nil
}

// Recorder returns the capture store.
func (i *Interceptor) Recorder() *Recorder {
	return i.rec
}

// Hosts returns the distinct webhook hosts that are intercepted.
func (i *Interceptor) Hosts() []string {
	hosts := []string{i.formURL.Host}
	if i.fileURL.Host != i.formURL.Host {
		hosts = append(hosts, i.fileURL.Host)
	}
	return hosts
}

// Classify maps a URL to its endpoint. Query strings and trailing
// slashes are ignored.
func (i *Interceptor) Classify(raw string) Endpoint {
	u, err := url.Parse(raw)
	if err != nil {
		return EndpointUnknown
	}
	switch {
	case sameEndpoint(u, i.formURL):
		return EndpointFormData
	case sameEndpoint(u, i.fileURL):
		return EndpointFileUpload
	default:
		return EndpointUnknown
	}
}

func sameEndpoint(a, b *url.URL) bool {
	return strings.EqualFold(a.Host, b.Host) &&
		strings.TrimSuffix(a.Path, "/") == strings.TrimSuffix(b.Path, "/")
}

// Handle records req and builds the canned response. Preflight requests
// are answered but not recorded.
func (i *Interceptor) Handle(req Request) Response {
	if req.Method == http.MethodOptions {
		return Response{Status: http.StatusNoContent, Header: cloneHeaders()}
	}

	c := Capture{
		ID:          uuid.NewString(),
		Endpoint:    i.Classify(req.URL),
		Method:      req.Method,
		URL:         req.URL,
		ContentType: req.ContentType,
		Body:        req.Body,
		At:          time.Now(),
	}
	if c.Endpoint == EndpointFileUpload {
		if err := c.parseMultipart(); err != nil {
			i.logger.Warn("Unparseable upload", "url", req.URL, "err", err)
		}
	}
	i.rec.Record(c)
	if i.onCapture != nil {
		i.onCapture(c)
	}
	i.logger.Debug("Intercepted webhook", "endpoint", c.Endpoint, "method", c.Method, "bytes", len(c.Body), "id", c.ID)

	h := cloneHeaders()
	h["Content-Type"] = "application/json"
	if c.Endpoint == EndpointUnknown {
		return Response{
			Status: http.StatusNotFound,
			Header: h,
			Body:   []byte(`{"status":"error","message":"unknown hook"}`),
		}
	}

	reply := webhookReply{
		Attempt:   uuid.NewString(),
		ID:        c.ID,
		RequestID: uuid.NewString(),
		Status:    "success",
	}
	if i.status >= http.StatusBadRequest {
		reply.Status = "error"
	}
	body, _ := json.Marshal(reply)
	return Response{Status: i.status, Header: h, Body: body}
}

func cloneHeaders() map[string]string {
	h := make(map[string]string, len(corsHeaders)+1)
	for k, v := range corsHeaders {
		h[k] = v
	}
	return h
}

// Install starts intercepting every request to the webhook hosts on page.
// It must be called before the page issues its first webhook call.
func (i *Interceptor) Install(page *rod.Page) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.router != nil {
		return fmt.Errorf("interceptor already installed")
	}

	router := page.HijackRequests()
	for _, host := range i.Hosts() {
		pattern := "*://" + host + "/*"
		if err := router.Add(pattern, "", i.hijack); err != nil {
			return fmt.Errorf("hijack %s: %w", pattern, err)
		}
	}
	go router.Run()
	i.router = router

	i.logger.Info("Webhooks intercepted", "hosts", i.Hosts())
	return nil
}

func (i *Interceptor) hijack(h *rod.Hijack) {
	resp := i.Handle(Request{
		Method:      h.Request.Method(),
		URL:         h.Request.URL().String(),
		ContentType: h.Request.Header("Content-Type"),
		Body:        []byte(h.Request.Body()),
	})
	h.Response.Payload().ResponseCode = resp.Status
	for k, v := range resp.Header {
		h.Response.SetHeader(k, v)
	}
	h.Response.SetBody(resp.Body)
}

// Stop removes the interception. Safe to call more than once.
func (i *Interceptor) Stop() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.router == nil {
		return nil
	}
	err := i.router.Stop()
	i.router = nil
	return err
}
