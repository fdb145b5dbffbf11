// Package interceptor replaces the application's outbound webhook calls
// with canned local responses and records what was sent.
//
// An Interceptor is installed on a single Rod page. Every request to a
// webhook host is fulfilled in the browser, so nothing reaches the real
// automation platform. Requests are classified by endpoint:
//
//   - form-data: JSON submission body (contact, company, deal)
//   - file-upload: multipart body carrying one document
//   - unknown: any other path on a webhook host, answered 404
//
// Handlers run on Rod's hijack goroutine while the test goroutine reads the
// Recorder, so the Recorder is the only synchronized state. It belongs to one
// test; nothing is shared across pages.
package interceptor
