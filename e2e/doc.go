//go:build e2e

// Package e2e drives the funding application wizard in a real browser.
//
// These tests are isolated from the standard test suite via build tags.
// They require a Chrome browser (auto-downloaded by Rod if not present)
// and are intended for CI pipelines or explicit local testing.
//
// Running E2E tests:
//
//	go test -tags=e2e ./e2e/...
//
// Against a deployed application instead of the bundled reference app:
//
//	LEADFLOW_BASE_URL=https://apply.example.com LEADFLOW_PASSWORD=... go test -tags=e2e ./e2e/...
//
// Running all tests except E2E:
//
//	go test ./...
//
// E2E tests use:
//   - Rod for browser automation (Chrome DevTools Protocol)
//   - the reference app from cmd/leadflow/server as the default target
//   - driver.Driver for every user action and wait
//   - interceptor.Interceptor so no webhook call leaves the browser
//
// Test isolation:
// Each test starts its own server on a random port and launches
// its own browser instance. Tests can run in parallel.
package e2e
