// Package http serves the dashboard as a JSON API.
//
// Handlers follow chi conventions: each one exposes Routes() and is mounted
// under /api by NewRouter. Errors are written as RFC 7807 problem documents.
package http
