// Package api defines the request and response types of the capflow HTTP API.
//
// # API Overview
//
// capflow exposes a small RESTful surface:
//   - POST /api/v1/capabilities/{capability}/run runs audio, vision or
//     embedding over a list of attachments and returns the outputs plus the
//     decision record
//   - GET /api/v1/debug/decisions lists recent decisions from the Redis cache
//     or the database audit log
//   - GET /api/v1/debug/provider-failures aggregates failed attempts per provider
//   - GET /health, /healthz, /ready and /version
//
// # Authentication
//
// When server.api_keys is configured, /api/v1 endpoints require the
// X-API-Key header:
//
//	X-API-Key: your-api-key
//
// # Attachments
//
// Each attachment carries exactly one of data (base64), url or text. Local
// file paths are only accepted by the CLI.
//
// # Base URL
//
// The default base URL for the API is:
//
//	http://localhost:8080
package api
