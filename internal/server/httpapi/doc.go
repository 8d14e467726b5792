// Package httpapi exposes the greenbond services over HTTP/JSON.
//
// # Overview
//
// Server owns a chi router (see Router) with request ids, real-ip, request
// logging with a correlation id, panic recovery, a per-request timeout,
// permissive CORS and Prometheus request metrics. Handlers are thin: they
// decode the body, call one service method and render a view type, so the
// password hash and other storage fields never reach a response.
//
// Routes
//
//   - /health, /config, /metrics
//   - /create-order, /verify-payment
//   - /api/auth/* (register, login, refresh public; the rest need a token)
//   - /api/bonds, /api/bonds/{id}, /api/bonds/{id}/projects
//   - /api/investments, /api/kyc/documents, /api/kyc/status (token)
//
// # Error Handling
//
// writeError is the only place that maps errors to status codes. Sentinel
// errors from internal/common are matched with errors.Is; anything it does
// not recognise becomes an opaque 500 carrying the correlation id, and the
// real error is logged.
package httpapi
