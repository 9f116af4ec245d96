// Package controller contains HTTP middlewares and helper handlers used by the API server.
//
// Provided middlewares:
//   - WithCORS: Allows cross-origin calls and handles OPTIONS preflight.
//   - WithLogger: Attaches a request-scoped logger and request ID to the context and logs access info.
//   - WithRateLimit: Counts requests per client and rejects the ones over the limit.
//   - WithBearerAuth: Requires an RS256 signed bearer token.
//
// Provided helpers:
//   - PprofMux: Returns a ServeMux exposing net/http/pprof handlers.
//   - GetClientIP: Resolves the originating client address of a request.
//   - RemoteIP, ClientKey: Header-independent client address and the rate limiter key choice.
package controller
