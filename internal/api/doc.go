// Package api serves the contacts REST API over HTTP.
//
// Routes are mounted on a chi router behind request-id, real-ip, logging,
// panic recovery and CORS middleware. Tag and contact routes require a session
// (see package auth); signup and login are rate limited per client address.
//
// Every response body is JSON. Failures are {"error": "<message>"}: store
// validation and conflict errors map to 400, not-found to 404, and anything
// else to a generic 500 whose detail is only logged.
package api
