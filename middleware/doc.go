// Copyright (c) 2026 Riplive.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and response helpers shared by
all handlers.

# Helpers

  - WithLogging: structured request/response logging with timing
  - JSONResponse: JSON serialization with proper content-type headers
  - ErrorResponse: standardized error responses using models.ErrorResponse
  - ParseJSONBody: request body decoding
  - CORS: cross-origin support for browser-based ops consoles

Handlers write every response through JSONResponse or ErrorResponse so the
wire format stays uniform across endpoints.
*/
package middleware
