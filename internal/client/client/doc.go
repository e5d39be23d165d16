// Package client contains the CLI's building blocks for talking to the
// gophnotes API and keeping local state.
//
// # Overview
//
//  1. Client is the API contract the CLI services depend on.
//  2. HTTPClient implements it over the JSON API: it sends the access token
//     as a bearer header, transparently refreshes an expired access token
//     once per call, and maps HTTP statuses to sentinel errors.
//  3. OpenStore and Migrate open the local SQLite session store and apply
//     the embedded goose migrations.
//
// # Error Handling
//
// Common conditions are sentinel errors matched with errors.Is:
// ErrUnavailable, ErrUnauthorized, ErrNotFound and ErrNotLoggedIn. Any other
// non-2xx answer surfaces as *APIError carrying the server's message and
// per-field validation errors.
//
// HTTPClient is safe for concurrent use. Every call honours ctx.
package client
