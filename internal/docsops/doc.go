// Package docsops provides an HTTP client for the DocsOps document API.
//
// # Overview
//
// The client covers the endpoints the dashboard consumes: four read
// endpoints polled by the synchronization engine, the search endpoint used by
// the query pipeline, and two writes (mark all notifications read, soft
// delete a document).
//
//   - client.go: HTTP client, authentication header, response decoding
//   - types.go: records and the single documented envelope per endpoint
//   - errors.go: error taxonomy
//
// # Response Schemas
//
// Every endpoint answers with a JSON envelope:
//
//	GET /documents/list           {"data": {"documents": [...]}}
//	GET /documents/search?q=      {"data": {"documents": [...]}}
//	GET /documents/notifications  {"data": {"notifications": [...]}}
//	GET /documents/stats          {"data": {"newDocumentsThisWeek": 0, ...}}
//	GET /documents/folder-stats   {"data": {...opaque...}}
//
// A body missing the documented keys is reported as ErrMalformedResponse.
// Alternate shapes are not probed.
//
// # Errors
//
//   - ErrUnauthenticated: the TokenSource had no session; no request was sent
//   - ErrNetwork: transport failure or non-2xx status, carried by *APIError
//   - ErrMalformedResponse: body could not be decoded into the schema
//
// FetchNotifications is best effort and degrades network and schema failures
// to an empty result, because the notification feed is frequently offline.
//
// # Usage
//
//	client, err := docsops.NewClient(docsops.ClientOptions{
//		BaseURL: cfg.APIBaseURL,
//		Tokens:  user,
//		Logger:  logger,
//	})
//	docs, err := client.FetchDocuments(ctx)
package docsops
