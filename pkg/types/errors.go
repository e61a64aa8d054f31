// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "errors"

// Error kinds surfaced by the pipeline. Wrap with fmt.Errorf("...: %w") and
// match with errors.Is.
var (
	// ErrProductNotFound: the directory holds no single record for the name.
	ErrProductNotFound = errors.New("product not found")
	// ErrNoLinksToFetch: the record resolved to zero URLs across all sources.
	ErrNoLinksToFetch = errors.New("no links to fetch")
	// ErrUpstreamUnavailable: one source failed; recorded, never surfaced alone.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrEmptyResult: every dispatched source failed.
	ErrEmptyResult = errors.New("no results could be retrieved")
	// ErrUnauthenticated: no valid caller identity.
	ErrUnauthenticated = errors.New("user not logged in")
)
