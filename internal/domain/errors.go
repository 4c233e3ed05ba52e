package domain

import (
	"errors"
	"strings"
)

// Failure modes of a remote load. Anything that is none of these is treated
// as a transport failure.
var (
	// ErrSourceStatus is returned when the sheet endpoint answers with a
	// non-success HTTP status.
	ErrSourceStatus = errors.New("sheet source returned non-success status")

	// ErrErrorPage is returned when the endpoint serves an HTML page instead
	// of CSV, which is what happens when the sheet is not published or its
	// sharing settings block anonymous access.
	ErrErrorPage = errors.New("sheet source returned an HTML page instead of CSV")

	// ErrNoRecords is returned when the body parsed but no row had an id.
	ErrNoRecords = errors.New("sheet source produced no valid records")
)

// errorPageMarker is the signature of the sharing/permissions page.
const errorPageMarker = "<!DOCTYPE html>"

// LooksLikeErrorPage reports whether body is an HTML document rather than CSV.
func LooksLikeErrorPage(body string) bool {
	return strings.HasPrefix(strings.TrimSpace(body), errorPageMarker)
}
