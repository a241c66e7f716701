// Package runid mints the per-invocation identifier that ties together a
// run's log lines, its optional Postgres rows, and its HTTP status endpoint.
package runid

import "github.com/google/uuid"

// New returns a fresh v4 run identifier.
func New() uuid.UUID {
	return uuid.New()
}
