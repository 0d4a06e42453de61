package ingestion

import "errors"

// ErrIngestionEmpty is returned when a snapshot contained zero parseable
// rows (spec §7: fatal for the run).
var ErrIngestionEmpty = errors.New("ingestion: no parseable rows in snapshot")
