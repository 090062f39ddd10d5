package health

import "context"

// Pinger checks key-value store availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker checks an external provider (embedding or generation).
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// Corpus reports the number of loaded documents.
type Corpus interface {
	Len() int
}
