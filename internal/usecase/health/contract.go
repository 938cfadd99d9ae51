package health

import "context"

// StorePinger checks knowledge store availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// LLMChecker checks LLM provider availability.
type LLMChecker interface {
	HealthCheck(ctx context.Context) error
}

// IndexReader exposes the loaded index size.
type IndexReader interface {
	Size() int
}
