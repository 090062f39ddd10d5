package health

import (
	"context"
	"slices"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Check names.
const (
	CheckCorpus    = "corpus"
	CheckCache     = "cache"
	CheckEmbedding = "embedding"
	// generatorPrefix is followed by the backend name: "generator:gemini".
	generatorPrefix = "generator:"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
// An empty corpus makes the service unhealthy: no request can be answered.
// Any other failing component only degrades it, since answers fall back gracefully.
type Service struct {
	corpus     Corpus
	cache      Pinger
	embedding  Checker
	generators map[string]Checker
}

// New creates a Service. cache and embedding can be nil.
func New(corpus Corpus, cache Pinger, embedding Checker) *Service {
	return &Service{
		corpus:     corpus,
		cache:      cache,
		embedding:  embedding,
		generators: make(map[string]Checker),
	}
}

// WithGenerator registers a generation backend health check.
func (s *Service) WithGenerator(name string, c Checker) *Service {
	if c != nil {
		s.generators[name] = c
	}
	return s
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	corpusOK := s.corpus != nil && s.corpus.Len() > 0
	checks[CheckCorpus] = result(corpusOK)

	if s.cache != nil {
		checks[CheckCache] = result(s.cache.Ping(ctx) == nil)
	}

	if s.embedding != nil {
		checks[CheckEmbedding] = result(s.embedding.HealthCheck(ctx) == nil)
	}

	names := make([]string, 0, len(s.generators))
	for name := range s.generators {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		checks[generatorPrefix+name] = result(s.generators[name].HealthCheck(ctx) == nil)
	}

	status := Healthy
	if !corpusOK {
		status = Unhealthy
	} else {
		for _, v := range checks {
			if v == CheckError {
				status = Degraded
				break
			}
		}
	}

	return Report{Status: status, Checks: checks}
}

func result(ok bool) CheckResult {
	if ok {
		return CheckOK
	}
	return CheckError
}
